package graph

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/fivetwenty-io/graph-client/internal/constants"
)

// Static errors for err113 compliance.
var (
	ErrUnsupportedOperationType = errors.New("unsupported operation type")
	ErrBatchRequestRequired     = errors.New("batch operation has no request")
)

// BatchOperation represents a single request in a batch.
type BatchOperation struct {
	ID       string
	Method   string // GET, POST, PUT, PATCH or DELETE
	Request  *Request
	Content  interface{}
	Callback func(result *BatchResult)
}

// BatchResult represents the result of a batch operation.
type BatchResult struct {
	ID       string
	Success  bool
	Data     interface{}
	Error    error
	Duration time.Duration
}

// BatchExecutor runs independent requests with bounded concurrency.
type BatchExecutor struct {
	concurrency int
	timeout     time.Duration
}

// NewBatchExecutor creates a new batch executor.
func NewBatchExecutor(concurrency int) *BatchExecutor {
	if concurrency <= 0 {
		concurrency = constants.DefaultConcurrencyLimit
	}

	return &BatchExecutor{
		concurrency: concurrency,
		timeout:     constants.DefaultHTTPTimeout,
	}
}

// SetTimeout sets the per-operation timeout.
func (b *BatchExecutor) SetTimeout(timeout time.Duration) {
	b.timeout = timeout
}

// Execute runs a batch of operations. Results are returned in operation order;
// a failing operation never stops the others.
func (b *BatchExecutor) Execute(ctx context.Context, operations []BatchOperation) []BatchResult {
	results := make([]BatchResult, len(operations))
	workers := pool.New().WithMaxGoroutines(b.concurrency)

	for index, operation := range operations {
		workers.Go(func() {
			opCtx, cancel := context.WithTimeout(ctx, b.timeout)
			defer cancel()

			start := time.Now()
			result := b.executeOperation(opCtx, operation)
			result.Duration = time.Since(start)
			results[index] = *result

			if operation.Callback != nil {
				operation.Callback(result)
			}
		})
	}

	workers.Wait()

	return results
}

func (b *BatchExecutor) executeOperation(ctx context.Context, operation BatchOperation) *BatchResult {
	result := &BatchResult{ID: operation.ID}

	if operation.Request == nil {
		result.Error = ErrBatchRequestRequired

		return result
	}

	method := strings.ToUpper(operation.Method)
	if method == "" {
		method = http.MethodGet
	}

	switch method {
	case http.MethodGet, http.MethodDelete:
		result.Data, result.Error = operation.Request.send(ctx, method, operation.Request.BuildFullURL(), nil).values()
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		result.Data, result.Error = operation.Request.send(ctx, method, operation.Request.BuildFullURL(), operation.Content).values()
	default:
		result.Error = fmt.Errorf("%w: %s", ErrUnsupportedOperationType, operation.Method)
	}

	result.Success = result.Error == nil

	return result
}

// BatchBuilder helps build batch operations.
type BatchBuilder struct {
	operations []BatchOperation
}

// NewBatchBuilder creates a new batch builder.
func NewBatchBuilder() *BatchBuilder {
	return &BatchBuilder{}
}

// Add appends an operation.
func (b *BatchBuilder) Add(operation BatchOperation) *BatchBuilder {
	b.operations = append(b.operations, operation)

	return b
}

// AddGet adds a GET operation.
func (b *BatchBuilder) AddGet(id string, req *Request) *BatchBuilder {
	return b.Add(BatchOperation{ID: id, Method: http.MethodGet, Request: req})
}

// AddPost adds a POST operation.
func (b *BatchBuilder) AddPost(id string, req *Request, content interface{}) *BatchBuilder {
	return b.Add(BatchOperation{ID: id, Method: http.MethodPost, Request: req, Content: content})
}

// AddPatch adds a PATCH operation.
func (b *BatchBuilder) AddPatch(id string, req *Request, content interface{}) *BatchBuilder {
	return b.Add(BatchOperation{ID: id, Method: http.MethodPatch, Request: req, Content: content})
}

// AddPut adds a PUT operation.
func (b *BatchBuilder) AddPut(id string, req *Request, content interface{}) *BatchBuilder {
	return b.Add(BatchOperation{ID: id, Method: http.MethodPut, Request: req, Content: content})
}

// AddDelete adds a DELETE operation.
func (b *BatchBuilder) AddDelete(id string, req *Request) *BatchBuilder {
	return b.Add(BatchOperation{ID: id, Method: http.MethodDelete, Request: req})
}

// Build returns the operations.
func (b *BatchBuilder) Build() []BatchOperation {
	return b.operations
}
