package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/fivetwenty-io/graph-client/internal/constants"
)

// Page is one page of an OData collection response.
type Page[T any] struct {
	Value    []T    `json:"value"`
	NextLink string `json:"@odata.nextLink,omitempty"`
	Count    *int   `json:"@odata.count,omitempty"`
}

// PaginationOptions configures page-level helpers.
type PaginationOptions struct {
	// MaxPages stops after this many pages; 0 means no limit.
	MaxPages int
}

// DefaultPaginationOptions returns options without a page limit.
func DefaultPaginationOptions() *PaginationOptions {
	return &PaginationOptions{}
}

// PageIterator pulls items one at a time across pages, following
// @odata.nextLink. Fetches happen lazily, only when the buffer is empty.
type PageIterator[T any] struct {
	request  *Request
	buffer   []T
	nextLink string
	started  bool
}

// NewPageIterator creates an iterator over the collection req points at.
// The iterator owns req from here on.
func NewPageIterator[T any](req *Request) *PageIterator[T] {
	return &PageIterator[T]{request: req}
}

// ResultIterator iterates the collection this request points at, yielding
// each item as decoded JSON.
func (r *Request) ResultIterator() *PageIterator[interface{}] {
	return NewPageIterator[interface{}](r)
}

// HasNext reports whether Next may yield another item without returning ErrNoMoreItems.
// Before the first fetch it is always true; a page may still turn out empty.
func (it *PageIterator[T]) HasNext() bool {
	return len(it.buffer) > 0 || !it.started || it.nextLink != ""
}

// Next returns the next item. It returns ErrNoMoreItems once the buffer is
// empty and the last page carried no next link. A fetch error is returned
// unchanged and leaves the iterator as it was, so the next call retries.
func (it *PageIterator[T]) Next(ctx context.Context) (T, error) {
	var zero T

	for len(it.buffer) == 0 {
		if it.started && it.nextLink == "" {
			return zero, ErrNoMoreItems
		}

		url := it.nextLink
		if !it.started {
			url = it.request.BuildFullURL()
		}

		page, err := fetchPage[T](ctx, it.request, url)
		if err != nil {
			return zero, err
		}

		it.buffer = append(it.buffer, page.Value...)
		it.nextLink = page.NextLink
		it.started = true
	}

	item := it.buffer[0]
	it.buffer = it.buffer[1:]

	return item, nil
}

// All drains the iterator.
func (it *PageIterator[T]) All(ctx context.Context) ([]T, error) {
	var items []T

	err := it.ForEach(ctx, func(item T) error {
		items = append(items, item)

		return nil
	})

	return items, err
}

// ForEach calls fn for every remaining item, stopping at the first error.
func (it *PageIterator[T]) ForEach(ctx context.Context, fn func(T) error) error {
	for {
		item, err := it.Next(ctx)
		if errors.Is(err, ErrNoMoreItems) {
			return nil
		}

		if err != nil {
			return err
		}

		err = fn(item)
		if err != nil {
			return err
		}
	}
}

// FetchAllPages collects every item across pages, honoring opts.MaxPages.
func FetchAllPages[T any](ctx context.Context, req *Request, opts *PaginationOptions) ([]T, error) {
	if opts == nil {
		opts = DefaultPaginationOptions()
	}

	var items []T

	url := req.BuildFullURL()

	for pages := 0; url != ""; pages++ {
		if opts.MaxPages > 0 && pages >= opts.MaxPages {
			break
		}

		page, err := fetchPage[T](ctx, req, url)
		if err != nil {
			return nil, err
		}

		items = append(items, page.Value...)
		url = page.NextLink
	}

	return items, nil
}

// PageResult is one element of the StreamPages channel.
type PageResult[T any] struct {
	Items    []T
	NextLink string
	Err      error
}

// StreamPages fetches pages in a goroutine and sends each one on the returned
// channel, which is closed after the last page, the first error, or when ctx
// is done. req must not be used elsewhere until the channel is closed.
func StreamPages[T any](ctx context.Context, req *Request, opts *PaginationOptions) <-chan PageResult[T] {
	if opts == nil {
		opts = DefaultPaginationOptions()
	}

	results := make(chan PageResult[T], constants.SmallBufferSize)

	go func() {
		defer close(results)

		url := req.BuildFullURL()

		for pages := 0; url != ""; pages++ {
			if opts.MaxPages > 0 && pages >= opts.MaxPages {
				return
			}

			page, err := fetchPage[T](ctx, req, url)

			result := PageResult[T]{Err: err}
			if page != nil {
				result.Items = page.Value
				result.NextLink = page.NextLink
			}

			select {
			case results <- result:
			case <-ctx.Done():
				return
			}

			if err != nil {
				return
			}

			url = page.NextLink
		}
	}()

	return results
}

// fetchPage GETs url through the regular dispatch path and decodes it as a page.
func fetchPage[T any](ctx context.Context, req *Request, url string) (*Page[T], error) {
	res := req.sendAs(ctx, http.MethodGet, url, nil, ResponseTypeJSON)
	if res.err != nil {
		return nil, res.err
	}

	var page Page[T]

	data := bytes.TrimPrefix(res.raw.Body, []byte(constants.ByteOrderMark))

	err := json.Unmarshal(data, &page)
	if err != nil {
		return nil, fmt.Errorf("parsing page response: %w", err)
	}

	return &page, nil
}
