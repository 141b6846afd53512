package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/graph-client/internal/constants"
	"github.com/fivetwenty-io/graph-client/pkg/graph"
)

// ErrEmptyBatch is returned for a batch file without operations.
var ErrEmptyBatch = errors.New("batch file has no operations")

// BatchFile is the YAML description of a batch run.
type BatchFile struct {
	Concurrency int              `yaml:"concurrency,omitempty"`
	Timeout     time.Duration    `yaml:"timeout,omitempty"`
	Operations  []BatchFileEntry `yaml:"operations"`
}

// BatchFileEntry is one request in a BatchFile.
type BatchFileEntry struct {
	ID      string            `yaml:"id"`
	Method  string            `yaml:"method,omitempty"`
	Path    string            `yaml:"path"`
	Version string            `yaml:"version,omitempty"`
	Select  []string          `yaml:"select,omitempty"`
	Expand  []string          `yaml:"expand,omitempty"`
	Filter  string            `yaml:"filter,omitempty"`
	Top     int               `yaml:"top,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Body    interface{}       `yaml:"body,omitempty"`
}

// batchOutput is the json/yaml shape of one result.
type batchOutput struct {
	ID       string      `json:"id"              yaml:"id"`
	Success  bool        `json:"success"         yaml:"success"`
	Duration string      `json:"duration"        yaml:"duration"`
	Data     interface{} `json:"data,omitempty"  yaml:"data,omitempty"`
	Error    string      `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewBatchCommand creates the batch command.
func NewBatchCommand() *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "batch FILE",
		Short: "Run independent requests concurrently",
		Long: `Run the requests described in a YAML file with bounded concurrency.
Results are printed in file order; one failed request does not stop the others.`,
		Example: `  # ops.yml
  concurrency: 4
  operations:
    - id: me
      path: /me
      select: [displayName]
    - id: rename
      method: PATCH
      path: /groups/1234
      body: {displayName: Ops}

  graph batch ops.yml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := LoadBatchFile(args[0])
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("concurrency") {
				file.Concurrency = concurrency
			}

			ctx := cmd.Context()

			client, cleanup, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			operations, err := file.Build(client)
			if err != nil {
				return err
			}

			executor := graph.NewBatchExecutor(file.Concurrency)
			if file.Timeout > 0 {
				executor.SetTimeout(file.Timeout)
			}

			results := executor.Execute(ctx, operations)

			return writeBatchResults(cmd.OutOrStdout(), viper.GetString("output"), results)
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", constants.DefaultConcurrencyLimit, "maximum requests in flight")

	return cmd
}

// LoadBatchFile reads and validates a batch description.
func LoadBatchFile(path string) (*BatchFile, error) {
	// path is named by the user on the command line
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	file := &BatchFile{}

	err = yaml.Unmarshal(data, file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse batch file %s: %w", path, err)
	}

	if len(file.Operations) == 0 {
		return nil, ErrEmptyBatch
	}

	return file, nil
}

// Build turns every entry into a batch operation against client.
func (f *BatchFile) Build(client *graph.Client) ([]graph.BatchOperation, error) {
	builder := graph.NewBatchBuilder()

	for i, entry := range f.Operations {
		method := strings.ToUpper(entry.Method)
		if method == "" {
			method = "GET"
		}

		id := entry.ID
		if id == "" {
			id = fmt.Sprintf("op-%d", i+1)
		}

		req := client.API(entry.Path).Select(entry.Select...).Expand(entry.Expand...)

		if entry.Version != "" {
			req.Version(entry.Version)
		}

		if entry.Filter != "" {
			req.Filter(entry.Filter)
		}

		if entry.Top > 0 {
			req.Top(entry.Top)
		}

		for key, value := range entry.Headers {
			req.Header(key, value)
		}

		switch method {
		case "GET":
			builder.AddGet(id, req)
		case "POST":
			builder.AddPost(id, req, entry.Body)
		case "PUT":
			builder.AddPut(id, req, entry.Body)
		case "PATCH":
			builder.AddPatch(id, req, entry.Body)
		case "DELETE":
			builder.AddDelete(id, req)
		default:
			return nil, fmt.Errorf("%w: %s (operation %s)", constants.ErrUnknownMethod, entry.Method, id)
		}
	}

	return builder.Build(), nil
}

func writeBatchResults(w io.Writer, format string, results []graph.BatchResult) error {
	if format != constants.FormatTable && format != "" {
		outputs := make([]batchOutput, 0, len(results))

		for _, result := range results {
			output := batchOutput{
				ID:       result.ID,
				Success:  result.Success,
				Duration: result.Duration.String(),
				Data:     result.Data,
			}

			if result.Error != nil {
				output.Error = result.Error.Error()
			}

			outputs = append(outputs, output)
		}

		return writeOutput(w, format, outputs)
	}

	table := tablewriter.NewWriter(w)
	table.Header("ID", "Status", "Duration", "Error")

	for _, result := range results {
		status := "ok"
		errText := ""

		if !result.Success {
			status = "failed"
		}

		if result.Error != nil {
			errText = result.Error.Error()
		}

		_ = table.Append(result.ID, status, result.Duration.Round(time.Millisecond).String(), errText)
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}
