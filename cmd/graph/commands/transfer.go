package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/graph-client/internal/constants"
)

// NewUploadCommand creates the upload command.
func NewUploadCommand() *cobra.Command {
	opts := &RequestOptions{}

	cmd := &cobra.Command{
		Use:     "upload PATH FILE",
		Short:   "Upload a file with a streamed PUT",
		Long:    "Stream FILE (or - for stdin) to PATH as application/octet-stream",
		Example: `  graph upload "/me/drive/root:/notes.txt:/content" notes.txt`,
		Args:    cobra.ExactArgs(2), //nolint:mnd
		RunE: func(cmd *cobra.Command, args []string) error {
			source, closeSource, err := openSource(cmd, args[1])
			if err != nil {
				return err
			}
			defer closeSource()

			ctx := cmd.Context()

			req, cleanup, err := buildRequest(ctx, cmd, args[0], opts)
			if err != nil {
				return err
			}
			defer cleanup()

			var uploadErr error

			req.PutStream(ctx, source, func(err error) {
				uploadErr = err
			})

			if uploadErr != nil {
				return uploadErr
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s to %s\n", args[1], args[0])

			return nil
		},
	}

	addRequestFlags(cmd, opts)

	return cmd
}

// NewDownloadCommand creates the download command.
func NewDownloadCommand() *cobra.Command {
	var (
		opts   = &RequestOptions{}
		output string
	)

	cmd := &cobra.Command{
		Use:     "download PATH",
		Short:   "Stream a response body to a file",
		Long:    "GET PATH and copy the raw response body to --out, or stdout when omitted",
		Example: `  graph download "/me/drive/root:/notes.txt:/content" --out notes.txt`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			req, cleanup, err := buildRequest(ctx, cmd, args[0], opts)
			if err != nil {
				return err
			}
			defer cleanup()

			handle, err := req.GetStream(ctx)
			if err != nil {
				return err
			}

			body, err := handle.Open(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = body.Close() }()

			if output == "" || output == "-" {
				_, err = io.Copy(cmd.OutOrStdout(), body)

				return err
			}

			file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, constants.ConfigFilePerm)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}

			written, err := io.Copy(file, body)
			if closeErr := file.Close(); err == nil {
				err = closeErr
			}

			if err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}

			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d bytes to %s\n", written, output)

			return nil
		},
	}

	addRequestFlags(cmd, opts)
	cmd.Flags().StringVar(&output, "out", "", "destination file (default stdout)")

	return cmd
}

func openSource(cmd *cobra.Command, name string) (io.Reader, func(), error) {
	if name == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}

	// name is given by the user on the command line
	// #nosec G304
	file, err := os.Open(name)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", name, err)
	}

	return file, func() { _ = file.Close() }, nil
}
