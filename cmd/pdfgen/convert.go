package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lvillar/pdfgen/document"
)

func newConvertCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "convert <input.json|->",
		Short: "Render a {data, options} JSON file as a PDF",
		Long: `Render a {data, options} JSON file as a PDF.

The output file defaults to the name derived from the options: the
sanitized fileName, else the title, else "document.pdf".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readRequest(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			conv, err := a.converter()
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			report, err := conv.Convert(cmd.Context(), req, &buf)
			if err != nil {
				return err
			}
			if output == "" {
				output = req.Options.DownloadName()
			}
			if err := writeOutput(cmd.OutOrStdout(), output, buf.Bytes()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d columns, %d rows, %d pages (%d bytes)\n",
				output, report.Columns, report.Rows, report.Pages, report.Bytes)
			for _, e := range report.AssetErrors {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", e)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", `output file, "-" for stdout`)
	return cmd
}

func readRequest(stdin io.Reader, path string) (document.Request, error) {
	var (
		body []byte
		err  error
	)
	if path == "-" {
		body, err = io.ReadAll(stdin)
	} else {
		body, err = os.ReadFile(path)
	}
	if err != nil {
		return document.Request{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return document.DecodeRequest(body)
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
