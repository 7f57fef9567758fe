package main

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/lvillar/pdfgen/document"
	"github.com/lvillar/pdfgen/jsontable"
)

func newInspectCmd(_ *app) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "inspect <input.json|->",
		Short: "Print the table layout of a {data, options} JSON file",
		Long: `Print the table layout of a {data, options} JSON file page by page.

Cells spanning several columns are shown in their first column followed by
empty cells. Assets are not fetched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readRequest(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			tbl, pages, err := document.Preview(req)
			if err != nil {
				return err
			}
			if page < 0 || page > len(pages) {
				return fmt.Errorf("page %d out of range (1-%d)", page, len(pages))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d columns, %d rows, %d table pages\n", tbl.Columns, len(tbl.Rows), len(pages))
			for i, p := range pages {
				if page != 0 && i+1 != page {
					continue
				}
				fmt.Fprintf(out, "\nPage %d\n", i+1)
				renderPage(out, p, tbl.Columns)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", 0, "only print this table page (1-based)")
	return cmd
}

func renderPage(w io.Writer, p jsontable.Page, columns int) {
	tw := tablewriter.NewWriter(w)
	tw.SetAutoWrapText(false)
	tw.SetRowLine(true)
	for _, r := range p.Rows {
		if r.IsFrame() {
			continue
		}
		tw.Append(expandRow(r, columns))
	}
	tw.Render()
}

// expandRow flattens column spans so every line has one entry per column.
func expandRow(r jsontable.Row, columns int) []string {
	line := make([]string, 0, columns)
	for _, c := range r {
		line = append(line, c.Text)
		for range c.Span() - 1 {
			line = append(line, "")
		}
	}
	for len(line) < columns {
		line = append(line, "")
	}
	return line
}
