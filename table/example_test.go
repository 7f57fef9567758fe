package table_test

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/lvillar/pdfgen/jsontable"
	"github.com/lvillar/pdfgen/table"
)

// ExampleTable lays out a nested JSON value and draws it as a bordered grid.
func ExampleTable() {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(50, 50, 50)
	pdf.SetAutoPageBreak(false, 50)
	pdf.SetFont("Helvetica", "", 12)
	pdf.AddPage()

	v, _ := jsontable.Parse([]byte(`{"invoice":{"number":"F-001","lines":[{"sku":"A1","qty":2},{"sku":"B7","qty":1}]}}`))
	lt, err := jsontable.New(v)
	if err != nil {
		fmt.Println(err)
		return
	}

	tbl := table.New(pdf, lt.Columns, table.FontSpec{Family: "Helvetica", Size: 12})
	pages := tbl.Paginate(lt.Rows)
	if err := tbl.Render(pages); err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println("columns:", lt.Columns, "pages:", len(pages))
	fmt.Println(pdf.Output(io.Discard))
	// Output:
	// columns: 5 pages: 1
	// <nil>
}
