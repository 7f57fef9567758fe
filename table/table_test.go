package table_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/go-pdf/fpdf"

	"github.com/lvillar/pdfgen/jsontable"
	"github.com/lvillar/pdfgen/table"
)

var testFont = table.FontSpec{Family: "Times", Size: 12}

func newTestPDF() *fpdf.Fpdf {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(50, 50, 50)
	pdf.SetAutoPageBreak(false, 50)
	pdf.SetFont(testFont.Family, testFont.Style, testFont.Size)
	pdf.AddPage()
	return pdf
}

func layout(t *testing.T, in string) *jsontable.Table {
	t.Helper()
	v, err := jsontable.Parse([]byte(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	tbl, err := jsontable.New(v)
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	return tbl
}

func TestMeasure(t *testing.T) {
	pdf := newTestPDF()
	tb := table.New(pdf, 2, testFont)

	short := tb.Measure(jsontable.NewCell("Alice"), 200)
	if want := 12*1.2 + 10; short < want-0.001 || short > want+0.001 {
		t.Errorf("single line height = %v, want %v", short, want)
	}
	empty := tb.Measure(jsontable.NewCell(""), 200)
	if empty != short {
		t.Errorf("empty cell height = %v, want one line (%v)", empty, short)
	}

	long := jsontable.NewCell(strings.Repeat("lorem ipsum dolor ", 30))
	narrow := tb.Measure(long, 100)
	wide := tb.Measure(long, 400)
	if narrow <= wide || wide <= short {
		t.Errorf("wrapping should grow height: narrow=%v wide=%v short=%v", narrow, wide, short)
	}
}

func TestGeometry(t *testing.T) {
	pdf := newTestPDF()
	pdf.SetY(120)
	g := table.New(pdf, 4, testFont).Geometry()
	if g.Top != 50 || g.StartY != 120 {
		t.Errorf("geometry = %+v", g)
	}
	if w := 595.28 - 100; g.Width < w-0.01 || g.Width > w+0.01 {
		t.Errorf("width = %v, want %v", g.Width, w)
	}
	if h := 841.89 - 100; g.Height < h-0.01 || g.Height > h+0.01 {
		t.Errorf("height = %v, want %v", g.Height, h)
	}
}

func TestRenderSinglePage(t *testing.T) {
	pdf := newTestPDF()
	lt := layout(t, `{"name":"Alice","age":30}`)
	tb := table.New(pdf, lt.Columns, testFont)

	pages := tb.Paginate(lt.Rows)
	if err := tb.Render(pages); err != nil {
		t.Fatalf("render: %v", err)
	}
	if pdf.PageNo() != 1 {
		t.Errorf("pages = %d, want 1", pdf.PageNo())
	}
	if got, want := pdf.GetY(), 50+2*(12*1.2+10); got < want-0.01 || got > want+0.01 {
		t.Errorf("cursor after table = %v, want %v", got, want)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("output: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Error("output is not a PDF")
	}
}

func TestRenderAddsPagesBetweenTablePages(t *testing.T) {
	pdf := newTestPDF()
	pdf.SetY(150)

	var sb strings.Builder
	sb.WriteString(`{"records":[`)
	for i := range 80 {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, `{"id":%d,"name":"record %d","tags":["a","b"]}`, i, i)
	}
	sb.WriteString(`]}`)
	lt := layout(t, sb.String())

	tb := table.New(pdf, lt.Columns, testFont)
	pages := tb.Paginate(lt.Rows)
	if len(pages) < 2 {
		t.Fatalf("expected several table pages, got %d", len(pages))
	}
	if err := tb.Render(pages); err != nil {
		t.Fatalf("render: %v", err)
	}
	if pdf.PageNo() != len(pages) {
		t.Errorf("pdf pages = %d, table pages = %d", pdf.PageNo(), len(pages))
	}

	_, pageH := pdf.GetPageSize()
	for i, p := range pages[1:] {
		if top := 50 + p.Height(); top > pageH-50+0.01 {
			t.Errorf("page %d overflows: bottom at %v", i+2, top)
		}
	}
}

func TestRenderWithoutPage(t *testing.T) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetFont("Times", "", 12)
	tb := table.New(pdf, 2, testFont)
	if err := tb.Render(nil); err == nil {
		t.Error("expected an error when no page has been added")
	}
}

func TestLabelStyle(t *testing.T) {
	pdf := newTestPDF()
	lt := layout(t, `{"order":{"id":1}}`)
	style := table.DefaultStyle()
	style.LabelStyle = &table.CellStyle{
		FillColor: &table.RGBColor{R: 240, G: 240, B: 240},
		Font:      &table.FontSpec{Family: "Times", Style: "B", Size: 12},
	}
	tb := table.New(pdf, lt.Columns, testFont).SetStyle(style)
	if err := tb.Render(tb.Paginate(lt.Rows)); err != nil {
		t.Fatalf("render: %v", err)
	}
	if err := pdf.Output(&bytes.Buffer{}); err != nil {
		t.Fatalf("output: %v", err)
	}
}
