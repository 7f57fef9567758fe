package table

import (
	"errors"

	"github.com/go-pdf/fpdf"

	"github.com/lvillar/pdfgen/jsontable"
)

// Table renders jsontable pages onto an fpdf document.
type Table struct {
	pdf     *fpdf.Fpdf
	columns int
	font    FontSpec
	style   TableStyle
	tr      func(string) string
	x       float64 // left edge (0 means left margin)
	width   float64 // total table width (0 means page width minus margins)
}

// New creates a table of the given column count drawn with font.
func New(pdf *fpdf.Fpdf, columns int, font FontSpec) *Table {
	return &Table{
		pdf:     pdf,
		columns: max(columns, 1),
		font:    font,
		style:   DefaultStyle(),
		tr:      pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

// SetStyle sets the table-wide style.
func (t *Table) SetStyle(s TableStyle) *Table {
	t.style = s
	return t
}

// SetPosition sets the left edge of the table.
func (t *Table) SetPosition(x float64) *Table {
	t.x = x
	return t
}

// SetWidth sets the total table width. If not called, uses page width minus margins.
func (t *Table) SetWidth(w float64) *Table {
	t.width = w
	return t
}

// Columns returns the fixed column count.
func (t *Table) Columns() int { return t.columns }

// Width returns the total table width.
func (t *Table) Width() float64 {
	if t.width > 0 {
		return t.width
	}
	pageW, _ := t.pdf.GetPageSize()
	lMargin, _, rMargin, _ := t.pdf.GetMargins()
	return pageW - lMargin - rMargin
}

func (t *Table) left() float64 {
	if t.x > 0 {
		return t.x
	}
	lMargin, _, _, _ := t.pdf.GetMargins()
	return lMargin
}

// Geometry returns the paginator geometry for the current page, with the
// first row placed at the current y.
func (t *Table) Geometry() jsontable.Geometry {
	_, pageH := t.pdf.GetPageSize()
	_, tMargin, _, bMargin := t.pdf.GetMargins()
	return jsontable.Geometry{
		Width:  t.Width(),
		Height: pageH - tMargin - bMargin,
		Top:    tMargin,
		StartY: t.pdf.GetY(),
	}
}

func (t *Table) lineHeight() float64 {
	_, size := t.pdf.GetFontSize()
	factor := t.style.LineHeight
	if factor <= 0 {
		factor = 1.2
	}
	return size * factor
}

// applyFont switches to f, if set, and returns a func restoring the table font.
func (t *Table) applyFont(f *FontSpec) func() {
	if f == nil {
		return func() {}
	}
	t.pdf.SetFont(f.Family, f.Style, f.Size)
	return func() { t.pdf.SetFont(t.font.Family, t.font.Style, t.font.Size) }
}

// Measure returns the height of c wrapped at width, padding included. It
// satisfies jsontable.MeasureFunc.
func (t *Table) Measure(c jsontable.Cell, width float64) float64 {
	if t.pdf.Err() {
		return 0
	}
	style := t.resolveCellStyle(c)
	restore := t.applyFont(style.Font)
	defer restore()

	pad := t.style.CellPadding
	contentW := max(width-pad.Horizontal(), 1)
	lines := len(t.pdf.SplitLines([]byte(t.tr(c.Text)), contentW))
	return float64(max(lines, 1))*t.lineHeight() + pad.Vertical()
}

// Paginate lays out rows starting at the current y.
func (t *Table) Paginate(rows []jsontable.Row) []jsontable.Page {
	return jsontable.Paginate(rows, t.columns, t.Geometry(), t.Measure)
}

// Render draws pages in order, adding a PDF page before every table page
// but the first.
func (t *Table) Render(pages []jsontable.Page) error {
	if t.pdf.Err() {
		return t.pdf.Error()
	}
	if t.pdf.PageNo() == 0 {
		return errors.New("table: no page has been added")
	}
	for i, p := range pages {
		if i > 0 {
			t.pdf.AddPage()
		}
		t.RenderPage(p)
	}
	return t.pdf.Error()
}

// RenderPage draws the rows of a single page starting at the current y.
func (t *Table) RenderPage(p jsontable.Page) {
	t.pdf.SetFont(t.font.Family, t.font.Style, t.font.Size)
	if t.style.Border.Width > 0 {
		t.pdf.SetLineWidth(t.style.Border.Width)
	}
	bc := t.style.Border.Color
	t.pdf.SetDrawColor(bc.R, bc.G, bc.B)

	colW := t.Width() / float64(t.columns)
	startX := t.left()
	y := t.pdf.GetY()

	for i, row := range p.Rows {
		h := 0.0
		if i < len(p.Heights) {
			h = p.Heights[i]
		}
		if row.IsFrame() {
			t.drawBorders(startX, y, t.Width(), 0, row[0].Border)
			continue
		}
		x := startX
		for _, c := range row {
			w := colW * float64(c.Span())
			t.drawCell(c, x, y, w, h)
			x += w
		}
		y += h
	}

	// Restore colors to defaults
	t.pdf.SetDrawColor(0, 0, 0)
	t.pdf.SetFillColor(0, 0, 0)
	t.pdf.SetTextColor(0, 0, 0)

	t.pdf.SetXY(startX, y)
}
