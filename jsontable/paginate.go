package jsontable

// MeasureFunc returns the rendered height of c when laid out in a box of
// the given width, padding included.
type MeasureFunc func(c Cell, width float64) float64

// Geometry describes the vertical space available to the table. All values
// share the renderer's unit and y grows downwards.
type Geometry struct {
	Width  float64 // usable width, split evenly between the columns
	Height float64 // usable height between the top and bottom margins
	Top    float64 // y of the first row on a page opened by a break
	StartY float64 // y of the first row on the first page
}

// Bottom returns the lowest y a row may reach.
func (g Geometry) Bottom() float64 {
	return g.Top + g.Height
}

// ColumnWidth returns the width of a single column.
func (g Geometry) ColumnWidth(columns int) float64 {
	if columns < 1 {
		return g.Width
	}
	return g.Width / float64(columns)
}

// Page is the slice of the table placed on one PDF page. Every row spans
// exactly the table's column count. Heights holds the measured height of
// each row; framing rows measure zero.
type Page struct {
	Rows    []Row
	Heights []float64
}

func (p *Page) add(r Row, h float64) {
	p.Rows = append(p.Rows, r)
	p.Heights = append(p.Heights, h)
}

// Height returns the total height of the rows on the page.
func (p Page) Height() float64 {
	var h float64
	for _, rh := range p.Heights {
		h += rh
	}
	return h
}

// RowHeight returns the tallest measured cell of r.
func RowHeight(r Row, columnWidth float64, measure MeasureFunc) float64 {
	var h float64
	for _, c := range r {
		h = max(h, measure(c, columnWidth*float64(c.Span())))
	}
	return h
}

// Paginate assigns rows to pages in a single forward pass.
//
// A row that would cross the bottom of the usable area closes the current
// page with a framing row and moves to a fresh page, unless the row already
// starts at the top of a page; such a row is placed anyway and overflows.
// Rows are never split. Narrow rows are padded on the left with filler
// cells; fillers of the first row on a page keep their top edge. A framing
// row always closes the last page. The input rows are not modified.
func Paginate(rows []Row, columns int, g Geometry, measure MeasureFunc) []Page {
	colW := g.ColumnWidth(columns)
	var pages []Page
	cur := Page{}
	y := g.StartY

	for _, row := range rows {
		h := RowHeight(row, colW, measure)
		if y+h > g.Bottom() && y > g.Top {
			cur.add(FrameRow(columns), 0)
			pages = append(pages, cur)
			cur = Page{}
			y = g.Top
		}

		border := ContinuationBorder
		if y == g.Top {
			border = OpenBottom
		}
		cur.add(pad(row, columns, border), h)
		y += h
	}

	cur.add(FrameRow(columns), 0)
	return append(pages, cur)
}

// pad prepends filler cells so that the row spans every column.
func pad(r Row, columns int, b Border) Row {
	missing := columns - r.Span()
	if missing <= 0 {
		return append(Row(nil), r...)
	}
	out := make(Row, 0, missing+len(r))
	for range missing {
		out = append(out, fillerCell(b))
	}
	return append(out, r...)
}
