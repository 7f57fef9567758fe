// Package jsontable lays out arbitrary JSON values as grids of spanning
// cells and splits those grids into page-sized pieces.
//
// The package is pure: it performs no I/O and does not draw anything.
// Text measurement is supplied by the caller through a MeasureFunc, so the
// same rows can be paginated against any rendering engine.
package jsontable

// Border selects which edges of a cell are drawn.
type Border struct {
	Top, Right, Bottom, Left bool
}

// Border profiles used by the builder and the paginator.
var (
	AllBorders         = Border{Top: true, Right: true, Bottom: true, Left: true}
	OpenBottom         = Border{Top: true, Right: true, Bottom: false, Left: true}
	ContinuationBorder = Border{Top: false, Right: true, Bottom: false, Left: true}
	FrameBorder        = Border{Top: true}
)

// Align positions text inside a cell. Empty fields inherit the renderer's
// default style.
type Align struct {
	X string // "left", "center", "right"
	Y string // "top", "center", "bottom"
}

// Kind records why a cell was emitted.
type Kind int

const (
	KindValue  Kind = iota // scalar value
	KindKey                // object key of a scalar member
	KindLabel              // object key or array index heading a nested value
	KindFiller             // padding inserted by the paginator
	KindFrame              // full-width framing row closing a page
)

func (k Kind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindKey:
		return "key"
	case KindLabel:
		return "label"
	case KindFiller:
		return "filler"
	case KindFrame:
		return "frame"
	}
	return "unknown"
}

// Cell is one unit of table content.
type Cell struct {
	Text    string
	RowSpan int
	ColSpan int
	Border  Border
	Align   Align
	Kind    Kind
}

// NewCell returns a one-by-one cell with every border drawn.
func NewCell(text string) Cell {
	return Cell{Text: text, RowSpan: 1, ColSpan: 1, Border: AllBorders}
}

// Span returns the column span, treating zero as one.
func (c Cell) Span() int {
	if c.ColSpan < 1 {
		return 1
	}
	return c.ColSpan
}

func valueCell(text string, span int) Cell {
	c := NewCell(text)
	c.ColSpan = max(span, 1)
	return c
}

func keyCell(key string) Cell {
	c := NewCell(key)
	c.Kind = KindKey
	return c
}

func labelCell(text string, centered bool) Cell {
	c := NewCell(text)
	c.Kind = KindLabel
	c.Border = OpenBottom
	if centered {
		c.Align = Align{X: "center", Y: "center"}
	}
	return c
}

func fillerCell(b Border) Cell {
	c := NewCell("")
	c.Kind = KindFiller
	c.Border = b
	return c
}

// FrameRow returns the synthetic full-width row that closes a page.
func FrameRow(columns int) Row {
	c := NewCell("")
	c.Kind = KindFrame
	c.ColSpan = max(columns, 1)
	c.Border = FrameBorder
	return Row{c}
}

// Row is an ordered sequence of cells forming one line of the table.
type Row []Cell

// Span returns the total column span of the row.
func (r Row) Span() int {
	n := 0
	for _, c := range r {
		n += c.Span()
	}
	return n
}

// IsFrame reports whether r is a framing row.
func (r Row) IsFrame() bool {
	return len(r) == 1 && r[0].Kind == KindFrame
}

// Texts returns the text of each cell, which is handy for previews.
func (r Row) Texts() []string {
	out := make([]string, len(r))
	for i, c := range r {
		out[i] = c.Text
	}
	return out
}
