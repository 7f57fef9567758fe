package jsontable

import (
	"github.com/valyala/fastjson"

	"github.com/lvillar/pdfgen"
)

// Table is the logical layout of a JSON value: its column count and rows.
type Table struct {
	Columns int
	Rows    []Row
}

// New lays out v. It fails like MaxDepth for values that cannot be
// tabulated.
func New(v *fastjson.Value) (*Table, error) {
	columns, err := MaxDepth(v)
	if err != nil {
		return nil, err
	}
	return &Table{Columns: columns, Rows: BuildRows(v, columns)}, nil
}

// Paginate splits the table into pages. See the package level Paginate.
func (t *Table) Paginate(g Geometry, measure MeasureFunc) []Page {
	return Paginate(t.Rows, t.Columns, g, measure)
}

// Parse decodes data keeping object keys in document order.
func Parse(data []byte) (*fastjson.Value, error) {
	v, err := fastjson.ParseBytes(data)
	if err != nil {
		return nil, pdfgen.NewInvalidInput("No JSON to parse", err)
	}
	return v, nil
}
