package jsontable

import (
	"github.com/valyala/fastjson"

	"github.com/lvillar/pdfgen"
)

// Depth returns the structural nesting depth of v. Scalars have depth 0;
// an object or array is one deeper than its deepest child, or 1 when empty.
func Depth(v *fastjson.Value) int {
	if v == nil {
		return 0
	}
	switch v.Type() {
	case fastjson.TypeObject:
		o, _ := v.Object()
		deepest := 0
		o.Visit(func(_ []byte, child *fastjson.Value) {
			deepest = max(deepest, Depth(child))
		})
		return 1 + deepest
	case fastjson.TypeArray:
		items, _ := v.Array()
		deepest := 0
		for _, item := range items {
			deepest = max(deepest, Depth(item))
		}
		return 1 + deepest
	}
	return 0
}

// MaxDepth returns the column count for tabulating v: its depth plus one
// column for the innermost scalar values.
//
// It fails with *pdfgen.InvalidInputError when v is missing, is not an
// object or array, or is an empty container.
func MaxDepth(v *fastjson.Value) (int, error) {
	if !isContainer(v) {
		return 0, pdfgen.NewInvalidInput("No JSON to parse", pdfgen.ErrNoData)
	}
	if isEmpty(v) {
		return 0, pdfgen.NewInvalidInput("Incomplete JSON", pdfgen.ErrIncompleteJSON)
	}
	d := Depth(v)
	if d < 1 {
		return 0, pdfgen.NewInvalidInput("Incomplete JSON", pdfgen.ErrIncompleteJSON)
	}
	return d + 1, nil
}

func isContainer(v *fastjson.Value) bool {
	if v == nil {
		return false
	}
	t := v.Type()
	return t == fastjson.TypeObject || t == fastjson.TypeArray
}

func isEmpty(v *fastjson.Value) bool {
	switch v.Type() {
	case fastjson.TypeObject:
		o, _ := v.Object()
		return o.Len() == 0
	case fastjson.TypeArray:
		items, _ := v.Array()
		return len(items) == 0
	}
	return false
}
