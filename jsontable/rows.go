package jsontable

import (
	"strconv"
	"strings"

	"github.com/valyala/fastjson"
)

// BuildRows walks v and returns its logical rows for a table of maxDepth
// columns.
//
// Column convention: a key or index label occupies one column and a scalar
// value occupies every column still available at its level. An array
// reached through a label reuses that label's column: the label of its
// first nested element replaces the parent label, so the array consumes no
// column of its own. A root array has no parent label and spends one column
// on its element labels.
//
// The first child of a container joins the row of the container's label;
// every later child starts a new row. The label of an empty container is
// followed by an empty value cell. Rows that start below the root are
// narrower than maxDepth and are padded by Paginate.
func BuildRows(v *fastjson.Value, maxDepth int) []Row {
	b := &rowBuilder{}
	b.walk(v, maxDepth, "", false)
	return b.rows
}

// rowBuilder accumulates rows. open is set while the last row ends with a
// label whose first child has not been emitted yet.
type rowBuilder struct {
	rows []Row
	open bool
}

func (b *rowBuilder) start(c Cell) {
	b.rows = append(b.rows, Row{c})
}

func (b *rowBuilder) extend(c Cell) {
	last := len(b.rows) - 1
	b.rows[last] = append(b.rows[last], c)
}

// retitle replaces the pending label at the end of the open row.
func (b *rowBuilder) retitle(c Cell) {
	row := b.rows[len(b.rows)-1]
	row[len(row)-1] = c
}

// place adds c to the open row when it is the first child of the pending
// label, otherwise it starts a new row.
func (b *rowBuilder) place(c Cell, first bool) {
	if first && b.open && len(b.rows) > 0 {
		b.extend(c)
	} else {
		b.start(c)
	}
	b.open = false
}

// closeEmpty ends the open row of a label whose container had no children
// with an empty value cell, so the row reaches the last column.
func (b *rowBuilder) closeEmpty(span int) {
	if b.open {
		b.extend(valueCell("", span))
		b.open = false
	}
}

func (b *rowBuilder) walk(v *fastjson.Value, remaining int, parent string, labelled bool) {
	switch v.Type() {
	case fastjson.TypeObject:
		o, _ := v.Object()
		i := 0
		o.Visit(func(key []byte, child *fastjson.Value) {
			b.member(string(key), child, remaining, i == 0)
			i++
		})
	case fastjson.TypeArray:
		items, _ := v.Array()
		for i, item := range items {
			b.element(item, i, remaining, parent, labelled)
		}
	}
}

func (b *rowBuilder) member(key string, child *fastjson.Value, remaining int, first bool) {
	if isContainer(child) {
		b.place(labelCell(key, false), first)
		b.open = true
		b.walk(child, remaining-1, key, true)
		b.closeEmpty(remaining - 1)
		return
	}
	b.place(keyCell(key), first)
	b.extend(valueCell(ScalarText(child), remaining-1))
}

func (b *rowBuilder) element(item *fastjson.Value, i, remaining int, parent string, labelled bool) {
	first := i == 0
	if isContainer(item) {
		label := labelCell(strings.TrimSpace(parent+" "+strconv.Itoa(i+1)), true)
		if first && b.open && len(b.rows) > 0 {
			b.retitle(label)
		} else {
			b.start(label)
		}
		b.open = true
		next := remaining
		if !labelled {
			next--
		}
		b.walk(item, next, label.Text, true)
		b.closeEmpty(next)
		return
	}
	b.place(valueCell(ScalarText(item), remaining), first)
}

// ScalarText returns the display text of a scalar. Numbers keep their JSON
// spelling, null becomes empty text and containers render as compact JSON.
func ScalarText(v *fastjson.Value) string {
	if v == nil {
		return ""
	}
	switch v.Type() {
	case fastjson.TypeNull:
		return ""
	case fastjson.TypeString:
		return string(v.GetStringBytes())
	case fastjson.TypeTrue:
		return "true"
	case fastjson.TypeFalse:
		return "false"
	}
	return v.String()
}
