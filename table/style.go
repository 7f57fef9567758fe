// Package table draws paginated JSON tables onto a PDF document.
//
// It is the rendering side of package jsontable: Table.Measure is the
// MeasureFunc used during pagination and Table.Render draws the resulting
// pages as bordered grids, adding a PDF page between table pages.
package table

import "github.com/lvillar/pdfgen/jsontable"

// RGBColor represents an RGB color value.
type RGBColor struct {
	R, G, B int
}

// FontSpec defines font properties for text rendering.
type FontSpec struct {
	Family string
	Style  string  // "", "B", "I", "BI"
	Size   float64 // in points
}

// Padding defines spacing inside a cell.
type Padding struct {
	Top, Right, Bottom, Left float64
}

// UniformPadding creates a Padding with the same value on all sides.
func UniformPadding(v float64) Padding {
	return Padding{Top: v, Right: v, Bottom: v, Left: v}
}

// Horizontal returns the sum of the left and right padding.
func (p Padding) Horizontal() float64 { return p.Left + p.Right }

// Vertical returns the sum of the top and bottom padding.
func (p Padding) Vertical() float64 { return p.Top + p.Bottom }

// BorderStyle defines the appearance of cell borders.
type BorderStyle struct {
	Width float64
	Color RGBColor
}

// CellStyle defines the visual appearance of a cell. Nil fields and empty
// alignments inherit from the table style.
type CellStyle struct {
	FillColor *RGBColor
	TextColor *RGBColor
	Font      *FontSpec
	Align     jsontable.Align
}

// TableStyle defines the overall appearance of a table.
type TableStyle struct {
	Border      BorderStyle
	CellPadding Padding
	CellFont    *FontSpec
	LineHeight  float64 // line height as a multiple of the font size
	Align       jsontable.Align
	LabelStyle  *CellStyle // applied to key and label cells
}

// DefaultStyle is the cell style used for JSON tables: padding of 6 above,
// 4 elsewhere, text left aligned and vertically centred.
func DefaultStyle() TableStyle {
	return TableStyle{
		Border:      BorderStyle{Width: 0.5},
		CellPadding: Padding{Top: 6, Right: 4, Bottom: 4, Left: 4},
		LineHeight:  1.2,
		Align:       jsontable.Align{X: "left", Y: "center"},
	}
}
