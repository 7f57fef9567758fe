package table

import (
	"github.com/lvillar/pdfgen/jsontable"
)

// alignCode converts a named horizontal alignment to an fpdf code.
func alignCode(x string) string {
	switch x {
	case "center":
		return "C"
	case "right":
		return "R"
	}
	return "L"
}

// verticalOffset positions a text block of height textH inside a box of
// height boxH.
func verticalOffset(y string, boxH, textH float64) float64 {
	slack := boxH - textH
	if slack <= 0 {
		return 0
	}
	switch y {
	case "top":
		return 0
	case "bottom":
		return slack
	}
	return slack / 2
}

// drawBorders strokes the selected edges of the box at (x, y).
func (t *Table) drawBorders(x, y, w, h float64, b jsontable.Border) {
	if b.Top {
		t.pdf.Line(x, y, x+w, y)
	}
	if b.Right {
		t.pdf.Line(x+w, y, x+w, y+h)
	}
	if b.Bottom {
		t.pdf.Line(x, y+h, x+w, y+h)
	}
	if b.Left {
		t.pdf.Line(x, y, x, y+h)
	}
}

// drawCell renders one cell: background, text and borders.
func (t *Table) drawCell(c jsontable.Cell, x, y, w, h float64) {
	style := t.resolveCellStyle(c)
	pad := t.style.CellPadding

	if style.FillColor != nil {
		t.pdf.SetFillColor(style.FillColor.R, style.FillColor.G, style.FillColor.B)
		t.pdf.Rect(x, y, w, h, "F")
	}

	if c.Text != "" {
		if style.TextColor != nil {
			t.pdf.SetTextColor(style.TextColor.R, style.TextColor.G, style.TextColor.B)
		}
		restore := t.applyFont(style.Font)

		contentW := max(w-pad.Horizontal(), 1)
		lines := t.pdf.SplitLines([]byte(t.tr(c.Text)), contentW)
		lineH := t.lineHeight()
		textH := float64(len(lines)) * lineH
		ty := y + pad.Top + verticalOffset(style.Align.Y, h-pad.Vertical(), textH)
		align := alignCode(style.Align.X)
		for i, line := range lines {
			t.pdf.SetXY(x+pad.Left, ty+float64(i)*lineH)
			t.pdf.CellFormat(contentW, lineH, string(line), "", 0, align, false, 0, "")
		}

		restore()
		t.pdf.SetTextColor(0, 0, 0)
	}

	t.drawBorders(x, y, w, h, c.Border)
}

// resolveCellStyle merges the table defaults with the label style.
func (t *Table) resolveCellStyle(c jsontable.Cell) CellStyle {
	result := CellStyle{Font: t.style.CellFont, Align: t.style.Align}
	if (c.Kind == jsontable.KindLabel || c.Kind == jsontable.KindKey) && t.style.LabelStyle != nil {
		mergeStyle(&result, t.style.LabelStyle)
	}
	if c.Align.X != "" {
		result.Align.X = c.Align.X
	}
	if c.Align.Y != "" {
		result.Align.Y = c.Align.Y
	}
	return result
}

// mergeStyle copies non-nil fields from src to dst.
func mergeStyle(dst, src *CellStyle) {
	if src.FillColor != nil {
		dst.FillColor = src.FillColor
	}
	if src.TextColor != nil {
		dst.TextColor = src.TextColor
	}
	if src.Font != nil {
		dst.Font = src.Font
	}
	if src.Align.X != "" {
		dst.Align.X = src.Align.X
	}
	if src.Align.Y != "" {
		dst.Align.Y = src.Align.Y
	}
}
