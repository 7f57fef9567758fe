package form

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/lvillar/pdfgen/reader"
)

const (
	flatFont    = "FlatHelv"
	maxFontSize = 12.0
	minFontSize = 4.0
	textInset   = 2.0
)

// Flatten draws the value of every widget into its page, then removes the
// widgets and the interactive form. A document without a form is copied
// unchanged.
func Flatten(in io.Reader, out io.Writer) error {
	doc, err := load(in)
	if err != nil {
		return err
	}
	tree, err := doc.FormFields()
	if err != nil {
		return fmt.Errorf("form: %w", err)
	}
	if _, _, ok := doc.AcroForm(); !ok {
		_, err := out.Write(doc.Bytes())
		return err
	}

	u, err := flatten(doc, tree)
	if err != nil {
		return err
	}
	if _, err := u.WriteTo(out); err != nil {
		return fmt.Errorf("form: %w", err)
	}
	return nil
}

func flatten(doc *reader.Document, tree []*reader.FormField) (*reader.Update, error) {
	u := doc.NewUpdate()
	m := newMeasurer()

	overlays := make(map[int]*bytes.Buffer)
	drop := make(map[int]bool)
	for _, w := range widgets(tree) {
		drop[w.Ref.Number] = true
		if w.Page == 0 {
			continue
		}
		text := displayValue(w)
		if text == "" {
			continue
		}
		buf := overlays[w.Page]
		if buf == nil {
			buf = &bytes.Buffer{}
			overlays[w.Page] = buf
		}
		drawValue(buf, m, w.Rect, text, fontSize(w.Dict.GetString("DA")))
	}

	font := u.Add(helvetica())
	for n, page := range doc.Pages() {
		buf := overlays[n]
		annots, changed := remaining(doc, page, drop)
		if buf == nil && !changed {
			continue
		}
		dict := page.Dict.Clone()
		if changed {
			if len(annots) == 0 {
				delete(dict, "Annots")
			} else {
				dict["Annots"] = annots
			}
		}
		if buf != nil {
			if err := addOverlay(doc, u, page, dict, buf.Bytes(), font); err != nil {
				return nil, err
			}
		}
		u.Set(page.Ref, dict)
	}

	catalog, err := doc.Catalog()
	if err != nil {
		return nil, fmt.Errorf("form: %w", err)
	}
	if rootRef, ok := doc.Trailer()["Root"].(reader.Reference); ok {
		catalog = catalog.Clone()
		delete(catalog, "AcroForm")
		u.Set(rootRef, catalog)
	}
	return u, nil
}

func displayValue(w *reader.FormField) string {
	switch w.Type {
	case "Btn":
		if w.Value == "" || w.Value == "Off" {
			return ""
		}
		return "X"
	case "Sig":
		return ""
	}
	return w.Value
}

// remaining filters the page annotations, reporting whether any was
// dropped.
func remaining(doc *reader.Document, page *reader.Page, drop map[int]bool) (reader.Array, bool) {
	obj, err := doc.Resolve(page.Dict["Annots"])
	if err != nil {
		return nil, false
	}
	annots, _ := obj.(reader.Array)
	keep := reader.Array{}
	for _, a := range annots {
		if ref, ok := a.(reader.Reference); ok && drop[ref.Number] {
			continue
		}
		keep = append(keep, a)
	}
	return keep, len(keep) != len(annots)
}

// addOverlay wraps the existing content in q/Q and appends the drawn
// values, registering the overlay font in the page resources.
func addOverlay(doc *reader.Document, u *reader.Update, page *reader.Page, dict reader.Dict, content []byte, font reader.Reference) error {
	contents, err := doc.Resolve(page.Dict["Contents"])
	if err != nil {
		return fmt.Errorf("form: page %d contents: %w", page.Number, err)
	}
	var existing reader.Array
	switch c := contents.(type) {
	case reader.Array:
		existing = c
	case reader.Stream:
		existing = reader.Array{page.Dict["Contents"]}
	}
	open := u.Add(reader.Stream{Dict: reader.Dict{}, Data: []byte("q\n")})
	overlay := u.Add(reader.Stream{Dict: reader.Dict{}, Data: append([]byte("Q\n"), content...)})
	dict["Contents"] = append(append(reader.Array{open}, existing...), overlay)

	res := page.Resources.Clone()
	fonts := doc.ResolveDict(res["Font"]).Clone()
	fonts[flatFont] = font
	res["Font"] = fonts
	dict["Resources"] = res
	return nil
}

// fontSize reads the size from a default appearance string such as
// "/Helv 10 Tf 0 g". Zero means automatic.
func fontSize(da string) float64 {
	fields := strings.Fields(da)
	for i := 1; i < len(fields); i++ {
		if fields[i] == "Tf" {
			if f, err := strconv.ParseFloat(fields[i-1], 64); err == nil {
				return f
			}
		}
	}
	return 0
}

// measurer computes Helvetica string widths with fpdf's core metrics.
type measurer struct {
	pdf *fpdf.Fpdf
}

func newMeasurer() *measurer {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetFont("Helvetica", "", maxFontSize)
	return &measurer{pdf: pdf}
}

func (m *measurer) width(encoded []byte, size float64) float64 {
	m.pdf.SetFontSize(size)
	return m.pdf.GetStringWidth(string(encoded))
}

// drawValue writes a single clipped line of text into r.
func drawValue(buf *bytes.Buffer, m *measurer, r reader.Rectangle, text string, size float64) {
	winAnsi := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())
	encoded, err := winAnsi.Bytes([]byte(strings.Join(strings.Fields(text), " ")))
	if err != nil {
		return
	}
	if size <= 0 {
		size = min(maxFontSize, r.Height()*0.7)
		for size > minFontSize && m.width(encoded, size) > r.Width()-2*textInset {
			size -= 0.5
		}
		size = max(size, minFontSize)
	}
	x := r.LLX + textInset
	y := r.LLY + (r.Height()-size)/2 + 0.22*size

	fmt.Fprintf(buf, "q %s %s %s %s re W n\nBT /%s %s Tf 0 g %s %s Td ",
		num(r.LLX), num(r.LLY), num(r.Width()), num(r.Height()), flatFont, num(size), num(x), num(y))
	reader.WriteObject(buf, reader.String{Value: encoded})
	buf.WriteString(" Tj ET Q\n")
}

func num(f float64) string {
	return reader.Real(f).String()
}
