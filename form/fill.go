package form

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/lvillar/pdfgen"
	"github.com/lvillar/pdfgen/reader"
)

// Fill sets the value of every field named in values and writes the
// result to out. Names that match no field are ignored, but at least one
// must match.
func Fill(in io.Reader, out io.Writer, values map[string]string) error {
	doc, err := load(in)
	if err != nil {
		return err
	}
	u, err := fill(doc, values)
	if err != nil {
		return err
	}
	if _, err := u.WriteTo(out); err != nil {
		return fmt.Errorf("form: %w", err)
	}
	return nil
}

// FillAndFlatten fills the template and flattens the result in one pass.
func FillAndFlatten(in io.Reader, out io.Writer, values map[string]string) error {
	var filled bytes.Buffer
	if err := Fill(in, &filled, values); err != nil {
		return err
	}
	return Flatten(&filled, out)
}

func fill(doc *reader.Document, values map[string]string) (*reader.Update, error) {
	tree, err := doc.FormFields()
	if err != nil {
		return nil, fmt.Errorf("form: %w", err)
	}
	byName := terminals(tree)
	if len(byName) == 0 {
		return nil, fmt.Errorf("form: %w", pdfgen.ErrNoFields)
	}

	u := doc.NewUpdate()
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	slices.Sort(names)

	matched := 0
	for _, name := range names {
		f, ok := byName[name]
		if !ok || f.Ref.Number == 0 || f.IsReadOnly() {
			continue
		}
		matched++
		setValue(u, f, values[name])
	}
	if matched == 0 && len(values) > 0 {
		return nil, fmt.Errorf("form: none of %s: %w", strings.Join(names, ", "), pdfgen.ErrNoFields)
	}

	if form, ref, ok := doc.AcroForm(); ok && ref.Number != 0 {
		form = form.Clone()
		form["NeedAppearances"] = reader.Boolean(true)
		u.Set(ref, form)
	}
	return u, nil
}

// setValue stores value in the field. Check boxes are switched on by any
// truthy value and use the on-state name of their appearance.
func setValue(u *reader.Update, f *reader.FormField, value string) {
	dict := f.Dict.Clone()
	if f.Type != "Btn" {
		dict["V"] = reader.TextString(value)
		// Viewers regenerate the appearance from /V.
		delete(dict, "AP")
		u.Set(f.Ref, dict)
		return
	}

	state := reader.Name("Off")
	if truthy(value) {
		state = onState(dict)
	}
	dict["V"] = state
	if dict.GetName("Subtype") == "Widget" {
		dict["AS"] = state
	}
	u.Set(f.Ref, dict)
	for _, kid := range f.Kids {
		if kid.Name != "" || kid.Ref.Number == 0 {
			continue
		}
		kd := kid.Dict.Clone()
		kd["AS"] = state
		u.Set(kid.Ref, kd)
	}
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false", "off", "no":
		return false
	}
	return true
}

// onState returns the first appearance state that is not Off.
func onState(dict reader.Dict) reader.Name {
	ap := dict.GetDict("AP")
	if n := ap.GetDict("N"); n != nil {
		for k := range n {
			if k != "Off" {
				return k
			}
		}
	}
	return "Yes"
}
