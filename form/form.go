// Package form turns PDFs into fillable templates and fills them.
//
// Tag adds text fields to an existing document, Fields lists them, Fill
// sets their values and Flatten burns the values into the page content so
// the result is no longer interactive. Every operation appends an
// incremental update; the input bytes are never rewritten.
//
// Coordinates are PDF points with the origin at the bottom-left corner of
// the page. Page indexes are 0-based.
package form

import (
	"fmt"
	"io"

	"github.com/lvillar/pdfgen"
	"github.com/lvillar/pdfgen/reader"
)

// defaultAppearance selects the form font at automatic size.
const defaultAppearance = "/Helv 0 Tf 0 g"

// FieldSpec places one text field.
type FieldSpec struct {
	Name    string  `json:"name" validate:"required,max=255"`
	PageNum int     `json:"pageNum" validate:"gte=0"`
	X       float64 `json:"x" validate:"gte=0"`
	Y       float64 `json:"y" validate:"gte=0"`
	Width   float64 `json:"width" validate:"gt=0"`
	Height  float64 `json:"height" validate:"gt=0"`
}

// Field describes a terminal field of a template.
type Field struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Value    string  `json:"value,omitempty"`
	PageNum  int     `json:"pageNum"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Required bool    `json:"required,omitempty"`
	ReadOnly bool    `json:"readOnly,omitempty"`
}

func load(in io.Reader) (*reader.Document, error) {
	doc, err := reader.ReadFrom(in)
	if err != nil {
		return nil, fmt.Errorf("form: %w", err)
	}
	return doc, nil
}

// Fields lists the terminal fields of the document in tree order.
func Fields(in io.Reader) ([]Field, error) {
	doc, err := load(in)
	if err != nil {
		return nil, err
	}
	return documentFields(doc)
}

func documentFields(doc *reader.Document) ([]Field, error) {
	tree, err := doc.FormFields()
	if err != nil {
		return nil, fmt.Errorf("form: %w", err)
	}
	out := []Field{}
	reader.Walk(tree, func(f *reader.FormField) {
		if f.Name == "" || !f.IsTerminal() {
			return
		}
		out = append(out, Field{
			Name:     f.FullName,
			Type:     f.Type,
			Value:    f.Value,
			PageNum:  f.Page - 1,
			X:        f.Rect.LLX,
			Y:        f.Rect.LLY,
			Width:    f.Rect.Width(),
			Height:   f.Rect.Height(),
			Required: f.IsRequired(),
			ReadOnly: f.IsReadOnly(),
		})
	})
	return out, nil
}

// terminals indexes the named terminal fields by full name.
func terminals(tree []*reader.FormField) map[string]*reader.FormField {
	out := make(map[string]*reader.FormField)
	reader.Walk(tree, func(f *reader.FormField) {
		if f.Name != "" && f.IsTerminal() {
			out[f.FullName] = f
		}
	})
	return out
}

// widgets returns the widget annotations of the tree: fields merged with
// their widget and the unnamed kids of terminal fields.
func widgets(tree []*reader.FormField) []*reader.FormField {
	var out []*reader.FormField
	reader.Walk(tree, func(f *reader.FormField) {
		if f.Dict.GetName("Subtype") == "Widget" || (f.Name == "" && f.Dict["Rect"] != nil) {
			out = append(out, f)
		}
	})
	return out
}

// acroForm returns a copy of the form dictionary and where to store it.
// When the catalog has no form, or holds it directly, the catalog is
// updated to refer to a new indirect form object.
func acroForm(doc *reader.Document, u *reader.Update) (reader.Dict, reader.Reference, error) {
	form, ref, ok := doc.AcroForm()
	if ok && ref.Number != 0 {
		return form.Clone(), ref, nil
	}
	catalog, err := doc.Catalog()
	if err != nil {
		return nil, reader.Reference{}, fmt.Errorf("form: %w", err)
	}
	rootRef, ok := doc.Trailer()["Root"].(reader.Reference)
	if !ok {
		return nil, reader.Reference{}, fmt.Errorf("form: catalog is not an indirect object: %w", pdfgen.ErrUnsupported)
	}
	ref = u.Reserve()
	catalog = catalog.Clone()
	catalog["AcroForm"] = ref
	u.Set(rootRef, catalog)
	if form == nil {
		form = reader.Dict{}
	}
	return form.Clone(), ref, nil
}

func helvetica() reader.Dict {
	return reader.Dict{
		"Type":     reader.Name("Font"),
		"Subtype":  reader.Name("Type1"),
		"BaseFont": reader.Name("Helvetica"),
		"Encoding": reader.Name("WinAnsiEncoding"),
	}
}
