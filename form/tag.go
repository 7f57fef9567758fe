package form

import (
	"fmt"
	"io"

	"github.com/lvillar/pdfgen"
	"github.com/lvillar/pdfgen/reader"
)

// Tag adds a borderless Helvetica text field for every spec and writes the
// template to out.
func Tag(in io.Reader, out io.Writer, specs []FieldSpec) error {
	doc, err := load(in)
	if err != nil {
		return err
	}
	u, err := tag(doc, specs)
	if err != nil {
		return err
	}
	if _, err := u.WriteTo(out); err != nil {
		return fmt.Errorf("form: %w", err)
	}
	return nil
}

func validateSpecs(doc *reader.Document, specs []FieldSpec) error {
	if len(specs) == 0 {
		return &pdfgen.ValidationError{Fields: []pdfgen.FieldError{{
			Field: "fields", Tag: "min", Param: "1", Message: "fields must contain at least 1 item",
		}}}
	}
	existing, err := documentFields(doc)
	if err != nil {
		return err
	}
	taken := make(map[string]bool, len(existing))
	for _, f := range existing {
		taken[f.Name] = true
	}

	var errs []pdfgen.FieldError
	for i, s := range specs {
		if err := pdfgen.Validate(s); err != nil {
			if ve, ok := err.(*pdfgen.ValidationError); ok {
				for _, fe := range ve.Fields {
					fe.Field = fmt.Sprintf("fields[%d].%s", i, fe.Field)
					errs = append(errs, fe)
				}
				continue
			}
			return err
		}
		switch {
		case taken[s.Name]:
			errs = append(errs, pdfgen.FieldError{
				Field: fmt.Sprintf("fields[%d].name", i), Tag: "unique", Value: s.Name,
				Message: fmt.Sprintf("field %q already exists", s.Name),
			})
		case s.PageNum >= doc.NumPages():
			errs = append(errs, pdfgen.FieldError{
				Field: fmt.Sprintf("fields[%d].pageNum", i), Tag: "page", Value: s.PageNum,
				Message: fmt.Sprintf("pageNum must be less than %d", doc.NumPages()),
			})
		}
		taken[s.Name] = true
	}
	if len(errs) > 0 {
		return &pdfgen.ValidationError{Fields: errs}
	}
	return nil
}

func tag(doc *reader.Document, specs []FieldSpec) (*reader.Update, error) {
	if err := validateSpecs(doc, specs); err != nil {
		return nil, err
	}
	u := doc.NewUpdate()
	font := u.Add(helvetica())
	resources := reader.Dict{"Font": reader.Dict{"Helv": font}}

	added := make(map[int][]reader.Object) // page number -> new widgets
	var refs reader.Array
	for _, s := range specs {
		page, _ := doc.Page(s.PageNum + 1)
		rect := reader.Rectangle{LLX: s.X, LLY: s.Y, URX: s.X + s.Width, URY: s.Y + s.Height}
		ap := u.Add(reader.Stream{
			Dict: reader.Dict{
				"Type":      reader.Name("XObject"),
				"Subtype":   reader.Name("Form"),
				"BBox":      reader.Rectangle{URX: s.Width, URY: s.Height}.Array(),
				"Resources": resources,
			},
			Data: []byte("/Tx BMC\nEMC"),
		})
		ref := u.Add(reader.Dict{
			"Type":    reader.Name("Annot"),
			"Subtype": reader.Name("Widget"),
			"FT":      reader.Name("Tx"),
			"T":       reader.TextString(s.Name),
			"Rect":    rect.Array(),
			"P":       page.Ref,
			"F":       reader.Integer(4), // print
			"DA":      reader.TextString(defaultAppearance),
			"BS":      reader.Dict{"W": reader.Integer(0)},
			"MK":      reader.Dict{},
			"AP":      reader.Dict{"N": ap},
		})
		added[page.Number] = append(added[page.Number], ref)
		refs = append(refs, ref)
	}

	for num, list := range added {
		page, _ := doc.Page(num)
		if err := appendAnnots(doc, u, page, list); err != nil {
			return nil, err
		}
	}

	form, formRef, err := acroForm(doc, u)
	if err != nil {
		return nil, err
	}
	fields, _ := doc.Resolve(form["Fields"])
	existing, _ := fields.(reader.Array)
	form["Fields"] = append(append(reader.Array{}, existing...), refs...)
	dr := doc.ResolveDict(form["DR"]).Clone()
	fonts := doc.ResolveDict(dr["Font"]).Clone()
	fonts["Helv"] = font
	dr["Font"] = fonts
	form["DR"] = dr
	if _, ok := form["DA"]; !ok {
		form["DA"] = reader.TextString(defaultAppearance)
	}
	form["NeedAppearances"] = reader.Boolean(true)
	u.Set(formRef, form)
	return u, nil
}

// appendAnnots adds refs to the page's /Annots, keeping an indirect
// annotation array indirect.
func appendAnnots(doc *reader.Document, u *reader.Update, page *reader.Page, refs []reader.Object) error {
	obj, err := doc.Resolve(page.Dict["Annots"])
	if err != nil {
		return fmt.Errorf("form: page %d annotations: %w", page.Number, err)
	}
	current, _ := obj.(reader.Array)
	annots := append(append(reader.Array{}, current...), refs...)
	if ref, ok := page.Dict["Annots"].(reader.Reference); ok {
		u.Set(ref, annots)
		return nil
	}
	dict := page.Dict.Clone()
	dict["Annots"] = annots
	u.Set(page.Ref, dict)
	return nil
}
