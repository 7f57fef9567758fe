package reader

import (
	"strconv"
	"strings"
)

// Field flags shared by all field types.
const (
	FlagReadOnly = 1 << 0
	FlagRequired = 1 << 1
)

// FormField is a node of the interactive form field tree.
type FormField struct {
	Name     string // partial name (/T)
	FullName string // dotted name from the root of the tree
	Type     string // Tx, Btn, Ch or Sig, inherited when absent
	Value    string
	Default  string
	Flags    int
	Rect     Rectangle
	Options  []string
	Kids     []*FormField

	// Ref is the reference of the field dictionary; zero for direct
	// objects.
	Ref Reference
	// Page is the 1-based page holding the widget, 0 when unknown.
	Page int
	Dict Dict
}

// IsReadOnly reports whether the read-only flag is set.
func (f *FormField) IsReadOnly() bool { return f.Flags&FlagReadOnly != 0 }

// IsRequired reports whether the required flag is set.
func (f *FormField) IsRequired() bool { return f.Flags&FlagRequired != 0 }

// IsTerminal reports whether f carries a value, i.e. has no named kids.
func (f *FormField) IsTerminal() bool {
	for _, k := range f.Kids {
		if k.Name != "" {
			return false
		}
	}
	return true
}

// AcroForm returns the interactive form dictionary and its reference, if
// the catalog refers to it indirectly.
func (d *Document) AcroForm() (Dict, Reference, bool) {
	catalog, err := d.Catalog()
	if err != nil {
		return nil, Reference{}, false
	}
	ref, _ := catalog["AcroForm"].(Reference)
	form := d.ResolveDict(catalog["AcroForm"])
	return form, ref, form != nil
}

// FormFields returns the root fields of the interactive form. A document
// without a form yields an empty slice.
func (d *Document) FormFields() ([]*FormField, error) {
	form, _, ok := d.AcroForm()
	if !ok {
		return []*FormField{}, nil
	}
	obj, err := d.Resolve(form["Fields"])
	if err != nil {
		return nil, err
	}
	arr, _ := obj.(Array)

	pageOf := make(map[int]int)
	for n, p := range d.Pages() {
		for _, a := range p.Annotations() {
			pageOf[a.Number] = n
		}
	}

	fields := []*FormField{}
	seen := make(map[int]bool)
	for _, item := range arr {
		if f := d.parseField(item, nil, pageOf, seen); f != nil {
			fields = append(fields, f)
		}
	}
	return fields, nil
}

// FormField returns the field with the given full name, or nil.
func (d *Document) FormField(name string) (*FormField, error) {
	fields, err := d.FormFields()
	if err != nil {
		return nil, err
	}
	return findField(fields, name), nil
}

// Walk calls fn for every field of the tree in depth-first order.
func Walk(fields []*FormField, fn func(*FormField)) {
	for _, f := range fields {
		fn(f)
		Walk(f.Kids, fn)
	}
}

func findField(fields []*FormField, name string) *FormField {
	var found *FormField
	Walk(fields, func(f *FormField) {
		if found == nil && f.FullName == name && f.Name != "" {
			found = f
		}
	})
	return found
}

func (d *Document) parseField(obj Object, parent *FormField, pageOf map[int]int, seen map[int]bool) *FormField {
	ref, _ := obj.(Reference)
	if ref.Number != 0 {
		if seen[ref.Number] {
			return nil
		}
		seen[ref.Number] = true
	}
	dict := d.ResolveDict(obj)
	if dict == nil {
		return nil
	}

	f := &FormField{Ref: ref, Dict: dict, Name: dict.GetString("T"), Page: pageOf[ref.Number]}
	f.FullName = f.Name
	if parent != nil {
		f.Type, f.Flags, f.Value = parent.Type, parent.Flags, parent.Value
		switch {
		case f.Name == "":
			f.FullName = parent.FullName
		case parent.FullName != "":
			f.FullName = parent.FullName + "." + f.Name
		}
	}
	if ft := dict.GetName("FT"); ft != "" {
		f.Type = string(ft)
	}
	if ff, ok := dict.GetInt("Ff"); ok {
		f.Flags = int(ff)
	}
	if v, ok := dict["V"]; ok {
		f.Value = d.valueString(v)
	}
	if dv, ok := dict["DV"]; ok {
		f.Default = d.valueString(dv)
	}
	if obj, err := d.Resolve(dict["Rect"]); err == nil {
		if r, err := ParseRectangle(obj); err == nil {
			f.Rect = r
		}
	}
	if f.Page == 0 {
		if p, ok := dict["P"].(Reference); ok {
			for n, page := range d.Pages() {
				if page.Ref.Number == p.Number {
					f.Page = n
					break
				}
			}
		}
	}
	if obj, err := d.Resolve(dict["Opt"]); err == nil {
		if opts, ok := obj.(Array); ok {
			for _, o := range opts {
				// [export display] pairs show the display text.
				if pair, ok := o.(Array); ok && len(pair) == 2 {
					o = pair[1]
				}
				f.Options = append(f.Options, d.valueString(o))
			}
		}
	}

	if obj, err := d.Resolve(dict["Kids"]); err == nil {
		kids, _ := obj.(Array)
		for _, k := range kids {
			if kid := d.parseField(k, f, pageOf, seen); kid != nil {
				f.Kids = append(f.Kids, kid)
			}
		}
	}
	// A field with a single unnamed widget takes the widget's placement.
	if f.Page == 0 && len(f.Kids) > 0 && f.Kids[0].Name == "" {
		f.Page, f.Rect = f.Kids[0].Page, f.Kids[0].Rect
	}
	return f
}

func (d *Document) valueString(o Object) string {
	obj, err := d.Resolve(o)
	if err != nil {
		return ""
	}
	switch v := obj.(type) {
	case String:
		return DecodeText(v.Value)
	case Name:
		return string(v)
	case Integer:
		return strconv.FormatInt(int64(v), 10)
	case Real:
		return formatReal(float64(v))
	case Boolean:
		return strconv.FormatBool(bool(v))
	case Array:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, d.valueString(item))
		}
		return strings.Join(parts, ", ")
	}
	return ""
}
