package reader_test

import (
	"bytes"
	"testing"

	"github.com/lvillar/pdfgen/reader"
)

// addForm appends an interactive form to a two-page document: a required
// text field and a choice on page 1, and a field group on page 2.
func addForm(t *testing.T) *reader.Document {
	t.Helper()
	doc, err := reader.Parse(generateTestPDF(t, "Form page", "Second page"))
	if err != nil {
		t.Fatal(err)
	}
	p1, _ := doc.Page(1)
	p2, _ := doc.Page(2)
	u := doc.NewUpdate()

	widget := func(page *reader.Page, extra reader.Dict) reader.Reference {
		d := reader.Dict{
			"Type":    reader.Name("Annot"),
			"Subtype": reader.Name("Widget"),
			"Rect":    reader.Rectangle{LLX: 50, LLY: 700, URX: 250, URY: 720}.Array(),
			"P":       page.Ref,
		}
		for k, v := range extra {
			d[k] = v
		}
		return u.Add(d)
	}
	name := widget(p1, reader.Dict{"FT": reader.Name("Tx"), "T": reader.TextString("name"), "Ff": reader.Integer(reader.FlagRequired), "V": reader.TextString("Zoë")})
	country := widget(p1, reader.Dict{"FT": reader.Name("Ch"), "T": reader.TextString("country"),
		"Opt": reader.Array{reader.TextString("Spain"), reader.Array{reader.TextString("fr"), reader.TextString("France")}}})

	group := u.Reserve()
	street := widget(p2, reader.Dict{"T": reader.TextString("street"), "Parent": group, "Ff": reader.Integer(reader.FlagReadOnly)})
	u.Set(group, reader.Dict{"FT": reader.Name("Tx"), "T": reader.TextString("address"), "Kids": reader.Array{street}})

	page1 := p1.Dict.Clone()
	page1["Annots"] = reader.Array{name, country}
	u.Set(p1.Ref, page1)
	page2 := p2.Dict.Clone()
	page2["Annots"] = reader.Array{street}
	u.Set(p2.Ref, page2)

	catalog, _ := doc.Catalog()
	catalog = catalog.Clone()
	catalog["AcroForm"] = u.Add(reader.Dict{"Fields": reader.Array{name, country, group}})
	u.Set(doc.Trailer()["Root"].(reader.Reference), catalog)

	out, err := reader.Parse(u.Bytes())
	if err != nil {
		t.Fatalf("parsing form: %v", err)
	}
	return out
}

func TestFormFields(t *testing.T) {
	doc := addForm(t)
	fields, err := doc.FormFields()
	if err != nil {
		t.Fatal(err)
	}
	if len(fields) != 3 {
		t.Fatalf("got %d root fields", len(fields))
	}

	byName := make(map[string]*reader.FormField)
	reader.Walk(fields, func(f *reader.FormField) { byName[f.FullName] = f })

	tests := []struct {
		name     string
		typ      string
		value    string
		page     int
		required bool
		readOnly bool
	}{
		{name: "name", typ: "Tx", value: "Zoë", page: 1, required: true},
		{name: "country", typ: "Ch", page: 1},
		{name: "address", typ: "Tx"},
		{name: "address.street", typ: "Tx", page: 2, readOnly: true},
	}
	for _, tt := range tests {
		f := byName[tt.name]
		if f == nil {
			t.Errorf("%s: missing", tt.name)
			continue
		}
		if f.Type != tt.typ || f.Value != tt.value || f.Page != tt.page {
			t.Errorf("%s: type=%q value=%q page=%d", tt.name, f.Type, f.Value, f.Page)
		}
		if f.IsRequired() != tt.required || f.IsReadOnly() != tt.readOnly {
			t.Errorf("%s: flags=%d", tt.name, f.Flags)
		}
	}

	if opts := byName["country"].Options; len(opts) != 2 || opts[1] != "France" {
		t.Errorf("options = %v", opts)
	}
	if r := byName["name"].Rect; r.Width() != 200 || r.Height() != 20 {
		t.Errorf("rect = %v", r)
	}
	if byName["address"].IsTerminal() || !byName["address.street"].IsTerminal() {
		t.Error("IsTerminal mismatch")
	}
}

func TestFormFieldLookup(t *testing.T) {
	doc := addForm(t)
	f, err := doc.FormField("address.street")
	if err != nil || f == nil {
		t.Fatalf("lookup: %v %v", f, err)
	}
	if f.Ref.Number == 0 {
		t.Error("field has no reference")
	}
	if missing, _ := doc.FormField("nonexistent"); missing != nil {
		t.Errorf("unexpected field %v", missing)
	}
}

func TestFormFieldsEmpty(t *testing.T) {
	doc, err := reader.ReadFrom(bytes.NewReader(generateTestPDF(t, "no form")))
	if err != nil {
		t.Fatal(err)
	}
	fields, err := doc.FormFields()
	if err != nil || fields == nil || len(fields) != 0 {
		t.Errorf("fields = %v, %v", fields, err)
	}
	if _, _, ok := doc.AcroForm(); ok {
		t.Error("document should have no form")
	}
}
