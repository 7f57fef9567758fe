package form_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/google/go-cmp/cmp"

	"github.com/lvillar/pdfgen"
	"github.com/lvillar/pdfgen/form"
	"github.com/lvillar/pdfgen/reader"
)

func blankPDF(t *testing.T, pages int) []byte {
	t.Helper()
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetFont("Helvetica", "", 12)
	for i := range pages {
		pdf.AddPage()
		pdf.Text(50, 50, "Page "+string(rune('1'+i)))
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

var specs = []form.FieldSpec{
	{Name: "fullName", PageNum: 0, X: 100, Y: 700, Width: 200, Height: 20},
	{Name: "city", PageNum: 0, X: 100, Y: 650, Width: 150, Height: 18},
	{Name: "signedOn", PageNum: 1, X: 60, Y: 100, Width: 120, Height: 16},
}

func tagged(t *testing.T) []byte {
	t.Helper()
	var out bytes.Buffer
	if err := form.Tag(bytes.NewReader(blankPDF(t, 2)), &out, specs); err != nil {
		t.Fatalf("Tag: %v", err)
	}
	return out.Bytes()
}

func TestTagFields(t *testing.T) {
	fields, err := form.Fields(bytes.NewReader(tagged(t)))
	if err != nil {
		t.Fatal(err)
	}
	want := []form.Field{
		{Name: "fullName", Type: "Tx", PageNum: 0, X: 100, Y: 700, Width: 200, Height: 20},
		{Name: "city", Type: "Tx", PageNum: 0, X: 100, Y: 650, Width: 150, Height: 18},
		{Name: "signedOn", Type: "Tx", PageNum: 1, X: 60, Y: 100, Width: 120, Height: 16},
	}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Errorf("fields (-want +got):\n%s", diff)
	}
}

func TestTagTwice(t *testing.T) {
	var out bytes.Buffer
	more := []form.FieldSpec{{Name: "notes", PageNum: 1, X: 60, Y: 300, Width: 300, Height: 40}}
	if err := form.Tag(bytes.NewReader(tagged(t)), &out, more); err != nil {
		t.Fatal(err)
	}
	fields, err := form.Fields(&out)
	if err != nil {
		t.Fatal(err)
	}
	if len(fields) != 4 || fields[3].Name != "notes" {
		t.Errorf("fields = %+v", fields)
	}
}

func TestTagValidation(t *testing.T) {
	tests := []struct {
		name  string
		specs []form.FieldSpec
		field string
	}{
		{"empty", nil, "fields"},
		{"missing name", []form.FieldSpec{{Width: 10, Height: 10}}, "fields[0].name"},
		{"zero width", []form.FieldSpec{{Name: "a", Height: 10}}, "fields[0].width"},
		{"negative page", []form.FieldSpec{{Name: "a", PageNum: -1, Width: 1, Height: 1}}, "fields[0].pageNum"},
		{"page out of range", []form.FieldSpec{{Name: "a", PageNum: 2, Width: 1, Height: 1}}, "fields[0].pageNum"},
		{"duplicate", []form.FieldSpec{{Name: "a", Width: 1, Height: 1}, {Name: "a", Width: 1, Height: 1}}, "fields[1].name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := form.Tag(bytes.NewReader(blankPDF(t, 2)), &out, tt.specs)
			var ve *pdfgen.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if !ve.HasField(tt.field) {
				t.Errorf("fields = %+v, want %s", ve.Fields, tt.field)
			}
			if out.Len() != 0 {
				t.Error("output written on error")
			}
		})
	}
}

func TestTagExistingName(t *testing.T) {
	var out bytes.Buffer
	err := form.Tag(bytes.NewReader(tagged(t)), &out, specs[:1])
	var ve *pdfgen.ValidationError
	if !errors.As(err, &ve) || ve.Fields[0].Tag != "unique" {
		t.Errorf("got %v", err)
	}
}

func TestFill(t *testing.T) {
	var out bytes.Buffer
	values := map[string]string{"fullName": "Zoë Müller", "city": "Málaga", "unknown": "ignored"}
	if err := form.Fill(bytes.NewReader(tagged(t)), &out, values); err != nil {
		t.Fatal(err)
	}
	fields, err := form.Fields(&out)
	if err != nil {
		t.Fatal(err)
	}
	got := make(map[string]string)
	for _, f := range fields {
		got[f.Name] = f.Value
	}
	want := map[string]string{"fullName": "Zoë Müller", "city": "Málaga", "signedOn": ""}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("values (-want +got):\n%s", diff)
	}
}

func TestFillNoMatch(t *testing.T) {
	var out bytes.Buffer
	err := form.Fill(bytes.NewReader(tagged(t)), &out, map[string]string{"nope": "x"})
	if !errors.Is(err, pdfgen.ErrNoFields) {
		t.Errorf("no match: got %v", err)
	}
	err = form.Fill(bytes.NewReader(blankPDF(t, 1)), &out, map[string]string{"a": "b"})
	if !errors.Is(err, pdfgen.ErrNoFields) {
		t.Errorf("no form: got %v", err)
	}
}

func TestFlatten(t *testing.T) {
	var out bytes.Buffer
	values := map[string]string{"fullName": "Ada Lovelace", "signedOn": "1843-10-05"}
	if err := form.FillAndFlatten(bytes.NewReader(tagged(t)), &out, values); err != nil {
		t.Fatal(err)
	}

	doc, err := reader.Parse(out.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if _, _, ok := doc.AcroForm(); ok {
		t.Error("AcroForm still present")
	}
	fields, err := doc.FormFields()
	if err != nil || len(fields) != 0 {
		t.Errorf("fields after flatten: %v %v", fields, err)
	}

	for n, want := range map[int]string{1: "(Ada Lovelace) Tj", 2: "(1843-10-05) Tj"} {
		page, _ := doc.Page(n)
		if len(page.Annotations()) != 0 {
			t.Errorf("page %d keeps %d annotations", n, len(page.Annotations()))
		}
		content, err := page.ContentStream()
		if err != nil {
			t.Fatalf("page %d: %v", n, err)
		}
		if !bytes.Contains(content, []byte(want)) {
			t.Errorf("page %d content lacks %q", n, want)
		}
		if !bytes.HasPrefix(content, []byte("q\n")) {
			t.Errorf("page %d content not wrapped in q/Q", n)
		}
		if page.Resources.GetDict("Font")["FlatHelv"] == nil {
			t.Errorf("page %d lacks the overlay font", n)
		}
	}
}

func TestFlattenWithoutForm(t *testing.T) {
	in := blankPDF(t, 1)
	var out bytes.Buffer
	if err := form.Flatten(bytes.NewReader(in), &out); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(in, out.Bytes()) {
		t.Error("document without form should be copied unchanged")
	}
}

func TestRejectsEncrypted(t *testing.T) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetProtection(fpdf.CnProtectPrint, "", "owner")
	pdf.AddPage()
	var buf bytes.Buffer
	pdf.Output(&buf)

	err := form.Tag(&buf, &bytes.Buffer{}, specs[:1])
	if !errors.Is(err, pdfgen.ErrEncrypted) {
		t.Errorf("got %v", err)
	}
}
