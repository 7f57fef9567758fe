package reader_test

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/go-pdf/fpdf"

	"github.com/lvillar/pdfgen"
	"github.com/lvillar/pdfgen/reader"
)

// generateTestPDF renders one A4 page per text.
func generateTestPDF(t *testing.T, texts ...string) []byte {
	t.Helper()
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetTitle("Test Document", true)
	pdf.SetAuthor("Zoë Author", true)
	pdf.SetFont("Helvetica", "", 12)
	for _, text := range texts {
		pdf.AddPage()
		pdf.Text(40, 60, text)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("generating test PDF: %v", err)
	}
	return buf.Bytes()
}

func TestReadFrom(t *testing.T) {
	doc, err := reader.ReadFrom(bytes.NewReader(generateTestPDF(t, "Hello", "World")))
	if err != nil {
		t.Fatal(err)
	}
	if doc.NumPages() != 2 {
		t.Errorf("pages = %d, want 2", doc.NumPages())
	}
	if doc.Version == "" {
		t.Error("empty version")
	}
	catalog, err := doc.Catalog()
	if err != nil || catalog.GetName("Type") != "Catalog" {
		t.Errorf("catalog: %v %v", catalog, err)
	}
}

func TestPageAccess(t *testing.T) {
	doc, err := reader.Parse(generateTestPDF(t, "First", "Second", "Third"))
	if err != nil {
		t.Fatal(err)
	}
	for n, page := range doc.Pages() {
		if page.Number != n {
			t.Errorf("page %d numbered %d", n, page.Number)
		}
		if w, h := page.MediaBox.Width(), page.MediaBox.Height(); w < 595 || w > 596 || h < 841 || h > 842 {
			t.Errorf("page %d: media box %v", n, page.MediaBox)
		}
		if page.Ref.Number == 0 {
			t.Errorf("page %d has no reference", n)
		}
		content, err := page.ContentStream()
		if err != nil || !bytes.Contains(content, []byte("Tj")) {
			t.Errorf("page %d content: %q %v", n, content, err)
		}
	}
	if _, err := doc.Page(0); err == nil {
		t.Error("page 0 should be out of range")
	}
	if _, err := doc.Page(4); err == nil {
		t.Error("page 4 should be out of range")
	}
}

func TestMetadata(t *testing.T) {
	doc, err := reader.Parse(generateTestPDF(t, "meta"))
	if err != nil {
		t.Fatal(err)
	}
	meta := doc.Metadata()
	if meta["Title"] != "Test Document" {
		t.Errorf("Title = %q", meta["Title"])
	}
	if meta["Author"] != "Zoë Author" {
		t.Errorf("Author = %q", meta["Author"])
	}
}

func TestRejects(t *testing.T) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetProtection(fpdf.CnProtectPrint, "user", "owner")
	pdf.AddPage()
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatal(err)
	}
	if _, err := reader.Parse(buf.Bytes()); !errors.Is(err, pdfgen.ErrEncrypted) {
		t.Errorf("encrypted: got %v", err)
	}

	for name, data := range map[string][]byte{
		"not a pdf":    []byte("hello"),
		"no startxref": []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n"),
		"bad offset":   []byte("%PDF-1.4\nstartxref\n99999\n%%EOF"),
	} {
		if _, err := reader.Parse(data); !errors.Is(err, pdfgen.ErrCorrupted) {
			t.Errorf("%s: got %v", name, err)
		}
	}
}

// buildPackedPDF writes a file whose catalog and page tree live in an
// object stream indexed by a cross-reference stream.
func buildPackedPDF() []byte {
	packed := []string{
		"<< /Type /Catalog /Pages 3 0 R >>",
		"<< /Type /Pages /Kids [4 0 R] /Count 1 /MediaBox [0 0 300 400] >>",
		"<< /Type /Page /Parent 3 0 R >>",
	}
	var header, body bytes.Buffer
	for i, obj := range packed {
		fmt.Fprintf(&header, "%d %d ", i+2, body.Len())
		body.WriteString(obj + "\n")
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.5\n")
	objStm := buf.Len()
	fmt.Fprintf(&buf, "1 0 obj\n<< /Type /ObjStm /N 3 /First %d /Length %d >>\nstream\n%s%s\nendstream\nendobj\n",
		header.Len(), header.Len()+body.Len(), header.String(), body.String())

	xref := buf.Len()
	rows := []byte{
		0, 0, 0, 255,
		1, byte(objStm >> 8), byte(objStm), 0,
		2, 0, 1, 0,
		2, 0, 1, 1,
		2, 0, 1, 2,
		1, byte(xref >> 8), byte(xref), 0,
	}
	fmt.Fprintf(&buf, "5 0 obj\n<< /Type /XRef /Size 6 /W [1 2 1] /Root 2 0 R /Length %d >>\nstream\n", len(rows))
	buf.Write(rows)
	fmt.Fprintf(&buf, "\nendstream\nendobj\nstartxref\n%d\n%%%%EOF\n", xref)
	return buf.Bytes()
}

func TestObjectStreams(t *testing.T) {
	doc, err := reader.Parse(buildPackedPDF())
	if err != nil {
		t.Fatal(err)
	}
	if doc.NumPages() != 1 {
		t.Fatalf("pages = %d", doc.NumPages())
	}
	page, _ := doc.Page(1)
	if page.MediaBox.Width() != 300 || page.MediaBox.Height() != 400 {
		t.Errorf("inherited media box = %v", page.MediaBox)
	}
	if page.Ref.Number != 4 {
		t.Errorf("page ref = %v", page.Ref)
	}
	obj, err := doc.Object(99)
	if err != nil || obj != (reader.Null{}) {
		t.Errorf("missing object: %v %v", obj, err)
	}

	// Later lookups reuse the decoded object stream.
	for num := 2; num <= 4; num++ {
		first, err := doc.Object(num)
		if err != nil {
			t.Fatalf("object %d: %v", num, err)
		}
		again, err := doc.Object(num)
		if err != nil || fmt.Sprint(again) != fmt.Sprint(first) {
			t.Errorf("object %d reread as %v (%v), want %v", num, again, err, first)
		}
	}
}

func TestIncrementalUpdate(t *testing.T) {
	original := generateTestPDF(t, "one")
	doc, err := reader.Parse(original)
	if err != nil {
		t.Fatal(err)
	}
	catalog, _ := doc.Catalog()

	u := doc.NewUpdate()
	note := u.Add(reader.Dict{"Note": reader.TextString("appended")})
	catalog = catalog.Clone()
	catalog["Note"] = note
	rootRef := doc.Trailer()["Root"].(reader.Reference)
	u.Set(rootRef, catalog)
	updated := u.Bytes()

	if !bytes.HasPrefix(updated, original) {
		t.Fatal("update rewrote the original bytes")
	}
	again, err := reader.Parse(updated)
	if err != nil {
		t.Fatalf("parsing updated file: %v", err)
	}
	cat, _ := again.Catalog()
	d := again.ResolveDict(cat["Note"])
	if d.GetString("Note") != "appended" {
		t.Errorf("note = %v", d)
	}
	if again.NumPages() != 1 || again.Metadata()["Title"] != "Test Document" {
		t.Errorf("update lost pages or info: %d %v", again.NumPages(), again.Metadata())
	}
	if again.Size() <= doc.Size() {
		t.Errorf("size %d not grown from %d", again.Size(), doc.Size())
	}
}
