package pdfgen_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lvillar/pdfgen"
)

func TestDecodeOptionsDefaults(t *testing.T) {
	opts, err := pdfgen.DecodeOptions(nil)
	if err != nil {
		t.Fatalf("DecodeOptions(nil): %v", err)
	}
	g := opts.ResolveGeometry()
	want := pdfgen.Geometry{
		Page: pdfgen.Dimensions{Width: 595.28, Height: 841.89},
		Top:  50, Bottom: 50, Left: 50, Right: 50,
	}
	if diff := cmp.Diff(want, g); diff != "" {
		t.Errorf("geometry mismatch (-want +got):\n%s", diff)
	}
	if opts.FontName() != "Times-Roman" {
		t.Errorf("font = %q, want Times-Roman", opts.FontName())
	}
	if !opts.Compression() {
		t.Error("compression should default to true")
	}
}

func TestDecodeOptionsGeometry(t *testing.T) {
	raw := `{"size":"letter","layout":"landscape","margin":"20","margins":{"top":72}}`
	opts, err := pdfgen.DecodeOptions([]byte(raw))
	if err != nil {
		t.Fatalf("DecodeOptions: %v", err)
	}
	got := opts.ResolveGeometry()
	want := pdfgen.Geometry{
		Page:      pdfgen.Dimensions{Width: 792, Height: 612},
		Landscape: true,
		Top:       72, Bottom: 20, Left: 20, Right: 20,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("geometry mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeOptionsExplicitSize(t *testing.T) {
	opts, err := pdfgen.DecodeOptions([]byte(`{"size":[300,400]}`))
	if err != nil {
		t.Fatalf("DecodeOptions: %v", err)
	}
	g := opts.ResolveGeometry()
	if g.Page.Width != 300 || g.Page.Height != 400 {
		t.Errorf("page = %+v, want 300x400", g.Page)
	}
}

func TestDecodeOptionsRejects(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{"bad font", `{"font":"Comic-Sans"}`, "font"},
		{"unknown key", `{"colour":"red"}`, "colour"},
		{"bad layout", `{"layout":"potrait"}`, "layout"},
		{"unknown paper", `{"size":"Z9"}`, "size"},
		{"negative size", `{"size":[-1,10]}`, "size"},
		{"attachment without uri", `{"attachments":[{"name":"a"}]}`, "attachments[0].uri"},
		{"bad logo", `{"logo":"not a uri"}`, "logo"},
		{"negative margin", `{"margin":-5}`, "margin"},
		{"bad stamp", `{"stamp":{"type":"ean13","text":"x"}}`, "stamp.type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pdfgen.DecodeOptions([]byte(tt.raw))
			var verr *pdfgen.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if !verr.HasField(tt.field) {
				t.Errorf("expected failure on %q, got %+v", tt.field, verr.Fields)
			}
		})
	}
}

func TestLookupPaperSize(t *testing.T) {
	for _, name := range pdfgen.PaperSizes() {
		d, ok := pdfgen.LookupPaperSize(name)
		if !ok || d.Width <= 0 || d.Height < d.Width {
			t.Errorf("%s: unexpected dimensions %+v", name, d)
		}
	}
	if _, ok := pdfgen.LookupPaperSize("a4"); !ok {
		t.Error("lookup should be case-insensitive")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		candidates []string
		want       string
	}{
		{[]string{"Quarterly Report (Q3)", ""}, "Quarterly_Report_Q3"},
		{[]string{"", "My  Title!!"}, "My_Title"},
		{[]string{"__a__b__"}, "a_b"},
		{[]string{"***", "fallback-title"}, "fallback-title"},
		{[]string{"", ""}, "form"},
		{nil, "form"},
	}
	for _, tt := range tests {
		if got := pdfgen.SanitizeFilename(tt.candidates...); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.candidates, got, tt.want)
		}
	}
}

func TestErrorTaxonomy(t *testing.T) {
	err := pdfgen.Wrap("Convert", pdfgen.NewInvalidInput("Incomplete JSON", pdfgen.ErrIncompleteJSON))
	if !errors.Is(err, pdfgen.ErrIncompleteJSON) {
		t.Error("wrapped error should match ErrIncompleteJSON")
	}
	var iie *pdfgen.InvalidInputError
	if !errors.As(err, &iie) || iie.Message != "Incomplete JSON" {
		t.Errorf("unexpected InvalidInputError: %v", iie)
	}
	if pdfgen.Wrap("noop", nil) != nil {
		t.Error("Wrap(nil) should be nil")
	}
}
