package mcp

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/lvillar/pdfgen"
	"github.com/lvillar/pdfgen/form"
)

// RegisterResources adds the reference resources to the server.
func RegisterResources(s *Server) {
	s.AddResource(Resource{
		URI:         "pdfgen://paper-sizes",
		Name:        "Paper sizes",
		Description: "Named paper sizes accepted by the size option, in points.",
		MIMEType:    "application/json",
		Handler:     handlePaperSizes,
	})
	s.AddResource(Resource{
		URI:         "pdfgen://fonts",
		Name:        "Fonts",
		Description: "Font names accepted by the font option.",
		MIMEType:    "application/json",
		Handler:     handleFonts,
	})
	s.AddResource(Resource{
		URI:         "pdfgen://form-fields",
		Name:        "Form fields",
		Description: "Form fields of a PDF file: pdfgen://form-fields?path=/path/to/file.pdf",
		MIMEType:    "application/json",
		Handler:     handleFormFields,
	})
}

func jsonContent(uri string, v any) ([]ResourceContent, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return []ResourceContent{{URI: uri, MIMEType: "application/json", Text: string(b)}}, nil
}

func handlePaperSizes(uri string) ([]ResourceContent, error) {
	type size struct {
		Name   string  `json:"name"`
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}
	names := pdfgen.PaperSizes()
	sizes := make([]size, 0, len(names))
	for _, name := range names {
		d, _ := pdfgen.LookupPaperSize(name)
		sizes = append(sizes, size{Name: name, Width: d.Width, Height: d.Height})
	}
	return jsonContent(uri, map[string]any{"default": pdfgen.DefaultPaperSize, "sizes": sizes})
}

func handleFonts(uri string) ([]ResourceContent, error) {
	return jsonContent(uri, map[string]any{"default": pdfgen.DefaultFont, "fonts": pdfgen.Fonts()})
}

func handleFormFields(uri string) ([]ResourceContent, error) {
	path := pathParam(uri)
	if path == "" {
		return nil, fmt.Errorf("missing 'path' parameter in URI")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	fields, err := form.Fields(f)
	if err != nil {
		return nil, err
	}
	return jsonContent(uri, map[string]any{"fieldCount": len(fields), "fields": fields})
}

func pathParam(uri string) string {
	_, query, ok := strings.Cut(uri, "?")
	if !ok {
		return ""
	}
	values, err := url.ParseQuery(query)
	if err != nil {
		return ""
	}
	return values.Get("path")
}
