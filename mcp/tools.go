package mcp

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os"

	json "github.com/goccy/go-json"

	"github.com/lvillar/pdfgen"
	"github.com/lvillar/pdfgen/document"
	"github.com/lvillar/pdfgen/form"
	"github.com/lvillar/pdfgen/jsontable"
)

// RegisterTools adds the conversion and form tools to the server.
// Conversions use conv.
func RegisterTools(s *Server, conv *document.Converter) {
	s.AddTool(jsonToPDFTool(conv))
	s.AddTool(tagFormTool())
	s.AddTool(listFormFieldsTool())
	s.AddTool(fillFormTool())
	s.AddTool(flattenFormTool())
}

// pdfInput names the document a form tool works on: a file path or
// base64 data.
type pdfInput struct {
	Path string `json:"path" validate:"required_without=PDF"`
	PDF  string `json:"pdf" validate:"required_without=Path"`
}

func (in pdfInput) read() ([]byte, error) {
	if in.Path != "" {
		data, err := os.ReadFile(in.Path)
		if err != nil {
			return nil, fmt.Errorf("reading PDF: %w", err)
		}
		return data, nil
	}
	data, err := base64.StdEncoding.DecodeString(in.PDF)
	if err != nil {
		return nil, fmt.Errorf("decoding PDF: %w", err)
	}
	return data, nil
}

// output is where a tool puts the PDF it produces. Without a path the PDF
// is returned as base64.
type output struct {
	OutputPath string `json:"outputPath"`
}

func (o output) write(what string, data []byte) (ToolResult, error) {
	if o.OutputPath != "" {
		if err := os.WriteFile(o.OutputPath, data, 0o644); err != nil {
			return ToolResult{}, fmt.Errorf("writing file: %w", err)
		}
		return textResult("%s: %s (%d bytes)", what, o.OutputPath, len(data)), nil
	}
	return ToolResult{Content: []ContentBlock{
		{Type: "text", Text: fmt.Sprintf("%s (%d bytes)", what, len(data))},
		{Type: "resource", MIMEType: "application/pdf", Data: base64.StdEncoding.EncodeToString(data)},
	}}, nil
}

// decodeArgs unmarshals and validates tool arguments.
func decodeArgs(raw json.RawMessage, v any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return pdfgen.NewInvalidInput("invalid arguments", err)
	}
	return pdfgen.Validate(v)
}

func pdfSchema(extra map[string]any, required ...string) map[string]any {
	props := map[string]any{
		"path": map[string]any{"type": "string", "description": "Path to the PDF file"},
		"pdf":  map[string]any{"type": "string", "description": "Base64 PDF data, used when path is empty"},
	}
	for k, v := range extra {
		props[k] = v
	}
	schema := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

var outputPathSchema = map[string]any{
	"type":        "string",
	"description": "Optional file path to save the PDF. If omitted, the PDF is returned as base64.",
}

func jsonToPDFTool(conv *document.Converter) Tool {
	return Tool{
		Name: "json_to_pdf",
		Description: "Render any JSON value as a nested table PDF. Objects become label/value rows, " +
			"arrays repeat their label, and long tables continue on new pages.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"data": map[string]any{"description": "JSON object or array to tabulate"},
				"options": map[string]any{
					"type":        "object",
					"description": "title, description, remarks, size, layout, margin, font, logo, attachments, stamp",
				},
				"outputPath": outputPathSchema,
			},
			"required": []string{"data"},
		},
		Handler: func(ctx context.Context, raw json.RawMessage) (ToolResult, error) {
			var args struct {
				Data    json.RawMessage `json:"data"`
				Options json.RawMessage `json:"options"`
				output
			}
			if err := decodeArgs(raw, &args); err != nil {
				return ToolResult{}, err
			}
			data, err := jsontable.Parse(args.Data)
			if err != nil {
				return ToolResult{}, err
			}
			opts, err := pdfgen.DecodeOptions(args.Options)
			if err != nil {
				return ToolResult{}, err
			}

			var buf bytes.Buffer
			report, err := conv.Convert(ctx, document.Request{Data: data, Options: opts}, &buf)
			if err != nil {
				return ToolResult{}, err
			}
			what := fmt.Sprintf("PDF created with %d columns, %d rows on %d pages", report.Columns, report.Rows, report.Pages)
			return args.write(what, buf.Bytes())
		},
	}
}

func tagFormTool() Tool {
	return Tool{
		Name:        "tag_form",
		Description: "Add text form fields to a PDF at the given positions (PDF points, origin bottom-left, pageNum 0-based).",
		InputSchema: pdfSchema(map[string]any{
			"fields": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name":    map[string]any{"type": "string"},
						"pageNum": map[string]any{"type": "integer"},
						"x":       map[string]any{"type": "number"},
						"y":       map[string]any{"type": "number"},
						"width":   map[string]any{"type": "number"},
						"height":  map[string]any{"type": "number"},
					},
					"required": []string{"name", "width", "height"},
				},
			},
			"outputPath": outputPathSchema,
		}, "fields"),
		Handler: func(_ context.Context, raw json.RawMessage) (ToolResult, error) {
			var args struct {
				pdfInput
				Fields []form.FieldSpec `json:"fields" validate:"required,min=1"`
				output
			}
			if err := decodeArgs(raw, &args); err != nil {
				return ToolResult{}, err
			}
			in, err := args.read()
			if err != nil {
				return ToolResult{}, err
			}
			var buf bytes.Buffer
			if err := form.Tag(bytes.NewReader(in), &buf, args.Fields); err != nil {
				return ToolResult{}, err
			}
			return args.write(fmt.Sprintf("Tagged %d fields", len(args.Fields)), buf.Bytes())
		},
	}
}

func listFormFieldsTool() Tool {
	return Tool{
		Name:        "list_form_fields",
		Description: "List the form fields of a PDF with their type, value, page and rectangle.",
		InputSchema: pdfSchema(nil),
		Handler: func(_ context.Context, raw json.RawMessage) (ToolResult, error) {
			var args pdfInput
			if err := decodeArgs(raw, &args); err != nil {
				return ToolResult{}, err
			}
			in, err := args.read()
			if err != nil {
				return ToolResult{}, err
			}
			fields, err := form.Fields(bytes.NewReader(in))
			if err != nil {
				return ToolResult{}, err
			}
			out, err := json.MarshalIndent(map[string]any{"fieldCount": len(fields), "fields": fields}, "", "  ")
			if err != nil {
				return ToolResult{}, err
			}
			return textResult("%s", out), nil
		},
	}
}

func fillFormTool() Tool {
	return Tool{
		Name:        "fill_form",
		Description: "Fill form fields by name. With flatten the values are drawn into the pages and the form is removed.",
		InputSchema: pdfSchema(map[string]any{
			"values": map[string]any{
				"type":                 "object",
				"description":          "Field name to value",
				"additionalProperties": map[string]any{"type": "string"},
			},
			"flatten":    map[string]any{"type": "boolean"},
			"outputPath": outputPathSchema,
		}, "values"),
		Handler: func(_ context.Context, raw json.RawMessage) (ToolResult, error) {
			var args struct {
				pdfInput
				Values  map[string]string `json:"values" validate:"required,min=1"`
				Flatten bool              `json:"flatten"`
				output
			}
			if err := decodeArgs(raw, &args); err != nil {
				return ToolResult{}, err
			}
			in, err := args.read()
			if err != nil {
				return ToolResult{}, err
			}
			fill := form.Fill
			if args.Flatten {
				fill = form.FillAndFlatten
			}
			var buf bytes.Buffer
			if err := fill(bytes.NewReader(in), &buf, args.Values); err != nil {
				return ToolResult{}, err
			}
			return args.write(fmt.Sprintf("Filled %d values", len(args.Values)), buf.Bytes())
		},
	}
}

func flattenFormTool() Tool {
	return Tool{
		Name:        "flatten_form",
		Description: "Draw the current field values into the pages and remove the form.",
		InputSchema: pdfSchema(map[string]any{"outputPath": outputPathSchema}),
		Handler: func(_ context.Context, raw json.RawMessage) (ToolResult, error) {
			var args struct {
				pdfInput
				output
			}
			if err := decodeArgs(raw, &args); err != nil {
				return ToolResult{}, err
			}
			in, err := args.read()
			if err != nil {
				return ToolResult{}, err
			}
			var buf bytes.Buffer
			if err := form.Flatten(bytes.NewReader(in), &buf); err != nil {
				return ToolResult{}, err
			}
			return args.write("Form flattened", buf.Bytes())
		},
	}
}
