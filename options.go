package pdfgen

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Default geometry applied when a request leaves it unset.
const (
	DefaultPaperSize = "A4"
	DefaultMargin    = 50.0
	DefaultFilename  = "form"
)

// Options is the validated, fully enumerated set of conversion options a
// request may carry. Unknown keys are rejected by DecodeOptions.
type Options struct {
	Filename      string       `json:"filename,omitempty" validate:"max=255"`
	Title         string       `json:"title,omitempty"`
	Description   string       `json:"description,omitempty"`
	Remarks       string       `json:"remarks,omitempty"`
	Compress      *bool        `json:"compress,omitempty"`
	Size          PageSize     `json:"size,omitempty"`
	Margin        *Length      `json:"margin,omitempty" validate:"omitempty,gte=0"`
	Margins       *Margins     `json:"margins,omitempty"`
	Layout        string       `json:"layout,omitempty" validate:"omitempty,oneof=portrait landscape"`
	Font          string       `json:"font,omitempty" validate:"omitempty,font"`
	Logo          string       `json:"logo,omitempty" validate:"omitempty,uri"`
	Attachments   []Attachment `json:"attachments,omitempty" validate:"omitempty,max=50,dive"`
	UserPassword  string       `json:"userPassword,omitempty"`
	OwnerPassword string       `json:"ownerPassword,omitempty"`
	Stamp         *Stamp       `json:"stamp,omitempty"`
}

// Margins overrides individual page margins.
type Margins struct {
	Top    *Length `json:"top,omitempty" validate:"omitempty,gte=0"`
	Bottom *Length `json:"bottom,omitempty" validate:"omitempty,gte=0"`
	Left   *Length `json:"left,omitempty" validate:"omitempty,gte=0"`
	Right  *Length `json:"right,omitempty" validate:"omitempty,gte=0"`
}

// Attachment is a remote image or PDF appended on its own page.
type Attachment struct {
	Name string `json:"name" validate:"required"`
	URI  string `json:"uri" validate:"required,uri"`
}

// Stamp is a barcode drawn in the bottom-right corner of every page.
type Stamp struct {
	Type string  `json:"type" validate:"required,oneof=qr code128 pdf417"`
	Text string  `json:"text" validate:"required,max=1024"`
	Size float64 `json:"size,omitempty" validate:"omitempty,gt=0,lte=300"`
}

// Length is a distance in points. It decodes from a JSON number or a
// numeric string.
type Length float64

func (l *Length) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "pt")
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("length %q is not a number", s)
		}
		*l = Length(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*l = Length(v)
	return nil
}

// PageSize is either a named paper size or explicit dimensions in points.
type PageSize struct {
	Name          string
	Width, Height float64
}

// IsZero reports whether no size was given.
func (p PageSize) IsZero() bool {
	return p.Name == "" && p.Width == 0 && p.Height == 0
}

// Dimensions resolves the portrait dimensions of the page size.
func (p PageSize) Dimensions() (Dimensions, bool) {
	if p.Name != "" {
		return LookupPaperSize(p.Name)
	}
	if p.Width > 0 && p.Height > 0 {
		return Dimensions{Width: p.Width, Height: p.Height}, true
	}
	return Dimensions{}, false
}

func (p *PageSize) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		return json.Unmarshal(b, &p.Name)
	}
	var dims []float64
	if err := json.Unmarshal(b, &dims); err != nil {
		return fmt.Errorf("size must be a paper name or [width, height]: %w", err)
	}
	if len(dims) != 2 {
		return fmt.Errorf("size must have exactly two dimensions, got %d", len(dims))
	}
	p.Width, p.Height = dims[0], dims[1]
	return nil
}

func (p PageSize) MarshalJSON() ([]byte, error) {
	if p.Name != "" {
		return json.Marshal(p.Name)
	}
	return json.Marshal([]float64{p.Width, p.Height})
}

// DecodeOptions parses raw option JSON, rejecting unknown keys, and validates
// the result. A nil or empty input yields zero options.
func DecodeOptions(raw []byte) (Options, error) {
	var opts Options
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return opts, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&opts); err != nil {
		return opts, decodeError(err)
	}
	if err := Validate(&opts); err != nil {
		return opts, err
	}
	return opts, nil
}

// decodeError turns a decoding failure into a ValidationError so that
// unknown or mistyped options are reported like constraint failures.
func decodeError(err error) error {
	msg := err.Error()
	field, tag := "options", "type"
	if _, name, ok := strings.Cut(msg, "unknown field "); ok {
		field, tag = strings.Trim(name, `"`), "unknown"
		msg = fmt.Sprintf("%s is not allowed", field)
	}
	return &ValidationError{Fields: []FieldError{{Field: field, Tag: tag, Message: msg}}}
}

// Geometry is the resolved page setup of a request.
type Geometry struct {
	Page                     Dimensions
	Landscape                bool
	Top, Bottom, Left, Right float64
}

// ResolveGeometry applies defaults to the size, layout and margin options.
func (o Options) ResolveGeometry() Geometry {
	dims, ok := o.Size.Dimensions()
	if !ok {
		dims, _ = LookupPaperSize(DefaultPaperSize)
	}
	g := Geometry{Page: dims, Landscape: o.Layout == "landscape"}
	if g.Landscape {
		g.Page.Width, g.Page.Height = dims.Height, dims.Width
	}

	m := DefaultMargin
	if o.Margin != nil {
		m = float64(*o.Margin)
	}
	g.Top, g.Bottom, g.Left, g.Right = m, m, m, m
	if o.Margins != nil {
		set := func(dst *float64, v *Length) {
			if v != nil {
				*dst = float64(*v)
			}
		}
		set(&g.Top, o.Margins.Top)
		set(&g.Bottom, o.Margins.Bottom)
		set(&g.Left, o.Margins.Left)
		set(&g.Right, o.Margins.Right)
	}
	return g
}

// FontName returns the requested font or the default.
func (o Options) FontName() string {
	if o.Font == "" {
		return DefaultFont
	}
	return o.Font
}

// Compression reports whether page streams should be compressed. It
// defaults to true.
func (o Options) Compression() bool {
	return o.Compress == nil || *o.Compress
}
