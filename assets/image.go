package assets

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

var decoders = map[string]func([]byte) (image.Image, error){
	"image/webp": func(b []byte) (image.Image, error) { return webp.Decode(bytes.NewReader(b)) },
	"image/bmp":  func(b []byte) (image.Image, error) { return bmp.Decode(bytes.NewReader(b)) },
	"image/tiff": func(b []byte) (image.Image, error) { return tiff.Decode(bytes.NewReader(b)) },
}

// normalize re-encodes image formats fpdf cannot embed as PNG. JPEG, PNG,
// GIF and PDF assets pass through unchanged.
func normalize(a *Asset) (*Asset, error) {
	if a.IsPDF() || a.ImageType() != "" {
		return a, nil
	}
	decode, ok := decoders[a.MIME]
	if !ok {
		return nil, fmt.Errorf("%s: %w", a.MIME, errUnsupported)
	}
	img, err := decode(a.Data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", a.MIME, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("re-encoding %s: %w", a.MIME, err)
	}
	return &Asset{URI: a.URI, MIME: "image/png", Data: buf.Bytes()}, nil
}
