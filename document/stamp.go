package document

import (
	"github.com/boombuler/barcode/qr"
	"github.com/go-pdf/fpdf/contrib/barcode"
)

const defaultStampSize = 48.0

// registerStamp encodes the stamp barcode once so that the footer can draw
// it on every page.
func (r *renderer) registerStamp() {
	s := r.opts.Stamp
	if s == nil || s.Text == "" {
		return
	}
	size := s.Size
	if size <= 0 {
		size = defaultStampSize
	}
	switch s.Type {
	case "qr":
		r.stamp = barcode.RegisterQR(r.pdf, s.Text, qr.M, qr.Unicode)
		r.stampWH = [2]float64{size, size}
	case "code128":
		r.stamp = barcode.RegisterCode128(r.pdf, s.Text)
		r.stampWH = [2]float64{size * 2.5, size / 2}
	case "pdf417":
		r.stamp = barcode.RegisterPdf417(r.pdf, s.Text, 8, 2)
		r.stampWH = [2]float64{size * 2, size * 2 / 3}
	}
	if r.pdf.Err() {
		r.pdf.ClearError()
		r.stamp = ""
	}
}

// footer draws the stamp in the bottom-right corner, inside the bottom
// margin when it fits.
func (r *renderer) footer() {
	if r.stamp == "" {
		return
	}
	w, h := r.stampWH[0], r.stampWH[1]
	x := r.geo.Page.Width - r.geo.Right - w
	y := r.geo.Page.Height - h - 10
	if r.geo.Bottom > h+10 {
		y = r.geo.Page.Height - r.geo.Bottom + (r.geo.Bottom-h)/2
	}
	barcode.Barcode(r.pdf, r.stamp, x, y, w, h, false)
}
