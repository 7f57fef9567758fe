package document

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"github.com/go-pdf/fpdf/contrib/gofpdi"

	"github.com/lvillar/pdfgen"
	"github.com/lvillar/pdfgen/assets"
	"github.com/lvillar/pdfgen/jsontable"
	"github.com/lvillar/pdfgen/reader"
	"github.com/lvillar/pdfgen/table"
)

// Font sizes and logo geometry of the generated document.
const (
	bodySize    = 12.0
	titleSize   = 24.0
	headingSize = 16.0
	logoWidth   = 80.0
	logoTop     = 20.0
)

type renderer struct {
	pdf     *fpdf.Fpdf
	opts    pdfgen.Options
	geo     pdfgen.Geometry
	font    table.FontSpec
	tr      func(string) string
	logo    string // registered image name, empty when absent
	stamp   string // registered barcode key, empty when absent
	stampWH [2]float64
}

func newRenderer(opts pdfgen.Options, creator string) *renderer {
	geo := opts.ResolveGeometry()
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: geo.Page.Width, Ht: geo.Page.Height},
	})
	pdf.SetMargins(geo.Left, geo.Top, geo.Right)
	pdf.SetAutoPageBreak(true, geo.Bottom)
	pdf.SetCompression(opts.Compression())
	if opts.UserPassword != "" || opts.OwnerPassword != "" {
		pdf.SetProtection(fpdf.CnProtectPrint, opts.UserPassword, opts.OwnerPassword)
	}
	if opts.Title != "" {
		pdf.SetTitle(opts.Title, true)
	}
	if opts.Description != "" {
		pdf.SetSubject(opts.Description, true)
	}
	pdf.SetCreator(creator, true)

	core, _ := pdfgen.LookupFont(opts.FontName())
	return &renderer{
		pdf:  pdf,
		opts: opts,
		geo:  geo,
		font: table.FontSpec{Family: core.Family, Style: core.Style, Size: bodySize},
		tr:   pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

func (r *renderer) contentWidth() float64 {
	return r.geo.Page.Width - r.geo.Left - r.geo.Right
}

func (r *renderer) setFont(size float64) {
	r.pdf.SetFont(r.font.Family, r.font.Style, size)
}

func (r *renderer) render(tbl *jsontable.Table, fa fetchedAssets, report *Report) error {
	r.registerLogo(fa.logo.Asset)
	r.registerStamp()
	r.pdf.SetHeaderFuncMode(r.header, true)
	r.pdf.SetFooterFunc(r.footer)

	r.setFont(bodySize)
	r.pdf.AddPage()
	r.renderIntro()

	// The table paginates itself; fpdf must not break pages on its own.
	r.pdf.SetAutoPageBreak(false, r.geo.Bottom)
	r.setFont(bodySize)
	tb := table.New(r.pdf, tbl.Columns, r.font)
	pages := tb.Paginate(tbl.Rows)
	if err := tb.Render(pages); err != nil {
		return fmt.Errorf("rendering table: %w", err)
	}
	report.TablePages = len(pages)
	r.pdf.SetAutoPageBreak(true, r.geo.Bottom)

	for i, res := range fa.attachments {
		r.renderAttachment(i, fa.names[i], res)
	}
	r.renderRemarks()

	report.Pages = r.pdf.PageCount()
	if r.pdf.Err() {
		return r.pdf.Error()
	}
	return nil
}

// renderIntro writes the title and description above the table.
func (r *renderer) renderIntro() {
	if r.opts.Title != "" {
		r.setFont(titleSize)
		r.pdf.MultiCell(r.contentWidth(), titleSize*1.2, r.tr(r.opts.Title), "", "C", false)
		r.pdf.Ln(titleSize / 2)
	}
	if r.opts.Description != "" {
		r.setFont(bodySize)
		r.pdf.MultiCell(r.contentWidth(), bodySize*1.2, r.tr(r.opts.Description), "", "L", false)
		r.pdf.Ln(bodySize)
	}
}

func (r *renderer) heading(text string) {
	r.setFont(headingSize)
	r.pdf.MultiCell(r.contentWidth(), headingSize*1.2, r.tr(text), "", "L", false)
	r.pdf.Ln(headingSize / 2)
	r.setFont(bodySize)
}

func (r *renderer) renderAttachment(i int, name string, res assets.Result) {
	r.pdf.AddPage()
	r.heading(fmt.Sprintf("Attachment %d", i+1))
	r.pdf.MultiCell(r.contentWidth(), bodySize*1.2, r.tr("Name: "+name), "", "L", false)
	r.pdf.Ln(bodySize)

	ok := false
	switch a := res.Asset; {
	case res.Err != nil || a == nil:
	case a.IsPDF():
		ok = r.importPDF(a.Data)
	default:
		ok = r.placeImage(fmt.Sprintf("attachment-%d", i), a)
	}
	if !ok {
		r.pdf.SetTextColor(255, 0, 0)
		r.pdf.MultiCell(r.contentWidth(), bodySize*1.2, "Could not load attachment.", "", "L", false)
		r.pdf.SetTextColor(0, 0, 0)
	}
}

// fitBox returns the area available to an attachment: the page less 100
// points of width and 150 points of height, centred horizontally and
// starting at the current y.
func (r *renderer) fitBox() (x, y, w, h float64) {
	w = r.geo.Page.Width - 100
	h = r.geo.Page.Height - 150
	y = r.pdf.GetY()
	if maxH := r.geo.Page.Height - r.geo.Bottom - y; maxH < h {
		h = maxH
	}
	return 50, y, w, h
}

func scaleToFit(srcW, srcH, boxW, boxH float64) (w, h float64) {
	if srcW <= 0 || srcH <= 0 {
		return 0, 0
	}
	s := min(boxW/srcW, boxH/srcH)
	return srcW * s, srcH * s
}

// registerImage adds the asset to the document. A decoding failure is
// cleared from the document so that rendering can continue.
func (r *renderer) registerImage(name string, a *assets.Asset) (*fpdf.ImageInfoType, bool) {
	if a == nil || a.ImageType() == "" {
		return nil, false
	}
	info := r.pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: a.ImageType()}, bytes.NewReader(a.Data))
	if r.pdf.Err() || info == nil {
		r.pdf.ClearError()
		return nil, false
	}
	return info, true
}

func (r *renderer) placeImage(name string, a *assets.Asset) bool {
	info, ok := r.registerImage(name, a)
	if !ok {
		return false
	}
	bx, by, bw, bh := r.fitBox()
	iw, ih := info.Extent()
	w, h := scaleToFit(iw, ih, bw, bh)
	if w == 0 {
		return false
	}
	r.pdf.ImageOptions(name, bx+(bw-w)/2, by, w, h, false, fpdf.ImageOptions{ImageType: a.ImageType()}, 0, "")
	r.pdf.SetY(by + h)
	return true
}

// importPDF places every page of a PDF attachment, scaled into the fit
// box, starting on the current page.
func (r *renderer) importPDF(data []byte) (ok bool) {
	doc, err := reader.ReadFrom(bytes.NewReader(data))
	if err != nil || doc.NumPages() == 0 {
		return false
	}
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	imp := gofpdi.NewImporter()
	var rs io.ReadSeeker = bytes.NewReader(data)
	for n := 1; n <= doc.NumPages(); n++ {
		if n > 1 {
			r.pdf.AddPage()
		}
		tpl := imp.ImportPageFromStream(r.pdf, &rs, n, "/MediaBox")
		pw, ph := 0.0, 0.0
		if page, err := doc.Page(n); err == nil {
			pw, ph = page.MediaBox.Width(), page.MediaBox.Height()
		}
		bx, by, bw, bh := r.fitBox()
		w, h := scaleToFit(pw, ph, bw, bh)
		if w == 0 {
			w, h = bw, bh
		}
		imp.UseImportedTemplate(r.pdf, tpl, bx+(bw-w)/2, by, w, h)
	}
	return true
}

func (r *renderer) renderRemarks() {
	if r.opts.Remarks == "" {
		return
	}
	r.pdf.AddPage()
	r.heading("Remarks")
	r.pdf.MultiCell(r.contentWidth(), bodySize*1.2, r.tr(r.opts.Remarks), "", "L", false)
}

func (r *renderer) registerLogo(a *assets.Asset) {
	if _, ok := r.registerImage("logo", a); ok {
		r.logo = "logo"
	}
}

// header draws the logo in the top-right corner of every page.
func (r *renderer) header() {
	if r.logo == "" {
		return
	}
	info := r.pdf.GetImageInfo(r.logo)
	if info == nil {
		return
	}
	iw, ih := info.Extent()
	maxH := max(r.geo.Top-logoTop-5, logoWidth/4)
	w, h := scaleToFit(iw, ih, logoWidth, maxH)
	x := r.geo.Page.Width - r.geo.Right - w
	r.pdf.ImageOptions(r.logo, x, logoTop, w, h, false, fpdf.ImageOptions{}, 0, "")
}
