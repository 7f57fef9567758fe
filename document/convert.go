// Package document turns a JSON value and conversion options into a PDF.
//
// The pipeline validates the data, lays it out with package jsontable,
// fetches the optional logo and attachments concurrently, and renders the
// document with fpdf: title, description, table pages, one page per
// attachment and finally the remarks. Nothing is written to the output
// until the whole document has been produced, so callers can still report
// errors as regular responses.
package document

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fastjson"

	"github.com/lvillar/pdfgen"
	"github.com/lvillar/pdfgen/assets"
	"github.com/lvillar/pdfgen/jsontable"
)

// Request is one conversion: the value to tabulate and its options.
type Request struct {
	Data    *fastjson.Value
	Options pdfgen.Options
}

// Report summarises a finished conversion.
type Report struct {
	Columns     int
	Rows        int
	TablePages  int
	Pages       int
	Bytes       int
	AssetErrors []error
}

// Fetcher retrieves remote assets. *assets.Fetcher satisfies it.
type Fetcher interface {
	FetchAll(ctx context.Context, uris []string, limit int) []assets.Result
}

// Hooks observe conversions, e.g. for metrics. Nil hooks are skipped.
type Hooks struct {
	AssetFailed func(kind string, err error)
	Rendered    func(r *Report, elapsed time.Duration)
}

// Converter renders documents. A Converter is safe for concurrent use.
type Converter struct {
	fetcher    Fetcher
	fetchLimit int
	creator    string
	hooks      Hooks
}

// New creates a Converter. Without WithFetcher it uses an assets.Fetcher
// with default settings.
func New(opts ...Option) *Converter {
	c := &Converter{fetchLimit: 4, creator: "pdfgen"}
	for _, opt := range opts {
		opt(c)
	}
	if c.fetcher == nil {
		f, _ := assets.New()
		c.fetcher = f
	}
	return c
}

// Convert renders req and writes the PDF to w. Validation and layout
// failures are returned before anything is written.
func (c *Converter) Convert(ctx context.Context, req Request, w io.Writer) (*Report, error) {
	start := time.Now()
	log := zerolog.Ctx(ctx)

	if err := pdfgen.Validate(&req.Options); err != nil {
		return nil, err
	}
	tbl, err := jsontable.New(req.Data)
	if err != nil {
		return nil, err
	}

	fetched := c.fetchAssets(ctx, req.Options)
	report := &Report{Columns: tbl.Columns, Rows: len(tbl.Rows)}
	for _, failure := range fetched.failures() {
		report.AssetErrors = append(report.AssetErrors, failure)
		log.Warn().Err(failure.Err).Str("kind", failure.Kind).Str("uri", failure.URI).Msg("asset unavailable")
		if c.hooks.AssetFailed != nil {
			c.hooks.AssetFailed(failure.Kind, failure)
		}
	}

	r := newRenderer(req.Options, c.creator)
	if err := r.render(tbl, fetched, report); err != nil {
		return nil, pdfgen.Wrap("Convert", err)
	}

	var buf bytes.Buffer
	if err := r.pdf.Output(&buf); err != nil {
		return nil, pdfgen.Wrap("Convert", err)
	}
	report.Bytes = buf.Len()
	if _, err := buf.WriteTo(w); err != nil {
		return report, pdfgen.Wrap("Convert", err)
	}

	elapsed := time.Since(start)
	log.Debug().
		Int("columns", report.Columns).
		Int("rows", report.Rows).
		Int("pages", report.Pages).
		Dur("elapsed", elapsed).
		Msg("document rendered")
	if c.hooks.Rendered != nil {
		c.hooks.Rendered(report, elapsed)
	}
	return report, nil
}

// Convert renders req with a default Converter.
func Convert(ctx context.Context, req Request, w io.Writer) (*Report, error) {
	return New().Convert(ctx, req, w)
}

// fetchedAssets holds the outcome of the logo and attachment fetches.
type fetchedAssets struct {
	logo        assets.Result
	logoURI     string
	attachments []assets.Result
	names       []string
	uris        []string
}

func (c *Converter) fetchAssets(ctx context.Context, opts pdfgen.Options) fetchedAssets {
	uris := make([]string, 0, len(opts.Attachments)+1)
	uris = append(uris, opts.Logo)
	fa := fetchedAssets{logoURI: opts.Logo}
	for _, a := range opts.Attachments {
		uris = append(uris, a.URI)
		fa.names = append(fa.names, a.Name)
		fa.uris = append(fa.uris, a.URI)
	}
	if opts.Logo == "" && len(opts.Attachments) == 0 {
		return fa
	}

	results := c.fetcher.FetchAll(ctx, uris, c.fetchLimit)
	fa.logo = results[0]
	fa.attachments = results[1:]
	return fa
}

// failures tags every failed fetch with its kind.
func (fa fetchedAssets) failures() []*pdfgen.AssetFetchError {
	var out []*pdfgen.AssetFetchError
	tag := func(kind, uri string, err error) {
		afe, ok := err.(*pdfgen.AssetFetchError)
		if !ok {
			afe = &pdfgen.AssetFetchError{URI: uri, Err: err}
		}
		afe.Kind = kind
		out = append(out, afe)
	}
	if fa.logo.Err != nil {
		tag("logo", fa.logoURI, fa.logo.Err)
	}
	for i, r := range fa.attachments {
		if r.Err != nil {
			tag("attachment", fa.uris[i], r.Err)
		}
	}
	return out
}
