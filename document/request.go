package document

import (
	"bytes"

	"github.com/valyala/fastjson"

	"github.com/lvillar/pdfgen"
	"github.com/lvillar/pdfgen/jsontable"
	"github.com/lvillar/pdfgen/table"
)

// DecodeRequest splits a {"data": ..., "options": {...}} body. The data
// keeps the key order of the body; the options are decoded strictly and
// validated.
func DecodeRequest(body []byte) (Request, error) {
	var req Request
	if len(bytes.TrimSpace(body)) == 0 {
		return req, pdfgen.NewInvalidInput("No JSON to parse", pdfgen.ErrNoData)
	}
	v, err := jsontable.Parse(body)
	if err != nil {
		return req, err
	}
	if v.Type() != fastjson.TypeObject {
		return req, pdfgen.NewInvalidInput("The request body must be a JSON object", pdfgen.ErrNoData)
	}
	if o := v.Get("options"); o != nil {
		opts, err := pdfgen.DecodeOptions(o.MarshalTo(nil))
		if err != nil {
			return req, err
		}
		req.Options = opts
	}
	req.Data = v.Get("data")
	return req, nil
}

// Preview lays out req the way Convert does, without fetching assets or
// producing a PDF, and returns the table with its pages.
func Preview(req Request) (*jsontable.Table, []jsontable.Page, error) {
	if err := pdfgen.Validate(&req.Options); err != nil {
		return nil, nil, err
	}
	tbl, err := jsontable.New(req.Data)
	if err != nil {
		return nil, nil, err
	}

	r := newRenderer(req.Options, "")
	r.setFont(bodySize)
	r.pdf.AddPage()
	r.renderIntro()
	r.pdf.SetAutoPageBreak(false, r.geo.Bottom)
	r.setFont(bodySize)
	pages := table.New(r.pdf, tbl.Columns, r.font).Paginate(tbl.Rows)
	if r.pdf.Err() {
		return nil, nil, pdfgen.Wrap("Preview", r.pdf.Error())
	}
	return tbl, pages, nil
}
