package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/lvillar/pdfgen"
	"github.com/lvillar/pdfgen/form"
	"github.com/lvillar/pdfgen/internal/logging"
	"github.com/lvillar/pdfgen/internal/metrics"
	"github.com/lvillar/pdfgen/nocobase"
)

// multipartMemory is the part of an upload kept in memory; the rest is
// spooled to disk.
const multipartMemory = 8 << 20

// readPDF returns the "pdf" part of a multipart request.
func (s *Server) readPDF(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.UploadLimit)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, maxErr
		}
		return nil, pdfgen.NewInvalidInput("Expected a multipart form", err)
	}
	f, _, err := r.FormFile("pdf")
	if err != nil {
		return nil, pdfgen.NewInvalidInput("Missing PDF file", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, pdfgen.NewInvalidInput("Could not read the PDF file", err)
	}
	return data, nil
}

func cleanupMultipart(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}

// createRequest is the "form" part of /createpdf next to the template.
type createRequest struct {
	Cred *nocobase.Credentials `json:"cred"`
}

func (s *Server) handleCreatePDF(w http.ResponseWriter, r *http.Request) {
	defer cleanupMultipart(r)
	pdf, err := s.readPDF(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	raw := []byte(r.FormValue("form"))
	if len(bytes.TrimSpace(raw)) == 0 {
		writeError(w, r, pdfgen.NewInvalidInput("Missing form description", pdfgen.ErrNoData))
		return
	}
	var (
		t     nocobase.Template
		extra createRequest
	)
	if err := json.Unmarshal(raw, &t); err != nil {
		writeError(w, r, pdfgen.NewInvalidInput("Invalid form description", err))
		return
	}
	if err := json.Unmarshal(raw, &extra); err != nil {
		writeError(w, r, pdfgen.NewInvalidInput("Invalid form description", err))
		return
	}
	if t.TableName == "" {
		t.TableName = t.FormName
	}
	if t.NocobaseApp == "" {
		t.NocobaseApp = s.cfg.NocoBase.Default.App
	}
	if err := pdfgen.Validate(&t); err != nil {
		writeError(w, r, err)
		return
	}

	store, err := s.templateStore(extra.Cred)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var tagged bytes.Buffer
	err = form.Tag(bytes.NewReader(pdf), &tagged, t.Specs())
	metrics.RecordFormOperation("tag", err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := store.SaveTemplate(r.Context(), t, tagged.Bytes())
	if err != nil {
		writeError(w, r, err)
		return
	}
	logging.Ctx(r.Context()).Info().
		Interface("template_id", saved.ID).
		Str("table", saved.TableName).
		Int("fields", len(saved.FormFields)).
		Msg("template saved")
	writePDF(w, http.StatusCreated, `attachment; filename="template.pdf"`, tagged.Bytes())
}

func (s *Server) handleFillPDF(w http.ResponseWriter, r *http.Request) {
	defer cleanupMultipart(r)
	templateID, customerID, err := recordParams(r, nil)
	if err != nil {
		writeError(w, r, err)
		return
	}
	pdf, err := s.readPDF(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	dir, err := s.directory()
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx := r.Context()
	tmpl, err := dir.Template(ctx, templateID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	store, err := s.userStore(ctx, customerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := store.Get(ctx, tmpl.TableName, customerID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var out bytes.Buffer
	err = form.FillAndFlatten(bytes.NewReader(pdf), &out, tmpl.Values(rec))
	metrics.RecordFormOperation("fill", err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePDF(w, http.StatusOK, `attachment; filename="filled.pdf"`, out.Bytes())
}
