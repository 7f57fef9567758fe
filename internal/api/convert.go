package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/lvillar/pdfgen"
	"github.com/lvillar/pdfgen/document"
)

// readBody reads a request body of at most limit bytes.
func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, maxErr
		}
		return nil, pdfgen.NewInvalidInput("Could not read the request body", err)
	}
	return body, nil
}

func (s *Server) handleJSONToPDF(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r, s.cfg.Server.BodyLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	req, err := document.DecodeRequest(body)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if _, err := s.deps.Converter.Convert(r.Context(), req, &buf); err != nil {
		writeError(w, r, err)
		return
	}
	writePDF(w, http.StatusOK, "inline; filename="+req.Options.DownloadName(), buf.Bytes())
}
