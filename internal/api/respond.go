package api

import (
	"errors"
	"net/http"

	json "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/lvillar/pdfgen"
	"github.com/lvillar/pdfgen/internal/logging"
)

var errStoreUnavailable = errors.New("record store is not configured")

type message struct {
	Message string `json:"message"`
}

type errorBody struct {
	Message string `json:"message"`
	Error   any    `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writePDF(w http.ResponseWriter, status int, disposition string, data []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", disposition)
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError maps err to a status code and a JSON body. Only the messages
// of caller errors are returned; everything else is logged.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr    *pdfgen.ValidationError
		invalid *pdfgen.InvalidInputError
		maxErr  *http.MaxBytesError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody{
			Message: "Validation failed",
			Error:   map[string]any{"fields": verr.Fields},
		})
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadRequest, message{Message: invalid.Message})
	case errors.As(err, &maxErr):
		writeJSON(w, http.StatusRequestEntityTooLarge, message{Message: "Request body too large"})
	case errors.Is(err, pdfgen.ErrEncrypted):
		writeJSON(w, http.StatusBadRequest, message{Message: "Encrypted PDF files are not supported"})
	case errors.Is(err, pdfgen.ErrCorrupted):
		writeJSON(w, http.StatusBadRequest, message{Message: "The PDF file could not be read"})
	case errors.Is(err, pdfgen.ErrNoFields):
		writeJSON(w, http.StatusUnprocessableEntity, message{Message: "The PDF has no matching form fields"})
	case errors.Is(err, pdfgen.ErrNotFound):
		writeJSON(w, http.StatusNotFound, message{Message: "Not Found"})
	case errors.Is(err, pdfgen.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, message{Message: "Unauthorized"})
	case errors.Is(err, errStoreUnavailable),
		errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests):
		logging.Ctx(r.Context()).Warn().Err(err).Msg("record store unavailable")
		writeJSON(w, http.StatusServiceUnavailable, message{Message: "Service Unavailable"})
	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, message{Message: "Internal Server Error"})
	}
}
