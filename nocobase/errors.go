package nocobase

import (
	"fmt"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/lvillar/pdfgen"
)

// APIError is a failed NocoBase action: a non-2xx response or a response
// whose body lists errors.
type APIError struct {
	Action     string
	StatusCode int
	Messages   []string
}

func newAPIError(action string, status int, body []byte) *APIError {
	e := &APIError{Action: action, StatusCode: status}
	var env envelope
	if json.Unmarshal(body, &env) == nil {
		for _, m := range env.Errors {
			e.Messages = append(e.Messages, m.Message)
		}
	}
	if len(e.Messages) == 0 {
		if text := strings.TrimSpace(string(body)); text != "" && len(text) < 512 {
			e.Messages = []string{text}
		}
	}
	return e
}

// Message returns the messages reported by the store, or the status text.
func (e *APIError) Message() string {
	if len(e.Messages) > 0 {
		return strings.Join(e.Messages, ", ")
	}
	return http.StatusText(e.StatusCode)
}

func (e *APIError) Error() string {
	return fmt.Sprintf("nocobase: %s: %d %s", e.Action, e.StatusCode, e.Message())
}

// Unwrap maps well-known statuses onto the shared sentinels.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return pdfgen.ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return pdfgen.ErrUnauthorized
	}
	return nil
}
