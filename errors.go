package pdfgen

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared by the conversion pipeline, the PDF reader and the
// record-store client.
var (
	ErrNoData         = errors.New("pdfgen: no JSON to parse")
	ErrIncompleteJSON = errors.New("pdfgen: incomplete JSON")
	ErrNotFound       = errors.New("pdfgen: not found")
	ErrUnauthorized   = errors.New("pdfgen: unauthorized")
	ErrUnsupported    = errors.New("pdfgen: unsupported operation")
	ErrEncrypted      = errors.New("pdfgen: document is encrypted")
	ErrCorrupted      = errors.New("pdfgen: document is corrupted")
	ErrNoFields       = errors.New("pdfgen: no matching form fields")
)

// Error represents a failure during a named operation. It wraps an
// underlying error and includes the operation name for context.
type Error struct {
	Op  string // operation name, e.g. "Convert", "Fill"
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pdfgen.%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("pdfgen.%s: unknown error", e.Op)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap annotates err with an operation name. It returns nil for a nil err.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// InvalidInputError reports a request whose data cannot be tabulated.
// Message is safe to return to the caller verbatim.
type InvalidInputError struct {
	Message string
	Err     error
}

func (e *InvalidInputError) Error() string {
	return e.Message
}

func (e *InvalidInputError) Unwrap() error {
	return e.Err
}

// NewInvalidInput builds an InvalidInputError from one of the sentinel errors.
func NewInvalidInput(message string, err error) *InvalidInputError {
	return &InvalidInputError{Message: message, Err: err}
}

// FieldError describes a single failed constraint.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Param   string `json:"param,omitempty"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message"`
}

// ValidationError is returned when request options fail schema constraints.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// HasField reports whether the named field failed validation.
func (e *ValidationError) HasField(name string) bool {
	for _, f := range e.Fields {
		if f.Field == name {
			return true
		}
	}
	return false
}

// AssetFetchError reports a remote asset that could not be retrieved or
// decoded. It is recovered in place by the document renderer.
type AssetFetchError struct {
	Kind string // "logo" or "attachment"
	URI  string
	Err  error
}

func (e *AssetFetchError) Error() string {
	kind := e.Kind
	if kind == "" {
		kind = "asset"
	}
	return fmt.Sprintf("fetching %s %q: %v", kind, e.URI, e.Err)
}

func (e *AssetFetchError) Unwrap() error {
	return e.Err
}
