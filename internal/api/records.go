package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/lvillar/pdfgen"
	"github.com/lvillar/pdfgen/nocobase"
)

// recordBody carries the optional parameters of the record endpoints. The
// query string takes precedence over it.
type recordBody struct {
	App        string `json:"app"`
	TemplateID string `json:"templateId"`
	CustomerID string `json:"customerId"`
}

func decodeRecordBody(w http.ResponseWriter, r *http.Request, limit int64) (*recordBody, error) {
	body, err := readBody(w, r, limit)
	if err != nil {
		return nil, err
	}
	var rb recordBody
	if len(bytes.TrimSpace(body)) == 0 {
		return &rb, nil
	}
	if err := json.Unmarshal(body, &rb); err != nil {
		return nil, pdfgen.NewInvalidInput("Invalid JSON body", err)
	}
	return &rb, nil
}

// recordParams returns the templateId and customerId of r, both required.
func recordParams(r *http.Request, rb *recordBody) (templateID, customerID string, err error) {
	q := r.URL.Query()
	templateID, customerID = q.Get("templateId"), q.Get("customerId")
	if rb != nil {
		templateID = firstNonEmpty(templateID, rb.TemplateID)
		customerID = firstNonEmpty(customerID, rb.CustomerID)
	}
	var fields []pdfgen.FieldError
	if templateID == "" {
		fields = append(fields, pdfgen.FieldError{Field: "templateId", Tag: "required", Message: "templateId is required"})
	}
	if customerID == "" {
		fields = append(fields, pdfgen.FieldError{Field: "customerId", Tag: "required", Message: "customerId is required"})
	}
	if len(fields) > 0 {
		return "", "", &pdfgen.ValidationError{Fields: fields}
	}
	return templateID, customerID, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (s *Server) directory() (*nocobase.Client, error) {
	if s.deps.Directory == nil {
		return nil, errStoreUnavailable
	}
	return s.deps.Directory, nil
}

// templateStore returns the directory client, or a pooled client for the
// directory URL when the request brings its own credentials.
func (s *Server) templateStore(cred *nocobase.Credentials) (*nocobase.Client, error) {
	dir, err := s.directory()
	if err != nil || cred == nil {
		return dir, err
	}
	c := *cred
	if c.Host == "" {
		c.Host = hostOf(dir.BaseURL())
	}
	return s.deps.Stores.Client(dir.BaseURL(), c)
}

// userStore returns a client for the record store of a directory user.
// Users without a store URL of their own share the default store.
func (s *Server) userStore(ctx context.Context, userID string) (*nocobase.Client, error) {
	dir, err := s.directory()
	if err != nil {
		return nil, err
	}
	u, err := dir.User(ctx, userID)
	if err != nil {
		return nil, err
	}
	url := firstNonEmpty(u.URL, s.cfg.NocoBase.Default.URL)
	if url == "" {
		return nil, errStoreUnavailable
	}
	return s.deps.Stores.Client(url, u.Credentials(hostOf(url)))
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	rb, err := decodeRecordBody(w, r, s.cfg.Server.BodyLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	dir, err := s.directory()
	if err != nil {
		writeError(w, r, err)
		return
	}
	app := firstNonEmpty(r.URL.Query().Get("app"), rb.App, s.cfg.NocoBase.Default.App)
	templates, err := dir.Templates(r.Context(), app)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	rb, err := decodeRecordBody(w, r, s.cfg.Server.BodyLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	store := s.deps.Default
	if id := firstNonEmpty(r.URL.Query().Get("customerId"), rb.CustomerID); id != "" {
		if store, err = s.userStore(r.Context(), id); err != nil {
			writeError(w, r, err)
			return
		}
	}
	if store == nil {
		writeError(w, r, errStoreUnavailable)
		return
	}
	collections, err := store.Collections(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, collections)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	rb, err := decodeRecordBody(w, r, s.cfg.Server.BodyLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	templateID, customerID, err := recordParams(r, rb)
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
	records, err := store.List(ctx, tmpl.TableName, nil)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

type loginRequest struct {
	Account  string `json:"account"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message  string `json:"message"`
	ID       any    `json:"id"`
	Nickname string `json:"nickname"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r, s.cfg.Server.BodyLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req loginRequest
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, r, pdfgen.NewInvalidInput("Invalid JSON body", err))
			return
		}
	}
	account := firstNonEmpty(req.Account, req.Email, req.Username)
	if account == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, message{Message: "Missing credentials"})
		return
	}
	dir, err := s.directory()
	if err != nil {
		writeError(w, r, err)
		return
	}
	sess, err := dir.SignIn(r.Context(), account, req.Password)
	if errors.Is(err, pdfgen.ErrUnauthorized) {
		writeJSON(w, http.StatusUnauthorized, message{Message: "Invalid credentials"})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Message:  "Login successful",
		ID:       sess.User.ID,
		Nickname: sess.User.Nickname,
	})
}
