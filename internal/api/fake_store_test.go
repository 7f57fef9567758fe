package api_test

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	json "github.com/goccy/go-json"
)

// fakeStore is an in-memory NocoBase instance playing both the template
// directory (token "dir-token") and a user's record store ("user-token").
type fakeStore struct {
	mu      sync.Mutex
	t       *testing.T
	nextID  int
	tables  map[string][]map[string]any
	uploads []string
}

func newFakeStore(t *testing.T) (*fakeStore, *httptest.Server) {
	s := &fakeStore{t: t, nextID: 100, tables: map[string][]map[string]any{}}
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return s, srv
}

func (s *fakeStore) add(table string, rec map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table] = append(s.tables[table], rec)
}

func (s *fakeStore) rows(table string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.tables[table]...)
}

func reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func replyError(w http.ResponseWriter, status int, msg string) {
	reply(w, status, map[string]any{"errors": []map[string]string{{"message": msg}}})
}

func (s *fakeStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	action := strings.TrimPrefix(r.URL.Path, "/api/")

	if action == "auth:signIn" {
		var body struct{ Account, Password string }
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Account != "ada@example.com" || body.Password != "hunter2" {
			replyError(w, http.StatusUnauthorized, "The username or password is incorrect")
			return
		}
		reply(w, http.StatusOK, map[string]any{"data": map[string]any{
			"token": "jwt",
			"user":  map[string]any{"id": 7, "nickname": "Ada"},
		}})
		return
	}

	switch r.Header.Get("Authorization") {
	case "Bearer dir-token", "Bearer user-token":
	default:
		replyError(w, http.StatusUnauthorized, "Your session has expired")
		return
	}

	table, verb, _ := strings.Cut(action, ":")
	switch {
	case action == "collections:list":
		reply(w, http.StatusOK, map[string]any{"data": []map[string]any{
			{"name": "customers", "title": "Customers"},
		}})
	case verb == "list":
		var out []map[string]any
		for _, rec := range s.tables[table] {
			if matches(rec, s.filter(r)) {
				out = append(out, rec)
			}
		}
		reply(w, http.StatusOK, map[string]any{
			"data": out,
			"meta": map[string]any{"count": len(out), "page": 1, "pageSize": 100, "totalPage": 1},
		})
	case verb == "get":
		for _, rec := range s.tables[table] {
			if matches(rec, s.filter(r)) {
				reply(w, http.StatusOK, map[string]any{"data": rec})
				return
			}
		}
		reply(w, http.StatusOK, map[string]any{"data": nil})
	case verb == "create":
		s.create(w, r, table)
	case verb == "destroy":
		f := s.filter(r)
		var kept []map[string]any
		for _, rec := range s.tables[table] {
			if !matches(rec, f) {
				kept = append(kept, rec)
			}
		}
		s.tables[table] = kept
		reply(w, http.StatusOK, map[string]any{"data": nil})
	default:
		replyError(w, http.StatusNotFound, "Not Found")
	}
}

func (s *fakeStore) create(w http.ResponseWriter, r *http.Request, table string) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, header, err := r.FormFile("file")
		if err != nil {
			replyError(w, http.StatusBadRequest, err.Error())
			return
		}
		data, _ := io.ReadAll(file)
		s.uploads = append(s.uploads, header.Filename+":"+string(data[:min(len(data), 5)]))
		s.nextID++
		rec := map[string]any{"id": float64(s.nextID), "filename": header.Filename}
		s.tables[table] = append(s.tables[table], rec)
		reply(w, http.StatusOK, map[string]any{"data": rec})
		return
	}
	var recs []map[string]any
	if err := json.NewDecoder(r.Body).Decode(&recs); err != nil {
		replyError(w, http.StatusBadRequest, err.Error())
		return
	}
	for _, rec := range recs {
		if rec["id"] == nil {
			s.nextID++
			rec["id"] = float64(s.nextID)
		}
		s.tables[table] = append(s.tables[table], rec)
	}
	reply(w, http.StatusOK, map[string]any{"data": recs})
}

func (s *fakeStore) filter(r *http.Request) map[string]any {
	var f map[string]any
	if raw := r.URL.Query().Get("filter"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &f); err != nil {
			s.t.Errorf("bad filter %q: %v", raw, err)
		}
	}
	return f
}

// matches compares ids loosely, so "7" finds a record stored with 7.
func matches(rec, filter map[string]any) bool {
	same := func(a, b any) bool { return fmt.Sprint(a) == fmt.Sprint(b) }
	for k, want := range filter {
		if cond, ok := want.(map[string]any); ok {
			in, _ := cond["$in"].([]any)
			found := false
			for _, v := range in {
				if same(v, rec[k]) {
					found = true
				}
			}
			if !found {
				return false
			}
			continue
		}
		if !same(rec[k], want) {
			return false
		}
	}
	return true
}

func idString(v any) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
