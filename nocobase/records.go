package nocobase

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"dario.cat/mergo"
	json "github.com/goccy/go-json"

	"github.com/lvillar/pdfgen"
)

// maxPages stops List from following a store that never reports its last
// page.
const maxPages = 10000

// Record is a single row of a collection.
type Record map[string]any

// ID returns the record id in a comparable form, or "" when it has none.
func (r Record) ID() string {
	return idKey(r["id"])
}

func idKey(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case json.Number:
		return id.String()
	}
	return fmt.Sprint(v)
}

// Filter is a NocoBase filter expression such as
// {"nocobase_app": "crm"} or {"id": {"$in": [1, 2]}}.
type Filter map[string]any

// Collection describes a table of the store.
type Collection struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

// List returns every record of collection that matches filter, following
// the pages reported by the store. A nil filter matches everything.
func (c *Client) List(ctx context.Context, collection string, filter Filter) ([]Record, error) {
	records := []Record{}
	for page := 1; page <= maxPages; page++ {
		q, err := filterQuery(filter)
		if err != nil {
			return nil, err
		}
		q.Set("page", strconv.Itoa(page))
		env, err := c.do(ctx, request{method: http.MethodGet, action: collection + ":list", query: q})
		if err != nil {
			return nil, err
		}
		var batch []Record
		if err := decodeData(env, &batch); err != nil {
			return nil, fmt.Errorf("nocobase: %s:list: %w", collection, err)
		}
		records = append(records, batch...)
		if env.Meta == nil || env.Meta.TotalPage <= page {
			break
		}
	}
	return records, nil
}

// Get returns the record of collection with the given id. A missing
// record is reported as pdfgen.ErrNotFound.
func (c *Client) Get(ctx context.Context, collection string, id any) (Record, error) {
	if idKey(id) == "" {
		return nil, &pdfgen.ValidationError{Fields: []pdfgen.FieldError{{
			Field: "id", Tag: "required", Message: "id is required",
		}}}
	}
	q, err := filterQuery(Filter{"id": id})
	if err != nil {
		return nil, err
	}
	env, err := c.do(ctx, request{method: http.MethodGet, action: collection + ":get", query: q})
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := decodeData(env, &rec); err != nil {
		return nil, fmt.Errorf("nocobase: %s:get: %w", collection, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("nocobase: %s %v: %w", collection, id, pdfgen.ErrNotFound)
	}
	return rec, nil
}

// Create inserts records and returns them as stored.
func (c *Client) Create(ctx context.Context, collection string, records []Record) ([]Record, error) {
	if len(records) == 0 {
		return nil, nil
	}
	body, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("nocobase: encoding records: %w", err)
	}
	env, err := c.do(ctx, request{
		method:      http.MethodPost,
		action:      collection + ":create",
		body:        body,
		contentType: "application/json",
	})
	if err != nil {
		return nil, err
	}
	return decodeRecords(env)
}

// Destroy deletes the records with the given ids.
func (c *Client) Destroy(ctx context.Context, collection string, ids []any) error {
	if len(ids) == 0 {
		return nil
	}
	q, err := filterQuery(Filter{"id": map[string]any{"$in": ids}})
	if err != nil {
		return err
	}
	_, err = c.do(ctx, request{
		method:      http.MethodPost,
		action:      collection + ":destroy",
		query:       q,
		contentType: "application/json",
	})
	return err
}

// UpsertResult counts the records written by Upsert.
type UpsertResult struct {
	Updated int `json:"updated"`
	Created int `json:"created"`
}

// Upsert writes records into collection. Records whose id already exists
// are merged over the stored record, which is then replaced; the rest are
// created.
func (c *Client) Upsert(ctx context.Context, collection string, records []Record) (UpsertResult, error) {
	var res UpsertResult
	existing, err := c.List(ctx, collection, nil)
	if err != nil {
		return res, err
	}
	stored := make(map[string]Record, len(existing))
	for _, r := range existing {
		if id := r.ID(); id != "" {
			stored[id] = r
		}
	}

	var updates, creates []Record
	var ids []any
	for _, r := range records {
		old, ok := stored[r.ID()]
		if !ok || r.ID() == "" {
			creates = append(creates, r)
			continue
		}
		merged := Record{}
		if err := mergo.Merge(&merged, old); err != nil {
			return res, fmt.Errorf("nocobase: merging record %s: %w", r.ID(), err)
		}
		if err := mergo.Merge(&merged, r, mergo.WithOverride); err != nil {
			return res, fmt.Errorf("nocobase: merging record %s: %w", r.ID(), err)
		}
		updates = append(updates, merged)
		ids = append(ids, old["id"])
	}

	if len(updates) > 0 {
		if err := c.Destroy(ctx, collection, ids); err != nil {
			return res, err
		}
		written, err := c.Create(ctx, collection, updates)
		if err != nil {
			return res, err
		}
		res.Updated = len(written)
	}
	if len(creates) > 0 {
		written, err := c.Create(ctx, collection, creates)
		if err != nil {
			return res, err
		}
		res.Created = len(written)
	}
	return res, nil
}

// Upload stores a file in collection as the multipart field "file" and
// returns the created record.
func (c *Client) Upload(ctx context.Context, collection, filename string, data []byte) (Record, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("nocobase: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("nocobase: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("nocobase: %w", err)
	}

	env, err := c.do(ctx, request{
		method:      http.MethodPost,
		action:      collection + ":create",
		body:        body.Bytes(),
		contentType: mw.FormDataContentType(),
	})
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := decodeData(env, &rec); err != nil {
		return nil, fmt.Errorf("nocobase: %s:create: %w", collection, err)
	}
	return rec, nil
}

// Collections lists the tables of the store.
func (c *Client) Collections(ctx context.Context) ([]Collection, error) {
	env, err := c.do(ctx, request{method: http.MethodGet, action: "collections:list"})
	if err != nil {
		return nil, err
	}
	out := []Collection{}
	if err := decodeData(env, &out); err != nil {
		return nil, fmt.Errorf("nocobase: collections:list: %w", err)
	}
	return out, nil
}

func decodeData(env *envelope, v any) error {
	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	return json.Unmarshal(data, v)
}

// decodeRecords accepts both a single created record and a list.
func decodeRecords(env *envelope) ([]Record, error) {
	data := bytes.TrimSpace(env.Data)
	if len(data) > 0 && data[0] == '{' {
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, err
		}
		return []Record{rec}, nil
	}
	var out []Record
	if err := decodeData(env, &out); err != nil {
		return nil, err
	}
	return out, nil
}
