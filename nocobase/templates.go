package nocobase

import (
	"context"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/lvillar/pdfgen"
	"github.com/lvillar/pdfgen/form"
)

// Collections of the template directory.
const (
	TemplatesCollection = "templates"
	UsersCollection     = "users"
)

// TemplateField binds a form field of a template to a column of the data
// table it is filled from.
type TemplateField struct {
	Field     form.FieldSpec `json:"field" validate:"required"`
	DataField string         `json:"dataField" validate:"required"`
}

// Template is a tagged PDF stored in the template directory together with
// the fields to fill and the table that supplies their values.
type Template struct {
	ID          any             `json:"id,omitempty"`
	FormName    string          `json:"formName,omitempty" validate:"max=255"`
	TableName   string          `json:"tableName" validate:"required"`
	NocobaseApp string          `json:"nocobaseApp,omitempty"`
	FormFields  []TemplateField `json:"formFields" validate:"required,min=1,dive"`
}

// UnmarshalJSON accepts both the snake_case column names used by the store
// and camelCase ones.
func (t *Template) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID          any               `json:"id"`
		FormName    string            `json:"formName"`
		FormName2   string            `json:"form_name"`
		TableName   string            `json:"tableName"`
		TableName2  string            `json:"table_name"`
		App         string            `json:"nocobaseApp"`
		App2        string            `json:"nocobase_app"`
		FormFields  []json.RawMessage `json:"formFields"`
		FormFields2 []json.RawMessage `json:"form_fields"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*t = Template{
		ID:          raw.ID,
		FormName:    first(raw.FormName, raw.FormName2),
		TableName:   first(raw.TableName, raw.TableName2),
		NocobaseApp: first(raw.App, raw.App2),
	}
	fields := raw.FormFields
	if len(fields) == 0 {
		fields = raw.FormFields2
	}
	for _, f := range fields {
		var tf struct {
			Field      form.FieldSpec `json:"field"`
			DataField  string         `json:"dataField"`
			DataField2 string         `json:"data_field"`
		}
		if err := json.Unmarshal(f, &tf); err != nil {
			return fmt.Errorf("template field: %w", err)
		}
		t.FormFields = append(t.FormFields, TemplateField{Field: tf.Field, DataField: first(tf.DataField, tf.DataField2)})
	}
	return nil
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Specs returns the form fields to tag.
func (t *Template) Specs() []form.FieldSpec {
	specs := make([]form.FieldSpec, len(t.FormFields))
	for i, f := range t.FormFields {
		specs[i] = f.Field
	}
	return specs
}

// Values maps the form fields of t to the columns of rec. Columns absent
// from rec are skipped; null becomes an empty string.
func (t *Template) Values(rec Record) map[string]string {
	values := make(map[string]string, len(t.FormFields))
	for _, f := range t.FormFields {
		v, ok := rec[f.DataField]
		if !ok {
			continue
		}
		values[f.Field.Name] = formatValue(v)
	}
	return values
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64, json.Number:
		return idKey(x)
	case bool:
		if x {
			return "true"
		}
		return "false"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// record returns the column values stored for t.
func (t *Template) record() Record {
	fields := make([]map[string]any, len(t.FormFields))
	for i, f := range t.FormFields {
		fields[i] = map[string]any{"field": f.Field, "data_field": f.DataField}
	}
	return Record{
		"id":           t.ID,
		"form_name":    t.FormName,
		"form_fields":  fields,
		"nocobase_app": t.NocobaseApp,
		"table_name":   t.TableName,
	}
}

// Templates lists the templates of an application. An empty app lists
// every template.
func (c *Client) Templates(ctx context.Context, app string) ([]Template, error) {
	var filter Filter
	if app != "" {
		filter = Filter{"nocobase_app": app}
	}
	recs, err := c.List(ctx, TemplatesCollection, filter)
	if err != nil {
		return nil, err
	}
	out := make([]Template, 0, len(recs))
	for _, r := range recs {
		t, err := decodeTemplate(r)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, nil
}

// Template fetches a template by id.
func (c *Client) Template(ctx context.Context, id any) (*Template, error) {
	rec, err := c.Get(ctx, TemplatesCollection, id)
	if err != nil {
		return nil, err
	}
	return decodeTemplate(rec)
}

func decodeTemplate(r Record) (*Template, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("nocobase: template: %w", err)
	}
	var t Template
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, fmt.Errorf("nocobase: template %s: %w", r.ID(), err)
	}
	return &t, nil
}

// SaveTemplate uploads the tagged PDF and stores the template details on
// the created file record. It returns the template with its new id.
func (c *Client) SaveTemplate(ctx context.Context, t Template, pdf []byte) (*Template, error) {
	if err := pdfgen.Validate(&t); err != nil {
		return nil, err
	}
	name := pdfgen.SanitizeFilename(strings.TrimSuffix(t.FormName, ".pdf"), "template") + ".pdf"
	file, err := c.Upload(ctx, TemplatesCollection, name, pdf)
	if err != nil {
		return nil, err
	}
	if file.ID() == "" {
		return nil, fmt.Errorf("nocobase: uploaded template has no id")
	}
	t.ID = file["id"]
	if _, err := c.Upsert(ctx, TemplatesCollection, []Record{t.record()}); err != nil {
		return nil, err
	}
	return &t, nil
}

// User is an account of the template directory together with the record
// store it owns.
type User struct {
	ID       any    `json:"id"`
	Nickname string `json:"nickname,omitempty"`
	Token    string `json:"nocobase_token"`
	App      string `json:"nocobase_app"`
	URL      string `json:"nocobase_url"`
	Host     string `json:"nocobase_host"`
}

// Credentials returns the credentials of the user's record store. When the
// user has no host of its own, fallbackHost is used.
func (u *User) Credentials(fallbackHost string) Credentials {
	return Credentials{Token: u.Token, App: u.App, Host: first(u.Host, fallbackHost)}
}

// User fetches a user of the template directory.
func (c *Client) User(ctx context.Context, id any) (*User, error) {
	rec, err := c.Get(ctx, UsersCollection, id)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("nocobase: user: %w", err)
	}
	var u User
	if err := json.Unmarshal(b, &u); err != nil {
		return nil, fmt.Errorf("nocobase: user %s: %w", rec.ID(), err)
	}
	return &u, nil
}
