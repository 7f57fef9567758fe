package pdfgen

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator instance. Field names in reported
// errors use the json tag of the field.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
		_ = validate.RegisterValidation("font", func(fl validator.FieldLevel) bool {
			_, ok := LookupFont(fl.Field().String())
			return ok
		})
		validate.RegisterStructValidation(validatePageSize, PageSize{})
	})
	return validate
}

func validatePageSize(sl validator.StructLevel) {
	ps := sl.Current().Interface().(PageSize)
	if ps.IsZero() {
		return
	}
	if ps.Name != "" {
		if _, ok := LookupPaperSize(ps.Name); !ok {
			sl.ReportError(ps.Name, "size", "Name", "papersize", "")
		}
		return
	}
	if ps.Width <= 0 || ps.Height <= 0 {
		sl.ReportError(ps.Width, "size", "Width", "papersize", "")
	}
}

// Validate checks s against its `validate` struct tags and returns a
// *ValidationError describing every failed constraint.
func Validate(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Fields: []FieldError{{Field: "unknown", Tag: "unknown", Message: err.Error()}}}
	}

	fields := make([]FieldError, len(verrs))
	for i, fe := range verrs {
		name := fieldPath(fe)
		fields[i] = FieldError{
			Field:   name,
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Value:   fe.Value(),
			Message: translate(fe, name),
		}
	}
	return &ValidationError{Fields: fields}
}

// fieldPath strips the root struct name from the namespace, so a failure in
// Options.attachments[0].uri is reported as attachments[0].uri. Struct level
// errors on a nested size are collapsed onto the parent field.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		ns = rest
	}
	if fe.Tag() == "papersize" {
		ns = strings.TrimSuffix(ns, "."+fe.Field())
	}
	return ns
}

var messageTemplates = map[string]string{
	"required":  "%s is required",
	"uri":       "%s must be a valid URI",
	"url":       "%s must be a valid URL",
	"email":     "%s must be a valid email address",
	"font":      "%s must be one of the standard PDF font names",
	"papersize": "%s must be a known paper size or a [width, height] pair of positive numbers",
}

var paramTemplates = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
	"gt":    "%s must be greater than %s",
	"lt":    "%s must be less than %s",
	"max":   "%s must be at most %s",
	"min":   "%s must be at least %s",
}

func translate(fe validator.FieldError, field string) string {
	if tmpl, ok := messageTemplates[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, field)
	}
	if tmpl, ok := paramTemplates[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}
