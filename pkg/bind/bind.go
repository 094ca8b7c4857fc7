// Package bind decodes and validates HTTP request input into a struct.
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DefaultMaxBodyBytes caps JSON bodies when no limit is given.
const DefaultMaxBodyBytes int64 = 4 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// JSON decodes r.Body as JSON into dest (capped at maxBytes) and validates it.
// Returns (errs, nil) when there are validation failures and (nil, err) when
// the body is malformed or too large.
func JSON(w http.ResponseWriter, r *http.Request, dest interface{}, maxBytes int64) (map[string]string, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("request body too large (max %d bytes)", maxErr.Limit)
		}
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	return Struct(dest), nil
}

// Struct validates v's `validate` tags. A nil map means v is valid.
func Struct(v interface{}) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}

	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = message(fe)
	}
	return out
}

// HasErrors reports whether errs holds any failure.
func HasErrors(errs map[string]string) bool { return len(errs) > 0 }

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", fe.Field())
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", fe.Field())
	case "gt", "gte", "min":
		return fmt.Sprintf("The %s must be at least %s.", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("The %s field is invalid.", fe.Field())
	}
}
