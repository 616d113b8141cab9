// Package bind decodes and validates an HTTP request body into a struct.
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/shashiranjanraj/diner/config"
	"github.com/shashiranjanraj/diner/pkg/validate"
)

// TypeMessager lets a request type name the message reported when a JSON
// field has the wrong type, keyed by dotted field path ("items.quantity").
type TypeMessager interface {
	TypeMessages() map[string]string
}

// JSON decodes r.Body into dest and validates it.
// Returns (errs, nil) for field-level failures, including wrong JSON types.
// Returns (nil, err) when the body is malformed or too large.
// An empty body decodes as {} so required rules still report.
func JSON(w http.ResponseWriter, r *http.Request, dest interface{}) (errs map[string]string, err error) {
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxBodyBytes())

	if err = json.NewDecoder(r.Body).Decode(dest); err != nil && !errors.Is(err, io.EOF) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("request body too large (max %d bytes)", maxErr.Limit)
		}

		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return map[string]string{typeErr.Field: typeMessage(dest, typeErr)}, nil
		}
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	errs = validate.Struct(dest)
	if validate.HasErrors(errs) {
		return errs, nil
	}
	return nil, nil
}

func typeMessage(dest interface{}, e *json.UnmarshalTypeError) string {
	if m, ok := dest.(TypeMessager); ok {
		if msg, ok := m.TypeMessages()[e.Field]; ok {
			return msg
		}
	}
	return fmt.Sprintf("The %s field must be of type %s.", e.Field, e.Type.String())
}
