// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// Both the host Config (loader.go) and the database settings variants
// (settings.go) are validated immediately after unmarshal.  Any failure
// aborts startup, so the binary never runs with partial or missing
// configuration.
//
// Validation failures are reported as *ValidationError, which names every
// offending field the way an operator would set it (an env var name for
// database settings, a dotted koanf key for the host Config).
//
// Notes
// -----
//   - Field names come from the `koanf` tag, not the Go field name.
//   - Oxford commas, two spaces after periods.
package config

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

//
// validator instance (package-level singleton)
//

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("koanf"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return val
}

//
// public API
//

// ValidationError lists the fields that failed validation.
type ValidationError struct {
	Fields []string
	Err    error
}

func (e *ValidationError) Error() string {
	return "config: missing or invalid field(s): " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Unwrap() error { return e.Err }

// validateStruct validates s and converts validator errors into a
// *ValidationError.  name maps a dotted koanf path to the name reported.
func validateStruct(s any, name func(string) string) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		// Namespace is "<Type>.<key>[.<key>]"; drop the type name.
		ns := fe.Namespace()
		if i := strings.IndexByte(ns, '.'); i != -1 {
			ns = ns[i+1:]
		}
		fields = append(fields, name(ns))
	}
	return &ValidationError{Fields: fields, Err: err}
}
