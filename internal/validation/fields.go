package validation

import (
	"errors"
	"maps"
	"slices"
	"strings"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"
)

// FieldErrors maps a form field to the messages shown next to it.
type FieldErrors map[string][]string

// Add appends msg to field.
func (f FieldErrors) Add(field, msg string) {
	f[field] = append(f[field], msg)
}

// Empty reports whether no field has a message.
func (f FieldErrors) Empty() bool {
	return len(f) == 0
}

func (f FieldErrors) Error() string {
	keys := slices.Sorted(maps.Keys(f))
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+": "+strings.Join(f[key], ", "))
	}
	return strings.Join(parts, "; ")
}

// Err returns f as an error, or nil when empty.
func (f FieldErrors) Err() error {
	if f.Empty() {
		return nil
	}
	return f
}

// FromOzzo converts ozzo-validation errors into FieldErrors. Errors that are
// not field keyed are returned unchanged.
func FromOzzo(err error) error {
	if err == nil {
		return nil
	}
	var errs ozzo.Errors
	if !errors.As(err, &errs) {
		return err
	}
	out := FieldErrors{}
	for field, fieldErr := range errs {
		if fieldErr == nil {
			continue
		}
		var nested ozzo.Errors
		if errors.As(fieldErr, &nested) {
			for key, inner := range nested {
				if inner != nil {
					out.Add(field+"."+key, inner.Error())
				}
			}
			continue
		}
		out.Add(field, fieldErr.Error())
	}
	return out.Err()
}

// AsFieldErrors unwraps FieldErrors from err.
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fields FieldErrors
	if errors.As(err, &fields) {
		return fields, true
	}
	return nil, false
}
