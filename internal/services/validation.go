package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"car-journal-backend/internal/apperr"

	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator that reports fields by their JSON names
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateInput runs struct validation and turns failures into a BadRequest
func validateInput(v *validator.Validate, input any) error {
	err := v.Struct(input)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate input: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return apperr.BadRequest("invalid input: %s", strings.Join(msgs, "; "))
}

// patchFields maps the JSON names of t's top-level fields to whether the
// field accepts null (pointers, slices and maps).
func patchFields(t reflect.Type) map[string]bool {
	if t.Kind() != reflect.Struct {
		return nil
	}
	fields := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		switch f.Type.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
			fields[name] = true
		default:
			fields[name] = false
		}
	}
	return fields
}

// applyPatch decodes a JSON object of fields onto a copy of current.
// Keys must match a field's JSON name exactly, so read-only fields can never
// be patched, and null is only accepted by fields that can hold it.
func applyPatch[T any](current T, patch []byte) (T, error) {
	var merged T

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(patch, &fields); err != nil || fields == nil {
		return merged, apperr.BadRequest("patch must be a JSON object")
	}
	if len(fields) == 0 {
		return merged, apperr.BadRequest("patch is empty")
	}

	if known := patchFields(reflect.TypeOf(merged)); known != nil {
		for key, value := range fields {
			nullable, ok := known[key]
			if !ok {
				return merged, apperr.BadRequest("invalid patch: unknown field %q", key)
			}
			if !nullable && bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
				return merged, apperr.BadRequest("invalid patch: %s cannot be null", key)
			}
		}
	}

	// Round-trip through JSON so the patch never writes into current's slices.
	base, err := json.Marshal(current)
	if err != nil {
		return merged, fmt.Errorf("failed to encode current value: %w", err)
	}
	if err := json.Unmarshal(base, &merged); err != nil {
		return merged, fmt.Errorf("failed to copy current value: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(patch))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&merged); err != nil {
		return merged, apperr.BadRequest("invalid patch: %v", err)
	}
	return merged, nil
}
