package binder

import (
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
)

// Path fills fields tagged `path:"name"` using extractor, typically chi.URLParam.
// Values are unescaped, so an encoded slash in a key survives routing.
// Supported field kinds are string, signed and unsigned integers and bool.
func Path(extractor func(r *http.Request, name string) string) func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if extractor == nil {
			return fmt.Errorf("%w: extractor is nil", ErrInvalidPath)
		}

		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
			return fmt.Errorf("%w: target must be a pointer to struct", ErrInvalidPath)
		}
		rv = rv.Elem()
		rt := rv.Type()

		for i := range rv.NumField() {
			field, sf := rv.Field(i), rt.Field(i)
			if !field.CanSet() {
				continue
			}
			name, ok := tagName(sf, "path")
			if !ok {
				continue
			}

			raw := extractor(r, name)
			if raw == "" {
				continue
			}
			value, err := url.PathUnescape(raw)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ErrInvalidPath, name, err)
			}
			if err := setValue(field, value); err != nil {
				return fmt.Errorf("%w: %s: %v", ErrInvalidPath, name, err)
			}
		}
		return nil
	}
}

// tagName returns the parameter name of a tagged field. Untagged and "-" fields are skipped.
func tagName(sf reflect.StructField, tag string) (string, bool) {
	name, _, _ := strings.Cut(sf.Tag.Get(tag), ",")
	if name == "" || name == "-" {
		return "", false
	}
	return name, true
}

func setValue(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid int %q", value)
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(value, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid uint %q", value)
		}
		field.SetUint(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid bool %q", value)
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("unsupported kind %s", field.Kind())
	}
	return nil
}
