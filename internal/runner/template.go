package runner

import (
	"errors"
	"fmt"
	"os"
	"reflect"
)

// ExpandTemplates expands ${VAR} references in place in the struct pointed to by in.
//
// Only string, *string and []string fields carrying a `template` tag are expanded;
// `template:"-"` opts a field out. Nested structs, *struct, []struct and []*struct
// fields are explored whether tagged or not. Nil pointers and unexported fields are
// left alone.
func ExpandTemplates[T any](in *T, variables map[string]string) error {
	if in == nil {
		return nil
	}
	v := reflect.ValueOf(in).Elem()
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("ExpandTemplates expects *struct; got *%s", v.Type())
	}
	return expandStruct(v, variables)
}

func expandStruct(v reflect.Value, variables map[string]string) error {
	typ := v.Type()
	var errs error
	for i := range typ.NumField() {
		sf := typ.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag, tagged := sf.Tag.Lookup("template")
		expand := tagged && tag != "-"
		errs = errors.Join(errs, expandValue(v.Field(i), expand, variables))
	}
	return errs
}

func expandValue(field reflect.Value, expand bool, variables map[string]string) error {
	switch field.Kind() {
	case reflect.String:
		if !expand {
			return nil
		}
		expanded, err := Expand(field.String(), variables)
		if err != nil {
			return err
		}
		field.SetString(expanded)
		return nil

	case reflect.Ptr:
		if field.IsNil() {
			return nil
		}
		elem := field.Elem()
		if elem.Kind() == reflect.String {
			if !expand {
				return nil
			}
			// replace rather than write through a pointer the caller may share
			expanded, err := Expand(elem.String(), variables)
			if err != nil {
				return err
			}
			ptr := reflect.New(elem.Type())
			ptr.Elem().SetString(expanded)
			field.Set(ptr)
			return nil
		}
		if elem.Kind() == reflect.Struct {
			return expandStruct(elem, variables)
		}
		return nil

	case reflect.Struct:
		return expandStruct(field, variables)

	case reflect.Slice:
		var errs error
		for i := range field.Len() {
			errs = errors.Join(errs, expandValue(field.Index(i), expand, variables))
		}
		return errs

	default:
		return nil
	}
}

// Expand replaces ${VAR} references in the input string using the provided variables map.
// Returns an error if any referenced variable is not in the variables map.
func Expand(value string, variables map[string]string) (string, error) {
	var errs error

	result := os.Expand(value, func(key string) string {
		if val, ok := variables[key]; ok {
			return val
		}
		errs = errors.Join(errs, fmt.Errorf("environment variable %q is not in the allowed list", key))
		return ""
	})

	if errs != nil {
		return "", errs
	}

	return result, nil
}
