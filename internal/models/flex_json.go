package models

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// fieldMapCache caches JSON tag -> struct field index mappings per type
var fieldMapCache sync.Map

func getFieldMap(t reflect.Type) map[string]int {
	if cached, ok := fieldMapCache.Load(t); ok {
		return cached.(map[string]int)
	}
	m := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("json")
		if tag == "" || tag == "-" {
			continue
		}
		name := strings.Split(tag, ",")[0]
		m[name] = i
	}
	fieldMapCache.Store(t, m)
	return m
}

// UnmarshalJSON accepts both native JSON numbers and string-encoded numbers.
// Dashboard forms post every input value as a string ("1" rather than 1).
func (in *PredictionInput) UnmarshalJSON(data []byte) error {
	// Alias prevents infinite recursion
	type Alias PredictionInput
	a := (*Alias)(in)

	// Fast path: try standard unmarshal (works when all types match natively)
	if err := json.Unmarshal(data, a); err == nil {
		return nil
	}
	return flexUnmarshal(data, reflect.ValueOf(a).Elem())
}

// flexUnmarshal decodes field by field, coercing strings to native types.
func flexUnmarshal(data []byte, v reflect.Value) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("flex unmarshal: %w", err)
	}

	fieldMap := getFieldMap(v.Type())
	for key, rawVal := range raw {
		idx, ok := fieldMap[key]
		if !ok {
			continue
		}

		fv := v.Field(idx)
		if !fv.CanSet() {
			continue
		}

		// Try direct unmarshal first
		ptr := reflect.New(fv.Type())
		if err := json.Unmarshal(rawVal, ptr.Interface()); err == nil {
			fv.Set(ptr.Elem())
			continue
		}

		// Value is a JSON string but target is numeric/bool, coerce
		if len(rawVal) > 1 && rawVal[0] == '"' {
			var s string
			if err := json.Unmarshal(rawVal, &s); err != nil {
				continue
			}
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			if err := coerceStringToField(fv, s); err != nil {
				return fmt.Errorf("flex unmarshal %s: %w", key, err)
			}
			continue
		}
		return fmt.Errorf("flex unmarshal %s: unsupported value %s", key, string(rawVal))
	}

	return nil
}

// coerceStringToField converts a string value to the field's native type.
// Pointer fields are allocated.
func coerceStringToField(fv reflect.Value, s string) error {
	if fv.Kind() == reflect.Ptr {
		elem := reflect.New(fv.Type().Elem())
		if err := coerceStringToField(elem.Elem(), s); err != nil {
			return err
		}
		fv.Set(elem)
		return nil
	}

	switch fv.Kind() {
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		fv.SetFloat(n)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// Goal counts are whole numbers; reject "1.5" instead of truncating.
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return err
		}
		fv.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		fv.SetBool(b)
	case reflect.String:
		fv.SetString(s)
	default:
		return fmt.Errorf("cannot coerce string into %s", fv.Kind())
	}
	return nil
}
