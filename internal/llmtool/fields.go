package llmtool

import (
	"fmt"
	"reflect"
	"strings"
)

// FieldsFromStruct builds prompt fields from a struct's json and
// prompt_desc tags. A prompt:"optional" tag marks a field optional; every
// other field is required.
func FieldsFromStruct(v any) ([]PromptField, error) {
	if v == nil {
		return nil, fmt.Errorf("llmtool: struct is nil")
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("llmtool: expected struct, got %s", t.Kind())
	}
	fields := make([]PromptField, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := strings.Split(f.Tag.Get("json"), ",")[0]
		if name == "-" || f.Tag.Get("prompt") == "-" {
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		fields = append(fields, PromptField{
			Name:        name,
			Type:        typeString(f.Type),
			Required:    f.Tag.Get("prompt") != "optional",
			Description: strings.TrimSpace(f.Tag.Get("prompt_desc")),
		})
	}
	return fields, nil
}

// MustFieldsFromStruct panics on error; useful for prompt spec literals.
func MustFieldsFromStruct(v any) []PromptField {
	fields, err := FieldsFromStruct(v)
	if err != nil {
		panic(err)
	}
	return fields
}

func typeString(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "bool"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "int"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "[]" + typeString(t.Elem())
	case reflect.Map:
		return "object"
	case reflect.Struct:
		return "object"
	default:
		return "any"
	}
}
