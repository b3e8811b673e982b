package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// MarshalNoEscape encodes v into JSON without escaping <, > and & into unicode escapes.
func MarshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	// Remove trailing newline from json.Encoder.Encode
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// MarshalNoEscapeIndent encodes v with two-space indentation, no HTML
// escaping and a trailing newline.
func MarshalNoEscapeIndent(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var objectRe = regexp.MustCompile(`\{[\s\S]*\}`)

// ErrNoObject is returned when a model reply contains no {...} span.
var ErrNoObject = errors.New("no JSON object in text")

// ExtractObject returns the widest {...} span of text. Model replies often
// wrap JSON in prose or code fences.
func ExtractObject(text string) (string, error) {
	m := objectRe.FindString(text)
	if m == "" {
		return "", ErrNoObject
	}
	return m, nil
}

// DecodeObject extracts and decodes the JSON object embedded in text.
func DecodeObject(text string) (map[string]any, error) {
	raw, err := ExtractObject(text)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := UnmarshalFlex([]byte(raw), &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, ErrNoObject
	}
	return out, nil
}

// UnescapeUnicodeString converts leftover JSON unicode escapes into actual characters.
func UnescapeUnicodeString(s string) (string, error) {
	esc := strings.ReplaceAll(s, `\`, `\\`)
	esc = strings.ReplaceAll(esc, `"`, `\"`)
	var out string
	if err := json.Unmarshal([]byte(`"`+esc+`"`), &out); err != nil {
		return "", err
	}
	return out, nil
}

// NormalizeJSONUnicode parses JSON bytes and recursively unescapes any remaining
// double-escaped unicode sequences (e.g. "\\u003e") inside string values.
func NormalizeJSONUnicode(raw []byte) ([]byte, error) {
	var anyVal any
	if err := json.Unmarshal(raw, &anyVal); err != nil {
		// the whole payload may be a quoted JSON string
		var s string
		if err2 := json.Unmarshal(raw, &s); err2 != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(s), &anyVal); err != nil {
			return nil, errors.New("NormalizeJSONUnicode: cannot parse JSON payload")
		}
	}
	return MarshalNoEscape(deepUnescape(anyVal))
}

// UnmarshalFlex tries a direct unmarshal first, then a normalized one.
func UnmarshalFlex(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err == nil {
		return nil
	}
	norm, err := NormalizeJSONUnicode(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(norm, v)
}

func deepUnescape(v any) any {
	switch x := v.(type) {
	case string:
		if s, err := UnescapeUnicodeString(x); err == nil {
			return s
		}
		return x
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = deepUnescape(x[i])
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, vv := range x {
			out[k] = deepUnescape(vv)
		}
		return out
	default:
		return v
	}
}
