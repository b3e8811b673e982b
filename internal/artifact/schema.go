package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	invopop "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Vansh-04/buildfirst/internal/util/jsonutil"
)

var (
	schemaMu    sync.Mutex
	schemaCache = map[reflect.Type]*jsonschema.Schema{}
)

// SchemaFor returns the compiled schema reflected from T. Schemas are built
// once per type.
func SchemaFor[T any]() (*jsonschema.Schema, error) {
	var zero T
	t := reflect.TypeOf(zero)

	schemaMu.Lock()
	defer schemaMu.Unlock()
	if s, ok := schemaCache[t]; ok {
		return s, nil
	}
	r := &invopop.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
		ExpandedStruct:            true,
	}
	raw, err := json.Marshal(r.Reflect(zero))
	if err != nil {
		return nil, fmt.Errorf("reflect schema for %s: %w", t, err)
	}
	url := "mem://" + t.String() + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", t, err)
	}
	s, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", t, err)
	}
	schemaCache[t] = s
	return s, nil
}

// Parse validates raw against the schema of T and decodes it. Invalid JSON
// and schema violations come back as *MalformedError.
func Parse[T any](kind Kind, path string, raw []byte) (T, error) {
	var out T
	s, err := SchemaFor[T]()
	if err != nil {
		return out, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return out, &MalformedError{Kind: kind, Path: path, Err: err}
	}
	if err := s.Validate(doc); err != nil {
		return out, &MalformedError{Kind: kind, Path: path, Err: err}
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &MalformedError{Kind: kind, Path: path, Err: err}
	}
	return out, nil
}

// Marshal renders an artifact the way every stage writes it: indented,
// without HTML escaping, newline terminated.
func Marshal(v any) ([]byte, error) {
	return jsonutil.MarshalNoEscapeIndent(v)
}
