package artifact

import "fmt"

// MalformedError reports an artifact whose content does not match its schema.
type MalformedError struct {
	Kind Kind
	Path string
	Err  error
}

func (e *MalformedError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("malformed %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("malformed %s (%s): %v", e.Kind, e.Path, e.Err)
}

func (e *MalformedError) Unwrap() error { return e.Err }
