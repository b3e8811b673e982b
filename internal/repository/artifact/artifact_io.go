package artifact

import (
	"context"
	"errors"
	"fmt"

	"github.com/Vansh-04/buildfirst/internal/artifact"
)

// Read loads and validates a typed artifact.
func Read[T any](ctx context.Context, s Store, kind artifact.Kind, p string) (T, error) {
	var zero T
	raw, err := s.Get(ctx, p)
	if err != nil {
		return zero, fmt.Errorf("read %s: %w", p, err)
	}
	return artifact.Parse[T](kind, p, raw)
}

// Write encodes v as indented JSON and stores it at p.
func Write(ctx context.Context, s Store, p string, v any) error {
	b, err := artifact.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", p, err)
	}
	if err := s.Put(ctx, p, b); err != nil {
		return fmt.Errorf("write %s: %w", p, err)
	}
	return nil
}

// AllExist reports whether every path is present.
func AllExist(ctx context.Context, s Store, paths ...string) (bool, error) {
	for _, p := range paths {
		ok, err := s.Exists(ctx, p)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Missing returns the subset of paths that are absent.
func Missing(ctx context.Context, s Store, paths ...string) ([]string, error) {
	var out []string
	for _, p := range paths {
		ok, err := s.Exists(ctx, p)
		if err != nil {
			return nil, err
		}
		if !ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// IsNotFound reports whether err means the artifact is absent.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
