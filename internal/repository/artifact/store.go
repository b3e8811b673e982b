package artifact

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// Store defines operations for persisting workspace artifacts. Paths are
// slash separated and relative to the workspace root.
type Store interface {
	Put(ctx context.Context, path string, content []byte) error
	Get(ctx context.Context, path string) ([]byte, error)
	Exists(ctx context.Context, path string) (bool, error)
	Remove(ctx context.Context, path string) error
	List(ctx context.Context, prefix string) ([]string, error)
}

var ErrNotFound = errors.New("artifact not found")

// CleanPath normalizes p and rejects paths that escape the workspace.
func CleanPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", fmt.Errorf("path is required")
	}
	if strings.HasPrefix(p, "/") || strings.Contains(p, "..") || strings.Contains(p, `\`) {
		return "", fmt.Errorf("invalid path: %s", p)
	}
	p = path.Clean(p)
	if p == "." {
		return "", fmt.Errorf("invalid path: %s", p)
	}
	return p, nil
}

func cleanPrefix(prefix string) string {
	prefix = strings.TrimLeft(strings.TrimSpace(prefix), "/")
	if prefix == "" || prefix == "." {
		return ""
	}
	return prefix
}
