package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DiskStore persists artifacts under a local root directory. Writes land in
// a temp file in the target directory and are renamed into place, so readers
// never see a partial file.
type DiskStore struct {
	root string
}

func NewDiskStore(root string) *DiskStore {
	return &DiskStore{root: strings.TrimSpace(root)}
}

func (s *DiskStore) Root() string { return s.root }

func (s *DiskStore) Put(_ context.Context, p string, content []byte) error {
	fullPath, err := s.pathFor(p)
	if err != nil {
		return err
	}
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(fullPath)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func (s *DiskStore) Get(_ context.Context, p string) ([]byte, error) {
	fullPath, err := s.pathFor(p)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(fullPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return b, err
}

func (s *DiskStore) Exists(_ context.Context, p string) (bool, error) {
	fullPath, err := s.pathFor(p)
	if err != nil {
		return false, err
	}
	st, err := os.Stat(fullPath)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !st.IsDir(), nil
}

func (s *DiskStore) Remove(_ context.Context, p string) error {
	fullPath, err := s.pathFor(p)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *DiskStore) List(_ context.Context, prefix string) ([]string, error) {
	if s == nil || s.root == "" {
		return nil, fmt.Errorf("root is required")
	}
	prefix = cleanPrefix(prefix)
	paths := make([]string, 0, 32)
	walkErr := filepath.WalkDir(s.root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.Contains(d.Name(), ".tmp-") {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if strings.HasPrefix(rel, prefix) {
			paths = append(paths, rel)
		}
		return nil
	})
	if walkErr != nil {
		if errors.Is(walkErr, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, walkErr
	}
	sort.Strings(paths)
	return paths, nil
}

func (s *DiskStore) pathFor(p string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("store is nil")
	}
	if s.root == "" {
		return "", fmt.Errorf("root is required")
	}
	p, err := CleanPath(p)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(p)), nil
}
