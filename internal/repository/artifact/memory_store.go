package artifact

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string][]byte),
	}
}

func (s *MemoryStore) Put(_ context.Context, p string, content []byte) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	p, err := CleanPath(p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[p] = append([]byte(nil), content...)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, p string) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	p, err := CleanPath(p)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.data[p]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), raw...), nil
}

func (s *MemoryStore) Exists(_ context.Context, p string) (bool, error) {
	if s == nil {
		return false, fmt.Errorf("store is nil")
	}
	p, err := CleanPath(p)
	if err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[p]
	return ok, nil
}

func (s *MemoryStore) Remove(_ context.Context, p string) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	p, err := CleanPath(p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, p)
	return nil
}

func (s *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	prefix = cleanPrefix(prefix)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, 16)
	for key := range s.data {
		if strings.HasPrefix(key, prefix) {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out, nil
}
