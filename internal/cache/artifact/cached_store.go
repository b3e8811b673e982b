package artifact

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	artifactrepo "github.com/Vansh-04/buildfirst/internal/repository/artifact"
)

type Store = artifactrepo.Store

type CacheConfig struct {
	BlobTTL         time.Duration
	BlobMaxEntries  int
	BlobMaxItemSize int

	ExistsTTL        time.Duration
	ExistsMaxEntries int

	ListTTL        time.Duration
	ListMaxEntries int
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		BlobTTL:          5 * time.Minute,
		BlobMaxEntries:   1024,
		BlobMaxItemSize:  8 * 1024 * 1024, // 8MiB
		ExistsTTL:        time.Minute,
		ExistsMaxEntries: 2048,
		ListTTL:          30 * time.Second,
		ListMaxEntries:   256,
	}
}

type MetricsSnapshot struct {
	BlobHits       uint64
	BlobMisses     uint64
	ExistsHits     uint64
	ExistsMisses   uint64
	ListHits       uint64
	ListMisses     uint64
	OriginReads    uint64
	OriginWrites   uint64
	OriginReadErr  uint64
	OriginWriteErr uint64
}

type Metrics struct {
	blobHits       atomic.Uint64
	blobMisses     atomic.Uint64
	existsHits     atomic.Uint64
	existsMisses   atomic.Uint64
	listHits       atomic.Uint64
	listMisses     atomic.Uint64
	originReads    atomic.Uint64
	originWrites   atomic.Uint64
	originReadErr  atomic.Uint64
	originWriteErr atomic.Uint64
}

func (m *Metrics) snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	return MetricsSnapshot{
		BlobHits:       m.blobHits.Load(),
		BlobMisses:     m.blobMisses.Load(),
		ExistsHits:     m.existsHits.Load(),
		ExistsMisses:   m.existsMisses.Load(),
		ListHits:       m.listHits.Load(),
		ListMisses:     m.listMisses.Load(),
		OriginReads:    m.originReads.Load(),
		OriginWrites:   m.originWrites.Load(),
		OriginReadErr:  m.originReadErr.Load(),
		OriginWriteErr: m.originWriteErr.Load(),
	}
}

// CachedStore is a read-through, write-through cache in front of a Store.
// It assumes it is the only writer to the origin.
type CachedStore struct {
	origin      Store
	maxItemSize int

	blobCache   *expirable.LRU[string, []byte]
	existsCache *expirable.LRU[string, bool]
	listCache   *expirable.LRU[string, []string]
	metrics     Metrics
}

func NewCachedStore(origin Store, cfg CacheConfig) *CachedStore {
	def := DefaultCacheConfig()
	if cfg.BlobTTL <= 0 {
		cfg.BlobTTL = def.BlobTTL
	}
	if cfg.BlobMaxEntries <= 0 {
		cfg.BlobMaxEntries = def.BlobMaxEntries
	}
	if cfg.BlobMaxItemSize <= 0 {
		cfg.BlobMaxItemSize = def.BlobMaxItemSize
	}
	if cfg.ExistsTTL <= 0 {
		cfg.ExistsTTL = def.ExistsTTL
	}
	if cfg.ExistsMaxEntries <= 0 {
		cfg.ExistsMaxEntries = def.ExistsMaxEntries
	}
	if cfg.ListTTL <= 0 {
		cfg.ListTTL = def.ListTTL
	}
	if cfg.ListMaxEntries <= 0 {
		cfg.ListMaxEntries = def.ListMaxEntries
	}

	return &CachedStore{
		origin:      origin,
		maxItemSize: cfg.BlobMaxItemSize,
		blobCache:   expirable.NewLRU[string, []byte](cfg.BlobMaxEntries, nil, cfg.BlobTTL),
		existsCache: expirable.NewLRU[string, bool](cfg.ExistsMaxEntries, nil, cfg.ExistsTTL),
		listCache:   expirable.NewLRU[string, []string](cfg.ListMaxEntries, nil, cfg.ListTTL),
	}
}

func (s *CachedStore) Put(ctx context.Context, path string, content []byte) error {
	s.metrics.originWrites.Add(1)
	s.blobCache.Remove(path)
	s.existsCache.Remove(path)
	if err := s.origin.Put(ctx, path, content); err != nil {
		s.metrics.originWriteErr.Add(1)
		return err
	}
	s.remember(path, content)
	s.existsCache.Add(path, true)
	s.listCache.Purge()
	return nil
}

func (s *CachedStore) Get(ctx context.Context, path string) ([]byte, error) {
	if raw, ok := s.blobCache.Get(path); ok {
		s.metrics.blobHits.Add(1)
		return append([]byte(nil), raw...), nil
	}
	s.metrics.blobMisses.Add(1)
	s.metrics.originReads.Add(1)

	raw, err := s.origin.Get(ctx, path)
	if err != nil {
		s.metrics.originReadErr.Add(1)
		return nil, err
	}
	s.remember(path, raw)
	return append([]byte(nil), raw...), nil
}

func (s *CachedStore) Exists(ctx context.Context, path string) (bool, error) {
	if ok, hit := s.existsCache.Get(path); hit {
		s.metrics.existsHits.Add(1)
		return ok, nil
	}
	s.metrics.existsMisses.Add(1)
	s.metrics.originReads.Add(1)

	ok, err := s.origin.Exists(ctx, path)
	if err != nil {
		s.metrics.originReadErr.Add(1)
		return false, err
	}
	s.existsCache.Add(path, ok)
	return ok, nil
}

func (s *CachedStore) Remove(ctx context.Context, path string) error {
	s.metrics.originWrites.Add(1)
	s.blobCache.Remove(path)
	s.existsCache.Remove(path)
	s.listCache.Purge()
	if err := s.origin.Remove(ctx, path); err != nil {
		s.metrics.originWriteErr.Add(1)
		return err
	}
	s.existsCache.Add(path, false)
	return nil
}

func (s *CachedStore) List(ctx context.Context, prefix string) ([]string, error) {
	if list, ok := s.listCache.Get(prefix); ok {
		s.metrics.listHits.Add(1)
		return append([]string(nil), list...), nil
	}
	s.metrics.listMisses.Add(1)
	s.metrics.originReads.Add(1)

	list, err := s.origin.List(ctx, prefix)
	if err != nil {
		s.metrics.originReadErr.Add(1)
		return nil, err
	}
	s.listCache.Add(prefix, append([]string(nil), list...))
	return list, nil
}

func (s *CachedStore) remember(path string, raw []byte) {
	if len(raw) > s.maxItemSize {
		return
	}
	s.blobCache.Add(path, append([]byte(nil), raw...))
}

func (s *CachedStore) Metrics() MetricsSnapshot {
	if s == nil {
		return MetricsSnapshot{}
	}
	return s.metrics.snapshot()
}
