package spackle

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Cache defaults
const (
	DefaultCacheTTL         = 5 * time.Minute
	DefaultCacheMaxEntries  = 1000
	DefaultNegativeCacheTTL = 30 * time.Second
)

// CachedStorage wraps a TemplateStorage and caches the latest version of each
// template by name. Templates included many times during one render are then
// loaded once. Writes through the wrapper invalidate the affected name; writes
// made directly to the wrapped storage become visible after TTL.
type CachedStorage struct {
	storage TemplateStorage
	config  CacheConfig

	mu     sync.Mutex
	cache  map[string]*cacheEntry
	hits   int
	misses int
	closed bool
}

// CacheConfig configures CachedStorage.
type CacheConfig struct {
	// TTL is how long a cached template stays valid.
	// Default: 5 minutes
	TTL time.Duration

	// MaxEntries bounds the cache; the least recently used entry is evicted.
	// Default: 1000
	MaxEntries int

	// NegativeCacheTTL is how long a "not found" result is remembered.
	// Zero disables negative caching.
	NegativeCacheTTL time.Duration
}

// DefaultCacheConfig returns the default caching configuration.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:              DefaultCacheTTL,
		MaxEntries:       DefaultCacheMaxEntries,
		NegativeCacheTTL: DefaultNegativeCacheTTL,
	}
}

type cacheEntry struct {
	template   *StoredTemplate
	notFound   bool
	cachedAt   time.Time
	accessedAt time.Time
}

// CacheStats reports cache usage.
type CacheStats struct {
	Entries         int
	NegativeEntries int
	Hits            int
	Misses          int
}

// NewCachedStorage wraps storage with a read cache.
func NewCachedStorage(storage TemplateStorage, config CacheConfig) *CachedStorage {
	if config.TTL <= 0 {
		config.TTL = DefaultCacheTTL
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultCacheMaxEntries
	}
	return &CachedStorage{
		storage: storage,
		config:  config,
		cache:   make(map[string]*cacheEntry),
	}
}

// Get returns the latest version of a template, from cache when possible.
func (s *CachedStorage) Get(ctx context.Context, name string) (*StoredTemplate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, NewStorageClosedError()
	}
	if entry, ok := s.lookup(name); ok {
		s.hits++
		s.mu.Unlock()
		if entry.notFound {
			return nil, NewStorageTemplateNotFoundError(name)
		}
		return copyStoredTemplate(entry.template), nil
	}
	s.misses++
	s.mu.Unlock()

	tmpl, err := s.storage.Get(ctx, name)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, NewStorageClosedError()
	}

	switch {
	case err == nil:
		s.add(name, tmpl, false)
		return copyStoredTemplate(tmpl), nil
	case errors.Is(err, ErrTemplateNotFound) && s.config.NegativeCacheTTL > 0:
		s.add(name, nil, true)
	}
	return nil, err
}

// GetVersion is not cached.
func (s *CachedStorage) GetVersion(ctx context.Context, name string, version int) (*StoredTemplate, error) {
	return s.storage.GetVersion(ctx, name, version)
}

// Save stores a new version and drops the cached one.
func (s *CachedStorage) Save(ctx context.Context, tmpl *StoredTemplate) error {
	if err := s.storage.Save(ctx, tmpl); err != nil {
		return err
	}
	s.Invalidate(tmpl.Name)
	return nil
}

// Delete removes a template and drops it from the cache.
func (s *CachedStorage) Delete(ctx context.Context, name string) error {
	if err := s.storage.Delete(ctx, name); err != nil {
		return err
	}
	s.Invalidate(name)
	return nil
}

// List is not cached.
func (s *CachedStorage) List(ctx context.Context, query *TemplateQuery) ([]*StoredTemplate, error) {
	return s.storage.List(ctx, query)
}

// Exists answers from cache when the name is cached.
func (s *CachedStorage) Exists(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false, NewStorageClosedError()
	}
	if entry, ok := s.lookup(name); ok {
		s.hits++
		s.mu.Unlock()
		return !entry.notFound, nil
	}
	s.mu.Unlock()

	return s.storage.Exists(ctx, name)
}

// ListVersions is not cached.
func (s *CachedStorage) ListVersions(ctx context.Context, name string) ([]int, error) {
	return s.storage.ListVersions(ctx, name)
}

// Close drops the cache and closes the wrapped storage.
func (s *CachedStorage) Close() error {
	s.mu.Lock()
	s.closed = true
	s.cache = nil
	s.mu.Unlock()

	return s.storage.Close()
}

// Invalidate drops one name from the cache.
func (s *CachedStorage) Invalidate(name string) {
	s.mu.Lock()
	delete(s.cache, name)
	s.mu.Unlock()
}

// InvalidateAll clears the cache.
func (s *CachedStorage) InvalidateAll() {
	s.mu.Lock()
	if !s.closed {
		s.cache = make(map[string]*cacheEntry)
	}
	s.mu.Unlock()
}

// Stats returns cache statistics.
func (s *CachedStorage) Stats() CacheStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := CacheStats{Hits: s.hits, Misses: s.misses}
	for _, entry := range s.cache {
		if !s.valid(entry) {
			continue
		}
		stats.Entries++
		if entry.notFound {
			stats.NegativeEntries++
		}
	}
	return stats
}

// lookup returns a valid entry and marks it used. Caller must hold mu.
func (s *CachedStorage) lookup(name string) (*cacheEntry, bool) {
	entry, ok := s.cache[name]
	if !ok {
		return nil, false
	}
	if !s.valid(entry) {
		delete(s.cache, name)
		return nil, false
	}
	entry.accessedAt = time.Now()
	return entry, true
}

func (s *CachedStorage) valid(entry *cacheEntry) bool {
	ttl := s.config.TTL
	if entry.notFound {
		ttl = s.config.NegativeCacheTTL
	}
	return time.Since(entry.cachedAt) < ttl
}

// add stores an entry, evicting the least recently used one when full.
// Caller must hold mu.
func (s *CachedStorage) add(name string, tmpl *StoredTemplate, notFound bool) {
	if _, exists := s.cache[name]; !exists && len(s.cache) >= s.config.MaxEntries {
		s.evictLeastRecent()
	}
	now := time.Now()
	s.cache[name] = &cacheEntry{
		template:   copyStoredTemplate(tmpl),
		notFound:   notFound,
		cachedAt:   now,
		accessedAt: now,
	}
}

func (s *CachedStorage) evictLeastRecent() {
	var oldestName string
	var oldest *cacheEntry
	for name, entry := range s.cache {
		if oldest == nil || entry.accessedAt.Before(oldest.accessedAt) {
			oldestName, oldest = name, entry
		}
	}
	if oldest != nil {
		delete(s.cache, oldestName)
	}
}
