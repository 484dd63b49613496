package sql

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/singleflight"
)

// Cache is the interface for caching rendered statements.
// Users should implement this interface with their preferred caching
// solution (e.g., Redis, Memcached, in-memory).
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns nil, nil if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with an optional TTL.
	// If ttl is 0, the value should not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes all values with the given prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// Clear removes all values from the cache.
	Clear(ctx context.Context) error
}

// Rendered is the cached form of a rendered statement.
type Rendered struct {
	SQL  string `msgpack:"sql"`
	Args []any  `msgpack:"args"`
}

// MemoryCache is an in-process Cache backed by a map. It is safe for
// concurrent use.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value []byte
	exp   time.Time // zero means no expiry
}

func (e memoryEntry) expired() bool {
	return !e.exp.IsZero() && time.Now().After(e.exp)
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

// Get implements Cache.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if e.expired() {
		c.evictExpired(key)
		return nil, nil
	}
	return e.value, nil
}

// evictExpired removes key only if its current entry is still expired.
// A concurrent Set may have refreshed the entry between Get's read
// lock and this write lock, in which case the fresh value is kept.
func (c *MemoryCache) evictExpired(key string) {
	c.mu.Lock()
	if cur, ok := c.entries[key]; ok && cur.expired() {
		delete(c.entries, key)
	}
	c.mu.Unlock()
}

// Set implements Cache.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := memoryEntry{value: value}
	if ttl > 0 {
		e.exp = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

// Delete implements Cache.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// DeletePrefix implements Cache.
func (c *MemoryCache) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
	return nil
}

// Clear implements Cache.
func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]memoryEntry)
	c.mu.Unlock()
	return nil
}

// StatementCache memoizes Statement.Render results, keyed by the
// statement fingerprint. Concurrent renders of the same statement are
// collapsed into a single render via singleflight.
type StatementCache struct {
	cache Cache
	ttl   time.Duration
	group singleflight.Group
}

// NewStatementCache returns a StatementCache backed by the given
// Cache. A zero ttl means cached entries never expire.
func NewStatementCache(cache Cache, ttl time.Duration) *StatementCache {
	return &StatementCache{cache: cache, ttl: ttl}
}

// Render returns the SQL text and parameters for stmt, consulting the
// cache first. A statement that fails validation is never cached; the
// error is returned on every call.
func (c *StatementCache) Render(ctx context.Context, stmt *Statement) (string, []any, error) {
	key := cacheKey(stmt)
	if buf, err := c.cache.Get(ctx, key); err == nil && buf != nil {
		var r Rendered
		if err := msgpack.Unmarshal(buf, &r); err == nil {
			return r.SQL, r.Args, nil
		}
		// Corrupt entry, drop it and re-render.
		_ = c.cache.Delete(ctx, key)
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		query, args, err := stmt.Render()
		if err != nil {
			return nil, err
		}
		r := Rendered{SQL: query, Args: args}
		if buf, err := msgpack.Marshal(r); err == nil {
			_ = c.cache.Set(ctx, key, buf, c.ttl)
		}
		return r, nil
	})
	if err != nil {
		return "", nil, err
	}
	r := v.(Rendered)
	return r.SQL, r.Args, nil
}

// Invalidate removes the cached entry for stmt.
func (c *StatementCache) Invalidate(ctx context.Context, stmt *Statement) error {
	return c.cache.Delete(ctx, cacheKey(stmt))
}

// cacheKey combines the dialect and the statement fingerprint. The
// fingerprint already covers the dialect, but a readable prefix keeps
// DeletePrefix usable per backend.
func cacheKey(stmt *Statement) string {
	return stmt.Dialect() + ":" + stmt.Fingerprint()
}
