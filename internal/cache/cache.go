package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Store is the namespace-agnostic view of a cache, used by the
// maintenance job and the admin endpoints.
type Store interface {
	Name() string
	Len() int
	Flush()
	Sweep() int
	Clear()
}

// entry mirrors the on-disk record shape: a flat JSON map of
// key -> {data, timestamp}. A nil Data is a cached negative result.
type entry[T any] struct {
	Data     *T        `json:"data"`
	StoredAt time.Time `json:"timestamp"`
}

// Cache is a disk-backed TTL cache for one lookup namespace.
//
// Writes are buffered in memory and flushed to disk every Nth insert.
// Disk failures degrade the cache to memory-only for the session;
// they are never surfaced to callers. Concurrent flushes from racing
// requests are last-write-wins.
type Cache[T any] struct {
	name        string
	path        string
	ttl         time.Duration
	negativeTTL time.Duration
	flushEvery  int

	mu         sync.Mutex
	entries    map[string]entry[T]
	sinceFlush int
	diskOK     bool

	log zerolog.Logger
}

// Options configures a cache namespace.
type Options struct {
	Dir         string
	TTL         time.Duration
	NegativeTTL time.Duration
	FlushEvery  int
}

// New creates a cache for the given namespace and loads any persisted
// entries from disk, discarding those past their TTL.
func New[T any](name string, opts Options, log zerolog.Logger) *Cache[T] {
	if opts.FlushEvery < 1 {
		opts.FlushEvery = 10
	}
	if opts.NegativeTTL <= 0 || opts.NegativeTTL > opts.TTL {
		opts.NegativeTTL = opts.TTL
	}

	c := &Cache[T]{
		name:        name,
		path:        filepath.Join(opts.Dir, name+".json"),
		ttl:         opts.TTL,
		negativeTTL: opts.NegativeTTL,
		flushEvery:  opts.FlushEvery,
		entries:     make(map[string]entry[T]),
		diskOK:      true,
		log:         log.With().Str("component", "cache").Str("namespace", name).Logger(),
	}

	c.load()

	return c
}

// Name returns the cache namespace
func (c *Cache[T]) Name() string {
	return c.name
}

// Get returns the cached value for key. The second return is false if
// the key is absent or its entry has expired. A cached negative result
// returns (nil, true): the lookup is known, and known to have failed.
func (c *Cache[T]) Get(key string) (*T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	if c.expired(e, time.Now()) {
		delete(c.entries, key)
		return nil, false
	}

	return e.Data, true
}

// Set stores a value for key
func (c *Cache[T]) Set(key string, value T) {
	c.put(key, entry[T]{Data: &value, StoredAt: time.Now()})
}

// SetNegative records a failed lookup so it is not retried until the
// negative TTL elapses.
func (c *Cache[T]) SetNegative(key string) {
	c.put(key, entry[T]{Data: nil, StoredAt: time.Now()})
}

func (c *Cache[T]) put(key string, e entry[T]) {
	c.mu.Lock()
	c.entries[key] = e
	c.sinceFlush++
	flush := c.sinceFlush >= c.flushEvery
	if flush {
		c.sinceFlush = 0
	}
	c.mu.Unlock()

	if flush {
		c.Flush()
	}
}

// Len returns the number of live entries
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Flush writes the current entries to the backing file. Errors are
// logged and disable further disk writes for the session.
func (c *Cache[T]) Flush() {
	c.mu.Lock()
	if !c.diskOK {
		c.mu.Unlock()
		return
	}
	data, err := json.Marshal(c.entries)
	c.mu.Unlock()

	if err != nil {
		c.log.Warn().Err(err).Msg("Failed to encode cache, staying memory-only")
		return
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		c.markDiskBroken(err)
		return
	}

	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		c.markDiskBroken(err)
		return
	}
}

func (c *Cache[T]) markDiskBroken(err error) {
	c.mu.Lock()
	c.diskOK = false
	c.mu.Unlock()
	c.log.Warn().Err(err).Str("path", c.path).Msg("Cache write failed, switching to memory-only")
}

// Sweep removes expired entries and reports how many were dropped
func (c *Cache[T]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	dropped := 0
	for key, e := range c.entries {
		if c.expired(e, now) {
			delete(c.entries, key)
			dropped++
		}
	}

	return dropped
}

// Clear empties the cache and deletes the backing file
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry[T])
	c.sinceFlush = 0
	c.mu.Unlock()

	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		c.log.Warn().Err(err).Str("path", c.path).Msg("Failed to delete cache file")
	}
}

func (c *Cache[T]) expired(e entry[T], now time.Time) bool {
	ttl := c.ttl
	if e.Data == nil {
		ttl = c.negativeTTL
	}
	return now.Sub(e.StoredAt) >= ttl
}

func (c *Cache[T]) load() {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.log.Warn().Err(err).Str("path", c.path).Msg("Failed to read cache file, starting empty")
		}
		return
	}

	var persisted map[string]entry[T]
	if err := json.Unmarshal(data, &persisted); err != nil {
		c.log.Warn().Err(err).Str("path", c.path).Msg("Cache file is corrupt, starting empty")
		return
	}

	now := time.Now()
	loaded := 0
	for key, e := range persisted {
		if c.expired(e, now) {
			continue
		}
		c.entries[key] = e
		loaded++
	}

	c.log.Debug().Int("entries", loaded).Msg("Loaded cache from disk")
}
