package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vango-dev/isopage/pkg/pending"
)

// Loader produces the value of a missing entry.
type Loader func(ctx context.Context) (any, error)

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// Cache is a view of a Backend that records the entries it touches.
type Cache struct {
	backend Backend
	logger  *slog.Logger

	mu       sync.Mutex
	touched  map[string]json.RawMessage
	inflight map[string]*pending.Value
}

// New creates a Cache over backend. A nil backend uses a new MemoryBackend.
func New(backend Backend, opts ...Option) *Cache {
	if backend == nil {
		backend = NewMemoryBackend()
	}
	c := &Cache{
		backend:  backend,
		logger:   slog.Default(),
		touched:  make(map[string]json.RawMessage),
		inflight: make(map[string]*pending.Value),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns a Cache over the same backend with its own record of
// touched entries. The server uses one session per request.
func (c *Cache) Session() *Cache {
	return New(c.backend, WithLogger(c.logger))
}

// Get decodes a stored entry.
func (c *Cache) Get(ctx context.Context, key string) (any, bool, error) {
	data, ok, err := c.backend.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, false, fmt.Errorf("failed to decode cache entry %q: %w", key, err)
	}
	c.touch(key, data)
	return v, true, nil
}

// Set stores value under key.
func (c *Cache) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry %q: %w", key, err)
	}
	if err := c.backend.Set(ctx, key, data); err != nil {
		return err
	}
	c.touch(key, data)
	return nil
}

// Delete removes an entry.
func (c *Cache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.touched, key)
	c.mu.Unlock()
	return c.backend.Delete(ctx, key)
}

// GetOrLoad returns a pending value for key. A stored entry resolves
// immediately with its decoded JSON form. Otherwise load runs once per key
// at a time, and its result resolves the value unchanged and is stored.
// Backend failures are logged and treated as a miss.
func (c *Cache) GetOrLoad(ctx context.Context, key string, load Loader) *pending.Value {
	v, ok, err := c.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed", "key", key, "error", err)
	}
	if ok {
		return pending.Resolved(v)
	}

	c.mu.Lock()
	if p, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		return p
	}
	p := pending.New()
	c.inflight[key] = p
	c.mu.Unlock()

	go func() {
		val, err := load(ctx)

		c.mu.Lock()
		delete(c.inflight, key)
		c.mu.Unlock()

		if err != nil {
			p.Reject(err)
			return
		}
		if err := c.Set(ctx, key, val); err != nil {
			c.logger.Warn("cache write failed", "key", key, "error", err)
		}
		p.Resolve(val)
	}()
	return p
}

// Snapshot serializes the entries touched through this Cache as a JSON
// object keyed by entry key.
func (c *Cache) Snapshot() (json.RawMessage, error) {
	c.mu.Lock()
	entries := make(map[string]json.RawMessage, len(c.touched))
	for k, v := range c.touched {
		entries[k] = v
	}
	c.mu.Unlock()

	data, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cache snapshot: %w", err)
	}
	return data, nil
}

// Restore stores every entry of a snapshot. An empty snapshot is a no-op.
func (c *Cache) Restore(ctx context.Context, snapshot json.RawMessage) error {
	if len(snapshot) == 0 {
		return nil
	}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(snapshot, &entries); err != nil {
		return fmt.Errorf("failed to decode cache snapshot: %w", err)
	}
	for k, data := range entries {
		if err := c.backend.Set(ctx, k, data); err != nil {
			return err
		}
		c.touch(k, data)
	}
	return nil
}

// Len returns the number of touched entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.touched)
}

func (c *Cache) touch(key string, data []byte) {
	c.mu.Lock()
	c.touched[key] = json.RawMessage(data)
	c.mu.Unlock()
}
