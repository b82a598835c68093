// Package cache keeps probe results in memory with a TTL and persists them in the background.
//
// The in-memory map is the source of truth. A single persister goroutine replays every
// mutation onto a [Store] in order, so readers and writers never wait on disk and writers
// never race each other on the durable copy. Persistence is best effort: failures are logged
// and the cache keeps serving from memory.
package cache

import (
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytq/internal/models"
	"github.com/desertthunder/ytq/internal/shared"
)

// DefaultTTL is how long a probe result stays live after capture.
const DefaultTTL = 24 * time.Hour

const defaultQueueSize = 256

// Store is the durable backing of a [Cache].
type Store interface {
	Load() ([]models.ProbeResult, error)
	Put(res models.ProbeResult) error
	Delete(url string) error
	Clear() error
}

// Options configures a [Cache].
type Options struct {
	TTL       time.Duration
	Now       func() time.Time
	Logger    *log.Logger
	QueueSize int // pending persistence operations before new ones are dropped
}

type opKind int

const (
	opPut opKind = iota
	opDelete
	opClear
)

type op struct {
	kind opKind
	res  models.ProbeResult
	url  string
}

// Cache maps URLs to probe results.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]models.ProbeResult
	closed  bool

	ttl    time.Duration
	now    func() time.Time
	logger *log.Logger

	store Store
	ops   chan op
	done  chan struct{}
}

// New creates a cache, loading live entries from store. A nil store keeps the cache in memory only.
//
// Load failures are logged and the cache starts empty.
func New(store Store, opts Options) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = shared.NopLogger()
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}

	c := &Cache{
		entries: make(map[string]models.ProbeResult),
		ttl:     opts.TTL,
		now:     opts.Now,
		logger:  shared.WithLogger(opts.Logger, "component", "cache"),
		store:   store,
		done:    make(chan struct{}),
	}

	if store == nil {
		close(c.done)
		return c
	}

	c.load()
	c.ops = make(chan op, opts.QueueSize)
	go c.persist()
	return c
}

func (c *Cache) load() {
	results, err := c.store.Load()
	if err != nil {
		c.logger.Warn("failed to load probe cache, starting empty", "err", err)
		return
	}

	now := c.now()
	for _, r := range results {
		if r.URL == "" || r.Expired(now, c.ttl) {
			continue
		}
		c.entries[r.URL] = r
	}
	c.logger.Debug("probe cache loaded", "entries", len(c.entries))
}

// Get returns a copy of the live entry for url.
func (c *Cache) Get(url string) (models.ProbeResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r, ok := c.entries[url]
	if !ok || r.Expired(c.now(), c.ttl) {
		return models.ProbeResult{}, false
	}
	return r.Clone(), true
}

// Set stores a copy of res under url. A zero CapturedAt is stamped with the current time.
func (c *Cache) Set(url string, res models.ProbeResult) {
	res = res.Clone()
	res.URL = url
	if res.CapturedAt.IsZero() {
		res.CapturedAt = c.now()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictExpired()
	c.entries[url] = res
	c.enqueue(op{kind: opPut, res: res})
}

// Invalidate drops the entry for url.
func (c *Cache) Invalidate(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictExpired()
	if _, ok := c.entries[url]; !ok {
		return
	}
	delete(c.entries, url)
	c.enqueue(op{kind: opDelete, url: url})
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]models.ProbeResult)
	c.enqueue(op{kind: opClear})
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now, n := c.now(), 0
	for _, r := range c.entries {
		if !r.Expired(now, c.ttl) {
			n++
		}
	}
	return n
}

// Entries returns copies of the live entries, newest first.
func (c *Cache) Entries() []models.ProbeResult {
	c.mu.RLock()
	now := c.now()
	out := make([]models.ProbeResult, 0, len(c.entries))
	for _, r := range c.entries {
		if !r.Expired(now, c.ttl) {
			out = append(out, r.Clone())
		}
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CapturedAt.After(out[j].CapturedAt) })
	return out
}

// URLs returns the keys of the live entries, sorted.
func (c *Cache) URLs() []string {
	entries := c.Entries()
	urls := make([]string, len(entries))
	for i, e := range entries {
		urls[i] = e.URL
	}
	slices.Sort(urls)
	return urls
}

// Close waits for pending persistence to finish. Later mutations stay in memory only.
func (c *Cache) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		if c.ops != nil {
			close(c.ops)
		}
	}
	c.mu.Unlock()
	<-c.done
}

// evictExpired removes dead entries from memory. Callers hold the write lock.
func (c *Cache) evictExpired() {
	now := c.now()
	for url, r := range c.entries {
		if r.Expired(now, c.ttl) {
			delete(c.entries, url)
		}
	}
}

// enqueue hands op to the persister without blocking. Callers hold the write lock.
func (c *Cache) enqueue(o op) {
	if c.ops == nil || c.closed {
		return
	}
	select {
	case c.ops <- o:
	default:
		c.logger.Warn("persistence queue full, dropping write", "op", o.kind, "url", o.url+o.res.URL)
	}
}

func (c *Cache) persist() {
	defer close(c.done)
	for o := range c.ops {
		var err error
		switch o.kind {
		case opPut:
			err = c.store.Put(o.res)
		case opDelete:
			err = c.store.Delete(o.url)
		case opClear:
			err = c.store.Clear()
		}
		if err != nil {
			c.logger.Warn("failed to persist probe cache", "err", err)
		}
	}
}
