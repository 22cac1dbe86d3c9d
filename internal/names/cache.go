// Package names resolves numeric ids to display names through a persisted,
// write-once cache.
//
// The cache file is YAML (id: name), loaded once when the Cache is built.
// Every successful lookup of a new id rewrites the whole file. Failed
// lookups fall back to the id itself and are never stored, so the next
// Resolve call retries.
package names

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"sort"
	"sync"

	"github.com/xtxerr/feedlog/config"
	"github.com/xtxerr/feedlog/internal/errors"
	"github.com/xtxerr/feedlog/internal/fsutil"
	"github.com/xtxerr/feedlog/internal/logging"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"
)

var log = logging.Component("names")

// Lookup fetches the display name for an id from a remote source.
type Lookup interface {
	LookupName(ctx context.Context, id string) (string, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, id string) (string, error)

// LookupName calls f.
func (f LookupFunc) LookupName(ctx context.Context, id string) (string, error) {
	return f(ctx, id)
}

// Entry is one cached mapping.
type Entry struct {
	ID   string
	Name string
}

// Cache maps ids to names.
//
// Cache is safe for concurrent use within one process. Two processes
// sharing a cache file can overwrite each other's entries.
type Cache struct {
	mu      sync.RWMutex
	path    string
	entries map[string]string
	lookup  Lookup
	group   singleflight.Group
}

// Open loads the cache file at path. A missing, empty or unreadable file
// gives an empty cache; only the unreadable case is logged.
func Open(path string, lookup Lookup) *Cache {
	c := &Cache{
		path:    path,
		entries: make(map[string]string),
		lookup:  lookup,
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return c
	case err != nil:
		log.Warn("name cache unreadable, starting empty", "path", path, "error", err)
		return c
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return c
	}

	var loaded map[string]string
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		log.Warn("name cache corrupt, starting empty", "path", path, "error", err)
		return c
	}
	for id, name := range loaded {
		if id != "" && name != "" {
			c.entries[id] = name
		}
	}

	log.Debug("name cache loaded", "path", path, "entries", len(c.entries))
	return c
}

// Resolve returns the display name for id. It never fails: when the name
// is unknown and the lookup fails, it returns id.
func (c *Cache) Resolve(ctx context.Context, id string) string {
	if name, ok := c.Get(id); ok {
		return name
	}
	if c.lookup == nil {
		return id
	}

	v, err, _ := c.group.Do(id, func() (interface{}, error) {
		if name, ok := c.Get(id); ok {
			return name, nil
		}

		name, err := c.lookup.LookupName(ctx, id)
		if err != nil {
			return nil, err
		}
		if name == "" {
			return nil, errors.Wrapf(errors.ErrResolutionMiss, "empty name for %s", id)
		}

		c.store(id, name)
		return name, nil
	})
	if err != nil {
		log.Debug("name lookup failed, using id", "id", id, "error", err)
		return id
	}
	return v.(string)
}

// Get returns a cached name without any lookup.
func (c *Cache) Get(id string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.entries[id]
	return name, ok
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Entries returns a snapshot sorted by id.
func (c *Cache) Entries() []Entry {
	c.mu.RLock()
	out := make([]Entry, 0, len(c.entries))
	for id, name := range c.entries {
		out = append(out, Entry{ID: id, Name: name})
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return lessID(out[i].ID, out[j].ID) })
	return out
}

// Path returns the cache file path.
func (c *Cache) Path() string { return c.path }

// store records a new entry and persists the whole map. A persist failure
// keeps the entry in memory for the rest of the run.
func (c *Cache) store(id, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[id]; ok {
		return
	}
	c.entries[id] = name

	if err := c.persistLocked(); err != nil {
		log.Error("persist name cache", "path", c.path, "error", err)
		return
	}
	log.Debug("name cached", "id", id, "name", name)
}

func (c *Cache) persistLocked() error {
	data, err := yaml.Marshal(c.entries)
	if err != nil {
		return errors.NewPersistence("names", "encode", c.path, err)
	}
	if err := fsutil.AtomicWriteFile(c.path, data, config.DefaultFilePerm); err != nil {
		return errors.NewPersistence("names", "write", c.path, err)
	}
	return nil
}

// lessID orders numeric ids numerically and everything else lexically.
func lessID(a, b string) bool {
	if len(a) != len(b) && isDigits(a) && isDigits(b) {
		return len(a) < len(b)
	}
	return a < b
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
