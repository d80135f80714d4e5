// Package photocache materializes base64 photo blobs as short-lived files.
//
// The directory provider can only hand the dialer a handle, not bytes, so a
// photo is decoded once into temp_photo_<hash>.<ext> and reused while the
// same blob keeps being asked for. The cache is sized for the photo of the
// current incoming call: stale files are swept on each materialization.
package photocache

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	// DefaultTTL is how long a materialized file survives before a sweep
	// may delete it.
	DefaultTTL = 30 * time.Second

	filePrefix = "temp_photo_"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Asset is a materialized photo file.
type Asset struct {
	Path     string `json:"path"`
	MimeType string `json:"mimeType"`
	Hash     string `json:"hash"`
}

// Open opens the asset for reading.
func (a *Asset) Open() (*os.File, error) {
	return os.Open(a.Path)
}

// Cache maps blob hashes to files in one directory.
type Cache struct {
	dir    string
	ttl    time.Duration
	clock  Clock
	logger *slog.Logger

	mu    sync.Mutex
	index map[string]*Asset

	group singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithClock overrides the wall clock.
func WithClock(clock Clock) Option {
	return func(c *Cache) { c.clock = clock }
}

// WithLogger sets the logger used for decode and I/O failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// New returns a cache writing into dir, creating it if needed.
func New(dir string, opts ...Option) (*Cache, error) {
	c := &Cache{
		dir:    dir,
		ttl:    DefaultTTL,
		clock:  systemClock{},
		logger: slog.Default(),
		index:  make(map[string]*Asset),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "photocache")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create photo dir: %w", err)
	}
	return c, nil
}

// Dir returns the directory holding materialized files.
func (c *Cache) Dir() string {
	return c.dir
}

// TTL returns the file lifetime.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Resolve returns a file for blob, materializing it if no live file exists
// for the same blob. Returns nil for an empty blob, a malformed one, or any
// I/O failure. Concurrent calls for the same blob share one write.
func (c *Cache) Resolve(blob string) (asset *Asset) {
	if blob == "" {
		return nil
	}
	defer func() {
		if p := recover(); p != nil {
			c.logger.Error("resolve panicked", "panic", p)
			asset = nil
		}
	}()

	hash := Hash(blob)
	if a := c.lookup(hash); a != nil {
		return a
	}

	v, err, _ := c.group.Do(hash, func() (any, error) {
		if a := c.lookup(hash); a != nil {
			return a, nil
		}
		return c.materialize(hash, blob)
	})
	if err != nil {
		c.logger.Warn("photo not materialized", "hash", hash, "error", err)
		return nil
	}
	return v.(*Asset)
}

// lookup returns the indexed asset for hash if its file is still on disk.
func (c *Cache) lookup(hash string) *Asset {
	c.mu.Lock()
	defer c.mu.Unlock()

	a, ok := c.index[hash]
	if !ok {
		return nil
	}
	if _, err := os.Stat(a.Path); err != nil {
		delete(c.index, hash)
		return nil
	}
	return a
}

func (c *Cache) materialize(hash, blob string) (*Asset, error) {
	c.Sweep()

	mime, data, err := Decode(blob)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(c.dir, filePrefix+hash+"."+Extension(mime))

	tmp, err := os.CreateTemp(c.dir, ".photo-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	now := c.clock.Now()
	if err := os.Chtimes(tmpName, now, now); err != nil {
		return nil, fmt.Errorf("stamp temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return nil, fmt.Errorf("rename temp file: %w", err)
	}

	a := &Asset{Path: path, MimeType: mime, Hash: hash}

	c.mu.Lock()
	c.index[hash] = a
	c.mu.Unlock()

	c.logger.Debug("photo materialized", "hash", hash, "mime", mime, "bytes", len(data))
	return a, nil
}

// Sweep deletes materialized files older than the TTL and forgets index
// entries pointing at them. Other files in the directory are left alone.
// Returns the number of files removed.
func (c *Cache) Sweep() int {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		c.logger.Error("sweep failed", "error", err)
		return 0
	}

	now := c.clock.Now()
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), filePrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) <= c.ttl {
			continue
		}

		path := filepath.Join(c.dir, e.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			c.logger.Warn("remove stale photo", "path", path, "error", err)
			continue
		}
		removed++

		c.mu.Lock()
		for h, a := range c.index {
			if a.Path == path {
				delete(c.index, h)
			}
		}
		c.mu.Unlock()
	}
	return removed
}
