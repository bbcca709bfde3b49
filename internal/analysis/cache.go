package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// Current schema version - increment when cachePayload format changes
const diskCacheSchemaVersion uint16 = 1

// Key identifies an analysis input: the text plus the enabled checks.
type Key [32]byte

// KeyFor hashes text and the enabled check names.
func KeyFor(text string, checks Checks) Key {
	h := sha256.New()
	h.Write([]byte(strings.Join(checks.Enabled(), ",")))
	h.Write([]byte{0})
	h.Write([]byte(text))
	var k Key
	copy(k[:], h.Sum(nil))
	return k
}

func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// Cache stores findings by Key.
type Cache interface {
	Get(key Key) ([]Finding, bool, error)
	Put(key Key, findings []Finding) error
}

// DiskCache stores findings on disk as msgpack payloads.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

type cachePayload struct {
	Schema   uint16
	Findings []Finding
}

// OpenDiskCache opens a cache at dir, or at $XDG_CACHE_HOME/<app> when dir
// is empty.
func OpenDiskCache(app, dir string) (*DiskCache, error) {
	if dir == "" {
		base := os.Getenv("XDG_CACHE_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			base = filepath.Join(home, ".cache")
		}
		dir = filepath.Join(base, app)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *DiskCache) Dir() string {
	return c.dir
}

func (c *DiskCache) pathFor(key Key) string {
	return filepath.Join(c.dir, "findings", key.String()+".mp")
}

// Put serializes findings and atomically replaces the cache entry.
func (c *DiskCache) Put(key Key, findings []Finding) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = fmt.Errorf("remove temp file: %w", rmErr)
		}
	}()

	if err := msgpack.NewEncoder(f).Encode(&cachePayload{Schema: diskCacheSchemaVersion, Findings: findings}); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads an entry. Entries written by another schema version are misses.
func (c *DiskCache) Get(key Key) ([]Finding, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var payload cachePayload
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return nil, false, err
	}
	if payload.Schema != diskCacheSchemaVersion {
		return nil, false, nil
	}
	return payload.Findings, true, nil
}

// DropAll removes every cached entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(filepath.Join(c.dir, "findings"))
}

type cachedAnalyzer struct {
	next   Analyzer
	cache  Cache
	logger *slog.Logger
}

// Cached memoizes next through cache. Cache failures are logged and fall
// through to the wrapped analyzer; analyzer errors are never cached.
func Cached(next Analyzer, cache Cache, logger *slog.Logger) Analyzer {
	if cache == nil {
		return next
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &cachedAnalyzer{next: next, cache: cache, logger: logger}
}

func (a *cachedAnalyzer) Analyze(ctx context.Context, text string, checks Checks) ([]Finding, error) {
	key := KeyFor(text, checks)
	if findings, ok, err := a.cache.Get(key); err != nil {
		a.logger.Warn("analysis cache read failed", slog.String("key", key.String()), slog.String("error", err.Error()))
	} else if ok {
		return findings, nil
	}
	findings, err := a.next.Analyze(ctx, text, checks)
	if err != nil {
		return nil, err
	}
	if err := a.cache.Put(key, findings); err != nil {
		a.logger.Warn("analysis cache write failed", slog.String("key", key.String()), slog.String("error", err.Error()))
	}
	return findings, nil
}
