package assets

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// Cache is a content-addressed file store. Entries are keyed by the
// SHA-256 of their content, so re-storing identical bytes is free and a
// stale entry can never be served for changed content.
type Cache struct {
	dir string
}

// NewCache opens (creating if needed) a cache rooted at dir.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir %s: %w", dir, err)
	}
	return &Cache{dir: dir}, nil
}

// Key returns the cache key for the given content.
func Key(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (c *Cache) path(key, ext string) string {
	return filepath.Join(c.dir, key+ext)
}

// Store writes data under its content key and returns the key. Existing
// entries are left untouched.
func (c *Cache) Store(data []byte, ext string) (string, error) {
	key := Key(data)
	return key, c.StoreAs(key, data, ext)
}

// StoreAs writes data under an explicit key, for content derived from
// other content (a render keyed by its source). Existing entries are
// left untouched.
func (c *Cache) StoreAs(key string, data []byte, ext string) error {
	p := c.path(key, ext)
	if _, err := os.Stat(p); err == nil {
		return nil
	}
	tmp, err := os.CreateTemp(c.dir, ".store-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

// Open returns the content stored under key, or os.ErrNotExist.
func (c *Cache) Open(key, ext string) ([]byte, error) {
	return os.ReadFile(c.path(key, ext))
}

// Has reports whether key is present.
func (c *Cache) Has(key, ext string) bool {
	_, err := os.Stat(c.path(key, ext))
	return err == nil
}
