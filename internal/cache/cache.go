// Package cache provides a content-addressed, single-flight filesystem cache for catalog API responses.
//
// Payloads live on disk under two-character shard directories named after the
// SHA-256 digest of the request key. The in-memory side only remembers which
// digests were populated recently; storage stays authoritative for the bytes.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/reelcast/reelcast/filesystem"
	"github.com/reelcast/reelcast/log"
	"golang.org/x/sync/singleflight"
)

// TTL is the default lifetime of a "populated recently" marker.
const TTL = 300 * time.Second

// maxMarkers bounds the marker table; evicted markers only cost a refetch.
const maxMarkers = 4096

// ErrNotFound is returned when neither a fresh population nor a stored payload is available.
var ErrNotFound = errors.New("cache: entry not found")

// PopulateFunc fetches the payload for a key that is missing or stale.
type PopulateFunc func(ctx context.Context) ([]byte, error)

// Cache maps request keys to payload files under dir.
type Cache struct {
	dir     string
	group   singleflight.Group
	markers *expirable.LRU[string, struct{}]
}

// New returns a cache rooted at dir whose markers expire ttl after they were written.
func New(dir string, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = TTL
	}

	return &Cache{
		dir:     dir,
		markers: expirable.NewLRU[string, struct{}](maxMarkers, nil, ttl),
	}
}

// Digest returns the hex-encoded SHA-256 digest used to address key on disk.
func Digest(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Path returns the storage location of the payload for key.
func (c *Cache) Path(key string) string {
	return c.path(Digest(key))
}

func (c *Cache) path(digest string) string {
	return filepath.Join(c.dir, digest[:2], digest)
}

// GetOrPopulate returns the stored payload for key, invoking populate first when
// the key has not been populated within the marker lifetime and online is true.
// Concurrent callers for the same key share a single populate call.
func (c *Cache) GetOrPopulate(ctx context.Context, key string, online bool, populate PopulateFunc) ([]byte, error) {
	digest := Digest(key)

	if online && !c.marked(digest) {
		// Other waiters share this call, so it must outlive the caller's ctx.
		ch := c.group.DoChan(digest, func() (any, error) {
			if c.marked(digest) {
				return nil, nil
			}
			return nil, c.populate(context.WithoutCancel(ctx), digest, populate)
		})

		select {
		case res := <-ch:
			if res.Err != nil {
				log.Warnf("cache: populate %s: %v", digest, res.Err)
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return c.read(digest)
}

// marked reports whether digest holds an unexpired marker.
func (c *Cache) marked(digest string) bool {
	_, ok := c.markers.Get(digest)
	return ok
}

func (c *Cache) populate(ctx context.Context, digest string, populate PopulateFunc) error {
	data, err := populate(ctx)
	if err != nil {
		return err
	}

	if err := c.write(digest, data); err != nil {
		return fmt.Errorf("write %s: %w", digest, err)
	}

	c.markers.Add(digest, struct{}{})
	return nil
}

// write stores data with a temp-file swap so readers never observe partial payloads.
func (c *Cache) write(digest string, data []byte) error {
	fs := filesystem.API()
	path := c.path(digest)

	if err := fs.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return err
	}

	tmp, err := fs.TempFile(filepath.Dir(path), digest+".*.tmp")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = fs.Remove(tmp.Name())
		return err
	}

	if err := tmp.Close(); err != nil {
		_ = fs.Remove(tmp.Name())
		return err
	}

	return fs.Rename(tmp.Name(), path)
}

func (c *Cache) read(digest string) ([]byte, error) {
	data, err := filesystem.API().ReadFile(c.path(digest))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("cache: read %s: %w", digest, err)
	}
	return data, nil
}

// Exists reports whether key was populated within the marker lifetime and its payload is still on disk.
func (c *Cache) Exists(key string) bool {
	digest := Digest(key)
	if !c.marked(digest) {
		return false
	}

	ok, err := filesystem.API().Exists(c.path(digest))
	return err == nil && ok
}

// Invalidate forgets that key was populated so the next online read refetches it.
func (c *Cache) Invalidate(key string) {
	c.markers.Remove(Digest(key))
}

// Clear drops every marker and removes all stored payloads.
func (c *Cache) Clear() error {
	c.markers.Purge()
	return filesystem.API().RemoveAll(c.dir)
}

// CollectGarbage removes payload files that have not been rewritten within retention.
func (c *Cache) CollectGarbage(retention time.Duration) {
	fs := filesystem.API()
	_ = fs.Walk(c.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if time.Since(info.ModTime()) > retention {
			if err := fs.Remove(path); err != nil {
				log.Warnf("cache: remove %s: %v", path, err)
			}
		}
		return nil
	})
}
