// Package caching shares extracted text between byte-identical documents of
// one run. Nothing is kept once the run ends.
package caching

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dtnitsch/doculens/pkg/extractor"
)

// Cache maps a content hash to extracted text. It lives in memory only.
type Cache struct {
	mu      sync.Mutex
	entries map[string]string
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]string)}
}

// key generates a SHA256 hash of the file content.
func (c *Cache) key(docPath string) (string, error) {
	f, err := os.Open(docPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// Get retrieves the text of a previously extracted document with the same content.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	text, ok := c.entries[key]
	return text, ok
}

// Set stores extracted text under a content hash.
func (c *Cache) Set(key, text string) {
	c.mu.Lock()
	c.entries[key] = text
	c.mu.Unlock()
}

// Len returns the number of distinct documents cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Extractor serves duplicate documents from the cache and fills it on a
// miss. Failed extractions are never cached, and a file that cannot be
// hashed goes straight to Next.
type Extractor struct {
	Next  extractor.Extractor
	Cache *Cache
}

// NewExtractor wraps next with a fresh cache.
func NewExtractor(next extractor.Extractor) *Extractor {
	return &Extractor{Next: next, Cache: NewCache()}
}

func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	key, err := e.Cache.key(path)
	if err != nil {
		return e.Next.Extract(ctx, path)
	}
	if text, ok := e.Cache.Get(key); ok {
		return text, nil
	}

	text, err := e.Next.Extract(ctx, path)
	if err != nil {
		return "", err
	}
	if ctx.Err() == nil {
		e.Cache.Set(key, text)
	}
	return text, nil
}
