package caching

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dtnitsch/doculens/pkg/extractor"
)

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// countingExtractor records how often each path was extracted.
type countingExtractor struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]bool
}

func (c *countingExtractor) Extract(ctx context.Context, path string) (string, error) {
	c.mu.Lock()
	c.calls[path]++
	c.mu.Unlock()
	if c.fail[path] {
		return "", errors.New("broken")
	}
	return "text of " + filepath.Base(path), nil
}

func (c *countingExtractor) total() int {
	n := 0
	for _, v := range c.calls {
		n += v
	}
	return n
}

func TestExtractor_IdenticalContentExtractedOnce(t *testing.T) {
	dir := t.TempDir()
	a := writeDoc(t, dir, "a.txt", "policy and governance")
	copyOfA := writeDoc(t, dir, "a-copy.txt", "policy and governance")
	b := writeDoc(t, dir, "b.txt", "something else")

	next := &countingExtractor{calls: map[string]int{}}
	e := NewExtractor(next)

	for _, path := range []string{a, copyOfA, b} {
		if _, err := e.Extract(context.Background(), path); err != nil {
			t.Fatalf("Extract(%s) error = %v", path, err)
		}
	}

	if next.total() != 2 {
		t.Errorf("underlying extractor called %d times, want 2", next.total())
	}
	got, _ := e.Extract(context.Background(), copyOfA)
	if got != "text of a.txt" {
		t.Errorf("Extract(copy) = %q, want the text of the first identical file", got)
	}
	if e.Cache.Len() != 2 {
		t.Errorf("Cache.Len() = %d, want 2", e.Cache.Len())
	}
}

func TestExtractor_FailuresNotCached(t *testing.T) {
	dir := t.TempDir()
	bad := writeDoc(t, dir, "bad.txt", "x")

	next := &countingExtractor{calls: map[string]int{}, fail: map[string]bool{bad: true}}
	e := NewExtractor(next)

	for i := 0; i < 2; i++ {
		if _, err := e.Extract(context.Background(), bad); err == nil {
			t.Fatal("Extract() of failing document succeeded")
		}
	}
	if next.calls[bad] != 2 {
		t.Errorf("failures were cached: %d calls, want 2", next.calls[bad])
	}
	if e.Cache.Len() != 0 {
		t.Errorf("Cache.Len() = %d, want 0", e.Cache.Len())
	}
}

func TestExtractor_UnreadableFilePassesThrough(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.pdf")
	want := errors.New("not found")
	e := NewExtractor(extractor.Func(func(ctx context.Context, path string) (string, error) {
		return "", want
	}))

	if _, err := e.Extract(context.Background(), missing); !errors.Is(err, want) {
		t.Errorf("Extract() error = %v, want the underlying error", err)
	}
}

func TestNewCache_StartsEmpty(t *testing.T) {
	if NewCache().Len() != 0 {
		t.Error("NewCache() is not empty")
	}
}
