// Package extractor pulls plain text out of PDF, HTML and text files.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dtnitsch/doculens/pkg/storage"
)

var (
	// ErrUnsupported is returned for files whose extension has no extractor.
	ErrUnsupported = errors.New("unsupported document type")
	// ErrTooLarge is returned for files above the configured size limit.
	ErrTooLarge = errors.New("document too large")
)

// Extractor returns the full text of one document. A readable document with
// no text returns "" and a nil error.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Func adapts a function to an Extractor.
type Func func(ctx context.Context, path string) (string, error)

func (f Func) Extract(ctx context.Context, path string) (string, error) { return f(ctx, path) }

// Registry dispatches on file extension.
type Registry struct {
	byExt       map[string]Extractor
	maxFileSize int64
	storage     *storage.Storage
}

// NewRegistry returns a registry with the PDF, HTML and text extractors
// installed. maxFileSize <= 0 disables the size check.
func NewRegistry(maxFileSize int64) *Registry {
	r := &Registry{
		byExt:       make(map[string]Extractor),
		maxFileSize: maxFileSize,
		storage:     &storage.Storage{},
	}

	pdf := &PDF{}
	html := &HTML{}
	text := &Text{}
	r.Register(".pdf", pdf)
	r.Register(".html", html)
	r.Register(".htm", html)
	r.Register(".txt", text)
	r.Register(".md", text)
	return r
}

// Register installs or replaces the extractor for ext (".pdf").
func (r *Registry) Register(ext string, e Extractor) {
	r.byExt[strings.ToLower(ext)] = e
}

// Supports reports whether ext has an extractor.
func (r *Registry) Supports(ext string) bool {
	_, ok := r.byExt[strings.ToLower(ext)]
	return ok
}

// Extensions lists the registered extensions, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func (r *Registry) Extract(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	e, ok := r.byExt[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}

	if r.maxFileSize > 0 {
		stats, err := r.storage.GetFileStats(path)
		if err != nil {
			return "", err
		}
		if stats.SizeBytes > r.maxFileSize {
			return "", fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrTooLarge, stats.SizeBytes, r.maxFileSize)
		}
	}

	return e.Extract(ctx, path)
}
