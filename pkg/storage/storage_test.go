package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dtnitsch/doculens/models"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestListDocuments(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.pdf"), "b")
	writeFile(t, filepath.Join(dir, "a.PDF"), "a")
	writeFile(t, filepath.Join(dir, "notes.txt"), "skip")
	writeFile(t, filepath.Join(dir, ".hidden.pdf"), "skip")
	if err := os.Mkdir(filepath.Join(dir, "sub.pdf"), 0755); err != nil {
		t.Fatal(err)
	}

	s := &Storage{}
	docs, err := s.ListDocuments(dir, []string{".pdf"})
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}

	if len(docs) != 2 {
		t.Fatalf("ListDocuments() returned %d docs, want 2: %+v", len(docs), docs)
	}
	if docs[0].Name != "a.PDF" || docs[0].Index != 0 {
		t.Errorf("docs[0] = %+v, want a.PDF at index 0", docs[0])
	}
	if docs[1].Name != "b.pdf" || docs[1].Index != 1 {
		t.Errorf("docs[1] = %+v, want b.pdf at index 1", docs[1])
	}
}

func TestListDocuments_Empty(t *testing.T) {
	s := &Storage{}
	_, err := s.ListDocuments(t.TempDir(), []string{".pdf"})
	if !errors.Is(err, models.ErrConfiguration) {
		t.Errorf("ListDocuments() on empty dir error = %v, want ErrConfiguration", err)
	}
}

func TestListDocuments_MissingDir(t *testing.T) {
	s := &Storage{}
	_, err := s.ListDocuments(filepath.Join(t.TempDir(), "nope"), []string{".pdf"})
	if !errors.Is(err, models.ErrConfiguration) {
		t.Errorf("ListDocuments() on missing dir error = %v, want ErrConfiguration", err)
	}
}

func TestSaveFile_CreatesParents(t *testing.T) {
	s := &Storage{}
	path := filepath.Join(t.TempDir(), "out", "nested", "report.csv")

	if err := s.SaveFile(path, []byte("x")); err != nil {
		t.Fatalf("SaveFile() error = %v", err)
	}
	if !s.HasFile(path) {
		t.Error("HasFile() = false after SaveFile")
	}

	stats, err := s.GetFileStats(path)
	if err != nil {
		t.Fatalf("GetFileStats() error = %v", err)
	}
	if stats.SizeBytes != 1 {
		t.Errorf("SizeBytes = %d, want 1", stats.SizeBytes)
	}
}
