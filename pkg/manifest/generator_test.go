package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/doculens/models"
	"github.com/dtnitsch/doculens/pkg/batch"
	"github.com/dtnitsch/doculens/pkg/extractor"
	"github.com/dtnitsch/doculens/pkg/storage"
	"github.com/dtnitsch/doculens/pkg/vocabulary"
)

func setupResult(t *testing.T) *batch.Result {
	t.Helper()

	dir := t.TempDir()
	good := filepath.Join(dir, "good.txt")
	bad := filepath.Join(dir, "bad.pdf")
	if err := os.WriteFile(good, []byte("climate policy climate"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bad, []byte("%PDF-broken"), 0644); err != nil {
		t.Fatal(err)
	}

	vocab, err := vocabulary.New([]vocabulary.Entry{{Text: "policy", Row: 1}})
	if err != nil {
		t.Fatal(err)
	}

	d := batch.NewDriver(batch.Settings{
		Extractor: extractor.Func(func(ctx context.Context, path string) (string, error) {
			if path == bad {
				return "", errors.New("no xref table")
			}
			data, err := os.ReadFile(path)
			return string(data), err
		}),
	})
	res, err := d.Run(context.Background(), []models.Document{
		{Name: "good.txt", Path: good},
		{Name: "bad.pdf", Path: bad},
	}, vocab)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return res
}

func TestGenerate(t *testing.T) {
	res := setupResult(t)
	m := Generate(res, Paths{Vocabulary: "terms.xlsx", Report: "out.xlsx"}, &storage.Storage{})

	if m.RunID != res.RunID {
		t.Errorf("RunID = %q, want %q", m.RunID, res.RunID)
	}
	if m.TotalDocuments != 2 || m.Successful != 1 || m.Failed != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/1/1", m.TotalDocuments, m.Successful, m.Failed)
	}
	if m.TotalTokens != 3 {
		t.Errorf("TotalTokens = %d, want 3", m.TotalTokens)
	}
	if len(m.AggregateKeywords) == 0 || m.AggregateKeywords[0] != "climate:2" {
		t.Errorf("AggregateKeywords = %v, want climate:2 first", m.AggregateKeywords)
	}

	good := m.Results[0]
	if good.Status != StatusSuccess || good.SizeBytes != int64(len("climate policy climate")) {
		t.Errorf("good result = %+v", good)
	}
	bad := m.Results[1]
	if bad.Status != StatusError || bad.ErrorType != models.ErrorTypeExtract || bad.ErrorMessage != "no xref table" {
		t.Errorf("bad result = %+v", bad)
	}
	if bad.TopKeywords != nil {
		t.Errorf("failed document has keywords %v", bad.TopKeywords)
	}
}

func TestWrite(t *testing.T) {
	res := setupResult(t)
	s := &storage.Storage{}
	m := Generate(res, Paths{}, s)
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "run.manifest.yaml")
	if err := Write(yamlPath, m, s); err != nil {
		t.Fatalf("Write(yaml) error = %v", err)
	}
	data, _ := os.ReadFile(yamlPath)
	var fromYAML SummaryManifest
	if err := yaml.Unmarshal(data, &fromYAML); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}
	if fromYAML.RunID != m.RunID || len(fromYAML.Results) != 2 {
		t.Errorf("yaml manifest = %+v", fromYAML)
	}

	jsonPath := filepath.Join(dir, "nested", "run.json")
	if err := Write(jsonPath, m, s); err != nil {
		t.Fatalf("Write(json) error = %v", err)
	}
	data, _ = os.ReadFile(jsonPath)
	var fromJSON SummaryManifest
	if err := json.Unmarshal(data, &fromJSON); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if fromJSON.Failed != 1 {
		t.Errorf("json manifest failed = %d, want 1", fromJSON.Failed)
	}
}

func TestDefaultPath(t *testing.T) {
	tests := map[string]string{
		"out/report.xlsx": "out/report.manifest.yaml",
		"report.csv":      "report.manifest.yaml",
		"report":          "report.manifest.yaml",
	}
	for in, want := range tests {
		if got := DefaultPath(in); got != want {
			t.Errorf("DefaultPath(%q) = %q, want %q", in, got, want)
		}
	}
}
