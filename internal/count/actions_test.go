package count

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/doculens/models"
	"github.com/dtnitsch/doculens/pkg/db"
)

// runResolve parses args through the count flags and returns the merged config.
func runResolve(t *testing.T, args ...string) (models.RunConfig, error) {
	t.Helper()

	var (
		cfg models.RunConfig
		err error
	)
	app := &cli.App{
		Name: "doculens",
		Commands: []*cli.Command{{
			Name:  "count",
			Flags: Flags(),
			Action: func(c *cli.Context) error {
				cfg, err = resolveConfig(c)
				return nil
			},
		}},
	}
	require.NoError(t, app.Run(append([]string{"doculens", "count"}, args...)))
	return cfg, err
}

func TestResolveConfig_Flags(t *testing.T) {
	cfg, err := runResolve(t,
		"--vocab", "terms.xlsx", "--docs", "pdfs", "--output", "out.csv",
		"--workers", "4", "--timeout", "30s", "--mean", "average", "--sort", "total",
		"--keep-columns", "--ext", "pdf", "--ext", ".HTML")
	require.NoError(t, err)

	assert.Equal(t, "terms.xlsx", cfg.Vocabulary)
	assert.Equal(t, 4, cfg.WorkerCount)
	assert.Equal(t, 30*time.Second, cfg.DocumentTimeout)
	assert.Equal(t, models.MeanPerDocument, cfg.MeanStrategy)
	assert.True(t, cfg.SortByTotal)
	assert.True(t, cfg.KeepMetadata)
	assert.Equal(t, []string{".pdf", ".html"}, cfg.NormalizedExtensions())
}

func TestResolveConfig_Defaults(t *testing.T) {
	cfg, err := runResolve(t, "--vocab", "v.txt", "--docs", "d", "--output", "o.xlsx")
	require.NoError(t, err)

	assert.Equal(t, models.DefaultWorkerCount, cfg.WorkerCount)
	assert.Equal(t, models.DefaultDocumentTimeout, cfg.DocumentTimeout)
	assert.Equal(t, models.MeanPooled, cfg.MeanStrategy)
	assert.Equal(t, []string{".pdf"}, cfg.Extensions)
	assert.False(t, cfg.SortByTotal)
}

func TestResolveConfig_Priority(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doculens.yaml")
	content := `vocabulary: from-file.xlsx
documents: from-file
output: from-file.xlsx
workers: 2
mean_strategy: per-document
sort_by_total: true
extensions: [".txt"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("DOCULENS_WORKERS", "6")

	cfg, err := runResolve(t, "--config", path, "--output", "from-flag.csv")
	require.NoError(t, err)

	assert.Equal(t, "from-file.xlsx", cfg.Vocabulary)
	assert.Equal(t, "from-flag.csv", cfg.Output)
	assert.Equal(t, 6, cfg.WorkerCount, "environment overrides the config file")
	assert.Equal(t, models.MeanPerDocument, cfg.MeanStrategy)
	assert.True(t, cfg.SortByTotal, "unset --sort keeps the file value")
	assert.Equal(t, []string{".txt"}, cfg.Extensions)
}

func TestResolveConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing vocab", []string{"--docs", "d", "--output", "o.xlsx"}},
		{"bad workers", []string{"--vocab", "v", "--docs", "d", "--output", "o", "--workers", "0"}},
		{"bad mean", []string{"--vocab", "v", "--docs", "d", "--output", "o", "--mean", "median"}},
		{"bad sort", []string{"--vocab", "v", "--docs", "d", "--output", "o", "--sort", "alpha"}},
		{"missing config file", []string{"--config", "/nonexistent/doculens.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runResolve(t, tt.args...)
			assert.ErrorIs(t, err, models.ErrConfiguration)
		})
	}
}

// setupWorkspace writes a vocabulary and three text documents, the second of
// which is not valid UTF-8.
func setupWorkspace(t *testing.T) models.RunConfig {
	t.Helper()
	dir := t.TempDir()
	docs := filepath.Join(dir, "docs")
	require.NoError(t, os.MkdirAll(docs, 0755))

	vocab := filepath.Join(dir, "terms.csv")
	require.NoError(t, os.WriteFile(vocab, []byte("Word,Theme\npolicy,politics\ngovernance,politics\n"), 0644))

	require.NoError(t, os.WriteFile(filepath.Join(docs, "a.txt"), []byte("Policy and governance shape policy."), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "b.txt"), []byte{0xff, 0xfe, 0xfd}, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "c.txt"), []byte("governance"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "notes.md"), []byte("policy"), 0644))

	cfg := models.DefaultRunConfig()
	cfg.Vocabulary = vocab
	cfg.Documents = docs
	cfg.Output = filepath.Join(dir, "out", "report.csv")
	cfg.Extensions = []string{".txt"}
	cfg.KeepMetadata = true
	cfg.DBPath = filepath.Join(dir, "history.db")
	return cfg
}

func TestRun_EndToEnd(t *testing.T) {
	cfg := setupWorkspace(t)

	out, err := Run(context.Background(), cfg, Options{})
	require.NoError(t, err)

	res := out.Result
	assert.Len(t, res.Documents, 3)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "b.txt", res.Errors[0].Document.Name)

	f, err := os.Open(cfg.Output)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"Word", "Theme", "a.txt Count", "a.txt Mean", "b.txt Count", "b.txt Mean", "c.txt Count", "c.txt Mean", "Total", "Overall Mean"}, records[0])
	assert.Equal(t, []string{"policy", "politics", "2", "0.4", "0", "0", "0", "0", "2", "0.3333333333333333"}, records[1])

	assert.FileExists(t, out.ManifestPath)
	assert.Equal(t, filepath.Join(filepath.Dir(cfg.Output), "report.manifest.yaml"), out.ManifestPath)

	database, err := db.OpenPath(out.HistoryPath)
	require.NoError(t, err)
	defer database.Close()
	run, err := database.GetRun(res.RunID)
	require.NoError(t, err)
	assert.Equal(t, 2, run.SuccessCount)
	assert.Equal(t, 1, run.FailedCount)
	assert.Equal(t, 6, run.TotalTokens)
}

func TestRun_NoManifestNoHistory(t *testing.T) {
	cfg := setupWorkspace(t)
	cfg.NoManifest = true
	cfg.NoHistory = true

	out, err := Run(context.Background(), cfg, Options{})
	require.NoError(t, err)
	assert.Empty(t, out.ManifestPath)
	assert.Empty(t, out.HistoryPath)
	assert.NoFileExists(t, cfg.DBPath)
}

func TestRun_ConfigurationErrors(t *testing.T) {
	cfg := setupWorkspace(t)
	cfg.Extensions = []string{".docx"}

	_, err := Run(context.Background(), cfg, Options{})
	assert.ErrorIs(t, err, models.ErrConfiguration)
	assert.NoFileExists(t, cfg.Output)
}

func TestRun_Canceled(t *testing.T) {
	cfg := setupWorkspace(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, cfg, Options{})
	assert.True(t, errors.Is(err, models.ErrCanceled), "error = %v", err)
	assert.NoFileExists(t, cfg.Output)
}

func TestRun_DuplicateDocuments(t *testing.T) {
	cfg := setupWorkspace(t)
	cfg.NoHistory = true
	cfg.NoManifest = true
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Documents, "d.txt"), []byte("Policy and governance shape policy."), 0644))

	out, err := Run(context.Background(), cfg, Options{})
	require.NoError(t, err)

	rows, err := out.Result.Table.Rows()
	require.NoError(t, err)
	policy := rows[0]
	require.Len(t, policy.Cells, 4)
	assert.Equal(t, policy.Cells[0], policy.Cells[3], "identical files get identical columns")
	assert.Equal(t, 4, policy.Total)
	assert.Equal(t, out.Result.Documents[0].Tokens, out.Result.Documents[3].Tokens)
}
