package manifest

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/doculens/pkg/batch"
	"github.com/dtnitsch/doculens/pkg/mapreduce"
	"github.com/dtnitsch/doculens/pkg/storage"
)

const aggregateKeywordLimit = 25

// Paths names the inputs and outputs of a run for the manifest.
type Paths struct {
	Vocabulary string
	Report     string
}

// Generate builds the summary manifest of a finished run.
func Generate(res *batch.Result, paths Paths, s *storage.Storage) SummaryManifest {
	m := SummaryManifest{
		RunID:             res.RunID,
		GeneratedAt:       time.Now().Format(time.RFC3339),
		StartedAt:         res.Started.Format(time.RFC3339),
		FinishedAt:        res.Finished.Format(time.RFC3339),
		DurationMs:        res.Finished.Sub(res.Started).Milliseconds(),
		Vocabulary:        paths.Vocabulary,
		Report:            paths.Report,
		MeanStrategy:      string(res.Table.Strategy()),
		Terms:             len(res.Table.Terms()),
		TotalDocuments:    len(res.Documents),
		AggregateKeywords: mapreduce.TopKeywords(res.Keywords, aggregateKeywordLimit),
	}

	for _, info := range res.Documents {
		summary := DocumentSummary{
			Document:   info.Document.Name,
			Path:       info.Document.Path,
			Tokens:     info.Tokens,
			DurationMs: info.Duration.Milliseconds(),
		}

		// size is informational; a vanished file just leaves it empty
		if stats, err := s.GetFileStats(info.Document.Path); err == nil {
			summary.SizeBytes = stats.SizeBytes
		}

		if info.Error != nil {
			m.Failed++
			summary.Status = StatusError
			summary.ErrorType = info.Error.Type
			if info.Error.Err != nil {
				summary.ErrorMessage = info.Error.Err.Error()
			}
		} else {
			m.Successful++
			summary.Status = StatusSuccess
			summary.Language = info.Language
			summary.TopKeywords = info.TopKeywords
			m.TotalTokens += info.Tokens
		}

		m.Results = append(m.Results, summary)
	}

	return m
}

// Write saves the manifest as YAML, or JSON when path ends in .json.
func Write(path string, m SummaryManifest, s *storage.Storage) error {
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(m, "", "  ")
	} else {
		data, err = yaml.Marshal(m)
	}
	if err != nil {
		return fmt.Errorf("error marshalling manifest: %w", err)
	}

	if err := s.SaveFile(path, data); err != nil {
		return fmt.Errorf("error saving manifest: %w", err)
	}
	return nil
}

// DefaultPath places the manifest beside the report: report.xlsx becomes
// report.manifest.yaml.
func DefaultPath(reportPath string) string {
	ext := filepath.Ext(reportPath)
	return strings.TrimSuffix(reportPath, ext) + ".manifest.yaml"
}
