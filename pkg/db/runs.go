package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrRunNotFound is returned when no run matches an id or id prefix.
var ErrRunNotFound = errors.New("run not found")

// Run is one completed count run.
type Run struct {
	RunID         string
	CreatedAt     time.Time
	Duration      time.Duration
	Vocabulary    string
	DocumentsDir  string
	ReportPath    string
	MeanStrategy  string
	TermCount     int
	DocumentCount int
	SuccessCount  int
	FailedCount   int
	TotalTokens   int
}

// RunDocument is the outcome of one document within a run.
type RunDocument struct {
	Position     int
	Name         string
	Path         string
	Status       string
	ErrorType    string
	ErrorMessage string
	Tokens       int
	Language     string
	TopKeywords  []string
}

// RecordRun stores a run and its documents in one transaction.
func (db *DB) RecordRun(run Run, docs []RunDocument) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertRun(tx, run); err != nil {
		return err
	}
	for _, doc := range docs {
		if err := insertRunDocument(tx, run.RunID, doc); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// InsertRun records a run without documents.
func (db *DB) InsertRun(run Run) error {
	return insertRun(db, run)
}

// InsertRunDocument records one document result of an existing run.
func (db *DB) InsertRunDocument(runID string, doc RunDocument) error {
	return insertRunDocument(db, runID, doc)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertRun(e execer, run Run) error {
	_, err := e.Exec(`
		INSERT INTO runs (run_id, duration_ms, vocabulary, documents_dir, report_path, mean_strategy,
		                  term_count, document_count, success_count, failed_count, total_tokens)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.RunID, run.Duration.Milliseconds(), NewNullString(run.Vocabulary), NewNullString(run.DocumentsDir),
		NewNullString(run.ReportPath), run.MeanStrategy, run.TermCount, run.DocumentCount,
		run.SuccessCount, run.FailedCount, run.TotalTokens)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

func insertRunDocument(e execer, runID string, doc RunDocument) error {
	_, err := e.Exec(`
		INSERT INTO run_documents (run_id, position, name, path, status, error_type, error_message,
		                           tokens, language, top_keywords)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, runID, doc.Position, doc.Name, NewNullString(doc.Path), doc.Status, NewNullString(doc.ErrorType),
		NewNullString(doc.ErrorMessage), doc.Tokens, NewNullString(doc.Language), formatKeywordsAsJSON(doc.TopKeywords))
	if err != nil {
		return fmt.Errorf("failed to insert run document: %w", err)
	}
	return nil
}

const runColumns = `run_id, created_at, duration_ms, vocabulary, documents_dir, report_path, mean_strategy,
	term_count, document_count, success_count, failed_count, total_tokens`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var (
		r                                  Run
		durationMs                         int64
		vocabulary, documentsDir, reportTo sql.NullString
	)
	err := s.Scan(&r.RunID, &r.CreatedAt, &durationMs, &vocabulary, &documentsDir, &reportTo, &r.MeanStrategy,
		&r.TermCount, &r.DocumentCount, &r.SuccessCount, &r.FailedCount, &r.TotalTokens)
	if err != nil {
		return r, err
	}
	r.Duration = time.Duration(durationMs) * time.Millisecond
	r.Vocabulary = vocabulary.String
	r.DocumentsDir = documentsDir.String
	r.ReportPath = reportTo.String
	return r, nil
}

// GetRun retrieves a run by its id or by a unique id prefix.
func (db *DB) GetRun(idOrPrefix string) (*Run, error) {
	if idOrPrefix == "" {
		return nil, fmt.Errorf("%w: empty run id", ErrRunNotFound)
	}

	rows, err := db.Query(`SELECT `+runColumns+` FROM runs WHERE run_id = ? OR run_id LIKE ? || '%' LIMIT 2`,
		idOrPrefix, idOrPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if r.RunID == idOrPrefix {
			return &r, nil
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	switch len(runs) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, idOrPrefix)
	case 1:
		return &runs[0], nil
	}
	return nil, fmt.Errorf("run id prefix %q is ambiguous", idOrPrefix)
}

// RunFilter narrows QueryRuns. Limit <= 0 returns every match.
type RunFilter struct {
	FailedOnly bool
	Limit      int
}

// ListRuns retrieves runs ordered by most recent first
func (db *DB) ListRuns(limit int) ([]Run, error) {
	return db.QueryRuns(RunFilter{Limit: limit})
}

// QueryRuns retrieves the runs matching f, most recent first. The limit
// applies after filtering.
func (db *DB) QueryRuns(f RunFilter) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	var args []any
	if f.FailedOnly {
		query += ` WHERE failed_count > 0`
	}
	query += ` ORDER BY created_at DESC, rowid DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRunDocuments retrieves the documents of a run in column order
func (db *DB) GetRunDocuments(runID string) ([]RunDocument, error) {
	rows, err := db.Query(`
		SELECT position, name, path, status, error_type, error_message, tokens, language, top_keywords
		FROM run_documents
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run documents: %w", err)
	}
	defer rows.Close()

	var docs []RunDocument
	for rows.Next() {
		var (
			d                                               RunDocument
			path, errorType, errorMessage, language, topKWs sql.NullString
		)
		if err := rows.Scan(&d.Position, &d.Name, &path, &d.Status, &errorType, &errorMessage,
			&d.Tokens, &language, &topKWs); err != nil {
			return nil, fmt.Errorf("failed to scan run document: %w", err)
		}
		d.Path = path.String
		d.ErrorType = errorType.String
		d.ErrorMessage = errorMessage.String
		d.Language = language.String
		d.TopKeywords = parseKeywords(topKWs.String)
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// formatKeywordsAsJSON formats keywords as a JSON array for storage.
func formatKeywordsAsJSON(keywords []string) sql.NullString {
	if len(keywords) == 0 {
		return sql.NullString{}
	}
	data, err := json.Marshal(keywords)
	if err != nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(data), Valid: true}
}

func parseKeywords(s string) []string {
	if s == "" {
		return nil
	}
	var keywords []string
	if err := json.Unmarshal([]byte(s), &keywords); err != nil {
		return nil
	}
	return keywords
}

// NewNullString creates a sql.NullString from a string value.
func NewNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
