// Package batch runs a vocabulary over a set of documents and builds the
// aggregation table.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtnitsch/doculens/models"
	"github.com/dtnitsch/doculens/pkg/analytics"
	"github.com/dtnitsch/doculens/pkg/extractor"
	"github.com/dtnitsch/doculens/pkg/mapreduce"
	"github.com/dtnitsch/doculens/pkg/progress"
	"github.com/dtnitsch/doculens/pkg/table"
	"github.com/dtnitsch/doculens/pkg/vocabulary"
)

// ErrTimeout marks an extraction that ran past the per-document timeout.
var ErrTimeout = errors.New("extraction timed out")

const defaultTopKeywords = 10

// LanguageDetector guesses the language of a document's text.
type LanguageDetector interface {
	Detect(text string) string
}

// Settings configures a Driver. Zero values fall back to defaults.
type Settings struct {
	Workers         int
	DocumentTimeout time.Duration
	MeanStrategy    models.MeanStrategy
	Extractor       extractor.Extractor
	Detector        LanguageDetector // optional
	Progress        progress.Sink
	Logger          *slog.Logger
	TopKeywords     int // keywords kept per document for the manifest
}

// DocumentInfo is what a run learned about one document.
type DocumentInfo struct {
	Document    models.Document
	Tokens      int
	Language    string
	TopKeywords []string
	Duration    time.Duration
	Error       *models.DocumentError

	wordCounts map[string]int
}

func (d DocumentInfo) Failed() bool { return d.Error != nil }

// Result is the outcome of a completed run.
type Result struct {
	RunID     string
	Table     *table.Table
	Documents []DocumentInfo          // input order
	Errors    []*models.DocumentError // input order
	Keywords  map[string]int          // word counts over every readable document
	Started   time.Time
	Finished  time.Time
}

func (r *Result) Successful() int { return len(r.Documents) - len(r.Errors) }

func (r *Result) Failed() int { return len(r.Errors) }

// Driver processes one batch. It is single use.
type Driver struct {
	settings Settings

	mu    sync.Mutex
	state State
}

func NewDriver(s Settings) *Driver {
	if s.Workers < 1 {
		s.Workers = models.DefaultWorkerCount
	}
	if s.DocumentTimeout <= 0 {
		s.DocumentTimeout = models.DefaultDocumentTimeout
	}
	if s.MeanStrategy == "" {
		s.MeanStrategy = models.MeanPooled
	}
	if s.Progress == nil {
		s.Progress = progress.Discard
	}
	if s.Logger == nil {
		s.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if s.TopKeywords <= 0 {
		s.TopKeywords = defaultTopKeywords
	}
	return &Driver{settings: s}
}

// State returns the current lifecycle state.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Driver) setState(s State) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}

// Run extracts, tokenizes and counts every document, then finalizes the
// table. Configuration problems are returned before any document is touched.
// A failing document gets a zero column and an entry in Result.Errors; the
// run carries on. If ctx is canceled the run stops between documents and
// returns an error wrapping models.ErrCanceled.
func (d *Driver) Run(ctx context.Context, docs []models.Document, vocab *vocabulary.Vocabulary) (*Result, error) {
	d.mu.Lock()
	if d.state != NotStarted {
		state := d.state
		d.mu.Unlock()
		return nil, fmt.Errorf("%w: driver already used (state %s)", models.ErrInvariantViolation, state)
	}
	d.mu.Unlock()

	if vocab == nil || vocab.Len() == 0 {
		return nil, fmt.Errorf("%w: vocabulary is empty", models.ErrConfiguration)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no documents to process", models.ErrConfiguration)
	}
	if d.settings.Extractor == nil {
		return nil, fmt.Errorf("%w: no extractor configured", models.ErrConfiguration)
	}
	strategy, err := models.ParseMeanStrategy(string(d.settings.MeanStrategy))
	if err != nil {
		return nil, err
	}
	d.settings.MeanStrategy = strategy

	// Column order is input order, whatever Index values the caller set.
	ordered := make([]models.Document, len(docs))
	for i, doc := range docs {
		doc.Index = i
		ordered[i] = doc
	}

	d.setState(Running)
	r := &run{
		settings: d.settings,
		logger:   d.settings.Logger,
		vocab:    vocab,
		docs:     ordered,
		table:    table.New(vocab.Terms(), ordered, d.settings.MeanStrategy),
		infos:    make([]DocumentInfo, len(ordered)),
	}
	res := &Result{RunID: uuid.NewString(), Started: time.Now()}

	r.logger.Info("Starting batch", "run_id", res.RunID, "documents", len(ordered), "terms", vocab.Len(), "workers", d.settings.Workers)
	r.process(ctx)

	// a cancel that lands after the last document keeps the complete table
	if err := ctx.Err(); err != nil && r.completed < len(ordered) {
		d.setState(Canceled)
		r.logger.Warn("Batch canceled", "run_id", res.RunID, "completed", r.completed, "total", len(ordered))
		return nil, fmt.Errorf("%w: %w", models.ErrCanceled, err)
	}
	if r.recordErr != nil {
		d.setState(Canceled)
		return nil, r.recordErr
	}

	d.setState(Finalizing)
	if err := r.table.Finalize(); err != nil {
		d.setState(Canceled)
		return nil, err
	}

	counts := make([]map[string]int, 0, len(r.infos))
	for i := range r.infos {
		info := &r.infos[i]
		if info.Error != nil {
			res.Errors = append(res.Errors, info.Error)
		}
		if info.wordCounts != nil {
			counts = append(counts, info.wordCounts)
			info.wordCounts = nil
		}
	}
	res.Keywords = mapreduce.Reduce(counts)
	res.Table = r.table
	res.Documents = r.infos
	res.Finished = time.Now()

	d.setState(Done)
	r.logger.Info("Batch finished", "run_id", res.RunID, "successful", res.Successful(), "failed", res.Failed(), "duration", res.Finished.Sub(res.Started))
	return res, nil
}

// run holds the mutable state of one Driver.Run.
type run struct {
	settings Settings
	logger   *slog.Logger
	vocab    *vocabulary.Vocabulary
	docs     []models.Document
	table    *table.Table
	infos    []DocumentInfo // written once per index by the owning worker

	mu        sync.Mutex
	completed int
	recordErr error
}

func (r *run) process(ctx context.Context) {
	var wg sync.WaitGroup
	jobs := make(chan int)

	for w := 1; w <= r.settings.Workers; w++ {
		wg.Add(1)
		go r.worker(ctx, w, &wg, jobs)
	}

dispatch:
	for i := range r.docs {
		if ctx.Err() != nil {
			break
		}
		select {
		case jobs <- i:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()
}

func (r *run) worker(ctx context.Context, id int, wg *sync.WaitGroup, jobs <-chan int) {
	defer wg.Done()
	a := analytics.NewAnalytics()

	for i := range jobs {
		if ctx.Err() != nil {
			continue
		}
		r.processDocument(ctx, id, a, i)
	}
}

func (r *run) processDocument(ctx context.Context, workerID int, a *analytics.Analytics, i int) {
	doc := r.docs[i]
	start := time.Now()
	info := DocumentInfo{Document: doc}
	res := table.DocumentResult{Document: doc}

	r.logger.Debug("Document stage", "worker_id", workerID, "document", doc.Name, "stage", stageExtracting)
	text, err := r.extract(ctx, doc.Path)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		info.Error = &models.DocumentError{Document: doc, Type: classify(err), Err: err}
		res.Counts = mapreduce.Zero(r.vocab)
		res.Failed = true
		r.logger.Warn("Document failed", "worker_id", workerID, "document", doc.Name, "error_type", info.Error.Type, "error", err)
	} else {
		r.logger.Debug("Document stage", "worker_id", workerID, "document", doc.Name, "stage", stageCounting)
		if r.settings.Detector != nil {
			info.Language = r.settings.Detector.Detect(text)
		}
		tokens := a.Tokenize(text)
		freq := mapreduce.Map(tokens)
		res.Tokens = len(tokens)
		res.Counts = mapreduce.Count(r.vocab, freq, len(tokens))
		info.Tokens = len(tokens)
		info.TopKeywords = mapreduce.TopKeywords(freq, r.settings.TopKeywords)
		info.wordCounts = freq
	}
	info.Duration = time.Since(start)

	if err := r.table.RecordDocument(res); err != nil {
		r.mu.Lock()
		if r.recordErr == nil {
			r.recordErr = err
		}
		r.mu.Unlock()
		return
	}
	r.infos[i] = info
	r.logger.Debug("Document stage", "worker_id", workerID, "document", doc.Name, "stage", stageRecorded, "tokens", info.Tokens)

	r.mu.Lock()
	r.completed++
	r.settings.Progress.Report(progress.Event{
		Completed: r.completed,
		Total:     len(r.docs),
		Index:     i,
		Name:      doc.Name,
		Failed:    info.Failed(),
	})
	r.mu.Unlock()
}

// extract runs the extractor under the per-document timeout. An extractor
// that ignores its context is abandoned once the timeout fires.
func (r *run) extract(ctx context.Context, path string) (string, error) {
	dctx, cancel := context.WithTimeout(ctx, r.settings.DocumentTimeout)
	defer cancel()

	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		text, err := r.settings.Extractor.Extract(dctx, path)
		done <- outcome{text, err}
	}()

	select {
	case out := <-done:
		if out.err != nil && errors.Is(dctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return "", fmt.Errorf("%w after %s: %v", ErrTimeout, r.settings.DocumentTimeout, out.err)
		}
		return out.text, out.err
	case <-dctx.Done():
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("%w after %s", ErrTimeout, r.settings.DocumentTimeout)
	}
}

// classify maps an extraction error to its document error type.
func classify(err error) string {
	switch {
	case errors.Is(err, extractor.ErrUnsupported):
		return models.ErrorTypeUnsupported
	case errors.Is(err, extractor.ErrTooLarge):
		return models.ErrorTypeTooLarge
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return models.ErrorTypeTimeout
	}
	return models.ErrorTypeExtract
}
