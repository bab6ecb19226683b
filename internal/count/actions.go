package count

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/doculens/models"
	"github.com/dtnitsch/doculens/pkg/batch"
	"github.com/dtnitsch/doculens/pkg/caching"
	"github.com/dtnitsch/doculens/pkg/db"
	"github.com/dtnitsch/doculens/pkg/detector"
	"github.com/dtnitsch/doculens/pkg/extractor"
	"github.com/dtnitsch/doculens/pkg/manifest"
	"github.com/dtnitsch/doculens/pkg/progress"
	"github.com/dtnitsch/doculens/pkg/report"
	"github.com/dtnitsch/doculens/pkg/storage"
)

func CountAction(c *cli.Context) error {
	logLevel := slog.LevelInfo
	if c.Bool("verbose") {
		logLevel = slog.LevelDebug
	}
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	cfg, err := resolveConfig(c)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return cli.Exit(err.Error(), exitFatal)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var bar io.Writer
	if !c.Bool("no-progress") && !c.Bool("quiet") {
		bar = os.Stderr
	}

	out, err := Run(ctx, cfg, Options{Logger: logger, ProgressOut: bar})
	if err != nil {
		if errors.Is(err, models.ErrCanceled) {
			logger.Error("run canceled, no report written", "error", err)
		} else {
			logger.Error("run failed", "error", err)
		}
		return cli.Exit(err.Error(), exitFatal)
	}

	printSummary(c.App.Writer, out)

	if out.Result.Failed() > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d documents could not be read", out.Result.Failed(), len(out.Result.Documents)), exitPartial)
	}
	return nil
}

// Options carries the ambient dependencies of Run.
type Options struct {
	Logger      *slog.Logger
	ProgressOut io.Writer // progress bar destination; nil disables the bar
}

// Outcome is what a completed count run produced.
type Outcome struct {
	Result       *batch.Result
	ReportPath   string
	ManifestPath string
	HistoryPath  string
	InputBytes   int64
}

// Run executes one count run from a resolved config: read the vocabulary,
// list and process the documents, then write the report, the manifest and
// the history record.
func Run(ctx context.Context, cfg models.RunConfig, opts Options) (*Outcome, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	s := &storage.Storage{}

	format := report.FormatFromPath(cfg.Output)
	if cfg.Format != "" {
		var err error
		if format, err = report.ParseFormat(cfg.Format); err != nil {
			return nil, err
		}
	}

	vocab, err := report.ReadVocabulary(cfg.Vocabulary)
	if err != nil {
		return nil, err
	}
	logger.Info("Vocabulary loaded", "path", cfg.Vocabulary, "terms", vocab.Len())

	docs, err := s.ListDocuments(cfg.Documents, cfg.NormalizedExtensions())
	if err != nil {
		return nil, err
	}

	var inputBytes int64
	for _, doc := range docs {
		if stats, err := s.GetFileStats(doc.Path); err == nil {
			inputBytes += stats.SizeBytes
		}
	}
	logger.Info("Documents found", "folder", cfg.Documents, "count", len(docs), "bytes", inputBytes)

	ext := caching.NewExtractor(extractor.NewRegistry(cfg.MaxFileSize))

	settings := batch.Settings{
		Workers:         cfg.WorkerCount,
		DocumentTimeout: cfg.DocumentTimeout,
		MeanStrategy:    cfg.MeanStrategy,
		Extractor:       ext,
		Logger:          logger,
		Progress:        progress.Log{Logger: logger},
	}
	if cfg.DetectLanguage {
		det, err := detector.New(cfg.Languages)
		if err != nil {
			return nil, err
		}
		settings.Detector = det
		logger.Info("Language detection enabled", "languages", det.Languages())
	}

	var bar *progress.Bar
	if opts.ProgressOut != nil {
		bar = progress.NewBar(opts.ProgressOut, len(docs))
		settings.Progress = progress.Multi{bar, settings.Progress}
	}

	res, err := batch.NewDriver(settings).Run(ctx, docs, vocab)
	if bar != nil {
		bar.Stop()
	}
	if err != nil {
		return nil, err
	}

	out := &Outcome{Result: res, ReportPath: cfg.Output, InputBytes: inputBytes}

	err = report.Write(cfg.Output, format, res.Table, report.Options{
		KeepMetadata:    cfg.KeepMetadata,
		MetadataHeaders: vocab.Headers(),
		SortByTotal:     cfg.SortByTotal,
		Failures:        res.Errors,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}
	logger.Info("Report written", "path", cfg.Output, "format", format)

	if !cfg.NoManifest {
		path := cfg.Manifest
		if path == "" {
			path = manifest.DefaultPath(cfg.Output)
		}
		m := manifest.Generate(res, manifest.Paths{Vocabulary: cfg.Vocabulary, Report: cfg.Output}, s)
		if err := manifest.Write(path, m, s); err != nil {
			logger.Warn("failed to write manifest", "path", path, "error", err)
		} else {
			out.ManifestPath = path
		}
	}

	if !cfg.NoHistory {
		path, err := recordHistory(cfg, res)
		if err != nil {
			logger.Warn("failed to record run history", "error", err)
		} else {
			out.HistoryPath = path
		}
	}

	return out, nil
}

func recordHistory(cfg models.RunConfig, res *batch.Result) (string, error) {
	database, err := db.OpenPath(cfg.DBPath)
	if err != nil {
		return "", err
	}
	defer database.Close()

	run, docs := historyRecord(cfg, res)
	if err := database.RecordRun(run, docs); err != nil {
		return "", err
	}
	return database.Path(), nil
}

// historyRecord converts a finished run into its database rows.
func historyRecord(cfg models.RunConfig, res *batch.Result) (db.Run, []db.RunDocument) {
	run := db.Run{
		RunID:         res.RunID,
		Duration:      res.Finished.Sub(res.Started),
		Vocabulary:    cfg.Vocabulary,
		DocumentsDir:  cfg.Documents,
		ReportPath:    cfg.Output,
		MeanStrategy:  string(res.Table.Strategy()),
		TermCount:     len(res.Table.Terms()),
		DocumentCount: len(res.Documents),
		SuccessCount:  res.Successful(),
		FailedCount:   res.Failed(),
	}

	docs := make([]db.RunDocument, len(res.Documents))
	for i, info := range res.Documents {
		d := db.RunDocument{
			Position: info.Document.Index,
			Name:     info.Document.Name,
			Path:     info.Document.Path,
			Status:   manifest.StatusSuccess,
			Tokens:   info.Tokens,
			Language: info.Language,
		}
		if info.Error != nil {
			d.Status = manifest.StatusError
			d.ErrorType = info.Error.Type
			if info.Error.Err != nil {
				d.ErrorMessage = info.Error.Err.Error()
			}
		} else {
			d.TopKeywords = info.TopKeywords
			run.TotalTokens += info.Tokens
		}
		docs[i] = d
	}
	return run, docs
}

func printSummary(w io.Writer, out *Outcome) {
	if w == nil {
		w = os.Stdout
	}
	res := out.Result

	var tokens int64
	for _, info := range res.Documents {
		tokens += int64(info.Tokens)
	}

	fmt.Fprintf(w, "Processed %d documents (%s, %s tokens) in %s\n",
		len(res.Documents), humanize.Bytes(uint64(out.InputBytes)), humanize.Comma(tokens),
		res.Finished.Sub(res.Started).Round(time.Millisecond))
	fmt.Fprintf(w, "  Successful: %d\n", res.Successful())
	fmt.Fprintf(w, "  Failed:     %d\n", res.Failed())
	for _, e := range res.Errors {
		fmt.Fprintf(w, "    - %s [%s] %v\n", e.Document.Name, e.Type, e.Err)
	}
	fmt.Fprintf(w, "Report:   %s\n", out.ReportPath)
	if out.ManifestPath != "" {
		fmt.Fprintf(w, "Manifest: %s\n", out.ManifestPath)
	}
	if out.HistoryPath != "" {
		fmt.Fprintf(w, "Run ID:   %s (doculens history show %s)\n", res.RunID, shortID(res.RunID))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
