package count

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/doculens/models"
)

// Exit codes of the count command.
const (
	exitPartial = 1 // report written, some documents failed
	exitFatal   = 2
)

// Command returns the count command with its flags.
func Command() *cli.Command {
	return &cli.Command{
		Name:      "count",
		Usage:     "Count vocabulary terms across a folder of documents and write a frequency report",
		UsageText: "doculens count --vocab terms.xlsx --docs ./pdfs --output report.xlsx",
		Flags:     Flags(),
		Action:    CountAction,
	}
}

func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML config file; flags and environment override it",
			EnvVars: []string{"DOCULENS_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "vocab",
			Usage:   "Vocabulary file (.xlsx, .csv or .txt)",
			EnvVars: []string{"DOCULENS_VOCAB"},
		},
		&cli.StringFlag{
			Name:    "docs",
			Aliases: []string{"d"},
			Usage:   "Folder of documents to process",
			EnvVars: []string{"DOCULENS_DOCS"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Report file; the extension picks the format unless --format is set",
			EnvVars: []string{"DOCULENS_OUTPUT"},
		},
		&cli.StringFlag{
			Name:    "format",
			Usage:   "Report format: xlsx, csv, json, yaml",
			EnvVars: []string{"DOCULENS_FORMAT"},
		},
		&cli.StringSliceFlag{
			Name:    "ext",
			Usage:   "Document extensions to pick up from --docs (repeatable)",
			Value:   cli.NewStringSlice(".pdf"),
			EnvVars: []string{"DOCULENS_EXT"},
		},
		&cli.IntFlag{
			Name:    "workers",
			Aliases: []string{"w"},
			Usage:   "Documents processed in parallel",
			Value:   models.DefaultWorkerCount,
			EnvVars: []string{"DOCULENS_WORKERS"},
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Usage:   "Per-document extraction timeout",
			Value:   models.DefaultDocumentTimeout,
			EnvVars: []string{"DOCULENS_TIMEOUT"},
		},
		&cli.Int64Flag{
			Name:    "max-file-size",
			Usage:   "Skip documents larger than this many bytes (0 disables)",
			Value:   models.DefaultMaxFileSize,
			EnvVars: []string{"DOCULENS_MAX_FILE_SIZE"},
		},
		&cli.StringFlag{
			Name:    "mean",
			Usage:   "Overall mean: pooled (total occurrences / total tokens) or per-document",
			Value:   string(models.MeanPooled),
			EnvVars: []string{"DOCULENS_MEAN"},
		},
		&cli.StringFlag{
			Name:    "sort",
			Usage:   "Row order: vocab or total",
			Value:   "vocab",
			EnvVars: []string{"DOCULENS_SORT"},
		},
		&cli.BoolFlag{
			Name:    "keep-columns",
			Usage:   "Copy the extra vocabulary columns into the report",
			EnvVars: []string{"DOCULENS_KEEP_COLUMNS"},
		},
		&cli.BoolFlag{
			Name:    "detect-language",
			Usage:   "Detect the language of each document",
			EnvVars: []string{"DOCULENS_DETECT_LANGUAGE"},
		},
		&cli.StringSliceFlag{
			Name:    "language",
			Usage:   "Candidate language for detection, name or ISO 639-1 code (repeatable)",
			EnvVars: []string{"DOCULENS_LANGUAGES"},
		},
		&cli.StringFlag{
			Name:    "manifest",
			Usage:   "Run manifest path (.yaml or .json); defaults to <output>.manifest.yaml",
			EnvVars: []string{"DOCULENS_MANIFEST"},
		},
		&cli.BoolFlag{
			Name:  "no-manifest",
			Usage: "Do not write a run manifest",
		},
		&cli.StringFlag{
			Name:    "db",
			Usage:   "Run history database path; defaults to doculens.db next to the binary",
			EnvVars: []string{"DOCULENS_DB"},
		},
		&cli.BoolFlag{
			Name:    "no-history",
			Usage:   "Do not record the run in the history database",
			EnvVars: []string{"DOCULENS_NO_HISTORY"},
		},
		&cli.BoolFlag{
			Name:  "no-progress",
			Usage: "Hide the progress bar",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "Only log errors",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Log every document stage",
		},
	}
}

// resolveConfig merges defaults, the optional config file, environment and
// flags, in increasing priority.
func resolveConfig(c *cli.Context) (models.RunConfig, error) {
	cfg := models.DefaultRunConfig()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = models.LoadConfig(path); err != nil {
			return cfg, err
		}
	}

	// flag defaults only win when the config file left the field empty
	setString := func(name string, dst *string) {
		if c.IsSet(name) || *dst == "" {
			*dst = c.String(name)
		}
	}
	setString("vocab", &cfg.Vocabulary)
	setString("docs", &cfg.Documents)
	setString("output", &cfg.Output)
	setString("format", &cfg.Format)
	setString("manifest", &cfg.Manifest)
	setString("db", &cfg.DBPath)

	if c.IsSet("ext") || len(cfg.Extensions) == 0 {
		cfg.Extensions = c.StringSlice("ext")
	}
	if c.IsSet("workers") {
		cfg.WorkerCount = c.Int("workers")
	}
	if c.IsSet("timeout") {
		cfg.DocumentTimeout = c.Duration("timeout")
	}
	if c.IsSet("max-file-size") {
		cfg.MaxFileSize = c.Int64("max-file-size")
	}
	if c.IsSet("mean") {
		cfg.MeanStrategy = models.MeanStrategy(c.String("mean"))
	}
	if c.IsSet("sort") {
		switch c.String("sort") {
		case "total":
			cfg.SortByTotal = true
		case "vocab", "vocabulary":
			cfg.SortByTotal = false
		default:
			return cfg, fmt.Errorf("%w: invalid sort %q (want vocab or total)", models.ErrConfiguration, c.String("sort"))
		}
	}
	if c.IsSet("language") {
		cfg.Languages = c.StringSlice("language")
	}

	setBool := func(name string, dst *bool) {
		if c.IsSet(name) {
			*dst = c.Bool(name)
		}
	}
	setBool("keep-columns", &cfg.KeepMetadata)
	setBool("detect-language", &cfg.DetectLanguage)
	setBool("no-manifest", &cfg.NoManifest)
	setBool("no-history", &cfg.NoHistory)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	cfg.MeanStrategy, _ = models.ParseMeanStrategy(string(cfg.MeanStrategy))
	return cfg, nil
}
