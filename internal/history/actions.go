package history

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	dbpkg "github.com/dtnitsch/doculens/pkg/db"
	"github.com/dtnitsch/doculens/pkg/manifest"
)

// Command returns the history command and its subcommands.
func Command() *cli.Command {
	dbFlag := &cli.StringFlag{
		Name:    "db",
		Usage:   "Run history database path; defaults to doculens.db next to the binary",
		EnvVars: []string{"DOCULENS_DB"},
	}

	return &cli.Command{
		Name:   "history",
		Usage:  "List recorded count runs",
		Flags:  []cli.Flag{dbFlag, limitFlag(), failedFlag()},
		Action: RunsAction,
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List recorded runs, newest first",
				Flags:  []cli.Flag{dbFlag, limitFlag(), failedFlag()},
				Action: RunsAction,
			},
			{
				Name:      "show",
				Usage:     "Show the documents and failures of one run",
				ArgsUsage: "[run-id]",
				Flags:     []cli.Flag{dbFlag},
				Action:    RunAction,
			},
		},
	}
}

func limitFlag() cli.Flag {
	return &cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20, Usage: "Maximum runs to list (0 for all)"}
}

func failedFlag() cli.Flag {
	return &cli.BoolFlag{Name: "failed", Usage: "Only runs with failed documents"}
}

// RunsAction lists recorded runs
func RunsAction(c *cli.Context) error {
	database, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer database.Close()

	runs, err := database.QueryRuns(dbpkg.RunFilter{
		FailedOnly: c.Bool("failed"),
		Limit:      c.Int("limit"),
	})
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	w := c.App.Writer
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found")
		return nil
	}

	fmt.Fprintf(w, "%-10s %-20s %-6s %-8s %-8s %-10s %-14s %s\n",
		"Run", "Created", "Docs", "Success", "Failed", "Tokens", "Mean", "Report")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for _, r := range runs {
		fmt.Fprintf(w, "%-10s %-20s %-6d %-8d %-8d %-10s %-14s %s\n",
			shortID(r.RunID),
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.DocumentCount,
			r.SuccessCount,
			r.FailedCount,
			humanize.Comma(int64(r.TotalTokens)),
			r.MeanStrategy,
			r.ReportPath,
		)
	}

	fmt.Fprintf(w, "\nTotal: %d runs\n", len(runs))
	fmt.Fprintf(w, "\nTip: Use 'doculens history show <run-id>' to see details\n")
	return nil
}

// RunAction shows details for a specific run
func RunAction(c *cli.Context) error {
	database, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer database.Close()

	runID, err := GetRunIDOrLatest(c, database)
	if err != nil {
		return err
	}

	run, err := database.GetRun(runID)
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}

	docs, err := database.GetRunDocuments(run.RunID)
	if err != nil {
		return fmt.Errorf("failed to get run documents: %w", err)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Run %s\n", run.RunID)
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "Created:     %s (%s)\n", run.CreatedAt.Format("2006-01-02 15:04:05"), humanize.Time(run.CreatedAt))
	fmt.Fprintf(w, "Duration:    %s\n", run.Duration)
	fmt.Fprintf(w, "Vocabulary:  %s (%d terms)\n", run.Vocabulary, run.TermCount)
	fmt.Fprintf(w, "Documents:   %s\n", run.DocumentsDir)
	fmt.Fprintf(w, "Report:      %s\n", run.ReportPath)
	fmt.Fprintf(w, "Mean:        %s\n", run.MeanStrategy)
	fmt.Fprintf(w, "Results:     %d total (%d success, %d failed), %s tokens\n",
		run.DocumentCount, run.SuccessCount, run.FailedCount, humanize.Comma(int64(run.TotalTokens)))

	fmt.Fprintf(w, "\nDocuments (%d):\n", len(docs))
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for _, d := range docs {
		fmt.Fprintf(w, "%2d. [%s] %s\n", d.Position+1, d.Status, d.Name)
		if d.Status == manifest.StatusError {
			fmt.Fprintf(w, "    Error: [%s] %s\n", d.ErrorType, d.ErrorMessage)
			continue
		}
		line := fmt.Sprintf("    Tokens: %s", humanize.Comma(int64(d.Tokens)))
		if d.Language != "" {
			line += " | Language: " + d.Language
		}
		fmt.Fprintln(w, line)
		if len(d.TopKeywords) > 0 {
			fmt.Fprintf(w, "    Keywords: %s\n", strings.Join(d.TopKeywords, ", "))
		}
	}

	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
