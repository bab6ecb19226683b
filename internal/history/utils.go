package history

import (
	"fmt"

	"github.com/urfave/cli/v2"

	dbpkg "github.com/dtnitsch/doculens/pkg/db"
)

func openDatabase(c *cli.Context) (*dbpkg.DB, error) {
	database, err := dbpkg.OpenPath(c.String("db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, nil
}

// GetRunIDOrLatest returns the run id (or id prefix) from args, or the latest run if not provided
func GetRunIDOrLatest(c *cli.Context, database *dbpkg.DB) (string, error) {
	if c.NArg() > 0 {
		return c.Args().First(), nil
	}

	runs, err := database.ListRuns(1)
	if err != nil {
		return "", fmt.Errorf("failed to get latest run: %w", err)
	}
	if len(runs) == 0 {
		return "", fmt.Errorf("no runs found. Run 'doculens count --vocab ... --docs ... --output ...' first")
	}
	return runs[0].RunID, nil
}
