package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/doculens/internal/count"
	"github.com/dtnitsch/doculens/internal/history"
	"github.com/dtnitsch/doculens/pkg/help"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "doculens",
		Usage:   "Count vocabulary terms across a batch of documents",
		Version: version,
		Commands: []*cli.Command{
			count.Command(),
			history.Command(),
			{
				Name:  "quickstart",
				Usage: "Print a YAML quick start",
				Action: func(c *cli.Context) error {
					fmt.Fprint(c.App.Writer, help.QuickstartYAML)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
