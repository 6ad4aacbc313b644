package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/kailas-cloud/sitesearch/internal/config"
	"github.com/kailas-cloud/sitesearch/internal/version"
)

func main() {
	app := &cli.Command{
		Name:    "sitesearch",
		Usage:   "Keyword search over a site content store",
		Version: version.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env",
				Usage: "Configuration environment (config/<env>.yaml)",
				Value: config.GetEnv(),
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			queryCommand(),
			migrateCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
