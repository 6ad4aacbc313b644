package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create the content store tables if they do not exist",
		Action: func(ctx context.Context, c *cli.Command) error {
			a, err := newApp(ctx, c.String("env"), true)
			if err != nil {
				return err
			}
			a.Close()
			return nil
		},
	}
}
