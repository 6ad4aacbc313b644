package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/kailas-cloud/sitesearch/internal/domain/search/request"
	"github.com/kailas-cloud/sitesearch/internal/repository/policy"
	searchuc "github.com/kailas-cloud/sitesearch/internal/usecase/search"
)

func queryCommand() *cli.Command {
	return &cli.Command{
		Name:      "query",
		Usage:     "Run one search and print the response as JSON",
		ArgsUsage: "<search text>",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "opt",
				Usage: "Search option as key=value (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:  "param",
				Usage: "Runtime request parameter as key=value (repeatable)",
			},
			&cli.StringFlag{
				Name:  "groups",
				Usage: "Comma-separated resource group ids of the caller",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			opts, err := parsePairs(c.StringSlice("opt"))
			if err != nil {
				return fmt.Errorf("--opt: %w", err)
			}
			params, err := parsePairs(c.StringSlice("param"))
			if err != nil {
				return fmt.Errorf("--param: %w", err)
			}
			query := strings.Join(c.Args().Slice(), " ")
			return runQuery(ctx, c.String("env"), query, opts, params, request.ParseIDs(c.String("groups")))
		},
	}
}

func runQuery(
	ctx context.Context, env, query string, opts, params map[string]string, groups []int64,
) error {
	a, err := newApp(ctx, env, false)
	if err != nil {
		return err
	}
	defer a.Close()

	if len(groups) > 0 {
		ctx = policy.ContextWithGroups(ctx, groups)
	}
	resp := a.search.SearchWithParams(ctx, query, opts, searchuc.Params(params))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	return nil
}

// parsePairs reads key=value flag values.
func parsePairs(raw []string) (map[string]string, error) {
	out := make(map[string]string, len(raw))
	for _, kv := range raw {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("expected key=value, got %q", kv)
		}
		out[strings.TrimSpace(k)] = v
	}
	return out, nil
}
