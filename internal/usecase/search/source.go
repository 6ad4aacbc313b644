package search

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/sitesearch/internal/domain/search/mode"
	"github.com/kailas-cloud/sitesearch/internal/domain/search/plan"
	"github.com/kailas-cloud/sitesearch/internal/domain/search/request"
	"github.com/kailas-cloud/sitesearch/internal/domain/search/result"
	"github.com/kailas-cloud/sitesearch/internal/metrics"
)

// ResultSource yields one ordered, paginated page of records.
type ResultSource interface {
	Page(ctx context.Context) ([]result.Record, error)
	Mode() mode.Mode
	// Plan returns the plan the source fetches with.
	Plan() plan.Plan
}

// sqlSortedSource lets the store order and slice.
type sqlSortedSource struct {
	exec Executor
	plan plan.Plan
}

func newSQLSortedSource(exec Executor, base plan.Plan, sort []plan.SortKey, perPage, start int) *sqlSortedSource {
	return &sqlSortedSource{exec: exec, plan: base.WithPage(sort, perPage, start)}
}

func (s *sqlSortedSource) Page(ctx context.Context) ([]result.Record, error) {
	rows, err := s.exec.Fetch(ctx, s.plan)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	return rows, nil
}

func (s *sqlSortedSource) Mode() mode.Mode { return mode.SQLSorted }

func (s *sqlSortedSource) Plan() plan.Plan { return s.plan }

// scoredSource fetches every match in id order, ranks in memory and slices.
type scoredSource struct {
	exec    Executor
	plan    plan.Plan
	scorer  *Scorer
	terms   []string
	fields  []weightedField
	style   request.SearchStyle
	perPage int
	start   int
}

func newScoredSource(
	exec Executor, base plan.Plan, scorer *Scorer,
	terms []string, fields []weightedField, opts request.Options,
) *scoredSource {
	return &scoredSource{
		exec:    exec,
		plan:    base.WithPage([]plan.SortKey{{Field: plan.BaseField("id"), Dir: plan.Asc}}, 0, 0),
		scorer:  scorer,
		terms:   terms,
		fields:  fields,
		style:   opts.SearchStyle,
		perPage: opts.PerPage,
		start:   opts.Start,
	}
}

func (s *scoredSource) Page(ctx context.Context) ([]result.Record, error) {
	rows, err := s.exec.Fetch(ctx, s.plan)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}
	metrics.ScoredRowsTotal.Add(float64(len(rows)))

	ranked := s.scorer.Rank(rows, s.terms, s.fields, s.style)
	return paginate(ranked, s.start, s.perPage), nil
}

func (s *scoredSource) Mode() mode.Mode { return mode.Scored }

func (s *scoredSource) Plan() plan.Plan { return s.plan }

// paginate slices ranked rows; perPage 0 means everything from start.
func paginate(ranked []result.Scored, start, perPage int) []result.Record {
	if start >= len(ranked) {
		return []result.Record{}
	}
	end := len(ranked)
	if perPage > 0 {
		end = min(start+perPage, len(ranked))
	}
	out := make([]result.Record, 0, end-start)
	for _, r := range ranked[start:end] {
		out = append(out, r.Record)
	}
	return out
}
