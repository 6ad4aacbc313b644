package search

import (
	"go.uber.org/zap"

	"github.com/kailas-cloud/sitesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/sitesearch/internal/domain/search/plan"
)

// buildGroups creates one term group per term over the searchable fields.
// Terms are expected to be capped already; groups without fields are omitted.
func buildGroups(terms []string, fields []filter.FieldRef, wildcard bool, c filter.Combinator) []filter.TermGroup {
	groups := make([]filter.TermGroup, 0, len(terms))
	for _, t := range terms {
		if g, ok := filter.NewTermGroup(t, fields, wildcard, c); ok {
			groups = append(groups, g)
		}
	}
	return groups
}

// docFieldRefs resolves the docFields option against the content table.
// Entries that are not plain or dotted identifiers are dropped.
func docFieldRefs(names []string, log *zap.Logger) []filter.FieldRef {
	out := make([]filter.FieldRef, 0, len(names))
	for _, n := range names {
		f, err := filter.ParseField(n, plan.BaseAlias, filter.KindBase)
		if err != nil {
			log.Warn("Skipping invalid search field", zap.String("field", n), zap.Error(err))
			continue
		}
		out = append(out, f)
	}
	return out
}
