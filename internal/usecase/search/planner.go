package search

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/sitesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/sitesearch/internal/domain/search/mode"
	"github.com/kailas-cloud/sitesearch/internal/domain/search/plan"
	"github.com/kailas-cloud/sitesearch/internal/domain/search/request"
)

// assembly is a merged plan without ordering and pagination, plus what is
// needed to pick a result source once the total is known.
type assembly struct {
	base     plan.Plan
	terms    []string
	joins    joinSet
	sort     []plan.SortKey
	fallback []plan.SortKey
}

// assemble merges term groups, joins and identity filters into one plan.
func (s *Service) assemble(ctx context.Context, query string, opts request.Options, log *zap.Logger) (assembly, error) {
	terms := s.terms.Extract(query, opts.UseAllWords, opts.MaxWords)

	js, err := s.planJoins(ctx, opts, log)
	if err != nil {
		return assembly{}, err
	}

	fields := append(docFieldRefs(opts.DocFields, log), js.searchable...)
	groups := buildGroups(terms, fields, opts.MatchWildcard, opts.Combinator)

	identity, err := s.identityFilters(ctx, opts)
	if err != nil {
		return assembly{}, err
	}

	base := plan.New(s.tables.Content).
		Join(js.joins...).
		Filter(identity...).
		Group(groups...).
		Build()

	a := assembly{
		base:  base,
		terms: terms,
		joins: js,
		sort:  resolveSort(opts.SortBy, opts.SortDir, opts.TVPrefix, js, log),
	}
	fallbackField := opts.FallbackSortBy
	if fallbackField == "" {
		fallbackField = request.DefaultFallbackSortBy
	}
	a.fallback = resolveSort([]string{fallbackField}, []string{string(plan.Asc)}, opts.TVPrefix, js, log)
	if len(a.fallback) == 0 {
		a.fallback = []plan.SortKey{{Field: plan.BaseField("id"), Dir: plan.Asc}}
	}
	return a, nil
}

// chooseMode picks SQL-side ordering when a sort is requested or the match
// count exceeds the in-memory ceiling, and relevance ranking otherwise.
func chooseMode(a assembly, total int, opts request.Options) (mode.Mode, []plan.SortKey) {
	if len(a.sort) > 0 {
		return mode.SQLSorted, a.sort
	}
	if opts.MaxInMemorySort > 0 && total > opts.MaxInMemorySort {
		return mode.SQLSorted, a.fallback
	}
	return mode.Scored, nil
}

// identityFilters returns the fixed visibility and scope predicates.
func (s *Service) identityFilters(ctx context.Context, opts request.Options) ([]filter.Node, error) {
	nodes := []filter.Node{
		filter.Cond{Field: plan.BaseField("published"), Op: filter.OpEq, Value: int64(1)},
		filter.Cond{Field: plan.BaseField("searchable"), Op: filter.OpEq, Value: int64(1)},
		filter.Cond{Field: plan.BaseField("deleted"), Op: filter.OpEq, Value: int64(0)},
	}

	contexts := opts.Contexts
	if len(contexts) == 0 && s.context != "" {
		contexts = []string{s.context}
	}
	if len(contexts) > 0 {
		nodes = append(nodes, filter.Cond{Field: plan.BaseField("context_key"), Op: filter.OpIn, Value: stringArgs(contexts)})
	}

	if opts.HideMenu != request.HideMenuIgnore {
		nodes = append(nodes, filter.Cond{Field: plan.BaseField("hidemenu"), Op: filter.OpEq, Value: int64(opts.HideMenu)})
	}

	scope, err := s.scopeFilter(ctx, opts)
	if err != nil {
		return nil, err
	}
	if scope != nil {
		nodes = append(nodes, scope)
	}

	if w := filter.ParseWhere(opts.Where, plan.BaseAlias); w != nil {
		nodes = append(nodes, w)
	}
	return nodes, nil
}

// scopeFilter restricts ids: the expanded include list minus excludes, or a
// NOT IN of the excludes alone.
func (s *Service) scopeFilter(ctx context.Context, opts request.Options) (filter.Node, error) {
	id := plan.BaseField("id")
	if len(opts.IDs) == 0 {
		if len(opts.Exclude) == 0 {
			return nil, nil
		}
		return filter.Cond{Field: id, Op: filter.OpNotIn, Value: int64Args(opts.Exclude)}, nil
	}

	ids := slices.Clone(opts.IDs)
	if s.scope != nil && opts.Depth > 0 {
		var more []int64
		var err error
		switch opts.IDType {
		case request.Parents:
			more, err = s.scope.Descendants(ctx, opts.IDs, opts.Depth)
		case request.Ancestors:
			more, err = s.scope.Ancestors(ctx, opts.IDs, opts.Depth)
		case request.Documents:
		}
		if err != nil {
			return nil, fmt.Errorf("expand %s scope: %w", opts.IDType, err)
		}
		ids = append(ids, more...)
	}
	ids = slices.DeleteFunc(ids, func(v int64) bool { return slices.Contains(opts.Exclude, v) })
	return filter.Cond{Field: id, Op: filter.OpIn, Value: int64Args(ids)}, nil
}

// resolveSort maps sort names to fields. Content columns come first, then
// attribute outputs (with or without prefix), then raw identifiers. A
// missing or invalid direction repeats the previous one.
func resolveSort(names, dirs []string, prefix string, js joinSet, log *zap.Logger) []plan.SortKey {
	keys := make([]plan.SortKey, 0, len(names))
	dir := plan.Desc
	for i, name := range names {
		if i < len(dirs) {
			if d, ok := plan.ParseDirection(dirs[i]); ok {
				dir = d
			}
		}
		f, ok := sortField(strings.TrimSpace(name), prefix, js)
		if !ok {
			log.Warn("Dropping invalid sort field", zap.String("field", name))
			continue
		}
		keys = append(keys, plan.SortKey{Field: f, Dir: dir})
	}
	return keys
}

func sortField(name, prefix string, js joinSet) (filter.FieldRef, bool) {
	if plan.IsContentColumn(name) {
		return plan.BaseField(name), true
	}
	if _, ok := js.attrs[name]; ok {
		return filter.Output(prefix + name), true
	}
	if prefix != "" && strings.HasPrefix(name, prefix) {
		if _, ok := js.attrs[strings.TrimPrefix(name, prefix)]; ok {
			return filter.Output(name), true
		}
	}
	f, err := filter.ParseField(name, "", filter.KindBase)
	if err != nil {
		return filter.FieldRef{}, false
	}
	return f, true
}

func int64Args(ids []int64) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

func stringArgs(vals []string) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}
