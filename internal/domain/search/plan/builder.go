package plan

import "github.com/kailas-cloud/sitesearch/internal/domain/search/filter"

// Builder is a fluent builder for search plans.
type Builder struct {
	p Plan
}

// New starts building a plan over the given content table.
func New(table string) *Builder {
	return &Builder{p: Plan{Table: table}}
}

// Join adds LEFT JOINs.
func (b *Builder) Join(joins ...JoinSpec) *Builder {
	b.p.Joins = append(b.p.Joins, joins...)
	return b
}

// Filter adds identity filters. Nil nodes are ignored.
func (b *Builder) Filter(nodes ...filter.Node) *Builder {
	for _, n := range nodes {
		if n != nil {
			b.p.Filters = append(b.p.Filters, n)
		}
	}
	return b
}

// Group adds term groups.
func (b *Builder) Group(groups ...filter.TermGroup) *Builder {
	b.p.Groups = append(b.p.Groups, groups...)
	return b
}

// OrderBy appends sort keys.
func (b *Builder) OrderBy(keys ...SortKey) *Builder {
	b.p.Sort = append(b.p.Sort, keys...)
	return b
}

// Page sets limit and offset. Negative values are clamped to zero.
func (b *Builder) Page(limit, offset int) *Builder {
	b.p.Limit = max(limit, 0)
	b.p.Offset = max(offset, 0)
	return b
}

// Build returns the plan.
func (b *Builder) Build() Plan {
	return b.p
}
