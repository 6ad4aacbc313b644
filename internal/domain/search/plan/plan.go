// Package plan describes a store-agnostic search query: base table, joins,
// projection, filters, ordering and pagination.
package plan

import (
	"slices"
	"strings"

	"github.com/kailas-cloud/sitesearch/internal/domain/search/filter"
)

// BaseAlias is the alias of the content table in every plan.
const BaseAlias = "content"

// ContentColumns are the known columns of the content table.
var ContentColumns = []string{
	"id", "parent", "pagetitle", "longtitle", "alias", "description", "introtext",
	"content", "template", "context_key", "published", "searchable", "deleted",
	"hidemenu", "menuindex", "publishedon", "createdon", "editedon",
}

// IsContentColumn reports whether name is a known content column.
func IsContentColumn(name string) bool {
	return slices.Contains(ContentColumns, name)
}

// BaseField returns a content column reference. It panics on an invalid
// identifier and is meant for constant column names.
func BaseField(column string) filter.FieldRef {
	f, err := filter.NewField(BaseAlias, column, filter.KindBase)
	if err != nil {
		panic(err)
	}
	return f
}

// Direction is a sort direction.
type Direction string

// Sort directions.
const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// ParseDirection normalizes a direction token.
func ParseDirection(s string) (Direction, bool) {
	switch Direction(strings.ToUpper(strings.TrimSpace(s))) {
	case Asc:
		return Asc, true
	case Desc:
		return Desc, true
	}
	return "", false
}

// SortKey is one ORDER BY entry.
type SortKey struct {
	Field filter.FieldRef
	Dir   Direction
}

// Column is an extra projected column. A NULL field yields Default for records
// whose template is listed in Templates and an empty string otherwise.
type Column struct {
	Field     filter.FieldRef
	Default   *string
	Templates []int64
	As        string
}

// JoinSpec describes one LEFT JOIN.
type JoinSpec struct {
	Alias   string
	Table   string
	On      filter.Node
	Columns []Column
}

// Plan is a fully merged search query.
type Plan struct {
	Table   string
	Joins   []JoinSpec
	Filters []filter.Node
	Groups  []filter.TermGroup
	Sort    []SortKey
	// Limit 0 means no limit.
	Limit  int
	Offset int
}

// Columns returns the extra projected columns of all joins in join order.
func (p Plan) Columns() []Column {
	var out []Column
	for _, j := range p.Joins {
		out = append(out, j.Columns...)
	}
	return out
}

// Distinct reports whether rows must be de-duplicated.
func (p Plan) Distinct() bool { return len(p.Joins) > 0 }

// Where returns the combined condition: identity filters and every term
// group, all ANDed.
func (p Plan) Where() filter.Node {
	nodes := make([]filter.Node, 0, len(p.Filters)+len(p.Groups))
	nodes = append(nodes, p.Filters...)
	for _, g := range p.Groups {
		nodes = append(nodes, g.Node())
	}
	return filter.And(nodes...)
}

// WithPage returns a copy with ordering and pagination replaced.
func (p Plan) WithPage(sort []SortKey, limit, offset int) Plan {
	p.Sort = sort
	p.Limit = limit
	p.Offset = offset
	return p
}
