package search

import (
	"context"

	domattr "github.com/kailas-cloud/sitesearch/internal/domain/attribute"
	"github.com/kailas-cloud/sitesearch/internal/domain/search/plan"
	"github.com/kailas-cloud/sitesearch/internal/domain/search/result"
	domsrc "github.com/kailas-cloud/sitesearch/internal/domain/source"
)

// Executor runs search plans against the content store.
type Executor interface {
	Count(ctx context.Context, p plan.Plan) (int, error)
	Fetch(ctx context.Context, p plan.Plan) ([]result.Record, error)
}

// Explainer renders the statements an Executor would run. Executors that
// implement it have their SQL surfaced in debug output.
type Explainer interface {
	Explain(p plan.Plan) (countSQL, selectSQL string, args []any)
}

// AttributeRepository reads attribute definitions and stored values.
type AttributeRepository interface {
	ByNames(ctx context.Context, names []string) ([]domattr.Attribute, error)
	ForTemplates(ctx context.Context, templates []int64) ([]domattr.Attribute, error)
	Values(ctx context.Context, contentIDs, attrIDs []int64) (map[int64]map[int64]string, error)
}

// Renderer produces the display form of an attribute value.
type Renderer interface {
	Render(ctx context.Context, a domattr.Attribute, contentID int64, value string) (string, error)
}

// VisibilityChecker decides which records the caller may list.
type VisibilityChecker interface {
	Visible(ctx context.Context, ids []int64) (map[int64]bool, error)
}

// ParamSource supplies runtime request parameters such as the offset override.
type ParamSource interface {
	Param(name string) (string, bool)
}

// SourceRegistry resolves external package descriptors to sources.
type SourceRegistry interface {
	Resolve(d domsrc.Descriptor) (domsrc.Source, error)
}

// ScopeResolver expands id scopes through the content tree.
type ScopeResolver interface {
	Descendants(ctx context.Context, ids []int64, depth int) ([]int64, error)
	Ancestors(ctx context.Context, ids []int64, depth int) ([]int64, error)
}

// Params is a static ParamSource.
type Params map[string]string

// Param returns the named parameter.
func (p Params) Param(name string) (string, bool) {
	v, ok := p[name]
	return v, ok
}
