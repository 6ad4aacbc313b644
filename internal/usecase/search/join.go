package search

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	domattr "github.com/kailas-cloud/sitesearch/internal/domain/attribute"
	"github.com/kailas-cloud/sitesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/sitesearch/internal/domain/search/plan"
	"github.com/kailas-cloud/sitesearch/internal/domain/search/request"
	domsrc "github.com/kailas-cloud/sitesearch/internal/domain/source"
)

// anyAttributeAlias joins every stored attribute value when attributes are
// searched without an explicit list.
const anyAttributeAlias = "TV"

// joinSet is the output of join planning.
type joinSet struct {
	joins []plan.JoinSpec
	// searchable fields in clause order: attributes first, then externals.
	searchable []filter.FieldRef
	// outputs are projected names that take part in scoring.
	outputs []string
	// attrs are the resolved attributes of includeTVList by name.
	attrs map[string]domattr.Attribute
}

func (js joinSet) hasAlias(alias string) bool {
	for _, j := range js.joins {
		if strings.EqualFold(j.Alias, alias) {
			return true
		}
	}
	return alias == plan.BaseAlias
}

// planJoins resolves attribute and external source joins.
func (s *Service) planJoins(ctx context.Context, opts request.Options, log *zap.Logger) (joinSet, error) {
	js := joinSet{attrs: make(map[string]domattr.Attribute)}
	if opts.IncludeTVs {
		if err := s.attributeJoins(ctx, opts, &js, log); err != nil {
			return joinSet{}, err
		}
	}
	s.externalJoins(opts, &js, log)
	return js, nil
}

func (s *Service) attributeJoins(ctx context.Context, opts request.Options, js *joinSet, log *zap.Logger) error {
	valueTable := s.tables.AttributeValues
	if len(opts.IncludeTVList) == 0 {
		value := mustField(anyAttributeAlias, "value", filter.KindAttribute)
		js.joins = append(js.joins, plan.JoinSpec{
			Alias: anyAttributeAlias,
			Table: valueTable,
			On:    filter.FieldEq{Left: mustField(anyAttributeAlias, "contentid", filter.KindAttribute), Right: plan.BaseField("id")},
		})
		js.searchable = append(js.searchable, value)
		return nil
	}

	if s.attrs == nil {
		return fmt.Errorf("resolve attributes: no attribute repository")
	}
	attrs, err := s.attrs.ByNames(ctx, opts.IncludeTVList)
	if err != nil {
		return fmt.Errorf("resolve attributes: %w", err)
	}
	for _, a := range attrs {
		alias := attributeAlias(a, *js)
		value := mustField(alias, "value", filter.KindAttribute)
		col := plan.Column{Field: value, As: opts.TVPrefix + a.Name()}
		if a.HasDefault() {
			def := a.Default()
			col.Default = &def
			col.Templates = a.Templates()
		}
		join := plan.JoinSpec{
			Alias: alias,
			Table: valueTable,
			On: filter.And(
				filter.FieldEq{Left: mustField(alias, "contentid", filter.KindAttribute), Right: plan.BaseField("id")},
				filter.Cond{Field: mustField(alias, "tmplvarid", filter.KindAttribute), Op: filter.OpEq, Value: a.ID()},
			),
		}
		js.searchable = append(js.searchable, value)
		if shadowsContent(col.As, log) {
			js.joins = append(js.joins, join)
			continue
		}
		join.Columns = []plan.Column{col}
		js.joins = append(js.joins, join)
		js.outputs = append(js.outputs, col.As)
		js.attrs[a.Name()] = a
	}
	return nil
}

// attributeAlias derives "TV<name>" with non-identifier characters replaced.
// A clash with an existing alias gets the attribute id appended.
func attributeAlias(a domattr.Attribute, js joinSet) string {
	var sb strings.Builder
	sb.WriteString(anyAttributeAlias)
	for _, r := range a.Name() {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	alias := sb.String()
	if js.hasAlias(alias) {
		alias = fmt.Sprintf("%s_%d", alias, a.ID())
	}
	return alias
}

func (s *Service) externalJoins(opts request.Options, js *joinSet, log *zap.Logger) {
	for _, raw := range opts.CustomPackages {
		d, err := domsrc.ParseDescriptor(raw)
		if err != nil {
			log.Warn("Skipping package descriptor", zap.String("descriptor", raw), zap.Error(err))
			continue
		}
		if js.hasAlias(d.Class()) {
			log.Warn("Skipping duplicate package class", zap.String("class", d.Class()))
			continue
		}
		src, err := s.resolveSource(d)
		if err != nil {
			log.Warn("Skipping unresolved package", zap.String("class", d.Class()), zap.Error(err))
			continue
		}

		join := plan.JoinSpec{Alias: d.Class(), Table: src.Table(), On: filter.Raw(d.JoinCondition())}
		for _, f := range d.Fields() {
			ref := mustField(d.Class(), f, filter.KindExternal)
			js.searchable = append(js.searchable, ref)
			if shadowsContent(f, log) {
				continue
			}
			join.Columns = append(join.Columns, plan.Column{Field: ref, As: f})
			js.outputs = append(js.outputs, f)
		}
		js.joins = append(js.joins, join)
	}
}

// shadowsContent reports whether an output name would overwrite a content
// column in the result record. Such fields stay searchable but are not
// projected.
func shadowsContent(name string, log *zap.Logger) bool {
	if !plan.IsContentColumn(name) {
		return false
	}
	log.Warn("Not projecting field over content column", zap.String("field", name))
	return true
}

func (s *Service) resolveSource(d domsrc.Descriptor) (domsrc.Source, error) {
	if s.sources == nil {
		return domsrc.New(d.Class(), "", d.Package()) //nolint:wrapcheck // validation error is descriptive
	}
	return s.sources.Resolve(d) //nolint:wrapcheck // registry errors carry the class
}

// mustField builds a reference from identifiers validated upstream.
func mustField(qualifier, column string, kind filter.Kind) filter.FieldRef {
	f, err := filter.NewField(qualifier, column, kind)
	if err != nil {
		panic(err)
	}
	return f
}
