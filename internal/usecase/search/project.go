package search

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"go.uber.org/zap"

	"github.com/kailas-cloud/sitesearch/internal/domain/search/plan"
	"github.com/kailas-cloud/sitesearch/internal/domain/search/request"
	"github.com/kailas-cloud/sitesearch/internal/domain/search/result"
)

// project drops records the caller may not list and attaches attribute
// values. It runs on the final page in both modes, so a page can hold fewer
// than perPage records.
func (s *Service) project(ctx context.Context, rows []result.Record, opts request.Options, log *zap.Logger) ([]result.Record, error) {
	visible, err := s.filterVisible(ctx, rows)
	if err != nil {
		return nil, err
	}
	if !opts.AttachAttributes() || len(visible) == 0 {
		return visible, nil
	}
	return s.attach(ctx, visible, opts, log)
}

func (s *Service) filterVisible(ctx context.Context, rows []result.Record) ([]result.Record, error) {
	out := make([]result.Record, 0, len(rows))
	if s.policy == nil {
		return append(out, rows...), nil
	}
	ids := recordIDs(rows)
	if len(ids) == 0 {
		return out, nil
	}
	vis, err := s.policy.Visible(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("check visibility: %w", err)
	}
	for _, r := range rows {
		if id, ok := r.ID(); ok && vis[id] {
			out = append(out, r)
		}
	}
	return out, nil
}

// attach adds every attribute owned by a record's template under
// prefix+name: the stored value or the template default, rendered when
// processTVs is set.
func (s *Service) attach(ctx context.Context, rows []result.Record, opts request.Options, log *zap.Logger) ([]result.Record, error) {
	if s.attrs == nil {
		return rows, nil
	}
	var templates []int64
	for _, r := range rows {
		if t, ok := r.Int("template"); ok && !slices.Contains(templates, t) {
			templates = append(templates, t)
		}
	}
	attrs, err := s.attrs.ForTemplates(ctx, templates)
	if err != nil {
		return nil, fmt.Errorf("load template attributes: %w", err)
	}
	if len(attrs) == 0 {
		return rows, nil
	}
	attrIDs := make([]int64, len(attrs))
	for i, a := range attrs {
		attrIDs[i] = a.ID()
	}
	values, err := s.attrs.Values(ctx, recordIDs(rows), attrIDs)
	if err != nil {
		return nil, fmt.Errorf("load attribute values: %w", err)
	}

	out := make([]result.Record, len(rows))
	for i, r := range rows {
		rec := maps.Clone(r)
		id, _ := r.ID()
		tpl, _ := r.Int("template")
		for _, a := range attrs {
			if !a.OwnedBy(tpl) || plan.IsContentColumn(opts.TVPrefix+a.Name()) {
				continue
			}
			stored, ok := values[id][a.ID()]
			v := a.ValueFor(tpl, stored, ok)
			if opts.ProcessTVs && s.render != nil {
				rendered, err := s.render.Render(ctx, a, id, v)
				if err != nil {
					log.Warn("Failed to render attribute",
						zap.Int64("id", id), zap.String("attribute", a.Name()), zap.Error(err))
				} else {
					v = rendered
				}
			}
			rec[opts.TVPrefix+a.Name()] = v
		}
		out[i] = rec
	}
	return out, nil
}

func recordIDs(rows []result.Record) []int64 {
	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		if id, ok := r.ID(); ok {
			ids = append(ids, id)
		}
	}
	return ids
}
