// Package search turns a raw query and an option set into a store plan,
// ranks the matches and projects the final page.
package search

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/sitesearch/internal/domain"
	"github.com/kailas-cloud/sitesearch/internal/domain/search/mode"
	"github.com/kailas-cloud/sitesearch/internal/domain/search/request"
	"github.com/kailas-cloud/sitesearch/internal/domain/search/result"
	"github.com/kailas-cloud/sitesearch/internal/domain/search/term"
	"github.com/kailas-cloud/sitesearch/internal/logger"
	"github.com/kailas-cloud/sitesearch/internal/metrics"
)

var nopLogger = zap.NewNop()

// Tables names the store tables used by plans.
type Tables struct {
	Content         string
	AttributeValues string
}

// Service is the search driver: Initialize, Index, RemoveIndex and Search.
type Service struct {
	exec     Executor
	attrs    AttributeRepository
	tables   Tables
	sources  SourceRegistry
	scope    ScopeResolver
	policy   VisibilityChecker
	render   Renderer
	params   ParamSource
	terms    *term.Extractor
	scorer   *Scorer
	context  string
	defaults map[string]string
	logger   *zap.Logger
}

// New creates a search service. exec may be nil, in which case every search
// returns an empty response.
func New(exec Executor, attrs AttributeRepository, tables Tables, logger *zap.Logger) *Service {
	if logger == nil {
		logger = nopLogger
	}
	return &Service{
		exec:   exec,
		attrs:  attrs,
		tables: tables,
		terms:  term.New(nil),
		scorer: NewScorer(nil, 0),
		logger: logger,
	}
}

// WithSources sets the external source registry.
func (s *Service) WithSources(r SourceRegistry) *Service {
	s.sources = r
	return s
}

// WithScope sets the id scope resolver.
func (s *Service) WithScope(r ScopeResolver) *Service {
	s.scope = r
	return s
}

// WithPolicy sets the record visibility checker.
func (s *Service) WithPolicy(p VisibilityChecker) *Service {
	s.policy = p
	return s
}

// WithRenderer sets the attribute renderer used when processTVs is on.
func (s *Service) WithRenderer(r Renderer) *Service {
	s.render = r
	return s
}

// WithParams sets the runtime parameter source consulted by Search.
func (s *Service) WithParams(p ParamSource) *Service {
	s.params = p
	return s
}

// WithScorer replaces the relevance scorer.
func (s *Service) WithScorer(sc *Scorer) *Service {
	if sc != nil {
		s.scorer = sc
	}
	return s
}

// WithTokenizer replaces the word splitter used with useAllWords.
func (s *Service) WithTokenizer(t term.Tokenizer) *Service {
	s.terms = term.New(t)
	return s
}

// WithContext sets the context searched when the contexts option is empty.
func (s *Service) WithContext(key string) *Service {
	s.context = key
	return s
}

// WithDefaults sets option defaults that call-site options override.
func (s *Service) WithDefaults(d map[string]string) *Service {
	s.defaults = d
	return s
}

// Initialize checks that a backend is configured.
func (s *Service) Initialize(_ context.Context) error {
	if s.exec == nil {
		return domain.ErrBackendUnavailable
	}
	s.logger.Info("Search driver initialized",
		zap.String("table", s.tables.Content), zap.String("context", s.context))
	return nil
}

// Index accepts a record; the store is the index, so nothing is written.
func (s *Service) Index(_ context.Context, _ map[string]any) bool { return true }

// RemoveIndex accepts a removal; nothing is written.
func (s *Service) RemoveIndex(_ context.Context, _ string) bool { return true }

// Search resolves options over the configured defaults and runs the query.
// Failures are logged and yield an empty response.
func (s *Service) Search(ctx context.Context, query string, options map[string]string) result.Response {
	return s.SearchWithParams(ctx, query, options, s.params)
}

// SearchWithParams is Search with a per-call runtime parameter source.
func (s *Service) SearchWithParams(
	ctx context.Context, query string, options map[string]string, params ParamSource,
) result.Response {
	req, err := request.New(query, request.Resolve(s.defaults, options))
	if err != nil {
		s.log(ctx).Warn("Rejected search request", zap.Error(err))
		return result.Empty()
	}
	return s.Execute(ctx, req, params)
}

// Execute runs a resolved request. params, when set, may override the
// offset through the offsetIndex parameter.
func (s *Service) Execute(ctx context.Context, req request.Request, params ParamSource) result.Response {
	started := time.Now()
	log := s.log(ctx)
	opts := req.Options()
	if params != nil {
		if v, ok := params.Param(opts.OffsetIndex); ok {
			opts.ApplyOffset(v)
		}
	}

	var dbg *result.DebugInfo
	if opts.Debug {
		dbg = &result.DebugInfo{SearchID: uuid.NewString()}
		log = log.With(zap.String("search_id", dbg.SearchID))
	}

	if s.exec == nil {
		log.Error("Search backend is not configured")
		resp := result.Empty()
		if dbg != nil {
			dbg.Message = domain.ErrBackendUnavailable.Error()
			resp.Debug = dbg
		}
		observe("none", "unavailable", started, 0)
		return resp
	}

	resp, m, err := s.run(ctx, req.Query(), opts, dbg, log)
	if err != nil {
		log.Error("Search failed", zap.String("query", req.Query()), zap.Error(err))
		resp = result.Empty()
		if dbg != nil {
			dbg.Message = err.Error()
		}
	}
	if dbg != nil {
		dbg.Duration = time.Since(started).String()
		resp.Debug = dbg
		log.Debug("Search executed",
			zap.String("mode", dbg.Mode),
			zap.String("sql", dbg.SQL),
			zap.Any("args", dbg.Args),
			zap.String("duration", dbg.Duration))
	}

	status := "ok"
	if err != nil {
		status = "error"
	}
	observe(string(m), status, started, len(resp.Results))
	return resp
}

func (s *Service) run(
	ctx context.Context, query string, opts request.Options, dbg *result.DebugInfo, log *zap.Logger,
) (result.Response, mode.Mode, error) {
	a, err := s.assemble(ctx, query, opts, log)
	if err != nil {
		return result.Response{}, "", err
	}
	if dbg != nil {
		dbg.Terms = a.terms
	}

	total, err := s.exec.Count(ctx, a.base)
	if err != nil {
		return result.Response{}, "", fmt.Errorf("count matches: %w", err)
	}

	m, sort := chooseMode(a, total, opts)
	var src ResultSource
	if m == mode.SQLSorted {
		src = newSQLSortedSource(s.exec, a.base, sort, opts.PerPage, opts.Start)
	} else {
		src = newScoredSource(s.exec, a.base, s.scorer, a.terms, potencyFields(opts, a.joins), opts)
	}
	if dbg != nil {
		dbg.Mode = string(m)
		if ex, ok := s.exec.(Explainer); ok {
			dbg.CountSQL, dbg.SQL, dbg.Args = ex.Explain(src.Plan())
		}
	}

	if total == 0 {
		return result.Empty(), m, nil
	}

	rows, err := src.Page(ctx)
	if err != nil {
		return result.Response{}, m, err
	}
	rows, err = s.project(ctx, rows, opts, log)
	if err != nil {
		return result.Response{}, m, err
	}
	return result.Response{Total: total, Results: rows}, m, nil
}

func (s *Service) log(ctx context.Context) *zap.Logger {
	return logger.FromContextOr(ctx, s.logger)
}

func observe(m, status string, started time.Time, results int) {
	if m == "" {
		m = "none"
	}
	metrics.SearchTotal.WithLabelValues(m, status).Inc()
	metrics.SearchDuration.WithLabelValues(m).Observe(time.Since(started).Seconds())
	if status == "ok" {
		metrics.SearchResults.Observe(float64(results))
	}
}
