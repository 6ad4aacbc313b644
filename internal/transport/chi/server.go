package chi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/sitesearch/internal/domain/search/request"
	"github.com/kailas-cloud/sitesearch/internal/domain/search/result"
	"github.com/kailas-cloud/sitesearch/internal/repository/policy"
	"github.com/kailas-cloud/sitesearch/internal/transport/api"
	healthuc "github.com/kailas-cloud/sitesearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/sitesearch/internal/usecase/search"
)

// GroupsHeader carries the caller's resource group ids as a comma
// separated list. The server trusts it as-is: only a reverse proxy that
// authenticates the user may set it, and deployments must strip it from
// client requests at the edge. Without the header the caller gets the
// anonymous view.
const GroupsHeader = "X-User-Groups"

// Server implements api.ServerInterface.
type Server struct {
	search  *searchuc.Service
	health  *healthuc.Service
	presets map[string]string
	logger  *zap.Logger
}

var _ api.ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server. presets are option values applied
// before the per-request parameters.
func NewServer(
	search *searchuc.Service,
	health *healthuc.Service,
	presets map[string]string,
	logger *zap.Logger,
) *Server {
	return &Server{
		search:  search,
		health:  health,
		presets: presets,
		logger:  logger,
	}
}

// Search handles GET /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request, params api.SearchParams) {
	query := ""
	if params.Q != nil {
		query = strings.TrimSpace(*params.Q)
	}
	if len(query) > request.MaxQueryLength {
		s.logger.Debug("Rejected oversized query", zap.Int("length", len(query)))
		writeError(w, http.StatusBadRequest, api.ErrorResponseCodeBadRequest,
			"query too long (max "+strconv.Itoa(request.MaxQueryLength)+" chars)")
		return
	}

	ctx := r.Context()
	if groups := request.ParseIDs(r.Header.Get(GroupsHeader)); len(groups) > 0 {
		ctx = policy.ContextWithGroups(ctx, groups)
	}

	resp := s.search.SearchWithParams(ctx, query, s.options(params), queryParams(r.URL.Query()))
	writeJSON(w, http.StatusOK, responseToAPI(resp))
}

// options layers request parameters over the server presets.
func (s *Server) options(p api.SearchParams) map[string]string {
	out := make(map[string]string, len(s.presets)+8)
	for k, v := range s.presets {
		out[k] = v
	}
	setString(out, request.KeySortBy, p.SortBy)
	setString(out, request.KeySortDir, p.SortDir)
	setString(out, request.KeyIDType, p.IdType)
	setString(out, request.KeySearchStyle, p.SearchStyle)
	setInt(out, request.KeyPerPage, p.PerPage)
	setInt(out, request.KeyStart, p.Start)
	setBool(out, request.KeyUseAllWords, p.UseAllWords)
	setBool(out, request.KeyDebug, p.Debug)
	if p.Ids != nil {
		ids := make([]string, len(*p.Ids))
		for i, id := range *p.Ids {
			ids[i] = strconv.FormatInt(id, 10)
		}
		out[request.KeyIDs] = strings.Join(ids, ",")
	}
	return out
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]api.HealthResponseChecks, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = api.HealthResponseChecks(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, api.HealthResponse{
		Status: api.HealthResponseStatus(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// queryParams exposes the raw query string as runtime parameters.
type queryParams url.Values

func (q queryParams) Param(name string) (string, bool) {
	v, ok := q[name]
	if !ok || len(v) == 0 {
		return "", false
	}
	return v[0], true
}

func responseToAPI(resp result.Response) api.SearchResponse {
	out := api.SearchResponse{
		Total:   resp.Total,
		Results: make([]map[string]any, len(resp.Results)),
	}
	for i, rec := range resp.Results {
		out.Results[i] = rec
	}
	if d := resp.Debug; d != nil {
		out.Debug = &api.DebugInfo{
			SearchID: d.SearchID,
			Mode:     d.Mode,
			CountSQL: d.CountSQL,
			SQL:      d.SQL,
			Args:     d.Args,
			Terms:    d.Terms,
			Duration: d.Duration,
			Message:  d.Message,
		}
	}
	return out
}

func setString(m map[string]string, key string, v *string) {
	if v != nil {
		m[key] = *v
	}
}

func setInt(m map[string]string, key string, v *int) {
	if v != nil {
		m[key] = strconv.Itoa(*v)
	}
}

func setBool(m map[string]string, key string, v *bool) {
	if v == nil {
		return
	}
	if *v {
		m[key] = "1"
		return
	}
	m[key] = "0"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code api.ErrorResponseCode, message string) {
	writeJSON(w, status, api.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
