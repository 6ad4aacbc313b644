// Package api is the HTTP contract of the search service: wire types, the
// handler interface and a chi router that binds query parameters.
package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ErrorResponseCode is a machine-readable error code.
type ErrorResponseCode string

// Error codes.
const (
	ErrorResponseCodeBadRequest    ErrorResponseCode = "bad_request"
	ErrorResponseCodeUnauthorized  ErrorResponseCode = "unauthorized"
	ErrorResponseCodeInternalError ErrorResponseCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// HealthResponseStatus is the aggregated status.
type HealthResponseStatus string

// HealthResponseChecks is a single component status.
type HealthResponseChecks string

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status HealthResponseStatus            `json:"status"`
	Checks map[string]HealthResponseChecks `json:"checks"`
}

// DebugInfo mirrors the search debug block.
type DebugInfo struct {
	SearchID string   `json:"search_id"`
	Mode     string   `json:"mode,omitempty"`
	CountSQL string   `json:"count_sql,omitempty"`
	SQL      string   `json:"sql,omitempty"`
	Args     []any    `json:"args,omitempty"`
	Terms    []string `json:"terms,omitempty"`
	Duration string   `json:"duration,omitempty"`
	Message  string   `json:"message,omitempty"`
}

// SearchResponse is the body of GET /search.
type SearchResponse struct {
	Total   int              `json:"total"`
	Results []map[string]any `json:"results"`
	Debug   *DebugInfo       `json:"debug,omitempty"`
}

// SearchParams are the query parameters GET /search accepts. Structural
// options (where, customPackages, docFields) come from server presets only.
type SearchParams struct {
	Q           *string  `form:"q" json:"q,omitempty"`
	PerPage     *int     `form:"perPage" json:"perPage,omitempty"`
	Start       *int     `form:"start" json:"start,omitempty"`
	SortBy      *string  `form:"sortBy" json:"sortBy,omitempty"`
	SortDir     *string  `form:"sortDir" json:"sortDir,omitempty"`
	Ids         *[]int64 `form:"ids" json:"ids,omitempty"`
	IdType      *string  `form:"idType" json:"idType,omitempty"`
	SearchStyle *string  `form:"searchStyle" json:"searchStyle,omitempty"`
	UseAllWords *bool    `form:"useAllWords" json:"useAllWords,omitempty"`
	Debug       *bool    `form:"debug" json:"debug,omitempty"`
}

// ServerInterface is implemented by the HTTP handlers.
type ServerInterface interface {
	// Search handles GET /search.
	Search(w http.ResponseWriter, r *http.Request, params SearchParams)
	// HealthCheck handles GET /health.
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// Metrics handles GET /metrics.
	Metrics(w http.ResponseWriter, r *http.Request)
}

// InvalidParamFormatError reports a query parameter that failed to bind.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// ServerInterfaceWrapper binds parameters and dispatches to the handler.
type ServerInterfaceWrapper struct {
	Handler          ServerInterface
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// Search binds SearchParams from the query string.
func (siw *ServerInterfaceWrapper) Search(w http.ResponseWriter, r *http.Request) {
	var params SearchParams
	q := r.URL.Query()

	bindings := []struct {
		name string
		dest any
	}{
		{"q", &params.Q},
		{"perPage", &params.PerPage},
		{"start", &params.Start},
		{"sortBy", &params.SortBy},
		{"sortDir", &params.SortDir},
		{"ids", &params.Ids},
		{"idType", &params.IdType},
		{"searchStyle", &params.SearchStyle},
		{"useAllWords", &params.UseAllWords},
		{"debug", &params.Debug},
	}
	for _, b := range bindings {
		if err := runtime.BindQueryParameter("form", false, false, b.name, q, b.dest); err != nil {
			siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: b.name, Err: err})
			return
		}
	}

	siw.Handler.Search(w, r, params)
}

// HealthCheck dispatches GET /health.
func (siw *ServerInterfaceWrapper) HealthCheck(w http.ResponseWriter, r *http.Request) {
	siw.Handler.HealthCheck(w, r)
}

// Metrics dispatches GET /metrics.
func (siw *ServerInterfaceWrapper) Metrics(w http.ResponseWriter, r *http.Request) {
	siw.Handler.Metrics(w, r)
}

// ChiServerOptions configures HandlerWithOptions.
type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// Handler creates a router with default options.
func Handler(si ServerInterface) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{})
}

// HandlerWithOptions mounts the routes on the base router.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	wrapper := ServerInterfaceWrapper{
		Handler:          si,
		ErrorHandlerFunc: options.ErrorHandlerFunc,
	}

	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/search", wrapper.Search)
		r.Get(options.BaseURL+"/health", wrapper.HealthCheck)
		r.Get(options.BaseURL+"/metrics", wrapper.Metrics)
	})
	return r
}
