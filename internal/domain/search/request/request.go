package request

import "fmt"

// MaxQueryLength is the maximum allowed search query length.
const MaxQueryLength = 4096

// Request is a search query with its resolved options. Immutable for the
// duration of one search call.
type Request struct {
	query   string
	options Options
}

// New validates a search request. An empty query is allowed and lists all
// records passing the identity filters.
func New(query string, opts Options) (Request, error) {
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	return Request{query: query, options: opts}, nil
}

// Query returns the raw search query text.
func (r Request) Query() string { return r.query }

// Options returns the resolved options.
func (r Request) Options() Options { return r.options }
