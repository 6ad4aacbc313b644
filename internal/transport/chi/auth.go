package chi

import (
	"net/http"
	"strings"

	"github.com/kailas-cloud/sitesearch/internal/transport/api"
)

const bearerPrefix = "Bearer "

// publicPaths never require a token.
var publicPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// BearerAuthMiddleware rejects requests without a known Bearer token.
// With no keys configured every request passes.
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	keys := make(map[string]struct{}, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			keys[k] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := publicPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}
			if msg := checkBearer(r.Header.Get("Authorization"), keys); msg != "" {
				writeError(w, http.StatusUnauthorized, api.ErrorResponseCodeUnauthorized, msg)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// checkBearer returns the rejection message, or "" when the header is valid.
func checkBearer(header string, keys map[string]struct{}) string {
	switch {
	case header == "":
		return "missing authorization header"
	case !strings.HasPrefix(header, bearerPrefix):
		return "authorization header must use Bearer scheme"
	}
	if _, ok := keys[strings.TrimPrefix(header, bearerPrefix)]; !ok {
		return "invalid api key"
	}
	return ""
}
