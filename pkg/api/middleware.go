package api

import (
	"log"
	"net/http"
	"strings"
	"time"
)

// NormalizePath collapses a prefix repeated at the start of path, so
// "/api/api/products" becomes "/api/products". It is idempotent.
func NormalizePath(path, prefix string) string {
	if prefix == "" || prefix == "/" {
		return path
	}
	doubled := prefix + prefix
	for strings.HasPrefix(path, doubled) && (len(path) == len(doubled) || path[len(doubled)] == '/') {
		path = path[len(prefix):]
	}
	return path
}

// PathNormalizer rewrites duplicated prefixes before the request reaches the
// router. It must wrap the router rather than be registered with Use, since
// router middleware only runs after a route matched.
func PathNormalizer(prefix string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if normalized := NormalizePath(r.URL.Path, prefix); normalized != r.URL.Path {
			log.Printf("INFO: Rewrote request path %s to %s", r.URL.Path, normalized)
			r.URL.Path = normalized
			r.URL.RawPath = ""
		}
		next.ServeHTTP(w, r)
	})
}

// RequestLogger logs the method, URL path, and duration for each request.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		elapsed := time.Since(start)
		log.Printf("INFO: Request %s %s took %s", r.Method, r.URL.Path, elapsed)
	})
}

// CORS wraps an http.Handler with CORS headers.
func CORS(next http.Handler, allowedOrigins []string) http.Handler {
	// Fast path: wildcard allows everything.
	allowAll := len(allowedOrigins) == 1 && allowedOrigins[0] == "*"

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowAll {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		} else if origin != "" {
			for _, o := range allowedOrigins {
				if strings.TrimSpace(o) == origin {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Vary", "Origin")
					break
				}
			}
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
