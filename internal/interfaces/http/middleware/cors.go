package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CORSConfig lets browser dashboards on other origins read the API.
type CORSConfig struct {
	// AllowedOrigins lists exact origins, "*" for any, or "*.example.org"
	// for every subdomain of example.org.
	AllowedOrigins []string
	MaxAge         time.Duration
}

const (
	corsMethods = "GET, POST, OPTIONS"
	corsHeaders = "Accept, Content-Type, X-Request-ID"
	corsExposed = "Retry-After, X-RateLimit-Limit, X-RateLimit-Remaining"
)

type originMatcher struct {
	any      bool
	exact    map[string]bool
	suffixes []string
}

func newOriginMatcher(origins []string) originMatcher {
	m := originMatcher{exact: make(map[string]bool, len(origins))}
	for _, o := range origins {
		o = strings.ToLower(strings.TrimSpace(o))
		switch {
		case o == "*":
			m.any = true
		case strings.HasPrefix(o, "*."):
			m.suffixes = append(m.suffixes, o[1:])
		case o != "":
			m.exact[strings.TrimSuffix(o, "/")] = true
		}
	}
	return m
}

func (m originMatcher) allows(origin string) bool {
	if m.any {
		return true
	}
	origin = strings.ToLower(origin)
	if m.exact[origin] {
		return true
	}
	for _, s := range m.suffixes {
		if strings.HasSuffix(origin, s) {
			return true
		}
	}
	return false
}

// CORS answers preflight requests from allowed origins with 204 and tags
// their actual requests. Other origins pass through untagged and the browser
// blocks the response. With no origins configured the middleware is a
// pass-through.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	match := newOriginMatcher(cfg.AllowedOrigins)
	maxAge := strconv.Itoa(int(cfg.MaxAge.Seconds()))

	return func(next http.Handler) http.Handler {
		if len(cfg.AllowedOrigins) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" || !match.allows(origin) {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Add("Vary", "Origin")
			if match.any {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", origin)
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Add("Vary", "Access-Control-Request-Method")
				h.Add("Vary", "Access-Control-Request-Headers")
				h.Set("Access-Control-Allow-Methods", corsMethods)
				h.Set("Access-Control-Allow-Headers", corsHeaders)
				if cfg.MaxAge > 0 {
					h.Set("Access-Control-Max-Age", maxAge)
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}
			h.Set("Access-Control-Expose-Headers", corsExposed)
			next.ServeHTTP(w, r)
		})
	}
}

//Personal.AI order the ending
