package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

type CORSOptions struct {
	// AllowedOrigins holds exact origins or a "https://*.example.org" form
	// that matches any subdomain.
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	ExposedHeaders []string
	MaxAge         time.Duration
}

// DefaultCORSOptions covers the member portal and admin console, which send
// bearer tokens and upload multipart documents.
func DefaultCORSOptions(origins []string) CORSOptions {
	return CORSOptions{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id", "Content-Disposition"},
		MaxAge:         24 * time.Hour,
	}
}

type originMatcher struct {
	exact    map[string]struct{}
	suffixes []originSuffix
}

type originSuffix struct {
	scheme string
	suffix string
}

func newOriginMatcher(origins []string) originMatcher {
	m := originMatcher{exact: make(map[string]struct{}, len(origins))}
	for _, origin := range origins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin == "" {
			continue
		}
		scheme, host, ok := strings.Cut(origin, "://")
		if ok && strings.HasPrefix(host, "*.") {
			m.suffixes = append(m.suffixes, originSuffix{scheme: scheme + "://", suffix: host[1:]})
			continue
		}
		m.exact[origin] = struct{}{}
	}
	return m
}

func (m originMatcher) allows(origin string) bool {
	if _, ok := m.exact[origin]; ok {
		return true
	}
	for _, s := range m.suffixes {
		host, ok := strings.CutPrefix(origin, s.scheme)
		if ok && strings.HasSuffix(host, s.suffix) && len(host) > len(s.suffix) {
			return true
		}
	}
	return false
}

func NewCORS(opts CORSOptions) func(http.Handler) http.Handler {
	matcher := newOriginMatcher(opts.AllowedOrigins)
	methods := strings.Join(opts.AllowedMethods, ",")
	headers := strings.Join(opts.AllowedHeaders, ",")
	exposed := strings.Join(opts.ExposedHeaders, ",")
	maxAge := strconv.Itoa(int(opts.MaxAge.Seconds()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""

			if origin != "" {
				w.Header().Add("Vary", "Origin")
				if matcher.allows(origin) {
					h := w.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					if exposed != "" {
						h.Set("Access-Control-Expose-Headers", exposed)
					}
					if preflight {
						h.Set("Access-Control-Allow-Methods", methods)
						h.Set("Access-Control-Allow-Headers", headers)
						h.Set("Access-Control-Max-Age", maxAge)
					}
				}
			}

			if preflight {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
