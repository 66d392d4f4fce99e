package middleware

import (
	"net"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"membership-app-go/internal/domain/event"
)

// RequestMeta copies client address, user agent and request id into the
// context for audit entries. Run it after chi's RequestID and RealIP.
func RequestMeta(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		meta := event.RequestMeta{
			IPAddress: clientIP(r.RemoteAddr),
			UserAgent: r.UserAgent(),
			RequestID: chimw.GetReqID(r.Context()),
		}
		next.ServeHTTP(w, r.WithContext(event.WithRequestMeta(r.Context(), meta)))
	})
}

func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	if net.ParseIP(host) == nil {
		return ""
	}
	return host
}
