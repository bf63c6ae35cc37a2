package metadata

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"postgate/pkg/requestcontext"
)

// ClientMetadata extracts client IP address and User-Agent from the request
// and adds them to the context for use by handlers and services.
// This middleware should be applied early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientMetadata(r.Context(), ClientIPFromRequest(r), r.Header.Get("User-Agent"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Agent is the parsed form of a User-Agent header.
type Agent struct {
	Browser string
	Version string
	OS      string
	Mobile  bool
	Bot     bool
}

// ParseUserAgent parses a raw User-Agent header. Empty input yields a zero Agent.
func ParseUserAgent(raw string) Agent {
	if strings.TrimSpace(raw) == "" {
		return Agent{}
	}
	ua := useragent.New(raw)
	name, version := ua.Browser()
	return Agent{
		Browser: name,
		Version: version,
		OS:      ua.OS(),
		Mobile:  ua.Mobile(),
		Bot:     ua.Bot(),
	}
}

// Summary renders "Browser Version (OS)" for audit records.
func (a Agent) Summary() string {
	if a.Browser == "" {
		return "unknown"
	}
	s := a.Browser
	if a.Version != "" {
		s += " " + a.Version
	}
	if a.OS != "" {
		s += " (" + a.OS + ")"
	}
	return s
}

// ClientIPFromRequest extracts the real client IP from the request, handling proxies and load balancers.
func ClientIPFromRequest(r *http.Request) string {
	// First X-Forwarded-For entry is the original client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr is "ip:port" or "[::1]:port".
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return strings.Trim(addr[:idx], "[]")
		}
		return addr
	}

	return "unknown"
}
