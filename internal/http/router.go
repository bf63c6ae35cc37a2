package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhandler "postgate/internal/auth/handler"
	posthandler "postgate/internal/posts/handler"
	ratelimit "postgate/internal/ratelimit/middleware"
	dErrors "postgate/pkg/domain-errors"
	"postgate/pkg/platform/audit"
	"postgate/pkg/platform/audit/publisher"
	"postgate/pkg/platform/httputil"
	authmw "postgate/pkg/platform/middleware/auth"
	"postgate/pkg/platform/middleware/metadata"
	"postgate/pkg/platform/middleware/request"
	"postgate/pkg/platform/middleware/requesttime"
	"postgate/pkg/requestcontext"
)

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

// AuditLister returns the audit trail of one user.
type AuditLister interface {
	List(ctx context.Context, userID int64) ([]audit.Event, error)
}

// Deps is everything the router mounts.
type Deps struct {
	Auth       *authhandler.Handler
	Posts      *posthandler.Handler
	Validator  authmw.TokenValidator
	Revocation authmw.TokenRevocationChecker
	Audit      AuditLister
	RateLimit  *ratelimit.Middleware
	Gatherer   prometheus.Gatherer
	Health     map[string]HealthCheck
	Logger     *slog.Logger
}

// NewRouter wires public account endpoints, the bearer-protected API and
// the operational endpoints.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)

	r.Get("/healthz", healthHandler(deps.Health))
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		if deps.RateLimit != nil {
			r.Use(deps.RateLimit.RateLimit("auth"))
		}
		deps.Auth.Register(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(deps.Validator, deps.Revocation, logger))
		deps.Auth.RegisterProtected(r)
		deps.Posts.Register(r)
		if deps.Audit != nil {
			r.Get("/me/audit", auditHandler(deps.Audit, logger))
		}
	})
	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body[name] = "unreachable"
				continue
			}
			body[name] = "ok"
		}
		httputil.WriteJSON(w, status, body)
	}
}

type auditEventResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Category  string    `json:"category"`
	Action    string    `json:"action"`
	Resource  string    `json:"resource,omitempty"`
	Decision  string    `json:"decision,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	ClientIP  string    `json:"client_ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
}

func auditHandler(lister AuditLister, logger *slog.Logger) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := requestcontext.UserID(ctx)
		if userID == 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
			return
		}

		events, err := lister.List(ctx, userID)
		if errors.Is(err, publisher.ErrNotQueryable) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "audit trail is not queryable"))
			return
		}
		if err != nil {
			logger.ErrorContext(ctx, "failed to list audit events",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events"))
			return
		}

		out := make([]auditEventResponse, 0, len(events))
		for _, e := range events {
			out = append(out, auditEventResponse{
				Timestamp: e.Timestamp,
				Category:  string(e.Category),
				Action:    e.Action,
				Resource:  e.Resource,
				Decision:  e.Decision,
				Reason:    e.Reason,
				ClientIP:  e.ClientIP,
				UserAgent: e.UserAgent,
			})
		}
		httputil.WriteJSON(w, http.StatusOK, out)
	}
}
