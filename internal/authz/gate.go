package authz

import (
	"context"
	"errors"
	"log/slog"

	"postgate/internal/authz/metrics"
	dErrors "postgate/pkg/domain-errors"
	"postgate/pkg/platform/audit"
	"postgate/pkg/requestcontext"
)

// Verdict is the outcome of an authorization attempt.
type Verdict int

const (
	Deny Verdict = iota
	Allow
)

func (v Verdict) String() string {
	if v == Allow {
		return "allow"
	}
	return "deny"
}

// Target names what an action is aimed at. A nil Fact targets a resource
// that does not exist yet, or the collection.
type Target struct {
	Kind string
	Fact *Fact
}

// Gate is the single entry point for authorization. It builds the resource,
// assembles the request and asks the Checker, collapsing every failure to Deny.
type Gate struct {
	checker Checker
	logger  *slog.Logger
	metrics *metrics.Metrics
	auditor audit.Emitter
}

type Option func(*Gate)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gate) {
		g.metrics = m
	}
}

// WithAuditor records every verdict as an access_decision event.
func WithAuditor(a audit.Emitter) Option {
	return func(g *Gate) {
		if a != nil {
			g.auditor = a
		}
	}
}

// NewGate builds a Gate. A nil checker denies everything.
func NewGate(checker Checker, opts ...Option) *Gate {
	if checker == nil {
		checker = DenyAll
	}
	g := &Gate{
		checker: checker,
		logger:  slog.Default(),
		auditor: audit.Nop{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authorize returns Allow only when the checker explicitly allows a
// well-formed request. There is no memoization: every call is a fresh check.
func (g *Gate) Authorize(ctx context.Context, identity Identity, target Target, action Action) Verdict {
	requestID := requestcontext.RequestID(ctx)
	resource := BuildResource(target.Kind, target.Fact, identity)

	req, err := Assemble(identity, resource, action)
	if err != nil {
		reason := "malformed_request"
		switch {
		case errors.Is(err, ErrMalformedPrincipal):
			reason = "malformed_principal"
		case errors.Is(err, ErrMalformedResource):
			reason = "malformed_resource"
		}
		g.logger.WarnContext(ctx, "authorization request rejected as malformed",
			"error", err,
			"principal", identity.ID,
			"kind", resource.Kind,
			"resource_id", resource.ID,
			"action", string(action),
			"request_id", requestID,
		)
		g.metrics.IncMalformed(reason)
		g.record(ctx, identity, resource, action, Deny, reason)
		return Deny
	}

	verdict := Deny
	if g.checker.CheckAccess(ctx, req) {
		verdict = Allow
	}

	if verdict == Allow {
		g.logger.DebugContext(ctx, "access allowed",
			"principal", req.Principal.ID,
			"roles", req.Principal.Roles,
			"kind", req.Resource.Kind,
			"resource_id", req.Resource.ID,
			"action", string(action),
			"request_id", requestID,
		)
		g.record(ctx, identity, resource, action, Allow, "")
	} else {
		g.logger.InfoContext(ctx, "access denied",
			"principal", req.Principal.ID,
			"roles", req.Principal.Roles,
			"kind", req.Resource.Kind,
			"resource_id", req.Resource.ID,
			"action", string(action),
			"request_id", requestID,
		)
		g.record(ctx, identity, resource, action, Deny, "denied")
	}
	return verdict
}

// Require is Authorize for service code: Deny becomes a forbidden domain
// error that says nothing about why.
func (g *Gate) Require(ctx context.Context, identity Identity, target Target, action Action) error {
	if g.Authorize(ctx, identity, target, action) != Allow {
		return dErrors.New(dErrors.CodeForbidden, "forbidden")
	}
	return nil
}

func (g *Gate) record(ctx context.Context, identity Identity, resource Resource, action Action, verdict Verdict, reason string) {
	g.metrics.IncDecision(string(action), verdict.String())

	userID, _ := parseUserID(identity.ID)
	err := g.auditor.Emit(ctx, audit.Event{
		Timestamp: requestcontext.Now(ctx),
		UserID:    userID,
		Subject:   identity.ID,
		Action:    string(audit.EventAccessDecision),
		Resource:  resource.Kind + ":" + resource.ID + "#" + string(action),
		Decision:  verdict.String(),
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
		ClientIP:  requestcontext.ClientIP(ctx),
		UserAgent: requestcontext.UserAgent(ctx),
	})
	if err != nil {
		g.logger.WarnContext(ctx, "failed to audit access decision",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}
