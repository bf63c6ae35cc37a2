// Package pdp talks to policy decision points. Client wraps a Transport with
// a per-attempt timeout, optional retries and an optional circuit breaker,
// and converts every failure into a deny.
package pdp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"postgate/internal/authz"
	"postgate/internal/authz/metrics"
	"postgate/pkg/platform/circuit"
	"postgate/pkg/requestcontext"
)

const tracerName = "postgate/internal/authz/pdp"

// Transport performs one remote decision. It reports allow=false with a nil
// error only for a genuine policy deny.
type Transport interface {
	Decide(ctx context.Context, req authz.DecisionRequest) (bool, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req authz.DecisionRequest) (bool, error)

func (f TransportFunc) Decide(ctx context.Context, req authz.DecisionRequest) (bool, error) {
	return f(ctx, req)
}

// Client implements authz.Checker.
type Client struct {
	transport   Transport
	backend     string
	timeout     time.Duration
	maxAttempts int
	backoffBase time.Duration
	backoffMax  time.Duration
	breaker     *circuit.Breaker
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
}

var _ authz.Checker = (*Client)(nil)

type Option func(*Client)

// WithBackend labels logs, metrics and spans.
func WithBackend(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.backend = name
		}
	}
}

// WithTimeout bounds each attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxAttempts enables retries. 1 means a single attempt.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithBackoff sets the wait between attempts.
func WithBackoff(base, maxInterval time.Duration) Option {
	return func(c *Client) {
		if base > 0 {
			c.backoffBase = base
		}
		if maxInterval >= base {
			c.backoffMax = maxInterval
		}
	}
}

// WithCircuitBreaker denies without a remote call while the breaker is open.
func WithCircuitBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		c.breaker = b
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		if tp != nil {
			c.tracer = tp.Tracer(tracerName)
		}
	}
}

// NewClient wraps transport. Defaults: 2s timeout, one attempt, no breaker.
func NewClient(transport Transport, opts ...Option) *Client {
	c := &Client{
		transport:   transport,
		backend:     "pdp",
		timeout:     2 * time.Second,
		maxAttempts: 1,
		backoffBase: 50 * time.Millisecond,
		backoffMax:  time.Second,
		logger:      slog.Default(),
		tracer:      otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker != nil {
		c.metrics.SetBreakerOpen(c.breaker.IsOpen())
	}
	return c
}

// CheckAccess never returns true unless the PDP explicitly allowed the request.
func (c *Client) CheckAccess(ctx context.Context, req authz.DecisionRequest) bool {
	requestID := requestcontext.RequestID(ctx)

	if c.transport == nil {
		c.fail(ctx, req, KindInternal, fmt.Errorf("%w: no transport configured", ErrInternal), 0)
		return false
	}
	if c.breaker != nil && !c.breaker.Allow() {
		c.metrics.IncBreakerRejection()
		c.metrics.IncPDPFailure(c.backend, string(KindCircuitOpen))
		c.logger.WarnContext(ctx, "pdp circuit open, denying without remote call",
			"backend", c.backend,
			"breaker", c.breaker.Name(),
			"action", string(req.Action),
			"request_id", requestID,
		)
		return false
	}

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		allowed, err := c.attempt(ctx, req, attempt)
		if err == nil {
			c.recordSuccess(ctx)
			return allowed
		}

		kind := Classify(err)
		c.fail(ctx, req, kind, err, attempt)
		if kind == KindCanceled {
			break
		}
		c.recordFailure(ctx)

		if attempt == c.maxAttempts {
			break
		}
		if c.breaker != nil && !c.breaker.Allow() {
			break
		}

		wait := backoff(c.backoffBase, c.backoffMax, attempt)
		select {
		case <-ctx.Done():
			c.fail(ctx, req, Classify(ctx.Err()), ctx.Err(), attempt)
			return false
		case <-time.After(wait):
		}
	}
	return false
}

// attempt runs a single bounded transport call. Panics become ErrInternal.
func (c *Client) attempt(ctx context.Context, req authz.DecisionRequest, attempt int) (allowed bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "pdp.check",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("pdp.backend", c.backend),
			attribute.Int("pdp.attempt", attempt),
			attribute.String("authz.action", string(req.Action)),
			attribute.String("authz.resource.kind", req.Resource.Kind),
			attribute.String("authz.resource.id", req.Resource.ID),
			attribute.String("authz.principal.id", req.Principal.ID),
		),
	)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			allowed = false
			err = fmt.Errorf("%w: panic: %v", ErrInternal, r)
		}

		outcome := "ok"
		if err != nil {
			outcome = string(Classify(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		} else {
			span.SetAttributes(attribute.Bool("authz.allowed", allowed))
		}
		c.metrics.ObservePDPLatency(c.backend, outcome, time.Since(start).Seconds())
		span.End()
	}()

	allowed, err = c.transport.Decide(ctx, req)
	if err != nil {
		return false, err
	}
	return allowed, nil
}

func (c *Client) fail(ctx context.Context, req authz.DecisionRequest, kind FailureKind, err error, attempt int) {
	c.metrics.IncPDPFailure(c.backend, string(kind))
	attrs := []any{
		"backend", c.backend,
		"kind", string(kind),
		"error", err,
		"attempt", attempt,
		"max_attempts", c.maxAttempts,
		"action", string(req.Action),
		"resource_kind", req.Resource.Kind,
		"resource_id", req.Resource.ID,
		"request_id", requestcontext.RequestID(ctx),
	}
	switch kind {
	case KindCanceled:
		c.logger.InfoContext(ctx, "pdp check canceled by caller, denying", attrs...)
	case KindTimeout:
		c.logger.WarnContext(ctx, "pdp check timed out, denying", attrs...)
	case KindUnavailable:
		c.logger.ErrorContext(ctx, "pdp unreachable, denying", attrs...)
	case KindProtocol:
		c.logger.ErrorContext(ctx, "pdp returned an unusable response, denying", attrs...)
	default:
		c.logger.ErrorContext(ctx, "pdp check failed unexpectedly, denying", attrs...)
	}
}

func (c *Client) recordSuccess(ctx context.Context) {
	if c.breaker == nil {
		return
	}
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.metrics.SetBreakerOpen(false)
		c.logger.InfoContext(ctx, "pdp circuit closed", "backend", c.backend, "breaker", c.breaker.Name())
	}
}

func (c *Client) recordFailure(ctx context.Context) {
	if c.breaker == nil {
		return
	}
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.metrics.SetBreakerOpen(true)
		c.logger.WarnContext(ctx, "pdp circuit opened", "backend", c.backend, "breaker", c.breaker.Name())
	}
}
