package pdp

import (
	"context"
	"fmt"

	"github.com/cerbos/cerbos-sdk-go/cerbos"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"postgate/internal/authz"
)

// CerbosClient is the part of the Cerbos SDK client the transport uses.
// *cerbos.GRPCClient satisfies it.
type CerbosClient interface {
	IsAllowed(ctx context.Context, principal *cerbos.Principal, resource *cerbos.Resource, action string) (bool, error)
}

// Cerbos asks a Cerbos PDP over gRPC.
type Cerbos struct {
	client        CerbosClient
	policyVersion string
	dialOpts      []cerbos.Opt
}

type CerbosOption func(*Cerbos)

// WithPolicyVersion sets policyVersion on principal and resource.
func WithPolicyVersion(v string) CerbosOption {
	return func(c *Cerbos) {
		if v != "" {
			c.policyVersion = v
		}
	}
}

// WithDialOptions passes SDK options (TLS, plaintext) to cerbos.New.
func WithDialOptions(opts ...cerbos.Opt) CerbosOption {
	return func(c *Cerbos) {
		c.dialOpts = append(c.dialOpts, opts...)
	}
}

// NewCerbos dials the Cerbos gRPC API at addr ("host:port"). The connection
// is established lazily on the first check.
func NewCerbos(addr string, opts ...CerbosOption) (*Cerbos, error) {
	c := newCerbos(nil, opts...)
	client, err := cerbos.New(addr, c.dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("cerbos client for %s: %w", addr, err)
	}
	c.client = client
	return c, nil
}

// NewCerbosWithClient wraps an existing SDK client.
func NewCerbosWithClient(client CerbosClient, opts ...CerbosOption) *Cerbos {
	return newCerbos(client, opts...)
}

func newCerbos(client CerbosClient, opts ...CerbosOption) *Cerbos {
	c := &Cerbos{client: client, policyVersion: "default"}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Decide checks one action on one resource.
func (c *Cerbos) Decide(ctx context.Context, req authz.DecisionRequest) (bool, error) {
	principal := cerbos.NewPrincipal(req.Principal.ID, req.Principal.Roles...).
		WithPolicyVersion(c.policyVersion)
	for k, v := range req.Principal.Attributes {
		principal = principal.WithAttr(k, v)
	}

	resource := cerbos.NewResource(req.Resource.Kind, req.Resource.ID).
		WithPolicyVersion(c.policyVersion)
	for k, v := range req.Resource.Attributes {
		resource = resource.WithAttr(k, v)
	}

	allowed, err := c.client.IsAllowed(ctx, principal, resource, string(req.Action))
	if err != nil {
		return false, cerbosError(ctx, err)
	}
	return allowed, nil
}

// cerbosError maps gRPC status codes onto the transport error kinds.
func cerbosError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %w", ctxErr, err)
	}
	switch status.Code(err) {
	case codes.Unavailable:
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	case codes.DeadlineExceeded:
		return fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
	case codes.Canceled:
		return fmt.Errorf("%w: %w", context.Canceled, err)
	default:
		return fmt.Errorf("%w: %w", ErrProtocol, err)
	}
}
