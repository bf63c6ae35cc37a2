package authz

import "context"

//go:generate mockgen -source=checker.go -destination=mocks/mocks.go -package=mocks

// Checker answers whether a decision request is allowed. Implementations
// must never return true on failure.
type Checker interface {
	CheckAccess(ctx context.Context, req DecisionRequest) bool
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context, req DecisionRequest) bool

func (f CheckerFunc) CheckAccess(ctx context.Context, req DecisionRequest) bool {
	return f(ctx, req)
}

// DenyAll rejects every request.
var DenyAll Checker = CheckerFunc(func(context.Context, DecisionRequest) bool { return false })
