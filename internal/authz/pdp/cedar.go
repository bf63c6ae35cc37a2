package pdp

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/cedar-policy/cedar-go"

	"postgate/internal/authz"
)

//go:embed policies.cedar
var defaultPolicies []byte

const (
	cedarPrincipalType = "User"
	cedarRoleType      = "Role"
	cedarActionType    = "Action"
)

// Cedar evaluates decisions in-process against a Cedar policy set.
type Cedar struct {
	mu       sync.RWMutex
	policies *cedar.PolicySet
	logger   *slog.Logger
}

// NewCedar parses src, or the embedded post policies when src is nil.
func NewCedar(src []byte, logger *slog.Logger) (*Cedar, error) {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Cedar{logger: logger}
	if src == nil {
		src = defaultPolicies
	}
	if err := e.Load("policies.cedar", src); err != nil {
		return nil, err
	}
	return e, nil
}

// Load replaces the policy set atomically.
func (e *Cedar) Load(name string, src []byte) error {
	ps, err := cedar.NewPolicySetFromBytes(name, src)
	if err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	e.mu.Lock()
	e.policies = ps
	e.mu.Unlock()
	return nil
}

// Decide maps the request onto Cedar entities. Roles become parents of the
// principal; every attribute is a Cedar string.
func (e *Cedar) Decide(ctx context.Context, req authz.DecisionRequest) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	principalUID := cedar.NewEntityUID(cedarPrincipalType, cedar.String(req.Principal.ID))
	resourceUID := cedar.NewEntityUID(entityType(req.Resource.Kind), cedar.String(req.Resource.ID))
	actionUID := cedar.NewEntityUID(cedarActionType, cedar.String(string(req.Action)))

	entities := cedar.EntityMap{}

	roleUIDs := make([]cedar.EntityUID, 0, len(req.Principal.Roles))
	roleValues := make([]cedar.Value, 0, len(req.Principal.Roles))
	for _, role := range req.Principal.Roles {
		uid := cedar.NewEntityUID(cedarRoleType, cedar.String(role))
		roleUIDs = append(roleUIDs, uid)
		roleValues = append(roleValues, cedar.String(role))
		entities[uid] = cedar.Entity{
			UID:        uid,
			Parents:    cedar.NewEntityUIDSet(),
			Attributes: cedar.NewRecord(cedar.RecordMap{}),
		}
	}

	principalAttrs := stringRecord(req.Principal.Attributes)
	principalAttrs["id"] = cedar.String(req.Principal.ID)
	principalAttrs["roles"] = cedar.NewSet(roleValues...)
	entities[principalUID] = cedar.Entity{
		UID:        principalUID,
		Parents:    cedar.NewEntityUIDSet(roleUIDs...),
		Attributes: cedar.NewRecord(principalAttrs),
	}

	resourceAttrs := stringRecord(req.Resource.Attributes)
	resourceAttrs["id"] = cedar.String(req.Resource.ID)
	entities[resourceUID] = cedar.Entity{
		UID:        resourceUID,
		Parents:    cedar.NewEntityUIDSet(),
		Attributes: cedar.NewRecord(resourceAttrs),
	}

	e.mu.RLock()
	ps := e.policies
	e.mu.RUnlock()

	decision, diagnostic := cedar.Authorize(ps, entities, cedar.Request{
		Principal: principalUID,
		Action:    actionUID,
		Resource:  resourceUID,
		Context:   cedar.NewRecord(cedar.RecordMap{}),
	})

	for _, perr := range diagnostic.Errors {
		e.logger.WarnContext(ctx, "cedar policy evaluation error",
			"policy", string(perr.PolicyID),
			"error", perr.Message,
		)
	}

	allowed := decision == cedar.Allow
	if allowed && len(diagnostic.Reasons) > 0 {
		e.logger.DebugContext(ctx, "cedar permit",
			"policy", string(diagnostic.Reasons[0].PolicyID),
			"action", string(req.Action),
		)
	}
	return allowed, nil
}

func stringRecord(attrs map[string]string) cedar.RecordMap {
	rec := make(cedar.RecordMap, len(attrs)+2)
	for k, v := range attrs {
		rec[cedar.String(k)] = cedar.String(v)
	}
	return rec
}

// entityType turns a resource kind such as "post" into "Post".
func entityType(kind string) cedar.EntityType {
	kind = strings.TrimSpace(kind)
	r, size := utf8.DecodeRuneInString(kind)
	if r == utf8.RuneError {
		return cedar.EntityType(kind)
	}
	return cedar.EntityType(string(unicode.ToUpper(r)) + kind[size:])
}
