package authz

import (
	"fmt"
	"maps"
	"strings"

	pstrings "postgate/pkg/platform/strings"
)

// Action names the verb being authorized. Validity is the PDP's concern.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// DecisionRequest is built fresh for every check and never reused.
type DecisionRequest struct {
	Principal Principal
	Resource  Resource
	Action    Action
}

// Assemble validates and combines the actor, the resource and the action.
// The scalar Role is folded into Roles so the PDP always sees a collection.
func Assemble(identity Identity, resource Resource, action Action) (DecisionRequest, error) {
	id := strings.TrimSpace(identity.ID)
	if id == "" {
		return DecisionRequest{}, fmt.Errorf("%w: empty id", ErrMalformedPrincipal)
	}

	roles := pstrings.DedupeAndTrim(pstrings.Prepend(identity.Role, identity.Roles))
	if len(roles) == 0 {
		return DecisionRequest{}, fmt.Errorf("%w: no roles", ErrMalformedPrincipal)
	}

	if strings.TrimSpace(resource.Kind) == "" {
		return DecisionRequest{}, fmt.Errorf("%w: empty kind", ErrMalformedResource)
	}

	var principalAttrs map[string]string
	if len(identity.Attributes) > 0 {
		principalAttrs = make(map[string]string, len(identity.Attributes))
		for k, v := range identity.Attributes {
			principalAttrs[k] = Stringify(v)
		}
	}

	resourceID := resource.ID
	if resourceID == "" {
		resourceID = NewResourceID
	}

	return DecisionRequest{
		Principal: Principal{
			ID:         id,
			Roles:      roles,
			Attributes: principalAttrs,
		},
		Resource: Resource{
			Kind:       resource.Kind,
			ID:         resourceID,
			Attributes: maps.Clone(resource.Attributes),
		},
		Action: action,
	}, nil
}
