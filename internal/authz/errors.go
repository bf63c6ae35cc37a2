package authz

import "errors"

var (
	// ErrMalformedPrincipal means the identity has no ID or no usable role.
	ErrMalformedPrincipal = errors.New("malformed principal")
	// ErrMalformedResource means the resource has no kind.
	ErrMalformedResource = errors.New("malformed resource")
)
