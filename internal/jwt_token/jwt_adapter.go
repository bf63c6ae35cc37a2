package jwttoken

import (
	"context"

	dErrors "postgate/pkg/domain-errors"
	authmw "postgate/pkg/platform/middleware/auth"
)

// Subject is the stored account a token's subject resolves to.
type Subject struct {
	UserID   int64
	Username string
	Role     string
}

// SubjectResolver loads the current account for a token subject. It returns
// a not-found error when the account no longer exists.
type SubjectResolver interface {
	ResolveSubject(ctx context.Context, username string) (Subject, error)
}

// JWTServiceAdapter implements authmw.TokenValidator. It trusts the token only
// for the username and JTI; ID and role always come from the stored account.
type JWTServiceAdapter struct {
	service  *JWTService
	resolver SubjectResolver
}

var _ authmw.TokenValidator = (*JWTServiceAdapter)(nil)

func NewJWTServiceAdapter(service *JWTService, resolver SubjectResolver) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service, resolver: resolver}
}

func (a *JWTServiceAdapter) ValidateToken(ctx context.Context, tokenString string) (*authmw.Claims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	subject, err := a.resolver.ResolveSubject(ctx, claims.Subject)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "user no longer exists")
		}
		return nil, err
	}

	mc := &authmw.Claims{
		UserID:   subject.UserID,
		Username: subject.Username,
		Role:     subject.Role,
		JTI:      claims.ID,
	}
	if claims.ExpiresAt != nil {
		mc.ExpiresAt = claims.ExpiresAt.Time
	}
	return mc, nil
}
