package testutil

import (
	"net/http"

	"postgate/pkg/requestcontext"
)

// AsUser puts an authenticated user on the request context, as the auth
// middleware would after validating a bearer token.
func AsUser(req *http.Request, userID int64, username, role string) *http.Request {
	ctx := requestcontext.WithUser(req.Context(), userID, username, role)
	return req.WithContext(ctx)
}

// WithRequestID sets the correlation ID the request middleware would assign.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}

// WithBearer sets an Authorization: Bearer header.
func WithBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}
