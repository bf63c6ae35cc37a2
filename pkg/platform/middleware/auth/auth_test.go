package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postgate/pkg/requestcontext"
)

type stubValidator struct {
	claims *Claims
	err    error
}

func (s stubValidator) ValidateToken(_ context.Context, _ string) (*Claims, error) {
	return s.claims, s.err
}

type stubRevocations struct {
	revoked bool
	err     error
}

func (s stubRevocations) IsTokenRevoked(_ context.Context, _ string) (bool, error) {
	return s.revoked, s.err
}

func TestRequireAuth(t *testing.T) {
	valid := &Claims{UserID: 7, Username: "alice", Role: "author", JTI: "jti-1"}

	tests := []struct {
		name        string
		header      string
		validator   stubValidator
		revocations TokenRevocationChecker
		wantStatus  int
		wantError   string
	}{
		{name: "missing header", header: "", validator: stubValidator{claims: valid}, wantStatus: http.StatusUnauthorized, wantError: "unauthorized"},
		{name: "wrong scheme", header: "Basic abc", validator: stubValidator{claims: valid}, wantStatus: http.StatusUnauthorized, wantError: "unauthorized"},
		{name: "invalid token", header: "Bearer bad", validator: stubValidator{err: errors.New("expired")}, wantStatus: http.StatusUnauthorized, wantError: "unauthorized"},
		{name: "missing jti", header: "Bearer tok", validator: stubValidator{claims: &Claims{UserID: 7, Role: "author"}}, revocations: stubRevocations{}, wantStatus: http.StatusUnauthorized, wantError: "unauthorized"},
		{name: "revoked", header: "Bearer tok", validator: stubValidator{claims: valid}, revocations: stubRevocations{revoked: true}, wantStatus: http.StatusUnauthorized, wantError: "unauthorized"},
		{name: "revocation store down", header: "Bearer tok", validator: stubValidator{claims: valid}, revocations: stubRevocations{err: errors.New("redis down")}, wantStatus: http.StatusInternalServerError, wantError: "internal_error"},
		{name: "ok", header: "Bearer tok", validator: stubValidator{claims: valid}, revocations: stubRevocations{}, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser int64
			var gotRole string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser = requestcontext.UserID(r.Context())
				gotRole = requestcontext.Role(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			h := RequireAuth(tt.validator, tt.revocations, nil)(next)
			req := httptest.NewRequest(http.MethodGet, "/posts", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantError != "" {
				var body map[string]string
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
				assert.Equal(t, tt.wantError, body["error"])
				assert.Zero(t, gotUser, "next handler must not run")
				return
			}
			assert.Equal(t, int64(7), gotUser)
			assert.Equal(t, "author", gotRole)
		})
	}
}
