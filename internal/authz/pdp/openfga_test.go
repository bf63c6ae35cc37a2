package pdp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	fga "github.com/openfga/go-sdk/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postgate/internal/authz"
)

const testStoreID = "01HVMMBCMGZNT3SED4Z17ECXCA"

func TestCheckRequest(t *testing.T) {
	got := checkRequest(authorUpdateOwn())

	assert.Equal(t, "user:1", got.User)
	assert.Equal(t, "can_update", got.Relation)
	assert.Equal(t, "post:5", got.Object)
	assert.ElementsMatch(t, []fga.ClientContextualTupleKey{
		{User: "user:1", Relation: "assignee", Object: "role:author"},
		{User: "user:1", Relation: "owner", Object: "post:5"},
	}, got.ContextualTuples)
	require.NotNil(t, got.Context)
	assert.Equal(t, map[string]interface{}{
		"resource_author_id": "1",
		"resource_title":     "Hello",
		"principal_username": "alice",
	}, *got.Context)
}

func TestCheckRequest_NoOwner(t *testing.T) {
	got := checkRequest(authz.DecisionRequest{
		Principal: authz.Principal{ID: "3", Roles: []string{"reader"}},
		Resource:  authz.Resource{Kind: "post", ID: "7"},
		Action:    authz.ActionRead,
	})
	assert.Len(t, got.ContextualTuples, 1)
	assert.Equal(t, "can_read", got.Relation)
}

func TestOpenFGA_Decide(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantAllow bool
		wantKind  FailureKind
	}{
		{name: "allowed", status: 200, body: `{"allowed":true}`, wantAllow: true},
		{name: "denied", status: 200, body: `{"allowed":false}`},
		{name: "no decision", status: 200, body: `{}`, wantKind: KindProtocol},
		{name: "server error", status: 400, body: `{"code":"validation_error","message":"bad"}`, wantKind: KindUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got map[string]any
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.True(t, strings.HasSuffix(r.URL.Path, "/stores/"+testStoreID+"/check"), r.URL.Path)
				_ = json.NewDecoder(r.Body).Decode(&got)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client, err := NewOpenFGA(OpenFGAConfig{APIURL: srv.URL, StoreID: testStoreID})
			require.NoError(t, err)

			allowed, err := client.Decide(context.Background(), authorUpdateOwn())
			if tt.wantKind != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, Classify(err))
				assert.False(t, allowed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAllow, allowed)

			tupleKey := got["tuple_key"].(map[string]any)
			assert.Equal(t, "user:1", tupleKey["user"])
			assert.Equal(t, "can_update", tupleKey["relation"])
			assert.Equal(t, "post:5", tupleKey["object"])
		})
	}
}

func TestOpenFGA_NoSDKRetries(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusInternalServerError} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				_, _ = w.Write([]byte(`{"code":"rate_limit_exceeded","message":"slow down"}`))
			}))
			defer srv.Close()

			transport, err := NewOpenFGA(OpenFGAConfig{APIURL: srv.URL, StoreID: testStoreID})
			require.NoError(t, err)
			client := NewClient(transport, WithBackend("openfga"), WithTimeout(100*time.Millisecond))

			start := time.Now()
			assert.False(t, client.CheckAccess(context.Background(), authorUpdateOwn()))
			assert.EqualValues(t, 1, calls.Load())
			assert.Less(t, time.Since(start), time.Second)
		})
	}
}
