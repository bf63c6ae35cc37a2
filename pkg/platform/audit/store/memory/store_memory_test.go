package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "postgate/pkg/platform/audit"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Append(ctx, audit.Event{UserID: 1, Action: "a", Timestamp: base}))
	require.NoError(t, s.Append(ctx, audit.Event{UserID: 2, Action: "b", Timestamp: base.Add(time.Minute)}))
	require.NoError(t, s.Append(ctx, audit.Event{UserID: 1, Action: "c", Timestamp: base.Add(2 * time.Minute)}))

	byUser, err := s.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, byUser, 2)
	assert.Equal(t, "a", byUser[0].Action)
	assert.Equal(t, "c", byUser[1].Action)

	recent, err := s.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "c", recent[0].Action)
	assert.Equal(t, "b", recent[1].Action)

	s.Clear()
	assert.Empty(t, s.All())
}
