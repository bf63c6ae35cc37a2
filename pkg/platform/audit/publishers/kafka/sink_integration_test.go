//go:build integration

package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "postgate/pkg/platform/audit"
	"postgate/pkg/testutil/containers"
)

func TestSink_ProducesToTopic(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := containers.NewRedpandaContainer(t)
	sink, err := New(ctx, Config{Brokers: []string{broker.Broker}, Topic: "audit.test"}, nil)
	require.NoError(t, err)
	defer sink.Close(ctx)

	occurred := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, sink.Append(ctx, audit.Event{
		Timestamp: occurred,
		UserID:    42,
		Action:    string(audit.EventPostDeleted),
		Resource:  "post:9",
		RequestID: "req-1",
	}))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.Broker),
		kgo.ConsumeTopics("audit.test"),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.Empty(t, fetches.Errors())
	records := fetches.Records()
	require.Len(t, records, 1)

	assert.Equal(t, "42", string(records[0].Key))
	var got message
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, "post_deleted", got.Action)
	assert.Equal(t, "compliance", got.Category)
	assert.Equal(t, "post:9", got.Resource)
	assert.True(t, occurred.Equal(got.Timestamp))
}

func TestNew_RequiresBrokers(t *testing.T) {
	_, err := New(context.Background(), Config{}, nil)
	require.Error(t, err)
}
