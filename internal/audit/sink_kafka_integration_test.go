//go:build integration

package audit_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"ashram/internal/audit"
	id "ashram/pkg/domain"
	"ashram/pkg/testutil/containers"
)

func TestKafkaSinkPublishes(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	redpanda := containers.NewRedpandaContainer(t)

	const topic = "ashram.audit.test"
	sink, err := audit.NewKafkaSink(ctx, redpanda.Brokers, topic)
	require.NoError(t, err)
	defer sink.Close()

	userID := id.NewUserID()
	event := audit.Event{
		Category:  audit.CategorySecurity,
		Timestamp: time.Now().UTC(),
		UserID:    userID,
		Action:    string(audit.EventBreakGlassUsed),
		Email:     "ops@ashram.example",
	}
	require.NoError(t, sink.Publish(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(redpanda.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	pollCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	fetches := consumer.PollFetches(pollCtx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	require.Equal(t, userID.String(), string(records[0].Key))

	var got audit.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	require.Equal(t, event.Action, got.Action)
	require.Equal(t, event.Email, got.Email)
}
