package kafka

import (
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderplan/places-discovery/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	event := domain.DiscoveryEvent{
		ID:          "evt-1",
		Kind:        domain.EventDiscoveryCompleted,
		Destination: "Milano",
		Categories:  []string{"museum", "restaurant"},
		PlaceCount:  12,
		OccurredAt:  now,
	}

	msg, err := serializeToMessage(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("evt-1"), msg.Key)
	assert.Contains(t, string(msg.Value), `"kind":"discovery_completed"`)
	assert.Contains(t, string(msg.Value), `"place_count":12`)
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "event_kind", msg.Headers[0].Key)
	assert.Equal(t, []byte(domain.EventDiscoveryCompleted), msg.Headers[0].Value)
	assert.Equal(t, "occurred_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestSerializeToMessage_FallbackEvent(t *testing.T) {
	event := domain.DiscoveryEvent{
		ID:          "evt-2",
		Kind:        domain.EventGeocodeFallback,
		Destination: "trip to nowhere",
		OccurredAt:  time.Date(2026, 3, 14, 9, 31, 0, 0, time.UTC),
	}

	msg, err := serializeToMessage(event)
	require.NoError(t, err)

	assert.Contains(t, string(msg.Value), `"kind":"geocode_fallback"`)
	assert.NotContains(t, string(msg.Value), `"categories"`)

	var header kafkago.Header
	for _, h := range msg.Headers {
		if h.Key == "event_kind" {
			header = h
		}
	}
	assert.Equal(t, []byte(domain.EventGeocodeFallback), header.Value)
}
