package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_Key(t *testing.T) {
	assert.Equal(t, "P-1", Event{ParentBuyOrder: "P-1", Username: "alice"}.key())
	assert.Equal(t, "alice", Event{Username: "alice"}.key())
}

func TestEvent_JSON(t *testing.T) {
	e := Event{
		Type:           TypeTransactionCaptured,
		ParentBuyOrder: "P-1",
		CommerceCode:   "597055555542",
		BuyOrder:       "C-1",
		Amount:         400,
		Status:         "APPROVED",
		OccurredAt:     time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
	}

	raw, err := json.Marshal(e)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, "transaction.captured", m["type"])
	assert.Equal(t, "C-1", m["buy_order"])
	assert.NotContains(t, m, "username")
}

func TestNoopPublisher(t *testing.T) {
	p := NewNoopPublisher()

	assert.NoError(t, p.Publish(context.Background(), Event{Type: TypeTransactionAuthorized}))
	assert.NoError(t, p.Close())
}

func TestHeaders(t *testing.T) {
	t.Run("Event type is always present", func(t *testing.T) {
		out := headers(context.Background(), Event{Type: TypeTransactionRefunded})

		require.NotEmpty(t, out)
		assert.Equal(t, "event_type", out[0].Key)
		assert.Equal(t, TypeTransactionRefunded, string(out[0].Value))
	})
}

func TestNewWriter(t *testing.T) {
	t.Run("Defaults keep the batch wait short", func(t *testing.T) {
		w := newWriter(Config{Brokers: []string{"localhost:9092"}, Topic: "oneclick.transactions"})

		assert.Equal(t, defaultBatchTimeout, w.BatchTimeout)
		assert.Equal(t, defaultWriteTimeout, w.WriteTimeout)
		assert.Equal(t, 1, w.BatchSize)
		assert.Less(t, w.BatchTimeout, time.Second)
	})

	t.Run("Configured timeouts win", func(t *testing.T) {
		w := newWriter(Config{Topic: "t", BatchTimeout: 50 * time.Millisecond, WriteTimeout: time.Second})

		assert.Equal(t, 50*time.Millisecond, w.BatchTimeout)
		assert.Equal(t, time.Second, w.WriteTimeout)
	})
}
