package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castilhosApc/financeiro-ledger/internal/domain/posting"
)

func TestNewEventAndMessageRoundTrip(t *testing.T) {
	p, err := posting.New(uuid.New(), posting.KindWithdraw, 4200, time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	p.Category = "rent"
	p.IdempotencyKey = "rent-2026-04"

	event := NewEvent(ActionUpdate, p, "corr-123")
	assert.NotEqual(t, uuid.Nil, event.EventID)
	assert.Equal(t, ActionUpdate, event.Action)
	assert.Equal(t, p.ID, event.PostingID)
	assert.Equal(t, p.OwnerID, event.OwnerID)
	assert.Equal(t, int64(4200), event.Amount)
	assert.Equal(t, "corr-123", event.CorrelationID)
	assert.Nil(t, event.ArchivedAt)

	message, err := NewMessage(event)
	require.NoError(t, err)
	assert.Equal(t, event.EventID, message.EventID)
	assert.Equal(t, event.OwnerID, message.OwnerID)
	assert.Equal(t, OutboxStatusPending, message.Status)
	assert.Zero(t, message.Attempts)

	decoded, err := message.GetEvent()
	require.NoError(t, err)
	assert.Equal(t, event.EventID, decoded.EventID)
	assert.Equal(t, event.Kind, decoded.Kind)
	assert.Equal(t, event.IdempotencyKey, decoded.IdempotencyKey)
}

func TestMessageStateTransitions(t *testing.T) {
	message := &Message{Status: OutboxStatusPending}

	message.IncrementAttempts()
	assert.Equal(t, 1, message.Attempts)
	assert.NotNil(t, message.LastAttemptAt)

	message.MarkAsProcessed()
	assert.Equal(t, OutboxStatusProcessed, message.Status)

	message.MarkAsFailed()
	assert.Equal(t, OutboxStatusFailedToPublish, message.Status)
}

func TestMessageGetEvent_CorruptPayload(t *testing.T) {
	message := &Message{Payload: []byte("{not json")}
	_, err := message.GetEvent()
	assert.Error(t, err)
}

func TestCorrelationIDContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, CorrelationIDFromContext(ctx))

	ctx = WithCorrelationID(ctx, "abc-123")
	assert.Equal(t, "abc-123", CorrelationIDFromContext(ctx))

	// Overwriting replaces the value for child contexts only.
	child := WithCorrelationID(ctx, "def-456")
	assert.Equal(t, "def-456", CorrelationIDFromContext(child))
	assert.Equal(t, "abc-123", CorrelationIDFromContext(ctx))
}
