package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/castilhosApc/financeiro-ledger/internal/domain/posting"
)

// Action identifies the ledger mutation an event records
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// OutboxStatus defines event publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)

// Event records a committed mutation of an owner's ledger. Events are
// written into the outbox in the same database transaction as the posting
// write, then published to Kafka and archived in MongoDB.
type Event struct {
	EventID        uuid.UUID    `json:"event_id" bson:"event_id"`
	Action         Action       `json:"action" bson:"action"`
	PostingID      uuid.UUID    `json:"posting_id" bson:"posting_id"`
	OwnerID        uuid.UUID    `json:"owner_id" bson:"owner_id"`
	Kind           posting.Kind `json:"kind" bson:"kind"`
	Amount         int64        `json:"amount" bson:"amount"` // Minor units
	Category       string       `json:"category,omitempty" bson:"category,omitempty"`
	IdempotencyKey string       `json:"idempotency_key,omitempty" bson:"idempotency_key,omitempty"`
	CorrelationID  string       `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	OccurredAt     time.Time    `json:"occurred_at" bson:"occurred_at"`
	RecordedAt     time.Time    `json:"recorded_at" bson:"recorded_at"`
	ArchivedAt     *time.Time   `json:"archived_at,omitempty" bson:"archived_at,omitempty"`
}

// NewEvent builds an audit event for a ledger mutation.
func NewEvent(action Action, p *posting.Posting, correlationID string) *Event {
	return &Event{
		EventID:        uuid.New(),
		Action:         action,
		PostingID:      p.ID,
		OwnerID:        p.OwnerID,
		Kind:           p.Kind,
		Amount:         p.Amount,
		Category:       p.Category,
		IdempotencyKey: p.IdempotencyKey,
		CorrelationID:  correlationID,
		OccurredAt:     p.OccurredAt,
		RecordedAt:     time.Now(),
	}
}

// Message stores an audit event for reliable publishing via the outbox
type Message struct {
	ID            int64           `json:"id"`
	EventID       uuid.UUID       `json:"event_id"`
	OwnerID       uuid.UUID       `json:"owner_id"`
	Payload       json.RawMessage `json:"payload"`
	Status        OutboxStatus    `json:"status"`
	Attempts      int             `json:"attempts"`
	CreatedAt     time.Time       `json:"created_at"`
	LastAttemptAt *time.Time      `json:"last_attempt_at,omitempty"`
}

func NewMessage(event *Event) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return &Message{
		EventID:   event.EventID,
		OwnerID:   event.OwnerID,
		Payload:   payload,
		Status:    OutboxStatusPending,
		Attempts:  0,
		CreatedAt: time.Now(),
	}, nil
}

func (m *Message) IncrementAttempts() {
	m.Attempts++
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsProcessed() {
	m.Status = OutboxStatusProcessed
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsFailed() {
	m.Status = OutboxStatusFailedToPublish
	now := time.Now()
	m.LastAttemptAt = &now
}

// GetEvent extracts the audit event from the payload
func (m *Message) GetEvent() (*Event, error) {
	var event Event
	if err := json.Unmarshal(m.Payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
