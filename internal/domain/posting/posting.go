package posting

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors
var (
	ErrInvalidAmount  = errors.New("amount must be positive")
	ErrInvalidKind    = errors.New("invalid posting kind")
	ErrMissingOwner   = errors.New("owner id is required")
	ErrZeroOccurredAt = errors.New("occurred_at is required")
	ErrImmutableField = errors.New("id and owner_id are immutable")
)

// Kind determines the sign of a posting. Amounts are always stored as a
// positive magnitude; direction is encoded here and nowhere else.
type Kind string

const (
	KindDeposit  Kind = "DEPOSIT"
	KindWithdraw Kind = "WITHDRAW"
)

// Valid reports whether k is a known posting kind.
func (k Kind) Valid() bool {
	return k == KindDeposit || k == KindWithdraw
}

// DefaultCategory is assigned when the caller supplies no category.
const DefaultCategory = "Outros"

// Posting is a single signed movement on an owner's account. Amount is held
// in currency minor units (cents).
type Posting struct {
	ID             uuid.UUID  `json:"id"`
	OwnerID        uuid.UUID  `json:"owner_id"`
	Kind           Kind       `json:"kind"`
	Amount         int64      `json:"amount"`
	CounterpartyID *uuid.UUID `json:"counterparty_id,omitempty"`
	Description    string     `json:"description,omitempty"`
	Category       string     `json:"category"`
	IdempotencyKey string     `json:"idempotency_key,omitempty"`
	OccurredAt     time.Time  `json:"occurred_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// New creates a posting with a fresh ID and system timestamps.
func New(ownerID uuid.UUID, kind Kind, amount int64, occurredAt time.Time) (*Posting, error) {
	if ownerID == uuid.Nil {
		return nil, ErrMissingOwner
	}
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if occurredAt.IsZero() {
		return nil, ErrZeroOccurredAt
	}

	now := time.Now()
	return &Posting{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		Kind:       kind,
		Amount:     amount,
		Category:   DefaultCategory,
		OccurredAt: occurredAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Signed returns the posting's contribution to the owner's balance:
// positive for deposits, negative for withdrawals.
func (p *Posting) Signed() int64 {
	if p.Kind == KindDeposit {
		return p.Amount
	}
	return -p.Amount
}

// IsCredit reports whether the posting increases the balance.
func (p *Posting) IsCredit() bool {
	return p.Kind == KindDeposit
}

// Patch is a full replace of a posting's mutable fields. ID and OwnerID are
// never patched.
type Patch struct {
	Kind           Kind
	Amount         int64
	CounterpartyID *uuid.UUID
	Description    string
	Category       string
	OccurredAt     time.Time
}

// Validate checks the patch the same way New checks a fresh posting.
func (p Patch) Validate() error {
	if !p.Kind.Valid() {
		return ErrInvalidKind
	}
	if p.Amount <= 0 {
		return ErrInvalidAmount
	}
	if p.OccurredAt.IsZero() {
		return ErrZeroOccurredAt
	}
	return nil
}

// Apply returns a copy of existing with the patch applied and UpdatedAt
// refreshed. The copy keeps ID, OwnerID, IdempotencyKey and CreatedAt.
func (p Patch) Apply(existing *Posting) *Posting {
	out := *existing
	out.Kind = p.Kind
	out.Amount = p.Amount
	out.CounterpartyID = p.CounterpartyID
	out.Description = p.Description
	out.Category = p.Category
	if out.Category == "" {
		out.Category = DefaultCategory
	}
	out.OccurredAt = p.OccurredAt
	out.UpdatedAt = time.Now()
	return &out
}
