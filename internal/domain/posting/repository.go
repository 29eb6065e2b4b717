package posting

import (
	"context"

	"github.com/google/uuid"
)

// Filter narrows ListByOwner/Search results. Zero values mean "no filter".
type Filter struct {
	Description    string     // substring match, case-insensitive
	Category       string     // exact match
	CounterpartyID *uuid.UUID // exact match
}

// HistoryGuard re-validates a mutation against the owner's history. The
// store invokes it with the freshest committed history, in as-of order,
// while the owner's writers are serialized. A non-nil return aborts the
// mutation and is surfaced unchanged to the caller. The guard must not
// retain the slice past its return.
type HistoryGuard func(history []*Posting) error

// Repository is the durable store of postings. Implementations must assign
// nothing: entities arrive fully formed, the store only persists them.
//
// Mutations take a HistoryGuard. Implementations must run the guard inside
// whatever serializes the owner's writes (a transaction holding the owner
// lock, a store mutex) so that the history it sees cannot change before the
// mutation lands. A nil guard skips the check.
//
// ListHistory returns the owner's full posting history in as-of order:
// occurred_at ascending, ties broken by created_at ascending then id
// ascending. Every invariant check in the ledger depends on this order
// being deterministic.
type Repository interface {
	Create(ctx context.Context, p *Posting, guard HistoryGuard) error
	Update(ctx context.Context, p *Posting, guard HistoryGuard) error
	Delete(ctx context.Context, id uuid.UUID, guard HistoryGuard) error
	Get(ctx context.Context, id uuid.UUID) (*Posting, error)

	// ListByOwner returns postings ordered by occurred_at descending
	// (newest first), paginated.
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*Posting, error)
	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)

	ListHistory(ctx context.Context, ownerID uuid.UUID) ([]*Posting, error)

	// Search filters the owner's postings, ordered like ListByOwner.
	Search(ctx context.Context, ownerID uuid.UUID, f Filter, limit, offset int) ([]*Posting, error)

	// GetByIdempotencyKey returns nil, nil when no posting carries the key.
	GetByIdempotencyKey(ctx context.Context, key string) (*Posting, error)
}

// ErrPostingNotFound indicates a missing posting
type ErrPostingNotFound struct {
	ID uuid.UUID
}

func (e ErrPostingNotFound) Error() string {
	return "posting not found: " + e.ID.String()
}

// Is matches any ErrPostingNotFound when the target carries a nil ID
func (e ErrPostingNotFound) Is(target error) bool {
	t, ok := target.(ErrPostingNotFound)
	if !ok {
		return false
	}
	if t.ID == uuid.Nil {
		return true
	}
	return e.ID == t.ID
}

// ErrDuplicatePosting indicates an id or idempotency-key uniqueness violation
type ErrDuplicatePosting struct {
	ID uuid.UUID
}

func (e ErrDuplicatePosting) Error() string {
	return "duplicate posting: " + e.ID.String()
}

// Is matches any ErrDuplicatePosting when the target carries a nil ID
func (e ErrDuplicatePosting) Is(target error) bool {
	t, ok := target.(ErrDuplicatePosting)
	if !ok {
		return false
	}
	if t.ID == uuid.Nil {
		return true
	}
	return e.ID == t.ID
}
