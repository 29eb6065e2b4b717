// Package ledger implements the mutation guard and balance calculator for
// owner accounts. The guard is the only writer: it validates postings,
// serializes mutations per owner, and enforces the non-negative balance
// invariant over the owner's full ordered history before any write reaches
// the store.
package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInsufficientFunds indicates a withdrawal larger than the available
// balance. Available lets callers render a user-facing message without
// re-querying.
type ErrInsufficientFunds struct {
	OwnerID   uuid.UUID
	Available int64
	Requested int64
}

func (e ErrInsufficientFunds) Error() string {
	return fmt.Sprintf("insufficient funds for owner %s: available %d, requested %d",
		e.OwnerID.String(), e.Available, e.Requested)
}

// Is matches any ErrInsufficientFunds when the target carries a nil OwnerID
func (e ErrInsufficientFunds) Is(target error) bool {
	t, ok := target.(ErrInsufficientFunds)
	if !ok {
		return false
	}
	if t.OwnerID == uuid.Nil {
		return true
	}
	return e.OwnerID == t.OwnerID
}

// ErrInvariantViolation indicates that a mutation would drive the owner's
// as-of balance negative at some point of the ordered history. At is the
// first instant where the replayed balance goes below zero.
type ErrInvariantViolation struct {
	OwnerID uuid.UUID
	At      time.Time
	Balance int64
}

func (e ErrInvariantViolation) Error() string {
	return fmt.Sprintf("mutation would drive balance of owner %s to %d at %s",
		e.OwnerID.String(), e.Balance, e.At.Format(time.RFC3339))
}

// Is matches any ErrInvariantViolation when the target carries a nil OwnerID
func (e ErrInvariantViolation) Is(target error) bool {
	t, ok := target.(ErrInvariantViolation)
	if !ok {
		return false
	}
	if t.OwnerID == uuid.Nil {
		return true
	}
	return e.OwnerID == t.OwnerID
}

// ErrLockTimeout indicates the per-owner mutation lock could not be
// acquired in time. Callers may retry.
type ErrLockTimeout struct {
	OwnerID uuid.UUID
}

func (e ErrLockTimeout) Error() string {
	return "timed out waiting for mutation lock on owner: " + e.OwnerID.String()
}

// Is matches any ErrLockTimeout when the target carries a nil OwnerID
func (e ErrLockTimeout) Is(target error) bool {
	t, ok := target.(ErrLockTimeout)
	if !ok {
		return false
	}
	if t.OwnerID == uuid.Nil {
		return true
	}
	return e.OwnerID == t.OwnerID
}
