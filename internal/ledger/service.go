package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/castilhosApc/financeiro-ledger/internal/domain/contact"
	"github.com/castilhosApc/financeiro-ledger/internal/domain/posting"
)

// CreateParams carries everything needed to post a new transaction.
// IdempotencyKey is optional; when a posting already carries the key the
// existing posting is returned instead of a duplicate write.
type CreateParams struct {
	OwnerID        uuid.UUID
	Kind           posting.Kind
	Amount         int64
	OccurredAt     time.Time
	CounterpartyID *uuid.UUID
	Description    string
	Category       string
	IdempotencyKey string
}

// Service is the mutation guard: the only entry point for state-changing
// ledger operations. Every mutation validates its input, serializes against
// other mutations on the same owner, and hands the store a HistoryGuard
// that re-checks the non-negative balance invariant over the owner's full
// history. The store runs the guard inside its own write serialization, so
// the checked history is the one the write lands on.
//
// Reads are delegated to the Calculator and never take the mutation lock.
type Service struct {
	repo     posting.Repository
	contacts contact.Directory
	calc     *Calculator
	locks    *OwnerLocks
	cache    *BalanceCache
	logger   *slog.Logger
}

// NewService creates the mutation guard. contacts and cache may be nil:
// without a directory counterparty ids are stored unchecked, without a
// cache every balance read hits the store.
func NewService(
	logger *slog.Logger,
	repo posting.Repository,
	contacts contact.Directory,
	calc *Calculator,
	locks *OwnerLocks,
	cache *BalanceCache,
) *Service {
	return &Service{
		repo:     repo,
		contacts: contacts,
		calc:     calc,
		locks:    locks,
		cache:    cache,
		logger:   logger,
	}
}

// Calculator exposes the read side.
func (s *Service) Calculator() *Calculator {
	return s.calc
}

// checkCounterparty verifies the referenced contact exists. The reference
// stays weak: the ledger stores the id, never owns the contact.
func (s *Service) checkCounterparty(ctx context.Context, id *uuid.UUID) error {
	if id == nil || s.contacts == nil {
		return nil
	}

	ok, err := s.contacts.Exists(ctx, *id)
	if err != nil {
		return err
	}
	if !ok {
		return contact.ErrContactNotFound{ID: *id}
	}
	return nil
}

// Create posts a new transaction for the owner. Withdrawals are rejected
// with ErrInsufficientFunds when the amount exceeds the current balance,
// and with ErrInvariantViolation when a backdated posting would drive some
// intermediate as-of balance negative.
func (s *Service) Create(ctx context.Context, params CreateParams) (*posting.Posting, error) {
	p, err := posting.New(params.OwnerID, params.Kind, params.Amount, params.OccurredAt)
	if err != nil {
		return nil, err
	}
	p.CounterpartyID = params.CounterpartyID
	p.Description = params.Description
	if params.Category != "" {
		p.Category = params.Category
	}
	p.IdempotencyKey = params.IdempotencyKey

	if err := s.checkCounterparty(ctx, params.CounterpartyID); err != nil {
		return nil, err
	}

	if params.IdempotencyKey != "" {
		existing, err := s.repo.GetByIdempotencyKey(ctx, params.IdempotencyKey)
		if err != nil {
			s.logger.Error("Idempotency key lookup failed",
				"idempotency_key", params.IdempotencyKey,
				"error", err,
			)
			return nil, err
		}
		if existing != nil {
			s.logger.Info("Found existing posting for idempotency key",
				"idempotency_key", params.IdempotencyKey,
				"posting_id", existing.ID.String(),
			)
			return existing, nil
		}
	}

	release, err := s.locks.Acquire(ctx, params.OwnerID)
	if err != nil {
		return nil, err
	}
	defer release()

	// The guard runs inside the store's own write serialization, against
	// the history the store sees at write time. The process-local lock
	// above only bounds contention among this instance's requests.
	guard := func(history []*posting.Posting) error {
		balance := sumSigned(history)
		if p.Kind == posting.KindWithdraw && p.Amount > balance {
			s.logger.Warn("Withdrawal rejected, insufficient funds",
				"owner_id", params.OwnerID.String(),
				"available", balance,
				"requested", p.Amount,
			)
			return ErrInsufficientFunds{OwnerID: params.OwnerID, Available: balance, Requested: p.Amount}
		}
		if err := checkHistory(append(history, p)); err != nil {
			s.logger.Warn("Posting rejected, historical invariant would break",
				"owner_id", params.OwnerID.String(),
				"posting_id", p.ID.String(),
				"error", err,
			)
			return err
		}
		return nil
	}

	if err := s.repo.Create(ctx, p, guard); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, params.OwnerID)

	s.logger.Info("Posting created",
		"posting_id", p.ID.String(),
		"owner_id", p.OwnerID.String(),
		"kind", string(p.Kind),
		"amount", p.Amount,
	)
	return p, nil
}

// Update fully replaces a posting's mutable fields. The funds check runs
// against the balance excluding the existing posting's contribution, so
// growing a withdrawal only needs to fit the freed-up baseline.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch posting.Patch) (*posting.Posting, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkCounterparty(ctx, patch.CounterpartyID); err != nil {
		return nil, err
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	release, err := s.locks.Acquire(ctx, existing.OwnerID)
	if err != nil {
		return nil, err
	}
	defer release()

	// Reload under the lock; a concurrent delete must surface as not-found.
	existing, err = s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := patch.Apply(existing)

	guard := func(history []*posting.Posting) error {
		// The posting's amount in the guarded history wins over the
		// snapshot read above: the baseline must free up exactly what
		// the store still holds for this posting.
		current := existing.Signed()
		for _, h := range history {
			if h.ID == id {
				current = h.Signed()
				break
			}
		}
		baseline := sumSigned(history) - current
		if patch.Kind == posting.KindWithdraw && patch.Amount > baseline {
			s.logger.Warn("Update rejected, insufficient funds",
				"posting_id", id.String(),
				"owner_id", existing.OwnerID.String(),
				"available", baseline,
				"requested", patch.Amount,
			)
			return ErrInsufficientFunds{OwnerID: existing.OwnerID, Available: baseline, Requested: patch.Amount}
		}
		if err := checkHistory(withReplaced(history, updated)); err != nil {
			s.logger.Warn("Update rejected, historical invariant would break",
				"posting_id", id.String(),
				"owner_id", existing.OwnerID.String(),
				"error", err,
			)
			return err
		}
		return nil
	}

	if err := s.repo.Update(ctx, updated, guard); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, existing.OwnerID)

	s.logger.Info("Posting updated",
		"posting_id", updated.ID.String(),
		"owner_id", updated.OwnerID.String(),
		"kind", string(updated.Kind),
		"amount", updated.Amount,
	)
	return updated, nil
}

// Delete removes a posting. Removing a deposit re-validates the remaining
// history: when later withdrawals depended on it the delete is rejected
// with ErrInvariantViolation rather than silently leaving a negative
// intermediate balance.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	release, err := s.locks.Acquire(ctx, existing.OwnerID)
	if err != nil {
		return err
	}
	defer release()

	guard := func(history []*posting.Posting) error {
		if err := checkHistory(withoutPosting(history, id)); err != nil {
			s.logger.Warn("Delete rejected, historical invariant would break",
				"posting_id", id.String(),
				"owner_id", existing.OwnerID.String(),
				"error", err,
			)
			return err
		}
		return nil
	}

	// A second delete of the same id fails with ErrPostingNotFound here,
	// signalling a duplicate retry rather than succeeding silently.
	if err := s.repo.Delete(ctx, id, guard); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, existing.OwnerID)

	s.logger.Info("Posting deleted",
		"posting_id", id.String(),
		"owner_id", existing.OwnerID.String(),
	)
	return nil
}

// Get returns a posting by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*posting.Posting, error) {
	return s.repo.Get(ctx, id)
}

// ListByOwner returns the owner's postings, newest first, with the total
// count for pagination.
func (s *Service) ListByOwner(ctx context.Context, ownerID uuid.UUID, page, perPage int) ([]*posting.Posting, int64, error) {
	offset := (page - 1) * perPage

	entries, err := s.repo.ListByOwner(ctx, ownerID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.repo.CountByOwner(ctx, ownerID)
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// Search filters the owner's postings by description, category, or
// counterparty.
func (s *Service) Search(ctx context.Context, ownerID uuid.UUID, f posting.Filter, page, perPage int) ([]*posting.Posting, error) {
	offset := (page - 1) * perPage
	return s.repo.Search(ctx, ownerID, f, perPage, offset)
}
