package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/castilhosApc/financeiro-ledger/internal/domain/audit"
	"github.com/castilhosApc/financeiro-ledger/internal/domain/posting"
)

// txRunner runs a function inside a single database transaction.
// persistence.PostgresDB satisfies it.
type txRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// LedgerStore is the transactional posting store. Every mutation runs in a
// single database transaction that takes an advisory lock on the owner,
// re-reads the owner's history for the guard, writes the posting, and
// records the audit outbox row. Because the guard runs after the lock is
// held, a writer in another process cannot slip a posting in between the
// check and the write: its own transaction blocks on the same lock until
// this one commits.
type LedgerStore struct {
	db       txRunner
	postings *PostingRepository
	outbox   audit.OutboxRepository
	logger   *slog.Logger
}

// NewLedgerStore creates the transactional store backed by the given
// repositories. It satisfies posting.Repository.
func NewLedgerStore(logger *slog.Logger, db txRunner, postings *PostingRepository, outbox audit.OutboxRepository) posting.Repository {
	return &LedgerStore{
		db:       db,
		postings: postings,
		outbox:   outbox,
		logger:   logger,
	}
}

// Create writes the posting and its audit outbox row atomically. The guard
// runs against the in-transaction history after the owner lock is taken.
func (s *LedgerStore) Create(ctx context.Context, p *posting.Posting, guard posting.HistoryGuard) error {
	return s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		txPostings := s.postings.WithTx(tx)
		if err := lockOwner(ctx, tx, p.OwnerID); err != nil {
			return err
		}
		if err := runGuard(ctx, txPostings, p.OwnerID, guard); err != nil {
			return err
		}
		if err := txPostings.Create(ctx, p); err != nil {
			return err
		}
		return s.recordAudit(ctx, tx, audit.ActionCreate, p)
	})
}

// Update replaces the posting and records the audit outbox row atomically.
func (s *LedgerStore) Update(ctx context.Context, p *posting.Posting, guard posting.HistoryGuard) error {
	return s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		txPostings := s.postings.WithTx(tx)
		if err := lockOwner(ctx, tx, p.OwnerID); err != nil {
			return err
		}
		if err := runGuard(ctx, txPostings, p.OwnerID, guard); err != nil {
			return err
		}
		if err := txPostings.Update(ctx, p); err != nil {
			return err
		}
		return s.recordAudit(ctx, tx, audit.ActionUpdate, p)
	})
}

// Delete removes the posting and records the audit outbox row atomically.
// The posting is re-read inside the transaction so the audit event captures
// the deleted state.
func (s *LedgerStore) Delete(ctx context.Context, id uuid.UUID, guard posting.HistoryGuard) error {
	return s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		txPostings := s.postings.WithTx(tx)
		p, err := txPostings.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := lockOwner(ctx, tx, p.OwnerID); err != nil {
			return err
		}
		if err := runGuard(ctx, txPostings, p.OwnerID, guard); err != nil {
			return err
		}
		if err := txPostings.Delete(ctx, id); err != nil {
			return err
		}
		return s.recordAudit(ctx, tx, audit.ActionDelete, p)
	})
}

func (s *LedgerStore) Get(ctx context.Context, id uuid.UUID) (*posting.Posting, error) {
	return s.postings.Get(ctx, id)
}

func (s *LedgerStore) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*posting.Posting, error) {
	return s.postings.ListByOwner(ctx, ownerID, limit, offset)
}

func (s *LedgerStore) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	return s.postings.CountByOwner(ctx, ownerID)
}

func (s *LedgerStore) ListHistory(ctx context.Context, ownerID uuid.UUID) ([]*posting.Posting, error) {
	return s.postings.ListHistory(ctx, ownerID)
}

func (s *LedgerStore) Search(ctx context.Context, ownerID uuid.UUID, f posting.Filter, limit, offset int) ([]*posting.Posting, error) {
	return s.postings.Search(ctx, ownerID, f, limit, offset)
}

func (s *LedgerStore) GetByIdempotencyKey(ctx context.Context, key string) (*posting.Posting, error) {
	return s.postings.GetByIdempotencyKey(ctx, key)
}

func (s *LedgerStore) recordAudit(ctx context.Context, tx pgx.Tx, action audit.Action, p *posting.Posting) error {
	event := audit.NewEvent(action, p, audit.CorrelationIDFromContext(ctx))
	message, err := audit.NewMessage(event)
	if err != nil {
		return fmt.Errorf("failed to build audit message: %w", err)
	}
	return s.outbox.WithTx(tx).Create(ctx, message)
}

// runGuard feeds the guard the owner's history as the transaction sees it.
// The caller must already hold the owner's advisory lock on the same
// transaction.
func runGuard(ctx context.Context, repo *PostingRepository, ownerID uuid.UUID, guard posting.HistoryGuard) error {
	if guard == nil {
		return nil
	}
	history, err := repo.ListHistory(ctx, ownerID)
	if err != nil {
		return err
	}
	return guard(history)
}

// lockOwner takes a transaction-scoped advisory lock on the owner. The lock
// is released automatically at commit or rollback.
func lockOwner(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID) error {
	_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, ownerID.String())
	if err != nil {
		return fmt.Errorf("failed to lock owner %s: %w", ownerID.String(), err)
	}
	return nil
}
