// Package postgres provides PostgreSQL implementations of the domain
// repositories. It handles all database operations while maintaining
// transaction safety and proper error handling for the ledger service.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/castilhosApc/financeiro-ledger/internal/domain/posting"
	"github.com/castilhosApc/financeiro-ledger/internal/platform/persistence"
)

const uniqueViolationCode = "23505"

// PostingRepository holds the raw SQL access to the postings table. It is
// wrapped by LedgerStore, which adds the transaction, the owner lock, and
// the history guard required by posting.Repository.
type PostingRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewPostingRepository creates a new PostgreSQL posting repository.
// It expects db.Pool() to satisfy persistence.Querier.
func NewPostingRepository(logger *slog.Logger, db *persistence.PostgresDB) *PostingRepository {
	return &PostingRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic
// operations across multiple repository calls.
func (r *PostingRepository) WithTx(tx pgx.Tx) *PostingRepository {
	return &PostingRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new posting. A duplicate id or idempotency key surfaces
// as ErrDuplicatePosting.
func (r *PostingRepository) Create(ctx context.Context, p *posting.Posting) error {
	query := `
		INSERT INTO postings (id, owner_id, kind, amount, counterparty_id, description, category, idempotency_key, occurred_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.querier.Exec(ctx, query,
		p.ID,
		p.OwnerID,
		p.Kind,
		p.Amount,
		p.CounterpartyID,
		p.Description,
		p.Category,
		nullableKey(p.IdempotencyKey),
		p.OccurredAt,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return posting.ErrDuplicatePosting{ID: p.ID}
		}
		r.logger.Error("Failed to create posting", "id", p.ID.String(), "error", err)
		return fmt.Errorf("failed to create posting: %w", err)
	}

	return nil
}

// Update replaces the mutable fields of an existing posting.
func (r *PostingRepository) Update(ctx context.Context, p *posting.Posting) error {
	query := `
		UPDATE postings
		SET kind = $1, amount = $2, counterparty_id = $3, description = $4, category = $5, occurred_at = $6, updated_at = $7
		WHERE id = $8
	`

	result, err := r.querier.Exec(ctx, query,
		p.Kind,
		p.Amount,
		p.CounterpartyID,
		p.Description,
		p.Category,
		p.OccurredAt,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update posting", "id", p.ID.String(), "error", err)
		return fmt.Errorf("failed to update posting: %w", err)
	}

	if result.RowsAffected() == 0 {
		return posting.ErrPostingNotFound{ID: p.ID}
	}

	return nil
}

// Delete removes a posting permanently.
func (r *PostingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM postings
		WHERE id = $1
	`

	result, err := r.querier.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to delete posting", "id", id.String(), "error", err)
		return fmt.Errorf("failed to delete posting: %w", err)
	}

	if result.RowsAffected() == 0 {
		return posting.ErrPostingNotFound{ID: id}
	}

	return nil
}

// Get retrieves a posting by its ID
func (r *PostingRepository) Get(ctx context.Context, id uuid.UUID) (*posting.Posting, error) {
	query := selectPosting + `
		WHERE id = $1
	`

	p, err := r.scanOne(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, posting.ErrPostingNotFound{ID: id}
		}
		r.logger.Error("Failed to get posting", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get posting: %w", err)
	}

	return p, nil
}

// ListByOwner returns the owner's postings newest first, paginated.
func (r *PostingRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*posting.Posting, error) {
	query := selectPosting + `
		WHERE owner_id = $1
		ORDER BY occurred_at DESC, created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, ownerID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list postings", "owner_id", ownerID.String(), "error", err)
		return nil, fmt.Errorf("failed to list postings: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// CountByOwner returns the total number of postings for pagination metadata.
func (r *PostingRepository) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM postings
		WHERE owner_id = $1
	`

	var count int64
	if err := r.querier.QueryRow(ctx, query, ownerID).Scan(&count); err != nil {
		r.logger.Error("Failed to count postings", "owner_id", ownerID.String(), "error", err)
		return 0, fmt.Errorf("failed to count postings: %w", err)
	}

	return count, nil
}

// ListHistory returns the owner's complete posting history in as-of order.
// The balance invariant check replays history in exactly this order, so the
// sort must stay deterministic: occurred_at, then created_at, then id.
func (r *PostingRepository) ListHistory(ctx context.Context, ownerID uuid.UUID) ([]*posting.Posting, error) {
	query := selectPosting + `
		WHERE owner_id = $1
		ORDER BY occurred_at ASC, created_at ASC, id ASC
	`

	rows, err := r.querier.Query(ctx, query, ownerID)
	if err != nil {
		r.logger.Error("Failed to list posting history", "owner_id", ownerID.String(), "error", err)
		return nil, fmt.Errorf("failed to list posting history: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// Search filters the owner's postings, ordered like ListByOwner.
func (r *PostingRepository) Search(ctx context.Context, ownerID uuid.UUID, f posting.Filter, limit, offset int) ([]*posting.Posting, error) {
	conditions := []string{"owner_id = $1"}
	args := []interface{}{ownerID}

	if f.Description != "" {
		args = append(args, "%"+f.Description+"%")
		conditions = append(conditions, "description ILIKE $"+strconv.Itoa(len(args)))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		conditions = append(conditions, "category = $"+strconv.Itoa(len(args)))
	}
	if f.CounterpartyID != nil {
		args = append(args, *f.CounterpartyID)
		conditions = append(conditions, "counterparty_id = $"+strconv.Itoa(len(args)))
	}

	args = append(args, limit)
	limitPlaceholder := strconv.Itoa(len(args))
	args = append(args, offset)
	offsetPlaceholder := strconv.Itoa(len(args))

	query := selectPosting + `
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY occurred_at DESC, created_at DESC, id DESC
		LIMIT $` + limitPlaceholder + ` OFFSET $` + offsetPlaceholder

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to search postings", "owner_id", ownerID.String(), "error", err)
		return nil, fmt.Errorf("failed to search postings: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// GetByIdempotencyKey retrieves a posting by its idempotency key.
// Returns nil, nil when no posting carries the key.
func (r *PostingRepository) GetByIdempotencyKey(ctx context.Context, key string) (*posting.Posting, error) {
	query := selectPosting + `
		WHERE idempotency_key = $1
	`

	p, err := r.scanOne(r.querier.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get posting by idempotency key", "error", err)
		return nil, fmt.Errorf("failed to get posting by idempotency key: %w", err)
	}

	return p, nil
}

const selectPosting = `
		SELECT id, owner_id, kind, amount, counterparty_id, description, category, idempotency_key, occurred_at, created_at, updated_at
		FROM postings`

func (r *PostingRepository) scanOne(row pgx.Row) (*posting.Posting, error) {
	var p posting.Posting
	var idempotencyKey *string
	err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.Kind,
		&p.Amount,
		&p.CounterpartyID,
		&p.Description,
		&p.Category,
		&idempotencyKey,
		&p.OccurredAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if idempotencyKey != nil {
		p.IdempotencyKey = *idempotencyKey
	}
	return &p, nil
}

func (r *PostingRepository) scanAll(rows pgx.Rows) ([]*posting.Posting, error) {
	var postings []*posting.Posting
	for rows.Next() {
		var p posting.Posting
		var idempotencyKey *string
		err := rows.Scan(
			&p.ID,
			&p.OwnerID,
			&p.Kind,
			&p.Amount,
			&p.CounterpartyID,
			&p.Description,
			&p.Category,
			&idempotencyKey,
			&p.OccurredAt,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan posting", "error", err)
			return nil, fmt.Errorf("failed to scan posting: %w", err)
		}
		if idempotencyKey != nil {
			p.IdempotencyKey = *idempotencyKey
		}
		postings = append(postings, &p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over postings", "error", err)
		return nil, fmt.Errorf("error iterating over postings: %w", err)
	}

	return postings, nil
}

// nullableKey maps an empty idempotency key to NULL so the partial unique
// index only applies to postings that actually carry a key.
func nullableKey(key string) *string {
	if key == "" {
		return nil
	}
	return &key
}
