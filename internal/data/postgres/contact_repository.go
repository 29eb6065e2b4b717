package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/castilhosApc/financeiro-ledger/internal/domain/contact"
	"github.com/castilhosApc/financeiro-ledger/internal/platform/persistence"
)

// ContactRepository implements the contact.Directory interface for PostgreSQL
type ContactRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewContactRepository creates a new PostgreSQL contact repository
func NewContactRepository(logger *slog.Logger, db *persistence.PostgresDB) contact.Directory {
	return &ContactRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// Get retrieves a contact by its ID
func (r *ContactRepository) Get(ctx context.Context, id uuid.UUID) (*contact.Contact, error) {
	query := `
		SELECT id, name, account_number, bank, kind, created_at
		FROM contacts
		WHERE id = $1
	`

	var c contact.Contact
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.Name,
		&c.AccountNumber,
		&c.Bank,
		&c.Kind,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, contact.ErrContactNotFound{ID: id}
		}
		r.logger.Error("Failed to get contact", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	return &c, nil
}

// Exists reports whether a contact with the given ID is registered
func (r *ContactRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(SELECT 1 FROM contacts WHERE id = $1)
	`

	var exists bool
	if err := r.querier.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		r.logger.Error("Failed to check contact existence", "id", id.String(), "error", err)
		return false, fmt.Errorf("failed to check contact existence: %w", err)
	}

	return exists, nil
}

// Search matches contact names case-insensitively. An empty query lists all
// contacts ordered by name.
func (r *ContactRepository) Search(ctx context.Context, query string, limit, offset int) ([]*contact.Contact, error) {
	sql := `
		SELECT id, name, account_number, bank, kind, created_at
		FROM contacts
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
		ORDER BY name ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, sql, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to search contacts", "error", err)
		return nil, fmt.Errorf("failed to search contacts: %w", err)
	}
	defer rows.Close()

	var contacts []*contact.Contact
	for rows.Next() {
		var c contact.Contact
		err := rows.Scan(
			&c.ID,
			&c.Name,
			&c.AccountNumber,
			&c.Bank,
			&c.Kind,
			&c.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan contact", "error", err)
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, &c)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over contacts", "error", err)
		return nil, fmt.Errorf("error iterating over contacts: %w", err)
	}

	return contacts, nil
}
