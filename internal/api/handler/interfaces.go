package handler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/castilhosApc/financeiro-ledger/internal/domain/posting"
	"github.com/castilhosApc/financeiro-ledger/internal/ledger"
)

// PostingService is the mutation and lookup surface handlers need.
// *ledger.Service satisfies it.
type PostingService interface {
	Create(ctx context.Context, params ledger.CreateParams) (*posting.Posting, error)
	Update(ctx context.Context, id uuid.UUID, patch posting.Patch) (*posting.Posting, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*posting.Posting, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, page, perPage int) ([]*posting.Posting, int64, error)
	Search(ctx context.Context, ownerID uuid.UUID, f posting.Filter, page, perPage int) ([]*posting.Posting, error)
}

// BalanceService is the read-only balance surface handlers need.
// *ledger.Calculator satisfies it.
type BalanceService interface {
	CurrentBalance(ctx context.Context, ownerID uuid.UUID) (int64, error)
	BalanceAsOf(ctx context.Context, ownerID uuid.UUID, at time.Time) (int64, error)
	StatsByPeriod(ctx context.Context, ownerID uuid.UUID, g ledger.Granularity) (map[string]ledger.PeriodStats, error)
}
