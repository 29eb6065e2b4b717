package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/castilhosApc/financeiro-ledger/internal/domain/posting"
)

// Granularity selects the calendar bucket for period statistics
type Granularity string

const (
	GranularityMonth Granularity = "month"
	GranularityYear  Granularity = "year"
)

// Valid reports whether g is a supported granularity.
func (g Granularity) Valid() bool {
	return g == GranularityMonth || g == GranularityYear
}

// periodKey buckets a posting date; "2006-01" for months, "2006" for years.
func (g Granularity) periodKey(t time.Time) string {
	if g == GranularityYear {
		return t.Format("2006")
	}
	return t.Format("2006-01")
}

// PeriodStats aggregates one calendar period. Income and Expenses are the
// per-period sums, not cumulative totals; Net is their difference.
type PeriodStats struct {
	Income   int64 `json:"income"`
	Expenses int64 `json:"expenses"`
	Net      int64 `json:"net_balance"`
}

const (
	readRetries      = 2
	readRetryBackoff = 50 * time.Millisecond
)

// Calculator derives balances and statistics from the posting store. It
// never mutates, and it never takes the mutation lock: readers may observe
// a balance that is immediately stale relative to an in-flight write.
type Calculator struct {
	repo   posting.Repository
	cache  *BalanceCache
	logger *slog.Logger
}

// NewCalculator creates a calculator. cache may be nil.
func NewCalculator(logger *slog.Logger, repo posting.Repository, cache *BalanceCache) *Calculator {
	return &Calculator{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// history loads the owner's full as-of-ordered history, retrying transient
// storage failures with bounded backoff. Reads are safe to retry; writes
// are not, which is why this helper lives on the calculator only.
func (c *Calculator) history(ctx context.Context, ownerID uuid.UUID) ([]*posting.Posting, error) {
	var ps []*posting.Posting
	var err error

	for attempt := 0; ; attempt++ {
		ps, err = c.repo.ListHistory(ctx, ownerID)
		if err == nil {
			return ps, nil
		}
		if attempt >= readRetries || ctx.Err() != nil {
			return nil, err
		}
		c.logger.Warn("Retrying history read after storage failure",
			"owner_id", ownerID.String(),
			"attempt", attempt+1,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return nil, err
		case <-time.After(readRetryBackoff * time.Duration(attempt+1)):
		}
	}
}

// CurrentBalance returns the sum of all signed postings for the owner.
func (c *Calculator) CurrentBalance(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	if balance, ok := c.cache.Get(ctx, ownerID); ok {
		return balance, nil
	}

	ps, err := c.history(ctx, ownerID)
	if err != nil {
		return 0, err
	}

	balance := sumSigned(ps)
	c.cache.Set(ctx, ownerID, balance)
	return balance, nil
}

// BalanceAsOf returns the balance considering only postings with
// occurred_at <= at. Postings at the exact instant are included, in the
// documented tie-break order.
func (c *Calculator) BalanceAsOf(ctx context.Context, ownerID uuid.UUID, at time.Time) (int64, error) {
	ps, err := c.history(ctx, ownerID)
	if err != nil {
		return 0, err
	}

	var balance int64
	for _, p := range ps {
		if p.OccurredAt.After(at) {
			continue
		}
		balance += p.Signed()
	}
	return balance, nil
}

// StatsByPeriod buckets the owner's postings by calendar period of
// occurred_at. Consumers should sort the keys; map order carries no meaning.
func (c *Calculator) StatsByPeriod(ctx context.Context, ownerID uuid.UUID, g Granularity) (map[string]PeriodStats, error) {
	if !g.Valid() {
		g = GranularityMonth
	}

	ps, err := c.history(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	stats := make(map[string]PeriodStats)
	for _, p := range ps {
		key := g.periodKey(p.OccurredAt)
		s := stats[key]
		if p.IsCredit() {
			s.Income += p.Amount
		} else {
			s.Expenses += p.Amount
		}
		s.Net = s.Income - s.Expenses
		stats[key] = s
	}

	return stats, nil
}

// HasSufficientFunds reports whether the owner's current balance covers the
// amount. Advisory only: the guard re-checks under the mutation lock.
func (c *Calculator) HasSufficientFunds(ctx context.Context, ownerID uuid.UUID, amount int64) (bool, error) {
	balance, err := c.CurrentBalance(ctx, ownerID)
	if err != nil {
		return false, err
	}
	return balance >= amount, nil
}
