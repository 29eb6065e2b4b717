package ledger

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/castilhosApc/financeiro-ledger/internal/domain/posting"
)

// sortAsOf orders postings for as-of balance computation: occurred_at
// ascending, ties broken by created_at ascending, then id ascending. The
// tie-break must stay deterministic because invariant checks on update and
// delete replay the history in this exact order.
func sortAsOf(ps []*posting.Posting) {
	sort.SliceStable(ps, func(i, j int) bool {
		a, b := ps[i], ps[j]
		if !a.OccurredAt.Equal(b.OccurredAt) {
			return a.OccurredAt.Before(b.OccurredAt)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return strings.Compare(a.ID.String(), b.ID.String()) < 0
	})
}

// sumSigned reduces a posting set to its net balance in minor units.
func sumSigned(ps []*posting.Posting) int64 {
	var total int64
	for _, p := range ps {
		total += p.Signed()
	}
	return total
}

// checkHistory replays an owner's candidate history in as-of order and
// fails on the first instant the running balance goes negative. The input
// slice is reordered in place.
func checkHistory(ps []*posting.Posting) error {
	sortAsOf(ps)

	var running int64
	for _, p := range ps {
		running += p.Signed()
		if running < 0 {
			return ErrInvariantViolation{
				OwnerID: p.OwnerID,
				At:      p.OccurredAt,
				Balance: running,
			}
		}
	}
	return nil
}

// withoutPosting returns history minus the posting with the given id.
func withoutPosting(ps []*posting.Posting, id uuid.UUID) []*posting.Posting {
	out := make([]*posting.Posting, 0, len(ps))
	for _, p := range ps {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

// withReplaced returns history with the posting of the same id swapped for
// the candidate. The candidate is appended when the id is absent.
func withReplaced(ps []*posting.Posting, candidate *posting.Posting) []*posting.Posting {
	out := make([]*posting.Posting, 0, len(ps)+1)
	replaced := false
	for _, p := range ps {
		if p.ID == candidate.ID {
			out = append(out, candidate)
			replaced = true
			continue
		}
		out = append(out, p)
	}
	if !replaced {
		out = append(out, candidate)
	}
	return out
}
