// Package memory provides an in-memory posting store. It backs unit and
// race tests of the ledger core, where a real database is unnecessary.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/castilhosApc/financeiro-ledger/internal/domain/posting"
)

// PostingRepository is a mutex-guarded map-backed posting.Repository.
type PostingRepository struct {
	mu       sync.RWMutex
	postings map[uuid.UUID]*posting.Posting
}

func NewPostingRepository() *PostingRepository {
	return &PostingRepository{
		postings: make(map[uuid.UUID]*posting.Posting),
	}
}

func (r *PostingRepository) Create(_ context.Context, p *posting.Posting, guard posting.HistoryGuard) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.postings[p.ID]; exists {
		return posting.ErrDuplicatePosting{ID: p.ID}
	}
	if p.IdempotencyKey != "" {
		for _, existing := range r.postings {
			if existing.IdempotencyKey == p.IdempotencyKey {
				return posting.ErrDuplicatePosting{ID: existing.ID}
			}
		}
	}
	if err := r.runGuard(p.OwnerID, guard); err != nil {
		return err
	}

	r.postings[p.ID] = clone(p)
	return nil
}

func (r *PostingRepository) Update(_ context.Context, p *posting.Posting, guard posting.HistoryGuard) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.postings[p.ID]; !exists {
		return posting.ErrPostingNotFound{ID: p.ID}
	}
	if err := r.runGuard(p.OwnerID, guard); err != nil {
		return err
	}
	r.postings[p.ID] = clone(p)
	return nil
}

func (r *PostingRepository) Delete(_ context.Context, id uuid.UUID, guard posting.HistoryGuard) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.postings[id]
	if !exists {
		return posting.ErrPostingNotFound{ID: id}
	}
	if err := r.runGuard(existing.OwnerID, guard); err != nil {
		return err
	}
	delete(r.postings, id)
	return nil
}

// runGuard feeds the guard the owner's history in as-of order. Callers hold
// the write lock, so the history cannot move under the guard.
func (r *PostingRepository) runGuard(ownerID uuid.UUID, guard posting.HistoryGuard) error {
	if guard == nil {
		return nil
	}
	return guard(r.historyLocked(ownerID))
}

func (r *PostingRepository) Get(_ context.Context, id uuid.UUID) (*posting.Posting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.postings[id]
	if !exists {
		return nil, posting.ErrPostingNotFound{ID: id}
	}
	return clone(p), nil
}

func (r *PostingRepository) ListByOwner(_ context.Context, ownerID uuid.UUID, limit, offset int) ([]*posting.Posting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	owned := r.owned(ownerID)
	sortNewestFirst(owned)
	return paginate(owned, limit, offset), nil
}

func (r *PostingRepository) CountByOwner(_ context.Context, ownerID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.owned(ownerID))), nil
}

func (r *PostingRepository) ListHistory(_ context.Context, ownerID uuid.UUID) ([]*posting.Posting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.historyLocked(ownerID), nil
}

// historyLocked returns the owner's postings in as-of order. The caller
// must hold at least a read lock.
func (r *PostingRepository) historyLocked(ownerID uuid.UUID) []*posting.Posting {
	owned := r.owned(ownerID)
	sort.SliceStable(owned, func(i, j int) bool {
		a, b := owned[i], owned[j]
		if !a.OccurredAt.Equal(b.OccurredAt) {
			return a.OccurredAt.Before(b.OccurredAt)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
	return owned
}

func (r *PostingRepository) Search(_ context.Context, ownerID uuid.UUID, f posting.Filter, limit, offset int) ([]*posting.Posting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*posting.Posting
	for _, p := range r.owned(ownerID) {
		if f.Description != "" && !strings.Contains(strings.ToLower(p.Description), strings.ToLower(f.Description)) {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.CounterpartyID != nil && (p.CounterpartyID == nil || *p.CounterpartyID != *f.CounterpartyID) {
			continue
		}
		matched = append(matched, p)
	}
	sortNewestFirst(matched)
	return paginate(matched, limit, offset), nil
}

func (r *PostingRepository) GetByIdempotencyKey(_ context.Context, key string) (*posting.Posting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.postings {
		if p.IdempotencyKey == key {
			return clone(p), nil
		}
	}
	return nil, nil
}

func (r *PostingRepository) owned(ownerID uuid.UUID) []*posting.Posting {
	var owned []*posting.Posting
	for _, p := range r.postings {
		if p.OwnerID == ownerID {
			owned = append(owned, clone(p))
		}
	}
	return owned
}

func sortNewestFirst(ps []*posting.Posting) {
	sort.SliceStable(ps, func(i, j int) bool {
		a, b := ps[i], ps[j]
		if !a.OccurredAt.Equal(b.OccurredAt) {
			return a.OccurredAt.After(b.OccurredAt)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID.String() > b.ID.String()
	})
}

func paginate(ps []*posting.Posting, limit, offset int) []*posting.Posting {
	if offset >= len(ps) {
		return nil
	}
	end := offset + limit
	if limit <= 0 || end > len(ps) {
		end = len(ps)
	}
	return ps[offset:end]
}

func clone(p *posting.Posting) *posting.Posting {
	out := *p
	if p.CounterpartyID != nil {
		cp := *p.CounterpartyID
		out.CounterpartyID = &cp
	}
	return &out
}
