package contact

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Kind distinguishes individual and company contacts, mirroring the
// "Pessoa Física" / "Pessoa Jurídica" split of Brazilian banking.
type Kind string

const (
	KindIndividual Kind = "PF"
	KindCompany    Kind = "PJ"
)

// Contact is a payment counterparty. Postings reference contacts weakly:
// deleting a contact never cascades into the ledger.
type Contact struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	AccountNumber string    `json:"account_number,omitempty"`
	Bank          string    `json:"bank,omitempty"`
	Kind          Kind      `json:"kind"`
	CreatedAt     time.Time `json:"created_at"`
}

// Directory is the read-only view of contacts the ledger needs. The full
// contact lifecycle is owned elsewhere.
type Directory interface {
	Get(ctx context.Context, id uuid.UUID) (*Contact, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)

	// Search matches name substrings case-insensitively. An empty query
	// lists all contacts.
	Search(ctx context.Context, query string, limit, offset int) ([]*Contact, error)
}

// ErrContactNotFound indicates a missing contact
type ErrContactNotFound struct {
	ID uuid.UUID
}

func (e ErrContactNotFound) Error() string {
	return "contact not found: " + e.ID.String()
}

// Is matches any ErrContactNotFound when the target carries a nil ID
func (e ErrContactNotFound) Is(target error) bool {
	t, ok := target.(ErrContactNotFound)
	if !ok {
		return false
	}
	if t.ID == uuid.Nil {
		return true
	}
	return e.ID == t.ID
}
