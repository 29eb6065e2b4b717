package handler

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/castilhosApc/financeiro-ledger/internal/domain/contact"
	"github.com/castilhosApc/financeiro-ledger/internal/domain/posting"
)

// Amounts cross the API boundary as decimal strings ("125.50") and are held
// internally as int64 minor units. Parsing rejects anything finer than cents
// so no precision is silently dropped.
var (
	errAmountNotPositive = errors.New("amount must be greater than zero")
	errAmountPrecision   = errors.New("amount must have at most two decimal places")
)

func toMinorUnits(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}

	cents := d.Shift(2)
	if !cents.IsInteger() {
		return 0, errAmountPrecision
	}
	if !cents.IsPositive() {
		return 0, errAmountNotPositive
	}

	return cents.IntPart(), nil
}

func fromMinorUnits(v int64) string {
	return decimal.NewFromInt(v).Shift(-2).StringFixed(2)
}

// CreatePostingRequest represents a request to record a new posting
type CreatePostingRequest struct {
	OwnerID        string `json:"owner_id" binding:"required,uuid"`
	Kind           string `json:"kind" binding:"required,oneof=DEPOSIT WITHDRAW"`
	Amount         string `json:"amount" binding:"required"`
	OccurredAt     string `json:"occurred_at" binding:"required"`
	CounterpartyID string `json:"counterparty_id,omitempty" binding:"omitempty,uuid"`
	Description    string `json:"description,omitempty"`
	Category       string `json:"category,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// UpdatePostingRequest fully replaces a posting's mutable fields
type UpdatePostingRequest struct {
	Kind           string `json:"kind" binding:"required,oneof=DEPOSIT WITHDRAW"`
	Amount         string `json:"amount" binding:"required"`
	OccurredAt     string `json:"occurred_at" binding:"required"`
	CounterpartyID string `json:"counterparty_id,omitempty" binding:"omitempty,uuid"`
	Description    string `json:"description,omitempty"`
	Category       string `json:"category,omitempty"`
}

// PostingResponse represents a posting in API responses
type PostingResponse struct {
	ID             string `json:"id"`
	OwnerID        string `json:"owner_id"`
	Kind           string `json:"kind"`
	Amount         string `json:"amount"`
	CounterpartyID string `json:"counterparty_id,omitempty"`
	Description    string `json:"description,omitempty"`
	Category       string `json:"category"`
	OccurredAt     string `json:"occurred_at"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

func mapPostingToResponse(p *posting.Posting) PostingResponse {
	response := PostingResponse{
		ID:          p.ID.String(),
		OwnerID:     p.OwnerID.String(),
		Kind:        string(p.Kind),
		Amount:      fromMinorUnits(p.Amount),
		Description: p.Description,
		Category:    p.Category,
		OccurredAt:  p.OccurredAt.Format(time.RFC3339),
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.Format(time.RFC3339),
	}

	if p.CounterpartyID != nil {
		response.CounterpartyID = p.CounterpartyID.String()
	}

	return response
}

// BalanceResponse represents an owner's balance in API responses
type BalanceResponse struct {
	OwnerID string `json:"owner_id"`
	Balance string `json:"balance"`
	AsOf    string `json:"as_of,omitempty"`
}

// PeriodStatsResponse aggregates one calendar period in API responses
type PeriodStatsResponse struct {
	Income   string `json:"income"`
	Expenses string `json:"expenses"`
	Net      string `json:"net_balance"`
}

// StatsResponse represents per-period statistics in API responses
type StatsResponse struct {
	OwnerID     string                         `json:"owner_id"`
	Granularity string                         `json:"granularity"`
	Periods     map[string]PeriodStatsResponse `json:"periods"`
}

// ContactResponse represents a contact in API responses
type ContactResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	AccountNumber string `json:"account_number,omitempty"`
	Bank          string `json:"bank,omitempty"`
	Kind          string `json:"kind"`
	CreatedAt     string `json:"created_at"`
}

func mapContactToResponse(ct *contact.Contact) ContactResponse {
	return ContactResponse{
		ID:            ct.ID.String(),
		Name:          ct.Name,
		AccountNumber: ct.AccountNumber,
		Bank:          ct.Bank,
		Kind:          string(ct.Kind),
		CreatedAt:     ct.CreatedAt.Format(time.RFC3339),
	}
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}

// SearchParams represents optional posting filters for list endpoints
type SearchParams struct {
	Description    string `form:"description"`
	Category       string `form:"category"`
	CounterpartyID string `form:"counterparty_id" binding:"omitempty,uuid"`
}
