package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/castilhosApc/financeiro-ledger/internal/domain/posting"
	"github.com/castilhosApc/financeiro-ledger/internal/ledger"
)

// PostingHandler handles HTTP requests for posting operations
type PostingHandler struct {
	postingService PostingService
	logger         *slog.Logger
}

// NewPostingHandler creates a new posting handler
func NewPostingHandler(logger *slog.Logger, postingService PostingService) *PostingHandler {
	return &PostingHandler{
		postingService: postingService,
		logger:         logger,
	}
}

// Create records a new posting with idempotency support. Replays of the
// same idempotency key return the original posting instead of a duplicate.
func (h *PostingHandler) Create(c *gin.Context) {
	var req CreatePostingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		h.logger.Error("Invalid owner ID", "owner_id", req.OwnerID, "error", err)
		RespondBadRequest(c, "Invalid owner ID")
		return
	}

	amount, err := toMinorUnits(req.Amount)
	if err != nil {
		h.logger.Error("Invalid amount", "amount", req.Amount, "error", err)
		RespondBadRequest(c, "Invalid amount: "+err.Error())
		return
	}

	occurredAt, err := time.Parse(time.RFC3339, req.OccurredAt)
	if err != nil {
		h.logger.Error("Invalid occurred_at", "occurred_at", req.OccurredAt, "error", err)
		RespondBadRequest(c, "Invalid occurred_at, expected RFC3339")
		return
	}

	var counterpartyID *uuid.UUID
	if req.CounterpartyID != "" {
		id, err := uuid.Parse(req.CounterpartyID)
		if err != nil {
			h.logger.Error("Invalid counterparty ID", "counterparty_id", req.CounterpartyID, "error", err)
			RespondBadRequest(c, "Invalid counterparty ID")
			return
		}
		counterpartyID = &id
	}

	params := ledger.CreateParams{
		OwnerID:        ownerID,
		Kind:           posting.Kind(req.Kind),
		Amount:         amount,
		OccurredAt:     occurredAt,
		CounterpartyID: counterpartyID,
		Description:    req.Description,
		Category:       req.Category,
		IdempotencyKey: req.IdempotencyKey,
	}

	p, err := h.postingService.Create(c.Request.Context(), params)
	if err != nil {
		respondLedgerError(c, h.logger, err)
		return
	}

	// Idempotent replays answer with the original posting, same status.
	RespondCreated(c, mapPostingToResponse(p))
}

// GetByID retrieves a posting by its ID, returning 404 if not found
func (h *PostingHandler) GetByID(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid posting ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid posting ID")
		return
	}

	p, err := h.postingService.Get(c.Request.Context(), id)
	if err != nil {
		respondLedgerError(c, h.logger, err)
		return
	}

	RespondOK(c, mapPostingToResponse(p))
}

// Update fully replaces a posting's mutable fields
func (h *PostingHandler) Update(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid posting ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid posting ID")
		return
	}

	var req UpdatePostingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	amount, err := toMinorUnits(req.Amount)
	if err != nil {
		h.logger.Error("Invalid amount", "amount", req.Amount, "error", err)
		RespondBadRequest(c, "Invalid amount: "+err.Error())
		return
	}

	occurredAt, err := time.Parse(time.RFC3339, req.OccurredAt)
	if err != nil {
		h.logger.Error("Invalid occurred_at", "occurred_at", req.OccurredAt, "error", err)
		RespondBadRequest(c, "Invalid occurred_at, expected RFC3339")
		return
	}

	var counterpartyID *uuid.UUID
	if req.CounterpartyID != "" {
		cid, err := uuid.Parse(req.CounterpartyID)
		if err != nil {
			h.logger.Error("Invalid counterparty ID", "counterparty_id", req.CounterpartyID, "error", err)
			RespondBadRequest(c, "Invalid counterparty ID")
			return
		}
		counterpartyID = &cid
	}

	patch := posting.Patch{
		Kind:           posting.Kind(req.Kind),
		Amount:         amount,
		CounterpartyID: counterpartyID,
		Description:    req.Description,
		Category:       req.Category,
		OccurredAt:     occurredAt,
	}

	p, err := h.postingService.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondLedgerError(c, h.logger, err)
		return
	}

	RespondOK(c, mapPostingToResponse(p))
}

// Delete removes a posting. Deleting a deposit later withdrawals depended
// on is rejected with 409 INVARIANT_VIOLATION.
func (h *PostingHandler) Delete(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid posting ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid posting ID")
		return
	}

	if err := h.postingService.Delete(c.Request.Context(), id); err != nil {
		respondLedgerError(c, h.logger, err)
		return
	}

	RespondNoContent(c)
}

// ListByOwner retrieves an owner's paginated posting history, newest first.
// Optional description, category and counterparty_id filters narrow the
// result via search.
func (h *PostingHandler) ListByOwner(c *gin.Context) {
	ownerIDParam := c.Param("id")
	ownerID, err := uuid.Parse(ownerIDParam)
	if err != nil {
		h.logger.Error("Invalid owner ID", "owner_id", ownerIDParam, "error", err)
		RespondBadRequest(c, "Invalid owner ID")
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Error("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	var search SearchParams
	if err := c.ShouldBindQuery(&search); err != nil {
		h.logger.Error("Invalid search parameters", "error", err)
		RespondBadRequest(c, "Invalid search parameters")
		return
	}

	if search.Description != "" || search.Category != "" || search.CounterpartyID != "" {
		h.search(c, ownerID, search, pagination)
		return
	}

	entries, total, err := h.postingService.ListByOwner(c.Request.Context(), ownerID, pagination.Page, pagination.PerPage)
	if err != nil {
		respondLedgerError(c, h.logger, err)
		return
	}

	postings := make([]PostingResponse, 0, len(entries))
	for _, p := range entries {
		postings = append(postings, mapPostingToResponse(p))
	}

	RespondWithPaginatedData(c, http.StatusOK, postings, pagination.Page, pagination.PerPage, int(total))
}

func (h *PostingHandler) search(c *gin.Context, ownerID uuid.UUID, search SearchParams, pagination PaginationParams) {
	filter := posting.Filter{
		Description: search.Description,
		Category:    search.Category,
	}
	if search.CounterpartyID != "" {
		cid, err := uuid.Parse(search.CounterpartyID)
		if err != nil {
			h.logger.Error("Invalid counterparty ID", "counterparty_id", search.CounterpartyID, "error", err)
			RespondBadRequest(c, "Invalid counterparty ID")
			return
		}
		filter.CounterpartyID = &cid
	}

	entries, err := h.postingService.Search(c.Request.Context(), ownerID, filter, pagination.Page, pagination.PerPage)
	if err != nil {
		respondLedgerError(c, h.logger, err)
		return
	}

	postings := make([]PostingResponse, 0, len(entries))
	for _, p := range entries {
		postings = append(postings, mapPostingToResponse(p))
	}

	RespondOK(c, postings)
}
