package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/castilhosApc/financeiro-ledger/internal/domain/contact"
)

// ContactHandler handles HTTP requests for the contact directory
type ContactHandler struct {
	directory contact.Directory
	logger    *slog.Logger
}

// NewContactHandler creates a new contact handler
func NewContactHandler(logger *slog.Logger, directory contact.Directory) *ContactHandler {
	return &ContactHandler{
		directory: directory,
		logger:    logger,
	}
}

// GetByID retrieves a contact by its ID, returning 404 if not found
func (h *ContactHandler) GetByID(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid contact ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid contact ID")
		return
	}

	ct, err := h.directory.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, contact.ErrContactNotFound{}) {
			RespondNotFound(c, "Contact not found")
			return
		}
		h.logger.Error("Failed to get contact", "id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapContactToResponse(ct))
}

// Search lists contacts matching the `q` name query, case-insensitively.
// An empty query lists all contacts, paginated.
func (h *ContactHandler) Search(c *gin.Context) {
	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Error("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	query := c.Query("q")
	offset := (pagination.Page - 1) * pagination.PerPage

	entries, err := h.directory.Search(c.Request.Context(), query, pagination.PerPage, offset)
	if err != nil {
		h.logger.Error("Failed to search contacts", "query", query, "error", err)
		RespondInternalError(c)
		return
	}

	contacts := make([]ContactResponse, 0, len(entries))
	for _, ct := range entries {
		contacts = append(contacts, mapContactToResponse(ct))
	}

	RespondOK(c, contacts)
}
