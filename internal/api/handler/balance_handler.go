package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/castilhosApc/financeiro-ledger/internal/ledger"
)

// BalanceHandler handles HTTP requests for balance and statistics reads
type BalanceHandler struct {
	balanceService BalanceService
	logger         *slog.Logger
}

// NewBalanceHandler creates a new balance handler
func NewBalanceHandler(logger *slog.Logger, balanceService BalanceService) *BalanceHandler {
	return &BalanceHandler{
		balanceService: balanceService,
		logger:         logger,
	}
}

// GetBalance returns the owner's current balance, or the as-of balance when
// an `as_of` RFC3339 query parameter is given
func (h *BalanceHandler) GetBalance(c *gin.Context) {
	ownerIDParam := c.Param("id")
	ownerID, err := uuid.Parse(ownerIDParam)
	if err != nil {
		h.logger.Error("Invalid owner ID", "owner_id", ownerIDParam, "error", err)
		RespondBadRequest(c, "Invalid owner ID")
		return
	}

	response := BalanceResponse{OwnerID: ownerID.String()}

	if asOfParam := c.Query("as_of"); asOfParam != "" {
		asOf, err := time.Parse(time.RFC3339, asOfParam)
		if err != nil {
			h.logger.Error("Invalid as_of", "as_of", asOfParam, "error", err)
			RespondBadRequest(c, "Invalid as_of, expected RFC3339")
			return
		}

		balance, err := h.balanceService.BalanceAsOf(c.Request.Context(), ownerID, asOf)
		if err != nil {
			h.logger.Error("Failed to compute as-of balance", "owner_id", ownerIDParam, "error", err)
			RespondInternalError(c)
			return
		}

		response.Balance = fromMinorUnits(balance)
		response.AsOf = asOf.Format(time.RFC3339)
		RespondOK(c, response)
		return
	}

	balance, err := h.balanceService.CurrentBalance(c.Request.Context(), ownerID)
	if err != nil {
		h.logger.Error("Failed to compute balance", "owner_id", ownerIDParam, "error", err)
		RespondInternalError(c)
		return
	}

	response.Balance = fromMinorUnits(balance)
	RespondOK(c, response)
}

// GetStats returns per-period income, expense and net totals bucketed by
// the `granularity` query parameter (month or year, defaulting to month)
func (h *BalanceHandler) GetStats(c *gin.Context) {
	ownerIDParam := c.Param("id")
	ownerID, err := uuid.Parse(ownerIDParam)
	if err != nil {
		h.logger.Error("Invalid owner ID", "owner_id", ownerIDParam, "error", err)
		RespondBadRequest(c, "Invalid owner ID")
		return
	}

	granularity := ledger.Granularity(c.DefaultQuery("granularity", string(ledger.GranularityMonth)))
	if !granularity.Valid() {
		RespondBadRequest(c, "Invalid granularity, expected month or year")
		return
	}

	stats, err := h.balanceService.StatsByPeriod(c.Request.Context(), ownerID, granularity)
	if err != nil {
		h.logger.Error("Failed to compute stats", "owner_id", ownerIDParam, "error", err)
		RespondInternalError(c)
		return
	}

	periods := make(map[string]PeriodStatsResponse, len(stats))
	for key, s := range stats {
		periods[key] = PeriodStatsResponse{
			Income:   fromMinorUnits(s.Income),
			Expenses: fromMinorUnits(s.Expenses),
			Net:      fromMinorUnits(s.Net),
		}
	}

	RespondOK(c, StatsResponse{
		OwnerID:     ownerID.String(),
		Granularity: string(granularity),
		Periods:     periods,
	})
}
