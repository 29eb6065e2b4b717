package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/castilhosApc/financeiro-ledger/internal/domain/contact"
	"github.com/castilhosApc/financeiro-ledger/internal/domain/posting"
	"github.com/castilhosApc/financeiro-ledger/internal/ledger"
)

// respondLedgerError maps domain errors from the mutation guard onto HTTP
// statuses. Anything unrecognized is logged and answered with a 500.
func respondLedgerError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, posting.ErrInvalidAmount),
		errors.Is(err, posting.ErrInvalidKind),
		errors.Is(err, posting.ErrMissingOwner),
		errors.Is(err, posting.ErrZeroOccurredAt),
		errors.Is(err, posting.ErrImmutableField):
		RespondBadRequest(c, err.Error())

	case errors.Is(err, posting.ErrPostingNotFound{}):
		RespondNotFound(c, "Posting not found")

	case errors.Is(err, contact.ErrContactNotFound{}):
		RespondBadRequest(c, "Counterparty contact does not exist")

	case errors.Is(err, posting.ErrDuplicatePosting{}):
		RespondConflict(c, "CONFLICT", "Posting already exists")

	case errors.Is(err, ledger.ErrInsufficientFunds{}):
		RespondUnprocessable(c, "INSUFFICIENT_FUNDS", err.Error())

	case errors.Is(err, ledger.ErrInvariantViolation{}):
		RespondConflict(c, "INVARIANT_VIOLATION", err.Error())

	case errors.Is(err, ledger.ErrLockTimeout{}):
		RespondConflict(c, "CONCURRENT_MODIFICATION", "Another mutation is in flight for this owner, retry shortly")

	default:
		logger.Error("Unhandled ledger error", "error", err)
		RespondInternalError(c)
	}
}
