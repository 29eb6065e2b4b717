package service

import (
	"context"

	"github.com/castilhosApc/financeiro-ledger/internal/domain/audit"
)

// ArchivingService defines the interface for archiving audit events.
type ArchivingService interface {
	ArchiveEvent(ctx context.Context, event *audit.Event) error
}
