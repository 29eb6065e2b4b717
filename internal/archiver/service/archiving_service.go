package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/castilhosApc/financeiro-ledger/internal/domain/audit"
)

type ArchivingServiceImpl struct {
	archiveRepo audit.ArchiveRepository
	logger      *slog.Logger
}

func NewArchivingService(archiveRepo audit.ArchiveRepository, logger *slog.Logger) ArchivingService {
	return &ArchivingServiceImpl{
		archiveRepo: archiveRepo,
		logger:      logger,
	}
}

// ArchiveEvent writes the event into the MongoDB archive. A duplicate event
// means the message was redelivered after a successful archive, so it is
// treated as success and the offset can be committed.
func (s *ArchivingServiceImpl) ArchiveEvent(ctx context.Context, event *audit.Event) error {
	logger := s.logger
	if event.CorrelationID != "" {
		logger = s.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Info("Archiving audit event",
		"event_id", event.EventID.String(),
		"action", string(event.Action),
		"posting_id", event.PostingID.String(),
		"owner_id", event.OwnerID.String(),
	)

	if err := s.archiveRepo.Create(ctx, event); err != nil {
		if errors.Is(err, audit.ErrDuplicateEvent{}) {
			logger.Info("Audit event already archived, skipping", "event_id", event.EventID.String())
			return nil
		}
		logger.Error("Failed to archive audit event",
			"event_id", event.EventID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to archive audit event %s: %w", event.EventID.String(), err)
	}

	logger.Info("Successfully archived audit event", "event_id", event.EventID.String())
	return nil
}
