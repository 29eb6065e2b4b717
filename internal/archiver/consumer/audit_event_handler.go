package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/castilhosApc/financeiro-ledger/internal/archiver/service"
	"github.com/castilhosApc/financeiro-ledger/internal/domain/audit"
	"github.com/castilhosApc/financeiro-ledger/internal/platform/messaging/producers"
)

// AuditEventHandler handles incoming audit event messages from Kafka
type AuditEventHandler struct {
	archivingService service.ArchivingService
	producer         producers.DeadLetterPublisher
	logger           *slog.Logger
}

// NewAuditEventHandler creates a new handler
func NewAuditEventHandler(
	logger *slog.Logger,
	archivingService service.ArchivingService,
	producer producers.DeadLetterPublisher,
) *AuditEventHandler {
	return &AuditEventHandler{
		archivingService: archivingService,
		producer:         producer,
		logger:           logger,
	}
}

// HandleMessage processes Kafka messages
func (h *AuditEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var event audit.Event
	if err := json.Unmarshal(value, &event); err != nil {
		unmarshalErrorMsg := "Failed to unmarshal audit event from Kafka message"
		h.logger.Error(unmarshalErrorMsg,
			"error", err,
			"message_key", string(key),
		)

		// Send to DLQ if available
		if h.producer != nil {
			dlqReason := fmt.Sprintf("%s: %s", unmarshalErrorMsg, err.Error())
			if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
				h.logger.Error("Failed to publish message to DLQ after unmarshal error",
					"dlq_error", dlqErr,
					"original_error", err,
					"message_key", string(key),
				)
				// Return original error if DLQ fails
			} else {
				h.logger.Info("Successfully published unprocessable message to DLQ", "message_key", string(key), "reason", dlqReason)
				// Message handled, commit offset
				return nil
			}
		}
		// Allow Kafka retries
		return fmt.Errorf("failed to unmarshal message value: %w", err)
	}

	// Add correlation ID to logger
	logger := h.logger
	if event.CorrelationID != "" {
		logger = h.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Info("Received audit event for archiving",
		"event_id", event.EventID.String(),
		"action", string(event.Action),
		"posting_id", event.PostingID.String(),
		"owner_id", event.OwnerID.String(),
	)

	if err := h.archivingService.ArchiveEvent(ctx, &event); err != nil {
		logger.Error("Failed to archive audit event",
			"event_id", event.EventID.String(),
			"error", err,
		)
		return fmt.Errorf("archiving event %s failed: %w", event.EventID.String(), err)
	}

	logger.Info("Successfully archived audit event", "event_id", event.EventID.String())
	return nil // Success, commit offset
}
