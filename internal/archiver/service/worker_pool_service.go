package service

import (
	"context"
	"log/slog"

	"github.com/panjf2000/ants/v2"

	"github.com/castilhosApc/financeiro-ledger/internal/domain/audit"
)

// WorkerPoolArchivingService implements the ArchivingService interface on
// top of a bounded worker pool.
type WorkerPoolArchivingService struct {
	baseService ArchivingService
	pool        *ants.Pool
	logger      *slog.Logger
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolArchivingService(
	baseService ArchivingService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolArchivingService, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolArchivingService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
	}, nil
}

// ArchiveEvent submits an audit event to the worker pool and waits for the
// result. The pool bounds how many archive writes run concurrently; the
// buffered channel lets the worker finish even if the submitter has gone.
func (s *WorkerPoolArchivingService) ArchiveEvent(ctx context.Context, event *audit.Event) error {
	logger := s.logger
	if event.CorrelationID != "" {
		logger = s.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Info("Submitting audit event to worker pool",
		"event_id", event.EventID.String(),
		"owner_id", event.OwnerID.String(),
	)

	resultChan := make(chan error, 1)

	// Copy the event to avoid data races with the caller.
	eventCopy := *event

	err := s.pool.Submit(func() {
		resultChan <- s.baseService.ArchiveEvent(ctx, &eventCopy)
	})
	if err != nil {
		logger.Error("Failed to submit audit event to worker pool",
			"event_id", event.EventID.String(),
			"error", err,
		)
		return err
	}

	return <-resultChan
}

// Shutdown gracefully shuts down the worker pool.
func (s *WorkerPoolArchivingService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolArchivingService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolArchivingService) Capacity() int {
	return s.pool.Cap()
}
