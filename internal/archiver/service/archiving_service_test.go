package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/castilhosApc/financeiro-ledger/internal/domain/audit"
	"github.com/castilhosApc/financeiro-ledger/internal/domain/posting"
)

// MockArchiveRepo for testing
type MockArchiveRepo struct {
	mock.Mock
}

func (m *MockArchiveRepo) Create(ctx context.Context, event *audit.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockArchiveRepo) GetByEventID(ctx context.Context, eventID uuid.UUID) (*audit.Event, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*audit.Event), args.Error(1)
}

func (m *MockArchiveRepo) GetByOwnerID(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*audit.Event, error) {
	args := m.Called(ctx, ownerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*audit.Event), args.Error(1)
}

func (m *MockArchiveRepo) GetByTimeRange(ctx context.Context, startTime, endTime time.Time, limit, offset int) ([]*audit.Event, error) {
	args := m.Called(ctx, startTime, endTime, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*audit.Event), args.Error(1)
}

func newEvent(t *testing.T) *audit.Event {
	t.Helper()
	p, err := posting.New(uuid.New(), posting.KindWithdraw, 4200, time.Now())
	require.NoError(t, err)
	return audit.NewEvent(audit.ActionDelete, p, "corr-1")
}

func TestArchivingService_ArchiveEvent(t *testing.T) {
	logger := slog.Default()
	ctx := context.Background()

	t.Run("archives event", func(t *testing.T) {
		mockRepo := &MockArchiveRepo{}
		svc := NewArchivingService(mockRepo, logger)
		event := newEvent(t)

		mockRepo.On("Create", mock.Anything, event).Return(nil).Once()

		assert.NoError(t, svc.ArchiveEvent(ctx, event))
		mockRepo.AssertExpectations(t)
	})

	t.Run("duplicate event is success", func(t *testing.T) {
		mockRepo := &MockArchiveRepo{}
		svc := NewArchivingService(mockRepo, logger)
		event := newEvent(t)

		mockRepo.On("Create", mock.Anything, event).Return(audit.ErrDuplicateEvent{EventID: event.EventID}).Once()

		assert.NoError(t, svc.ArchiveEvent(ctx, event))
		mockRepo.AssertExpectations(t)
	})

	t.Run("storage error propagates", func(t *testing.T) {
		mockRepo := &MockArchiveRepo{}
		svc := NewArchivingService(mockRepo, logger)
		event := newEvent(t)

		mockRepo.On("Create", mock.Anything, event).Return(errors.New("mongo down")).Once()

		err := svc.ArchiveEvent(ctx, event)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to archive audit event")
		mockRepo.AssertExpectations(t)
	})
}
