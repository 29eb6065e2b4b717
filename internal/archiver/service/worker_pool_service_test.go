package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"log/slog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/castilhosApc/financeiro-ledger/internal/domain/audit"
)

// MockArchivingService mocks the ArchivingService interface
type MockArchivingService struct {
	mock.Mock
}

func (m *MockArchivingService) ArchiveEvent(ctx context.Context, event *audit.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func TestWorkerPoolArchivingService_ArchiveEvent(t *testing.T) {
	logger := slog.Default()
	event := newEvent(t)

	tests := []struct {
		name          string
		setupMocks    func(base *MockArchivingService)
		expectedError error
	}{
		{
			name: "successful archiving",
			setupMocks: func(base *MockArchivingService) {
				base.On("ArchiveEvent", mock.Anything, mock.MatchedBy(func(e *audit.Event) bool {
					return e.EventID == event.EventID
				})).Return(nil).Once()
			},
			expectedError: nil,
		},
		{
			name: "archiving error",
			setupMocks: func(base *MockArchivingService) {
				base.On("ArchiveEvent", mock.Anything, mock.Anything).Return(errors.New("archiving error")).Once()
			},
			expectedError: errors.New("archiving error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockBaseService := &MockArchivingService{}

			workerPoolService, err := NewWorkerPoolArchivingService(
				mockBaseService,
				WorkerPoolConfig{
					Size: 2,
				},
				logger,
			)
			assert.NoError(t, err)
			defer workerPoolService.Shutdown()

			tt.setupMocks(mockBaseService)
			ctx := context.Background()

			err = workerPoolService.ArchiveEvent(ctx, event)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError.Error())
			} else {
				assert.NoError(t, err)
			}

			mockBaseService.AssertExpectations(t)
		})
	}
}

func TestWorkerPoolArchivingService_DuplicateEventIDs(t *testing.T) {
	mockBaseService := &MockArchivingService{}
	logger := slog.Default()

	workerPoolService, err := NewWorkerPoolArchivingService(
		mockBaseService,
		WorkerPoolConfig{
			Size: 4,
		},
		logger,
	)
	assert.NoError(t, err)
	defer workerPoolService.Shutdown()

	mockBaseService.On("ArchiveEvent", mock.Anything, mock.Anything).Return(nil)

	// The consumer can redeliver the same event after a commit failure, so
	// several in-flight submissions may share an event id. Each caller must
	// still get its own result back.
	event := newEvent(t)
	numCalls := 8
	var wg sync.WaitGroup
	wg.Add(numCalls)

	for i := 0; i < numCalls; i++ {
		go func() {
			defer wg.Done()
			assert.NoError(t, workerPoolService.ArchiveEvent(context.Background(), event))
		}()
	}
	wg.Wait()

	mockBaseService.AssertNumberOfCalls(t, "ArchiveEvent", numCalls)
}

func TestWorkerPoolArchivingService_Concurrency(t *testing.T) {
	mockBaseService := &MockArchivingService{}
	logger := slog.Default()

	workerPoolService, err := NewWorkerPoolArchivingService(
		mockBaseService,
		WorkerPoolConfig{
			Size: 5,
		},
		logger,
	)
	assert.NoError(t, err)
	defer workerPoolService.Shutdown()

	// Create a mutex to protect access to the counter
	var mu sync.Mutex
	counter := 0

	// Setup the mock to increment the counter
	mockBaseService.On("ArchiveEvent", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		// Simulate some work
		time.Sleep(10 * time.Millisecond)

		mu.Lock()
		counter++
		mu.Unlock()
	}).Return(nil)

	numEvents := 10
	var wg sync.WaitGroup
	wg.Add(numEvents)

	for i := 0; i < numEvents; i++ {
		go func() {
			defer wg.Done()

			ctx := context.Background()
			err := workerPoolService.ArchiveEvent(ctx, newEvent(t))
			assert.NoError(t, err)
		}()
	}

	wg.Wait()

	assert.Equal(t, numEvents, counter)

	// Verify that the worker pool is still running
	assert.True(t, workerPoolService.Running() > 0)
	assert.Equal(t, 5, workerPoolService.Capacity())
}
