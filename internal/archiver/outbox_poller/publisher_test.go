package outbox_poller

import (
	"context"
	"errors"
	"testing"

	"log/slog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/castilhosApc/financeiro-ledger/internal/domain/audit"
)

// MockMessagePublisher for testing
type MockMessagePublisher struct {
	mock.Mock
}

func (m *MockMessagePublisher) Publish(ctx context.Context, key string, value interface{}) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockMessagePublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

func TestEventPublisher_PublishEvent(t *testing.T) {
	logger := slog.Default()
	ctx := context.Background()

	t.Run("publishes and marks processed", func(t *testing.T) {
		mockRepo := &MockOutboxRepo{}
		mockProducer := &MockMessagePublisher{}
		publisher := NewEventPublisher(mockRepo, mockProducer, logger)

		message := newOutboxMessage(t, 1, 0)
		event, err := message.GetEvent()
		assert.NoError(t, err)

		mockProducer.On("Publish", mock.Anything, event.OwnerID.String(), mock.MatchedBy(func(v interface{}) bool {
			published, ok := v.(*audit.Event)
			return ok && published.EventID == event.EventID
		})).Return(nil).Once()
		mockRepo.On("UpdateStatus", mock.Anything, int64(1), audit.OutboxStatusProcessed).Return(nil).Once()

		err = publisher.PublishEvent(ctx, message)
		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
		mockProducer.AssertExpectations(t)
	})

	t.Run("corrupt payload marks message failed", func(t *testing.T) {
		mockRepo := &MockOutboxRepo{}
		mockProducer := &MockMessagePublisher{}
		publisher := NewEventPublisher(mockRepo, mockProducer, logger)

		message := newOutboxMessage(t, 2, 0)
		message.Payload = []byte("{not json")

		mockRepo.On("UpdateStatus", mock.Anything, int64(2), audit.OutboxStatusFailedToPublish).Return(nil).Once()

		err := publisher.PublishEvent(ctx, message)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unmarshal payload")
		mockRepo.AssertExpectations(t)
		mockProducer.AssertNotCalled(t, "Publish")
	})

	t.Run("publish error leaves message pending", func(t *testing.T) {
		mockRepo := &MockOutboxRepo{}
		mockProducer := &MockMessagePublisher{}
		publisher := NewEventPublisher(mockRepo, mockProducer, logger)

		message := newOutboxMessage(t, 3, 0)

		mockProducer.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("kafka down")).Once()

		err := publisher.PublishEvent(ctx, message)
		assert.Error(t, err)
		mockRepo.AssertNotCalled(t, "UpdateStatus")
		mockProducer.AssertExpectations(t)
	})

	t.Run("mark processed failure is surfaced", func(t *testing.T) {
		mockRepo := &MockOutboxRepo{}
		mockProducer := &MockMessagePublisher{}
		publisher := NewEventPublisher(mockRepo, mockProducer, logger)

		message := newOutboxMessage(t, 4, 0)

		mockProducer.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
		mockRepo.On("UpdateStatus", mock.Anything, int64(4), audit.OutboxStatusProcessed).Return(errors.New("db error")).Once()

		err := publisher.PublishEvent(ctx, message)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "PROCESSED")
		mockRepo.AssertExpectations(t)
	})
}
