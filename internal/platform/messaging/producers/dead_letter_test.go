package producers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockKafkaWriter is shared across package test files, defined in audit_event_test.go

func newDLQProducerForTest(w KafkaWriter) *DLQProducer {
	return &DLQProducer{
		logger:   slog.New(slog.NewJSONHandler(io.Discard, nil)),
		writer:   w,
		dlqTopic: "test-dlq-topic",
	}
}

func TestDLQProducer_PublishToDLQ(t *testing.T) {
	ctx := context.Background()

	t.Run("WrapsOriginalMessageInEnvelope", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := newDLQProducerForTest(mockWriter)

		key := "original-key"
		original := []byte(`{"data":"original_payload"}`)
		reason := "processing_failed"

		mockWriter.On("WriteMessages", ctx, mock.MatchedBy(func(msgs []kafka.Message) bool {
			if len(msgs) != 1 || string(msgs[0].Key) != key {
				return false
			}
			var envelope dlqEnvelope
			if err := json.Unmarshal(msgs[0].Value, &envelope); err != nil {
				return false
			}
			return envelope.OriginalKey == key &&
				envelope.OriginalValue == string(original) &&
				envelope.DLQReason == reason &&
				envelope.Timestamp != ""
		})).Return(nil).Once()

		require.NoError(t, producer.PublishToDLQ(ctx, key, original, reason))
		mockWriter.AssertExpectations(t)
	})

	t.Run("PropagatesWriterError", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := newDLQProducerForTest(mockWriter)

		writerErr := errors.New("kafka DLQ write error")
		mockWriter.On("WriteMessages", ctx, mock.AnythingOfType("[]kafka.Message")).Return(writerErr).Once()

		err := producer.PublishToDLQ(ctx, "fail-key", []byte("fail_payload"), "writer_error")
		require.Error(t, err)
		assert.ErrorIs(t, err, writerErr)
		mockWriter.AssertExpectations(t)
	})

	t.Run("NilWriterFailsLoudly", func(t *testing.T) {
		producer := newDLQProducerForTest(nil)

		err := producer.PublishToDLQ(ctx, "some-key", []byte("some_payload"), "disabled_test")
		require.Error(t, err)
		assert.Equal(t, "DLQ producer not initialized", err.Error())
	})

	t.Run("NilProducerFailsLoudly", func(t *testing.T) {
		var producer *DLQProducer
		err := producer.PublishToDLQ(ctx, "k", []byte("v"), "r")
		require.Error(t, err)
	})
}

func TestDLQProducer_Close(t *testing.T) {
	t.Run("ClosesWriter", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := newDLQProducerForTest(mockWriter)
		mockWriter.On("Close").Return(nil).Once()

		require.NoError(t, producer.Close())
		mockWriter.AssertExpectations(t)
	})

	t.Run("PropagatesCloseError", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := newDLQProducerForTest(mockWriter)
		closeErr := errors.New("kafka DLQ close error")
		mockWriter.On("Close").Return(closeErr).Once()

		err := producer.Close()
		require.Error(t, err)
		assert.ErrorIs(t, err, closeErr)
		mockWriter.AssertExpectations(t)
	})

	t.Run("NilWriterIsNoop", func(t *testing.T) {
		require.NoError(t, newDLQProducerForTest(nil).Close())
	})

	t.Run("NilProducerIsNoop", func(t *testing.T) {
		var producer *DLQProducer
		require.NoError(t, producer.Close())
	})
}
