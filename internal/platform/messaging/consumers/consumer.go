package consumers

import (
	"context"
	"log/slog"
	"time"

	"github.com/castilhosApc/financeiro-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

// fetchRetryDelay paces retries when the broker is unreachable.
const fetchRetryDelay = time.Second

type MessageHandler func(ctx context.Context, key []byte, value []byte) error

// Consumer defines the message queue consumer interface
type Consumer interface {
	Subscribe(ctx context.Context, topic string, groupID string, handler MessageHandler) error
	Close() error
}

// KafkaConsumer implements Consumer using Kafka
type KafkaConsumer struct {
	reader *kafka.Reader
	logger *slog.Logger
}

func NewKafkaConsumer(_ context.Context, logger *slog.Logger, cfg *config.KafkaConfig) *KafkaConsumer {
	return &KafkaConsumer{
		logger: logger,
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     []string{cfg.Brokers},
			Topic:       cfg.AuditTopic,
			GroupID:     cfg.ConsumerGroup,
			MinBytes:    cfg.MinBytes,
			MaxBytes:    cfg.MaxBytes,
			MaxWait:     cfg.MaxWait,
			StartOffset: kafka.FirstOffset,
		}),
	}
}

// Subscribe consumes the topic until ctx is canceled, feeding each message to
// the handler. It blocks; callers run it in a goroutine. Offsets are only
// committed after the handler succeeds, so failed messages are redelivered.
func (c *KafkaConsumer) Subscribe(ctx context.Context, topic string, groupID string, handler MessageHandler) error {
	c.logger.Info("Consuming audit events",
		"topic", topic,
		"group_id", groupID,
	)

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("Consumer stopping", "topic", topic, "group_id", groupID)
				return nil
			}
			c.logger.Error("Fetch from Kafka failed, retrying",
				"topic", topic,
				"group_id", groupID,
				"error", err,
			)
			time.Sleep(fetchRetryDelay)
			continue
		}

		c.consumeOne(ctx, msg, handler)
	}
}

func (c *KafkaConsumer) consumeOne(ctx context.Context, msg kafka.Message, handler MessageHandler) {
	attrs := []any{
		"topic", msg.Topic,
		"partition", msg.Partition,
		"offset", msg.Offset,
		"key", string(msg.Key),
	}

	if err := handler(ctx, msg.Key, msg.Value); err != nil {
		// Leave the offset uncommitted so the message comes back around;
		// the handler routes poison messages to the DLQ itself.
		c.logger.Error("Audit event handling failed, offset not committed",
			append(attrs, "error", err)...)
		return
	}

	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("Offset commit failed", append(attrs, "error", err)...)
		return
	}
	c.logger.Debug("Audit event archived and committed", attrs...)
}

func (c *KafkaConsumer) Close() error {
	if c.reader != nil {
		return c.reader.Close()
	}
	return nil
}
