package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Producer struct {
	writer *kafka.Writer
	log    *zap.Logger
}

func NewProducer(brokers []string, log *zap.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{}, // one tenant, one partition: per-tenant ordering
		BatchTimeout:           50 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		log:    log.With(zap.String("component", "kafka_producer")),
	}
}

func (p *Producer) Publish(ctx context.Context, topic string, key, value []byte) error {
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   key,
		Value: value,
		Time:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("write message to %s: %w", topic, err)
	}
	p.log.Debug("Published message", zap.String("topic", topic), zap.ByteString("key", key))
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

// LogProducer stands in when no brokers are configured. It records that an
// event would have been published, without its payload.
type LogProducer struct {
	log *zap.Logger
}

func NewLogProducer(log *zap.Logger) *LogProducer {
	return &LogProducer{log: log.With(zap.String("component", "log_producer"))}
}

func (p *LogProducer) Publish(_ context.Context, topic string, key, value []byte) error {
	p.log.Info("Event not published, no brokers configured",
		zap.String("topic", topic),
		zap.ByteString("key", key),
		zap.Int("bytes", len(value)),
	)
	return nil
}

func (p *LogProducer) Close() error { return nil }
