package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"geonews/internal/domain"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher отправляет сохраненные записи в топик Kafka в виде JSON.
// Ключ сообщения - код страны, чтобы записи одной страны попадали в одну партицию.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	log    *slog.Logger
}

// NewKafkaPublisher создает издателя поверх kafka.Writer.
func NewKafkaPublisher(brokers []string, topic string, log *slog.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		MaxAttempts:  3,
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return newKafkaPublisher(w, topic, log)
}

func newKafkaPublisher(w messageWriter, topic string, log *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: w,
		topic:  topic,
		log:    log.With(slog.String("component", "publisher"), slog.String("topic", topic)),
	}
}

// Publish кодирует запись и пишет ее в топик.
func (p *KafkaPublisher) Publish(ctx context.Context, record domain.Record) error {
	const op = "publisher.Publish"
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%s: failed to encode record %s: %w", op, record.ID, err)
	}
	msg := kafka.Message{
		Key:   []byte(record.Code),
		Value: payload,
		Time:  record.FetchedAt,
		Headers: []kafka.Header{
			{Key: "record_id", Value: []byte(record.ID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("%s: failed to write record %s: %w", op, record.ID, err)
	}
	p.log.Debug("Record published", slog.String("op", op), slog.String("record_id", record.ID))
	return nil
}

func (p *KafkaPublisher) Close() error {
	p.log.Info("Closing Kafka writer")
	return p.writer.Close()
}
