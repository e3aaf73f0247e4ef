// Package events publishes extraction lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/joseph-ayodele/dipex/internal/common"
	"github.com/joseph-ayodele/dipex/internal/entity"
)

const TypeExtractionCommitted = "extraction.committed"

// Committed is emitted after an expense and payment pair is stored.
type Committed struct {
	Type       string    `json:"type"`
	UserID     uuid.UUID `json:"user_id"`
	ExpenseID  uuid.UUID `json:"expense_id"`
	PaymentID  uuid.UUID `json:"payment_id"`
	Amount     float64   `json:"amount"`
	Currency   string    `json:"currency"`
	Source     string    `json:"source"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewCommitted(c entity.ExtractionCandidate, exp entity.Expense, pay entity.Payment, now time.Time) Committed {
	return Committed{
		Type:       TypeExtractionCommitted,
		UserID:     exp.UserID,
		ExpenseID:  exp.ID,
		PaymentID:  pay.ID,
		Amount:     exp.Amount,
		Currency:   c.Currency,
		Source:     c.Source,
		OccurredAt: now.UTC(),
	}
}

// Publisher emits committed events. Failures are logged, never returned:
// the commit has already happened when an event is published.
type Publisher interface {
	PublishCommitted(ctx context.Context, ev Committed)
	Close() error
}

// KafkaWriter wraps kafka.Writer methods for testing
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

// NewKafkaPublisher builds a synchronous writer keyed by user id.
func NewKafkaPublisher(cfg common.KafkaConfig, logger *slog.Logger) (*KafkaPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are not configured")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka topic is not configured")
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		WriteTimeout:           5 * time.Second,
	}
	return newKafkaPublisher(writer, cfg.Topic, logger), nil
}

func newKafkaPublisher(w KafkaWriter, topic string, logger *slog.Logger) *KafkaPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaPublisher{logger: logger, writer: w, topic: topic}
}

func (p *KafkaPublisher) PublishCommitted(ctx context.Context, ev Committed) {
	if err := p.publish(ctx, ev.UserID.String(), ev); err != nil {
		p.logger.Error("events.publish.failed",
			"topic", p.topic,
			"type", ev.Type,
			"user_id", ev.UserID.String(),
			"error", err)
		return
	}
	p.logger.Debug("events.publish.ok", "topic", p.topic, "type", ev.Type, "expense_id", ev.ExpenseID.String())
}

func (p *KafkaPublisher) publish(ctx context.Context, key string, value interface{}) error {
	body, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(key),
		Value: body,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
		},
	}
	if err := p.writer.WriteMessages(context.WithoutCancel(ctx), msg); err != nil {
		return fmt.Errorf("write to %s: %w", p.topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	p.logger.Info("events.kafka.closing", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}

// Noop drops events.
type Noop struct{}

func (Noop) PublishCommitted(context.Context, Committed) {}

func (Noop) Close() error { return nil }
