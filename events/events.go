// Package events publishes order lifecycle events after a turn commits.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"food-order-bot/models"
)

type Type string

const (
	OrderConfirmed     Type = "confirmed"
	OrderStatusChanged Type = "status-changed"
)

type Event struct {
	Type       Type               `json:"type"`
	OrderID    string             `json:"order_id"`
	UserID     string             `json:"user_id"`
	Status     models.OrderStatus `json:"status"`
	Total      models.Money       `json:"total"`
	Delivery   bool               `json:"delivery"`
	Actor      string             `json:"actor,omitempty"`
	OccurredAt time.Time          `json:"occurred_at"`
}

// FromOrder snapshots o into an event of the given type
func FromOrder(t Type, o *models.Order, actor string) Event {
	return Event{
		Type:       t,
		OrderID:    o.ID,
		UserID:     o.UserID,
		Status:     o.Status,
		Total:      o.TotalAmount,
		Delivery:   o.Delivery,
		Actor:      actor,
		OccurredAt: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: NewKafkaWriter(brokers, topic)}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("order-%s-%s", e.Type, e.OrderID)),
		Value: value,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s event for order %s: %w", e.Type, e.OrderID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher writes events to the log, for single-process deployments
type LogPublisher struct {
	logger zerolog.Logger
}

func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, e Event) error {
	p.logger.Info().
		Str("type", string(e.Type)).
		Str("order_id", e.OrderID).
		Str("user_id", e.UserID).
		Str("status", string(e.Status)).
		Str("total", e.Total.String()).
		Msg("order event")
	return nil
}

func (p *LogPublisher) Close() error { return nil }
