package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/c0ncepT23/Travelbuddy-sub005/internal/config"
	"github.com/c0ncepT23/Travelbuddy-sub005/internal/domain"
)

// MessageType is the value of the message_type header on every notification.
const MessageType = "trip_notification"

// Notification is the JSON payload published for a trip's chat.
type Notification struct {
	TripID  uuid.UUID `json:"trip_id"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sent_at"`
}

// messageWriter is the subset of *kafkago.Writer the notifier uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Notifier publishes trip notifications to a Kafka topic, keyed by trip id
// so a trip's messages stay ordered within one partition.
// It implements notify.Notifier.
type Notifier struct {
	writer messageWriter
	logger *slog.Logger
}

// NewNotifier creates a Kafka producer for the configured notification topic.
func NewNotifier(cfg *config.Config, logger *slog.Logger) *Notifier {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaNotifyTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Notifier{writer: w, logger: logger}
}

// Notify serializes and publishes one message for tripID.
func (n *Notifier) Notify(ctx context.Context, tripID uuid.UUID, message string) error {
	msg, err := serializeToMessage(Notification{
		TripID:  tripID,
		Message: message,
		SentAt:  domain.Now(),
	})
	if err != nil {
		return err
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	n.logger.Debug("notification published", "trip_id", tripID)
	return nil
}

func (n *Notifier) Close() error {
	return n.writer.Close()
}

// serializeToMessage marshals a Notification into a Kafka message.
func serializeToMessage(note Notification) (kafkago.Message, error) {
	data, err := json.Marshal(note)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize notification: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(note.TripID.String()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "message_type", Value: []byte(MessageType)},
			{Key: "sent_at", Value: []byte(note.SentAt.Format(time.RFC3339))},
		},
	}, nil
}
