package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const source = "lodging-booking-backend"

type EventType string

const (
	BookingCreated         EventType = "booking.created"
	BookingStatusChanged   EventType = "booking.status_changed"
	BookingRescheduled     EventType = "booking.rescheduled"
	BookingCancelled       EventType = "booking.cancelled"
	BookingPaymentRecorded EventType = "booking.payment_recorded"
	BookingDeleted         EventType = "booking.deleted"
)

// BookingData is the payload consumed by the e-mail service.
type BookingData struct {
	BookingID        string    `json:"booking_id"`
	ConfirmationCode string    `json:"confirmation_code"`
	UserID           string    `json:"user_id"`
	Kind             string    `json:"kind"`
	Status           string    `json:"status"`
	PaymentStatus    string    `json:"payment_status"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	TotalAmount      int64     `json:"total_amount"`
	Reason           string    `json:"reason,omitempty"`
}

// Event is a CloudEvents-style envelope.
type Event struct {
	ID     string      `json:"id"`
	Source string      `json:"source"`
	Type   EventType   `json:"type"`
	Time   time.Time   `json:"time"`
	Data   BookingData `json:"data"`
}

func NewEvent(t EventType, data BookingData) Event {
	return Event{
		ID:     uuid.NewString(),
		Source: source,
		Type:   t,
		Time:   time.Now().UTC(),
		Data:   data,
	}
}

type Notifier interface {
	Notify(ctx context.Context, e Event) error
	Close() error
}

// New returns a Kafka publisher, or a logging notifier when no brokers are configured.
func New(brokers []string, topic string, logger *zap.Logger) Notifier {
	if len(brokers) == 0 {
		logger.Warn("no kafka brokers configured, booking events will only be logged")
		return NewLogNotifier(logger)
	}
	return NewKafkaNotifier(newWriter(brokers, topic), logger)
}

// newWriter builds a writer that flushes each event as soon as it is written.
// Notify runs on the request path, so it must not wait out a batch window.
func newWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchSize:              1,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaNotifier struct {
	writer messageWriter
	logger *zap.Logger
}

func NewKafkaNotifier(w messageWriter, logger *zap.Logger) *KafkaNotifier {
	return &KafkaNotifier{writer: w, logger: logger}
}

// Notify publishes e keyed by booking id so events of one booking stay ordered.
func (n *KafkaNotifier) Notify(ctx context.Context, e Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event failed: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(e.Data.BookingID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "ce_type", Value: []byte(e.Type)},
			{Key: "ce_id", Value: []byte(e.ID)},
		},
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish event failed: %w", err)
	}

	n.logger.Debug("booking event published",
		zap.String("type", string(e.Type)),
		zap.String("booking_id", e.Data.BookingID),
	)
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}

type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, e Event) error {
	n.logger.Info("booking event",
		zap.String("type", string(e.Type)),
		zap.String("booking_id", e.Data.BookingID),
		zap.String("confirmation_code", e.Data.ConfirmationCode),
		zap.String("status", e.Data.Status),
	)
	return nil
}

func (n *LogNotifier) Close() error { return nil }
