// Package notify delivers user notifications.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nikolayk812/orderflow/internal/domain"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSender publishes notifications keyed by user, so one user's messages stay ordered.
type KafkaSender struct {
	writer messageWriter
	clock  func() time.Time
	logger *zap.Logger
}

func NewKafkaSender(brokers []string, topic string, logger *zap.Logger) *KafkaSender {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return newKafkaSender(w, time.Now, logger)
}

func newKafkaSender(w messageWriter, clock func() time.Time, logger *zap.Logger) *KafkaSender {
	return &KafkaSender{writer: w, clock: clock, logger: logger}
}

type message struct {
	UserID  string         `json:"userId"`
	Kind    string         `json:"kind"`
	Payload map[string]any `json:"payload"`
	SentAt  time.Time      `json:"sentAt"`
}

func (s *KafkaSender) Send(ctx context.Context, n domain.Notification) error {
	value, err := json.Marshal(message{
		UserID:  n.UserID.String(),
		Kind:    string(n.Kind),
		Payload: n.Payload,
		SentAt:  s.clock().UTC(),
	})
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(n.UserID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(n.Kind)},
		},
	}

	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writer.WriteMessages: %w", err)
	}

	s.logger.Debug("notification published",
		zap.Stringer("user_id", n.UserID),
		zap.String("kind", string(n.Kind)))

	return nil
}

func (s *KafkaSender) Close() error {
	return s.writer.Close()
}

// LogSender writes notifications to the log instead of delivering them.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, n domain.Notification) error {
	s.logger.Info("notification",
		zap.Stringer("user_id", n.UserID),
		zap.String("kind", string(n.Kind)),
		zap.Any("payload", n.Payload))
	return nil
}
