// Package kafka publishes served forecasts to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/marine-risk-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces forecast records to a Kafka topic.
// It implements domain.ForecastPublisher.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
	return &Writer{writer: w, logger: logger.With("component", "kafka-writer", "topic", topic)}
}

// Publish serializes and writes one record. Records for the same coordinate
// share a key, so they land on the same partition in order.
func (w *Writer) Publish(ctx context.Context, record domain.ForecastRecord) error {
	msg, err := serializeToMessage(record)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write forecast record: %w", err)
	}
	w.logger.Debug("forecast record published", "key", string(msg.Key))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a ForecastRecord into a Kafka message.
func serializeToMessage(record domain.ForecastRecord) (kafkago.Message, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize forecast record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(record.Requested.Key()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "endpoint_used", Value: []byte(record.Report.EndpointUsed)},
			{Key: "fetched_at", Value: []byte(record.Report.FetchedAt.Format(time.RFC3339))},
		},
	}, nil
}
