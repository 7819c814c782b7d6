package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/neo-harvester/internal/config"
	"github.com/couchcryptid/neo-harvester/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes each record of a harvested document to a Kafka topic.
// It implements pipeline.Loader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// Name labels the writer in logs and the records_exported metric.
func (w *Writer) Name() string { return "kafka" }

// Load publishes every object in the document in a single WriteMessages call.
// Records sharing a key land on the same partition.
func (w *Writer) Load(ctx context.Context, doc domain.Document) error {
	return w.LoadBatch(ctx, doc.Objects, doc.GeneratedUTC)
}

// LoadBatch serializes and publishes records stamped with generatedUTC.
func (w *Writer) LoadBatch(ctx context.Context, records []domain.CanonicalRecord, generatedUTC string) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(records[i], generatedUTC)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d records to %s: %w", len(msgs), w.writer.Topic, err)
	}
	w.logger.Debug("records published", "topic", w.writer.Topic, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a CanonicalRecord into a Kafka message keyed by
// its reference id.
func serializeToMessage(rec domain.CanonicalRecord, generatedUTC string) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize neo record: %w", err)
	}
	hazard := "false"
	if rec.Hazardous {
		hazard = "true"
	}
	return kafkago.Message{
		Key:   []byte(rec.Key()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "pha_flag", Value: []byte(hazard)},
			{Key: "generated_utc", Value: []byte(generatedUTC)},
		},
	}, nil
}
