package kafka

import (
	"context"
	"log/slog"
	"sort"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/cycle13/weather-map-service/internal/config"
	"github.com/cycle13/weather-map-service/internal/pipeline"
)

// Writer produces scene documents to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured scene topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSceneTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch publishes multiple scene messages to the scene Kafka topic in a
// single WriteMessages call for efficiency.
func (w *Writer) LoadBatch(ctx context.Context, messages []pipeline.SceneMessage) error {
	if len(messages) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(messages))
	for i := range messages {
		msgs[i] = mapSceneToMessage(messages[i])
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// mapSceneToMessage converts a scene message into kafka-go's message form.
// Headers are sorted by key so the wire form is deterministic.
func mapSceneToMessage(m pipeline.SceneMessage) kafkago.Message {
	headers := make([]kafkago.Header, 0, len(m.Headers))
	for k, v := range m.Headers {
		headers = append(headers, kafkago.Header{Key: k, Value: []byte(v)})
	}
	sort.Slice(headers, func(i, j int) bool { return headers[i].Key < headers[j].Key })
	return kafkago.Message{
		Key:     m.Key,
		Value:   m.Value,
		Headers: headers,
	}
}
