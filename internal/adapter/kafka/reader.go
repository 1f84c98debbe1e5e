package kafka

import (
	"context"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/cycle13/weather-map-service/internal/config"
	"github.com/cycle13/weather-map-service/internal/pipeline"
)

// Reader consumes plot requests from the request topic as part of a consumer
// group. It implements pipeline.BatchExtractor.
type Reader struct {
	reader        *kafkago.Reader
	logger        *slog.Logger
	flushInterval time.Duration
}

// NewReader creates a Kafka consumer-group reader for the request topic.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		GroupID:  cfg.KafkaGroupID,
		Topic:    cfg.KafkaRequestTopic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Reader{
		reader:        r,
		logger:        logger,
		flushInterval: cfg.BatchFlushInterval,
	}
}

// ExtractBatch reads up to batchSize requests. The first message is awaited
// without a deadline; once it arrives the batch keeps filling until batchSize
// is reached or the flush interval passes without further traffic.
func (r *Reader) ExtractBatch(ctx context.Context, batchSize int) ([]pipeline.RawRequest, error) {
	first, err := r.reader.FetchMessage(ctx)
	if err != nil {
		return nil, err
	}
	batch := make([]pipeline.RawRequest, 0, batchSize)
	batch = append(batch, r.mapMessage(first))

	flushCtx, cancel := context.WithTimeout(ctx, r.flushInterval)
	defer cancel()

	for len(batch) < batchSize {
		msg, err := r.reader.FetchMessage(flushCtx)
		if err != nil {
			// Flush deadline or shutdown; hand over what we have.
			break
		}
		batch = append(batch, r.mapMessage(msg))
	}
	return batch, nil
}

func (r *Reader) Close() error {
	return r.reader.Close()
}

// mapMessage attaches the consumer-group commit closure to the converted
// message. Committing a message marks everything up to its offset consumed,
// so the pipeline commits in batch order.
func (r *Reader) mapMessage(msg kafkago.Message) pipeline.RawRequest {
	raw := mapMessageToRawRequest(msg)
	raw.Commit = func(ctx context.Context) error {
		return r.reader.CommitMessages(ctx, msg)
	}
	return raw
}

// mapMessageToRawRequest converts kafka-go's message form into the pipeline's.
func mapMessageToRawRequest(msg kafkago.Message) pipeline.RawRequest {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	return pipeline.RawRequest{
		Key:       msg.Key,
		Value:     msg.Value,
		Headers:   headers,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
	}
}
