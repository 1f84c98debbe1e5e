package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cycle13/weather-map-service/internal/compose"
	"github.com/cycle13/weather-map-service/internal/observability"
)

// RawRequest represents an unprocessed message from the request topic.
type RawRequest struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// SceneMessage is the serialized scene destined for the scene topic.
type SceneMessage struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// BatchExtractor reads up to batchSize raw requests from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]RawRequest, error)
}

// Transformer converts a raw request into a scene message.
type Transformer interface {
	Transform(ctx context.Context, raw RawRequest) (SceneMessage, error)
}

// BatchLoader writes multiple scene messages to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, messages []SceneMessage) error
}

// Pipeline orchestrates the extract-compose-publish loop.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness returns nil if the pipeline has processed at least one request,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not processed any requests yet")
	}
	return nil
}

// Run executes the batch loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	// Keeps retry storms short while avoiding tight loops during outages.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processBatch runs one extract-compose-publish cycle. Returns false if the
// pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.RequestsConsumed.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))
	*backoff = 200 * time.Millisecond

	res := p.composeBatch(ctx, rawBatch)
	if ctx.Err() != nil {
		return false
	}

	published, ok := p.publish(ctx, res, backoff, maxBackoff)
	if !ok {
		return false
	}

	if published > 0 {
		p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
		p.ready.Store(true)
	}
	if res.deferred > 0 {
		// The gateway is struggling; slow down before the next cycle.
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}
	return true
}

// batchResult collects what one compose pass over a batch produced.
type batchResult struct {
	scenes   []SceneMessage
	composed []RawRequest // requests whose scenes await publishing
	deferred int          // upstream failures left uncommitted
}

// composeBatch runs every request through the transformer and sorts failures
// by class. Rejected requests and missing data are committed right away so
// the consumer group moves past them. Upstream failures stay uncommitted for
// redelivery; offset commits are cumulative per partition, so redelivery is
// only guaranteed while later offsets on the partition also stay uncommitted,
// which holds in the whole-gateway-outage case this is aimed at.
func (p *Pipeline) composeBatch(ctx context.Context, rawBatch []RawRequest) batchResult {
	res := batchResult{
		scenes:   make([]SceneMessage, 0, len(rawBatch)),
		composed: make([]RawRequest, 0, len(rawBatch)),
	}

	for _, raw := range rawBatch {
		out, err := p.transformer.Transform(ctx, raw)
		if err == nil {
			res.scenes = append(res.scenes, out)
			res.composed = append(res.composed, raw)
			continue
		}
		if ctx.Err() != nil {
			return res
		}

		switch classifyFailure(err) {
		case failUpstream:
			p.logger.Error("compose failed upstream, deferring request",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset)
			p.metrics.ComposeFailures.WithLabelValues("upstream").Inc()
			res.deferred++
		case failMissingData:
			p.logger.Warn("grid not distributed, skipping request",
				"error", err, "offset", raw.Offset)
			p.metrics.ComposeFailures.WithLabelValues("missing_data").Inc()
			p.commitOffset(ctx, raw)
		default:
			p.logger.Warn("rejecting plot request",
				"error", err, "offset", raw.Offset)
			p.metrics.ComposeFailures.WithLabelValues("rejected").Inc()
			p.commitOffset(ctx, raw)
		}
	}
	return res
}

// publish writes the composed scenes and commits their source offsets.
// Returns the number of published scenes and false if the pipeline should
// stop.
func (p *Pipeline) publish(ctx context.Context, res batchResult, backoff *time.Duration, maxBackoff time.Duration) (int, bool) {
	if len(res.scenes) == 0 {
		return 0, true
	}

	if err := p.loader.LoadBatch(ctx, res.scenes); err != nil {
		p.logger.Error("publish batch failed", "error", err, "scenes", len(res.scenes))
		return 0, p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	p.metrics.ScenesPublished.Add(float64(len(res.scenes)))

	for _, raw := range res.composed {
		p.commitOffset(ctx, raw)
	}
	return len(res.scenes), true
}

// Failure classes drive the offset decision for a request that failed to
// compose.
type failureClass int

const (
	failRejected failureClass = iota
	failMissingData
	failUpstream
)

// classifyFailure maps a compose error to its failure class. The request
// topic carries arbitrary client input, so anything not recognizably
// transient counts as a bad request.
func classifyFailure(err error) failureClass {
	switch {
	case errors.Is(err, compose.ErrGridNotFound):
		return failMissingData
	case errors.Is(err, compose.ErrGatewayUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return failUpstream
	default:
		return failRejected
	}
}

// backoffOrStop checks for context cancellation, sleeps with the current backoff,
// and advances the backoff. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw RawRequest) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
