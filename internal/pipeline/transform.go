package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cycle13/weather-map-service/internal/compose"
	"github.com/cycle13/weather-map-service/internal/observability"
)

// SceneTransformer implements Transformer by composing a scene document for
// each plot request.
type SceneTransformer struct {
	composer *compose.Composer
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewTransformer creates a SceneTransformer.
func NewTransformer(composer *compose.Composer, metrics *observability.Metrics, logger *slog.Logger) *SceneTransformer {
	return &SceneTransformer{
		composer: composer,
		metrics:  metrics,
		logger:   logger,
	}
}

func (t *SceneTransformer) Transform(ctx context.Context, raw RawRequest) (SceneMessage, error) {
	var req compose.Request
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return SceneMessage{}, fmt.Errorf("parse plot request: %w", err)
	}

	start := time.Now()
	scene, err := t.composer.Compose(ctx, req)
	if err != nil {
		return SceneMessage{}, err
	}
	t.metrics.ComposeDuration.WithLabelValues(scene.Analysis).Observe(time.Since(start).Seconds())
	t.logger.Debug("scene composed",
		"analysis", scene.Analysis,
		"model", scene.Model,
		"filename", scene.Filename,
		"duration", time.Since(start))

	return serializeScene(scene)
}

// serializeScene renders a composed scene as a scene-topic message. The key
// carries the product identity so log compaction keeps the newest scene per
// product.
func serializeScene(scene *compose.Scene) (SceneMessage, error) {
	value, err := json.Marshal(scene)
	if err != nil {
		return SceneMessage{}, fmt.Errorf("marshal scene: %w", err)
	}
	return SceneMessage{
		Key:   []byte(scene.Analysis + "/" + scene.Model + "/" + scene.Filename),
		Value: value,
		Headers: map[string]string{
			"analysis":     scene.Analysis,
			"model":        scene.Model,
			"generated_at": scene.GeneratedAt.UTC().Format(time.RFC3339),
		},
	}, nil
}
