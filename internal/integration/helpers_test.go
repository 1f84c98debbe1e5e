//go:build integration

package integration_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	kafkacontainer "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/cycle13/weather-map-service/internal/adapter/micaps"
	"github.com/cycle13/weather-map-service/internal/catalog"
	"github.com/cycle13/weather-map-service/internal/compose"
	"github.com/cycle13/weather-map-service/internal/observability"
	"github.com/cycle13/weather-map-service/internal/pipeline"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node Kafka broker in a container and returns its
// bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := kafkacontainer.Run(ctx, "confluentinc/confluent-local:7.5.0",
		kafkacontainer.WithClusterID("test-cluster"),
	)
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "resolve controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}), "create topic %s", topic)
}

// newGridGateway serves the same 2x3 grid for every directory/filename pair,
// standing in for the MICAPS data gateway. The sentinel cell exercises the
// reflectivity masking path.
func newGridGateway(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/grids" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"lon": [110, 115, 120],
			"lat": [35, 40],
			"values": [[22, 9999, 31], [14, 45, 27]],
			"init_time": "2018-04-20T08:00:00Z"
		}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// newTransformer wires a composer against an in-process grid gateway.
func newTransformer(t *testing.T, metrics *observability.Metrics) *pipeline.SceneTransformer {
	t.Helper()

	gateway := newGridGateway(t)
	client := micaps.NewClient(gateway.URL, 5*time.Second, discardLogger(), metrics)
	provider := micaps.NewCachedProvider(client, 64, metrics)
	composer := compose.NewComposer(catalog.Default(), provider, clockwork.NewRealClock(), 12, discardLogger())
	return pipeline.NewTransformer(composer, metrics, discardLogger())
}
