package worker

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/thebtf/realmstats/internal/worker"

// serviceMetrics holds the service's instruments. Without a configured
// MeterProvider the global no-op provider discards them.
type serviceMetrics struct {
	requests      metric.Int64Counter
	duration      metric.Float64Histogram
	reassignments metric.Int64Counter
	sessions      metric.Int64Histogram
}

func newServiceMetrics() (*serviceMetrics, error) {
	meter := otel.Meter(meterName)

	requests, err := meter.Int64Counter("realmstats.http.requests",
		metric.WithDescription("HTTP requests served"))
	if err != nil {
		return nil, fmt.Errorf("create requests counter: %w", err)
	}
	duration, err := meter.Float64Histogram("realmstats.http.duration",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}
	reassignments, err := meter.Int64Counter("realmstats.reassignments",
		metric.WithDescription("Character reassignments applied"))
	if err != nil {
		return nil, fmt.Errorf("create reassignments counter: %w", err)
	}
	sessions, err := meter.Int64Histogram("realmstats.sessions.summarized",
		metric.WithDescription("Sessions included in one summary listing"))
	if err != nil {
		return nil, fmt.Errorf("create sessions histogram: %w", err)
	}

	return &serviceMetrics{
		requests:      requests,
		duration:      duration,
		reassignments: reassignments,
		sessions:      sessions,
	}, nil
}

func (m *serviceMetrics) recordRequest(ctx context.Context, method, route string, status int, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", status),
	)
	m.requests.Add(ctx, 1, attrs)
	m.duration.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
}

func (m *serviceMetrics) recordReassignment(ctx context.Context) {
	m.reassignments.Add(ctx, 1)
}

func (m *serviceMetrics) recordSummaries(ctx context.Context, n int) {
	m.sessions.Record(ctx, int64(n))
}
