package orchestrator

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Metrics records query pipeline measurements.
type Metrics struct {
	duration metric.Float64Histogram
	queries  metric.Int64Counter
}

// NewMetrics creates orchestrator metrics. Instrument creation failures
// are logged and leave the affected instrument nil; recording then
// becomes a no-op for it.
func NewMetrics(logger *zap.Logger) *Metrics {
	meter := otel.Meter("github.com/fyrsmithlabs/ragd/internal/orchestrator")

	m := &Metrics{}
	var err error

	m.duration, err = meter.Float64Histogram(
		"ragd.query.duration_seconds",
		metric.WithDescription("End to end query latency"),
		metric.WithUnit("s"),
	)
	if err != nil {
		logger.Warn("failed to create query duration histogram", zap.Error(err))
	}

	m.queries, err = meter.Int64Counter(
		"ragd.query.total",
		metric.WithDescription("Queries by terminal state"),
	)
	if err != nil {
		logger.Warn("failed to create query counter", zap.Error(err))
	}

	return m
}

// RecordQuery records one finished query with its terminal state.
func (m *Metrics) RecordQuery(ctx context.Context, state QueryState, d time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("state", string(state)),
		attribute.Bool("error", err != nil),
	)
	if m.duration != nil {
		m.duration.Record(ctx, d.Seconds(), attrs)
	}
	if m.queries != nil {
		m.queries.Add(ctx, 1, attrs)
	}
}
