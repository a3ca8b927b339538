package vectorstore

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const indexInstrumentationName = "github.com/fyrsmithlabs/ragd/internal/vectorstore"

// Metrics holds index query metrics.
type Metrics struct {
	meter    metric.Meter
	logger   *zap.Logger
	duration metric.Float64Histogram
	errors   metric.Int64Counter
}

// NewMetrics creates a Metrics instance for the index.
func NewMetrics(logger *zap.Logger) *Metrics {
	m := &Metrics{
		meter:  otel.Meter(indexInstrumentationName),
		logger: logger,
	}
	m.init()
	return m
}

func (m *Metrics) init() {
	var err error

	m.duration, err = m.meter.Float64Histogram(
		"ragd.index.query_duration_seconds",
		metric.WithDescription("Duration of similarity queries in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0),
	)
	if err != nil {
		m.logger.Warn("failed to create query duration histogram", zap.Error(err))
	}

	m.errors, err = m.meter.Int64Counter(
		"ragd.index.query_errors_total",
		metric.WithDescription("Total failed similarity queries, including empty-index and dimension-mismatch rejections"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		m.logger.Warn("failed to create query errors counter", zap.Error(err))
	}
}

// RecordQuery records one query's duration and outcome.
func (m *Metrics) RecordQuery(ctx context.Context, duration time.Duration, err error) {
	if m.duration != nil {
		m.duration.Record(ctx, duration.Seconds())
	}
	if err != nil && m.errors != nil {
		m.errors.Add(ctx, 1)
	}
}
