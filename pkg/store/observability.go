package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/Marysah2/Backend-REST-API-Code-Challenge/pkg/middleware"
)

const instrumentationName = "github.com/Marysah2/Backend-REST-API-Code-Challenge/pkg/store"

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for failed operations.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithTracer sets the OpenTelemetry tracer. Defaults to the global tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Store) {
		s.tracer = tracer
	}
}

// WithMeter sets the OpenTelemetry meter. Defaults to the global meter.
func WithMeter(meter metric.Meter) Option {
	return func(s *Store) {
		s.metrics = newMetrics(meter)
	}
}

type metrics struct {
	ops      metric.Int64Counter
	duration metric.Float64Histogram
	errors   metric.Int64Counter
}

func newMetrics(meter metric.Meter) *metrics {
	ops, _ := meter.Int64Counter("store.operation.count",
		metric.WithDescription("Total number of store operations"),
		metric.WithUnit("{operation}"),
	)
	duration, _ := meter.Float64Histogram("store.operation.duration",
		metric.WithDescription("Store operation duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000),
	)
	errs, _ := meter.Int64Counter("store.operation.errors",
		metric.WithDescription("Total number of failed store operations"),
		metric.WithUnit("{error}"),
	)
	return &metrics{ops: ops, duration: duration, errors: errs}
}

func defaultTracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

func defaultMetrics() *metrics {
	return newMetrics(otel.Meter(instrumentationName))
}

// expected reports errors that are part of normal request flow and should not
// mark a span as failed.
func expected(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrDuplicateEmail)
}

// observe starts a span for op and returns a func that records its outcome.
func (s *Store) observe(ctx context.Context, op string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "store."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", s.dialect.Name),
			attribute.String("db.operation", op),
		),
	)

	return ctx, func(err error) {
		defer span.End()

		elapsed := time.Since(start)
		attrs := metric.WithAttributes(
			attribute.String("db.operation", op),
			attribute.String("db.system", s.dialect.Name),
		)
		s.metrics.ops.Add(ctx, 1, attrs)
		s.metrics.duration.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)

		if err == nil || expected(err) {
			return
		}
		s.metrics.errors.Add(ctx, 1, attrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.ErrorContext(ctx, "store operation failed",
			"operation", op,
			"duration", elapsed,
			"correlation_id", middleware.CorrelationIDFromContext(ctx),
			"error", err,
		)
	}
}
