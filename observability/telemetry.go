// Package observability provides OpenTelemetry integration, metrics and
// audit logging for guard lease lifecycles.
package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Metric names recorded by pools, relative to the configured prefix.
const (
	MetricLeasesTotal    = "leases_total"
	MetricReleasedTotal  = "released_total"
	MetricDetachedTotal  = "detached_total"
	MetricDestroyedTotal = "destroyed_total"
	MetricRejectedTotal  = "rejected_total"
	MetricActiveLeases   = "active_leases"
	MetricHoldSeconds    = "hold_duration_seconds"
)

// Telemetry provides observability features.
type Telemetry interface {
	// StartSpan starts a new trace span.
	StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, func())

	// RecordCounter increments a named counter.
	RecordCounter(name string, labels map[string]string)

	// RecordDuration records a duration metric in seconds.
	RecordDuration(name string, seconds float64, labels map[string]string)

	// AddGauge adjusts a named up/down gauge.
	AddGauge(name string, delta int64, labels map[string]string)
}

// SpanOption configures span creation.
type SpanOption func(*spanConfig)

type spanConfig struct {
	attributes []attribute.KeyValue
	kind       trace.SpanKind
}

// WithAttribute adds an attribute to the span.
func WithAttribute(key string, value interface{}) SpanOption {
	return func(c *spanConfig) {
		switch v := value.(type) {
		case string:
			c.attributes = append(c.attributes, attribute.String(key, v))
		case int:
			c.attributes = append(c.attributes, attribute.Int(key, v))
		case int64:
			c.attributes = append(c.attributes, attribute.Int64(key, v))
		case float64:
			c.attributes = append(c.attributes, attribute.Float64(key, v))
		case bool:
			c.attributes = append(c.attributes, attribute.Bool(key, v))
		}
	}
}

// WithSpanKind sets the span kind.
func WithSpanKind(kind trace.SpanKind) SpanOption {
	return func(c *spanConfig) {
		c.kind = kind
	}
}

// TelemetryConfig configures telemetry.
type TelemetryConfig struct {
	// ServiceName is the service name for tracing.
	ServiceName string

	// ServiceVersion is the service version.
	ServiceVersion string

	// Environment is the deployment environment.
	Environment string

	// EnableTracing enables distributed tracing.
	EnableTracing bool

	// EnableMetrics enables metrics collection.
	EnableMetrics bool

	// MetricsPrefix is the prefix for all metrics.
	MetricsPrefix string
}

// DefaultTelemetryConfig returns default configuration.
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		ServiceName:    "goguard",
		ServiceVersion: "1.0.0",
		Environment:    "development",
		EnableTracing:  true,
		EnableMetrics:  true,
		MetricsPrefix:  "goguard_",
	}
}

// telemetry implements Telemetry.
type telemetry struct {
	config TelemetryConfig
	tracer trace.Tracer
	meter  metric.Meter

	counters   map[string]metric.Int64Counter
	gauges     map[string]metric.Int64UpDownCounter
	histograms map[string]metric.Float64Histogram
}

// NewTelemetry creates a new telemetry instance.
func NewTelemetry(config TelemetryConfig) (Telemetry, error) {
	t := &telemetry{
		config:     config,
		tracer:     otel.Tracer(config.ServiceName),
		meter:      otel.Meter(config.ServiceName),
		counters:   make(map[string]metric.Int64Counter),
		gauges:     make(map[string]metric.Int64UpDownCounter),
		histograms: make(map[string]metric.Float64Histogram),
	}

	counterDescriptions := map[string]string{
		MetricLeasesTotal:    "Total number of leases handed out",
		MetricReleasedTotal:  "Total number of leases finalized back to their pool",
		MetricDetachedTotal:  "Total number of leases detached from pool ownership",
		MetricDestroyedTotal: "Total number of resources destroyed",
		MetricRejectedTotal:  "Total number of rejected acquire attempts",
	}

	for name, desc := range counterDescriptions {
		c, err := t.meter.Int64Counter(
			config.MetricsPrefix+name,
			metric.WithDescription(desc),
		)
		if err != nil {
			return nil, err
		}
		t.counters[name] = c
	}

	g, err := t.meter.Int64UpDownCounter(
		config.MetricsPrefix+MetricActiveLeases,
		metric.WithDescription("Number of currently outstanding leases"),
	)
	if err != nil {
		return nil, err
	}
	t.gauges[MetricActiveLeases] = g

	h, err := t.meter.Float64Histogram(
		config.MetricsPrefix+MetricHoldSeconds,
		metric.WithDescription("Duration leases were held before finalizing"),
	)
	if err != nil {
		return nil, err
	}
	t.histograms[MetricHoldSeconds] = h

	return t, nil
}

// StartSpan implements Telemetry.StartSpan.
func (t *telemetry) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, func()) {
	if !t.config.EnableTracing {
		return ctx, func() {}
	}

	cfg := &spanConfig{
		kind: trace.SpanKindInternal,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	ctx, span := t.tracer.Start(ctx, name,
		trace.WithAttributes(cfg.attributes...),
		trace.WithSpanKind(cfg.kind),
	)

	return ctx, func() {
		span.End()
	}
}

// RecordCounter implements Telemetry.RecordCounter.
func (t *telemetry) RecordCounter(name string, labels map[string]string) {
	if !t.config.EnableMetrics {
		return
	}

	c, ok := t.counters[name]
	if !ok {
		return
	}
	c.Add(context.Background(), 1, metric.WithAttributes(labelsToAttributes(labels)...))
}

// RecordDuration implements Telemetry.RecordDuration.
func (t *telemetry) RecordDuration(name string, seconds float64, labels map[string]string) {
	if !t.config.EnableMetrics {
		return
	}

	h, ok := t.histograms[name]
	if !ok {
		return
	}
	h.Record(context.Background(), seconds, metric.WithAttributes(labelsToAttributes(labels)...))
}

// AddGauge implements Telemetry.AddGauge.
func (t *telemetry) AddGauge(name string, delta int64, labels map[string]string) {
	if !t.config.EnableMetrics {
		return
	}

	g, ok := t.gauges[name]
	if !ok {
		return
	}
	g.Add(context.Background(), delta, metric.WithAttributes(labelsToAttributes(labels)...))
}

// labelsToAttributes converts labels to OTEL attributes.
func labelsToAttributes(labels map[string]string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(labels))
	for k, v := range labels {
		attrs = append(attrs, attribute.String(k, v))
	}
	return attrs
}

// NoopTelemetry returns a no-op telemetry implementation.
func NoopTelemetry() Telemetry {
	return &noopTelemetry{}
}

type noopTelemetry struct{}

func (t *noopTelemetry) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, func()) {
	return ctx, func() {}
}

func (t *noopTelemetry) RecordCounter(name string, labels map[string]string)                   {}
func (t *noopTelemetry) RecordDuration(name string, seconds float64, labels map[string]string) {}
func (t *noopTelemetry) AddGauge(name string, delta int64, labels map[string]string)           {}
