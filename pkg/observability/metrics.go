package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricHooks implements [GenerationHooks], [ModelHooks] and [HTTPHooks] with
// OpenTelemetry metric instruments. Exporting is done by the MeterProvider
// the meter came from, usually one built by [NewMeterProvider].
type MetricHooks struct {
	requests        metric.Int64Counter
	requestDuration metric.Float64Histogram
	layouts         metric.Int64Counter
	layoutDuration  metric.Float64Histogram
	skipped         metric.Int64Counter
	modelCalls      metric.Int64Counter
	modelDuration   metric.Float64Histogram
	tokens          metric.Int64Counter
	httpRequests    metric.Int64Counter
	httpDuration    metric.Float64Histogram
	active          metric.Int64UpDownCounter
}

// NewMetricHooks creates the instruments on meter.
func NewMetricHooks(meter metric.Meter) (*MetricHooks, error) {
	m := &MetricHooks{}
	var err error

	if m.requests, err = meter.Int64Counter("layoutgen.requests.total",
		metric.WithDescription("Generation requests processed"),
		metric.WithUnit("{request}")); err != nil {
		return nil, fmt.Errorf("create requests counter: %w", err)
	}
	if m.requestDuration, err = meter.Float64Histogram("layoutgen.request.duration",
		metric.WithDescription("End-to-end generation duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(1, 2.5, 5, 10, 20, 40, 80, 160, 320)); err != nil {
		return nil, fmt.Errorf("create request duration histogram: %w", err)
	}
	if m.active, err = meter.Int64UpDownCounter("layoutgen.requests.active",
		metric.WithDescription("Generation requests in flight"),
		metric.WithUnit("{request}")); err != nil {
		return nil, fmt.Errorf("create active counter: %w", err)
	}
	if m.layouts, err = meter.Int64Counter("layoutgen.layouts.total",
		metric.WithDescription("Layouts generated"),
		metric.WithUnit("{layout}")); err != nil {
		return nil, fmt.Errorf("create layouts counter: %w", err)
	}
	if m.layoutDuration, err = meter.Float64Histogram("layoutgen.layout.duration",
		metric.WithDescription("Per-layout generation duration"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("create layout duration histogram: %w", err)
	}
	if m.skipped, err = meter.Int64Counter("layoutgen.elements.skipped",
		metric.WithDescription("Elements skipped because their kind has no generator"),
		metric.WithUnit("{element}")); err != nil {
		return nil, fmt.Errorf("create skipped counter: %w", err)
	}
	if m.modelCalls, err = meter.Int64Counter("layoutgen.model.calls",
		metric.WithDescription("Language model calls"),
		metric.WithUnit("{call}")); err != nil {
		return nil, fmt.Errorf("create model calls counter: %w", err)
	}
	if m.modelDuration, err = meter.Float64Histogram("layoutgen.model.duration",
		metric.WithDescription("Language model call latency"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("create model duration histogram: %w", err)
	}
	if m.tokens, err = meter.Int64Counter("layoutgen.model.tokens",
		metric.WithDescription("Tokens consumed by model calls"),
		metric.WithUnit("{token}")); err != nil {
		return nil, fmt.Errorf("create tokens counter: %w", err)
	}
	if m.httpRequests, err = meter.Int64Counter("layoutgen.http.requests",
		metric.WithDescription("HTTP requests served"),
		metric.WithUnit("{request}")); err != nil {
		return nil, fmt.Errorf("create http counter: %w", err)
	}
	if m.httpDuration, err = meter.Float64Histogram("layoutgen.http.duration",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("create http duration histogram: %w", err)
	}
	return m, nil
}

func outcome(err error) attribute.KeyValue {
	if err != nil {
		return attribute.String("outcome", "error")
	}
	return attribute.String("outcome", "ok")
}

// OnRequestStart implements GenerationHooks.
func (m *MetricHooks) OnRequestStart(ctx context.Context, _ string, _ int) {
	m.active.Add(ctx, 1)
}

// OnRequestComplete implements GenerationHooks.
func (m *MetricHooks) OnRequestComplete(ctx context.Context, _ string, _ int, d time.Duration, err error) {
	attrs := metric.WithAttributes(outcome(err))
	m.active.Add(ctx, -1)
	m.requests.Add(ctx, 1, attrs)
	m.requestDuration.Record(ctx, d.Seconds(), attrs)
}

// OnLayoutStart implements GenerationHooks.
func (m *MetricHooks) OnLayoutStart(context.Context, string, int) {}

// OnLayoutComplete implements GenerationHooks.
func (m *MetricHooks) OnLayoutComplete(ctx context.Context, layoutType string, d time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("layout_type", layoutType), outcome(err))
	m.layouts.Add(ctx, 1, attrs)
	m.layoutDuration.Record(ctx, d.Seconds(), attrs)
}

// OnElementSkipped implements GenerationHooks.
func (m *MetricHooks) OnElementSkipped(ctx context.Context, elementType string) {
	m.skipped.Add(ctx, 1, metric.WithAttributes(attribute.String("element_type", elementType)))
}

// OnCallStart implements ModelHooks.
func (m *MetricHooks) OnCallStart(context.Context, string) {}

// OnCallComplete implements ModelHooks.
func (m *MetricHooks) OnCallComplete(ctx context.Context, channel string, u Usage, d time.Duration, err error) {
	ch := attribute.String("channel", channel)
	m.modelCalls.Add(ctx, 1, metric.WithAttributes(ch, outcome(err)))
	m.modelDuration.Record(ctx, d.Seconds(), metric.WithAttributes(ch))
	m.tokens.Add(ctx, int64(u.InputTokens), metric.WithAttributes(ch, attribute.String("kind", "input")))
	m.tokens.Add(ctx, int64(u.OutputTokens), metric.WithAttributes(ch, attribute.String("kind", "output")))
	if u.CacheReadTokens > 0 {
		m.tokens.Add(ctx, int64(u.CacheReadTokens), metric.WithAttributes(ch, attribute.String("kind", "cache_read")))
	}
}

// OnRequest implements HTTPHooks.
func (m *MetricHooks) OnRequest(context.Context, string, string, string) {}

// OnResponse implements HTTPHooks.
func (m *MetricHooks) OnResponse(ctx context.Context, method, _, path string, statusCode int, d time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.Int("status", statusCode),
	)
	m.httpRequests.Add(ctx, 1, attrs)
	m.httpDuration.Record(ctx, d.Seconds(), attrs)
}

// OnError implements HTTPHooks.
func (m *MetricHooks) OnError(ctx context.Context, method, _, path string, _ error) {
	m.httpRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.String("outcome", "error"),
	))
}
