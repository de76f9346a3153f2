package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Generation hooks
	g := NoopGenerationHooks{}
	g.OnRequestStart(ctx, "req-1", 2)
	g.OnRequestComplete(ctx, "req-1", 12, time.Second, nil)
	g.OnLayoutStart(ctx, "Section", 3)
	g.OnLayoutComplete(ctx, "Section", time.Second, nil)
	g.OnElementSkipped(ctx, "Icon")

	// Model hooks
	m := NoopModelHooks{}
	m.OnCallStart(ctx, "component-generation")
	m.OnCallComplete(ctx, "component-generation", Usage{InputTokens: 10}, time.Second, nil)

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "POST", "localhost", "/generate")
	h.OnResponse(ctx, "POST", "localhost", "/generate", 200, time.Second)
	h.OnError(ctx, "POST", "localhost", "/generate", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Generation().(NoopGenerationHooks); !ok {
		t.Error("Generation() should return NoopGenerationHooks by default")
	}
	if _, ok := Model().(NoopModelHooks); !ok {
		t.Error("Model() should return NoopModelHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	// Set custom hooks
	customGeneration := &testGenerationHooks{}
	SetGenerationHooks(customGeneration)
	if Generation() != customGeneration {
		t.Error("SetGenerationHooks should set custom hooks")
	}

	customModel := &testModelHooks{}
	SetModelHooks(customModel)
	if Model() != customModel {
		t.Error("SetModelHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Generation().(NoopGenerationHooks); !ok {
		t.Error("Reset() should restore NoopGenerationHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testModelHooks{}
	SetModelHooks(custom)

	// Setting nil should be ignored
	SetModelHooks(nil)

	if Model() != custom {
		t.Error("SetModelHooks(nil) should be ignored")
	}

	Reset()
}

// collect reads every metric from reader, keyed by name.
func collect(t *testing.T, reader *sdkmetric.ManualReader) (map[string]metricdata.Aggregation, *metricdata.ResourceMetrics) {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out, &rm
}

func sumOf(t *testing.T, data map[string]metricdata.Aggregation, name string) int64 {
	t.Helper()
	s, ok := data[name].(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("%s: got %T, want an int64 sum", name, data[name])
	}
	var total int64
	for _, dp := range s.DataPoints {
		total += dp.Value
	}
	return total
}

func countOf(t *testing.T, data map[string]metricdata.Aggregation, name string) uint64 {
	t.Helper()
	h, ok := data[name].(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("%s: got %T, want a float64 histogram", name, data[name])
	}
	var total uint64
	for _, dp := range h.DataPoints {
		total += dp.Count
	}
	return total
}

func TestMetricHooks(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	m, err := NewMetricHooks(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetricHooks() error = %v", err)
	}

	// The hooks must satisfy every interface.
	var (
		_ GenerationHooks = m
		_ ModelHooks      = m
		_ HTTPHooks       = m
	)

	ctx := context.Background()
	m.OnRequestStart(ctx, "req", 0)
	m.OnLayoutStart(ctx, "Flexbox", 4)
	m.OnLayoutComplete(ctx, "Flexbox", time.Millisecond, nil)
	m.OnElementSkipped(ctx, "Icon")
	m.OnCallStart(ctx, "layout-design")
	m.OnCallComplete(ctx, "layout-design", Usage{InputTokens: 100, OutputTokens: 20, CacheReadTokens: 80}, time.Second, nil)
	m.OnRequestComplete(ctx, "req", 9, time.Second, errors.New("boom"))
	m.OnResponse(ctx, "GET", "", "/healthz", 200, time.Millisecond)
	m.OnError(ctx, "GET", "", "/ws", errors.New("closed"))

	data, _ := collect(t, reader)
	sums := []struct {
		name string
		want int64
	}{
		{"layoutgen.requests.total", 1},
		{"layoutgen.requests.active", 0},
		{"layoutgen.layouts.total", 1},
		{"layoutgen.elements.skipped", 1},
		{"layoutgen.model.calls", 1},
		{"layoutgen.model.tokens", 200},
		{"layoutgen.http.requests", 2},
	}
	for _, tt := range sums {
		if got := sumOf(t, data, tt.name); got != tt.want {
			t.Errorf("%s = %d, want %d", tt.name, got, tt.want)
		}
	}
	for _, name := range []string{"layoutgen.request.duration", "layoutgen.layout.duration", "layoutgen.model.duration", "layoutgen.http.duration"} {
		if got := countOf(t, data, name); got != 1 {
			t.Errorf("%s count = %d, want 1", name, got)
		}
	}
}

func TestNewMeterProvider(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp, err := NewMeterProvider(context.Background(), ProviderOptions{
		ServiceName:    "layoutgen",
		ServiceVersion: "1.2.3",
	}, reader)
	if err != nil {
		t.Fatalf("NewMeterProvider() error = %v", err)
	}
	defer mp.Shutdown(context.Background())

	m, err := NewMetricHooks(mp.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}
	m.OnElementSkipped(context.Background(), "Icon")
	m.OnElementSkipped(context.Background(), "Video")

	data, rm := collect(t, reader)
	if got := sumOf(t, data, "layoutgen.elements.skipped"); got != 2 {
		t.Errorf("elements skipped = %d, want 2", got)
	}
	name, ok := rm.Resource.Set().Value(semconv.ServiceNameKey)
	if !ok || name.AsString() != "layoutgen" {
		t.Errorf("service.name = %v, want layoutgen", name.AsString())
	}
}

// Test implementations
type testGenerationHooks struct{ NoopGenerationHooks }
type testModelHooks struct{ NoopModelHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
