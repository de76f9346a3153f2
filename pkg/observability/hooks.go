// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup
// to receive events about page generation, model calls, and HTTP requests.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// [NewMetricHooks] is a ready-made implementation backed by OpenTelemetry
// metric instruments.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    m := observability.NewMetricHooks(otel.Meter("layoutgen"))
//	    observability.SetGenerationHooks(m)
//	    observability.SetModelHooks(m)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Model().OnCallStart(ctx, prefix)
//	// ... call the model ...
//	observability.Model().OnCallComplete(ctx, prefix, usage, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Generation Hooks
// =============================================================================

// GenerationHooks receives events from a page generation run.
type GenerationHooks interface {
	// Request events
	OnRequestStart(ctx context.Context, requestID string, images int)
	OnRequestComplete(ctx context.Context, requestID string, nodes int, duration time.Duration, err error)

	// Layout events
	OnLayoutStart(ctx context.Context, layoutType string, elements int)
	OnLayoutComplete(ctx context.Context, layoutType string, duration time.Duration, err error)

	// OnElementSkipped records an element whose kind has no generator.
	OnElementSkipped(ctx context.Context, elementType string)
}

// =============================================================================
// Model Hooks
// =============================================================================

// Usage is the token accounting of one model call.
type Usage struct {
	InputTokens         int
	OutputTokens        int
	CacheReadTokens     int
	CacheCreationTokens int
}

// ModelHooks receives events from language model calls.
type ModelHooks interface {
	// OnCallStart records an outgoing model call on the given status channel.
	OnCallStart(ctx context.Context, channel string)

	// OnCallComplete records the outcome of a model call.
	OnCallComplete(ctx context.Context, channel string, usage Usage, duration time.Duration, err error)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP operations.
type HTTPHooks interface {
	// OnRequest records an HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopGenerationHooks is a no-op implementation of GenerationHooks.
type NoopGenerationHooks struct{}

func (NoopGenerationHooks) OnRequestStart(context.Context, string, int) {}
func (NoopGenerationHooks) OnRequestComplete(context.Context, string, int, time.Duration, error) {
}
func (NoopGenerationHooks) OnLayoutStart(context.Context, string, int)                     {}
func (NoopGenerationHooks) OnLayoutComplete(context.Context, string, time.Duration, error) {}
func (NoopGenerationHooks) OnElementSkipped(context.Context, string)                       {}

// NoopModelHooks is a no-op implementation of ModelHooks.
type NoopModelHooks struct{}

func (NoopModelHooks) OnCallStart(context.Context, string)                                {}
func (NoopModelHooks) OnCallComplete(context.Context, string, Usage, time.Duration, error) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	generationHooks GenerationHooks = NoopGenerationHooks{}
	modelHooks      ModelHooks      = NoopModelHooks{}
	httpHooks       HTTPHooks       = NoopHTTPHooks{}
	hooksMu         sync.RWMutex
)

// SetGenerationHooks registers custom generation hooks.
// This should be called once at application startup before any generation runs.
func SetGenerationHooks(h GenerationHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		generationHooks = h
	}
}

// SetModelHooks registers custom model hooks.
// This should be called once at application startup before any model calls.
func SetModelHooks(h ModelHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		modelHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Generation returns the registered generation hooks.
func Generation() GenerationHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return generationHooks
}

// Model returns the registered model hooks.
func Model() ModelHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return modelHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	generationHooks = NoopGenerationHooks{}
	modelHooks = NoopModelHooks{}
	httpHooks = NoopHTTPHooks{}
}
