package llm

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/matzehuels/layoutgen/pkg/errors"
	"github.com/matzehuels/layoutgen/pkg/observability"
	"github.com/matzehuels/layoutgen/pkg/status"
)

// DefaultMaxTokens is the output budget of every call.
const DefaultMaxTokens = 4096

// Adapter is the gateway through which generators call a [Model]. It is
// immutable after construction and safe for concurrent use.
type Adapter struct {
	model     Model
	maxTokens int
	limiter   *rate.Limiter
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithMaxTokens overrides [DefaultMaxTokens]. Non-positive values are ignored.
func WithMaxTokens(n int) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.maxTokens = n
		}
	}
}

// WithRequestsPerMinute throttles calls client-side. Calls wait for a slot;
// they are never dropped or retried. Zero disables throttling.
func WithRequestsPerMinute(n int) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
		}
	}
}

// WithLimiter installs a caller-owned limiter, typically shared with other
// adapters talking to the same account.
func WithLimiter(l *rate.Limiter) Option {
	return func(a *Adapter) { a.limiter = l }
}

// NewAdapter wraps model.
func NewAdapter(model Model, opts ...Option) *Adapter {
	a := &Adapter{model: model, maxTokens: DefaultMaxTokens}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// MaxTokens returns the output budget applied to every call.
func (a *Adapter) MaxTokens() int { return a.maxTokens }

// Call sends messages (and optional tools) to the model.
//
// Every system message and every text part is marked cacheable; image parts
// are left as they are. Sampling is fixed at temperature 0. Progress is
// reported on sink under prefix; failures are reported on [status.Error] and
// returned as an ErrCodeModelCall error wrapping the provider's error.
func (a *Adapter) Call(ctx context.Context, sink status.Sink, prefix string, messages []Message, tools ...Tool) (*Response, error) {
	status.Emit(sink, prefix, "Calling model")

	req := &Request{
		Messages:    WithCacheHints(messages),
		Tools:       tools,
		Temperature: 0,
		MaxTokens:   a.maxTokens,
	}

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			status.Emit(sink, status.Error, "Error calling model: "+err.Error())
			return nil, errors.Wrap(errors.ErrCodeModelCall, err, "%s: waiting for rate limiter", prefix)
		}
	}

	status.Emit(sink, status.Model, "Generating response")
	hooks := observability.Model()
	hooks.OnCallStart(ctx, prefix)
	start := time.Now()

	resp, err := a.model.Generate(ctx, req)
	if err == nil && resp == nil {
		err = errors.New(errors.ErrCodeInternal, "model returned no response")
	}

	var usage observability.Usage
	if resp != nil {
		usage = observability.Usage(resp.Usage)
	}
	hooks.OnCallComplete(ctx, prefix, usage, time.Since(start), err)

	if err != nil {
		status.Emit(sink, status.Error, "Error calling model: "+err.Error())
		return nil, errors.Wrap(errors.ErrCodeModelCall, err, "%s: model call failed", prefix)
	}

	status.Emit(sink, prefix, "Model response received")
	return resp, nil
}

// WithCacheHints returns a copy of messages with cache hints applied: system
// messages and text parts are marked, image parts are not. The input is not
// modified.
func WithCacheHints(messages []Message) []Message {
	out := make([]Message, len(messages))
	for i, m := range messages {
		parts := make([]Part, len(m.Parts))
		for j, p := range m.Parts {
			if p.Type == PartText {
				p.Cache = true
			}
			parts[j] = p
		}
		m.Parts = parts
		m.Cache = true
		out[i] = m
	}
	return out
}
