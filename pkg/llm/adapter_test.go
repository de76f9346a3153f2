package llm_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lgerrors "github.com/matzehuels/layoutgen/pkg/errors"
	"github.com/matzehuels/layoutgen/pkg/llm"
	"github.com/matzehuels/layoutgen/pkg/llm/llmtest"
	"github.com/matzehuels/layoutgen/pkg/observability"
	"github.com/matzehuels/layoutgen/pkg/status"
)

func TestCallFixesSamplingAndCacheHints(t *testing.T) {
	model := llmtest.New().On(func(*llm.Request) bool { return true }, llmtest.Reply(`{"props":{}}`))
	a := llm.NewAdapter(model)

	msgs := []llm.Message{
		llm.System("you design headings"),
		llm.User(llm.Image("https://example.com/a.png"), llm.Text("make it bold")),
	}
	var rec status.Recorder
	resp, err := a.Call(context.Background(), &rec, status.ComponentGen, msgs)
	require.NoError(t, err)
	assert.Equal(t, `{"props":{}}`, resp.Text)

	reqs := model.Requests()
	require.Len(t, reqs, 1)
	req := reqs[0]
	assert.Equal(t, 0.0, req.Temperature)
	assert.Equal(t, llm.DefaultMaxTokens, req.MaxTokens)

	require.Len(t, req.Messages, 2)
	assert.True(t, req.Messages[0].Cache, "system message should be cacheable")
	assert.True(t, req.Messages[0].Parts[0].Cache)
	assert.False(t, req.Messages[1].Parts[0].Cache, "image part must not be marked")
	assert.True(t, req.Messages[1].Parts[1].Cache, "text part should be marked")

	// The caller's messages are untouched.
	assert.False(t, msgs[0].Cache)
	assert.False(t, msgs[1].Parts[1].Cache)

	assert.Equal(t, []string{"Calling model", "Model response received"}, rec.Prefixed(status.ComponentGen))
	assert.Empty(t, rec.Prefixed(status.Error))
}

func TestCallWrapsFailures(t *testing.T) {
	cause := errors.New("overloaded")
	model := llmtest.New().On(func(*llm.Request) bool { return true }, llmtest.Fail(cause))
	a := llm.NewAdapter(model, llm.WithMaxTokens(1024))

	var rec status.Recorder
	_, err := a.Call(context.Background(), &rec, status.LayoutProcessing, []llm.Message{llm.System("x")})
	require.Error(t, err)
	assert.True(t, lgerrors.Is(err, lgerrors.ErrCodeModelCall))
	assert.ErrorIs(t, err, cause)

	errs := rec.Prefixed(status.Error)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "overloaded")
	assert.Equal(t, 1024, model.Requests()[0].MaxTokens)
	assert.Equal(t, 1, model.Calls(), "failed calls are not retried")
}

func TestCallNilResponse(t *testing.T) {
	model := llm.ModelFunc(func(context.Context, *llm.Request) (*llm.Response, error) { return nil, nil })
	_, err := llm.NewAdapter(model).Call(context.Background(), nil, status.LayoutDesign, nil)
	assert.True(t, lgerrors.Is(err, lgerrors.ErrCodeModelCall))
}

func TestCallPassesTools(t *testing.T) {
	tool := llm.Tool{Name: "layout_designer", InputSchema: []byte(`{"type":"object"}`)}
	model := llmtest.New().OnTool("layout_designer", llmtest.CallTool("layout_designer", map[string]any{"layouts": []any{}}))

	resp, err := llm.NewAdapter(model).Call(context.Background(), status.Discard, status.LayoutDesign, nil, tool)
	require.NoError(t, err)
	tc, ok := resp.ToolCall("layout_designer")
	require.True(t, ok)
	assert.JSONEq(t, `{"layouts":[]}`, string(tc.Arguments))

	_, ok = resp.ToolCall("other")
	assert.False(t, ok)
}

func TestCallRateLimiterHonoursContext(t *testing.T) {
	model := llmtest.New().On(func(*llm.Request) bool { return true }, llmtest.Reply("ok"))
	a := llm.NewAdapter(model, llm.WithRequestsPerMinute(1))

	_, err := a.Call(context.Background(), nil, status.ComponentGen, nil)
	require.NoError(t, err)

	// The bucket is empty now; the next call has to wait about a minute.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = a.Call(ctx, nil, status.ComponentGen, nil)
	require.Error(t, err)
	assert.True(t, lgerrors.Is(err, lgerrors.ErrCodeModelCall))
	assert.Equal(t, 1, model.Calls())
}

type countingHooks struct {
	observability.NoopModelHooks
	calls  int
	tokens int
}

func (h *countingHooks) OnCallComplete(_ context.Context, _ string, u observability.Usage, _ time.Duration, _ error) {
	h.calls++
	h.tokens += u.InputTokens + u.OutputTokens
}

func TestCallFiresModelHooks(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetModelHooks(hooks)
	defer observability.Reset()

	model := llm.ModelFunc(func(context.Context, *llm.Request) (*llm.Response, error) {
		return &llm.Response{Text: "{}", Usage: llm.Usage{InputTokens: 30, OutputTokens: 12}}, nil
	})
	_, err := llm.NewAdapter(model).Call(context.Background(), nil, status.ComponentGen, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, hooks.calls)
	assert.Equal(t, 42, hooks.tokens)
}
