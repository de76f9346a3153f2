package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/layoutgen/pkg/design"
	lgerrors "github.com/matzehuels/layoutgen/pkg/errors"
	"github.com/matzehuels/layoutgen/pkg/httputil"
	"github.com/matzehuels/layoutgen/pkg/layout"
	"github.com/matzehuels/layoutgen/pkg/llm"
	"github.com/matzehuels/layoutgen/pkg/llm/llmtest"
	"github.com/matzehuels/layoutgen/pkg/tree"
)

func heroPlan() design.Plan {
	return design.Plan{
		PageContent: "landing page hero",
		Layouts: []layout.Spec{{
			Index:              0,
			LayoutType:         "Container",
			LayoutRequirements: "centered hero",
			BasicElements: []layout.ElementSpec{
				{ElementType: "Heading", ElementRequirements: "Main title: Welcome"},
				{ElementType: "Paragraph", ElementRequirements: "Intro text"},
				{ElementType: "Button", ElementRequirements: "CTA: Get Started"},
			},
		}},
	}
}

func pageModel() *llmtest.Model {
	return llmtest.New().
		OnTool(design.ToolName, llmtest.CallTool(design.ToolName, heroPlan())).
		OnSystem("layout engineer", llmtest.Props(map[string]any{"padding": 24})).
		OnSystem("UI designer", llmtest.Props(map[string]any{"text": "generated", "src": "/api/placeholder/320/240"}))
}

func newTestServer(t *testing.T, model llm.Model, opts Options) (*Server, *httptest.Server) {
	t.Helper()
	sess, err := design.New(llm.NewAdapter(model))
	require.NoError(t, err)
	s := New(sess, log.New(io.Discard), opts)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func postGenerate(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url+"/generate", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decodeError(t *testing.T, data []byte) httputil.ErrorBody {
	t.Helper()
	var body httputil.ErrorBody
	require.NoError(t, json.Unmarshal(data, &body), string(data))
	return body
}

// =============================================================================
// REST
// =============================================================================

func TestGenerateREST(t *testing.T) {
	_, ts := newTestServer(t, pageModel(), Options{})

	resp, data := postGenerate(t, ts.URL, `{"content":{"prompt":"landing page hero"}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get("X-Layout-Request"))

	var def tree.Definition
	require.NoError(t, json.Unmarshal(data, &def))
	require.NoError(t, def.Validate())
	assert.Len(t, def, 5)
	require.Len(t, def.Root().Nodes, 1)
	layoutNode := def[def.Root().Nodes[0]]
	require.NotNil(t, layoutNode)
	assert.Len(t, layoutNode.Nodes, 3)
}

func TestGenerateRESTErrors(t *testing.T) {
	tests := []struct {
		name   string
		model  *llmtest.Model
		body   string
		status int
		code   lgerrors.Code
	}{
		{
			name:   "malformed body",
			model:  pageModel(),
			body:   `{"content":`,
			status: http.StatusBadRequest,
			code:   lgerrors.ErrCodeInvalidInput,
		},
		{
			name:   "empty prompt",
			model:  pageModel(),
			body:   `{"content":{"prompt":"  "}}`,
			status: http.StatusBadRequest,
			code:   lgerrors.ErrCodeInvalidInput,
		},
		{
			name:   "bad image url",
			model:  pageModel(),
			body:   `{"content":{"prompt":"page","images":["not a url"]}}`,
			status: http.StatusBadRequest,
			code:   lgerrors.ErrCodeInvalidInput,
		},
		{
			name:   "model failure",
			model:  llmtest.New().OnTool(design.ToolName, llmtest.Fail(errors.New("upstream 529"))),
			body:   `{"content":{"prompt":"page"}}`,
			status: http.StatusBadGateway,
			code:   lgerrors.ErrCodeModelCall,
		},
		{
			name:   "no tool call",
			model:  llmtest.New().OnTool(design.ToolName, llmtest.Reply("no tools today")),
			body:   `{"content":{"prompt":"page"}}`,
			status: http.StatusBadGateway,
			code:   lgerrors.ErrCodeNoToolCall,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ts := newTestServer(t, tt.model, Options{})
			resp, data := postGenerate(t, ts.URL, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			body := decodeError(t, data)
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestGenerateRESTPublishesToRedis(t *testing.T) {
	pub := &fakePublisher{}
	_, ts := newTestServer(t, pageModel(), Options{Redis: pub, ChannelPrefix: "layoutgen:status"})

	resp, data := postGenerate(t, ts.URL, `{"content":{"prompt":"landing page hero"}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	want := "layoutgen:status:" + resp.Header.Get("X-Layout-Request")
	channels := pub.Channels()
	require.NotEmpty(t, channels)
	for _, ch := range channels {
		assert.Equal(t, want, ch)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	_, ts := newTestServer(t, pageModel(), Options{})

	resp, err := http.Get(ts.URL + "/generate")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHealthAndSchema(t *testing.T) {
	_, ts := newTestServer(t, pageModel(), Options{})

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	var health map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	resp.Body.Close()
	assert.Equal(t, "ok", health["status"])

	resp, err = http.Get(ts.URL + "/schema")
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, bytes.Equal(design.Schema(), data))
}

func TestCORS(t *testing.T) {
	_, ts := newTestServer(t, pageModel(), Options{AllowedOrigins: []string{"https://app.example.com"}})

	preflight := func(origin string) *http.Response {
		req, err := http.NewRequest(http.MethodOptions, ts.URL+"/generate", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "Content-Type")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp
	}

	resp := preflight("https://app.example.com")
	assert.Less(t, resp.StatusCode, 300)
	assert.Equal(t, "https://app.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.MethodPost, resp.Header.Get("Access-Control-Allow-Methods"))

	resp = preflight("https://evil.example.com")
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example.com")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "https://app.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "X-Layout-Request", resp.Header.Get("Access-Control-Expose-Headers"))
}

func TestOriginAllowed(t *testing.T) {
	tests := []struct {
		origin  string
		allowed []string
		want    bool
	}{
		{"https://a.dev", nil, true},
		{"https://a.dev", []string{"*"}, true},
		{"https://a.dev", []string{"https://a.dev"}, true},
		{"https://b.dev", []string{"https://a.dev"}, false},
	}
	for _, tt := range tests {
		if got := originAllowed(tt.origin, tt.allowed); got != tt.want {
			t.Errorf("originAllowed(%q, %v) = %v, want %v", tt.origin, tt.allowed, got, tt.want)
		}
	}
}

// =============================================================================
// WebSocket
// =============================================================================

type wsMessage struct {
	Type            string          `json:"type"`
	Status          string          `json:"status"`
	Message         string          `json:"message"`
	Data            json.RawMessage `json:"data"`
	OriginalMessage json.RawMessage `json:"originalMessage"`
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })

	init := read(t, conn)
	require.Equal(t, MsgStatus, init.Type)
	require.Equal(t, "init", init.Status)
	require.Equal(t, InitMessage, init.Message)
	return conn
}

func read(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg wsMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

// readUntil reads messages until one of the given types arrives and returns
// it along with every status message seen before it.
func readUntil(t *testing.T, conn *websocket.Conn, types ...string) (wsMessage, []wsMessage) {
	t.Helper()
	var statuses []wsMessage
	for {
		msg := read(t, conn)
		for _, typ := range types {
			if msg.Type == typ {
				return msg, statuses
			}
		}
		require.Equal(t, MsgStatus, msg.Type, "unexpected message %+v", msg)
		statuses = append(statuses, msg)
	}
}

func TestWebSocketGenerate(t *testing.T) {
	s, ts := newTestServer(t, pageModel(), Options{})
	conn := dial(t, ts)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    MsgGenerate,
		"content": map[string]any{"prompt": "landing page hero"},
	}))

	result, statuses := readUntil(t, conn, MsgResult, MsgError)
	require.Equal(t, MsgResult, result.Type, result.Message)

	var def tree.Definition
	require.NoError(t, json.Unmarshal(result.Data, &def))
	require.NoError(t, def.Validate())
	assert.Len(t, def, 5)

	seen := map[string]bool{}
	for _, m := range statuses {
		seen[m.Status] = true
	}
	for _, prefix := range []string{"layout-design", "layout-design-result", "layout-processing", "component-generation", "component-generated", "claude-api"} {
		assert.True(t, seen[prefix], "no %s event", prefix)
	}
	assert.Equal(t, "Starting layout design generation", statuses[0].Message)
	assert.Equal(t, 1, s.Connections())
}

func TestWebSocketGenerationError(t *testing.T) {
	model := llmtest.New().OnTool(design.ToolName, llmtest.Reply("no tools"))
	_, ts := newTestServer(t, model, Options{})
	conn := dial(t, ts)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    MsgGenerate,
		"content": map[string]any{"prompt": "page"},
	}))

	msg, statuses := readUntil(t, conn, MsgResult, MsgError)
	require.Equal(t, MsgError, msg.Type)
	assert.Equal(t, "No tool calls found in response", msg.Message)

	var errorEvents int
	for _, m := range statuses {
		if m.Status == "error" {
			errorEvents++
		}
	}
	assert.Positive(t, errorEvents)
}

func TestWebSocketUnknownMessage(t *testing.T) {
	_, ts := newTestServer(t, pageModel(), Options{})
	conn := dial(t, ts)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping","n":1}`)))
	msg := read(t, conn)
	assert.Equal(t, MsgError, msg.Type)
	assert.Equal(t, "Unknown message type", msg.Message)
	assert.JSONEq(t, `{"type":"ping","n":1}`, string(msg.OriginalMessage))
}

func TestWebSocketInvalidJSON(t *testing.T) {
	_, ts := newTestServer(t, pageModel(), Options{})
	conn := dial(t, ts)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{not json`)))
	msg := read(t, conn)
	assert.Equal(t, MsgError, msg.Type)
	assert.Contains(t, msg.Message, "invalid message")
}

func TestWebSocketCloseCancelsGeneration(t *testing.T) {
	started := make(chan struct{})
	cancelled := make(chan struct{})
	model := llm.ModelFunc(func(ctx context.Context, _ *llm.Request) (*llm.Response, error) {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return nil, ctx.Err()
	})
	s, ts := newTestServer(t, model, Options{})
	conn := dial(t, ts)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    MsgGenerate,
		"content": map[string]any{"prompt": "page"},
	}))

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("model was never called")
	}
	conn.Close()

	select {
	case <-cancelled:
	case <-time.After(5 * time.Second):
		t.Fatal("generation was not cancelled after close")
	}
	assert.Eventually(t, func() bool { return s.Connections() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestWebSocketRejectsForeignOrigin(t *testing.T) {
	_, ts := newTestServer(t, pageModel(), Options{AllowedOrigins: []string{"https://app.example.com"}})

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	header := http.Header{"Origin": []string{"https://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestListenAndServeShutsDown(t *testing.T) {
	sess, err := design.New(llm.NewAdapter(pageModel()))
	require.NoError(t, err)
	s := New(sess, log.New(io.Discard), Options{Addr: "127.0.0.1:0"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("server did not shut down")
	}
}

type fakePublisher struct {
	mu       sync.Mutex
	channels []string
}

func (p *fakePublisher) Publish(_ context.Context, channel string, _ any) *redis.IntCmd {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channels = append(p.channels, channel)
	return redis.NewIntResult(1, nil)
}

func (p *fakePublisher) Channels() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.channels...)
}
