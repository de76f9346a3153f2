// Package llmtest provides a scripted [llm.Model] for tests.
package llmtest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/matzehuels/layoutgen/pkg/llm"
)

// Responder produces the reply to one request.
type Responder func(req *llm.Request) (*llm.Response, error)

// Model is a fake model. Each request is answered by the first rule whose
// match function accepts it; requests no rule accepts fail. All requests are
// recorded.
type Model struct {
	mu       sync.Mutex
	rules    []rule
	requests []*llm.Request
}

type rule struct {
	match   func(*llm.Request) bool
	respond Responder
}

// New returns an empty fake.
func New() *Model { return &Model{} }

// On answers requests accepted by match with respond.
func (m *Model) On(match func(*llm.Request) bool, respond Responder) *Model {
	m.mu.Lock()
	m.rules = append(m.rules, rule{match: match, respond: respond})
	m.mu.Unlock()
	return m
}

// OnSystem answers requests whose system prompt contains substr.
func (m *Model) OnSystem(substr string, respond Responder) *Model {
	return m.On(func(r *llm.Request) bool {
		return strings.Contains(SystemPrompt(r), substr)
	}, respond)
}

// OnTool answers requests that offer the named tool.
func (m *Model) OnTool(name string, respond Responder) *Model {
	return m.On(func(r *llm.Request) bool {
		for _, t := range r.Tools {
			if t.Name == name {
				return true
			}
		}
		return false
	}, respond)
}

// Generate implements llm.Model.
func (m *Model) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	rules := m.rules
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, r := range rules {
		if r.match(req) {
			return r.respond(req)
		}
	}
	return nil, fmt.Errorf("llmtest: no rule matches request with system prompt %.60q", SystemPrompt(req))
}

// Requests returns the recorded requests in arrival order.
func (m *Model) Requests() []*llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*llm.Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Calls returns the number of recorded requests.
func (m *Model) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Reply returns a Responder that answers with text.
func Reply(text string) Responder {
	return func(*llm.Request) (*llm.Response, error) {
		return &llm.Response{Text: text, StopReason: "end_turn"}, nil
	}
}

// Props returns a Responder answering {"props": props}.
func Props(props map[string]any) Responder {
	data, err := json.Marshal(map[string]any{"props": props})
	if err != nil {
		panic(err)
	}
	return Reply(string(data))
}

// Fail returns a Responder that fails with err.
func Fail(err error) Responder {
	return func(*llm.Request) (*llm.Response, error) { return nil, err }
}

// CallTool returns a Responder that invokes the named tool with args.
func CallTool(name string, args any) Responder {
	data, err := json.Marshal(args)
	if err != nil {
		panic(err)
	}
	return func(*llm.Request) (*llm.Response, error) {
		return &llm.Response{
			ToolCalls:  []llm.ToolCall{{ID: "toolu_test", Name: name, Arguments: data}},
			StopReason: "tool_use",
		}, nil
	}
}

// Sequence returns a Responder that answers the n-th call with the n-th
// responder and repeats the last one afterwards.
func Sequence(rs ...Responder) Responder {
	var mu sync.Mutex
	i := 0
	return func(req *llm.Request) (*llm.Response, error) {
		mu.Lock()
		r := rs[min(i, len(rs)-1)]
		i++
		mu.Unlock()
		return r(req)
	}
}

// SystemPrompt returns the concatenated text of the system messages.
func SystemPrompt(r *llm.Request) string {
	return textOf(r, llm.RoleSystem)
}

// UserPrompt returns the concatenated text of the user messages.
func UserPrompt(r *llm.Request) string {
	return textOf(r, llm.RoleUser)
}

func textOf(r *llm.Request, role llm.Role) string {
	var b strings.Builder
	for _, m := range r.Messages {
		if m.Role != role {
			continue
		}
		for _, p := range m.Parts {
			if p.Type == llm.PartText {
				b.WriteString(p.Text)
			}
		}
	}
	return b.String()
}

// ImageURLs returns the URLs of all image parts in the request.
func ImageURLs(r *llm.Request) []string {
	var out []string
	for _, m := range r.Messages {
		for _, p := range m.Parts {
			if p.Type == llm.PartImage {
				out = append(out, p.ImageURL)
			}
		}
	}
	return out
}
