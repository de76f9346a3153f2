// Package llm defines a provider-neutral interface to chat-style language
// models and the [Adapter] every generator uses to call them.
//
// Messages are built from [Part] values (text or image URL). A [Model]
// turns a [Request] into a [Response] holding the model's text and any
// [ToolCall] values. Provider bindings live under pkg/integrations.
//
// # Adapter
//
// [Adapter.Call] is the single gateway for model calls in this module. It
// applies prompt-cache hints, pins sampling to temperature 0 with a fixed
// output budget, reports progress on the caller's status sink, and wraps
// every failure as a MODEL_CALL_FAILED error. It never retries.
package llm

import (
	"context"
	"encoding/json"
)

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// PartType discriminates [Part] payloads.
type PartType string

const (
	PartText  PartType = "text"
	PartImage PartType = "image"
)

// Part is one piece of message content.
type Part struct {
	Type     PartType
	Text     string // for PartText
	ImageURL string // for PartImage

	// Cache asks the provider to cache the prompt prefix ending at this part.
	Cache bool
}

// Text returns a text part.
func Text(s string) Part { return Part{Type: PartText, Text: s} }

// Image returns an image part referencing url.
func Image(url string) Part { return Part{Type: PartImage, ImageURL: url} }

// Message is one turn of a conversation.
type Message struct {
	Role  Role
	Parts []Part

	// Cache asks the provider to cache the prompt up to and including this
	// message.
	Cache bool
}

// System returns a system message with a single text part.
func System(text string) Message {
	return Message{Role: RoleSystem, Parts: []Part{Text(text)}}
}

// User returns a user message made of parts.
func User(parts ...Part) Message {
	return Message{Role: RoleUser, Parts: parts}
}

// Tool describes a function the model may call. InputSchema is a JSON Schema
// object describing the arguments.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// Request is a single model invocation.
type Request struct {
	Messages    []Message
	Tools       []Tool
	Temperature float64
	MaxTokens   int
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// Usage reports token accounting for one call.
type Usage struct {
	InputTokens         int
	OutputTokens        int
	CacheReadTokens     int
	CacheCreationTokens int
}

// Response is the result of a model invocation.
type Response struct {
	Text       string
	ToolCalls  []ToolCall
	Usage      Usage
	StopReason string
	Model      string
}

// ToolCall returns the first call to the named tool.
func (r *Response) ToolCall(name string) (ToolCall, bool) {
	for _, tc := range r.ToolCalls {
		if tc.Name == name {
			return tc, true
		}
	}
	return ToolCall{}, false
}

// Model generates a response for a request.
type Model interface {
	Generate(ctx context.Context, req *Request) (*Response, error)
}

// ModelFunc adapts a function to the Model interface.
type ModelFunc func(ctx context.Context, req *Request) (*Response, error)

// Generate calls f(ctx, req).
func (f ModelFunc) Generate(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}
