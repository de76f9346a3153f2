package anthropic

import (
	"encoding/json"
	"strings"

	"github.com/matzehuels/layoutgen/pkg/errors"
	"github.com/matzehuels/layoutgen/pkg/llm"
)

// apiRequest is the Messages API request structure.
type apiRequest struct {
	Model       string       `json:"model"`
	MaxTokens   int          `json:"max_tokens"`
	Temperature float64      `json:"temperature"`
	System      []apiContent `json:"system,omitempty"`
	Messages    []apiMessage `json:"messages"`
	Tools       []apiTool    `json:"tools,omitempty"`
}

type apiMessage struct {
	Role    string       `json:"role"`
	Content []apiContent `json:"content"`
}

type cacheControl struct {
	Type string `json:"type"`
}

var ephemeral = &cacheControl{Type: "ephemeral"}

type imageSource struct {
	Type      string `json:"type"`
	URL       string `json:"url,omitempty"`
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"`
}

// newImageSource returns a base64 source for "data:<type>;base64,<data>"
// URLs and a url source for everything else.
func newImageSource(rawURL string) *imageSource {
	if rest, ok := strings.CutPrefix(rawURL, "data:"); ok {
		meta, data, found := strings.Cut(rest, ",")
		if mediaType, isBase64 := strings.CutSuffix(meta, ";base64"); found && isBase64 {
			return &imageSource{Type: "base64", MediaType: mediaType, Data: data}
		}
	}
	return &imageSource{Type: "url", URL: rawURL}
}

type apiContent struct {
	Type         string          `json:"type"`
	Text         string          `json:"text,omitempty"`
	Source       *imageSource    `json:"source,omitempty"`
	CacheControl *cacheControl   `json:"cache_control,omitempty"`
	ID           string          `json:"id,omitempty"`
	Name         string          `json:"name,omitempty"`
	Input        json.RawMessage `json:"input,omitempty"`
}

type apiTool struct {
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	InputSchema  json.RawMessage `json:"input_schema"`
	CacheControl *cacheControl   `json:"cache_control,omitempty"`
}

// apiResponse is the Messages API response structure.
type apiResponse struct {
	ID         string       `json:"id"`
	Type       string       `json:"type"`
	Role       string       `json:"role"`
	Content    []apiContent `json:"content"`
	Model      string       `json:"model"`
	StopReason string       `json:"stop_reason"`
	Usage      struct {
		InputTokens              int `json:"input_tokens"`
		OutputTokens             int `json:"output_tokens"`
		CacheReadInputTokens     int `json:"cache_read_input_tokens"`
		CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
	} `json:"usage"`
}

type apiError struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func buildRequest(model string, req *llm.Request) (*apiRequest, error) {
	out := &apiRequest{
		Model:       model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	for _, m := range req.Messages {
		content := convertParts(m)
		if m.Role == llm.RoleSystem {
			out.System = append(out.System, content...)
			continue
		}
		out.Messages = append(out.Messages, apiMessage{Role: string(m.Role), Content: content})
	}
	if len(out.Messages) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "request has no user or assistant messages")
	}
	for _, t := range req.Tools {
		out.Tools = append(out.Tools, apiTool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}
	capBreakpoints(out)
	return out, nil
}

func convertParts(m llm.Message) []apiContent {
	var out []apiContent
	for _, p := range m.Parts {
		var c apiContent
		switch p.Type {
		case llm.PartImage:
			c = apiContent{Type: "image", Source: newImageSource(p.ImageURL)}
		default:
			c = apiContent{Type: "text", Text: p.Text}
		}
		if p.Cache {
			c.CacheControl = ephemeral
		}
		out = append(out, c)
	}
	// A message-level hint lands on the last block.
	if m.Cache && len(out) > 0 {
		out[len(out)-1].CacheControl = ephemeral
	}
	return out
}

func (r *apiResponse) toResponse() *llm.Response {
	out := &llm.Response{
		Model:      r.Model,
		StopReason: r.StopReason,
		Usage: llm.Usage{
			InputTokens:         r.Usage.InputTokens,
			OutputTokens:        r.Usage.OutputTokens,
			CacheReadTokens:     r.Usage.CacheReadInputTokens,
			CacheCreationTokens: r.Usage.CacheCreationInputTokens,
		},
	}
	for _, block := range r.Content {
		switch block.Type {
		case "text":
			out.Text += block.Text
		case "tool_use":
			out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: block.Input,
			})
		}
	}
	return out
}

// maxCacheBreakpoints is the number of cache_control blocks the API accepts
// per request.
const maxCacheBreakpoints = 4

// capBreakpoints keeps only the last maxCacheBreakpoints cache hints.
func capBreakpoints(r *apiRequest) {
	var marked []*apiContent
	for i := range r.System {
		if r.System[i].CacheControl != nil {
			marked = append(marked, &r.System[i])
		}
	}
	for i := range r.Messages {
		for j := range r.Messages[i].Content {
			if r.Messages[i].Content[j].CacheControl != nil {
				marked = append(marked, &r.Messages[i].Content[j])
			}
		}
	}
	for len(marked) > maxCacheBreakpoints {
		marked[0].CacheControl = nil
		marked = marked[1:]
	}
}
