// Package anthropic implements [llm.Model] on the Anthropic Messages API.
//
// Requests carry prompt-cache hints as "cache_control" blocks, images as URL
// sources (base64 sources for data: URLs), and tools with their JSON Schema. Responses are split into text
// and tool_use blocks.
//
// [llm.Model]: github.com/matzehuels/layoutgen/pkg/llm.Model
package anthropic

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"time"

	"github.com/matzehuels/layoutgen/pkg/errors"
	"github.com/matzehuels/layoutgen/pkg/integrations"
	"github.com/matzehuels/layoutgen/pkg/llm"
)

const (
	// DefaultBaseURL is the public API endpoint.
	DefaultBaseURL = "https://api.anthropic.com"

	// DefaultModel is used when no model name is configured.
	DefaultModel = "claude-3-7-sonnet-20250219"

	apiVersion = "2023-06-01"
)

// Client provides access to the Messages API.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
	model   string
}

// Options configure a Client. Zero values select the defaults.
type Options struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// NewClient creates a client authenticating with apiKey.
func NewClient(apiKey string, opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	headers := map[string]string{
		"x-api-key":         apiKey,
		"anthropic-version": apiVersion,
	}
	return &Client{
		Client:  integrations.NewClient(headers, opts.Timeout),
		baseURL: strings.TrimSuffix(opts.BaseURL, "/"),
		model:   opts.Model,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// Generate implements llm.Model.
func (c *Client) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	body, err := buildRequest(c.model, req)
	if err != nil {
		return nil, err
	}

	var resp apiResponse
	if err := c.PostJSON(ctx, c.baseURL+"/v1/messages", body, &resp); err != nil {
		return nil, describe(err)
	}
	return resp.toResponse(), nil
}

// describe replaces the generic status message with the API's own error
// message when the body carries one.
func describe(err error) error {
	var se *integrations.StatusError
	if !stderrors.As(err, &se) {
		return err
	}
	var apiErr apiError
	if json.Unmarshal(se.Body, &apiErr) != nil || apiErr.Error.Message == "" {
		return err
	}
	return errors.Wrap(errors.GetCode(err), se, "%s: %s", apiErr.Error.Type, apiErr.Error.Message)
}
