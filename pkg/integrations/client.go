package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/matzehuels/layoutgen/pkg/errors"
	"github.com/matzehuels/layoutgen/pkg/observability"
)

// Client provides shared HTTP functionality for model provider clients.
// It sets common request headers, reports HTTP hooks, and maps error
// statuses to coded errors. It does not retry.
type Client struct {
	http    *http.Client
	headers map[string]string
}

// NewClient creates a Client with the given default headers and timeout.
// Headers are applied to all requests made through this client.
// Pass nil for headers if no default headers are needed; a zero timeout
// selects [DefaultTimeout].
func NewClient(headers map[string]string, timeout time.Duration) *Client {
	return &Client{
		http:    NewHTTPClient(timeout),
		headers: headers,
	}
}

// StatusError is returned for non-2xx responses. Body holds the raw response
// body so provider packages can decode their own error envelope.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, truncate(string(e.Body), 200))
}

// PostJSON encodes in as the request body, POSTs it to url and decodes the
// response into out.
func (c *Client) PostJSON(ctx context.Context, url string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.Wrap(errors.ErrCodeNetwork, err, "POST %s", path)
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "read response")
	}
	if err := checkStatus(resp, data); err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrap(errors.ErrCodeMalformedResponse, err, "decode response")
	}
	return nil
}

func checkStatus(resp *http.Response, body []byte) error {
	code := resp.StatusCode
	if code >= 200 && code < 300 {
		return nil
	}
	se := &StatusError{StatusCode: code, Body: body}
	switch {
	case code == http.StatusTooManyRequests:
		retry, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return errors.Wrap(errors.ErrCodeRateLimited, &errors.RateLimitedError{RetryAfter: retry}, "%s", se.Error())
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return errors.Wrap(errors.ErrCodeUnauthorized, se, "provider rejected credentials")
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return errors.Wrap(errors.ErrCodeTimeout, se, "provider timed out")
	default:
		return errors.Wrap(errors.ErrCodeNetwork, se, "provider error")
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
