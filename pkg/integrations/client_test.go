package integrations

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/matzehuels/layoutgen/pkg/errors"
)

func TestNewClient(t *testing.T) {
	headers := map[string]string{"x-api-key": "secret"}
	client := NewClient(headers, 0)

	if client == nil {
		t.Fatal("NewClient() returned nil")
	}
	if client.http == nil {
		t.Fatal("NewClient() http client is nil")
	}
	if client.http.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", client.http.Timeout, DefaultTimeout)
	}
	if client.headers["x-api-key"] != "secret" {
		t.Error("NewClient() headers not set correctly")
	}
}

func TestClientPostJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("x-api-key"); got != "secret" {
			t.Errorf("x-api-key = %q, want secret", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q", got)
		}
		var in map[string]string
		json.NewDecoder(r.Body).Decode(&in)
		json.NewEncoder(w).Encode(map[string]string{"echo": in["msg"]})
	}))
	defer server.Close()

	client := NewClient(map[string]string{"x-api-key": "secret"}, time.Second)
	var out map[string]string
	if err := client.PostJSON(context.Background(), server.URL+"/v1/messages", map[string]string{"msg": "hi"}, &out); err != nil {
		t.Fatalf("PostJSON() error = %v", err)
	}
	if out["echo"] != "hi" {
		t.Errorf("echo = %q, want hi", out["echo"])
	}
}

func TestClientPostJSONStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		header map[string]string
		want   errors.Code
	}{
		{"rate limited", http.StatusTooManyRequests, map[string]string{"Retry-After": "30"}, errors.ErrCodeRateLimited},
		{"unauthorized", http.StatusUnauthorized, nil, errors.ErrCodeUnauthorized},
		{"forbidden", http.StatusForbidden, nil, errors.ErrCodeUnauthorized},
		{"gateway timeout", http.StatusGatewayTimeout, nil, errors.ErrCodeTimeout},
		{"server error", http.StatusInternalServerError, nil, errors.ErrCodeNetwork},
		{"bad request", http.StatusBadRequest, nil, errors.ErrCodeNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.header {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"type":"error","error":{"type":"x","message":"nope"}}`))
			}))
			defer server.Close()

			var out any
			err := NewClient(nil, time.Second).PostJSON(context.Background(), server.URL, struct{}{}, &out)
			if got := errors.GetCode(err); got != tt.want {
				t.Errorf("code = %v, want %v (err = %v)", got, tt.want, err)
			}
			if StatusCode(err) != tt.status {
				t.Errorf("StatusCode() = %d, want %d", StatusCode(err), tt.status)
			}
		})
	}
}

func TestClientPostJSONMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	var out map[string]any
	err := NewClient(nil, time.Second).PostJSON(context.Background(), server.URL, struct{}{}, &out)
	if !errors.Is(err, errors.ErrCodeMalformedResponse) {
		t.Errorf("err = %v, want %v", err, errors.ErrCodeMalformedResponse)
	}
}

func TestClientPostJSONCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out any
	err := NewClient(nil, time.Second).PostJSON(ctx, server.URL, struct{}{}, &out)
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
