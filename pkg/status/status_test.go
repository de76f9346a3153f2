package status

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
)

func TestEmitNilSink(t *testing.T) {
	// Must not panic.
	Emit(nil, Init, "hello")
}

func TestRecorder(t *testing.T) {
	var r Recorder
	Emit(&r, LayoutDesign, "state: received")
	Emit(&r, ComponentGen, "Generating heading component")
	Emit(&r, LayoutDesign, "state: done")

	events := r.Events()
	if len(events) != 3 {
		t.Fatalf("len(Events()) = %d, want 3", len(events))
	}
	if events[1].Prefix != ComponentGen {
		t.Errorf("events[1].Prefix = %q, want %q", events[1].Prefix, ComponentGen)
	}
	if events[0].Time.IsZero() {
		t.Error("events[0].Time is zero, want a timestamp")
	}

	got := r.Prefixed(LayoutDesign)
	want := []string{"state: received", "state: done"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Prefixed() = %v, want %v", got, want)
	}
}

func TestRecorderConcurrent(t *testing.T) {
	var r Recorder
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Emit(&r, ComponentGenerated, "ok")
		}()
	}
	wg.Wait()
	if n := len(r.Events()); n != 50 {
		t.Errorf("len(Events()) = %d, want 50", n)
	}
}

func TestMulti(t *testing.T) {
	var a, b Recorder
	s := Multi(&a, nil, &b)
	Emit(s, Error, "boom")

	if len(a.Events()) != 1 || len(b.Events()) != 1 {
		t.Errorf("Multi delivered %d/%d events, want 1/1", len(a.Events()), len(b.Events()))
	}
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	s := NewLogSink(logger)

	Emit(s, LayoutProcessing, "Processing 3 layouts")
	Emit(s, Error, "Error calling model")

	out := buf.String()
	if !strings.Contains(out, "Processing 3 layouts") {
		t.Errorf("log output missing info event: %q", out)
	}
	if !strings.Contains(out, "ERRO") {
		t.Errorf("log output missing error level: %q", out)
	}
}

type fakePublisher struct {
	mu       sync.Mutex
	channels []string
	payloads [][]byte
	err      error
}

func (p *fakePublisher) Publish(_ context.Context, channel string, message any) *redis.IntCmd {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channels = append(p.channels, channel)
	p.payloads = append(p.payloads, message.([]byte))
	return redis.NewIntResult(1, p.err)
}

func TestRedisSink(t *testing.T) {
	pub := &fakePublisher{}
	s := NewRedisSink(pub, "layoutgen:status:req-1", nil)

	Emit(s, ComponentGenerated, "Heading component generated with ID: abc")

	if len(pub.channels) != 1 || pub.channels[0] != "layoutgen:status:req-1" {
		t.Fatalf("channels = %v, want [layoutgen:status:req-1]", pub.channels)
	}
	var e Event
	if err := json.Unmarshal(pub.payloads[0], &e); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if e.Prefix != ComponentGenerated {
		t.Errorf("Prefix = %q, want %q", e.Prefix, ComponentGenerated)
	}
	if s.Channel() != "layoutgen:status:req-1" {
		t.Errorf("Channel() = %q", s.Channel())
	}
}

func TestRedisSinkPublishError(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)
	pub := &fakePublisher{err: errors.New("connection refused")}
	s := NewRedisSink(pub, "c", logger)

	Emit(s, Init, "hi")

	if !strings.Contains(buf.String(), "status publish failed") {
		t.Errorf("expected warning in log, got %q", buf.String())
	}
}
