// Package status carries progress events from a generation run to whoever
// started it.
//
// Every stage of generation reports what it is doing as an [Event]: a channel
// name (the prefix) and a human-readable message. Events are delivered to a
// [Sink] that the caller supplies per request. The generators never inspect
// what kind of sink they were given; the transport decides whether events go
// to a WebSocket, a log, a terminal UI or nowhere.
//
// # Channels
//
// The well-known channel names are exported as constants ([Init],
// [LayoutDesign], [LayoutProcessing], ...). Clients branch on these names, so
// they are part of the wire contract.
//
// # Sinks
//
//   - [Func] adapts a plain function
//   - [NewLogSink] writes events to a charm logger
//   - [Multi] fans out to several sinks
//   - [Recorder] stores events for inspection in tests
//   - [Discard] drops everything
//   - [RedisSink] publishes events to a Redis channel (see redis.go)
package status

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Well-known event channels.
const (
	Init               = "init"
	LayoutDesign       = "layout-design"
	LayoutDesignResult = "layout-design-result"
	LayoutProcessing   = "layout-processing"
	ComponentGen       = "component-generation"
	ComponentGenerated = "component-generated"
	Model              = "claude-api"
	Error              = "error"
)

// Event is a single progress notification.
type Event struct {
	Prefix  string    `json:"status"`
	Message string    `json:"message"`
	Time    time.Time `json:"timestamp"`
}

// Sink receives progress events. Implementations must be safe for concurrent
// use when a generation runs elements in parallel.
type Sink interface {
	Emit(Event)
}

// Func adapts an ordinary function to a Sink.
type Func func(Event)

// Emit calls f(e).
func (f Func) Emit(e Event) { f(e) }

// Emit builds an event stamped with the current time and delivers it to s.
// A nil sink is treated as [Discard].
func Emit(s Sink, prefix, message string) {
	if s == nil {
		return
	}
	s.Emit(Event{Prefix: prefix, Message: message, Time: time.Now()})
}

// Discard is a Sink that drops every event.
var Discard Sink = Func(func(Event) {})

// Multi returns a Sink that delivers every event to each non-nil sink in order.
func Multi(sinks ...Sink) Sink {
	var out multi
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

type multi []Sink

func (m multi) Emit(e Event) {
	for _, s := range m {
		s.Emit(e)
	}
}

// NewLogSink returns a Sink that writes events to logger. Events on the
// [Error] channel are logged at error level, everything else at info.
func NewLogSink(logger *log.Logger) Sink {
	return Func(func(e Event) {
		if e.Prefix == Error {
			logger.Error(e.Message, "status", e.Prefix)
			return
		}
		logger.Info(e.Message, "status", e.Prefix)
	})
}

// Recorder is a Sink that keeps every event it receives.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit records e.
func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events in arrival order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Prefixed returns the messages recorded on the given channel.
func (r *Recorder) Prefixed(prefix string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if e.Prefix == prefix {
			out = append(out, e.Message)
		}
	}
	return out
}
