// Package scope bundles the state that belongs to exactly one generation
// request.
//
// A [Scope] is created at the request boundary and passed explicitly down
// through every generator call. It holds the status sink for the request and
// the id allocator that keeps node ids unique within the request. Nothing in
// a Scope is shared between requests, so concurrent requests never see each
// other's events or ids.
package scope

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/matzehuels/layoutgen/pkg/status"
	"github.com/matzehuels/layoutgen/pkg/tree"
)

// Scope is the per-request context of a generation run.
type Scope struct {
	// RequestID identifies the request in logs and status channels.
	RequestID string

	// IDs allocates node ids and display names for this request.
	IDs *tree.Allocator

	sink status.Sink
}

// New returns a Scope reporting to sink. A nil sink discards events.
func New(sink status.Sink) *Scope {
	return NewWithID(uuid.NewString(), sink)
}

// NewWithID is like New with a caller-chosen request id.
func NewWithID(id string, sink status.Sink) *Scope {
	if sink == nil {
		sink = status.Discard
	}
	return &Scope{
		RequestID: id,
		IDs:       tree.NewAllocator(),
		sink:      sink,
	}
}

// Emit sends a status event for this request.
func (s *Scope) Emit(prefix, message string) {
	status.Emit(s.sink, prefix, message)
}

// Emitf is like Emit with a formatted message.
func (s *Scope) Emitf(prefix, format string, args ...any) {
	status.Emit(s.sink, prefix, fmt.Sprintf(format, args...))
}

// Sink returns the request's status sink.
func (s *Scope) Sink() status.Sink { return s.sink }
