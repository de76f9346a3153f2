package scope

import (
	"testing"

	"github.com/matzehuels/layoutgen/pkg/status"
)

func TestNewNilSink(t *testing.T) {
	sc := New(nil)
	sc.Emit(status.Init, "ignored")
	if sc.Sink() == nil {
		t.Error("Sink() = nil, want Discard")
	}
	if sc.RequestID == "" {
		t.Error("RequestID is empty")
	}
}

func TestScopesAreIndependent(t *testing.T) {
	var ra, rb status.Recorder
	a, b := New(&ra), New(&rb)

	a.Emitf(status.LayoutProcessing, "Processing %d layouts", 3)
	b.Emit(status.LayoutDesign, "state: received")

	if got := ra.Prefixed(status.LayoutProcessing); len(got) != 1 || got[0] != "Processing 3 layouts" {
		t.Errorf("scope a events = %v", got)
	}
	if len(rb.Prefixed(status.LayoutProcessing)) != 0 {
		t.Error("scope b received scope a's event")
	}
	if a.RequestID == b.RequestID {
		t.Error("two scopes share a request id")
	}
	if a.IDs == b.IDs {
		t.Error("two scopes share an allocator")
	}
}

func TestNewWithID(t *testing.T) {
	var rec status.Recorder
	sc := NewWithID("req-1", &rec)
	if sc.RequestID != "req-1" {
		t.Errorf("RequestID = %q, want req-1", sc.RequestID)
	}
	sc.Emit(status.Init, "hello")
	if len(rec.Events()) != 1 {
		t.Errorf("len(Events()) = %d, want 1", len(rec.Events()))
	}
}
