// Package design drives a whole page request: it asks the model to plan the
// page with the layout_designer tool, hands the plan to the layout generator
// and assembles the final definition under a fresh root.
//
// A request moves through a fixed sequence of [State] values and reports each
// transition as a "layout-design" status event:
//
//	received → prompting-model → awaiting-tool-call → processing-layouts
//	         → assembling-root → done
//
// Any state may move to failed. Failures are returned unchanged; no partial
// definition is ever returned.
package design

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/layoutgen/pkg/component"
	"github.com/matzehuels/layoutgen/pkg/errors"
	"github.com/matzehuels/layoutgen/pkg/layout"
	"github.com/matzehuels/layoutgen/pkg/llm"
	"github.com/matzehuels/layoutgen/pkg/observability"
	"github.com/matzehuels/layoutgen/pkg/scope"
	"github.com/matzehuels/layoutgen/pkg/status"
	"github.com/matzehuels/layoutgen/pkg/tree"
)

// Session turns page content into a page definition. It is immutable after
// construction and serves any number of concurrent requests; all per-request
// state lives in the [scope.Scope] each request creates.
type Session struct {
	adapter *llm.Adapter
	layouts *layout.Generator
	tool    llm.Tool
}

// NewSession returns a session planning with adapter and building layouts
// with layouts.
func NewSession(adapter *llm.Adapter, layouts *layout.Generator) *Session {
	return &Session{adapter: adapter, layouts: layouts, tool: Tool()}
}

// New wires the full generator stack on top of adapter.
func New(adapter *llm.Adapter, opts ...layout.Option) (*Session, error) {
	reg, err := component.NewRegistry(adapter)
	if err != nil {
		return nil, fmt.Errorf("component registry: %w", err)
	}
	layouts, err := layout.NewGenerator(reg, adapter, opts...)
	if err != nil {
		return nil, fmt.Errorf("layout generator: %w", err)
	}
	return NewSession(adapter, layouts), nil
}

// Generate handles one request, reporting progress to sink. A nil sink
// discards events.
func (s *Session) Generate(ctx context.Context, sink status.Sink, content PageContent) (tree.Definition, error) {
	return s.Run(ctx, scope.New(sink), content)
}

// Run is like Generate with a caller-built scope.
func (s *Session) Run(ctx context.Context, sc *scope.Scope, content PageContent) (def tree.Definition, err error) {
	r := &run{sc: sc, state: StateReceived}
	r.emitState()

	hooks := observability.Generation()
	hooks.OnRequestStart(ctx, sc.RequestID, len(content.Images))
	start := time.Now()
	defer func() {
		if err != nil {
			r.fail(err)
		}
		hooks.OnRequestComplete(ctx, sc.RequestID, len(def), time.Since(start), err)
	}()

	sc.Emit(status.LayoutDesign, "Starting layout design generation for provided content")
	if err := content.Validate(); err != nil {
		return nil, err
	}

	r.advance(StatePromptingModel)
	sc.Emitf(status.LayoutDesign, "Sending layout design request to model with %d reference images", len(content.Images))
	resp, err := s.adapter.Call(ctx, sc.Sink(), status.LayoutDesign, Messages(content), s.tool)
	if err != nil {
		return nil, err
	}

	r.advance(StateAwaitingToolCall)
	plan, raw, err := ExtractLayouts(resp)
	if err != nil {
		return nil, err
	}
	sc.Emit(status.LayoutDesignResult, string(raw))
	sc.Emit(status.LayoutDesign, "Layout design generation completed")

	r.advance(StateProcessingLayouts)
	sc.Emitf(status.LayoutProcessing, "Processing %d layouts", len(plan.Layouts))
	res, err := s.layouts.Process(ctx, sc, plan.Layouts, component.StructuredRequirements(tree.RootRequirements()))
	if err != nil {
		return nil, err
	}

	r.advance(StateAssemblingRoot)
	out := tree.Definition{tree.RootID: tree.NewRoot(res.LayoutIDs)}
	if err := out.Merge(res.Definition); err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	sc.Emitf(status.LayoutProcessing, "Final layout definition created: %s", out)

	r.advance(StateDone)
	return out, nil
}

type run struct {
	sc    *scope.Scope
	state State
}

func (r *run) advance(to State) {
	if !r.state.CanTransition(to) {
		panic(fmt.Sprintf("design: illegal transition %s -> %s", r.state, to))
	}
	r.state = to
	r.emitState()
}

func (r *run) fail(err error) {
	r.sc.Emitf(status.Error, "Layout design failed: %s", errors.UserMessage(err))
	if r.state.CanTransition(StateFailed) {
		r.advance(StateFailed)
	}
}

func (r *run) emitState() {
	r.sc.Emitf(status.LayoutDesign, "state: %s", r.state)
}
