// Package pkg provides the core libraries of layoutgen, a craft.js page
// layout generator driven by a language model.
//
// # Overview
//
// A page request is a description plus optional reference image URLs. The
// model first plans the page with the layout_designer tool; every planned
// layout and each of its elements is then generated by its own model call,
// and the results are assembled under a single root container. The pkg
// directory is organized into these areas:
//
//  1. [tree] - The craft.js definition: nodes, kinds, ids and the root
//  2. [component], [layout], [design] - The generators
//  3. [llm] and [integrations] - Model access and the Anthropic client
//  4. [status], [scope], [observability] - Per-request progress and hooks
//  5. [server], [session], [httputil] - HTTP and WebSocket transport
//  6. [io], [render] - Reading, writing and drawing definitions
//
// # Architecture
//
// The data flow of one request:
//
//	PageContent {prompt, images}
//	         ↓
//	    [design] package (layout_designer tool call → plan)
//	         ↓
//	    [layout] package (sorted by index, one layout at a time)
//	         ↓
//	    [component] package (one call per supported element)
//	         ↓
//	    tree.Definition (ROOT + layouts + elements)
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/layoutgen/pkg/design"
//	    "github.com/matzehuels/layoutgen/pkg/integrations/anthropic"
//	    "github.com/matzehuels/layoutgen/pkg/llm"
//	    "github.com/matzehuels/layoutgen/pkg/status"
//	)
//
//	client := anthropic.NewClient(os.Getenv("ANTHROPIC_API_KEY"), anthropic.Options{})
//	sess, _ := design.New(llm.NewAdapter(client))
//
//	def, err := sess.Generate(ctx, status.NewLogSink(logger), design.PageContent{
//	    Prompt: "Landing page for a coffee roastery",
//	    Images: []string{"https://example.com/beans.jpg"},
//	})
//
// # Concurrency
//
// Generators, the model adapter and the session are immutable after
// construction and shared by concurrent requests. Everything that belongs to
// one request (its status sink, id allocator and request id) lives in a
// [scope.Scope] created at the request boundary.
//
// [tree]: github.com/matzehuels/layoutgen/pkg/tree
// [component]: github.com/matzehuels/layoutgen/pkg/component
// [layout]: github.com/matzehuels/layoutgen/pkg/layout
// [design]: github.com/matzehuels/layoutgen/pkg/design
// [llm]: github.com/matzehuels/layoutgen/pkg/llm
// [integrations]: github.com/matzehuels/layoutgen/pkg/integrations
// [status]: github.com/matzehuels/layoutgen/pkg/status
// [scope]: github.com/matzehuels/layoutgen/pkg/scope
// [scope.Scope]: github.com/matzehuels/layoutgen/pkg/scope.Scope
// [observability]: github.com/matzehuels/layoutgen/pkg/observability
// [server]: github.com/matzehuels/layoutgen/pkg/server
// [session]: github.com/matzehuels/layoutgen/pkg/session
// [httputil]: github.com/matzehuels/layoutgen/pkg/httputil
// [io]: github.com/matzehuels/layoutgen/pkg/io
// [render]: github.com/matzehuels/layoutgen/pkg/render
package pkg
