// Package component generates leaf elements of a page: headings,
// paragraphs, text, buttons, dividers and images.
//
// Each element kind has a [Generator] that prompts the model with a
// kind-specific design brief, parses the JSON reply into props, and wraps
// them in a fresh leaf [tree.Node]. A [Registry] maps the element type names
// used by the layout designer to their generators; it is built once and
// shared by all requests.
//
// # Response Contract
//
// The model must reply with exactly one JSON object of the form
//
//	{"props": {...}}
//
// A surrounding markdown code fence is tolerated. Kinds that cannot render
// without content must include it (text for Heading, Paragraph, Text and
// Button; src for Image). Everything else in props is passed through
// unchecked. Failures are MALFORMED_RESPONSE errors and are never retried.
package component

import (
	"context"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/matzehuels/layoutgen/pkg/errors"
	"github.com/matzehuels/layoutgen/pkg/llm"
	"github.com/matzehuels/layoutgen/pkg/scope"
	"github.com/matzehuels/layoutgen/pkg/status"
	"github.com/matzehuels/layoutgen/pkg/tree"
)

// Element is a generated leaf node and its id.
type Element struct {
	ID   string
	Node *tree.Node
}

// Generator produces elements of one kind. It holds no per-request state and
// is safe for concurrent use.
type Generator struct {
	kind    Kind
	adapter *llm.Adapter
	schema  *jsonschema.Schema
}

// NewGenerator returns a generator for kind calling the model through adapter.
func NewGenerator(kind Kind, adapter *llm.Adapter) (*Generator, error) {
	schema, err := CompileSchema("component-"+kind.Prefix, PropsSchema(kind.Required...))
	if err != nil {
		return nil, err
	}
	return &Generator{kind: kind, adapter: adapter, schema: schema}, nil
}

// Kind returns the kind this generator produces.
func (g *Generator) Kind() Kind { return g.kind }

// Messages builds the model conversation for one element.
func (g *Generator) Messages(elementReq string, parentReq Requirements) []llm.Message {
	var b strings.Builder
	b.WriteString("Generate properties with the following context:\n\n")
	b.WriteString("Element Requirements:\n")
	b.WriteString(elementReq)
	b.WriteString("\n\nParent Component Requirements:\n")
	b.WriteString(parentReq.String())
	b.WriteString("\n\nKeep the element visually consistent with its parent component while meeting its own requirements.")

	return []llm.Message{
		llm.System(g.kind.Prompt),
		llm.User(llm.Text(b.String())),
	}
}

// Generate produces one element owned by parentID and returns it as a
// single-entry definition.
func (g *Generator) Generate(ctx context.Context, sc *scope.Scope, elementReq string, parentReq Requirements, parentID string) (tree.Definition, error) {
	el, err := g.GenerateElement(ctx, sc, elementReq, parentReq, parentID)
	if err != nil {
		return nil, err
	}
	return tree.Definition{el.ID: el.Node}, nil
}

// GenerateElement is like Generate but returns the element directly.
func (g *Generator) GenerateElement(ctx context.Context, sc *scope.Scope, elementReq string, parentReq Requirements, parentID string) (*Element, error) {
	sc.Emitf(status.ComponentGen, "Generating %s component", g.kind.Prefix)

	resp, err := g.adapter.Call(ctx, sc.Sink(), status.ComponentGen, g.Messages(elementReq, parentReq))
	if err != nil {
		sc.Emitf(status.Error, "Error generating %s: %s", g.kind.Prefix, errors.UserMessage(err))
		return nil, err
	}

	props, err := DecodeProps(resp.Text, g.schema)
	if err != nil {
		sc.Emitf(status.Error, "Error generating %s: %s", g.kind.Prefix, err)
		return nil, fmt.Errorf("%s: %w", g.kind.Prefix, err)
	}

	id := sc.IDs.ElementID()
	node := tree.NewElement(g.kind.Node, props, sc.IDs.DisplayName(g.kind.Prefix, false), parentID)

	sc.Emitf(status.ComponentGenerated, "%s component generated with ID: %s", g.kind.ElementType, id)
	return &Element{ID: id, Node: node}, nil
}

// Registry maps element type names to their generators. It is closed: the
// set of kinds is fixed at construction.
type Registry struct {
	gens  map[string]*Generator
	order []string
}

// NewRegistry builds generators for every supported kind.
func NewRegistry(adapter *llm.Adapter) (*Registry, error) {
	r := &Registry{gens: make(map[string]*Generator)}
	for _, k := range Kinds() {
		g, err := NewGenerator(k, adapter)
		if err != nil {
			return nil, err
		}
		r.gens[k.ElementType] = g
		r.order = append(r.order, k.ElementType)
	}
	return r, nil
}

// Lookup returns the generator for an element type. ok is false for kinds
// without a generator, such as "Icon".
func (r *Registry) Lookup(elementType string) (g *Generator, ok bool) {
	g, ok = r.gens[elementType]
	return g, ok
}

// Kinds returns the registered element types in a stable order.
func (r *Registry) Kinds() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
