// Package layout turns layout specifications into subtrees of a page.
//
// A [Spec] names a layout kind (Container, Flexbox or Section), free-text
// requirements for it, and the ordered elements it should hold. The
// [Generator] first generates every element through the component registry,
// then asks the model for the layout's own props, and finally wraps the
// element ids in a canvas node owned by the page root.
//
// [Generator.Process] does this for a whole page: specs are ordered by their
// index and processed one after another. The first failure aborts the run and
// no partial result is returned.
package layout

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/layoutgen/pkg/component"
	"github.com/matzehuels/layoutgen/pkg/errors"
	"github.com/matzehuels/layoutgen/pkg/llm"
	"github.com/matzehuels/layoutgen/pkg/observability"
	"github.com/matzehuels/layoutgen/pkg/scope"
	"github.com/matzehuels/layoutgen/pkg/status"
	"github.com/matzehuels/layoutgen/pkg/tree"
)

//go:embed prompt.txt
var prompt string

// Prompt returns the system prompt used for layout props.
func Prompt() string { return prompt }

// ElementSpec is one element request inside a layout.
type ElementSpec struct {
	ElementType         string `json:"element_type" yaml:"element_type"`
	ElementRequirements string `json:"element_requirements" yaml:"element_requirements"`
}

// Spec is one layout as planned by the layout designer.
type Spec struct {
	Index              int           `json:"index" yaml:"index"`
	LayoutType         string        `json:"layout_type" yaml:"layout_type"`
	LayoutRequirements string        `json:"layout_requirements" yaml:"layout_requirements"`
	BasicElements      []ElementSpec `json:"basic_elements" yaml:"basic_elements"`
}

// UnmarshalJSON decodes a Spec. The index may be written as an integral
// float such as 1.0.
func (s *Spec) UnmarshalJSON(data []byte) error {
	type plain Spec
	aux := struct {
		*plain
		Index json.Number `json:"index"`
	}{plain: (*plain)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	s.Index = 0
	if aux.Index == "" {
		return nil
	}
	f, err := aux.Index.Float64()
	if err != nil {
		return fmt.Errorf("index %s: %w", aux.Index, err)
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return fmt.Errorf("index %s is not a whole number", aux.Index)
	}
	s.Index = int(f)
	return nil
}

// Subtree is the output of one layout: the layout node and its elements.
type Subtree struct {
	// ID is the id of the layout node in Definition.
	ID         string
	Definition tree.Definition
}

// Generator builds layouts. It holds no per-request state and is safe for
// concurrent use.
type Generator struct {
	registry    *component.Registry
	adapter     *llm.Adapter
	schema      *jsonschema.Schema
	concurrency int
}

// Option configures a Generator.
type Option func(*Generator)

// ElementConcurrency sets how many elements of a single layout may be
// generated at once. The default of 1 generates them strictly in order.
// Layouts themselves are always processed one at a time.
func ElementConcurrency(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.concurrency = n
		}
	}
}

// NewGenerator returns a layout generator using registry for elements and
// adapter for layout props.
func NewGenerator(registry *component.Registry, adapter *llm.Adapter, opts ...Option) (*Generator, error) {
	schema, err := component.CompileSchema("layout-props", component.PropsSchema())
	if err != nil {
		return nil, err
	}
	g := &Generator{registry: registry, adapter: adapter, schema: schema, concurrency: 1}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Concurrency returns the per-layout element concurrency.
func (g *Generator) Concurrency() int { return g.concurrency }

// ProcessSingle generates one layout and its elements.
//
// Elements receive the layout's requirements text as their parent
// requirements; the layout itself receives parentReq. Element kinds without a
// generator are skipped. An unknown layout kind fails before any model call.
func (g *Generator) ProcessSingle(ctx context.Context, sc *scope.Scope, spec Spec, parentReq component.Requirements) (sub *Subtree, err error) {
	sc.Emit(status.LayoutProcessing, "Starting to process single layout")

	kind := tree.Kind(spec.LayoutType)
	if !kind.IsLayout() {
		err := errors.New(errors.ErrCodeInvalidInput, "unsupported layout type %q", spec.LayoutType)
		sc.Emitf(status.Error, "Error processing layout: %s", errors.UserMessage(err))
		return nil, err
	}

	hooks := observability.Generation()
	hooks.OnLayoutStart(ctx, spec.LayoutType, len(spec.BasicElements))
	start := time.Now()
	defer func() {
		hooks.OnLayoutComplete(ctx, spec.LayoutType, time.Since(start), err)
		if err != nil {
			sc.Emitf(status.Error, "Error processing layout: %s", errors.UserMessage(err))
		}
	}()

	id := sc.IDs.LayoutID()
	sc.Emitf(status.LayoutProcessing, "Processing layout type: %s with ID: %s", spec.LayoutType, id)
	sc.Emitf(status.LayoutProcessing, "Number of basic elements to process: %d", len(spec.BasicElements))

	elements, err := g.processElements(ctx, sc, spec.BasicElements, spec.LayoutRequirements, id)
	if err != nil {
		return nil, err
	}

	def := make(tree.Definition, len(elements)+1)
	childIDs := make([]string, 0, len(elements))
	for _, el := range elements {
		childIDs = append(childIDs, el.ID)
		def[el.ID] = el.Node
	}
	sc.Emitf(status.LayoutProcessing, "Processed %d child components", len(childIDs))

	props, err := g.layoutProps(ctx, sc, spec, parentReq)
	if err != nil {
		return nil, err
	}

	def[id] = tree.NewLayout(kind, props, sc.IDs.DisplayName(spec.LayoutType, true), childIDs)
	sc.Emitf(status.LayoutProcessing, "Layout %s processing completed with %d child components", id, len(childIDs))
	return &Subtree{ID: id, Definition: def}, nil
}

// processElements generates the elements of one layout and returns them in
// spec order, leaving out skipped kinds.
func (g *Generator) processElements(ctx context.Context, sc *scope.Scope, specs []ElementSpec, layoutReq, layoutID string) ([]*component.Element, error) {
	sc.Emitf(status.LayoutProcessing, "Processing %d basic elements", len(specs))
	parentReq := component.TextRequirements(layoutReq)

	results := make([]*component.Element, len(specs))
	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)

	for i, spec := range specs {
		sc.Emitf(status.LayoutProcessing, "Processing element %d of %d, type: %s", i+1, len(specs), spec.ElementType)

		gen, ok := g.registry.Lookup(spec.ElementType)
		if !ok {
			sc.Emitf(status.LayoutProcessing, "Unsupported element type: %s, skipping", spec.ElementType)
			observability.Generation().OnElementSkipped(ctx, spec.ElementType)
			continue
		}

		if g.concurrency == 1 {
			el, err := gen.GenerateElement(ctx, sc, spec.ElementRequirements, parentReq, layoutID)
			if err != nil {
				return nil, err
			}
			results[i] = el
			continue
		}

		eg.Go(func() error {
			el, err := gen.GenerateElement(egctx, sc, spec.ElementRequirements, parentReq, layoutID)
			if err != nil {
				return err
			}
			results[i] = el
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := make([]*component.Element, 0, len(results))
	for _, el := range results {
		if el != nil {
			out = append(out, el)
		}
	}
	sc.Emitf(status.LayoutProcessing, "Completed processing %d basic elements", len(out))
	return out, nil
}

// Messages builds the model conversation for a layout's props.
func Messages(spec Spec, parentReq component.Requirements) []llm.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate layout properties for %s with the following context:\n\n", spec.LayoutType)
	b.WriteString("Layout Requirements:\n")
	b.WriteString(spec.LayoutRequirements)
	b.WriteString("\n\nParent Component Requirements:\n")
	b.WriteString(parentReq.String())
	b.WriteString("\n\nMake the layout fit its parent component while meeting its own requirements.")

	return []llm.Message{
		llm.System(prompt),
		llm.User(llm.Text(b.String())),
	}
}

func (g *Generator) layoutProps(ctx context.Context, sc *scope.Scope, spec Spec, parentReq component.Requirements) (tree.Props, error) {
	sc.Emitf(status.LayoutProcessing, "Generating layout definition for type: %s", spec.LayoutType)

	resp, err := g.adapter.Call(ctx, sc.Sink(), status.LayoutProcessing, Messages(spec, parentReq))
	if err != nil {
		return nil, err
	}
	props, err := component.DecodeProps(resp.Text, g.schema)
	if err != nil {
		return nil, fmt.Errorf("%s layout: %w", strings.ToLower(spec.LayoutType), err)
	}

	sc.Emitf(status.LayoutProcessing, "Layout definition generated for type: %s", spec.LayoutType)
	return props, nil
}
