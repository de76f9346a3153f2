package layout

import (
	"cmp"
	"context"
	"slices"

	"github.com/matzehuels/layoutgen/pkg/component"
	"github.com/matzehuels/layoutgen/pkg/scope"
	"github.com/matzehuels/layoutgen/pkg/status"
	"github.com/matzehuels/layoutgen/pkg/tree"
)

// Result is the output of a whole page.
type Result struct {
	// Definition holds every layout and element node.
	Definition tree.Definition

	// LayoutIDs lists the layout node ids in page order.
	LayoutIDs []string
}

// Sorted returns a copy of specs ordered by Index. Specs with equal indices
// keep their input order.
func Sorted(specs []Spec) []Spec {
	out := slices.Clone(specs)
	slices.SortStableFunc(out, func(a, b Spec) int { return cmp.Compare(a.Index, b.Index) })
	return out
}

// Process generates every layout of a page in index order. Each layout
// receives parentReq as its parent requirements. The first failing layout
// aborts the run; specs is never modified.
func (g *Generator) Process(ctx context.Context, sc *scope.Scope, specs []Spec, parentReq component.Requirements) (*Result, error) {
	sc.Emitf(status.LayoutProcessing, "Starting to process %d layouts", len(specs))

	sorted := Sorted(specs)
	sc.Emit(status.LayoutProcessing, "Layouts sorted by index")

	res := &Result{Definition: tree.Definition{}, LayoutIDs: make([]string, 0, len(sorted))}
	for i, spec := range sorted {
		sc.Emitf(status.LayoutProcessing, "Processing layout %d of %d", i+1, len(sorted))

		sub, err := g.ProcessSingle(ctx, sc, spec, parentReq)
		if err != nil {
			return nil, err
		}
		if err := res.Definition.Merge(sub.Definition); err != nil {
			return nil, err
		}
		res.LayoutIDs = append(res.LayoutIDs, sub.ID)
		sc.Emitf(status.LayoutProcessing, "Layout %d processed and added to combined definition", i+1)
	}

	sc.Emit(status.LayoutProcessing, "All layouts processed successfully")
	return res, nil
}
