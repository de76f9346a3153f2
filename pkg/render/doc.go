// Package render draws generated page definitions for inspection.
//
// The [nodelink] subpackage turns a definition into a Graphviz diagram of
// the page tree, root at the top and elements at the bottom.
//
//	dot := nodelink.ToDOT(def, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [nodelink]: github.com/matzehuels/layoutgen/pkg/render/nodelink
package render
