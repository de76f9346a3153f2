// Package nodelink renders page definitions as node-link diagrams.
//
// # Overview
//
// Each node of the definition becomes a box labelled with its display name
// and kind; each parent-child link becomes an arrow. Children appear left to
// right in page order. Canvas nodes (the root and layouts) are shaded so the
// container structure stands out.
//
// # Usage
//
//	dot := nodelink.ToDOT(def, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Options
//
//   - Detailed: include every prop in the node labels
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering; no Graphviz installation is needed.
package nodelink
