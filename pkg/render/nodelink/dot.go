package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/layoutgen/pkg/tree"
)

// Options configures diagram generation.
type Options struct {
	// Detailed adds every prop to the node labels. When false, labels show
	// only the display name and kind.
	Detailed bool
}

// maxPropLen truncates long prop values in detailed labels.
const maxPropLen = 40

// ToDOT converts a definition to Graphviz DOT source.
//
// Nodes are emitted in id order and edges in each parent's child order, so
// the output is stable for a given definition.
func ToDOT(def tree.Definition, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  ordering=out;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	ids := def.IDs()
	for _, id := range ids {
		n := def[id]
		attrs := fmtAttrs(id, n, fmtLabel(n, opts.Detailed))
		fmt.Fprintf(&buf, "  %q [%s];\n", id, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, id := range ids {
		for _, child := range def[id].Nodes {
			fmt.Fprintf(&buf, "  %q -> %q;\n", id, child)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n *tree.Node, detailed bool) string {
	label := fmt.Sprintf("%s\n<%s>", n.DisplayName, n.Kind())
	if !detailed || len(n.Props) == 0 {
		return label
	}

	parts := make([]string, 0, len(n.Props))
	for _, k := range slices.Sorted(maps.Keys(n.Props)) {
		v := fmt.Sprint(n.Props[k])
		if len(v) > maxPropLen {
			v = v[:maxPropLen-3] + "..."
		}
		parts = append(parts, fmt.Sprintf("%s: %s", k, v))
	}
	return label + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(id string, n *tree.Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch {
	case id == tree.RootID:
		attrs = append(attrs, "fillcolor=\"#dbe4ff\"", "penwidth=2")
	case n.IsCanvas:
		attrs = append(attrs, "fillcolor=\"#edf2ff\"")
	}
	if n.Hidden {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"")
	}
	return attrs
}

// RenderSVG renders DOT source to SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root svg element so the drawing scales from
// its viewBox.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
