package tree

import (
	"fmt"
	"sort"

	"github.com/matzehuels/layoutgen/pkg/errors"
)

// Definition is the flat node map of a page, keyed by node id.
type Definition map[string]*Node

// Merge copies every entry of src into d. A key present in both maps is an
// error and leaves d partially updated; callers discard d on error.
func (d Definition) Merge(src Definition) error {
	for id, n := range src {
		if _, ok := d[id]; ok {
			return errors.New(errors.ErrCodeInvalidTree, "duplicate node id %q", id)
		}
		d[id] = n
	}
	return nil
}

// IDs returns the node ids in sorted order.
func (d Definition) IDs() []string {
	ids := make([]string, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Root returns the root node, or nil if the definition has none.
func (d Definition) Root() *Node { return d[RootID] }

// Children returns the child nodes of id in order. Missing children are
// skipped.
func (d Definition) Children(id string) []*Node {
	n, ok := d[id]
	if !ok {
		return nil
	}
	out := make([]*Node, 0, len(n.Nodes))
	for _, c := range n.Nodes {
		if child, ok := d[c]; ok {
			out = append(out, child)
		}
	}
	return out
}

// Stats returns the number of nodes per kind.
func (d Definition) Stats() map[Kind]int {
	out := make(map[Kind]int)
	for _, n := range d {
		out[n.Kind()]++
	}
	return out
}

// Validate checks the structural invariants of a complete page:
//   - the root exists, is a canvas and has no parent
//   - every child id listed in nodes resolves to an entry
//   - every non-root node's parent exists and lists it exactly once
//   - layout kinds are canvases and element kinds are leaves
//   - every node other than the root is reachable from the root
func (d Definition) Validate() error {
	root, ok := d[RootID]
	if !ok {
		return errors.New(errors.ErrCodeInvalidTree, "missing %s node", RootID)
	}
	if !root.IsCanvas {
		return errors.New(errors.ErrCodeInvalidTree, "%s must be a canvas", RootID)
	}
	if root.Parent != "" {
		return errors.New(errors.ErrCodeInvalidTree, "%s must not have a parent", RootID)
	}

	for _, id := range d.IDs() {
		n := d[id]
		if n == nil {
			return errors.New(errors.ErrCodeInvalidTree, "node %q is nil", id)
		}
		seen := make(map[string]bool, len(n.Nodes))
		for _, c := range n.Nodes {
			child, ok := d[c]
			if !ok {
				return errors.New(errors.ErrCodeInvalidTree, "node %q lists unknown child %q", id, c)
			}
			if seen[c] {
				return errors.New(errors.ErrCodeInvalidTree, "node %q lists child %q twice", id, c)
			}
			seen[c] = true
			if child.Parent != id {
				return errors.New(errors.ErrCodeInvalidTree, "node %q listed under %q but its parent is %q", c, id, child.Parent)
			}
		}
		if id == RootID {
			continue
		}
		if err := checkKind(id, n); err != nil {
			return err
		}
		parent, ok := d[n.Parent]
		if !ok {
			return errors.New(errors.ErrCodeInvalidTree, "node %q has unknown parent %q", id, n.Parent)
		}
		if !contains(parent.Nodes, id) {
			return errors.New(errors.ErrCodeInvalidTree, "node %q is not listed by its parent %q", id, n.Parent)
		}
	}

	if reached := d.reachable(); reached != len(d) {
		return errors.New(errors.ErrCodeInvalidTree, "%d of %d nodes unreachable from %s", len(d)-reached, len(d), RootID)
	}
	return nil
}

func checkKind(id string, n *Node) error {
	k := n.Kind()
	switch {
	case k.IsLayout():
		if !n.IsCanvas {
			return errors.New(errors.ErrCodeInvalidTree, "layout %q (%s) must be a canvas", id, k)
		}
	case k.IsElement():
		if n.IsCanvas {
			return errors.New(errors.ErrCodeInvalidTree, "element %q (%s) must not be a canvas", id, k)
		}
		if len(n.Nodes) > 0 {
			return errors.New(errors.ErrCodeInvalidTree, "element %q (%s) must not have children", id, k)
		}
	default:
		return errors.New(errors.ErrCodeInvalidTree, "node %q has unknown kind %q", id, k)
	}
	return nil
}

func (d Definition) reachable() int {
	visited := map[string]bool{}
	stack := []string{RootID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		if n, ok := d[id]; ok {
			stack = append(stack, n.Nodes...)
		}
	}
	return len(visited)
}

func contains(ids []string, id string) bool {
	for _, s := range ids {
		if s == id {
			return true
		}
	}
	return false
}

// String returns a short summary such as "7 nodes (2 layouts)".
func (d Definition) String() string {
	layouts := 0
	for id, n := range d {
		if id != RootID && n.Kind().IsLayout() {
			layouts++
		}
	}
	return fmt.Sprintf("%d nodes (%d layouts)", len(d), layouts)
}
