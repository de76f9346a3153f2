// Package tree defines the flat node map that describes a generated page.
//
// A page is a [Definition]: a map from node id to [Node]. The map is flat;
// hierarchy is expressed by each node's Parent field and its ordered Nodes
// list of child ids. The shape matches what a craft.js editor deserializes,
// so a Definition can be marshaled to JSON and loaded directly.
//
// # Structure
//
// Every page has exactly one root ([RootID]) whose children are the page's
// layout containers in page order. Each layout container holds leaf elements
// (headings, paragraphs, buttons, ...). Leaves never have children.
//
// # Identity
//
// Node ids are short random hex strings handed out by an [Allocator]. One
// allocator serves a whole generation run and never issues the same id twice.
package tree

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// RootID is the fixed id of the page root.
const RootID = "ROOT"

// Kind identifies the editor component a node renders as. It is serialized as
// {"resolvedName": kind} under the node's "type" key.
type Kind string

// Layout kinds. Layout nodes are canvases and hold elements.
const (
	KindContainer Kind = "Container"
	KindFlexbox   Kind = "Flexbox"
	KindSection   Kind = "Section"
)

// Element kinds. Element nodes are leaves.
const (
	KindHeading    Kind = "Heading"
	KindParagraph  Kind = "Paragraph"
	KindText       Kind = "Text"
	KindUserButton Kind = "UserButton"
	KindImage      Kind = "Image"
	KindDivider    Kind = "Divider"
)

// LayoutKinds lists the layout kinds in declaration order.
var LayoutKinds = []Kind{KindContainer, KindFlexbox, KindSection}

// IsLayout reports whether k is a layout kind.
func (k Kind) IsLayout() bool {
	switch k {
	case KindContainer, KindFlexbox, KindSection:
		return true
	}
	return false
}

// IsElement reports whether k is an element kind.
func (k Kind) IsElement() bool {
	switch k {
	case KindHeading, KindParagraph, KindText, KindUserButton, KindImage, KindDivider:
		return true
	}
	return false
}

// Type is the wire form of a node kind.
type Type struct {
	ResolvedName Kind `json:"resolvedName" yaml:"resolvedName"`
}

// Props holds the style and content properties of a node. Values come from
// the model and are passed through untouched.
type Props map[string]any

// Node is one entry of a [Definition].
type Node struct {
	Type        Type           `json:"type" yaml:"type"`
	IsCanvas    bool           `json:"isCanvas" yaml:"isCanvas"`
	Props       Props          `json:"props" yaml:"props"`
	DisplayName string         `json:"displayName" yaml:"displayName"`
	Custom      map[string]any `json:"custom" yaml:"custom"`
	Parent      string         `json:"parent,omitempty" yaml:"parent,omitempty"`
	Hidden      bool           `json:"hidden" yaml:"hidden"`
	Nodes       []string       `json:"nodes" yaml:"nodes"`
	LinkedNodes map[string]any `json:"linkedNodes" yaml:"linkedNodes"`
}

// Kind returns the node's kind.
func (n *Node) Kind() Kind { return n.Type.ResolvedName }

// NewElement returns a leaf node of kind k owned by parent.
func NewElement(k Kind, props Props, displayName, parent string) *Node {
	return newNode(k, false, props, displayName, parent, nil)
}

// NewLayout returns a canvas node of kind k placed under the root with the
// given ordered children.
func NewLayout(k Kind, props Props, displayName string, children []string) *Node {
	return newNode(k, true, props, displayName, RootID, children)
}

func newNode(k Kind, canvas bool, props Props, displayName, parent string, children []string) *Node {
	if props == nil {
		props = Props{}
	}
	nodes := make([]string, len(children))
	copy(nodes, children)
	return &Node{
		Type:        Type{ResolvedName: k},
		IsCanvas:    canvas,
		Props:       props,
		DisplayName: displayName,
		Custom:      map[string]any{},
		Parent:      parent,
		Hidden:      false,
		Nodes:       nodes,
		LinkedNodes: map[string]any{},
	}
}

// UnmarshalJSON fills in empty collections so that decoded nodes look the
// same as freshly built ones.
func (n *Node) UnmarshalJSON(data []byte) error {
	type plain Node
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*n = Node(p)
	n.normalize()
	return nil
}

// UnmarshalYAML is the YAML counterpart of UnmarshalJSON.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	type plain Node
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*n = Node(p)
	n.normalize()
	return nil
}

func (n *Node) normalize() {
	if n.Props == nil {
		n.Props = Props{}
	}
	if n.Custom == nil {
		n.Custom = map[string]any{}
	}
	if n.Nodes == nil {
		n.Nodes = []string{}
	}
	if n.LinkedNodes == nil {
		n.LinkedNodes = map[string]any{}
	}
}
