package component

import (
	"encoding/json"
	"fmt"
)

// Requirements describe the parent a component is generated into. They are
// either free text (a layout's requirements) or a structured value (the
// root's design requirements), and are rendered into the prompt verbatim.
type Requirements struct {
	text       string
	structured any
}

// TextRequirements wraps free-text requirements.
func TextRequirements(s string) Requirements { return Requirements{text: s} }

// StructuredRequirements wraps a value rendered as indented JSON.
func StructuredRequirements(v any) Requirements { return Requirements{structured: v} }

// IsStructured reports whether r holds a structured value.
func (r Requirements) IsStructured() bool { return r.structured != nil }

// String renders r for a prompt: text verbatim, structured values as JSON
// indented by two spaces.
func (r Requirements) String() string {
	if r.structured == nil {
		return r.text
	}
	data, err := json.MarshalIndent(r.structured, "", "  ")
	if err != nil {
		return fmt.Sprint(r.structured)
	}
	return string(data)
}
