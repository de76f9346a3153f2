package component

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/matzehuels/layoutgen/pkg/tree"
)

// Kind describes one element kind: how the model is prompted for it and how
// its node is tagged.
type Kind struct {
	// ElementType is the name the layout designer uses ("Button").
	ElementType string

	// Node is the editor component the node resolves to ("UserButton").
	Node tree.Kind

	// Prefix is the lower-case display name prefix ("button").
	Prefix string

	// Required lists the props the editor component cannot render without.
	Required []string

	// Prompt is the system prompt for this kind.
	Prompt string
}

var (
	//go:embed prompts/heading.txt
	headingPrompt string
	//go:embed prompts/paragraph.txt
	paragraphPrompt string
	//go:embed prompts/text.txt
	textPrompt string
	//go:embed prompts/button.txt
	buttonPrompt string
	//go:embed prompts/divider.txt
	dividerPrompt string
	//go:embed prompts/image.txt
	imagePrompt string
)

// Default image dimensions.
const (
	DefaultImageWidth  = 320
	DefaultImageHeight = 240
)

// PlaceholderURL returns the editor's placeholder image path for the given
// size. Non-positive dimensions fall back to the defaults.
func PlaceholderURL(width, height int) string {
	if width <= 0 {
		width = DefaultImageWidth
	}
	if height <= 0 {
		height = DefaultImageHeight
	}
	return fmt.Sprintf("/api/placeholder/%d/%d", width, height)
}

// Kinds returns the six supported element kinds in a stable order.
func Kinds() []Kind {
	return []Kind{
		{ElementType: "Heading", Node: tree.KindHeading, Prefix: "heading", Required: []string{"text"}, Prompt: headingPrompt},
		{ElementType: "Paragraph", Node: tree.KindParagraph, Prefix: "paragraph", Required: []string{"text"}, Prompt: paragraphPrompt},
		{ElementType: "Text", Node: tree.KindText, Prefix: "text", Required: []string{"text"}, Prompt: textPrompt},
		{ElementType: "Button", Node: tree.KindUserButton, Prefix: "button", Required: []string{"text"}, Prompt: buttonPrompt},
		{ElementType: "Divider", Node: tree.KindDivider, Prefix: "divider", Prompt: dividerPrompt},
		{ElementType: "Image", Node: tree.KindImage, Prefix: "image", Required: []string{"src"},
			Prompt: strings.ReplaceAll(imagePrompt, "{{placeholder}}", PlaceholderURL(0, 0))},
	}
}

// ElementTypes returns the layout designer names of the supported kinds.
func ElementTypes() []string {
	kinds := Kinds()
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = k.ElementType
	}
	return out
}
