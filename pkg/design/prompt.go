package design

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/matzehuels/layoutgen/pkg/errors"
	"github.com/matzehuels/layoutgen/pkg/llm"
)

//go:embed system.txt
var systemPrompt string

// SystemPrompt returns the layout designer's system prompt.
func SystemPrompt() string { return systemPrompt }

// PageContent is a page request: a description and optional reference
// images.
type PageContent struct {
	Prompt string   `json:"prompt" yaml:"prompt"`
	Images []string `json:"images,omitempty" yaml:"images,omitempty"`
}

// Validate checks that the prompt is present and every image URL is
// absolute.
func (c PageContent) Validate() error {
	if err := errors.ValidatePrompt(c.Prompt); err != nil {
		return err
	}
	return errors.ValidateImageURLs(c.Images)
}

// BuildPrompt renders the user prompt for content. Image URLs are listed in
// order and must all be used verbatim by the plan.
func BuildPrompt(content PageContent) string {
	var b strings.Builder
	b.WriteString("Design a complete page layout for the following content requirements:\n")
	b.WriteString(content.Prompt)
	b.WriteString(`

Take the following into account:
1. The page sits inside a root container with:
   - a white background
   - 20px padding
   - a maximum width of 1200px
   - even spacing between its children

2. Choose layout components that:
   - follow a logical visual hierarchy
   - keep spacing and alignment consistent
   - behave well on small and large screens
   - use the right layout type (Container, Flexbox or Section)
   - fit inside the root container
   - carry any given image URLs in their requirements
   - prefer centred designs ("justifyContent": "center") over "space-between"
   - use the same padding on all sides, for example 16px or 24px

3. For background images and image elements:
   - put the image URLs directly into the requirements
   - give them sensible dimensions and spacing
   - keep them responsive

4. Use Flexbox only when all of its elements are uniform in size:
   - never put more than 4 elements in a Flexbox
   - use Container or Section when elements differ in size or proportion
   - read the content carefully to decide whether elements are uniform
`)

	if len(content.Images) > 0 {
		b.WriteString("\n5. Image URLs to use (ALL of them MUST be included):\n")
		for i, u := range content.Images {
			fmt.Fprintf(&b, "  - Image %d: %s\n", i+1, u)
		}
		b.WriteString("\nMake sure ALL of these images appear in the layout and that their exact URLs are included in the element_requirements.")
	}
	return b.String()
}

// Messages builds the design conversation. Images are attached as image
// parts ahead of the prompt text.
func Messages(content PageContent) []llm.Message {
	parts := make([]llm.Part, 0, len(content.Images)+1)
	for _, u := range content.Images {
		parts = append(parts, llm.Image(u))
	}
	parts = append(parts, llm.Text(BuildPrompt(content)))
	return []llm.Message{
		llm.System(systemPrompt),
		llm.User(parts...),
	}
}
