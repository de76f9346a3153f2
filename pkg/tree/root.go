package tree

// Root container defaults.
const (
	rootBackground     = "#ffffff"
	rootPadding        = 0
	rootMargin         = 0
	rootBorderRadius   = 4
	rootElevation      = 0
	rootDisplay        = "block"
	rootJustifyContent = "flex-start"
	rootAlignItems     = "flex-start"
	rootDataCy         = "root-container"
	rootDisplayName    = "root"
)

// NewRoot builds the page root with children as its ordered layout ids.
// Each call returns an independent value.
func NewRoot(children []string) *Node {
	props := Props{
		"background":     rootBackground,
		"padding":        rootPadding,
		"margin":         rootMargin,
		"borderRadius":   rootBorderRadius,
		"elevation":      rootElevation,
		"display":        rootDisplay,
		"justifyContent": rootJustifyContent,
		"alignItems":     rootAlignItems,
		"data-cy":        rootDataCy,
	}
	return newNode(KindContainer, true, props, rootDisplayName, "", children)
}

// Constraints are the hard limits the root container places on its content.
type Constraints struct {
	MaxWidth   string `json:"max_width"`
	Background string `json:"background"`
	Padding    string `json:"padding"`
	Margin     string `json:"margin"`
}

// DesignRequirements describe a container to the layouts placed inside it.
// They are handed to the model verbatim as JSON.
type DesignRequirements struct {
	Purpose         string      `json:"purpose"`
	Constraints     Constraints `json:"constraints"`
	Accessibility   string      `json:"accessibility"`
	VisualHierarchy string      `json:"visual_hierarchy"`
}

// RootRequirements returns the design requirements of the page root.
func RootRequirements() DesignRequirements {
	return DesignRequirements{
		Purpose: "Main container for the entire page layout",
		Constraints: Constraints{
			MaxWidth:   "1200px",
			Background: "white",
			Padding:    "0px",
			Margin:     "auto",
		},
		Accessibility:   "Should be responsive and contain all page content",
		VisualHierarchy: "Should maintain proper spacing between child elements",
	}
}
