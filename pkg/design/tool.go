package design

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"strings"

	"github.com/matzehuels/layoutgen/pkg/component"
	"github.com/matzehuels/layoutgen/pkg/errors"
	"github.com/matzehuels/layoutgen/pkg/layout"
	"github.com/matzehuels/layoutgen/pkg/llm"
)

// ToolName is the name of the layout planning tool offered to the model.
const ToolName = "layout_designer"

var (
	//go:embed tool.txt
	toolDescription string
	//go:embed schema.json
	toolSchema []byte
	//go:embed args.schema.json
	argsSchemaDoc string
)

// argsSchema checks the structure of tool arguments. Element types are left
// open so unknown kinds reach the layout generator's skip path.
var argsSchema = component.MustCompileSchema("layout-designer-args", argsSchemaDoc)

// Tool returns the layout_designer tool definition.
func Tool() llm.Tool {
	return llm.Tool{
		Name:        ToolName,
		Description: strings.TrimSpace(toolDescription),
		InputSchema: json.RawMessage(toolSchema),
	}
}

// Schema returns the tool's input JSON Schema.
func Schema() []byte {
	out := make([]byte, len(toolSchema))
	copy(out, toolSchema)
	return out
}

// Plan is the decoded argument of a layout_designer call.
type Plan struct {
	PageContent string        `json:"page_content" yaml:"page_content"`
	Layouts     []layout.Spec `json:"layouts" yaml:"layouts"`
}

// ExtractLayouts returns the plan from the model's layout_designer call.
// A response without that call is a NO_TOOL_CALL error; arguments that do not
// decode, or that hold no layouts, are MALFORMED_RESPONSE errors.
func ExtractLayouts(resp *llm.Response) (*Plan, json.RawMessage, error) {
	if resp == nil || len(resp.ToolCalls) == 0 {
		return nil, nil, errors.New(errors.ErrCodeNoToolCall, "No tool calls found in response")
	}
	call, ok := resp.ToolCall(ToolName)
	if !ok {
		return nil, nil, errors.New(errors.ErrCodeNoToolCall, "Layout designer tool not called")
	}

	var doc any
	dec := json.NewDecoder(bytes.NewReader(call.Arguments))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeMalformedResponse, err, "tool arguments are not valid JSON")
	}
	if err := argsSchema.Validate(doc); err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeMalformedResponse, err, "tool arguments do not match the layout_designer schema")
	}

	var plan Plan
	if err := json.Unmarshal(call.Arguments, &plan); err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeMalformedResponse, err, "decode tool arguments")
	}
	if len(plan.Layouts) == 0 {
		return nil, nil, errors.New(errors.ErrCodeMalformedResponse, "No layouts found in tool arguments")
	}
	return &plan, call.Arguments, nil
}
