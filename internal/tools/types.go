// In file: internal/tools/types.go

// Package tools defines provider-agnostic function-calling types and the
// registry the agent uses to execute them. Each LLM backend translates these
// into its own wire format.
package tools

// ToolTypeFunction is the only tool type the backends understand.
const ToolTypeFunction = "function"

// Tool is the definition sent *to* the model.
type Tool struct {
	Type     string   `json:"type"`
	Function Function `json:"function"`
}

// Function names and describes a callable tool. The description is what the
// model reads when deciding whether to call it.
type Function struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  JSONSchema `json:"parameters"`
}

// JSONSchema is the small subset of JSON Schema used for tool parameters.
type JSONSchema struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description,omitempty"`
	Properties  map[string]*JSONSchema `json:"properties,omitempty"`
	Required    []string               `json:"required,omitempty"`
}

// ToolCall is a request *from* the model to run a tool.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction carries the tool name and its JSON-encoded arguments.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// NewFunctionTool builds a function Tool.
func NewFunctionTool(name, description string, parameters JSONSchema) Tool {
	return Tool{
		Type: ToolTypeFunction,
		Function: Function{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
	}
}
