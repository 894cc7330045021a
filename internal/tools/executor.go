// In file: internal/tools/executor.go
package tools

import "context"

// ToolExecutor is implemented by every tool the agent can call.
type ToolExecutor interface {
	// Definition returns the schema advertised to the model.
	Definition() Tool

	// Execute runs the tool with the model-supplied JSON arguments.
	// A tool may return both text and an error: the text is still fed back
	// to the model, the error is kept for the caller to classify.
	Execute(ctx context.Context, arguments string) (string, error)
}
