// In file: internal/llm/client.go

// Package llm adapts chat-completion providers with tool calling to one
// LLMClient interface.
package llm

import (
	"context"
	"errors"

	"github.com/dileep-u-k/weather-assistant/internal/tools"
)

// =================================================================================
// Core Data Structures
// =================================================================================

// Role represents the originator of a message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ErrBadRequest wraps provider errors for requests the provider rejected as
// malformed (HTTP 400 / INVALID_ARGUMENT).
var ErrBadRequest = errors.New("llm provider rejected the request")

// Message is one entry of the conversation sent to a model.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	// ToolCallID and Name identify the call a RoleTool message answers.
	ToolCallID string            `json:"tool_call_id,omitempty"`
	Name       string            `json:"name,omitempty"`
	ToolCalls  []*tools.ToolCall `json:"tool_calls,omitempty"`
}

// GenerationConfig controls a single generation.
type GenerationConfig struct {
	Model string `yaml:"model"`
	// A pointer distinguishes "unset" from an explicit 0.0.
	Temperature *float32 `yaml:"temperature"`
	MaxTokens   int      `yaml:"max_tokens"`
}

// Usage holds token accounting reported by the provider.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates another call's usage.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// GenerationResult is the complete output of one model call.
type GenerationResult struct {
	Content   string
	ToolCalls []*tools.ToolCall
	Usage     Usage
}

// =================================================================================
// LLM Client Interface
// =================================================================================

// LLMClient is implemented by every model backend. Implementations must be
// safe for concurrent use.
type LLMClient interface {
	// Generate performs one blocking request with the full conversation and
	// the tools the model may call.
	Generate(
		ctx context.Context,
		messages []Message,
		config *GenerationConfig,
		availableTools []tools.Tool,
	) (*GenerationResult, error)
}

// Float32 returns a pointer to v, for GenerationConfig.Temperature.
func Float32(v float32) *float32 { return &v }
