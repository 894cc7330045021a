// In file: internal/llm/constants.go
package llm

import "time"

// Shared defaults for the model backends.
const (
	defaultTimeout       = 60 * time.Second
	defaultMaxTokens     = 500
	DefaultOpenAIModel   = "gpt-3.5-turbo"
	DefaultGeminiModel   = "gemini-1.5-flash"
	DefaultOpenRouterURL = "https://openrouter.ai/api/v1"
)
