// In file: internal/agent/build.go
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/dileep-u-k/weather-assistant/internal/llm"
	"github.com/dileep-u-k/weather-assistant/internal/tools"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	// PlaceholderAPIKey is the value shipped in .env.example.
	PlaceholderAPIKey = "your_key_goes_here"

	defaultTemperature = 0.3
	defaultMaxTokens   = 500
	probeTimeout       = 30 * time.Second
)

// ErrMissingCredentials is returned by Build when the selected provider has no usable key.
var ErrMissingCredentials = errors.New("LLM provider credentials are missing")

// Settings selects and configures the model behind the agent.
type Settings struct {
	Provider      string
	APIKey        string
	BaseURL       string
	Generation    llm.GenerationConfig
	MaxIterations int
	SystemPrompt  string
	// Probe makes Build send one tiny request before returning.
	Probe bool
}

// withDefaults fills the generation settings the assistant ships with.
func (s Settings) withDefaults() Settings {
	s.Provider = strings.ToLower(strings.TrimSpace(s.Provider))
	if s.Provider == "" {
		s.Provider = ProviderOpenAI
	}
	if s.Generation.Model == "" {
		if s.Provider == ProviderGemini {
			s.Generation.Model = llm.DefaultGeminiModel
		} else {
			s.Generation.Model = llm.DefaultOpenAIModel
		}
	}
	if s.Generation.Temperature == nil {
		s.Generation.Temperature = llm.Float32(defaultTemperature)
	}
	if s.Generation.MaxTokens <= 0 {
		s.Generation.MaxTokens = defaultMaxTokens
	}
	if s.MaxIterations <= 0 {
		s.MaxIterations = DefaultMaxIterations
	}
	return s
}

// UsableKey reports whether key is set and not the example placeholder.
func UsableKey(key string) bool {
	key = strings.TrimSpace(key)
	return key != "" && key != PlaceholderAPIKey
}

// Build constructs the agent once at startup. Any error means the caller
// should run without an agent.
func Build(ctx context.Context, s Settings, toolManager *tools.ToolManager) (*Agent, error) {
	s = s.withDefaults()
	if !UsableKey(s.APIKey) {
		return nil, fmt.Errorf("%w for provider %q", ErrMissingCredentials, s.Provider)
	}

	client, err := newClient(ctx, s)
	if err != nil {
		return nil, err
	}

	a, err := New(Config{
		Client:        client,
		Tools:         toolManager,
		Generation:    s.Generation,
		MaxIterations: s.MaxIterations,
		SystemPrompt:  s.SystemPrompt,
	})
	if err != nil {
		closeClient(client)
		return nil, err
	}

	if s.Probe {
		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		defer cancel()
		if err := a.Probe(probeCtx); err != nil {
			a.Close()
			return nil, err
		}
		log.Printf("🩺 Agent probe succeeded for %s/%s", s.Provider, s.Generation.Model)
	}
	return a, nil
}

func closeClient(client llm.LLMClient) {
	if closer, ok := client.(io.Closer); ok {
		closer.Close()
	}
}

func newClient(ctx context.Context, s Settings) (llm.LLMClient, error) {
	switch s.Provider {
	case ProviderOpenAI:
		return llm.NewOpenAIClient(s.APIKey, s.BaseURL)
	case ProviderGemini:
		return llm.NewGeminiClient(ctx, s.APIKey, s.Generation.Model)
	default:
		return nil, fmt.Errorf("unknown agent provider %q", s.Provider)
	}
}
