// In file: internal/agent/agent.go

// Package agent runs a bounded tool-calling loop: the model may call the
// registered tools a few times before it must produce a final answer.
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/dileep-u-k/weather-assistant/internal/llm"
	"github.com/dileep-u-k/weather-assistant/internal/tools"
)

const (
	DefaultMaxIterations = 2
	DefaultSystemPrompt  = "You are a weather assistant. When the user asks about the weather, " +
		"call the GetCurrentWeather tool with a bare city name and answer using its result. " +
		"If the user does not name a city, ask them for one."
)

var (
	// ErrIterationLimit means the model was still calling tools when the
	// iteration budget ran out.
	ErrIterationLimit = errors.New("agent stopped after reaching the iteration limit")
	// ErrNoTools is returned by New when the registry is empty.
	ErrNoTools = errors.New("agent requires at least one tool")
	// ErrEmptyAnswer means the model finished without any text.
	ErrEmptyAnswer = errors.New("agent produced an empty answer")
)

// Config holds everything needed to build an Agent.
type Config struct {
	Client        llm.LLMClient
	Tools         *tools.ToolManager
	Generation    llm.GenerationConfig
	MaxIterations int
	SystemPrompt  string
}

// Agent is immutable after New and safe for concurrent use.
type Agent struct {
	client        llm.LLMClient
	tools         *tools.ToolManager
	generation    llm.GenerationConfig
	maxIterations int
	systemPrompt  string
}

// New validates cfg and fills defaults.
func New(cfg Config) (*Agent, error) {
	if cfg.Client == nil {
		return nil, errors.New("agent requires an LLM client")
	}
	if cfg.Tools == nil || cfg.Tools.ToolCount() == 0 {
		return nil, ErrNoTools
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	return &Agent{
		client:        cfg.Client,
		tools:         cfg.Tools,
		generation:    cfg.Generation,
		maxIterations: cfg.MaxIterations,
		systemPrompt:  cfg.SystemPrompt,
	}, nil
}

// Run answers one utterance. Tool failures are reported to the model as tool
// output; if the run then fails, the returned error wraps the last tool
// error so callers can inspect it with errors.As.
func (a *Agent) Run(ctx context.Context, text string) (string, error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: a.systemPrompt},
		{Role: llm.RoleUser, Content: text},
	}
	definitions := a.tools.GetDefinitions()

	var usage llm.Usage
	var lastToolErr error
	for i := 0; i < a.maxIterations; i++ {
		result, err := a.client.Generate(ctx, messages, &a.generation, definitions)
		if err != nil {
			return "", joinToolErr(fmt.Errorf("LLM generation failed during tool loop: %w", err), lastToolErr)
		}
		usage.Add(result.Usage)

		if len(result.ToolCalls) == 0 {
			answer := strings.TrimSpace(result.Content)
			if answer == "" {
				return "", joinToolErr(ErrEmptyAnswer, lastToolErr)
			}
			log.Printf("🤖 Agent answered after %d iteration(s), %d tokens", i+1, usage.TotalTokens)
			return answer, nil
		}

		messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: result.Content, ToolCalls: result.ToolCalls})
		for _, call := range result.ToolCalls {
			output, err := a.execute(ctx, call)
			if err != nil {
				lastToolErr = err
			}
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				ToolCallID: call.ID,
				Name:       call.Function.Name,
				Content:    output,
			})
		}
	}
	return "", joinToolErr(ErrIterationLimit, lastToolErr)
}

// execute runs one tool call and always returns text for the model, even
// when the arguments were unusable or the tool does not exist.
func (a *Agent) execute(ctx context.Context, call *tools.ToolCall) (string, error) {
	log.Printf("🛠️ Executing tool: %s (ID: %s) with args: %s", call.Function.Name, call.ID, call.Function.Arguments)
	output, err := a.tools.Execute(ctx, call.Function.Name, call.Function.Arguments)
	switch {
	case err == nil:
		return output, nil
	case errors.Is(err, tools.ErrUnknownTool), errors.Is(err, tools.ErrInvalidArguments):
		// Parsing problems are the model's to fix on the next iteration.
		return fmt.Sprintf("Error: %v", err), nil
	case output == "":
		output = fmt.Sprintf("Error executing tool %s: %v", call.Function.Name, err)
	}
	log.Printf("⚠️ Tool %s failed: %v", call.Function.Name, err)
	return output, err
}

func joinToolErr(err, toolErr error) error {
	if toolErr == nil {
		return err
	}
	return fmt.Errorf("%w (last tool error: %w)", err, toolErr)
}

// Probe sends a tiny request to verify the provider is reachable with the
// configured credentials.
func (a *Agent) Probe(ctx context.Context) error {
	cfg := a.generation
	cfg.MaxTokens = 5
	_, err := a.client.Generate(ctx, []llm.Message{{Role: llm.RoleUser, Content: "ping"}}, &cfg, nil)
	if err != nil {
		return fmt.Errorf("agent probe failed: %w", err)
	}
	return nil
}

// Close releases the backend's connection when it holds one.
func (a *Agent) Close() error {
	if closer, ok := a.client.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
