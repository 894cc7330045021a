// In file: internal/llm/openai_client.go
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/dileep-u-k/weather-assistant/internal/tools"
)

// OpenAIClient talks to any OpenAI-compatible chat completions API:
// OpenAI itself, OpenRouter, or a local gateway.
type OpenAIClient struct {
	client *openai.Client
}

// Statically verify that OpenAIClient implements the LLMClient interface.
var _ LLMClient = (*OpenAIClient)(nil)

// NewOpenAIClient creates a client for apiKey. An empty baseURL means the
// public OpenAI endpoint.
func NewOpenAIClient(apiKey, baseURL string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI-compatible API key cannot be empty")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: defaultTimeout}
	return &OpenAIClient{client: openai.NewClientWithConfig(cfg)}, nil
}

// Generate performs a standard, blocking chat completion.
func (c *OpenAIClient) Generate(
	ctx context.Context,
	messages []Message,
	config *GenerationConfig,
	availableTools []tools.Tool,
) (*GenerationResult, error) {
	req := buildOpenAIRequest(messages, config, availableTools)

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("no choices returned from chat completions API")
	}

	msg := resp.Choices[0].Message
	result := &GenerationResult{
		Content: msg.Content,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	for _, tc := range msg.ToolCalls {
		result.ToolCalls = append(result.ToolCalls, &tools.ToolCall{
			ID:   tc.ID,
			Type: tools.ToolTypeFunction,
			Function: tools.ToolCallFunction{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}
	return result, nil
}

func buildOpenAIRequest(messages []Message, config *GenerationConfig, availableTools []tools.Tool) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model:     DefaultOpenAIModel,
		Messages:  toOpenAIMessages(messages),
		MaxTokens: defaultMaxTokens,
	}
	if config != nil {
		if config.Model != "" {
			req.Model = config.Model
		}
		if config.MaxTokens > 0 {
			req.MaxTokens = config.MaxTokens
		}
		if config.Temperature != nil {
			req.Temperature = *config.Temperature
		}
	}
	if len(availableTools) > 0 {
		req.Tools = toOpenAITools(availableTools)
		req.ToolChoice = "auto"
	}
	return req
}

// toOpenAIMessages converts our internal message slice to the SDK format.
func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		m := openai.ChatCompletionMessage{Role: string(msg.Role), Content: msg.Content}
		switch msg.Role {
		case RoleTool:
			m.ToolCallID = msg.ToolCallID
			m.Name = msg.Name
		case RoleAssistant:
			for _, tc := range msg.ToolCalls {
				m.ToolCalls = append(m.ToolCalls, openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      tc.Function.Name,
						Arguments: tc.Function.Arguments,
					},
				})
			}
		}
		out = append(out, m)
	}
	return out
}

func toOpenAITools(availableTools []tools.Tool) []openai.Tool {
	out := make([]openai.Tool, 0, len(availableTools))
	for _, t := range availableTools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Function.Name,
				Description: t.Function.Description,
				Parameters:  t.Function.Parameters,
			},
		})
	}
	return out
}

// classifyOpenAIError tags 400 responses with ErrBadRequest.
func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusBadRequest {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusBadRequest {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return fmt.Errorf("chat completion failed: %w", err)
}
