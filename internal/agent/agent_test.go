package agent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dileep-u-k/weather-assistant/internal/llm"
	"github.com/dileep-u-k/weather-assistant/internal/tools"
	"github.com/dileep-u-k/weather-assistant/internal/weather"
)

// fakeLLM answers through a function so tests can script behaviour from the
// conversation alone. It is safe for concurrent use.
type fakeLLM struct {
	mu      sync.Mutex
	calls   [][]llm.Message
	respond func(messages []llm.Message) (*llm.GenerationResult, error)
}

func (f *fakeLLM) Generate(_ context.Context, messages []llm.Message, _ *llm.GenerationConfig, _ []tools.Tool) (*llm.GenerationResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]llm.Message(nil), messages...))
	f.mu.Unlock()
	return f.respond(messages)
}

func toolCall(id, args string) *llm.GenerationResult {
	return &llm.GenerationResult{ToolCalls: []*tools.ToolCall{{
		ID:       id,
		Type:     tools.ToolTypeFunction,
		Function: tools.ToolCallFunction{Name: tools.WeatherToolName, Arguments: args},
	}}}
}

// callThenSummarize calls the weather tool once, then echoes the tool output.
func callThenSummarize(messages []llm.Message) (*llm.GenerationResult, error) {
	last := messages[len(messages)-1]
	if last.Role == llm.RoleTool {
		return &llm.GenerationResult{Content: "Summary: " + last.Content}, nil
	}
	return toolCall("call_1", `{"city":"Tokyo"}`), nil
}

type stubLookup struct {
	reading *weather.Reading
	err     error
}

func (s stubLookup) Current(_ context.Context, city string) (*weather.Reading, error) {
	if s.err != nil {
		return nil, s.err
	}
	r := *s.reading
	r.Location = city
	return &r, nil
}

func newTestAgent(t *testing.T, client llm.LLMClient, lookup tools.WeatherLookup) *Agent {
	t.Helper()
	tm := tools.NewToolManager()
	tm.Register(tools.NewWeatherTool(lookup))
	a, err := New(Config{Client: client, Tools: tm})
	require.NoError(t, err)
	return a
}

func TestRun_ToolThenAnswer(t *testing.T) {
	client := &fakeLLM{respond: callThenSummarize}
	a := newTestAgent(t, client, stubLookup{reading: &weather.Reading{Country: "Japan", TempC: 20}})

	got, err := a.Run(context.Background(), "weather in tokyo?")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(got, "Summary: Current weather in Tokyo, Japan:"), got)

	require.Len(t, client.calls, 2)
	second := client.calls[1]
	require.Equal(t, llm.RoleSystem, second[0].Role)
	require.Equal(t, llm.RoleAssistant, second[2].Role)
	require.Equal(t, llm.RoleTool, second[3].Role)
	require.Equal(t, "call_1", second[3].ToolCallID)
	require.Equal(t, tools.WeatherToolName, second[3].Name)
}

func TestRun_DirectAnswer(t *testing.T) {
	client := &fakeLLM{respond: func([]llm.Message) (*llm.GenerationResult, error) {
		return &llm.GenerationResult{Content: "  Which city?  "}, nil
	}}
	a := newTestAgent(t, client, stubLookup{})

	got, err := a.Run(context.Background(), "is it cold?")
	require.NoError(t, err)
	require.Equal(t, "Which city?", got)
}

func TestRun_IterationLimitKeepsToolErrorKind(t *testing.T) {
	client := &fakeLLM{respond: func([]llm.Message) (*llm.GenerationResult, error) {
		return toolCall("call_x", `{"city":"Atlantis"}`), nil
	}}
	notFound := &weather.Error{Kind: weather.KindNotFound, City: "Atlantis", StatusCode: 400}
	a := newTestAgent(t, client, stubLookup{err: notFound})

	_, err := a.Run(context.Background(), "weather in atlantis")
	require.ErrorIs(t, err, ErrIterationLimit)
	require.Equal(t, weather.KindNotFound, weather.KindOf(err))
	require.Len(t, client.calls, DefaultMaxIterations)

	// The model saw the user-facing text, not a Go error.
	toolMsg := client.calls[1][3]
	require.Equal(t, "City 'Atlantis' not found. Please check the spelling.", toolMsg.Content)
}

func TestRun_InvalidArgumentsAreFedBack(t *testing.T) {
	client := &fakeLLM{respond: func(messages []llm.Message) (*llm.GenerationResult, error) {
		last := messages[len(messages)-1]
		if last.Role == llm.RoleTool {
			return &llm.GenerationResult{Content: "retrying is not possible: " + last.Content}, nil
		}
		return toolCall("call_bad", `{"city":`), nil
	}}
	a := newTestAgent(t, client, stubLookup{})

	got, err := a.Run(context.Background(), "weather?")
	require.NoError(t, err)
	require.Contains(t, got, "Error: invalid tool arguments")
}

func TestRun_UnknownToolIsFedBack(t *testing.T) {
	client := &fakeLLM{respond: func(messages []llm.Message) (*llm.GenerationResult, error) {
		last := messages[len(messages)-1]
		if last.Role == llm.RoleTool {
			return &llm.GenerationResult{Content: last.Content}, nil
		}
		return &llm.GenerationResult{ToolCalls: []*tools.ToolCall{{
			ID: "c", Function: tools.ToolCallFunction{Name: "GetForecast", Arguments: "{}"},
		}}}, nil
	}}
	a := newTestAgent(t, client, stubLookup{})

	got, err := a.Run(context.Background(), "forecast for rome")
	require.NoError(t, err)
	require.Contains(t, got, "unknown tool")
}

func TestRun_GenerationErrorIsWrapped(t *testing.T) {
	client := &fakeLLM{respond: func([]llm.Message) (*llm.GenerationResult, error) {
		return nil, fmt.Errorf("%w: model not found", llm.ErrBadRequest)
	}}
	a := newTestAgent(t, client, stubLookup{})

	_, err := a.Run(context.Background(), "weather in paris")
	require.ErrorIs(t, err, llm.ErrBadRequest)
}

func TestRun_EmptyAnswer(t *testing.T) {
	client := &fakeLLM{respond: func([]llm.Message) (*llm.GenerationResult, error) {
		return &llm.GenerationResult{}, nil
	}}
	a := newTestAgent(t, client, stubLookup{})

	_, err := a.Run(context.Background(), "hello")
	require.ErrorIs(t, err, ErrEmptyAnswer)
}

func TestRun_Concurrent(t *testing.T) {
	client := &fakeLLM{respond: callThenSummarize}
	a := newTestAgent(t, client, stubLookup{reading: &weather.Reading{Country: "Japan"}})

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := a.Run(context.Background(), "weather in tokyo"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
	require.Len(t, client.calls, 40)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{Tools: tools.NewToolManager()})
	require.Error(t, err)

	_, err = New(Config{Client: &fakeLLM{}, Tools: tools.NewToolManager()})
	require.ErrorIs(t, err, ErrNoTools)
}

func weatherTools() *tools.ToolManager {
	tm := tools.NewToolManager()
	tm.Register(tools.NewWeatherTool(stubLookup{}))
	return tm
}

func TestBuild_MissingCredentials(t *testing.T) {
	for _, key := range []string{"", "  ", PlaceholderAPIKey} {
		_, err := Build(context.Background(), Settings{APIKey: key}, weatherTools())
		require.ErrorIs(t, err, ErrMissingCredentials)
	}
}

func TestBuild_UnknownProvider(t *testing.T) {
	_, err := Build(context.Background(), Settings{Provider: "carrier-pigeon", APIKey: "k"}, weatherTools())
	require.ErrorContains(t, err, "unknown agent provider")
}

func TestBuild_Defaults(t *testing.T) {
	s := Settings{}.withDefaults()
	require.Equal(t, ProviderOpenAI, s.Provider)
	require.Equal(t, llm.DefaultOpenAIModel, s.Generation.Model)
	require.InDelta(t, 0.3, *s.Generation.Temperature, 1e-6)
	require.Equal(t, 500, s.Generation.MaxTokens)
	require.Equal(t, 2, s.MaxIterations)

	g := Settings{Provider: "Gemini"}.withDefaults()
	require.Equal(t, ProviderGemini, g.Provider)
	require.Equal(t, llm.DefaultGeminiModel, g.Generation.Model)
}

func TestBuild_Probe(t *testing.T) {
	var hits int
	var mu sync.Mutex
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		code := status
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		if code != http.StatusOK {
			fmt.Fprint(w, `{"error": {"message": "unauthorized"}}`)
			return
		}
		fmt.Fprint(w, `{"choices": [{"index": 0, "message": {"role": "assistant", "content": "pong"}}]}`)
	}))
	defer srv.Close()

	settings := Settings{APIKey: "sk-test", BaseURL: srv.URL, Probe: true}
	a, err := Build(context.Background(), settings, weatherTools())
	require.NoError(t, err)
	require.NotNil(t, a)
	require.Equal(t, 1, hits)

	mu.Lock()
	status = http.StatusUnauthorized
	mu.Unlock()
	_, err = Build(context.Background(), settings, weatherTools())
	require.ErrorContains(t, err, "agent probe failed")
	require.False(t, errors.Is(err, ErrMissingCredentials))
}

type closableLLM struct {
	fakeLLM
	closed int
}

func (c *closableLLM) Close() error {
	c.closed++
	return nil
}

func TestClose_ReleasesClosableBackend(t *testing.T) {
	client := &closableLLM{fakeLLM: fakeLLM{respond: callThenSummarize}}
	a := newTestAgent(t, client, stubLookup{reading: &weather.Reading{}})

	require.NoError(t, a.Close())
	require.Equal(t, 1, client.closed)
}

func TestClose_PlainBackendIsNoop(t *testing.T) {
	a := newTestAgent(t, &fakeLLM{respond: callThenSummarize}, stubLookup{reading: &weather.Reading{}})
	require.NoError(t, a.Close())
}
