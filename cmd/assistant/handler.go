// In file: cmd/assistant/handler.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dileep-u-k/weather-assistant/internal/agent"
	"github.com/dileep-u-k/weather-assistant/internal/llm"
	"github.com/dileep-u-k/weather-assistant/internal/stats"
	"github.com/dileep-u-k/weather-assistant/internal/weather"
)

const (
	defaultTestCity = "London"
	maxErrorRunes   = 100
	livenessMessage = "Weather API with agent fallback is running"
)

// ChatRequest is the body of POST /chat. Text is a pointer so an empty
// string is accepted while a missing field is rejected.
type ChatRequest struct {
	Text *string `json:"text" binding:"required"`
}

// ChatResponse always carries text; failures are encoded in it.
type ChatResponse struct {
	Response string `json:"response"`
}

// TestResponse is the body of GET /test/:city.
type TestResponse struct {
	City    string `json:"city"`
	Weather string `json:"weather"`
}

// ChatAgent is the optional natural-language path.
type ChatAgent interface {
	Run(ctx context.Context, text string) (string, error)
}

// Answerer is the non-agent path.
type Answerer interface {
	Answer(ctx context.Context, query string) string
}

// ChatHandler composes the agent, the extractor fallback and the weather
// client. All fields are read-only after construction.
type ChatHandler struct {
	agent    ChatAgent
	fallback Answerer
	reporter weather.Reporter
	recorder stats.Recorder
}

// NewChatHandler wires the handler. chatAgent may be nil, which means the
// fallback path answers every message.
func NewChatHandler(chatAgent ChatAgent, fallback Answerer, reporter weather.Reporter, recorder stats.Recorder) *ChatHandler {
	if recorder == nil {
		recorder = stats.Nop{}
	}
	return &ChatHandler{
		agent:    chatAgent,
		fallback: fallback,
		reporter: reporter,
		recorder: recorder,
	}
}

// Respond produces exactly one answer for text. The agent is tried at most
// once, the fallback at most once.
func (h *ChatHandler) Respond(ctx context.Context, text string) string {
	if h.agent == nil {
		h.recorder.Record(ctx, stats.OutcomeDirect)
		return h.fallback.Answer(ctx, text)
	}

	answer, err := h.agent.Run(ctx, text)
	if err == nil {
		h.recorder.Record(ctx, stats.OutcomeAgent)
		return answer
	}

	if retryViaFallback(err) {
		log.Printf("⚠️ Agent failed (%v), retrying via city extraction", err)
		h.recorder.Record(ctx, stats.OutcomeAgentFallback)
		return h.fallback.Answer(ctx, text)
	}

	log.Printf("❌ Agent failed: %v", err)
	h.recorder.Record(ctx, stats.OutcomeAgentError)
	return "Error: " + truncateRunes(err.Error(), maxErrorRunes)
}

// retryViaFallback decides which agent failures the extractor may still
// answer: the city was not found, the provider rejected the request, or the
// model never settled on an answer.
func retryViaFallback(err error) bool {
	return weather.KindOf(err) == weather.KindNotFound ||
		errors.Is(err, llm.ErrBadRequest) ||
		errors.Is(err, agent.ErrIterationLimit)
}

// truncateRunes keeps at most n runes of s.
func truncateRunes(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n])
	}
	return s
}

func (h *ChatHandler) HandleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": livenessMessage})
}

func (h *ChatHandler) HandleChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	log.Printf("--- New chat (Request: %s, Text: '%.30s') ---", c.GetString(requestIDKey), *req.Text)
	c.JSON(http.StatusOK, ChatResponse{Response: h.Respond(c.Request.Context(), *req.Text)})
}

func (h *ChatHandler) HandleTest(c *gin.Context) {
	city := c.Param("city")
	if city == "" {
		city = defaultTestCity
	}
	c.JSON(http.StatusOK, TestResponse{City: city, Weather: h.reporter.Report(c.Request.Context(), city)})
}

func (h *ChatHandler) HandleStats(c *gin.Context) {
	snapshot, err := h.recorder.Snapshot(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": snapshot})
}
