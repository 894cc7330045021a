// In file: cmd/assistant/config.go
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dileep-u-k/weather-assistant/internal/agent"
	"github.com/dileep-u-k/weather-assistant/internal/llm"
	"github.com/dileep-u-k/weather-assistant/internal/weather"
)

const defaultPort = "8001"

// AppConfig holds all configuration for the assistant, loaded from the
// environment and an optional config.yaml.
type AppConfig struct {
	Port           string
	WeatherAPIKey  string
	WeatherBaseURL string
	RedisAddr      string
	Agent          agent.Settings
	Extractor      weather.ExtractorConfig
}

// fileConfig is the shape of config.yaml. Every section is optional.
type fileConfig struct {
	Extractor weather.ExtractorConfig `yaml:"extractor"`
	Agent     struct {
		Provider      string               `yaml:"provider"`
		Generation    llm.GenerationConfig `yaml:"generation"`
		MaxIterations int                  `yaml:"max_iterations"`
		SystemPrompt  string               `yaml:"system_prompt"`
	} `yaml:"agent"`
}

// LoadConfig reads .env (outside release mode), the YAML file at path if it
// exists, and the environment. Missing credentials are not an error: the
// services degrade instead.
func LoadConfig(path string) (*AppConfig, error) {
	// In Docker (GIN_MODE=release) configuration comes straight from the environment.
	if os.Getenv("GIN_MODE") != "release" {
		if err := godotenv.Load(); err != nil {
			log.Println("WARNING: No .env file found for local development.")
		}
	}

	var file fileConfig
	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			log.Printf("No config file at %s, using built-in defaults.", path)
		case err != nil:
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(raw, &file); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		}
	}

	cfg := &AppConfig{
		Port:           getEnv("PORT", defaultPort),
		WeatherAPIKey:  os.Getenv("WEATHER_API_KEY"),
		WeatherBaseURL: getEnv("WEATHER_API_BASE_URL", weather.DefaultBaseURL),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		Extractor:      file.Extractor,
		Agent: agent.Settings{
			Provider:      getEnv("AGENT_PROVIDER", file.Agent.Provider),
			Generation:    file.Agent.Generation,
			MaxIterations: file.Agent.MaxIterations,
			SystemPrompt:  file.Agent.SystemPrompt,
		},
	}
	if model := os.Getenv("AGENT_MODEL"); model != "" {
		cfg.Agent.Generation.Model = model
	}

	cfg.Agent.Provider = strings.ToLower(strings.TrimSpace(cfg.Agent.Provider))
	if cfg.Agent.Provider == "" {
		cfg.Agent.Provider = agent.ProviderOpenAI
	}

	switch cfg.Agent.Provider {
	case agent.ProviderGemini:
		cfg.Agent.APIKey = os.Getenv("GEMINI_API_KEY")
	default:
		cfg.Agent.APIKey = os.Getenv("OPENROUTER_API_KEY")
		cfg.Agent.BaseURL = getEnv("OPENROUTER_BASE_URL", llm.DefaultOpenRouterURL)
	}

	if raw := os.Getenv("AGENT_PROBE"); raw != "" {
		probe, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid AGENT_PROBE value %q: %w", raw, err)
		}
		cfg.Agent.Probe = probe
	}

	return cfg, nil
}

// getEnv reads an env var or returns a fallback when it is unset or empty.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
