// In file: internal/tools/weather_tool.go
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dileep-u-k/weather-assistant/internal/weather"
)

// WeatherToolName is the name the model uses to call the weather lookup.
const WeatherToolName = "GetCurrentWeather"

// ErrInvalidArguments marks arguments the model produced that could not be parsed.
var ErrInvalidArguments = errors.New("invalid tool arguments")

// WeatherLookup is the part of weather.Client the tool needs.
type WeatherLookup interface {
	Current(ctx context.Context, city string) (*weather.Reading, error)
}

// WeatherTool exposes the weather client to the agent.
type WeatherTool struct {
	lookup WeatherLookup
}

var _ ToolExecutor = (*WeatherTool)(nil)

func NewWeatherTool(lookup WeatherLookup) *WeatherTool {
	return &WeatherTool{lookup: lookup}
}

// Definition asks for a bare city name; the provider resolves it.
func (wt *WeatherTool) Definition() Tool {
	return NewFunctionTool(
		WeatherToolName,
		"Get current weather for any city worldwide. "+
			"Input should be a city name only (e.g., 'London', 'Tokyo', 'New York'). "+
			"Returns detailed weather information.",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"city": {
					Type:        "string",
					Description: "Bare city name without country or extra words, e.g. 'Paris'.",
				},
			},
			Required: []string{"city"},
		},
	)
}

// Execute looks the city up. On a failed lookup it returns the user-facing
// message together with the *weather.Error.
func (wt *WeatherTool) Execute(ctx context.Context, arguments string) (string, error) {
	city, err := parseCity(arguments)
	if err != nil {
		return "", err
	}

	reading, err := wt.lookup.Current(ctx, city)
	if err != nil {
		return weather.MessageFor(err), err
	}
	return reading.String(), nil
}

// parseCity accepts {"city": "..."}, the {"location": "..."} spelling some
// models insist on, or a bare string.
func parseCity(arguments string) (string, error) {
	raw := strings.TrimSpace(arguments)
	if raw == "" {
		return "", fmt.Errorf("%w: empty arguments, expected {\"city\": \"<name>\"}", ErrInvalidArguments)
	}

	if !strings.HasPrefix(raw, "{") {
		var s string
		if json.Unmarshal([]byte(raw), &s) == nil {
			raw = s
		}
		if city := strings.TrimSpace(raw); city != "" {
			return city, nil
		}
		return "", fmt.Errorf("%w: empty city", ErrInvalidArguments)
	}

	var args struct {
		City     string `json:"city"`
		Location string `json:"location"`
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	city := strings.TrimSpace(args.City)
	if city == "" {
		city = strings.TrimSpace(args.Location)
	}
	if city == "" {
		return "", fmt.Errorf("%w: \"city\" is required", ErrInvalidArguments)
	}
	return city, nil
}
