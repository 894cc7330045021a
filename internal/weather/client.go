// In file: internal/weather/client.go

// Package weather talks to the WeatherAPI.com current-conditions endpoint and
// turns free-form questions into city lookups.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the WeatherAPI.com v1 root.
	DefaultBaseURL = "https://api.weatherapi.com/v1"
	// PlaceholderAPIKey is the value shipped in .env.example.
	PlaceholderAPIKey = "your_weatherapi_key_here"

	defaultTimeout  = 10 * time.Second
	maxErrTextRunes = 80
)

// User-facing texts. Report returns exactly one of these (or a formatted reading).
const (
	MsgUnconfigured = "⚠️ Please add your WeatherAPI key to .env file"
	MsgTimeout      = "Weather service timeout. Please try again."
	msgNotFound     = "City '%s' not found. Please check the spelling."
	msgServiceError = "Weather service error: %d"
	msgUnknown      = "Error fetching weather: %s"
)

// ErrorKind classifies why a lookup failed.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindUnconfigured
	KindNotFound
	KindTimeout
	KindServiceError
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnconfigured:
		return "unconfigured"
	case KindNotFound:
		return "not_found"
	case KindTimeout:
		return "timeout"
	case KindServiceError:
		return "service_error"
	default:
		return "unknown"
	}
}

// Error is returned by Client.Current for every failed lookup.
type Error struct {
	Kind       ErrorKind
	City       string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindUnconfigured:
		return "weather API key is not configured"
	case KindNotFound:
		return fmt.Sprintf("city %q not found (status %d)", e.City, e.StatusCode)
	case KindServiceError:
		return fmt.Sprintf("weather service returned status %d", e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("weather lookup for %q failed: %v", e.City, e.Err)
	}
	return fmt.Sprintf("weather lookup for %q failed", e.City)
}

func (e *Error) Unwrap() error { return e.Err }

// Message renders the error as the text shown to the user.
func (e *Error) Message() string {
	switch e.Kind {
	case KindUnconfigured:
		return MsgUnconfigured
	case KindNotFound:
		return fmt.Sprintf(msgNotFound, e.City)
	case KindServiceError:
		return fmt.Sprintf(msgServiceError, e.StatusCode)
	case KindTimeout:
		return MsgTimeout
	}
	text := "unknown error"
	if e.Err != nil {
		text = e.Err.Error()
	}
	return fmt.Sprintf(msgUnknown, truncate(text, maxErrTextRunes))
}

// KindOf reports the ErrorKind found in err's chain, or KindUnknown.
func KindOf(err error) ErrorKind {
	var werr *Error
	if errors.As(err, &werr) {
		return werr.Kind
	}
	return KindUnknown
}

// Reading is one current-conditions observation. It is never cached.
type Reading struct {
	Location   string
	Country    string
	TempC      float64
	Condition  string
	Humidity   int
	WindKPH    float64
	FeelsLikeC float64
}

// TempF derives Fahrenheit from the Celsius reading.
func (r Reading) TempF() float64 {
	return r.TempC*9/5 + 32
}

// String renders the multi-line summary returned to chat users.
func (r Reading) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Current weather in %s, %s:\n", r.Location, r.Country)
	fmt.Fprintf(&b, "• Temperature: %s°C (%s°F)\n", formatNumber(r.TempC), formatNumber(roundTenth(r.TempF())))
	fmt.Fprintf(&b, "• Condition: %s\n", r.Condition)
	fmt.Fprintf(&b, "• Humidity: %d%%\n", r.Humidity)
	fmt.Fprintf(&b, "• Wind Speed: %s km/h\n", formatNumber(r.WindKPH))
	fmt.Fprintf(&b, "• Feels like: %s°C", formatNumber(r.FeelsLikeC))
	return b.String()
}

// currentResponse mirrors the subset of /current.json we read.
type currentResponse struct {
	Location struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	} `json:"location"`
	Current struct {
		TempC     float64 `json:"temp_c"`
		Humidity  int     `json:"humidity"`
		WindKPH   float64 `json:"wind_kph"`
		FeelsLike float64 `json:"feelslike_c"`
		Condition struct {
			Text string `json:"text"`
		} `json:"condition"`
	} `json:"current"`
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithHTTPClient replaces the default HTTP client (and its 10s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// Client looks up current weather for a city. It holds no mutable state
// and is safe for concurrent use.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client. An empty or placeholder key is accepted; every
// lookup then fails with KindUnconfigured.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether a real API key is set.
func (c *Client) Configured() bool {
	return c.apiKey != "" && c.apiKey != PlaceholderAPIKey
}

// Current performs exactly one request to the provider.
func (c *Client) Current(ctx context.Context, city string) (*Reading, error) {
	if !c.Configured() {
		return nil, &Error{Kind: KindUnconfigured, City: city}
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("q", city)
	params.Set("aqi", "no")
	endpoint := c.baseURL + "/current.json?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &Error{Kind: KindUnknown, City: city, Err: fmt.Errorf("failed to create weather API request: %w", err)}
	}
	req.Header.Set("User-Agent", "Weather-Assistant/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, &Error{Kind: KindTimeout, City: city, Err: err}
		}
		return nil, &Error{Kind: KindUnknown, City: city, Err: redactKey(err, c.apiKey)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		io.Copy(io.Discard, resp.Body)
		return nil, &Error{Kind: KindNotFound, City: city, StatusCode: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		io.Copy(io.Discard, resp.Body)
		return nil, &Error{Kind: KindServiceError, City: city, StatusCode: resp.StatusCode}
	}

	var payload currentResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		if isTimeout(err) {
			return nil, &Error{Kind: KindTimeout, City: city, Err: err}
		}
		return nil, &Error{Kind: KindUnknown, City: city, Err: fmt.Errorf("failed to decode weather response: %w", err)}
	}

	return &Reading{
		Location:   payload.Location.Name,
		Country:    payload.Location.Country,
		TempC:      payload.Current.TempC,
		Condition:  payload.Current.Condition.Text,
		Humidity:   payload.Current.Humidity,
		WindKPH:    payload.Current.WindKPH,
		FeelsLikeC: payload.Current.FeelsLike,
	}, nil
}

// Report looks up city and always returns display text: the formatted
// reading on success, otherwise the message for the failure kind.
func (c *Client) Report(ctx context.Context, city string) string {
	reading, err := c.Current(ctx, city)
	if err != nil {
		return MessageFor(err)
	}
	return reading.String()
}

// MessageFor renders any lookup error as user-facing text.
func MessageFor(err error) string {
	var werr *Error
	if errors.As(err, &werr) {
		return werr.Message()
	}
	return fmt.Sprintf(msgUnknown, truncate(err.Error(), maxErrTextRunes))
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// redactKey keeps the API key out of error text, since *url.Error embeds the full URL.
func redactKey(err error, key string) error {
	if key == "" || !strings.Contains(err.Error(), key) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), key, "***"))
}
