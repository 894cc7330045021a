// In file: internal/weather/extractor.go
package weather

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
)

// MsgUsageHint is returned when no city can be derived from a question.
const MsgUsageHint = "Please specify a city. Example: 'What's the weather in Tokyo?' or 'Weather in Paris'"

// PatternConfig is one extraction rule as it appears in config.yaml.
// Capture group 1 holds the city.
type PatternConfig struct {
	Name  string `yaml:"name"`
	Regex string `yaml:"regex"`
}

// ExtractorConfig is the data that drives city extraction.
type ExtractorConfig struct {
	Patterns     []PatternConfig `yaml:"patterns"`
	FillerTokens []string        `yaml:"filler_tokens"`
	StopWords    []string        `yaml:"stop_words"`
}

// Evaluated in order; the first rule yielding a non-empty city wins.
var DefaultPatterns = []PatternConfig{
	{Name: "weather-preposition", Regex: `weather (?:in|of|at|for) ([^?.!]+)`},
	{Name: "temperature-preposition", Regex: `temperature (?:in|of|at) ([^?.!]+)`},
	{Name: "how-weather-in", Regex: `how.*weather.*in ([^?.!]+)`},
	{Name: "what-weather-in", Regex: `what.*weather.*in ([^?.!]+)`},
	{Name: "weather-like-in", Regex: `weather.*like.*in ([^?.!]+)`},
}

// DefaultFillerTokens are removed from a captured city.
var DefaultFillerTokens = []string{"?", "please", "tell me", "can you", "the"}

// DefaultStopWords are dropped by the word heuristic when no pattern matches.
var DefaultStopWords = []string{
	"what", "is", "the", "weather", "in", "of", "at", "how",
	"today", "?", "please", "tell", "me", "current", "now",
}

// DefaultExtractorConfig returns a fresh copy of the built-in rules.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		Patterns:     append([]PatternConfig(nil), DefaultPatterns...),
		FillerTokens: append([]string(nil), DefaultFillerTokens...),
		StopWords:    append([]string(nil), DefaultStopWords...),
	}
}

// Rule is a compiled extraction pattern.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
}

// RuleSet is the compiled, read-only form of an ExtractorConfig.
type RuleSet struct {
	Rules     []Rule
	filler    *regexp.Regexp
	stopWords map[string]struct{}
}

var spaceRun = regexp.MustCompile(`\s+`)

// CompileRules validates and compiles cfg. Empty sections fall back to the
// defaults so a partial config.yaml only overrides what it names.
func CompileRules(cfg ExtractorConfig) (*RuleSet, error) {
	def := DefaultExtractorConfig()
	if len(cfg.Patterns) == 0 {
		cfg.Patterns = def.Patterns
	}
	if len(cfg.FillerTokens) == 0 {
		cfg.FillerTokens = def.FillerTokens
	}
	if len(cfg.StopWords) == 0 {
		cfg.StopWords = def.StopWords
	}

	rs := &RuleSet{stopWords: make(map[string]struct{}, len(cfg.StopWords))}
	for i, p := range cfg.Patterns {
		re, err := regexp.Compile(p.Regex)
		if err != nil {
			return nil, fmt.Errorf("invalid extractor pattern %q: %w", p.Name, err)
		}
		if re.NumSubexp() < 1 {
			return nil, fmt.Errorf("extractor pattern %q has no capture group", p.Name)
		}
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("pattern-%d", i+1)
		}
		rs.Rules = append(rs.Rules, Rule{Name: name, Pattern: re})
	}

	alts := make([]string, 0, len(cfg.FillerTokens))
	for _, tok := range cfg.FillerTokens {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" {
			continue
		}
		q := regexp.QuoteMeta(tok)
		if isWordy(tok) {
			q = `\b` + q + `\b`
		}
		alts = append(alts, q)
	}
	if len(alts) > 0 {
		filler, err := regexp.Compile(strings.Join(alts, "|"))
		if err != nil {
			return nil, fmt.Errorf("invalid filler tokens: %w", err)
		}
		rs.filler = filler
	}

	for _, w := range cfg.StopWords {
		rs.stopWords[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return rs, nil
}

// MustDefaultRules compiles the built-in configuration.
func MustDefaultRules() *RuleSet {
	rs, err := CompileRules(DefaultExtractorConfig())
	if err != nil {
		panic(err)
	}
	return rs
}

func isWordy(tok string) bool {
	first, last := rune(tok[0]), rune(tok[len(tok)-1])
	return isWordRune(first) && isWordRune(last)
}

func isWordRune(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

// Extract derives a city from query. ok is false when nothing usable remains.
func (rs *RuleSet) Extract(query string) (city string, ok bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return "", false
	}

	for _, rule := range rs.Rules {
		m := rule.Pattern.FindStringSubmatch(q)
		if len(m) < 2 {
			continue
		}
		if city := rs.clean(m[1]); city != "" {
			return city, true
		}
	}

	var words []string
	for _, w := range strings.Fields(q) {
		if _, stop := rs.stopWords[w]; stop {
			continue
		}
		w = strings.Trim(w, "?!.,")
		if w == "" {
			continue
		}
		if _, stop := rs.stopWords[w]; stop {
			continue
		}
		words = append(words, w)
	}
	if len(words) == 0 {
		return "", false
	}
	if len(words) > 2 {
		words = words[len(words)-2:]
	}
	return strings.Join(words, " "), true
}

func (rs *RuleSet) clean(captured string) string {
	if rs.filler != nil {
		captured = rs.filler.ReplaceAllString(captured, " ")
	}
	return strings.TrimSpace(spaceRun.ReplaceAllString(captured, " "))
}

// Reporter renders a weather report for a city name.
type Reporter interface {
	Report(ctx context.Context, city string) string
}

// Extractor is the non-agent answer path: extract a city, then look it up.
type Extractor struct {
	rules    *RuleSet
	reporter Reporter
}

// NewExtractor wires rules to a reporter. nil rules means the defaults.
func NewExtractor(reporter Reporter, rules *RuleSet) *Extractor {
	if rules == nil {
		rules = MustDefaultRules()
	}
	return &Extractor{rules: rules, reporter: reporter}
}

// Extract exposes the rule evaluation without performing a lookup.
func (e *Extractor) Extract(query string) (string, bool) {
	return e.rules.Extract(query)
}

// Answer returns the reporter's text for the extracted city, or the usage
// hint without touching the reporter when no city is found.
func (e *Extractor) Answer(ctx context.Context, query string) string {
	city, ok := e.rules.Extract(query)
	if !ok {
		log.Printf("🔎 No city found in query %q", query)
		return MsgUsageHint
	}
	log.Printf("🔎 Extracted city %q", city)
	return e.reporter.Report(ctx, city)
}
