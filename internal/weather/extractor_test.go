package weather

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingReporter struct {
	cities []string
}

func (r *recordingReporter) Report(_ context.Context, city string) string {
	r.cities = append(r.cities, city)
	return "report for " + city
}

func TestExtract(t *testing.T) {
	rules := MustDefaultRules()
	cases := []struct {
		query string
		want  string
	}{
		{"What's the weather in Tokyo?", "tokyo"},
		{"  WEATHER IN Paris  ", "paris"},
		{"weather of the city of lights", "city of lights"},
		{"weather for new york please", "new york"},
		{"Temperature at Cairo!", "cairo"},
		{"temperature in the bay area. thanks", "bay area"},
		{"how is it looking for weather around in berlin", "berlin"},
		{"can you tell me the weather in lisbon?", "lisbon"},
		{"weather in athens", "athens"},
		{"weather paris", "paris"},
		{"what is the weather today in", ""},
		{"current weather now rio de janeiro", "de janeiro"},
		{"tokyo?", "tokyo"},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			got, ok := rules.Extract(tc.query)
			if tc.want == "" {
				require.False(t, ok, "got %q", got)
				return
			}
			require.True(t, ok)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestExtract_FirstMatchWins(t *testing.T) {
	rules, err := CompileRules(ExtractorConfig{
		Patterns: []PatternConfig{
			{Name: "first", Regex: `in ([a-z]+)`},
			{Name: "second", Regex: `weather in ([a-z ]+)`},
		},
	})
	require.NoError(t, err)

	got, ok := rules.Extract("weather in san diego")
	require.True(t, ok)
	require.Equal(t, "san", got)
}

func TestExtract_EmptyCaptureFallsThrough(t *testing.T) {
	rules := MustDefaultRules()
	// The first rule captures only filler; the word heuristic takes over.
	got, ok := rules.Extract("weather in the please? oslo")
	require.True(t, ok)
	require.Equal(t, "oslo", got)
}

func TestExtractorAnswer(t *testing.T) {
	rep := &recordingReporter{}
	ex := NewExtractor(rep, nil)

	got := ex.Answer(context.Background(), "What's the weather in Tokyo?")
	require.Equal(t, rep.Report(context.Background(), "tokyo"), got)
	require.Equal(t, []string{"tokyo", "tokyo"}, rep.cities)
}

func TestExtractorAnswer_UsageHint(t *testing.T) {
	rep := &recordingReporter{}
	ex := NewExtractor(rep, nil)

	for _, q := range []string{"", "   ", "what is the weather today?", "please tell me now"} {
		require.Equal(t, MsgUsageHint, ex.Answer(context.Background(), q))
	}
	require.Empty(t, rep.cities)
}

func TestCompileRules(t *testing.T) {
	_, err := CompileRules(ExtractorConfig{Patterns: []PatternConfig{{Name: "bad", Regex: `weather (`}}})
	require.ErrorContains(t, err, "bad")

	_, err = CompileRules(ExtractorConfig{Patterns: []PatternConfig{{Name: "nogroup", Regex: `weather`}}})
	require.ErrorContains(t, err, "capture group")

	rs, err := CompileRules(ExtractorConfig{StopWords: []string{"forecast", "for"}})
	require.NoError(t, err)
	require.Len(t, rs.Rules, len(DefaultPatterns))
	got, ok := rs.Extract("forecast for madrid")
	require.True(t, ok)
	require.Equal(t, "madrid", got)
}
