// In file: internal/weather/format.go
package weather

import (
	"math"
	"strconv"
	"strings"
)

// formatNumber prints the shortest representation of f, keeping one decimal
// place for whole numbers so 15 reads as "15.0".
func formatNumber(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

func roundTenth(f float64) float64 {
	return math.Round(f*10) / 10
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
