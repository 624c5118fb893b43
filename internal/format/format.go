// Package format turns raw TMDb values into display strings. Every function is
// total: degenerate input yields a sentinel instead of an error.
package format

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// Unknown is shown for values TMDb left out or that cannot be formatted.
	Unknown = "N/A"

	// InvalidDate is returned by Date for unparseable input.
	InvalidDate = "Invalid date format"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// Runtime renders a runtime in minutes as "Hh Mm".
func Runtime(minutes int) string {
	if minutes < 0 {
		return Unknown
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// Abbreviate shortens large counts to two decimals with a B, M or K suffix.
func Abbreviate(n int64) string {
	// uint64 holds the magnitude of math.MinInt64.
	abs := uint64(n)
	if n < 0 {
		abs = -abs
	}

	switch {
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%.2fB", float64(n)/1e9)
	case abs >= 1_000_000:
		return fmt.Sprintf("%.2fM", float64(n)/1e6)
	case abs >= 1_000:
		return fmt.Sprintf("%.2fK", float64(n)/1e3)
	default:
		return strconv.FormatInt(n, 10)
	}
}

// Date renders an ISO date as "January 2, 2006".
func Date(s string) string {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("January 2, 2006")
		}
	}
	return InvalidDate
}

// Year returns the year part of a release date.
func Year(releaseDate string) string {
	year, _, _ := strings.Cut(releaseDate, "-")
	if year == "" {
		return Unknown
	}
	return year
}

// Rating renders a vote average with one decimal. TMDb reports unrated
// movies as 0.
func Rating(voteAverage float64) string {
	if voteAverage == 0 {
		return Unknown
	}
	return strconv.FormatFloat(voteAverage, 'f', 1, 64)
}

// Language capitalizes an ISO 639-1 code for display ("en" -> "En").
func Language(code string) string {
	if code == "" {
		return Unknown
	}
	return cases.Title(language.English).String(code)
}

// OrDefault returns s, or def when s is blank.
func OrDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// Interleave returns the names of items with sep between each pair.
func Interleave[T any](items []T, name func(T) string, sep string) []string {
	if len(items) == 0 {
		return []string{}
	}

	out := make([]string, 0, len(items)*2-1)
	for i, item := range items {
		if i > 0 {
			out = append(out, sep)
		}
		out = append(out, name(item))
	}
	return out
}
