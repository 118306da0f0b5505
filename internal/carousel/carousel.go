// Package carousel holds the index arithmetic shared by the rotating hero and
// testimonial sections and the before/after split slider.
package carousel

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// HeroInterval is how often the hero background advances.
	HeroInterval = 6 * time.Second
	// TestimonialInterval is how often the testimonial advances.
	TestimonialInterval = 6 * time.Second
	// DefaultSplit is the initial before/after slider position in percent.
	DefaultSplit = 50
)

// Next advances i by one, wrapping to 0 after the last of n items.
func Next(i, n int) int {
	if n <= 0 {
		return 0
	}
	return (Clamp(i, n) + 1) % n
}

// Prev moves i back by one, wrapping to the last of n items.
func Prev(i, n int) int {
	if n <= 0 {
		return 0
	}
	return (Clamp(i, n) - 1 + n) % n
}

// Clamp folds any index into [0, n). Out-of-range values wrap.
func Clamp(i, n int) int {
	if n <= 0 {
		return 0
	}
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// ParseIndex reads an index from a query value, falling back to 0.
func ParseIndex(raw string, n int) int {
	i, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return Clamp(i, n)
}

// ParseSplit reads a slider position in percent, clamped to [0, 100].
func ParseSplit(raw string) int {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) {
		return DefaultSplit
	}
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return int(v)
}
