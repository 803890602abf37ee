// Package seed provides a deterministic hash-based pseudo-random source.
// Identical keys always yield identical values, which keeps score jitter and
// demo data reproducible across runs and across reimplementations.
package seed

import (
	"math"
	"unicode/utf16"
)

// Hash folds the input string into a non-negative 32-bit value using the
// classic shift-and-subtract string hash over UTF-16 code units.
func Hash(input string) int64 {
	var h int32
	for _, unit := range utf16.Encode([]rune(input)) {
		h = (h << 5) - h + int32(unit)
	}
	if h < 0 {
		return -int64(h)
	}
	return int64(h)
}

// Unit maps a numeric seed to a value in [0, 1).
func Unit(s int64) float64 {
	x := math.Sin(float64(s)) * 10000
	return x - math.Floor(x)
}

// Between maps a numeric seed to a value in [min, max).
func Between(s int64, min, max float64) float64 {
	return min + Unit(s)*(max-min)
}

// Choice picks a deterministic element from items, or "" when empty.
func Choice(items []string, s int64) string {
	if len(items) == 0 {
		return ""
	}
	idx := int(Unit(s)*float64(len(items))) % len(items)
	return items[idx]
}
