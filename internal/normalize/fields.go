// Package normalize coerces loosely-typed recovered model output into the strict
// response types returned to callers. None of its functions fail: missing or
// wrong-typed fields are replaced with defaults.
package normalize

import (
	"math"
	"strconv"
	"strings"

	"github.com/spigell/careerboost/internal/ai/recovery"
)

const (
	MinScore = 0
	MaxScore = 100
)

// Clamp bounds n to the score range.
func Clamp(n int) int {
	switch {
	case n < MinScore:
		return MinScore
	case n > MaxScore:
		return MaxScore
	default:
		return n
	}
}

// Score reads an integer score. Numbers are truncated toward zero, numeric
// strings (optionally suffixed with %) are parsed, anything else yields fallback.
// The result is always clamped.
func Score(v recovery.Value, fallback int) int {
	if n, ok := v.Num(); ok {
		return clampFloat(n, fallback)
	}

	if s, ok := v.Str(); ok {
		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return clampFloat(n, fallback)
		}
	}

	return Clamp(fallback)
}

func clampFloat(n float64, fallback int) int {
	if math.IsNaN(n) {
		return Clamp(fallback)
	}
	n = math.Trunc(n)
	if n <= MinScore {
		return MinScore
	}
	if n >= MaxScore {
		return MaxScore
	}
	return int(n)
}

// StringList reads a list of strings capped at limit. Scalars inside the list are
// stringified, blanks and nested containers are dropped. The result is never nil.
func StringList(v recovery.Value, limit int) []string {
	out := []string{}

	items, ok := v.Items()
	if !ok {
		return out
	}

	for _, item := range items {
		if limit > 0 && len(out) >= limit {
			break
		}
		s, ok := item.Scalar()
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}

	return out
}

// Text reads a non-blank string or returns fallback.
func Text(v recovery.Value, fallback string) string {
	if s, ok := v.Str(); ok {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return fallback
}

// CapList truncates list to limit without padding.
func CapList(list []string, limit int) []string {
	if list == nil {
		return []string{}
	}
	if limit > 0 && len(list) > limit {
		return list[:limit]
	}
	return list
}

func scalarText(v recovery.Value) string {
	s, _ := v.Scalar()
	return strings.TrimSpace(s)
}
