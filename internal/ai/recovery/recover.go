// Package recovery pulls a JSON object out of model output that may be wrapped
// in markdown fences or surrounded by prose.
package recovery

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedModelOutput is matched by every recovery failure.
var ErrMalformedModelOutput = errors.New("malformed model output")

// MalformedError keeps the original candidate for diagnostics.
type MalformedError struct {
	Raw string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("%s: no JSON object found", ErrMalformedModelOutput)
}

func (e *MalformedError) Unwrap() error { return ErrMalformedModelOutput }

// Recover returns the JSON object carried by candidate. Objects and maps pass
// through unchanged; strings and byte slices are parsed directly, then with
// markdown fences removed, then as the span from the first '{' to the last '}'.
// The span heuristic mis-extracts text holding several independent objects or
// unbalanced braces inside strings.
func Recover(candidate any) (Object, error) {
	var raw string
	switch c := candidate.(type) {
	case Object:
		return c, nil
	case map[string]any:
		return objectFromMap(c), nil
	case string:
		raw = c
	case []byte:
		raw = string(c)
	case nil:
		return nil, &MalformedError{}
	default:
		return nil, &MalformedError{Raw: fmt.Sprintf("%v", c)}
	}

	if obj, ok := parseObject(raw); ok {
		return obj, nil
	}

	if stripped := stripFences(raw); stripped != raw {
		if obj, ok := parseObject(stripped); ok {
			return obj, nil
		}
	}

	if span, ok := braceSpan(raw); ok {
		if obj, ok := parseObject(span); ok {
			return obj, nil
		}
	}

	return nil, &MalformedError{Raw: raw}
}

func parseObject(s string) (Object, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s[0] != '{' || !json.Valid([]byte(s)) {
		return nil, false
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(s), &data); err != nil || data == nil {
		return nil, false
	}

	return objectFromMap(data), true
}

func stripFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if !strings.HasPrefix(cleaned, "```") {
		return raw
	}
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```JSON")
	cleaned = strings.TrimPrefix(cleaned, "```")
	if idx := strings.LastIndex(cleaned, "```"); idx != -1 {
		cleaned = cleaned[:idx]
	}
	return strings.TrimSpace(cleaned)
}

func braceSpan(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}
