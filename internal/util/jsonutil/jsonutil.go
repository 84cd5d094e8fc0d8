package jsonutil

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoJSON reports that no JSON payload could be located in the text.
var ErrNoJSON = errors.New("jsonutil: no JSON payload found")

// Unmarshal tries to unmarshal model output into v with best effort:
// 1) direct unmarshal
// 2) strip code fences and retry
// 3) extract the first balanced JSON object or array and retry
// Models occasionally wrap JSON in prose or markdown fences even when asked
// for raw JSON; the pipeline treats that as valid output.
func Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err == nil {
		return nil
	}
	text := StripFences(string(data))
	if err := json.Unmarshal([]byte(text), v); err == nil {
		return nil
	}
	payload, err := Extract(text)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(payload), v)
}

// UnmarshalRaw accepts json.RawMessage directly.
func UnmarshalRaw(raw json.RawMessage, v any) error {
	return Unmarshal([]byte(raw), v)
}

// StripFences removes a surrounding markdown code fence if present.
func StripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// Extract returns the first balanced JSON object or array in text.
// Braces inside string literals are ignored.
func Extract(text string) (string, error) {
	start := -1
	var open, closing byte
	for i := 0; i < len(text); i++ {
		if text[i] == '{' || text[i] == '[' {
			start = i
			open = text[i]
			if open == '{' {
				closing = '}'
			} else {
				closing = ']'
			}
			break
		}
	}
	if start < 0 {
		return "", ErrNoJSON
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", ErrNoJSON
}
