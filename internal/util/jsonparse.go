package util

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var jsonBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// ParseJSON unmarshals model output into T. It tries the raw text, then a
// fenced code block, then the outermost {...} or [...] span.
func ParseJSON[T any](content string) (T, error) {
	var result T
	content = strings.TrimSpace(content)
	if content == "" {
		return result, fmt.Errorf("%w: empty content", ErrParseFailed)
	}
	if err := json.Unmarshal([]byte(content), &result); err == nil {
		return result, nil
	}
	if m := jsonBlockRegex.FindStringSubmatch(content); len(m) >= 2 {
		var fenced T
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &fenced); err == nil {
			return fenced, nil
		}
	}
	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		start := strings.Index(content, pair[0])
		end := strings.LastIndex(content, pair[1])
		if start < 0 || end <= start {
			continue
		}
		var span T
		if err := json.Unmarshal([]byte(content[start:end+1]), &span); err == nil {
			return span, nil
		}
	}
	return result, fmt.Errorf("%w: %s", ErrParseFailed, TruncateRunes(content, 200))
}
