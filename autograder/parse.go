package autograder

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSON is returned when a judge response contains no JSON object
var ErrNoJSON = errors.New("no JSON object in judge response")

// extractJSON returns the JSON object embedded in a judge response, which
// may be wrapped in a markdown fence or surrounded by prose
func extractJSON(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if i := strings.Index(text, "```"); i >= 0 {
		fenced := text[i+3:]
		fenced = strings.TrimPrefix(fenced, "json")
		if end := strings.Index(fenced, "```"); end >= 0 {
			text = fenced[:end]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", ErrNoJSON
	}
	return text[start : end+1], nil
}

type validatable interface {
	Validate() error
}

// decode extracts, unmarshals and validates a judge response into out
func decode(raw string, out validatable) error {
	body, err := extractJSON(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return fmt.Errorf("invalid judge JSON: %w", err)
	}
	if err := out.Validate(); err != nil {
		return fmt.Errorf("invalid judge response: %w", err)
	}
	return nil
}
