package core

import (
	"regexp"
	"strings"
)

var thinkingPattern = regexp.MustCompile(`(?s)<(thinking|think)>(.*?)</(?:thinking|think)>`)

// ParseGradeInput splits reasoning wrapped in <thinking> or <think> tags
// from the final output. Untagged text is returned whole as Output.
func ParseGradeInput(text string) GradeInput {
	matches := thinkingPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return GradeInput{Output: text}
	}

	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		parts = append(parts, strings.TrimSpace(m[2]))
	}

	return GradeInput{
		Thinking: strings.Join(parts, "\n"),
		Output:   strings.TrimSpace(thinkingPattern.ReplaceAllString(text, "")),
	}
}
