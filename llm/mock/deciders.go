package mock

import (
	"strings"
	"unicode"
)

// fillers never decide a criterion on their own
var fillers = map[string]bool{
	"a": true, "an": true, "and": true, "any": true, "are": true, "be": true, "by": true,
	"contains": true, "does": true, "for": true, "in": true, "includes": true, "is": true,
	"it": true, "mentions": true, "not": true, "of": true, "or": true, "output": true,
	"response": true, "should": true, "the": true, "to": true, "uses": true, "with": true,
	"written": true,
}

// Keywords marks a criterion MET when any of its content words occurs in
// the response, ignoring case
func Keywords(requirement string, negative bool, response string) bool {
	haystack := strings.ToLower(response)
	for _, word := range strings.FieldsFunc(strings.ToLower(requirement), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if fillers[word] {
			continue
		}
		if strings.Contains(haystack, word) {
			return true
		}
	}
	return false
}

// Satisfied is the ideal judge: positive criteria MET, negative criteria UNMET
func Satisfied(requirement string, negative bool, response string) bool {
	return !negative
}

// Violated is the worst judge: positive criteria UNMET, negative criteria MET
func Violated(requirement string, negative bool, response string) bool {
	return negative
}

// Table decides by exact requirement text; unknown requirements fall back
func Table(met map[string]bool, fallback Decider) Decider {
	return func(requirement string, negative bool, response string) bool {
		if v, ok := met[requirement]; ok {
			return v
		}
		if fallback != nil {
			return fallback(requirement, negative, response)
		}
		return false
	}
}
