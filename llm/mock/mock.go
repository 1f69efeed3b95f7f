// Package mock provides offline judges that speak the autograder prompt and
// response formats. They back tests and the CLI's mock provider.
package mock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/snow-ghost/rubric/core"
)

// Decider reports whether a criterion is MET for response. For a negative
// criterion MET means the error is present.
type Decider func(requirement string, negative bool, response string) bool

var (
	criterionPattern = regexp.MustCompile(`(?s)<criterion>\s*(.*?)\s*</criterion>`)
	typePattern      = regexp.MustCompile(`<criterion_type>\s*(\w+)\s*</criterion_type>`)
	responsePattern  = regexp.MustCompile(`(?s)<response>\n?(.*?)\n?</response>`)
	numberedPattern  = regexp.MustCompile(`(?m)^(\d+)\. <criterion_type>(\w+)</criterion_type> (.*)$`)
	weightedPattern  = regexp.MustCompile(`(?m)^\[(-?[0-9.eE+]+)\] (.*)$`)
	scalePattern     = regexp.MustCompile(`from 0 to ([0-9.]+)`)
)

// Judge answers per-criterion, one-shot and holistic prompts using a Decider
type Judge struct {
	decide Decider

	mu      sync.Mutex
	prompts []string
}

var _ core.Generator = (*Judge)(nil)

// NewJudge creates a judge; a nil decider uses Keywords
func NewJudge(decide Decider) *Judge {
	if decide == nil {
		decide = Keywords
	}
	return &Judge{decide: decide}
}

// Generate implements core.Generator
func (j *Judge) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	j.mu.Lock()
	j.prompts = append(j.prompts, userPrompt)
	j.mu.Unlock()

	response := ""
	if m := responsePattern.FindStringSubmatch(userPrompt); m != nil {
		response = m[1]
	}

	switch {
	case strings.Contains(userPrompt, "<criterion>"):
		return j.perCriterion(userPrompt, response)
	case strings.Contains(userPrompt, "<criteria>"):
		return j.oneShot(userPrompt, response)
	case strings.Contains(userPrompt, "<rubric>"):
		return j.holistic(systemPrompt, userPrompt, response)
	default:
		return "", errors.New("mock judge: unrecognized prompt")
	}
}

// Calls returns how many prompts the judge has answered
func (j *Judge) Calls() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.prompts)
}

// Prompts returns a copy of the user prompts received so far
func (j *Judge) Prompts() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.prompts...)
}

func (j *Judge) perCriterion(prompt, response string) (string, error) {
	m := criterionPattern.FindStringSubmatch(prompt)
	if m == nil {
		return "", errors.New("mock judge: criterion not found")
	}
	negative := false
	if t := typePattern.FindStringSubmatch(prompt); t != nil {
		negative = strings.EqualFold(t[1], "negative")
	}

	met := j.decide(m[1], negative, response)
	return marshal(map[string]string{
		"criterion_status": string(verdict(met)),
		"explanation":      explain(met, negative),
	})
}

func (j *Judge) oneShot(prompt, response string) (string, error) {
	type evaluation struct {
		Number      int    `json:"criterion_number"`
		Status      string `json:"criterion_status"`
		Explanation string `json:"explanation"`
	}

	var evals []evaluation
	for _, m := range numberedPattern.FindAllStringSubmatch(prompt, -1) {
		n, _ := strconv.Atoi(m[1])
		negative := strings.EqualFold(m[2], "negative")
		met := j.decide(m[3], negative, response)
		evals = append(evals, evaluation{Number: n, Status: string(verdict(met)), Explanation: explain(met, negative)})
	}

	return marshal(map[string]interface{}{"criteria_evaluations": evals})
}

func (j *Judge) holistic(system, prompt, response string) (string, error) {
	scale := 100.0
	if m := scalePattern.FindStringSubmatch(system); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 {
			scale = v
		}
	}

	var reports []core.CriterionReport
	for _, m := range weightedPattern.FindAllStringSubmatch(prompt, -1) {
		w, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		c := core.Criterion{Weight: w, Requirement: m[2]}
		reports = append(reports, core.CriterionReport{Criterion: c, Verdict: verdict(j.decide(c.Requirement, c.IsNegative(), response))})
	}

	score, _ := core.Aggregate(reports)
	return marshal(map[string]interface{}{
		"overall_score": score * scale,
		"explanation":   fmt.Sprintf("%d criteria weighed", len(reports)),
	})
}

func verdict(met bool) core.Verdict {
	if met {
		return core.Met
	}
	return core.Unmet
}

func explain(met, negative bool) string {
	switch {
	case negative && met:
		return "Error detected in the output."
	case negative:
		return "Error not present in the output."
	case met:
		return "Requirement satisfied by the submission."
	default:
		return "Requirement not satisfied by the submission."
	}
}

func marshal(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
