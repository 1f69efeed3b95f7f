package core

import (
	"fmt"
	"strings"
)

// Verdict is the judge's outcome for a single criterion.
// For a negative criterion MET means the undesirable condition is present.
type Verdict string

const (
	Met   Verdict = "MET"
	Unmet Verdict = "UNMET"
)

// ParseVerdict accepts MET/UNMET in any case, surrounded by whitespace.
func ParseVerdict(s string) (Verdict, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(Met):
		return Met, nil
	case string(Unmet):
		return Unmet, nil
	default:
		return "", fmt.Errorf("invalid verdict %q", s)
	}
}

// Criterion is a single weighted rubric requirement.
type Criterion struct {
	Weight      float64 `json:"weight" yaml:"weight"`
	Requirement string  `json:"requirement" yaml:"requirement"`
}

// IsNegative reports whether the criterion describes an error to detect.
func (c Criterion) IsNegative() bool { return c.Weight < 0 }

// Type returns "negative" for error criteria and "positive" otherwise.
func (c Criterion) Type() string {
	if c.IsNegative() {
		return "negative"
	}
	return "positive"
}

// Validate checks that the criterion carries a requirement.
func (c Criterion) Validate() error {
	if strings.TrimSpace(c.Requirement) == "" {
		return fmt.Errorf("%w: empty requirement", ErrInvalidCriterion)
	}
	return nil
}

// CriterionReport is a criterion with its resolved verdict.
type CriterionReport struct {
	Criterion
	Verdict Verdict `json:"verdict"`
	Reason  string  `json:"reason"`
}

// EvaluationReport is the result of a grading call.
// Score is always in [0, 1]; RawScore is the unnormalized weighted sum.
type EvaluationReport struct {
	Score    float64           `json:"score"`
	RawScore float64           `json:"raw_score"`
	Report   []CriterionReport `json:"report,omitempty"`
}

// GradeInput separates a submission's reasoning trace from its final output.
type GradeInput struct {
	Thinking string `json:"thinking,omitempty"`
	Output   string `json:"output"`
}
