package core

import (
	"fmt"
	"math"
	"strings"
)

// ParseFailureReason prefixes the reason of every criterion that fell back
// to a conservative default verdict.
const ParseFailureReason = "Error parsing judge response"

// Aggregate reduces judged criteria to a normalized score and the raw weighted sum.
//
// Rubrics with positive weight are normalized by the positive total and floored at 0.
// Rubrics made only of negative criteria are scored as 1 minus the triggered error share.
// An empty or all-zero rubric scores 1.
func Aggregate(reports []CriterionReport) (score, raw float64) {
	var weightedSum, positiveTotal, negativeTotal float64
	for _, r := range reports {
		if r.Verdict == Met {
			weightedSum += r.Weight
		}
		switch {
		case r.Weight > 0:
			positiveTotal += r.Weight
		case r.Weight < 0:
			negativeTotal += -r.Weight
		}
	}

	switch {
	case positiveTotal > 0:
		return clamp01(weightedSum / positiveTotal), weightedSum
	case negativeTotal > 0:
		return clamp01(1 + weightedSum/negativeTotal), weightedSum
	default:
		return 1, 0
	}
}

// NewEvaluationReport aggregates reports and attaches a copy of them.
func NewEvaluationReport(reports []CriterionReport) EvaluationReport {
	score, raw := Aggregate(reports)
	out := make([]CriterionReport, len(reports))
	copy(out, reports)
	return EvaluationReport{Score: score, RawScore: raw, Report: out}
}

// DefaultVerdict is the worst-case verdict for a criterion whose judge
// response could not be parsed: requirements are not met, errors are present.
func DefaultVerdict(c Criterion) Verdict {
	if c.IsNegative() {
		return Met
	}
	return Unmet
}

// DefaultReport builds the conservative fallback report for c.
func DefaultReport(c Criterion, cause error) CriterionReport {
	reason := ParseFailureReason
	if cause != nil {
		reason = fmt.Sprintf("%s: %v", ParseFailureReason, cause)
	}
	return CriterionReport{Criterion: c, Verdict: DefaultVerdict(c), Reason: reason}
}

// IsParseFailure reports whether r carries a conservative default verdict.
func IsParseFailure(r CriterionReport) bool {
	return strings.HasPrefix(r.Reason, ParseFailureReason)
}

// CountParseFailures returns how many reports fell back to defaults.
func CountParseFailures(reports []CriterionReport) int {
	n := 0
	for _, r := range reports {
		if IsParseFailure(r) {
			n++
		}
	}
	return n
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
