// Package testkit holds rubric fixtures and a calibration runner that checks
// a grader against cases with known scores.
package testkit

import (
	"context"
	"math"
	"time"

	"github.com/snow-ghost/rubric/autograder"
	"github.com/snow-ghost/rubric/core"
)

// Case is a submission with the score a trusted grader assigns it
type Case struct {
	Name      string           `json:"name" yaml:"name"`
	Text      string           `json:"text" yaml:"text"`
	Query     string           `json:"query,omitempty" yaml:"query,omitempty"`
	Criteria  []core.Criterion `json:"criteria" yaml:"criteria"`
	WantScore float64          `json:"want_score" yaml:"want_score"`
	Tolerance float64          `json:"tolerance,omitempty" yaml:"tolerance,omitempty"`
}

// DefaultTolerance applies to cases without an explicit tolerance
const DefaultTolerance = 0.05

// CaseResult is the outcome of one calibration case
type CaseResult struct {
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
	Want   float64 `json:"want"`
	Passed bool    `json:"passed"`
	Error  string  `json:"error,omitempty"`
}

// Runner grades calibration cases
type Runner struct{}

func NewRunner() *Runner { return &Runner{} }

// Run grades each case and aggregates metrics. A grading error fails the
// case without stopping the run.
func (r *Runner) Run(ctx context.Context, g autograder.Grader, cases []Case) (map[string]float64, []CaseResult, bool, error) {
	metrics := map[string]float64{
		"cases_total":       0,
		"cases_passed":      0,
		"cases_failed":      0,
		"duration_ms_total": 0,
		"mean_abs_error":    0,
	}
	results := make([]CaseResult, 0, len(cases))

	allPassed := true
	var absErr float64
	var graded int

	for _, tc := range cases {
		if err := ctx.Err(); err != nil {
			return metrics, results, false, err
		}

		start := time.Now()
		report, err := g.Grade(ctx, tc.Text, tc.Criteria, tc.Query)
		metrics["duration_ms_total"] += float64(time.Since(start).Milliseconds())
		metrics["cases_total"] += 1

		res := CaseResult{Name: tc.Name, Want: tc.WantScore}
		if err != nil {
			res.Error = err.Error()
		} else {
			res.Score = report.Score
			res.Passed = withinTolerance(tc, report.Score)
			absErr += math.Abs(report.Score - tc.WantScore)
			graded++
		}

		if res.Passed {
			metrics["cases_passed"] += 1
		} else {
			metrics["cases_failed"] += 1
			allPassed = false
		}
		results = append(results, res)
	}

	if graded > 0 {
		metrics["mean_abs_error"] = absErr / float64(graded)
	}

	return metrics, results, allPassed, nil
}

func withinTolerance(tc Case, score float64) bool {
	tol := tc.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}
	return math.Abs(score-tc.WantScore) <= tol
}
