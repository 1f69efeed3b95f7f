package testkit

import (
	"context"
	"errors"
	"testing"

	"github.com/snow-ghost/rubric/autograder"
	"github.com/snow-ghost/rubric/llm/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_Run_IdealJudge(t *testing.T) {
	grader := autograder.NewPerCriterionGrader(mock.NewJudge(mock.Satisfied))
	cases := SampleCasesFixed()

	metrics, results, pass, err := NewRunner().Run(context.Background(), grader, cases)
	require.NoError(t, err)

	assert.True(t, pass)
	assert.Equal(t, float64(len(cases)), metrics["cases_total"])
	assert.Equal(t, float64(len(cases)), metrics["cases_passed"])
	assert.InDelta(t, 0.0, metrics["mean_abs_error"], 1e-9)
	require.Len(t, results, len(cases))
	assert.Equal(t, "capital_answer", results[0].Name)
}

func TestRunner_Run_WorstJudge(t *testing.T) {
	grader := autograder.NewOneShotGrader(mock.NewJudge(mock.Violated))

	metrics, results, pass, err := NewRunner().Run(context.Background(), grader, SampleCasesFixed())
	require.NoError(t, err)

	assert.False(t, pass)
	assert.Equal(t, 0.0, metrics["cases_passed"])
	assert.InDelta(t, 1.0, metrics["mean_abs_error"], 1e-9)
	for _, r := range results {
		assert.Equal(t, 0.0, r.Score)
	}
}

func TestRunner_Run_GradingError(t *testing.T) {
	grader := autograder.NewPerCriterionGrader(mock.Failing(errors.New("provider down")))

	metrics, results, pass, err := NewRunner().Run(context.Background(), grader, SampleCasesFixed()[:1])
	require.NoError(t, err)

	assert.False(t, pass)
	assert.Equal(t, 1.0, metrics["cases_failed"])
	assert.Contains(t, results[0].Error, "provider down")
}

func TestWithinTolerance(t *testing.T) {
	assert.True(t, withinTolerance(Case{WantScore: 0.5}, 0.54))
	assert.False(t, withinTolerance(Case{WantScore: 0.5}, 0.56))
	assert.True(t, withinTolerance(Case{WantScore: 0.5, Tolerance: 0.2}, 0.65))
}
