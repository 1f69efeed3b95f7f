package autograder

import (
	"testing"

	"github.com/snow-ghost/rubric/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"prose", `Verdict: {"a":{"b":2}} done`, `{"a":{"b":2}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractJSON(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := extractJSON("no braces")
	assert.ErrorIs(t, err, ErrNoJSON)
	_, err = extractJSON("} backwards {")
	assert.ErrorIs(t, err, ErrNoJSON)
}

func TestDecode(t *testing.T) {
	var out PerCriterionOutput
	require.NoError(t, decode(`{"criterion_status":"unmet","explanation":"e"}`, &out))
	assert.Equal(t, "unmet", out.CriterionStatus)

	assert.Error(t, decode(`{"criterion_status":"yes"}`, &PerCriterionOutput{}))
	assert.Error(t, decode(`{"explanation":"no status"}`, &PerCriterionOutput{}))
	assert.Error(t, decode(`{"criterion_status":`, &PerCriterionOutput{}))

	var holistic RubricAsJudgeOutput
	require.NoError(t, decode(`{"overall_score": 0}`, &holistic))
	require.NotNil(t, holistic.OverallScore)
	assert.Equal(t, 0.0, *holistic.OverallScore)
	assert.Error(t, decode(`{"overall_score": null}`, &RubricAsJudgeOutput{}))
}

func TestPrompts(t *testing.T) {
	c := sampleCriterion()
	p := perCriterionPrompt(c, "out", "")
	assert.Contains(t, p, "<criterion>\nAvoids jargon\n</criterion>")
	assert.Contains(t, p, "<criterion_type>negative</criterion_type>")
	assert.NotContains(t, p, "<query>")
	assert.Contains(t, perCriterionPrompt(c, "out", "q"), "<query>\nq\n</query>")
}

func sampleCriterion() core.Criterion {
	return core.Criterion{Weight: -1, Requirement: "Avoids jargon"}
}
