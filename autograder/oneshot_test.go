package autograder_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/snow-ghost/rubric/autograder"
	"github.com/snow-ghost/rubric/core"
	"github.com/snow-ghost/rubric/llm/mock"
	"github.com/snow-ghost/rubric/testkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type evaluation struct {
	Number      int    `json:"criterion_number"`
	Status      string `json:"criterion_status"`
	Explanation string `json:"explanation"`
}

func oneShotJSON(evals ...evaluation) string {
	data, _ := json.Marshal(map[string]interface{}{"criteria_evaluations": evals})
	return string(data)
}

func TestOneShotGrader_SampleRubric(t *testing.T) {
	raw := oneShotJSON(
		evaluation{1, "MET", "Requirement satisfied by the submission."},
		evaluation{2, "MET", "Requirement satisfied by the submission."},
		evaluation{3, "MET", "Requirement satisfied by the submission."},
		evaluation{4, "UNMET", "Error not present in the submission."},
	)
	seq := mock.NewSequence(raw)
	grader := autograder.NewOneShotGrader(seq)

	report, err := grader.Grade(context.Background(), testkit.SampleOutput, testkit.SampleCriteria(), "")
	require.NoError(t, err)

	assert.InDelta(t, 1.0, report.Score, 1e-9)
	assert.Equal(t, []core.Verdict{core.Met, core.Met, core.Met, core.Unmet}, verdicts(report))
	assert.Equal(t, "Error not present in the submission.", report.Report[3].Reason)
	assert.Equal(t, 1, seq.Calls(), "one generator call for the whole rubric")
}

func TestOneShotGrader_MapsByNumber(t *testing.T) {
	// out of order, out of range, duplicate and missing entries
	raw := oneShotJSON(
		evaluation{4, "MET", "profanity found"},
		evaluation{1, "MET", "first"},
		evaluation{1, "UNMET", "duplicate is ignored"},
		evaluation{9, "MET", "out of range"},
		evaluation{0, "MET", "out of range"},
		evaluation{2, "SOMETIMES", "invalid status"},
	)
	grader := autograder.NewOneShotGrader(mock.Static(raw))

	report, err := grader.Grade(context.Background(), "x", testkit.SampleCriteria(), "")
	require.NoError(t, err)

	require.Len(t, report.Report, 4)
	assert.Equal(t, core.Met, report.Report[0].Verdict)
	assert.Equal(t, "first", report.Report[0].Reason)
	assert.True(t, core.IsParseFailure(report.Report[1]))
	assert.Equal(t, core.Unmet, report.Report[1].Verdict)
	assert.True(t, core.IsParseFailure(report.Report[2]))
	assert.Equal(t, core.Met, report.Report[3].Verdict)
	assert.False(t, core.IsParseFailure(report.Report[3]))

	// 2.0 - 0.5 out of 4.0
	assert.InDelta(t, 0.375, report.Score, 1e-9)
}

func TestOneShotGrader_UnparseableResponse(t *testing.T) {
	grader := autograder.NewOneShotGrader(mock.Static("I refuse"))

	report, err := grader.Grade(context.Background(), "x", testkit.NegativeHeavyCriteria(), "")
	require.NoError(t, err)

	assert.Equal(t, 0.0, report.Score)
	assert.Equal(t, 4, core.CountParseFailures(report.Report))
	assert.Equal(t, []core.Verdict{core.Unmet, core.Met, core.Met, core.Met}, verdicts(report))
}

func TestOneShotGrader_WithMockJudge(t *testing.T) {
	judge := mock.NewJudge(mock.Satisfied)
	grader := autograder.NewOneShotGrader(judge)

	report, err := grader.Grade(context.Background(), testkit.SampleOutput, testkit.SampleCriteria(), "Capital?")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, report.Score, 1e-9)
	require.Len(t, judge.Prompts(), 1)
	assert.Contains(t, judge.Prompts()[0], "4. <criterion_type>negative</criterion_type> Output contains profanity")
}

func TestOneShotGrader_GeneratorError(t *testing.T) {
	boom := errors.New("timeout")
	_, err := autograder.NewOneShotGrader(mock.Failing(boom)).Grade(context.Background(), "x", testkit.SampleCriteria(), "")
	assert.ErrorIs(t, err, boom)
}

func TestOneShotGrader_EmptyRubricSkipsJudge(t *testing.T) {
	seq := mock.NewSequence()
	report, err := autograder.NewOneShotGrader(seq).Grade(context.Background(), "x", nil, "")
	require.NoError(t, err)
	assert.Equal(t, 1.0, report.Score)
	assert.Equal(t, 0, seq.Calls())
}
