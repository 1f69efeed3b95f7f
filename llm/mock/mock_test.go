package mock

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePerCriterionPrompt = "<criterion>\nOutput mentions Paris\n</criterion>\n\n" +
	"<criterion_type>positive</criterion_type>\n\n" +
	"<response>\nParis is the capital of France.\n</response>"

func TestJudge_PerCriterion(t *testing.T) {
	judge := NewJudge(nil)

	out, err := judge.Generate(context.Background(), "system", samplePerCriterionPrompt)
	require.NoError(t, err)

	var parsed map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.Equal(t, "MET", parsed["criterion_status"])
	assert.Equal(t, "Requirement satisfied by the submission.", parsed["explanation"])
	assert.Equal(t, 1, judge.Calls())
	assert.Equal(t, []string{samplePerCriterionPrompt}, judge.Prompts())
}

func TestJudge_NegativeCriterion(t *testing.T) {
	judge := NewJudge(Keywords)
	prompt := "<criterion>\nOutput contains profanity\n</criterion>\n\n" +
		"<criterion_type>negative</criterion_type>\n\n" +
		"<response>\nA polite answer.\n</response>"

	out, err := judge.Generate(context.Background(), "", prompt)
	require.NoError(t, err)
	assert.Contains(t, out, `"criterion_status":"UNMET"`)
	assert.Contains(t, out, "Error not present")
}

func TestJudge_OneShot(t *testing.T) {
	judge := NewJudge(Satisfied)
	prompt := "<criteria>\n" +
		"1. <criterion_type>positive</criterion_type> Mentions Paris\n" +
		"2. <criterion_type>negative</criterion_type> Contains profanity\n" +
		"</criteria>\n\n<response>\nParis\n</response>"

	out, err := judge.Generate(context.Background(), "", prompt)
	require.NoError(t, err)

	var parsed struct {
		Evaluations []struct {
			Number int    `json:"criterion_number"`
			Status string `json:"criterion_status"`
		} `json:"criteria_evaluations"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	require.Len(t, parsed.Evaluations, 2)
	assert.Equal(t, 1, parsed.Evaluations[0].Number)
	assert.Equal(t, "MET", parsed.Evaluations[0].Status)
	assert.Equal(t, 2, parsed.Evaluations[1].Number)
	assert.Equal(t, "UNMET", parsed.Evaluations[1].Status)
}

func TestJudge_Holistic(t *testing.T) {
	judge := NewJudge(Table(map[string]bool{"Mentions Paris": true}, Violated))
	prompt := "<rubric>\n[3] Mentions Paris\n[1] Mentions Lyon\n[-1] Contains profanity\n</rubric>\n\n<response>\nParis\n</response>"

	out, err := judge.Generate(context.Background(), "Reply with {\"overall_score\": <number from 0 to 10>}", prompt)
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	// (3 - 1) / 4 on a 0-10 scale
	assert.InDelta(t, 5.0, parsed["overall_score"].(float64), 1e-9)
}

func TestJudge_UnknownPrompt(t *testing.T) {
	_, err := NewJudge(nil).Generate(context.Background(), "", "hello")
	assert.Error(t, err)
}

func TestJudge_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewJudge(nil).Generate(ctx, "", samplePerCriterionPrompt)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestKeywords(t *testing.T) {
	response := "Paris is the capital of France."
	assert.True(t, Keywords("Output mentions Paris", false, response))
	assert.True(t, Keywords("Mentions france", false, response))
	assert.False(t, Keywords("Output contains profanity or offensive language", true, response))
	assert.False(t, Keywords("Output is written in", false, response))
}

func TestScripted(t *testing.T) {
	seq := NewSequence("a", "b")
	for _, want := range []string{"a", "b", "b"} {
		got, err := seq.Generate(context.Background(), "", "")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, 3, seq.Calls())

	out, err := Static("x").Generate(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, "x", out)

	boom := errors.New("boom")
	_, err = Failing(boom).Generate(context.Background(), "", "")
	assert.ErrorIs(t, err, boom)
}
