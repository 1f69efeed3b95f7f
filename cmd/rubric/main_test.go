package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/snow-ghost/rubric/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRubric = `
criteria:
  - weight: 1
    requirement: Mentions Paris
  - weight: -1
    requirement: Contains profanity
`

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func setupEnv(t *testing.T) (rubricPath, historyPath string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("RUBRIC_CONFIG", "")
	t.Setenv("RUBRIC_LOG_LEVEL", "error")
	historyPath = filepath.Join(dir, "history.db")
	t.Setenv("RUBRIC_HISTORY_PATH", historyPath)

	rubricPath = filepath.Join(dir, "rubric.yaml")
	require.NoError(t, os.WriteFile(rubricPath, []byte(testRubric), 0644))
	return rubricPath, historyPath
}

func TestGradeCommand_JSON(t *testing.T) {
	rubricPath, _ := setupEnv(t)

	out, err := execute(t, "", "grade", "--provider", "mock", "-r", rubricPath, "-t", "Paris is lovely", "-o", "json")
	require.NoError(t, err)

	var report core.EvaluationReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 1.0, report.Score)
	assert.Equal(t, 1.0, report.RawScore)
	require.Len(t, report.Report, 2)
	assert.Equal(t, core.Met, report.Report[0].Verdict)
	assert.Equal(t, core.Unmet, report.Report[1].Verdict)
}

func TestGradeCommand_StdinText(t *testing.T) {
	rubricPath, _ := setupEnv(t)

	out, err := execute(t, "Rome is lovely", "grade", "--provider", "mock", "-r", rubricPath, "-i", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Score: 0.000 (raw 0.000)")
	assert.Contains(t, out, "Mentions Paris")
}

func TestGradeCommand_Errors(t *testing.T) {
	rubricPath, _ := setupEnv(t)

	_, err := execute(t, "", "grade", "--provider", "mock", "-t", "x")
	assert.Error(t, err, "rubric flag is required")

	_, err = execute(t, "", "grade", "--provider", "mock", "-r", rubricPath, "-t", "x", "--strategy", "vibes")
	assert.ErrorContains(t, err, "invalid config")

	_, err = execute(t, "", "grade", "--provider", "mock", "-r", rubricPath, "-t", "x", "-o", "xml")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestGradeSaveAndHistory(t *testing.T) {
	rubricPath, _ := setupEnv(t)

	_, err := execute(t, "", "grade", "--provider", "mock", "-r", rubricPath, "-t", "Paris", "--save", "-q", "capital?")
	require.NoError(t, err)

	out, err := execute(t, "", "history", "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "per_criterion")

	id := strings.Fields(lines[1])[0]
	out, err = execute(t, "", "history", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, `"query": "capital?"`)

	_, err = execute(t, "", "history", "delete", id)
	require.NoError(t, err)
	_, err = execute(t, "", "history", "show", id)
	assert.Error(t, err)
}

func TestCalibrateCommand(t *testing.T) {
	setupEnv(t)

	// the keyword judge cannot tell complete sentences apart, so the first case misses
	out, err := execute(t, "", "calibrate", "--provider", "mock", "--sample")
	assert.ErrorContains(t, err, "1 of 2 cases outside tolerance")
	assert.Contains(t, out, "capital_answer")
	assert.Contains(t, out, "cases_passed: 1")

	_, err = execute(t, "", "calibrate", "--provider", "mock")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "rubric dev"))
}
