package testkit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/snow-ghost/rubric/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCases(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cases.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadCases(t *testing.T) {
	doc := `
cases:
  - name: paris
    text: Paris is the capital of France.
    want_score: 1
    tolerance: 0.1
    criteria:
      - weight: 1
        requirement: Mentions Paris
`
	cases, err := LoadCases(writeCases(t, doc))
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, "paris", cases[0].Name)
	assert.Equal(t, 0.1, cases[0].Tolerance)
	assert.Equal(t, []core.Criterion{{Weight: 1, Requirement: "Mentions Paris"}}, cases[0].Criteria)

	list := `[{"name":"a","text":"x","want_score":0,"criteria":[]}]`
	cases, err = LoadCases(writeCases(t, list))
	require.NoError(t, err)
	assert.Len(t, cases, 1)
}

func TestLoadCases_Errors(t *testing.T) {
	_, err := LoadCases(filepath.Join(t.TempDir(), "none.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadCases(writeCases(t, "- text: no name\n"))
	assert.ErrorContains(t, err, "name is required")

	_, err = LoadCases(writeCases(t, "- name: a\n  criteria:\n    - weight: 1\n      requirement: \"\"\n"))
	assert.ErrorIs(t, err, core.ErrInvalidCriterion)
}
