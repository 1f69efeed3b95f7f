package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/snow-ghost/rubric/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleRecord(strategy string, at time.Time) *Record {
	criteria := []core.Criterion{
		{Weight: 2, Requirement: "Mentions Paris"},
		{Weight: -1, Requirement: "Contains profanity"},
	}
	return &Record{
		Strategy: strategy,
		Model:    "gpt-4o-mini",
		Query:    "What is the capital of France?",
		Criteria: criteria,
		Report: core.EvaluationReport{
			Score:    1,
			RawScore: 2,
			Report: []core.CriterionReport{
				{Criterion: criteria[0], Verdict: core.Met, Reason: "says Paris"},
				{Criterion: criteria[1], Verdict: core.Unmet, Reason: "clean"},
			},
		},
		CreatedAt: at,
	}
}

func TestStore_SaveGet(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	rec := sampleRecord("per_criterion", time.Time{})
	require.NoError(t, s.Save(ctx, rec))
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Strategy, got.Strategy)
	assert.Equal(t, rec.Query, got.Query)
	assert.Equal(t, rec.Criteria, got.Criteria)
	assert.Equal(t, rec.Report, got.Report)
	assert.WithinDuration(t, rec.CreatedAt, got.CreatedAt, time.Millisecond)

	_, err = s.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_List(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Save(ctx, sampleRecord("per_criterion", base)))
	require.NoError(t, s.Save(ctx, sampleRecord("one_shot", base.Add(time.Hour))))
	require.NoError(t, s.Save(ctx, sampleRecord("per_criterion", base.Add(2*time.Hour))))

	all, err := s.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].CreatedAt.After(all[1].CreatedAt))

	perCriterion, err := s.List(ctx, Filter{Strategy: "per_criterion"})
	require.NoError(t, err)
	assert.Len(t, perCriterion, 2)

	recent, err := s.List(ctx, Filter{Since: base.Add(30 * time.Minute), Limit: 1})
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, base.Add(2*time.Hour), recent[0].CreatedAt)
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	rec := sampleRecord("one_shot", time.Time{})
	require.NoError(t, s.Save(ctx, rec))
	require.NoError(t, s.Delete(ctx, rec.ID))
	require.NoError(t, s.Delete(ctx, rec.ID))

	_, err := s.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_EmptyReport(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	defer s.Close()

	rec := &Record{Strategy: "rubric_as_judge", Report: core.EvaluationReport{Score: 0.4, RawScore: 40}}
	require.NoError(t, s.Save(ctx, rec))

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Report.Report)
	assert.Nil(t, got.Criteria)
	assert.InDelta(t, 40, got.Report.RawScore, 1e-9)
}
