package autograder

import (
	"context"
	"fmt"

	"github.com/snow-ghost/rubric/core"
)

// OneShotGrader judges the whole rubric with a single generator call
type OneShotGrader struct {
	*Base
}

var (
	_ Grader                           = (*OneShotGrader)(nil)
	_ Workflow[[]core.CriterionReport] = (*OneShotGrader)(nil)
)

// NewOneShotGrader creates the single-call strategy
func NewOneShotGrader(gen core.Generator, opts ...Option) *OneShotGrader {
	return &OneShotGrader{Base: NewBase(gen, opts...)}
}

// Name implements Workflow
func (g *OneShotGrader) Name() string { return "one_shot" }

// Grade implements Grader
func (g *OneShotGrader) Grade(ctx context.Context, text string, criteria []core.Criterion, query string) (core.EvaluationReport, error) {
	return Run[[]core.CriterionReport](ctx, g.Base, g, text, criteria, query)
}

// Judge maps the numbered evaluations back onto the rubric. Entries with an
// out-of-range or repeated number are ignored; criteria left without a valid
// entry get the conservative default.
func (g *OneShotGrader) Judge(ctx context.Context, input core.GradeInput, criteria []core.Criterion, query string) ([]core.CriterionReport, error) {
	if len(criteria) == 0 {
		return []core.CriterionReport{}, nil
	}

	raw, err := g.call(ctx, g.Name(), -1, oneShotSystemPrompt, oneShotPrompt(criteria, input.Output, query))
	if err != nil {
		return nil, fmt.Errorf("judge rubric: %w", err)
	}

	results := make([]core.CriterionReport, len(criteria))
	judged := make([]bool, len(criteria))

	var parsed OneShotOutput
	if err := decode(raw, &parsed); err != nil {
		for i, c := range criteria {
			g.parseFailure(ctx, g.Name(), i, c.Requirement, err)
			results[i] = core.DefaultReport(c, err)
		}
		return results, nil
	}

	for _, eval := range parsed.CriteriaEvaluations {
		i := eval.CriterionNumber - 1
		if i < 0 || i >= len(criteria) || judged[i] {
			continue
		}
		verdict, err := core.ParseVerdict(eval.CriterionStatus)
		if err != nil {
			continue
		}
		results[i] = core.CriterionReport{Criterion: criteria[i], Verdict: verdict, Reason: eval.Explanation}
		judged[i] = true
	}

	for i, c := range criteria {
		if judged[i] {
			continue
		}
		err := fmt.Errorf("no valid evaluation for criterion %d", i+1)
		g.parseFailure(ctx, g.Name(), i, c.Requirement, err)
		results[i] = core.DefaultReport(c, err)
	}

	return results, nil
}

// Aggregate reduces the reports with core.Aggregate
func (g *OneShotGrader) Aggregate(ctx context.Context, results []core.CriterionReport) (core.EvaluationReport, error) {
	return core.NewEvaluationReport(results), nil
}
