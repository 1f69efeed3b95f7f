package autograder

import (
	"context"
	"fmt"

	"github.com/snow-ghost/rubric/core"
	"golang.org/x/sync/errgroup"
)

// PerCriterionGrader judges every criterion with its own generator call.
// Calls run concurrently; each writes only its own slot so the report keeps
// rubric order.
type PerCriterionGrader struct {
	*Base
}

var (
	_ Grader                           = (*PerCriterionGrader)(nil)
	_ Workflow[[]core.CriterionReport] = (*PerCriterionGrader)(nil)
)

// NewPerCriterionGrader creates the reference grading strategy
func NewPerCriterionGrader(gen core.Generator, opts ...Option) *PerCriterionGrader {
	return &PerCriterionGrader{Base: NewBase(gen, opts...)}
}

// Name implements Workflow
func (g *PerCriterionGrader) Name() string { return "per_criterion" }

// Grade implements Grader
func (g *PerCriterionGrader) Grade(ctx context.Context, text string, criteria []core.Criterion, query string) (core.EvaluationReport, error) {
	return Run[[]core.CriterionReport](ctx, g.Base, g, text, criteria, query)
}

// Judge fans out one call per criterion. A generator error cancels the
// remaining calls and fails the whole judgement; an unparseable response
// falls back to the conservative default for that criterion only.
func (g *PerCriterionGrader) Judge(ctx context.Context, input core.GradeInput, criteria []core.Criterion, query string) ([]core.CriterionReport, error) {
	results := make([]core.CriterionReport, len(criteria))

	eg, egCtx := errgroup.WithContext(ctx)
	if g.maxConcurrency > 0 {
		eg.SetLimit(g.maxConcurrency)
	}

	for i, c := range criteria {
		i, c := i, c
		eg.Go(func() error {
			report, err := g.judgeCriterion(egCtx, i, c, input.Output, query)
			if err != nil {
				return fmt.Errorf("judge criterion %d: %w", i+1, err)
			}
			results[i] = report
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (g *PerCriterionGrader) judgeCriterion(ctx context.Context, index int, c core.Criterion, output, query string) (core.CriterionReport, error) {
	raw, err := g.call(ctx, g.Name(), index, perCriterionSystemPrompt, perCriterionPrompt(c, output, query))
	if err != nil {
		return core.CriterionReport{}, err
	}

	var parsed PerCriterionOutput
	if err := decode(raw, &parsed); err != nil {
		g.parseFailure(ctx, g.Name(), index, c.Requirement, err)
		return core.DefaultReport(c, err), nil
	}

	verdict, _ := core.ParseVerdict(parsed.CriterionStatus)
	return core.CriterionReport{Criterion: c, Verdict: verdict, Reason: parsed.Explanation}, nil
}

// Aggregate reduces the per-criterion reports with core.Aggregate
func (g *PerCriterionGrader) Aggregate(ctx context.Context, results []core.CriterionReport) (core.EvaluationReport, error) {
	return core.NewEvaluationReport(results), nil
}
