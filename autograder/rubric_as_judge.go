package autograder

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/snow-ghost/rubric/core"
)

// OutOfRangePolicy decides how a holistic score outside [0, ScaleMax] is treated
type OutOfRangePolicy int

const (
	// Clamp pins the normalized score into [0, 1]
	Clamp OutOfRangePolicy = iota
	// Reject treats the response as unparseable
	Reject
)

// DefaultScaleMax is the top of the holistic scoring scale
const DefaultScaleMax = 100.0

// ErrScoreOutOfRange is the parse failure cause under the Reject policy
var ErrScoreOutOfRange = errors.New("overall score out of range")

// HolisticResult is the raw result of a holistic judgement. Err holds the
// parse failure, if any.
type HolisticResult struct {
	Output RubricAsJudgeOutput
	Err    error
}

// RubricAsJudgeGrader asks the judge for one overall score instead of
// per-criterion verdicts. Its reports carry no per-criterion breakdown.
type RubricAsJudgeGrader struct {
	*Base
	scaleMax float64
	policy   OutOfRangePolicy
}

var (
	_ Grader                   = (*RubricAsJudgeGrader)(nil)
	_ Workflow[HolisticResult] = (*RubricAsJudgeGrader)(nil)
)

// NewRubricAsJudgeGrader creates the holistic strategy on a 0-100 scale
// with the Clamp policy
func NewRubricAsJudgeGrader(gen core.Generator, opts ...Option) *RubricAsJudgeGrader {
	return &RubricAsJudgeGrader{
		Base:     NewBase(gen, opts...),
		scaleMax: DefaultScaleMax,
		policy:   Clamp,
	}
}

// SetScaleMax sets the top of the scoring scale; non-positive values are ignored
func (g *RubricAsJudgeGrader) SetScaleMax(scale float64) *RubricAsJudgeGrader {
	if scale > 0 {
		g.scaleMax = scale
	}
	return g
}

// SetOutOfRangePolicy sets the out-of-range policy
func (g *RubricAsJudgeGrader) SetOutOfRangePolicy(p OutOfRangePolicy) *RubricAsJudgeGrader {
	g.policy = p
	return g
}

// Name implements Workflow
func (g *RubricAsJudgeGrader) Name() string { return "rubric_as_judge" }

// Grade implements Grader
func (g *RubricAsJudgeGrader) Grade(ctx context.Context, text string, criteria []core.Criterion, query string) (core.EvaluationReport, error) {
	return Run[HolisticResult](ctx, g.Base, g, text, criteria, query)
}

// Judge asks for one overall score
func (g *RubricAsJudgeGrader) Judge(ctx context.Context, input core.GradeInput, criteria []core.Criterion, query string) (HolisticResult, error) {
	system := fmt.Sprintf(rubricAsJudgeSystemPrompt, strconv.FormatFloat(g.scaleMax, 'f', -1, 64))
	raw, err := g.call(ctx, g.Name(), -1, system, rubricAsJudgePrompt(criteria, input.Output, query))
	if err != nil {
		return HolisticResult{}, fmt.Errorf("judge rubric: %w", err)
	}

	var result HolisticResult
	result.Err = decode(raw, &result.Output)
	return result, nil
}

// Aggregate normalizes the overall score by the scale. An unparseable or
// rejected response scores 0.
func (g *RubricAsJudgeGrader) Aggregate(ctx context.Context, result HolisticResult) (core.EvaluationReport, error) {
	if result.Err == nil {
		x := *result.Output.OverallScore
		if g.policy == Reject && (x < 0 || x > g.scaleMax) {
			result.Err = fmt.Errorf("%w: %g not in [0, %g]", ErrScoreOutOfRange, x, g.scaleMax)
		} else {
			return core.EvaluationReport{Score: clamp01(x / g.scaleMax), RawScore: x}, nil
		}
	}

	g.parseFailure(ctx, g.Name(), -1, "", result.Err)
	return core.EvaluationReport{Score: 0, RawScore: 0}, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
