package autograder

import (
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/snow-ghost/rubric/core"
)

// validate checks decoded judge responses
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// verdict accepts MET / UNMET in any case with surrounding whitespace
	_ = v.RegisterValidation("verdict", func(fl validator.FieldLevel) bool {
		if fl.Field().Kind() != reflect.String {
			return false
		}
		_, err := core.ParseVerdict(fl.Field().String())
		return err == nil
	})
	return v
}

// PerCriterionOutput is the judge response for a single criterion
type PerCriterionOutput struct {
	CriterionStatus string `json:"criterion_status" validate:"required,verdict"`
	Explanation     string `json:"explanation"`
}

// Validate reports whether the response is usable
func (o *PerCriterionOutput) Validate() error { return validate.Struct(o) }

// CriterionEvaluation is one entry of a one-shot judge response
type CriterionEvaluation struct {
	CriterionNumber int    `json:"criterion_number" validate:"min=1"`
	CriterionStatus string `json:"criterion_status" validate:"required,verdict"`
	Explanation     string `json:"explanation"`
}

// OneShotOutput is the judge response covering the whole rubric
type OneShotOutput struct {
	CriteriaEvaluations []CriterionEvaluation `json:"criteria_evaluations" validate:"required"`
}

// Validate checks the envelope only. Entries are validated one by one so a
// single bad entry does not discard the rest.
func (o *OneShotOutput) Validate() error { return validate.Struct(o) }

// RubricAsJudgeOutput is the holistic judge response
type RubricAsJudgeOutput struct {
	OverallScore *float64 `json:"overall_score" validate:"required"`
	Explanation  string   `json:"explanation"`
}

// Validate reports whether the response carries a score
func (o *RubricAsJudgeOutput) Validate() error { return validate.Struct(o) }
