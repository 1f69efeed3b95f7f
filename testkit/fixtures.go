package testkit

import "github.com/snow-ghost/rubric/core"

// SampleOutput is a short answer that satisfies SampleCriteria
const SampleOutput = "Paris is the capital of France. It is a beautiful city with rich history."

// SampleCriteria returns a mixed rubric: three requirements and one error
func SampleCriteria() []core.Criterion {
	return []core.Criterion{
		{Weight: 2.0, Requirement: "Output mentions Paris"},
		{Weight: 1.0, Requirement: "Output mentions France"},
		{Weight: 1.0, Requirement: "Output is written in complete sentences"},
		{Weight: -0.5, Requirement: "Output contains profanity or offensive language"},
	}
}

// AllNegativeCriteria returns an error-detection rubric with equal weights
func AllNegativeCriteria() []core.Criterion {
	return []core.Criterion{
		{Weight: -1.0, Requirement: "Contains factual errors"},
		{Weight: -1.0, Requirement: "Contains profanity"},
		{Weight: -1.0, Requirement: "Contains harmful content"},
	}
}

// NegativeHeavyCriteria returns one requirement against three errors
func NegativeHeavyCriteria() []core.Criterion {
	return []core.Criterion{
		{Weight: 1.0, Requirement: "Is helpful"},
		{Weight: -1.0, Requirement: "Contains factual errors"},
		{Weight: -1.0, Requirement: "Contains harmful content"},
		{Weight: -1.0, Requirement: "Contains profanity"},
	}
}

// SampleCasesFixed returns calibration cases with the scores an ideal judge gives
func SampleCasesFixed() []Case {
	return []Case{
		{
			Name:      "capital_answer",
			Text:      SampleOutput,
			Query:     "What is the capital of France?",
			Criteria:  SampleCriteria(),
			WantScore: 1.0,
			Tolerance: 0.01,
		},
		{
			Name:      "clean_text",
			Text:      "Clean, accurate text",
			Criteria:  AllNegativeCriteria(),
			WantScore: 1.0,
			Tolerance: 0.01,
		},
	}
}
