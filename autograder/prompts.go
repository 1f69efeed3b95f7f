package autograder

import (
	"fmt"
	"strings"

	"github.com/snow-ghost/rubric/core"
)

const perCriterionSystemPrompt = `You are an expert grader. You judge a response against exactly one criterion.

The criterion has a type:
- positive: a requirement the response should satisfy. Answer "MET" if the response satisfies it, otherwise "UNMET".
- negative: an error the response should avoid. Answer "MET" if the error IS present in the response, otherwise "UNMET".

Judge only the text inside <response>. Use <query>, when given, as context for what was asked.

Reply with a single JSON object and nothing else:
{"criterion_status": "MET" or "UNMET", "explanation": "<one or two sentences>"}`

const oneShotSystemPrompt = `You are an expert grader. You judge a response against every criterion of a numbered rubric.

Each criterion has a type:
- positive: a requirement the response should satisfy. "MET" means it is satisfied.
- negative: an error the response should avoid. "MET" means the error IS present.

Judge only the text inside <response>. Use <query>, when given, as context for what was asked.

Reply with a single JSON object and nothing else, with one entry per criterion:
{"criteria_evaluations": [{"criterion_number": <n>, "criterion_status": "MET" or "UNMET", "explanation": "<short reason>"}]}`

const rubricAsJudgeSystemPrompt = `You are an expert grader. You read a weighted rubric and give the response one overall score.

Positive weights are requirements worth that many points. Negative weights are errors that cost that many points when present. Weigh the criteria by their weights.

Judge only the text inside <response>. Use <query>, when given, as context for what was asked.

Reply with a single JSON object and nothing else:
{"overall_score": <number from 0 to %s>, "explanation": "<short reason>"}`

func writeQuery(b *strings.Builder, query string) {
	if query == "" {
		return
	}
	b.WriteString("<query>\n")
	b.WriteString(query)
	b.WriteString("\n</query>\n\n")
}

func writeResponse(b *strings.Builder, output string) {
	b.WriteString("<response>\n")
	b.WriteString(output)
	b.WriteString("\n</response>")
}

// perCriterionPrompt builds the user prompt for one criterion
func perCriterionPrompt(c core.Criterion, output, query string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<criterion>\n%s\n</criterion>\n\n", c.Requirement)
	fmt.Fprintf(&b, "<criterion_type>%s</criterion_type>\n\n", c.Type())
	writeQuery(&b, query)
	writeResponse(&b, output)
	return b.String()
}

// oneShotPrompt lists every criterion numbered from 1
func oneShotPrompt(criteria []core.Criterion, output, query string) string {
	var b strings.Builder
	b.WriteString("<criteria>\n")
	for i, c := range criteria {
		fmt.Fprintf(&b, "%d. <criterion_type>%s</criterion_type> %s\n", i+1, c.Type(), c.Requirement)
	}
	b.WriteString("</criteria>\n\n")
	writeQuery(&b, query)
	writeResponse(&b, output)
	return b.String()
}

// rubricAsJudgePrompt lists the weighted rubric for a holistic score
func rubricAsJudgePrompt(criteria []core.Criterion, output, query string) string {
	var b strings.Builder
	b.WriteString("<rubric>\n")
	for _, c := range criteria {
		fmt.Fprintf(&b, "[%g] %s\n", c.Weight, c.Requirement)
	}
	b.WriteString("</rubric>\n\n")
	writeQuery(&b, query)
	writeResponse(&b, output)
	return b.String()
}
