package grading

import (
	"fmt"
	"strings"
)

const gradingPrompt = `You grade a learner's explanation against a model answer and rubric.

Rules:
- Split the learner's response into meaningful segments, usually one sentence each, and grade every segment.
- Use "correct", "partially_correct", "incorrect" or "irrelevant" as feedback_type.
- Every segment that is not irrelevant names the concept it is about. Irrelevant segments use an empty concept.
- List the rubric key points and grading criteria each segment satisfies, using their exact wording.
- When a segment introduces a concept that is not among the known concepts, set is_new_concept, give a one-sentence definition and, if it belongs under a known concept, that concept's id.
- Be encouraging but accurate. Do not reward vague statements.`

func gradingMessage(in Input) string {
	var b strings.Builder
	q := in.Question

	fmt.Fprintf(&b, "Question: %s\n", q.Text)
	fmt.Fprintf(&b, "Model answer: %s\n", q.ModelAnswer)

	b.WriteString("\nKey points:\n")
	for _, kp := range q.Rubric.KeyPoints {
		fmt.Fprintf(&b, "- %s\n", kp)
	}
	b.WriteString("\nRequired concepts:\n")
	for _, rc := range q.Rubric.RequiredConcepts {
		fmt.Fprintf(&b, "- %s\n", rc)
	}
	b.WriteString("\nGrading criteria:\n")
	for _, c := range q.Rubric.GradingCriteria {
		fmt.Fprintf(&b, "- %s (weight %.2f)\n", c.Description, c.Weight)
	}

	if len(in.Known) > 0 {
		b.WriteString("\nKnown concepts:\n")
		for _, k := range in.Known {
			fmt.Fprintf(&b, "- %s (id: %s)\n", k.Name, k.ID)
		}
	}

	fmt.Fprintf(&b, "\nLearner response:\n%s\n", strings.TrimSpace(in.Response))
	return b.String()
}
