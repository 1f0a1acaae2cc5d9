package questions

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are a tutor who checks understanding by asking learners to explain ideas in their own words.

Rules:
- Write open questions that cannot be answered with a single word or number.
- Each question must come with a complete model answer.
- The rubric lists the key points a good explanation covers, the concepts it must use, and weighted grading criteria.
- Criterion weights of one question must add up to exactly 1.
- Use the concept names given to you when listing concepts, and keep them short.`

func conceptMessage(conceptName, definition string, subConcepts []string, topicName string, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", topicName)
	fmt.Fprintf(&b, "Concept: %s\n", conceptName)
	if definition != "" {
		fmt.Fprintf(&b, "Definition: %s\n", definition)
	}
	if len(subConcepts) > 0 {
		fmt.Fprintf(&b, "Sub-concepts: %s\n", strings.Join(subConcepts, ", "))
	}
	fmt.Fprintf(&b, "\nGenerate %d questions about %s within %s.", count, conceptName, topicName)
	if len(subConcepts) > 0 {
		b.WriteString(" Questions should connect the concept to its sub-concepts.")
	}
	return b.String()
}

func topicMessage(topicName string, rootConcepts []string, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", topicName)
	if len(rootConcepts) > 0 {
		fmt.Fprintf(&b, "Known concepts: %s\n", strings.Join(rootConcepts, ", "))
	}
	fmt.Fprintf(&b, "\nGenerate %d questions covering the core ideas of %s.", count, topicName)
	return b.String()
}
