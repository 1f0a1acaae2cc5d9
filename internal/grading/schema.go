package grading

import "github.com/abhisek/explainit/internal/llm"

func stringList(desc string) map[string]any {
	return map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "string"},
		"description": desc,
	}
}

// FeedbackSchema is the structured output contract for grading.
var FeedbackSchema = &llm.Schema{
	Name:        "explanation-feedback",
	Description: "Sentence-level feedback on a learner's explanation",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"segments": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"text": map[string]any{
							"type":        "string",
							"description": "The exact span of the learner's response being graded",
						},
						"feedback_type": map[string]any{
							"type": "string",
							"enum": []any{"correct", "partially_correct", "incorrect", "irrelevant"},
						},
						"explanation": map[string]any{
							"type":        "string",
							"description": "Why the span earned this feedback",
						},
						"concept": map[string]any{
							"type":        "string",
							"description": "Concept the span is about. Empty string only when feedback_type is irrelevant.",
						},
						"key_points_addressed": stringList("Rubric key points the span covers"),
						"criteria_matched":     stringList("Grading criteria the span satisfies"),
						"is_new_concept": map[string]any{
							"type":        "boolean",
							"description": "True when the concept is not among the known concepts",
						},
						"related_to_concept_id": map[string]any{
							"type":        "string",
							"description": "Id of the known concept this new concept belongs under, or empty string",
						},
						"definition": map[string]any{
							"type":        "string",
							"description": "One-sentence definition for a new concept, or empty string",
						},
					},
					"required": []any{
						"text", "feedback_type", "explanation", "concept", "key_points_addressed",
						"criteria_matched", "is_new_concept", "related_to_concept_id", "definition",
					},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"segments"},
		"additionalProperties": false,
	},
}
