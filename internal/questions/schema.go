package questions

import "github.com/abhisek/explainit/internal/llm"

var criterionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"description": map[string]any{
			"type":        "string",
			"description": "What the grader looks for",
		},
		"weight": map[string]any{
			"type":        "number",
			"minimum":     0,
			"maximum":     1,
			"description": "Share of the grade; all weights of a question sum to 1",
		},
		"examples": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "Short phrases that would satisfy the criterion",
		},
	},
	"required":             []any{"description", "weight", "examples"},
	"additionalProperties": false,
}

var questionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"text": map[string]any{
			"type":        "string",
			"description": "An open question asking the learner to explain, in their own words",
		},
		"model_answer": map[string]any{
			"type":        "string",
			"description": "A complete reference explanation",
		},
		"concepts": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "Names of the concepts the question exercises",
		},
		"rubric": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"key_points": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
				"required_concepts": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
				"grading_criteria": map[string]any{
					"type":  "array",
					"items": criterionSchema,
				},
			},
			"required":             []any{"key_points", "required_concepts", "grading_criteria"},
			"additionalProperties": false,
		},
	},
	"required":             []any{"text", "model_answer", "concepts", "rubric"},
	"additionalProperties": false,
}

// QuestionSetSchema is the structured output contract for question generation.
var QuestionSetSchema = &llm.Schema{
	Name:        "explain-questions",
	Description: "A set of open-ended questions with model answers and grading rubrics",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type":  "array",
				"items": questionSchema,
			},
		},
		"required":             []any{"questions"},
		"additionalProperties": false,
	},
}
