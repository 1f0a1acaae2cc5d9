package definitions

import "github.com/abhisek/explainit/internal/llm"

// DefinitionSchema is the structured output contract for definition lookups.
var DefinitionSchema = &llm.Schema{
	Name:        "concept-definition",
	Description: "A concise definition of a concept within a topic",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"definition": map[string]any{
				"type":        "string",
				"description": "One or two sentences defining the concept",
			},
			"examples": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Short concrete examples",
			},
		},
		"required":             []any{"definition", "examples"},
		"additionalProperties": false,
	},
}

const definitionPrompt = `You write short, precise definitions for learners.
Define the concept in the context of the given topic. Avoid jargon that is not
itself part of the topic. Give at most three brief examples.`
