package questions

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/abhisek/explainit/internal/concept"
	"github.com/abhisek/explainit/internal/llm"
)

func validRubric() Rubric {
	return Rubric{
		KeyPoints:        []string{"rate of change"},
		RequiredConcepts: []string{"Derivatives"},
		GradingCriteria: []Criterion{
			{Description: "defines the derivative", Weight: 0.6},
			{Description: "gives an example", Weight: 0.4},
		},
	}
}

func TestRubricValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *Rubric)
		ok     bool
	}{
		{"valid", func(*Rubric) {}, true},
		{"no key points", func(r *Rubric) { r.KeyPoints = nil }, false},
		{"no required concepts", func(r *Rubric) { r.RequiredConcepts = nil }, false},
		{"no criteria", func(r *Rubric) { r.GradingCriteria = nil }, false},
		{"weights under", func(r *Rubric) { r.GradingCriteria[1].Weight = 0.3 }, false},
		{"weight out of range", func(r *Rubric) {
			r.GradingCriteria[0].Weight = 1.2
			r.GradingCriteria[1].Weight = -0.2
		}, false},
		{"within tolerance", func(r *Rubric) { r.GradingCriteria[1].Weight = 0.4005 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRubric()
			tt.mutate(&r)
			err := r.Validate()
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidRubric) {
				t.Fatalf("expected ErrInvalidRubric, got %v", err)
			}
		})
	}
}

func questionJSON(weights ...float64) string {
	var criteria []string
	for _, w := range weights {
		c, _ := json.Marshal(Criterion{Description: "criterion", Weight: w, Examples: []string{}})
		criteria = append(criteria, string(c))
	}
	return `{
		"text": "Explain what a derivative measures.",
		"model_answer": "The instantaneous rate of change of a function.",
		"concepts": ["Derivatives"],
		"rubric": {
			"key_points": ["rate of change"],
			"required_concepts": ["Derivatives"],
			"grading_criteria": [` + strings.Join(criteria, ",") + `]
		}
	}`
}

func TestForConcept_FiltersInvalid(t *testing.T) {
	content := `{"questions": [` + questionJSON(0.5, 0.5) + `,` + questionJSON(0.5, 0.2) + `,` + questionJSON(1) + `]}`
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(content)})
	gen := NewGenerator(mock, DefaultConfig(), nil)

	c := concept.New("Derivatives")
	qs, err := gen.ForConcept(context.Background(), c, []string{"Chain rule"}, "Calculus")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("expected 2 valid questions, got %d", len(qs))
	}
	for _, q := range qs {
		if q.ID == uuid.Nil {
			t.Error("expected question id to be assigned")
		}
	}

	call := mock.Calls[0]
	if call.Schema != QuestionSetSchema {
		t.Error("expected question set schema")
	}
	msg := call.Messages[0].Content
	for _, want := range []string{"Derivatives", "Chain rule", "Calculus", "3 questions"} {
		if !strings.Contains(msg, want) {
			t.Errorf("prompt missing %q:\n%s", want, msg)
		}
	}
}

func TestForTopic_AllInvalid(t *testing.T) {
	content := `{"questions": [` + questionJSON(0.1) + `]}`
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(content)})
	gen := NewGenerator(mock, Config{Count: 1}, nil)

	_, err := gen.ForTopic(context.Background(), "Calculus", nil)
	if !errors.Is(err, ErrNoValidQuestions) {
		t.Fatalf("expected ErrNoValidQuestions, got %v", err)
	}
	if !strings.Contains(mock.Calls[0].Messages[0].Content, "1 questions") {
		t.Error("expected configured count in prompt")
	}
}

func TestForTopic_ProviderError(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{}})
	gen := NewGenerator(mock, DefaultConfig(), nil)

	_, err := gen.ForTopic(context.Background(), "Calculus", []string{"Limits"})
	var unavail *llm.ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}
