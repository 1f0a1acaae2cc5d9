package questions

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
)

// ErrInvalidRubric is returned when a rubric fails structural checks.
var ErrInvalidRubric = errors.New("invalid rubric")

// weightTolerance is how far criterion weights may sum away from 1.
const weightTolerance = 0.001

// Question is an open-ended prompt with a model answer and the rubric the
// grader applies to learner explanations.
type Question struct {
	ID          uuid.UUID `json:"id"`
	Text        string    `json:"text"`
	ModelAnswer string    `json:"model_answer"`
	Concepts    []string  `json:"concepts"`
	Rubric      Rubric    `json:"rubric"`
}

// Rubric lists what a good answer must cover.
type Rubric struct {
	KeyPoints        []string    `json:"key_points"`
	RequiredConcepts []string    `json:"required_concepts"`
	GradingCriteria  []Criterion `json:"grading_criteria"`
}

// Criterion is one weighted grading criterion.
type Criterion struct {
	Description string   `json:"description"`
	Weight      float64  `json:"weight"`
	Examples    []string `json:"examples"`
}

// Validate requires every list to be non-empty and the criterion weights,
// each within [0, 1], to sum to 1.
func (r Rubric) Validate() error {
	if len(r.KeyPoints) == 0 {
		return fmt.Errorf("%w: no key points", ErrInvalidRubric)
	}
	if len(r.RequiredConcepts) == 0 {
		return fmt.Errorf("%w: no required concepts", ErrInvalidRubric)
	}
	if len(r.GradingCriteria) == 0 {
		return fmt.Errorf("%w: no grading criteria", ErrInvalidRubric)
	}

	var sum float64
	for _, c := range r.GradingCriteria {
		if c.Weight < 0 || c.Weight > 1 {
			return fmt.Errorf("%w: criterion %q has weight %v", ErrInvalidRubric, c.Description, c.Weight)
		}
		sum += c.Weight
	}
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: criterion weights sum to %.3f", ErrInvalidRubric, sum)
	}
	return nil
}

// Validate checks the question text and its rubric.
func (q Question) Validate() error {
	if q.Text == "" {
		return errors.New("question text is empty")
	}
	if q.ModelAnswer == "" {
		return errors.New("model answer is empty")
	}
	return q.Rubric.Validate()
}
