package grading

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
)

// FeedbackType classifies one graded segment of a learner response.
type FeedbackType string

const (
	FeedbackCorrect          FeedbackType = "correct"
	FeedbackPartiallyCorrect FeedbackType = "partially_correct"
	FeedbackIncorrect        FeedbackType = "incorrect"
	FeedbackIrrelevant       FeedbackType = "irrelevant"
)

// ParseFeedbackType accepts the canonical names plus the spaced and camel
// case spellings of "partially correct" that graders tend to emit.
func ParseFeedbackType(s string) (FeedbackType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "correct":
		return FeedbackCorrect, nil
	case "partially_correct", "partially correct", "partiallycorrect", "partially-correct":
		return FeedbackPartiallyCorrect, nil
	case "incorrect":
		return FeedbackIncorrect, nil
	case "irrelevant":
		return FeedbackIrrelevant, nil
	}
	return "", fmt.Errorf("unknown feedback type %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *FeedbackType) UnmarshalText(text []byte) error {
	parsed, err := ParseFeedbackType(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// BaseScore is the grade contribution of a segment before its bonus.
func (f FeedbackType) BaseScore() float64 {
	switch f {
	case FeedbackCorrect:
		return 1.0
	case FeedbackPartiallyCorrect:
		return 0.5
	default:
		return 0
	}
}

// Segment is one graded span of a learner response. Concept is empty
// exactly when the segment is irrelevant.
type Segment struct {
	Text               string       `json:"text"`
	Type               FeedbackType `json:"feedback_type"`
	Explanation        string       `json:"explanation"`
	Concept            string       `json:"concept,omitempty"`
	KeyPointsAddressed []string     `json:"key_points_addressed,omitempty"`
	CriteriaMatched    []string     `json:"criteria_matched,omitempty"`
	IsNewConcept       bool         `json:"is_new_concept,omitempty"`
	RelatedToConceptID *uuid.UUID   `json:"related_to_concept_id,omitempty"`
	Definition         string       `json:"definition,omitempty"`
}

// Analysis is the result of grading one response.
type Analysis struct {
	ID           uuid.UUID `json:"id"`
	Segments     []Segment `json:"segments"`
	OverallGrade float64   `json:"overall_grade"`
}

// Analyze builds an analysis with a fresh id and the overall grade of the
// segments.
func Analyze(segments []Segment) Analysis {
	return Analysis{
		ID:           uuid.New(),
		Segments:     segments,
		OverallGrade: OverallGrade(segments),
	}
}

// Count returns how many segments carry the given feedback type.
func (a Analysis) Count(t FeedbackType) int {
	n := 0
	for _, s := range a.Segments {
		if s.Type == t {
			n++
		}
	}
	return n
}

// Concepts returns the distinct concept names addressed by the analysis in
// first-seen order.
func (a Analysis) Concepts() []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range a.Segments {
		key := strings.ToLower(s.Concept)
		if s.Concept == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s.Concept)
	}
	return out
}

const (
	bonusPerMatch = 0.1
	maxBonus      = 0.5
)

// OverallGrade averages per-segment scores. Each segment earns its base
// score plus 0.1 per key point or criterion it hits, capped at 0.5; the
// average is clamped to [0, 1]. No segments grade as 0.
func OverallGrade(segments []Segment) float64 {
	if len(segments) == 0 {
		return 0
	}
	var total float64
	for _, s := range segments {
		matches := len(s.KeyPointsAddressed) + len(s.CriteriaMatched)
		total += s.Type.BaseScore() + math.Min(maxBonus, bonusPerMatch*float64(matches))
	}
	return math.Max(0, math.Min(1, total/float64(len(segments))))
}
