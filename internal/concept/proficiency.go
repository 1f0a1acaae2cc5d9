package concept

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Score and confidence bounds.
const (
	MinScore          = 0.0
	MaxScore          = 100.0
	InitialConfidence = 0.3
	MaxConfidence     = 1.0
)

// InteractionType classifies what produced a proficiency change.
type InteractionType string

const (
	InteractionExplanation InteractionType = "explanation"
	InteractionQuiz        InteractionType = "quiz"
	InteractionReview      InteractionType = "review"
	InteractionDecay       InteractionType = "decay"
	InteractionIndirect    InteractionType = "indirect"
)

// Interaction is one entry of a concept's learning history.
type Interaction struct {
	Date        time.Time       `json:"date"`
	Type        InteractionType `json:"type"`
	ScoreImpact float64         `json:"score_impact"`
	ScoreAfter  float64         `json:"score_after"`
	Details     string          `json:"details"`
	FeedbackID  *uuid.UUID      `json:"feedback_id,omitempty"`
}

// Proficiency is the scored state of a concept. A concept without one is
// unscored; EnsureProficiency performs the one-way transition.
type Proficiency struct {
	ConceptID       uuid.UUID     `json:"concept_id"`
	Score           float64       `json:"score"`
	Confidence      float64       `json:"confidence"`
	LastInteraction time.Time     `json:"last_interaction"`
	Interactions    []Interaction `json:"interactions,omitempty"`
}

// NewProficiency returns the initial scored state for a concept.
func NewProficiency(conceptID uuid.UUID, now time.Time) Proficiency {
	return Proficiency{
		ConceptID:       conceptID,
		Score:           MinScore,
		Confidence:      InitialConfidence,
		LastInteraction: now,
	}
}

// EnsureProficiency moves the concept into the scored state if it is not
// already there and returns its proficiency.
func (c *Concept) EnsureProficiency(now time.Time) *Proficiency {
	if c.Proficiency == nil {
		p := NewProficiency(c.ID, now)
		c.Proficiency = &p
	}
	return c.Proficiency
}

// MasteryLevel maps the score to its mastery band.
func (p *Proficiency) MasteryLevel() MasteryLevel {
	return LevelForScore(p.Score)
}

// Recent returns up to n of the latest interactions, oldest first.
func (p *Proficiency) Recent(n int) []Interaction {
	if n <= 0 || len(p.Interactions) == 0 {
		return nil
	}
	start := max(0, len(p.Interactions)-n)
	return p.Interactions[start:]
}

// Clone returns a deep copy of the proficiency.
func (p *Proficiency) Clone() Proficiency {
	out := *p
	out.Interactions = slices.Clone(p.Interactions)
	for i := range out.Interactions {
		if fid := out.Interactions[i].FeedbackID; fid != nil {
			v := *fid
			out.Interactions[i].FeedbackID = &v
		}
	}
	return out
}

// MasteryLevel is a coarse band over the 0-100 score.
type MasteryLevel string

const (
	LevelNovice       MasteryLevel = "novice"
	LevelBeginner     MasteryLevel = "beginner"
	LevelIntermediate MasteryLevel = "intermediate"
	LevelAdvanced     MasteryLevel = "advanced"
	LevelExpert       MasteryLevel = "expert"
)

// LevelForScore returns the band a score falls into.
func LevelForScore(score float64) MasteryLevel {
	switch {
	case score < 40:
		return LevelNovice
	case score < 60:
		return LevelBeginner
	case score < 75:
		return LevelIntermediate
	case score < 90:
		return LevelAdvanced
	default:
		return LevelExpert
	}
}

// Description returns a short human-readable explanation of the level.
func (l MasteryLevel) Description() string {
	switch l {
	case LevelNovice:
		return "Just starting to learn this concept"
	case LevelBeginner:
		return "Basic understanding, needs practice"
	case LevelIntermediate:
		return "Good grasp of the fundamentals"
	case LevelAdvanced:
		return "Strong understanding with minor gaps"
	case LevelExpert:
		return "Complete mastery of the concept"
	default:
		return ""
	}
}
