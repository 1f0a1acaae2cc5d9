// Package review summarizes a session: which concepts improved, what to do
// next and which concepts came up.
package review

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/abhisek/explainit/internal/concept"
	"github.com/abhisek/explainit/internal/grading"
)

// Suggestions offered after a review.
const (
	SuggestReviewWeak    = "Review weak concepts"
	SuggestAdvanced      = "Try advanced questions"
	SuggestExploreTopics = "Explore related topics"
)

const (
	weakScore     = 60
	advancedScore = 80
)

// ConceptProgress compares a concept's score before and after its latest
// interaction.
type ConceptProgress struct {
	ConceptID     uuid.UUID
	Name          string
	PreviousScore float64
	CurrentScore  float64
	Level         concept.MasteryLevel
}

func (p ConceptProgress) Improvement() float64 {
	return p.CurrentScore - p.PreviousScore
}

// Progress lists the scored concepts of forest whose current score is above
// the score they had before their latest interaction, largest improvement
// first. A concept with a single interaction is compared against zero.
func Progress(forest *concept.Forest) []ConceptProgress {
	var out []ConceptProgress
	forest.Walk(func(c *concept.Concept, _ int) bool {
		p := c.Proficiency
		if p == nil {
			return true
		}
		var previous float64
		if n := len(p.Interactions); n >= 2 {
			previous = p.Interactions[n-2].ScoreAfter
		}
		if p.Score <= previous {
			return true
		}
		out = append(out, ConceptProgress{
			ConceptID:     c.ID,
			Name:          c.Name,
			PreviousScore: previous,
			CurrentScore:  p.Score,
			Level:         p.MasteryLevel(),
		})
		return true
	})

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Improvement() > out[j].Improvement()
	})
	return out
}

// Suggestions proposes next steps from the progress list. Exploring related
// topics is always offered last.
func Suggestions(progress []ConceptProgress) []string {
	var weak, advanced bool
	for _, p := range progress {
		if p.CurrentScore < weakScore {
			weak = true
		}
		if p.CurrentScore >= advancedScore {
			advanced = true
		}
	}

	var out []string
	if weak {
		out = append(out, SuggestReviewWeak)
	}
	if advanced {
		out = append(out, SuggestAdvanced)
	}
	return append(out, SuggestExploreTopics)
}

// NewConcepts returns the distinct concept names addressed across analyses,
// sorted case-insensitively.
func NewConcepts(analyses []grading.Analysis) []string {
	seen := make(map[string]bool)
	var out []string
	for _, a := range analyses {
		for _, name := range a.Concepts() {
			key := strings.ToLower(name)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, name)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out
}
