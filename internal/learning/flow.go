// Package learning runs a learner's explanation through grading,
// proficiency tracking and concept discovery.
package learning

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/explainit/internal/concept"
	"github.com/abhisek/explainit/internal/grading"
	"github.com/abhisek/explainit/internal/hierarchy"
	"github.com/abhisek/explainit/internal/proficiency"
	"github.com/abhisek/explainit/internal/questions"
	"github.com/abhisek/explainit/internal/store"
)

// Topics loads and saves whole topics.
type Topics interface {
	Load(ctx context.Context, id uuid.UUID) (concept.Topic, error)
	Save(ctx context.Context, t concept.Topic) error
}

// Events records proficiency changes.
type Events interface {
	AppendInteraction(ctx context.Context, data store.InteractionEventData) error
}

// Deps wires a Flow. Events and Questions are optional.
type Deps struct {
	Topics    Topics
	Events    Events
	Hierarchy *hierarchy.Service
	Oracle    grading.Oracle
	Manager   *proficiency.Manager
	Questions questions.Generator
	Logger    *zap.Logger
}

// Flow ties one explanation to grading, proficiency updates and discovered
// concepts. It holds no state between calls.
type Flow struct {
	topics    Topics
	events    Events
	hierarchy *hierarchy.Service
	oracle    grading.Oracle
	manager   *proficiency.Manager
	questions questions.Generator
	logger    *zap.Logger
}

// New returns a Flow over d. A nil logger discards logs.
func New(d Deps) *Flow {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Flow{
		topics:    d.Topics,
		events:    d.Events,
		hierarchy: d.Hierarchy,
		oracle:    d.Oracle,
		manager:   d.Manager,
		questions: d.Questions,
		logger:    logger.Named("learning"),
	}
}

// ExplainInput is one learner answer to a question about a concept.
type ExplainInput struct {
	TopicID     uuid.UUID
	ConceptName string
	Question    questions.Question
	Response    string
}

// Outcome is what an explanation changed.
type Outcome struct {
	Analysis grading.Analysis
	Result   proficiency.Result

	// Concept is the explained concept after the update.
	Concept concept.Concept

	// Added lists concepts discovered in the response and inserted into
	// the topic.
	Added []concept.Concept

	Topic concept.Topic
}

// Explain grades the response, applies the feedback to the concept and
// its ancestors, inserts newly mentioned concepts and saves the topic.
func (f *Flow) Explain(ctx context.Context, in ExplainInput) (Outcome, error) {
	if strings.TrimSpace(in.Response) == "" {
		return Outcome{}, grading.ErrEmptyResponse
	}

	topic, err := f.topics.Load(ctx, in.TopicID)
	if err != nil {
		return Outcome{}, fmt.Errorf("load topic: %w", err)
	}
	forest := &topic.Forest

	target, ok := f.hierarchy.FindByName(in.ConceptName, forest)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %q in topic %q", concept.ErrConceptNotFound, in.ConceptName, topic.Name)
	}

	segments, err := f.oracle.Grade(ctx, grading.Input{
		Question: in.Question,
		Response: in.Response,
		Known:    known(forest),
	})
	if err != nil {
		return Outcome{}, err
	}
	analysis := grading.Analyze(segments)

	result := f.manager.UpdateFromFeedback(ctx, target, analysis, forest, topic.ID)
	added := f.addDiscovered(analysis, target.ID, forest)

	if err := f.topics.Save(ctx, topic); err != nil {
		return Outcome{}, fmt.Errorf("save topic: %w", err)
	}
	f.record(ctx, topic.ID, *target, result, forest)

	f.logger.Info("explanation graded",
		zap.String("topic", topic.Name),
		zap.String("concept", target.Name),
		zap.Float64("grade", analysis.OverallGrade),
		zap.Float64("impact", result.ScoreImpact),
		zap.Int("new_concepts", len(added)))

	return Outcome{
		Analysis: analysis,
		Result:   result,
		Concept:  target.Clone(),
		Added:    added,
		Topic:    topic,
	}, nil
}

// addDiscovered inserts segments flagged as new concepts. A segment is
// attached to the related concept the grader named, or to the explained
// concept. Names already present in the topic are skipped.
func (f *Flow) addDiscovered(analysis grading.Analysis, defaultParent uuid.UUID, forest *concept.Forest) []concept.Concept {
	var added []concept.Concept
	for _, seg := range analysis.Segments {
		if !seg.IsNewConcept || seg.Concept == "" {
			continue
		}
		if _, exists := f.hierarchy.FindByName(seg.Concept, forest); exists {
			f.logger.Debug("discovered concept already known", zap.String("concept", seg.Concept))
			continue
		}

		parent := defaultParent
		if seg.RelatedToConceptID != nil {
			if _, ok := forest.Get(*seg.RelatedToConceptID); ok {
				parent = *seg.RelatedToConceptID
			}
		}

		c := concept.New(seg.Concept)
		c.Definition = seg.Definition
		err := f.hierarchy.Add(c, &parent, forest)
		switch {
		case err == nil:
			stored, _ := forest.Get(c.ID)
			added = append(added, stored.Clone())
		case errors.Is(err, concept.ErrMaxDepthExceeded),
			errors.Is(err, concept.ErrConceptAlreadyExists),
			errors.Is(err, concept.ErrDuplicateConceptInPath):
			f.logger.Info("skipping discovered concept", zap.String("concept", seg.Concept), zap.Error(err))
		default:
			f.logger.Warn("could not add discovered concept", zap.String("concept", seg.Concept), zap.Error(err))
		}
	}
	return added
}

func (f *Flow) record(ctx context.Context, topicID uuid.UUID, target concept.Concept, result proficiency.Result, forest *concept.Forest) {
	if f.events == nil {
		return
	}

	events := []store.InteractionEventData{{
		TopicID:         topicID,
		ConceptID:       target.ID,
		ConceptName:     target.Name,
		InteractionType: string(result.Interaction.Type),
		ScoreImpact:     result.ScoreImpact,
		ScoreAfter:      result.Score,
		Confidence:      result.Confidence,
		FeedbackID:      result.Interaction.FeedbackID,
		Details:         result.Interaction.Details,
	}}
	for _, a := range result.Ancestors {
		if a.Err != nil {
			continue
		}
		ev := store.InteractionEventData{
			TopicID:         topicID,
			ConceptID:       a.ConceptID,
			ConceptName:     a.Name,
			InteractionType: string(concept.InteractionIndirect),
			ScoreImpact:     a.Impact,
			ScoreAfter:      a.Score,
			FeedbackID:      result.Interaction.FeedbackID,
			Details:         "Indirect update from sub-concept: " + target.Name,
		}
		if c, ok := forest.Get(a.ConceptID); ok && c.Proficiency != nil {
			ev.Confidence = c.Proficiency.Confidence
		}
		events = append(events, ev)
	}

	for _, ev := range events {
		if err := f.events.AppendInteraction(ctx, ev); err != nil {
			f.logger.Warn("failed to record interaction", zap.String("concept", ev.ConceptName), zap.Error(err))
		}
	}
}

func known(forest *concept.Forest) []grading.KnownConcept {
	out := make([]grading.KnownConcept, 0, forest.Len())
	forest.Walk(func(c *concept.Concept, _ int) bool {
		out = append(out, grading.KnownConcept{ID: c.ID, Name: c.Name})
		return true
	})
	return out
}
