package learning

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/abhisek/explainit/internal/concept"
	"github.com/abhisek/explainit/internal/questions"
)

// ErrNoGenerator is returned by Questions when Deps.Questions was nil.
var ErrNoGenerator = errors.New("no question generator configured")

// Questions generates questions for a concept of the topic, or for the
// topic as a whole when conceptName is empty.
func (f *Flow) Questions(ctx context.Context, topicID uuid.UUID, conceptName string) ([]questions.Question, error) {
	if f.questions == nil {
		return nil, ErrNoGenerator
	}

	topic, err := f.topics.Load(ctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("load topic: %w", err)
	}

	if conceptName == "" {
		return f.questions.ForTopic(ctx, topic.Name, names(topic.Forest.RootNodes()))
	}

	c, ok := f.hierarchy.FindByName(conceptName, &topic.Forest)
	if !ok {
		return nil, fmt.Errorf("%w: %q in topic %q", concept.ErrConceptNotFound, conceptName, topic.Name)
	}
	return f.questions.ForConcept(ctx, *c, names(topic.Forest.Children(c.ID)), topic.Name)
}

func names(cs []*concept.Concept) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Name)
	}
	return out
}
