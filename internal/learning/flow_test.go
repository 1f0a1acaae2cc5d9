package learning

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/abhisek/explainit/internal/concept"
	"github.com/abhisek/explainit/internal/grading"
	"github.com/abhisek/explainit/internal/hierarchy"
	"github.com/abhisek/explainit/internal/proficiency"
	"github.com/abhisek/explainit/internal/questions"
	"github.com/abhisek/explainit/internal/store"
)

var testNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

type memTopics struct {
	topics map[uuid.UUID]concept.Topic
	saves  int
}

func (m *memTopics) Load(_ context.Context, id uuid.UUID) (concept.Topic, error) {
	t, ok := m.topics[id]
	if !ok {
		return concept.Topic{}, concept.ErrTopicNotFound
	}
	return t.Clone(), nil
}

func (m *memTopics) Save(_ context.Context, t concept.Topic) error {
	m.saves++
	m.topics[t.ID] = t.Clone()
	return nil
}

func (m *memTopics) List(_ context.Context) ([]concept.Topic, error) {
	var out []concept.Topic
	for _, t := range m.topics {
		out = append(out, t.Clone())
	}
	return out, nil
}

type memEvents struct {
	events []store.InteractionEventData
	err    error
}

func (m *memEvents) AppendInteraction(_ context.Context, data store.InteractionEventData) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, data)
	return nil
}

type fakeOracle struct {
	segments []grading.Segment
	err      error
	last     grading.Input
}

func (o *fakeOracle) Grade(_ context.Context, in grading.Input) ([]grading.Segment, error) {
	o.last = in
	return o.segments, o.err
}

type fakeGenerator struct {
	topic       string
	concept     string
	subConcepts []string
	roots       []string
}

func (g *fakeGenerator) ForConcept(_ context.Context, c concept.Concept, subConcepts []string, topicName string) ([]questions.Question, error) {
	g.concept, g.subConcepts, g.topic = c.Name, subConcepts, topicName
	return []questions.Question{{Text: "Explain " + c.Name}}, nil
}

func (g *fakeGenerator) ForTopic(_ context.Context, topicName string, rootConcepts []string) ([]questions.Question, error) {
	g.topic, g.roots = topicName, rootConcepts
	return []questions.Question{{Text: "Explain " + topicName}}, nil
}

type fixture struct {
	flow   *Flow
	topics *memTopics
	events *memEvents
	oracle *fakeOracle
	gen    *fakeGenerator
	topic  concept.Topic
	root   concept.Concept
	child  concept.Concept
}

// newFixture builds a "Calculus" topic with Calculus > Derivatives.
func newFixture(t *testing.T, logger *zap.Logger) *fixture {
	t.Helper()
	topics := &memTopics{topics: map[uuid.UUID]concept.Topic{}}
	h := hierarchy.New(topics, logger)

	topic := concept.NewTopic("Calculus", "∫", testNow)
	root := concept.New("Calculus")
	require.NoError(t, h.Add(root, nil, &topic.Forest))
	child := concept.New("Derivatives")
	require.NoError(t, h.Add(child, &root.ID, &topic.Forest))
	topics.topics[topic.ID] = topic

	m := proficiency.NewManager(proficiency.DefaultConfig(), h, logger)
	m.Now = func() time.Time { return testNow }

	f := &fixture{
		topics: topics,
		events: &memEvents{},
		oracle: &fakeOracle{},
		gen:    &fakeGenerator{},
		topic:  topic,
		root:   root,
		child:  child,
	}
	f.flow = New(Deps{
		Topics:    topics,
		Events:    f.events,
		Hierarchy: h,
		Oracle:    f.oracle,
		Manager:   m,
		Questions: f.gen,
		Logger:    logger,
	})
	return f
}

func (f *fixture) saved(t *testing.T) concept.Topic {
	t.Helper()
	return f.topics.topics[f.topic.ID]
}

func TestExplain_UpdatesConceptAndAncestor(t *testing.T) {
	f := newFixture(t, nil)
	f.oracle.segments = []grading.Segment{
		{Text: "slope of the tangent", Type: grading.FeedbackCorrect, Concept: "Derivatives",
			KeyPointsAddressed: []string{"slope", "tangent", "limit", "rate"}},
		{Text: "rate of change", Type: grading.FeedbackCorrect, Concept: "Rate of change"},
	}

	out, err := f.flow.Explain(context.Background(), ExplainInput{
		TopicID:     f.topic.ID,
		ConceptName: "derivatives",
		Question:    questions.Question{Text: "What is a derivative?"},
		Response:    "It is the slope of the tangent line.",
	})
	require.NoError(t, err)

	// grade 1.0 → (1.0-0.5)*20 + min(5, 4/2) = 12, scaled by confidence 0.3.
	assert.InDelta(t, 1.0, out.Analysis.OverallGrade, 1e-9)
	assert.InDelta(t, 12.0, out.Result.ScoreImpact, 1e-9)
	require.NotNil(t, out.Concept.Proficiency)
	assert.InDelta(t, 3.6, out.Concept.Proficiency.Score, 1e-9)

	require.Len(t, out.Result.Ancestors, 1)
	assert.InDelta(t, 3.6, out.Result.Ancestors[0].Impact, 1e-9)

	saved := f.saved(t)
	root, ok := saved.Forest.Get(f.root.ID)
	require.True(t, ok)
	require.NotNil(t, root.Proficiency)
	assert.InDelta(t, 1.08, root.Proficiency.Score, 1e-9)
	assert.Equal(t, concept.InteractionIndirect, root.Proficiency.Interactions[0].Type)

	child, _ := saved.Forest.Get(f.child.ID)
	assert.InDelta(t, 3.6, child.Proficiency.Score, 1e-9)
	assert.Equal(t, 1, f.topics.saves)

	require.Len(t, f.events.events, 2)
	assert.Equal(t, f.child.ID, f.events.events[0].ConceptID)
	assert.Equal(t, string(concept.InteractionExplanation), f.events.events[0].InteractionType)
	assert.Equal(t, f.root.ID, f.events.events[1].ConceptID)
	assert.Equal(t, string(concept.InteractionIndirect), f.events.events[1].InteractionType)
	assert.InDelta(t, 1.08, f.events.events[1].ScoreAfter, 1e-9)

	assert.Len(t, f.oracle.last.Known, 2)
	assert.Empty(t, out.Added)
}

func TestExplain_AddsDiscoveredConcepts(t *testing.T) {
	f := newFixture(t, nil)
	rootID := f.root.ID
	f.oracle.segments = []grading.Segment{
		{Type: grading.FeedbackCorrect, Concept: "Chain Rule", IsNewConcept: true, Definition: "Derivative of a composition"},
		{Type: grading.FeedbackPartiallyCorrect, Concept: "Integrals", IsNewConcept: true, RelatedToConceptID: &rootID},
		{Type: grading.FeedbackCorrect, Concept: "Chain rule", IsNewConcept: true},
		{Type: grading.FeedbackCorrect, Concept: "Derivatives", IsNewConcept: true},
	}

	out, err := f.flow.Explain(context.Background(), ExplainInput{
		TopicID:     f.topic.ID,
		ConceptName: "Derivatives",
		Response:    "The chain rule composes derivatives; integrals undo them.",
	})
	require.NoError(t, err)
	require.Len(t, out.Added, 2)

	saved := f.saved(t)
	chain := out.Added[0]
	assert.Equal(t, "Chain Rule", chain.Name)
	assert.Equal(t, "Derivative of a composition", chain.Definition)
	require.NotNil(t, chain.ParentID)
	assert.Equal(t, f.child.ID, *chain.ParentID)
	assert.Equal(t, 2, chain.Metadata.Depth)
	assert.Equal(t, []uuid.UUID{f.root.ID, f.child.ID, chain.ID}, chain.Metadata.Path)

	integrals := out.Added[1]
	require.NotNil(t, integrals.ParentID)
	assert.Equal(t, f.root.ID, *integrals.ParentID)

	assert.Equal(t, 4, saved.Forest.Len())
	assert.Len(t, saved.Forest.Children(f.root.ID), 2)
}

func TestExplain_DiscoveredConceptAtMaxDepthSkipped(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	f := newFixture(t, zap.New(core))

	// Extend the chain to depth MaxDepth-1 and explain the deepest concept.
	topic := f.saved(t)
	h := hierarchy.New(f.topics, nil)
	parent := f.child.ID
	var deepest concept.Concept
	for d := 2; d < concept.MaxDepth; d++ {
		deepest = concept.New("Level " + string(rune('A'+d)))
		require.NoError(t, h.Add(deepest, &parent, &topic.Forest))
		parent = deepest.ID
	}
	f.topics.topics[topic.ID] = topic

	f.oracle.segments = []grading.Segment{
		{Type: grading.FeedbackCorrect, Concept: "Too Deep", IsNewConcept: true},
	}
	out, err := f.flow.Explain(context.Background(), ExplainInput{
		TopicID:     topic.ID,
		ConceptName: deepest.Name,
		Response:    "Going deeper.",
	})
	require.NoError(t, err)
	assert.Empty(t, out.Added)
	assert.Equal(t, 1, logs.FilterMessage("skipping discovered concept").Len())
	assert.Len(t, out.Result.Ancestors, concept.MaxDepth-1)
}

func TestExplain_EmptyResponse(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.flow.Explain(context.Background(), ExplainInput{TopicID: f.topic.ID, ConceptName: "Derivatives", Response: "  "})
	assert.ErrorIs(t, err, grading.ErrEmptyResponse)
	assert.Equal(t, 0, f.topics.saves)
}

func TestExplain_UnknownConcept(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.flow.Explain(context.Background(), ExplainInput{TopicID: f.topic.ID, ConceptName: "Topology", Response: "Open sets."})
	assert.ErrorIs(t, err, concept.ErrConceptNotFound)
}

func TestExplain_UnknownTopic(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.flow.Explain(context.Background(), ExplainInput{TopicID: uuid.New(), ConceptName: "Derivatives", Response: "Slopes."})
	assert.ErrorIs(t, err, concept.ErrTopicNotFound)
}

func TestExplain_GradingFailureLeavesTopicUntouched(t *testing.T) {
	f := newFixture(t, nil)
	f.oracle.err = errors.New("grader offline")

	_, err := f.flow.Explain(context.Background(), ExplainInput{TopicID: f.topic.ID, ConceptName: "Derivatives", Response: "Slopes."})
	assert.ErrorContains(t, err, "grader offline")
	assert.Equal(t, 0, f.topics.saves)
	assert.Empty(t, f.events.events)
}

func TestExplain_EventFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	f := newFixture(t, zap.New(core))
	f.events.err = errors.New("disk full")
	f.oracle.segments = []grading.Segment{{Type: grading.FeedbackIncorrect, Concept: "Derivatives"}}

	out, err := f.flow.Explain(context.Background(), ExplainInput{TopicID: f.topic.ID, ConceptName: "Derivatives", Response: "It is an area."})
	require.NoError(t, err)
	assert.Less(t, out.Result.ScoreImpact, 0.0)
	assert.Equal(t, 2, logs.FilterMessage("failed to record interaction").Len())
}

func TestQuestions_ForConcept(t *testing.T) {
	f := newFixture(t, nil)

	qs, err := f.flow.Questions(context.Background(), f.topic.ID, "calculus")
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, "Calculus", f.gen.concept)
	assert.Equal(t, []string{"Derivatives"}, f.gen.subConcepts)
	assert.Equal(t, "Calculus", f.gen.topic)
}

func TestQuestions_ForTopic(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.flow.Questions(context.Background(), f.topic.ID, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Calculus"}, f.gen.roots)
}

func TestQuestions_NoGenerator(t *testing.T) {
	flow := New(Deps{})
	_, err := flow.Questions(context.Background(), uuid.New(), "")
	assert.ErrorIs(t, err, ErrNoGenerator)
}
