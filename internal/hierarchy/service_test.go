package hierarchy

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/explainit/internal/concept"
)

type memTopics struct {
	topics map[uuid.UUID]concept.Topic
	order  []uuid.UUID
	saves  int
}

func newMemTopics(topics ...concept.Topic) *memTopics {
	m := &memTopics{topics: make(map[uuid.UUID]concept.Topic)}
	for _, t := range topics {
		m.topics[t.ID] = t.Clone()
		m.order = append(m.order, t.ID)
	}
	return m
}

func (m *memTopics) Load(_ context.Context, id uuid.UUID) (concept.Topic, error) {
	t, ok := m.topics[id]
	if !ok {
		return concept.Topic{}, concept.ErrTopicNotFound
	}
	return t.Clone(), nil
}

func (m *memTopics) Save(_ context.Context, t concept.Topic) error {
	if _, ok := m.topics[t.ID]; !ok {
		return concept.ErrTopicNotFound
	}
	m.saves++
	m.topics[t.ID] = t.Clone()
	return nil
}

func (m *memTopics) List(_ context.Context) ([]concept.Topic, error) {
	out := make([]concept.Topic, 0, len(m.order))
	for _, id := range m.order {
		topic := m.topics[id]
		out = append(out, topic.Clone())
	}
	return out, nil
}

func mustAdd(t *testing.T, s *Service, f *concept.Forest, name string, parent *concept.Concept) *concept.Concept {
	t.Helper()
	c := concept.New(name)
	var pid *uuid.UUID
	if parent != nil {
		pid = &parent.ID
	}
	require.NoError(t, s.Add(c, pid, f))
	node, ok := f.Get(c.ID)
	require.True(t, ok)
	return node
}

func TestAdd_RootAndChildMetadata(t *testing.T) {
	s := New(newMemTopics(), nil)
	f := concept.NewForest()

	calc := mustAdd(t, s, &f, "Calculus", nil)
	deriv := mustAdd(t, s, &f, "Derivatives", calc)
	chain := mustAdd(t, s, &f, "Chain rule", deriv)

	assert.Equal(t, []uuid.UUID{calc.ID}, f.Roots)
	assert.Equal(t, []uuid.UUID{deriv.ID}, calc.SubConcepts)
	assert.Equal(t, 2, chain.Metadata.Depth)
	assert.Equal(t, []uuid.UUID{calc.ID, deriv.ID, chain.ID}, chain.Metadata.Path)
	require.NotNil(t, chain.ParentID)
	assert.Equal(t, deriv.ID, *chain.ParentID)

	f.Walk(func(c *concept.Concept, depth int) bool {
		path := c.Metadata.Path
		assert.Equal(t, c.ID, path[len(path)-1], "path must end at %s", c.Name)
		assert.Equal(t, len(path)-1, c.Metadata.Depth)
		assert.Equal(t, depth, c.Metadata.Depth)
		return true
	})
}

func TestAdd_InvalidParent(t *testing.T) {
	s := New(newMemTopics(), nil)
	f := concept.NewForest()
	mustAdd(t, s, &f, "Calculus", nil)

	missing := uuid.New()
	err := s.Add(concept.New("Orphan"), &missing, &f)
	assert.ErrorIs(t, err, concept.ErrInvalidParentConcept)
	assert.Equal(t, 1, f.Len())
}

func TestAdd_DepthGuard(t *testing.T) {
	s := New(newMemTopics(), nil)
	f := concept.NewForest()

	parent := mustAdd(t, s, &f, "level-0", nil)
	for d := 1; d < concept.MaxDepth; d++ {
		parent = mustAdd(t, s, &f, fmt.Sprintf("level-%d", d), parent)
	}
	require.Equal(t, concept.MaxDepth-1, parent.Metadata.Depth)

	err := s.Add(concept.New("too deep"), &parent.ID, &f)
	assert.ErrorIs(t, err, concept.ErrMaxDepthExceeded)
	assert.Empty(t, parent.SubConcepts)
}

func TestAdd_DuplicateSiblingName(t *testing.T) {
	s := New(newMemTopics(), nil)
	f := concept.NewForest()
	calc := mustAdd(t, s, &f, "Calculus", nil)
	mustAdd(t, s, &f, "Limits", calc)

	err := s.Add(concept.New("limits"), &calc.ID, &f)
	assert.ErrorIs(t, err, concept.ErrConceptAlreadyExists)
	assert.Len(t, calc.SubConcepts, 1)

	err = s.Add(concept.New("CALCULUS"), nil, &f)
	assert.ErrorIs(t, err, concept.ErrConceptAlreadyExists)
	assert.Len(t, f.Roots, 1)
}

func TestAdd_SameNameUnderDifferentParents(t *testing.T) {
	s := New(newMemTopics(), nil)
	f := concept.NewForest()
	calc := mustAdd(t, s, &f, "Calculus", nil)
	alg := mustAdd(t, s, &f, "Algebra", nil)
	mustAdd(t, s, &f, "Functions", calc)
	mustAdd(t, s, &f, "Functions", alg)
	assert.Equal(t, 4, f.Len())
}

func TestAdd_RejectsExistingID(t *testing.T) {
	s := New(newMemTopics(), nil)
	f := concept.NewForest()
	calc := mustAdd(t, s, &f, "Calculus", nil)

	dup := concept.Concept{ID: calc.ID, Name: "Other"}
	assert.ErrorIs(t, s.Add(dup, nil, &f), concept.ErrDuplicateConceptInPath)
}

func TestAdd_ValidatesForestFirst(t *testing.T) {
	s := New(newMemTopics(), nil)
	f := concept.NewForest()
	calc := mustAdd(t, s, &f, "Calculus", nil)
	deriv := mustAdd(t, s, &f, "Derivatives", calc)
	deriv.SubConcepts = append(deriv.SubConcepts, calc.ID)

	err := s.Add(concept.New("Integrals"), &calc.ID, &f)
	assert.ErrorIs(t, err, concept.ErrCircularReference)
}

func TestCalculateUpdatedMetadata(t *testing.T) {
	s := New(newMemTopics(), nil)
	c := concept.New("Chain Rule")

	for d := 0; d <= concept.MaxDepth; d++ {
		t.Run(fmt.Sprintf("depth %d", d), func(t *testing.T) {
			parentPath := make([]uuid.UUID, d)
			for i := range parentPath {
				parentPath[i] = uuid.New()
			}
			original := make([]uuid.UUID, d)
			copy(original, parentPath)

			md := s.CalculateUpdatedMetadata(c, parentPath, d)
			assert.Equal(t, d, md.Depth)
			require.Len(t, md.Path, d+1)
			assert.Equal(t, c.ID, md.Path[d])
			assert.Equal(t, original, md.Path[:d])

			md.Path[0] = uuid.Nil
			assert.Equal(t, original, parentPath, "parent path must not be aliased")
		})
	}
}

func TestValidate(t *testing.T) {
	s := New(newMemTopics(), nil)

	t.Run("valid forest", func(t *testing.T) {
		f := concept.NewForest()
		calc := mustAdd(t, s, &f, "Calculus", nil)
		mustAdd(t, s, &f, "Derivatives", calc)
		before := f.Clone()

		assert.NoError(t, s.Validate(&f))
		assert.NoError(t, s.Validate(&f))
		assert.Equal(t, before, f, "validation must leave the forest untouched")
	})

	t.Run("circular reference", func(t *testing.T) {
		f := concept.NewForest()
		calc := mustAdd(t, s, &f, "Calculus", nil)
		deriv := mustAdd(t, s, &f, "Derivatives", calc)
		deriv.SubConcepts = []uuid.UUID{calc.ID}
		assert.ErrorIs(t, s.Validate(&f), concept.ErrCircularReference)
	})

	t.Run("shared child is a duplicate", func(t *testing.T) {
		f := concept.NewForest()
		calc := mustAdd(t, s, &f, "Calculus", nil)
		alg := mustAdd(t, s, &f, "Algebra", nil)
		fn := mustAdd(t, s, &f, "Functions", calc)
		alg.SubConcepts = append(alg.SubConcepts, fn.ID)
		assert.ErrorIs(t, s.Validate(&f), concept.ErrDuplicateConceptInPath)
	})

	t.Run("recorded depth too large", func(t *testing.T) {
		f := concept.NewForest()
		calc := mustAdd(t, s, &f, "Calculus", nil)
		calc.Metadata.Depth = concept.MaxDepth
		assert.ErrorIs(t, s.Validate(&f), concept.ErrMaxDepthExceeded)
	})

	t.Run("dangling child", func(t *testing.T) {
		f := concept.NewForest()
		calc := mustAdd(t, s, &f, "Calculus", nil)
		calc.SubConcepts = []uuid.UUID{uuid.New()}
		assert.ErrorIs(t, s.Validate(&f), concept.ErrConceptNotFound)
	})

	t.Run("nil forest", func(t *testing.T) {
		assert.NoError(t, s.Validate(nil))
	})
}

func TestFindByName_CaseInsensitivePreOrder(t *testing.T) {
	s := New(newMemTopics(), nil)
	f := concept.NewForest()
	calc := mustAdd(t, s, &f, "Calculus", nil)
	deriv := mustAdd(t, s, &f, "Derivatives", calc)
	deep := mustAdd(t, s, &f, "Limits", deriv)
	alg := mustAdd(t, s, &f, "Algebra", nil)
	mustAdd(t, s, &f, "Limits", alg)

	got, ok := s.FindByName("LIMITS", &f)
	require.True(t, ok)
	assert.Equal(t, deep.ID, got.ID)

	_, ok = s.FindByName("Topology", &f)
	assert.False(t, ok)
}

func TestUpdate_ReplacesInPlace(t *testing.T) {
	s := New(newMemTopics(), nil)
	f := concept.NewForest()
	calc := mustAdd(t, s, &f, "Calculus", nil)
	first := mustAdd(t, s, &f, "Limits", calc)
	mustAdd(t, s, &f, "Derivatives", calc)

	replacement := first.Clone()
	replacement.Definition = "the value a function approaches"
	require.NoError(t, s.Update(replacement, &f))

	got, _ := f.Get(first.ID)
	assert.Equal(t, "the value a function approaches", got.Definition)
	assert.Equal(t, first.ID, calc.SubConcepts[0])

	err := s.Update(concept.New("Nowhere"), &f)
	assert.True(t, errors.Is(err, concept.ErrConceptNotFound))
}

func TestRemove_CascadesSubtree(t *testing.T) {
	s := New(newMemTopics(), nil)
	f := concept.NewForest()
	calc := mustAdd(t, s, &f, "Calculus", nil)
	deriv := mustAdd(t, s, &f, "Derivatives", calc)
	mustAdd(t, s, &f, "Chain rule", deriv)
	mustAdd(t, s, &f, "Product rule", deriv)
	limits := mustAdd(t, s, &f, "Limits", calc)

	n, err := s.Remove(deriv.ID, &f)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []uuid.UUID{limits.ID}, calc.SubConcepts)
	assert.Equal(t, 2, f.Len())
	assert.NoError(t, s.Validate(&f))

	n, err = s.Remove(calc.ID, &f)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, f.Roots)

	_, err = s.Remove(calc.ID, &f)
	assert.ErrorIs(t, err, concept.ErrConceptNotFound)
}

func TestRootConcepts(t *testing.T) {
	topic := concept.NewTopic("Math", "", time.Now())
	s := New(newMemTopics(), nil)
	calc := mustAdd(t, s, &topic.Forest, "Calculus", nil)
	mustAdd(t, s, &topic.Forest, "Derivatives", calc)
	mustAdd(t, s, &topic.Forest, "Algebra", nil)

	s = New(newMemTopics(topic), nil)
	roots, err := s.RootConcepts(context.Background(), topic.ID)
	require.NoError(t, err)
	require.Len(t, roots, 2)
	assert.Equal(t, "Calculus", roots[0].Name)
	assert.Equal(t, "Algebra", roots[1].Name)

	roots, err = s.RootConcepts(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, roots)
}

func TestUpdateAncestor_InMemory(t *testing.T) {
	store := newMemTopics()
	s := New(store, nil)
	f := concept.NewForest()
	calc := mustAdd(t, s, &f, "Calculus", nil)

	updated := calc.Clone()
	updated.EnsureProficiency(time.Now()).Score = 12
	require.NoError(t, s.UpdateAncestor(context.Background(), updated, &f))

	got, _ := f.Get(calc.ID)
	assert.Equal(t, 12.0, got.Proficiency.Score)
	assert.Zero(t, store.saves)
}

func TestUpdateAncestor_FallsBackToStore(t *testing.T) {
	s := New(newMemTopics(), nil)
	other := concept.NewTopic("Physics", "", time.Now())
	mustAdd(t, s, &other.Forest, "Kinematics", nil)
	topic := concept.NewTopic("Math", "", time.Now())
	calc := mustAdd(t, s, &topic.Forest, "Calculus", nil)

	store := newMemTopics(other, topic)
	s = New(store, nil)

	updated := calc.Clone()
	updated.EnsureProficiency(time.Now()).Score = 7
	detached := concept.NewForest()
	require.NoError(t, s.UpdateAncestor(context.Background(), updated, &detached))
	assert.Equal(t, 1, store.saves)

	saved, err := store.Load(context.Background(), topic.ID)
	require.NoError(t, err)
	node, ok := saved.Forest.Get(calc.ID)
	require.True(t, ok)
	assert.Equal(t, 7.0, node.Proficiency.Score)

	err = s.UpdateAncestor(context.Background(), concept.New("ghost"), nil)
	assert.ErrorIs(t, err, concept.ErrConceptNotFound)
}

func TestLocate(t *testing.T) {
	topic := concept.NewTopic("Math", "", time.Now())
	s := New(newMemTopics(), nil)
	calc := mustAdd(t, s, &topic.Forest, "Calculus", nil)
	deriv := mustAdd(t, s, &topic.Forest, "Derivatives", calc)

	s = New(newMemTopics(topic), nil)
	got, err := s.Locate(context.Background(), topic.ID, deriv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Derivatives", got.Name)

	_, err = s.Locate(context.Background(), topic.ID, uuid.New())
	assert.ErrorIs(t, err, concept.ErrConceptNotFound)

	_, err = s.Locate(context.Background(), uuid.New(), deriv.ID)
	assert.ErrorIs(t, err, concept.ErrTopicNotFound)
}

func TestBreadcrumb(t *testing.T) {
	s := New(newMemTopics(), nil)
	f := concept.NewForest()
	calc := mustAdd(t, s, &f, "Calculus", nil)
	deriv := mustAdd(t, s, &f, "Derivatives", calc)
	chain := mustAdd(t, s, &f, "Chain rule", deriv)

	assert.Equal(t, []string{"Calculus", "Derivatives", "Chain rule"}, s.Breadcrumb(chain.Metadata.Path, &f))
}
