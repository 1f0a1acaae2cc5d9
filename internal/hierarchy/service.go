package hierarchy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/explainit/internal/concept"
)

// TopicStore is the persistence contract the hierarchy relies on.
// Load and Save report a missing topic as concept.ErrTopicNotFound.
type TopicStore interface {
	Load(ctx context.Context, id uuid.UUID) (concept.Topic, error)
	Save(ctx context.Context, topic concept.Topic) error
	List(ctx context.Context) ([]concept.Topic, error)
}

// Service maintains the structural integrity of concept forests.
// Operations mutate the caller's forest in place; only Locate, RootConcepts
// and the UpdateAncestor fallback touch the store.
type Service struct {
	topics TopicStore
	logger *zap.Logger
}

// New creates a hierarchy service. A nil logger disables logging.
func New(topics TopicStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{topics: topics, logger: logger.Named("hierarchy")}
}

// FindByName returns the first concept, in pre-order, whose name matches
// case-insensitively.
func (s *Service) FindByName(name string, forest *concept.Forest) (*concept.Concept, bool) {
	var found *concept.Concept
	forest.Walk(func(c *concept.Concept, _ int) bool {
		if strings.EqualFold(c.Name, name) {
			found = c
			return false
		}
		return true
	})
	return found, found != nil
}

// FindByID returns the reachable concept with the given id.
func (s *Service) FindByID(id uuid.UUID, forest *concept.Forest) (*concept.Concept, bool) {
	var found *concept.Concept
	forest.Walk(func(c *concept.Concept, _ int) bool {
		if c.ID == id {
			found = c
			return false
		}
		return true
	})
	return found, found != nil
}

// Update replaces the node carrying c's id. The node keeps its slot in its
// parent's child list.
func (s *Service) Update(c concept.Concept, forest *concept.Forest) error {
	if _, ok := s.FindByID(c.ID, forest); !ok {
		return fmt.Errorf("%w: %s", concept.ErrConceptNotFound, c.ID)
	}
	updated := c.Clone()
	forest.Nodes[c.ID] = &updated
	return nil
}

// Add inserts c under parentID, or as a new root when parentID is nil.
// Child insertion validates the whole forest first and computes c's
// metadata from the parent's position.
func (s *Service) Add(c concept.Concept, parentID *uuid.UUID, forest *concept.Forest) error {
	if forest.Nodes == nil {
		forest.Nodes = make(map[uuid.UUID]*concept.Concept)
	}
	if _, exists := forest.Nodes[c.ID]; exists {
		return fmt.Errorf("%w: id %s already present", concept.ErrDuplicateConceptInPath, c.ID)
	}

	node := c.Clone()
	node.SubConcepts = nil

	if parentID == nil {
		if sibling, ok := nameTaken(node.Name, forest.RootNodes()); ok {
			return fmt.Errorf("%w: root %q", concept.ErrConceptAlreadyExists, sibling)
		}
		node.ParentID = nil
		node.Metadata = concept.RootMetadata(node.ID)
		forest.Roots = append(forest.Roots, node.ID)
		forest.Nodes[node.ID] = &node
		return nil
	}

	if err := s.Validate(forest); err != nil {
		return err
	}

	parent, parentPath, parentDepth, ok := s.locate(*parentID, forest)
	if !ok {
		return fmt.Errorf("%w: %s", concept.ErrInvalidParentConcept, *parentID)
	}

	node.Metadata = s.CalculateUpdatedMetadata(node, parentPath, parentDepth+1)
	if node.Metadata.Depth >= concept.MaxDepth {
		return fmt.Errorf("%w: %q would sit at depth %d", concept.ErrMaxDepthExceeded, node.Name, node.Metadata.Depth)
	}
	if sibling, ok := nameTaken(node.Name, forest.Children(parent.ID)); ok {
		return fmt.Errorf("%w: %q under %q", concept.ErrConceptAlreadyExists, sibling, parent.Name)
	}

	pid := parent.ID
	node.ParentID = &pid
	forest.Nodes[node.ID] = &node
	parent.SubConcepts = append(parent.SubConcepts, node.ID)
	return nil
}

// CalculateUpdatedMetadata returns the metadata c has when placed below a
// parent whose root-to-parent path is parentPath.
func (s *Service) CalculateUpdatedMetadata(c concept.Concept, parentPath []uuid.UUID, depth int) concept.Metadata {
	path := make([]uuid.UUID, 0, len(parentPath)+1)
	path = append(path, parentPath...)
	path = append(path, c.ID)
	return concept.Metadata{Depth: depth, Path: path}
}

// Remove deletes a concept together with its whole subtree and returns the
// number of concepts removed.
func (s *Service) Remove(id uuid.UUID, forest *concept.Forest) (int, error) {
	c, ok := s.FindByID(id, forest)
	if !ok {
		return 0, fmt.Errorf("%w: %s", concept.ErrConceptNotFound, id)
	}

	if c.ParentID == nil {
		forest.Roots = without(forest.Roots, id)
	} else if parent, ok := forest.Get(*c.ParentID); ok {
		parent.SubConcepts = without(parent.SubConcepts, id)
	}

	removed := 0
	var drop func(id uuid.UUID)
	drop = func(id uuid.UUID) {
		node, ok := forest.Nodes[id]
		if !ok {
			return
		}
		delete(forest.Nodes, id)
		removed++
		for _, child := range node.SubConcepts {
			drop(child)
		}
	}
	drop(id)
	return removed, nil
}

// RootConcepts returns the roots of a persisted topic. An unknown topic
// yields no roots.
func (s *Service) RootConcepts(ctx context.Context, topicID uuid.UUID) ([]concept.Concept, error) {
	topic, err := s.topics.Load(ctx, topicID)
	if errors.Is(err, concept.ErrTopicNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load topic %s: %w", topicID, err)
	}

	var roots []concept.Concept
	for _, c := range topic.Forest.RootNodes() {
		if c.ParentID == nil {
			roots = append(roots, c.Clone())
		}
	}
	return roots, nil
}

// Locate searches a persisted topic for a concept, starting from its roots.
func (s *Service) Locate(ctx context.Context, topicID, id uuid.UUID) (concept.Concept, error) {
	topic, err := s.topics.Load(ctx, topicID)
	if err != nil {
		return concept.Concept{}, fmt.Errorf("load topic %s: %w", topicID, err)
	}
	c, ok := s.FindByID(id, &topic.Forest)
	if !ok {
		return concept.Concept{}, fmt.Errorf("%w: %s in topic %s", concept.ErrConceptNotFound, id, topicID)
	}
	return c.Clone(), nil
}

// UpdateAncestor writes an ancestor back into the in-memory forest. When
// the forest does not hold it, the topic owning the ancestor is updated in
// the store instead.
func (s *Service) UpdateAncestor(ctx context.Context, ancestor concept.Concept, forest *concept.Forest) error {
	if err := s.Update(ancestor, forest); err == nil {
		return nil
	}

	topics, err := s.topics.List(ctx)
	if err != nil {
		return fmt.Errorf("list topics: %w", err)
	}
	for _, topic := range topics {
		if !topic.Contains(ancestor.ID) {
			continue
		}
		if err := s.Update(ancestor, &topic.Forest); err != nil {
			return err
		}
		if err := s.topics.Save(ctx, topic); err != nil {
			return fmt.Errorf("save topic %s: %w", topic.ID, err)
		}
		s.logger.Debug("ancestor persisted through store",
			zap.String("concept_id", ancestor.ID.String()),
			zap.String("topic_id", topic.ID.String()))
		return nil
	}
	return fmt.Errorf("%w: ancestor %s", concept.ErrConceptNotFound, ancestor.ID)
}

// Breadcrumb maps a metadata path to concept names. Ids missing from the
// forest are skipped.
func (s *Service) Breadcrumb(path []uuid.UUID, forest *concept.Forest) []string {
	names := make([]string, 0, len(path))
	for _, id := range path {
		if c, ok := forest.Get(id); ok {
			names = append(names, c.Name)
		}
	}
	return names
}

// locate finds a node depth-first and reports the traversal path and depth
// at which it was reached.
func (s *Service) locate(id uuid.UUID, forest *concept.Forest) (*concept.Concept, []uuid.UUID, int, bool) {
	var (
		found *concept.Concept
		trail []uuid.UUID
		depth int
	)
	forest.Walk(func(c *concept.Concept, d int) bool {
		trail = append(trail[:d], c.ID)
		if c.ID == id {
			found, depth = c, d
			return false
		}
		return true
	})
	if found == nil {
		return nil, nil, 0, false
	}
	return found, append([]uuid.UUID(nil), trail...), depth, true
}

func nameTaken(name string, siblings []*concept.Concept) (string, bool) {
	for _, sib := range siblings {
		if strings.EqualFold(sib.Name, name) {
			return sib.Name, true
		}
	}
	return "", false
}

func without(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
