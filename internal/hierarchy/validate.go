package hierarchy

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/abhisek/explainit/internal/concept"
)

// Validate checks the whole forest and returns the first violation found.
// Checks run per node in order: the node's id on its own ancestor path
// (circular reference), the id already seen anywhere in this pass
// (duplicate), then its recorded depth against MaxDepth.
func (s *Service) Validate(forest *concept.Forest) error {
	if forest == nil {
		return nil
	}
	seen := make(map[uuid.UUID]bool, len(forest.Nodes))
	for _, root := range forest.Roots {
		if err := validateNode(forest, root, nil, seen); err != nil {
			return err
		}
	}
	return nil
}

func validateNode(forest *concept.Forest, id uuid.UUID, ancestors []uuid.UUID, seen map[uuid.UUID]bool) error {
	c, ok := forest.Nodes[id]
	if !ok {
		return fmt.Errorf("%w: dangling reference %s", concept.ErrConceptNotFound, id)
	}
	if slices.Contains(ancestors, id) {
		return fmt.Errorf("%w: %q", concept.ErrCircularReference, c.Name)
	}
	if seen[id] {
		return fmt.Errorf("%w: %q", concept.ErrDuplicateConceptInPath, c.Name)
	}
	seen[id] = true
	if c.Metadata.Depth >= concept.MaxDepth {
		return fmt.Errorf("%w: %q at depth %d", concept.ErrMaxDepthExceeded, c.Name, c.Metadata.Depth)
	}

	path := append(slices.Clone(ancestors), id)
	for _, child := range c.SubConcepts {
		if err := validateNode(forest, child, path, seen); err != nil {
			return err
		}
	}
	return nil
}
