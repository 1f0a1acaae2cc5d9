package concept

import (
	"slices"

	"github.com/google/uuid"
)

// MaxDepth bounds how deep a concept tree may grow. Roots sit at depth 0,
// so the deepest legal node has depth MaxDepth-1.
const MaxDepth = 10

// Metadata records where a concept sits in its tree.
// Path runs from the root to the concept itself, so Path[len-1] == ID and
// len(Path)-1 == Depth.
type Metadata struct {
	Depth int         `json:"depth"`
	Path  []uuid.UUID `json:"path"`
}

// Concept is a single node of a topic's concept forest.
type Concept struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Definition  string       `json:"definition,omitempty"`
	Proficiency *Proficiency `json:"proficiency,omitempty"`
	SubConcepts []uuid.UUID  `json:"sub_concepts,omitempty"`
	ParentID    *uuid.UUID   `json:"parent_id,omitempty"`
	Metadata    Metadata     `json:"metadata"`
}

// New returns an unscored root concept with a fresh id.
func New(name string) Concept {
	id := uuid.New()
	return Concept{
		ID:       id,
		Name:     name,
		Metadata: RootMetadata(id),
	}
}

// RootMetadata is the metadata of a concept placed at the top of a tree.
func RootMetadata(id uuid.UUID) Metadata {
	return Metadata{Depth: 0, Path: []uuid.UUID{id}}
}

// IsRoot reports whether the concept has no parent.
func (c *Concept) IsRoot() bool {
	return c.ParentID == nil
}

// Scored reports whether the concept has received any proficiency update.
func (c *Concept) Scored() bool {
	return c.Proficiency != nil
}

// Ancestors returns the ids of every ancestor, nearest first.
func (c *Concept) Ancestors() []uuid.UUID {
	if len(c.Metadata.Path) < 2 {
		return nil
	}
	out := make([]uuid.UUID, 0, len(c.Metadata.Path)-1)
	for i := len(c.Metadata.Path) - 2; i >= 0; i-- {
		out = append(out, c.Metadata.Path[i])
	}
	return out
}

// Clone returns a deep copy of the concept.
func (c *Concept) Clone() Concept {
	out := *c
	out.SubConcepts = slices.Clone(c.SubConcepts)
	out.Metadata.Path = slices.Clone(c.Metadata.Path)
	if c.ParentID != nil {
		pid := *c.ParentID
		out.ParentID = &pid
	}
	if c.Proficiency != nil {
		p := c.Proficiency.Clone()
		out.Proficiency = &p
	}
	return out
}
