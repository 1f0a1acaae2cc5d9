package concept

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Forest is an arena of concept trees. Nodes holds every concept by id and
// parents reference their children through Concept.SubConcepts, so a node
// can be reached and replaced without walking the tree.
type Forest struct {
	Roots []uuid.UUID            `json:"roots"`
	Nodes map[uuid.UUID]*Concept `json:"nodes"`
}

// NewForest returns an empty forest.
func NewForest() Forest {
	return Forest{Nodes: make(map[uuid.UUID]*Concept)}
}

// Get returns the node with the given id.
func (f *Forest) Get(id uuid.UUID) (*Concept, bool) {
	if f == nil || f.Nodes == nil {
		return nil, false
	}
	c, ok := f.Nodes[id]
	return c, ok
}

// Len returns the number of concepts in the forest.
func (f *Forest) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Nodes)
}

// RootNodes returns the root concepts in order. Dangling root ids are skipped.
func (f *Forest) RootNodes() []*Concept {
	return f.resolve(f.Roots)
}

// Children returns the direct children of a concept in order.
func (f *Forest) Children(id uuid.UUID) []*Concept {
	c, ok := f.Get(id)
	if !ok {
		return nil
	}
	return f.resolve(c.SubConcepts)
}

func (f *Forest) resolve(ids []uuid.UUID) []*Concept {
	if f == nil {
		return nil
	}
	out := make([]*Concept, 0, len(ids))
	for _, id := range ids {
		if c, ok := f.Nodes[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Walk visits every reachable concept in pre-order, passing the traversal
// depth. Returning false from fn stops the walk. A node already on the
// current path is not entered twice, so a corrupted arena cannot loop.
func (f *Forest) Walk(fn func(c *Concept, depth int) bool) {
	if f == nil {
		return
	}
	onPath := make(map[uuid.UUID]bool)
	var visit func(id uuid.UUID, depth int) bool
	visit = func(id uuid.UUID, depth int) bool {
		c, ok := f.Nodes[id]
		if !ok || onPath[id] {
			return true
		}
		if !fn(c, depth) {
			return false
		}
		onPath[id] = true
		defer delete(onPath, id)
		for _, child := range c.SubConcepts {
			if !visit(child, depth+1) {
				return false
			}
		}
		return true
	}
	for _, root := range f.Roots {
		if !visit(root, 0) {
			return
		}
	}
}

// Clone returns a deep copy of the forest.
func (f *Forest) Clone() Forest {
	out := Forest{
		Roots: slices.Clone(f.Roots),
		Nodes: make(map[uuid.UUID]*Concept, len(f.Nodes)),
	}
	for id, c := range f.Nodes {
		cp := c.Clone()
		out.Nodes[id] = &cp
	}
	return out
}

// Topic is a named forest of concepts.
type Topic struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon,omitempty"`
	Forest    Forest    `json:"forest"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTopic returns an empty topic with a fresh id.
func NewTopic(name, icon string, now time.Time) Topic {
	return Topic{
		ID:        uuid.New(),
		Name:      name,
		Icon:      icon,
		Forest:    NewForest(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy of the topic.
func (t *Topic) Clone() Topic {
	out := *t
	out.Forest = t.Forest.Clone()
	return out
}

// Contains reports whether the concept id belongs to this topic.
func (t *Topic) Contains(id uuid.UUID) bool {
	_, ok := t.Forest.Get(id)
	return ok
}
