package concept

import "errors"

// Structural errors shared by the hierarchy service and the topic store.
var (
	ErrConceptNotFound        = errors.New("concept not found")
	ErrInvalidParentConcept   = errors.New("invalid parent concept")
	ErrMaxDepthExceeded       = errors.New("maximum concept depth exceeded")
	ErrCircularReference      = errors.New("circular reference in concept hierarchy")
	ErrDuplicateConceptInPath = errors.New("duplicate concept in hierarchy")
	ErrConceptAlreadyExists   = errors.New("concept with this name already exists")
	ErrTopicNotFound          = errors.New("topic not found")
	ErrTopicExists            = errors.New("topic with this name already exists")
)
