package proficiency

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/explainit/internal/concept"
	"github.com/abhisek/explainit/internal/grading"
	"github.com/abhisek/explainit/internal/hierarchy"
)

const (
	confidenceGain   = 0.10
	confidenceLoss   = -0.15
	indirectDamping  = 0.5
	maxSegmentBonus  = 5.0
	hoursPerWeek     = 24 * 7
	gradeMidpoint    = 0.5
	gradeImpactScale = 20.0
)

// Manager turns grading results into proficiency changes and propagates a
// damped share of each change to the concept's ancestors.
type Manager struct {
	cfg       Config
	hierarchy *hierarchy.Service
	logger    *zap.Logger

	// Now is the clock used for decay and interaction timestamps.
	Now func() time.Time
}

// NewManager creates a manager. The hierarchy service resolves and persists
// ancestors and must not be nil.
func NewManager(cfg Config, h *hierarchy.Service, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		cfg:       cfg,
		hierarchy: h,
		logger:    logger.Named("proficiency"),
		Now:       time.Now,
	}
}

// Config returns the engine constants in use.
func (m *Manager) Config() Config {
	return m.cfg
}

// AncestorUpdate reports what happened to one ancestor during propagation.
type AncestorUpdate struct {
	ConceptID uuid.UUID
	Name      string
	Distance  int
	Impact    float64
	Score     float64
	Err       error
}

// Result describes a full feedback application.
type Result struct {
	ConceptID   uuid.UUID
	ScoreImpact float64
	Interaction concept.Interaction
	Score       float64
	Confidence  float64
	Ancestors   []AncestorUpdate
}

// Failed returns the ancestors whose update did not go through.
func (r Result) Failed() []AncestorUpdate {
	var out []AncestorUpdate
	for _, a := range r.Ancestors {
		if a.Err != nil {
			out = append(out, a)
		}
	}
	return out
}

// UpdateFromFeedback applies a grading analysis to c, which is mutated in
// place, then walks its metadata path upward and applies an indirect
// interaction to every ancestor. Ancestors are read from forest when
// present there and from the topic store otherwise. Ancestor failures are
// logged and reported in the result; they never fail the call.
func (m *Manager) UpdateFromFeedback(ctx context.Context, c *concept.Concept, analysis grading.Analysis, forest *concept.Forest, topicID uuid.UUID) Result {
	now := m.Now()
	p := c.EnsureProficiency(now)

	impact := m.ScoreImpact(analysis)
	feedbackID := analysis.ID
	correct := analysis.Count(grading.FeedbackCorrect)

	interaction := concept.Interaction{
		Date:        now,
		Type:        concept.InteractionExplanation,
		ScoreImpact: impact,
		Details:     fmt.Sprintf("Explained %d/%d concepts correctly", correct, len(analysis.Segments)),
		FeedbackID:  &feedbackID,
	}
	m.UpdateProficiency(p, interaction)

	res := Result{
		ConceptID:   c.ID,
		ScoreImpact: impact,
		Interaction: p.Interactions[len(p.Interactions)-1],
		Score:       p.Score,
		Confidence:  p.Confidence,
	}

	m.logger.Debug("applied feedback",
		zap.String("concept", c.Name),
		zap.Float64("impact", impact),
		zap.Float64("score", p.Score),
		zap.Float64("confidence", p.Confidence))

	for i, ancestorID := range c.Ancestors() {
		upd := m.propagate(ctx, c, ancestorID, i+1, impact, feedbackID, forest, topicID)
		if upd.Err != nil {
			m.logger.Warn("ancestor update failed",
				zap.String("concept", c.Name),
				zap.String("ancestor_id", ancestorID.String()),
				zap.Int("distance", upd.Distance),
				zap.Error(upd.Err))
		}
		res.Ancestors = append(res.Ancestors, upd)
	}
	return res
}

func (m *Manager) propagate(ctx context.Context, child *concept.Concept, id uuid.UUID, distance int, impact float64, feedbackID uuid.UUID, forest *concept.Forest, topicID uuid.UUID) AncestorUpdate {
	upd := AncestorUpdate{
		ConceptID: id,
		Distance:  distance,
		Impact:    m.AncestorImpact(impact, distance),
	}

	ancestor, err := m.resolve(ctx, id, forest, topicID)
	if err != nil {
		upd.Err = err
		return upd
	}
	upd.Name = ancestor.Name

	now := m.Now()
	fid := feedbackID
	p := ancestor.EnsureProficiency(now)
	m.UpdateProficiency(p, concept.Interaction{
		Date:        now,
		Type:        concept.InteractionIndirect,
		ScoreImpact: upd.Impact,
		Details:     "Indirect update from sub-concept: " + child.Name,
		FeedbackID:  &fid,
	})
	upd.Score = p.Score

	if err := m.hierarchy.UpdateAncestor(ctx, ancestor, forest); err != nil {
		upd.Err = fmt.Errorf("persist ancestor %q: %w", ancestor.Name, err)
	}
	return upd
}

func (m *Manager) resolve(ctx context.Context, id uuid.UUID, forest *concept.Forest, topicID uuid.UUID) (concept.Concept, error) {
	if c, ok := forest.Get(id); ok {
		return c.Clone(), nil
	}
	return m.hierarchy.Locate(ctx, topicID, id)
}

// UpdateProficiency applies one interaction: decay for the time since the
// last interaction, then the confidence-weighted impact, then the
// confidence adjustment. The interaction is appended to the history.
func (m *Manager) UpdateProficiency(p *concept.Proficiency, in concept.Interaction) {
	p.Score = m.decayed(p, m.Now())

	p.Score = clamp(p.Score+in.ScoreImpact*p.Confidence, concept.MinScore, concept.MaxScore)

	change := confidenceLoss
	if in.ScoreImpact > 0 {
		change = confidenceGain
	}
	if in.Type == concept.InteractionIndirect {
		change *= indirectDamping
	}
	change *= consistencyFactor(p.Recent(m.cfg.MaxRecentInteractions))
	p.Confidence = clamp(p.Confidence+change, m.cfg.MinConfidence, concept.MaxConfidence)

	in.ScoreAfter = p.Score
	p.Interactions = append(p.Interactions, in)
	p.LastInteraction = in.Date
}

// ScoreImpact converts an analysis into a raw score delta: the overall
// grade centred on 0.5 and scaled to ±10, plus a bonus for correct and
// partially correct segments capped at 5.
func (m *Manager) ScoreImpact(a grading.Analysis) float64 {
	impact := (a.OverallGrade - gradeMidpoint) * gradeImpactScale
	total := len(a.Segments)
	if total == 0 {
		return impact
	}
	weighted := 2*a.Count(grading.FeedbackCorrect) + a.Count(grading.FeedbackPartiallyCorrect)
	return impact + math.Min(maxSegmentBonus, float64(weighted)/float64(total))
}

// AncestorImpact is the share of scoreImpact an ancestor distance levels up
// receives. It decays geometrically but never drops below
// MinimumImpactWeight of the original magnitude.
func (m *Manager) AncestorImpact(scoreImpact float64, distance int) float64 {
	magnitude := math.Abs(scoreImpact)
	damped := math.Max(magnitude*math.Pow(m.cfg.ParentImpactFactor, float64(distance)), magnitude*m.cfg.MinimumImpactWeight)
	return math.Copysign(damped, scoreImpact)
}

// Decayed previews the score p would have now if decay were applied.
func (m *Manager) Decayed(p *concept.Proficiency) float64 {
	return m.decayed(p, m.Now())
}

func (m *Manager) decayed(p *concept.Proficiency, now time.Time) float64 {
	weeks := now.Sub(p.LastInteraction).Hours() / hoursPerWeek
	if weeks <= 0 {
		return p.Score
	}
	return p.Score * math.Max(0, 1-m.cfg.DecayRate*weeks)
}

// consistencyFactor dampens confidence swings when recent impacts vary a lot.
func consistencyFactor(recent []concept.Interaction) float64 {
	if len(recent) == 0 {
		return 1
	}
	var mean float64
	for _, in := range recent {
		mean += in.ScoreImpact
	}
	mean /= float64(len(recent))

	var variance float64
	for _, in := range recent {
		d := in.ScoreImpact - mean
		variance += d * d
	}
	variance /= float64(len(recent))
	return 1 / (1 + variance)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
