package proficiency

import "fmt"

// Config holds the tunables of the scoring engine.
type Config struct {
	// DecayRate is the fraction of score lost per week without interaction.
	DecayRate float64 `toml:"decay_rate"`

	// MinConfidence is the confidence floor.
	MinConfidence float64 `toml:"min_confidence"`

	// ParentImpactFactor damps the impact once per hierarchy level.
	ParentImpactFactor float64 `toml:"parent_impact_factor"`

	// MinimumImpactWeight is the fraction of the original impact every
	// ancestor receives at least.
	MinimumImpactWeight float64 `toml:"minimum_impact_weight"`

	// MaxRecentInteractions is the window used for the consistency factor.
	MaxRecentInteractions int `toml:"max_recent_interactions"`
}

// DefaultConfig returns the standard engine constants.
func DefaultConfig() Config {
	return Config{
		DecayRate:             0.10,
		MinConfidence:         0.3,
		ParentImpactFactor:    0.3,
		MinimumImpactWeight:   0.01,
		MaxRecentInteractions: 5,
	}
}

// Validate rejects values that would break the score and confidence ranges.
func (c Config) Validate() error {
	switch {
	case c.DecayRate < 0 || c.DecayRate > 1:
		return fmt.Errorf("decay_rate must be within [0, 1], got %v", c.DecayRate)
	case c.MinConfidence < 0 || c.MinConfidence > 1:
		return fmt.Errorf("min_confidence must be within [0, 1], got %v", c.MinConfidence)
	case c.ParentImpactFactor < 0 || c.ParentImpactFactor > 1:
		return fmt.Errorf("parent_impact_factor must be within [0, 1], got %v", c.ParentImpactFactor)
	case c.MinimumImpactWeight < 0 || c.MinimumImpactWeight > 1:
		return fmt.Errorf("minimum_impact_weight must be within [0, 1], got %v", c.MinimumImpactWeight)
	case c.MaxRecentInteractions < 1:
		return fmt.Errorf("max_recent_interactions must be positive, got %d", c.MaxRecentInteractions)
	}
	return nil
}
