package questions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/explainit/internal/concept"
	"github.com/abhisek/explainit/internal/llm"
)

// ErrNoValidQuestions is returned when every generated question was rejected.
var ErrNoValidQuestions = errors.New("no valid questions generated")

// Generator produces explanation questions.
type Generator interface {
	ForConcept(ctx context.Context, c concept.Concept, subConcepts []string, topicName string) ([]Question, error)
	ForTopic(ctx context.Context, topicName string, rootConcepts []string) ([]Question, error)
}

// Config controls the LLMGenerator.
type Config struct {
	// Count is how many questions to ask for per request.
	Count int

	// MaxTokens is the token budget for the LLM response.
	MaxTokens int

	// Temperature controls LLM output randomness (0.0-1.0).
	Temperature float64
}

// DefaultConfig returns the recommended generator settings.
func DefaultConfig() Config {
	return Config{
		Count:       3,
		MaxTokens:   2048,
		Temperature: 0.7,
	}
}

// LLMGenerator implements Generator using an LLM provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
	logger   *zap.Logger
}

// NewGenerator creates a question generator.
func NewGenerator(provider llm.Provider, cfg Config, logger *zap.Logger) *LLMGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Count <= 0 {
		cfg.Count = DefaultConfig().Count
	}
	return &LLMGenerator{provider: provider, config: cfg, logger: logger.Named("questions")}
}

type questionSetOutput struct {
	Questions []Question `json:"questions"`
}

// ForConcept asks for questions about one concept, mentioning its
// sub-concepts when there are any.
func (g *LLMGenerator) ForConcept(ctx context.Context, c concept.Concept, subConcepts []string, topicName string) ([]Question, error) {
	msg := conceptMessage(c.Name, c.Definition, subConcepts, topicName, g.config.Count)
	return g.generate(llm.WithPurpose(ctx, llm.PurposeQuestionGen), msg)
}

// ForTopic asks for questions about a topic as a whole.
func (g *LLMGenerator) ForTopic(ctx context.Context, topicName string, rootConcepts []string) ([]Question, error) {
	msg := topicMessage(topicName, rootConcepts, g.config.Count)
	return g.generate(llm.WithPurpose(ctx, llm.PurposeQuestionGen), msg)
}

func (g *LLMGenerator) generate(ctx context.Context, userMsg string) ([]Question, error) {
	req := llm.Prompt(systemPrompt, userMsg, QuestionSetSchema)
	req.MaxTokens = g.config.MaxTokens
	req.Temperature = g.config.Temperature

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("LLM generation failed: %w", err)
	}

	var raw questionSetOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w", err)
	}

	valid := make([]Question, 0, len(raw.Questions))
	for _, q := range raw.Questions {
		if err := q.Validate(); err != nil {
			g.logger.Info("dropping generated question", zap.String("text", q.Text), zap.Error(err))
			continue
		}
		q.ID = uuid.New()
		valid = append(valid, q)
	}
	if len(valid) == 0 {
		return nil, ErrNoValidQuestions
	}
	return valid, nil
}
