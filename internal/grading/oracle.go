package grading

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/explainit/internal/llm"
	"github.com/abhisek/explainit/internal/questions"
)

var (
	// ErrEmptyResponse is returned when there is nothing to grade.
	ErrEmptyResponse = errors.New("response is empty")

	// ErrMissingConcept is returned when a graded segment other than an
	// irrelevant one names no concept.
	ErrMissingConcept = errors.New("segment has no concept")
)

// KnownConcept is a concept the grader may attach new concepts to.
type KnownConcept struct {
	ID   uuid.UUID
	Name string
}

// Input is everything the grader sees for one response.
type Input struct {
	Question questions.Question
	Response string
	Known    []KnownConcept
}

// Oracle grades a learner response into segments.
type Oracle interface {
	Grade(ctx context.Context, in Input) ([]Segment, error)
}

// Config controls the LLMGrader.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns the recommended grader settings. Grading runs at
// temperature 0 so repeated grading of the same answer is stable.
func DefaultConfig() Config {
	return Config{MaxTokens: 2048}
}

// LLMGrader implements Oracle using an LLM provider.
type LLMGrader struct {
	provider llm.Provider
	config   Config
	logger   *zap.Logger
}

// NewLLMGrader creates a grader.
func NewLLMGrader(provider llm.Provider, cfg Config, logger *zap.Logger) *LLMGrader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMGrader{provider: provider, config: cfg, logger: logger.Named("grading")}
}

type segmentOutput struct {
	Text               string   `json:"text"`
	FeedbackType       string   `json:"feedback_type"`
	Explanation        string   `json:"explanation"`
	Concept            string   `json:"concept"`
	KeyPointsAddressed []string `json:"key_points_addressed"`
	CriteriaMatched    []string `json:"criteria_matched"`
	IsNewConcept       bool     `json:"is_new_concept"`
	RelatedToConceptID string   `json:"related_to_concept_id"`
	Definition         string   `json:"definition"`
}

type feedbackOutput struct {
	Segments []segmentOutput `json:"segments"`
}

// Grade sends the question, rubric and response to the model and decodes
// the segment list.
func (g *LLMGrader) Grade(ctx context.Context, in Input) ([]Segment, error) {
	if strings.TrimSpace(in.Response) == "" {
		return nil, ErrEmptyResponse
	}
	ctx = llm.WithPurpose(ctx, llm.PurposeGrading)

	req := llm.Request{
		System: gradingPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: gradingMessage(in)},
		},
		Schema:      FeedbackSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	}

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("grade response: %w", err)
	}

	var raw feedbackOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse grading response: %w", err)
	}

	known := make(map[uuid.UUID]bool, len(in.Known))
	for _, k := range in.Known {
		known[k.ID] = true
	}

	segments := make([]Segment, 0, len(raw.Segments))
	for i, s := range raw.Segments {
		seg, err := decodeSegment(s, known)
		if err != nil {
			return nil, &llm.ErrInvalidResponse{
				Content: resp.Content,
				Err:     fmt.Errorf("segment %d: %w", i, err),
			}
		}
		segments = append(segments, seg)
	}

	g.logger.Debug("graded response",
		zap.String("question", in.Question.Text),
		zap.Int("segments", len(segments)))
	return segments, nil
}

func decodeSegment(s segmentOutput, known map[uuid.UUID]bool) (Segment, error) {
	ft, err := ParseFeedbackType(s.FeedbackType)
	if err != nil {
		return Segment{}, err
	}

	seg := Segment{
		Text:               s.Text,
		Type:               ft,
		Explanation:        s.Explanation,
		Concept:            strings.TrimSpace(s.Concept),
		KeyPointsAddressed: s.KeyPointsAddressed,
		CriteriaMatched:    s.CriteriaMatched,
	}

	if ft == FeedbackIrrelevant {
		seg.Concept = ""
		return seg, nil
	}
	if seg.Concept == "" {
		return Segment{}, ErrMissingConcept
	}

	if s.IsNewConcept {
		seg.IsNewConcept = true
		seg.Definition = s.Definition
		if id, err := uuid.Parse(s.RelatedToConceptID); err == nil && known[id] {
			seg.RelatedToConceptID = &id
		}
	}
	return seg, nil
}
