// Package definitions looks up concept definitions through an LLM, with a
// cache in front.
package definitions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/explainit/internal/llm"
)

var (
	ErrEmptyConcept    = errors.New("concept name is empty")
	ErrEmptyDefinition = errors.New("definition is empty")
)

// Definition is a concept definition scoped to a topic.
type Definition struct {
	Concept  string   `json:"concept"`
	Topic    string   `json:"topic"`
	Text     string   `json:"definition"`
	Examples []string `json:"examples"`
}

// Config controls definition lookups.
type Config struct {
	MaxTokens   int
	Temperature float64

	// Concurrency bounds the parallel lookups of LookupAll.
	Concurrency int
}

func DefaultConfig() Config {
	return Config{MaxTokens: 512, Temperature: 0.2, Concurrency: 4}
}

type Service struct {
	provider llm.Provider
	cache    Cache
	cfg      Config
	logger   *zap.Logger
}

// New creates a Service. A nil cache gets a MemoryCache.
func New(provider llm.Provider, cache Cache, cfg Config, logger *zap.Logger) *Service {
	if cache == nil {
		cache = NewMemoryCache()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Service{provider: provider, cache: cache, cfg: cfg, logger: logger.Named("definitions")}
}

// Key is the cache key for a concept within a topic. Names are compared
// case-insensitively.
func Key(topicName, conceptName string) string {
	norm := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	return "explainit:definition:" + norm(topicName) + ":" + norm(conceptName)
}

// Lookup returns the definition of conceptName within topicName. Cache
// failures are logged and fall through to the provider.
func (s *Service) Lookup(ctx context.Context, conceptName, topicName string) (Definition, error) {
	if strings.TrimSpace(conceptName) == "" {
		return Definition{}, ErrEmptyConcept
	}

	key := Key(topicName, conceptName)
	if d, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("definition cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		return d, nil
	}

	d, err := s.generate(ctx, conceptName, topicName)
	if err != nil {
		return Definition{}, err
	}

	if err := s.cache.Set(ctx, key, d); err != nil {
		s.logger.Warn("definition cache write failed", zap.String("key", key), zap.Error(err))
	}
	return d, nil
}

// LookupAll resolves several concepts concurrently. Results keep the order
// of names; the first failure cancels the rest.
func (s *Service) LookupAll(ctx context.Context, names []string, topicName string) ([]Definition, error) {
	out := make([]Definition, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, name := range names {
		g.Go(func() error {
			d, err := s.Lookup(gctx, name, topicName)
			if err != nil {
				return fmt.Errorf("define %q: %w", name, err)
			}
			out[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

type definitionOutput struct {
	Definition string   `json:"definition"`
	Examples   []string `json:"examples"`
}

func (s *Service) generate(ctx context.Context, conceptName, topicName string) (Definition, error) {
	msg := fmt.Sprintf("Topic: %s\nConcept: %s", topicName, conceptName)
	req := llm.Prompt(definitionPrompt, msg, DefinitionSchema)
	req.MaxTokens = s.cfg.MaxTokens
	req.Temperature = s.cfg.Temperature

	resp, err := s.provider.Generate(llm.WithPurpose(ctx, llm.PurposeDefinition), req)
	if err != nil {
		return Definition{}, fmt.Errorf("LLM definition failed: %w", err)
	}

	var raw definitionOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return Definition{}, fmt.Errorf("failed to parse LLM response: %w", err)
	}
	text := strings.TrimSpace(raw.Definition)
	if text == "" {
		return Definition{}, ErrEmptyDefinition
	}

	return Definition{
		Concept:  conceptName,
		Topic:    topicName,
		Text:     text,
		Examples: raw.Examples,
	}, nil
}
