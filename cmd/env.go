package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/explainit/internal/concept"
	"github.com/abhisek/explainit/internal/config"
	"github.com/abhisek/explainit/internal/definitions"
	"github.com/abhisek/explainit/internal/grading"
	"github.com/abhisek/explainit/internal/hierarchy"
	"github.com/abhisek/explainit/internal/learning"
	"github.com/abhisek/explainit/internal/llm"
	"github.com/abhisek/explainit/internal/logging"
	"github.com/abhisek/explainit/internal/proficiency"
	"github.com/abhisek/explainit/internal/questions"
	"github.com/abhisek/explainit/internal/store"
)

// appEnv holds the dependencies a command runs against.
type appEnv struct {
	cfg       config.Config
	logger    *zap.Logger
	store     *store.Store
	topics    *store.TopicRepo
	events    store.EventRepo
	hierarchy *hierarchy.Service
	manager   *proficiency.Manager

	// provider is created on first use so commands that never call the
	// LLM work without credentials.
	provider llm.Provider
}

// openEnv resolves configuration from flags, the config file and the
// environment, then opens the store.
func openEnv(cmd *cobra.Command) (*appEnv, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	if cfgPath == "" {
		cfgPath = config.Path()
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Log.Level = "debug"
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	dbPath, err := resolveDBPath(cmd, cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	return newEnv(cfg, dbPath, logger)
}

func newEnv(cfg config.Config, dbPath string, logger *zap.Logger) (*appEnv, error) {
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	logger.Debug("store opened", zap.String("path", dbPath))

	topics := s.TopicRepo()
	h := hierarchy.New(topics, logger)
	return &appEnv{
		cfg:       cfg,
		logger:    logger,
		store:     s,
		topics:    topics,
		events:    s.EventRepo(),
		hierarchy: h,
		manager:   proficiency.NewManager(cfg.Proficiency, h, logger),
	}, nil
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the configured path (config file or EXPLAINIT_DB), then the default
// XDG path.
func resolveDBPath(cmd *cobra.Command, cfg config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg.DBPath != "" {
		return cfg.DBPath, store.EnsureDir(cfg.DBPath)
	}
	return store.DefaultDBPath()
}

func (e *appEnv) Close() {
	if err := e.store.Close(); err != nil {
		e.logger.Warn("close store", zap.Error(err))
	}
	_ = e.logger.Sync()
}

func (e *appEnv) llmProvider(ctx context.Context) (llm.Provider, error) {
	if e.provider != nil {
		return e.provider, nil
	}
	lc := e.cfg.LLMConfig()
	if err := lc.Validate(); err != nil {
		return nil, fmt.Errorf("LLM provider not configured: %w", err)
	}
	p, err := llm.NewProvider(ctx, lc, e.events, e.logger)
	if err != nil {
		return nil, err
	}
	e.provider = p
	return p, nil
}

func (e *appEnv) learningFlow(ctx context.Context) (*learning.Flow, error) {
	p, err := e.llmProvider(ctx)
	if err != nil {
		return nil, err
	}
	return learning.New(learning.Deps{
		Topics:    e.topics,
		Events:    e.events,
		Hierarchy: e.hierarchy,
		Oracle:    grading.NewLLMGrader(p, e.cfg.GradingConfig(), e.logger),
		Manager:   e.manager,
		Questions: questions.NewGenerator(p, e.cfg.QuestionsConfig(), e.logger),
		Logger:    e.logger,
	}), nil
}

func (e *appEnv) definitionService(ctx context.Context) (*definitions.Service, func(), error) {
	p, err := e.llmProvider(ctx)
	if err != nil {
		return nil, nil, err
	}

	var cache definitions.Cache = definitions.NewMemoryCache()
	done := func() {}
	if e.cfg.Cache.Backend == config.CacheRedis {
		rc, err := definitions.NewRedisCache(ctx, e.cfg.RedisConfig())
		if err != nil {
			e.logger.Warn("redis cache unavailable, using memory cache", zap.Error(err))
		} else {
			cache = rc
			done = func() { _ = rc.Close() }
		}
	}
	return definitions.New(p, cache, e.cfg.DefinitionsConfig(), e.logger), done, nil
}

// topic loads a topic by name.
func (e *appEnv) topic(ctx context.Context, name string) (concept.Topic, error) {
	t, err := e.topics.LoadByName(ctx, name)
	if err != nil {
		return concept.Topic{}, fmt.Errorf("topic %q: %w", name, err)
	}
	return t, nil
}
