// Package config loads explainit settings from a TOML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/abhisek/explainit/internal/definitions"
	"github.com/abhisek/explainit/internal/grading"
	"github.com/abhisek/explainit/internal/llm"
	"github.com/abhisek/explainit/internal/logging"
	"github.com/abhisek/explainit/internal/proficiency"
	"github.com/abhisek/explainit/internal/questions"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Duration is a time.Duration written as a Go duration string ("30s").
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

type Config struct {
	// DBPath overrides the default database location.
	DBPath string `toml:"db_path,omitempty"`

	Log         logging.Config     `toml:"log"`
	LLM         LLM                `toml:"llm"`
	Proficiency proficiency.Config `toml:"proficiency"`
	Cache       Cache              `toml:"cache"`
	Questions   Questions          `toml:"questions"`
}

// LLM selects a provider. API keys are better kept in the environment.
type LLM struct {
	Provider    string   `toml:"provider"`
	Model       string   `toml:"model,omitempty"`
	APIKey      string   `toml:"api_key,omitempty"`
	BaseURL     string   `toml:"base_url,omitempty"`
	Timeout     Duration `toml:"timeout"`
	MaxAttempts int      `toml:"max_attempts"`
}

type Cache struct {
	Backend       string   `toml:"backend"`
	RedisAddr     string   `toml:"redis_addr,omitempty"`
	RedisPassword string   `toml:"redis_password,omitempty"`
	RedisDB       int      `toml:"redis_db"`
	TTL           Duration `toml:"ttl"`
	Concurrency   int      `toml:"concurrency"`
}

type Questions struct {
	Count       int     `toml:"count"`
	Temperature float64 `toml:"temperature"`
}

func Default() Config {
	lc := llm.DefaultConfig()
	qc := questions.DefaultConfig()
	dc := definitions.DefaultConfig()
	return Config{
		Log: logging.DefaultConfig(),
		LLM: LLM{
			Provider:    lc.Provider,
			Timeout:     Duration(lc.Timeout),
			MaxAttempts: lc.Retry.MaxAttempts,
		},
		Proficiency: proficiency.DefaultConfig(),
		Cache: Cache{
			Backend:     CacheMemory,
			TTL:         Duration(7 * 24 * time.Hour),
			Concurrency: dc.Concurrency,
		},
		Questions: Questions{Count: qc.Count, Temperature: qc.Temperature},
	}
}

// Path is the config file location: $EXPLAINIT_CONFIG, else
// $XDG_CONFIG_HOME/explainit/config.toml, else ~/.config/explainit/config.toml.
func Path() string {
	if p := os.Getenv("EXPLAINIT_CONFIG"); p != "" {
		return p
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "explainit", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.toml")
	}
	return filepath.Join(home, ".config", "explainit", "config.toml")
}

// Load reads path over the defaults and applies EXPLAINIT_* overrides. A
// missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("read config: %w", err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating parent directories.
func Save(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

func (c *Config) applyEnv() {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.DBPath, "EXPLAINIT_DB")
	set(&c.Log.Level, "EXPLAINIT_LOG_LEVEL")
	set(&c.Log.Format, "EXPLAINIT_LOG_FORMAT")
	set(&c.Cache.Backend, "EXPLAINIT_CACHE_BACKEND")
	set(&c.Cache.RedisAddr, "EXPLAINIT_REDIS_ADDR")
	set(&c.Cache.RedisPassword, "EXPLAINIT_REDIS_PASSWORD")
}

func (c Config) Validate() error {
	switch c.Log.Format {
	case logging.FormatConsole, logging.FormatJSON, "":
	default:
		return fmt.Errorf("log.format must be %q or %q, got %q", logging.FormatConsole, logging.FormatJSON, c.Log.Format)
	}
	switch c.Cache.Backend {
	case CacheMemory:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New("cache.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("cache.backend must be %q or %q, got %q", CacheMemory, CacheRedis, c.Cache.Backend)
	}
	if c.Questions.Count < 0 {
		return fmt.Errorf("questions.count must not be negative, got %d", c.Questions.Count)
	}
	if err := c.Proficiency.Validate(); err != nil {
		return fmt.Errorf("proficiency: %w", err)
	}
	return nil
}

// LLMConfig resolves provider settings: file values over the defaults,
// then EXPLAINIT_* variables, then vendor key discovery.
func (c Config) LLMConfig() llm.Config {
	out := llm.DefaultConfig()
	if c.LLM.Provider != "" {
		out.Provider = c.LLM.Provider
	}
	if c.LLM.Model != "" {
		out.SetModel(c.LLM.Model)
	}
	if c.LLM.APIKey != "" {
		out.SetAPIKey(c.LLM.APIKey)
	}
	if c.LLM.BaseURL != "" {
		switch out.Provider {
		case llm.ProviderOpenAI:
			out.OpenAI.BaseURL = c.LLM.BaseURL
		case llm.ProviderOpenRouter:
			out.OpenRouter.BaseURL = c.LLM.BaseURL
		}
	}
	if c.LLM.Timeout > 0 {
		out.Timeout = time.Duration(c.LLM.Timeout)
	}
	if c.LLM.MaxAttempts > 0 {
		out.Retry.MaxAttempts = c.LLM.MaxAttempts
	}

	out = llm.ApplyEnv(out)
	if discovered, ok := llm.Discover(out); ok {
		out = discovered
	}
	return out
}

func (c Config) QuestionsConfig() questions.Config {
	out := questions.DefaultConfig()
	if c.Questions.Count > 0 {
		out.Count = c.Questions.Count
	}
	out.Temperature = c.Questions.Temperature
	return out
}

func (c Config) GradingConfig() grading.Config {
	return grading.DefaultConfig()
}

func (c Config) DefinitionsConfig() definitions.Config {
	out := definitions.DefaultConfig()
	if c.Cache.Concurrency > 0 {
		out.Concurrency = c.Cache.Concurrency
	}
	return out
}

func (c Config) RedisConfig() definitions.RedisConfig {
	return definitions.RedisConfig{
		Addr:     c.Cache.RedisAddr,
		Password: c.Cache.RedisPassword,
		DB:       c.Cache.RedisDB,
		TTL:      time.Duration(c.Cache.TTL),
	}
}
