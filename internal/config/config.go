// Package config loads application configuration: built-in defaults,
// then an optional YAML file, then MOCKVIEW_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/mockview/internal/difficulty"
	"github.com/abhisek/mockview/internal/evaluation"
	"github.com/abhisek/mockview/internal/llm"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	DB         string           `yaml:"db"`
	LLM        LLMConfig        `yaml:"llm"`
	Difficulty DifficultyConfig `yaml:"difficulty"`
	FollowUp   FollowUpConfig   `yaml:"followup"`
	Evaluation EvaluationConfig `yaml:"evaluation"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LogConfig configures slog output. An empty Format lets the command pick
// (JSON for the server, text for the CLI).
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LLMConfig holds the non-secret provider settings. API keys only come
// from the environment.
type LLMConfig struct {
	Provider string        `yaml:"provider"`
	Model    string        `yaml:"model"`
	Timeout  time.Duration `yaml:"timeout"`
	Retry    RetryConfig   `yaml:"retry"`
}

// RetryConfig mirrors llm.RetryConfig.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	InitialWait time.Duration `yaml:"initial_wait"`
	MaxWait     time.Duration `yaml:"max_wait"`
}

// DifficultyConfig configures the difficulty controller.
type DifficultyConfig struct {
	Window int `yaml:"window"`
}

// FollowUpConfig configures the follow-up policy. Seed 0 seeds from the
// clock.
type FollowUpConfig struct {
	Seed uint64 `yaml:"seed"`
}

// EvaluationConfig configures the final report.
type EvaluationConfig struct {
	Weights     evaluation.Weights     `yaml:"weights"`
	Calibration evaluation.Calibration `yaml:"calibration"`
}

// Default returns the built-in configuration.
func Default() Config {
	lc := llm.DefaultConfig()
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    90 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{Level: "info"},
		LLM: LLMConfig{
			Timeout: lc.Timeout,
			Retry: RetryConfig{
				MaxAttempts: lc.Retry.MaxAttempts,
				InitialWait: lc.Retry.InitialWait,
				MaxWait:     lc.Retry.MaxWait,
			},
		},
		Difficulty: DifficultyConfig{Window: difficulty.DefaultWindow},
		Evaluation: EvaluationConfig{
			Weights:     evaluation.DefaultWeights(),
			Calibration: evaluation.DefaultCalibration(),
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is non-empty) and the environment. A .env file in the working
// directory is loaded first; variables already set take precedence.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := decode(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// decode overlays YAML onto cfg. Unknown keys are rejected.
func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("MOCKVIEW_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("MOCKVIEW_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("MOCKVIEW_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("MOCKVIEW_DB"); v != "" {
		c.DB = v
	}
	if v := os.Getenv("MOCKVIEW_DIFFICULTY_WINDOW"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("MOCKVIEW_DIFFICULTY_WINDOW: %w", err)
		}
		c.Difficulty.Window = n
	}
	if v := os.Getenv("MOCKVIEW_FOLLOWUP_SEED"); v != "" {
		n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("MOCKVIEW_FOLLOWUP_SEED: %w", err)
		}
		c.FollowUp.Seed = n
	}
	return nil
}

// Validate checks every tunable.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr cannot be empty")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text (got %q)", c.Log.Format)
	}
	if c.Difficulty.Window < 1 {
		return fmt.Errorf("difficulty.window must be at least 1")
	}
	if c.LLM.Retry.MaxAttempts < 1 {
		return fmt.Errorf("llm.retry.max_attempts must be at least 1")
	}
	if c.LLM.Timeout < 0 {
		return fmt.Errorf("llm.timeout cannot be negative")
	}
	if err := c.Evaluation.Weights.Validate(); err != nil {
		return err
	}
	return c.Evaluation.Calibration.Validate()
}

// ProviderConfig resolves the LLM provider settings: file values first,
// then the MOCKVIEW_* and vendor key variables. A provider named in the
// file wins over key discovery but not over MOCKVIEW_LLM_PROVIDER, and
// the file's model applies to whichever provider is selected unless its
// MOCKVIEW_<PROVIDER>_MODEL is set.
func (c *Config) ProviderConfig() llm.Config {
	lc := llm.DefaultConfig()
	lc.Timeout = c.LLM.Timeout
	lc.Retry.MaxAttempts = c.LLM.Retry.MaxAttempts
	if c.LLM.Retry.InitialWait > 0 {
		lc.Retry.InitialWait = c.LLM.Retry.InitialWait
	}
	if c.LLM.Retry.MaxWait > 0 {
		lc.Retry.MaxWait = c.LLM.Retry.MaxWait
	}

	lc = llm.ApplyEnv(lc)
	if c.LLM.Provider != "" && os.Getenv("MOCKVIEW_LLM_PROVIDER") == "" {
		lc.Provider = c.LLM.Provider
	}
	if c.LLM.Model != "" && os.Getenv("MOCKVIEW_"+strings.ToUpper(lc.Provider)+"_MODEL") == "" {
		switch lc.Provider {
		case "anthropic":
			lc.Anthropic.Model = c.LLM.Model
		case "openai":
			lc.OpenAI.Model = c.LLM.Model
		case "gemini":
			lc.Gemini.Model = c.LLM.Model
		case "openrouter":
			lc.OpenRouter.Model = c.LLM.Model
		}
	}
	return lc
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return l, nil
}
