package cmd

import (
	"context"
	"log/slog"

	"github.com/abhisek/mockview/internal/config"
	"github.com/abhisek/mockview/internal/evaluation"
	"github.com/abhisek/mockview/internal/followup"
	"github.com/abhisek/mockview/internal/interview"
	"github.com/abhisek/mockview/internal/llm"
	"github.com/abhisek/mockview/internal/scoring"
	"github.com/abhisek/mockview/internal/store"
)

// buildProvider creates the configured provider. A provider that cannot
// be initialized is reported and the app runs without one.
func buildProvider(ctx context.Context, cfg *config.Config, events store.EventRepo, logger *slog.Logger) llm.Provider {
	lc := cfg.ProviderConfig()
	provider, err := llm.NewProvider(ctx, lc, events)
	if err != nil {
		logger.Warn("LLM provider not configured, using heuristic scoring and the question bank",
			"provider", lc.Provider, "error", err)
		return nil
	}
	if provider == nil {
		logger.Debug("no LLM provider selected")
		return nil
	}
	logger.Debug("LLM provider ready", "provider", lc.Provider, "model", provider.ModelID())
	return provider
}

// buildService wires the interview service from configuration.
func buildService(ctx context.Context, cfg *config.Config, sessions interview.Store, events store.EventRepo, logger *slog.Logger) (*interview.Service, error) {
	provider := buildProvider(ctx, cfg, events, logger)

	policy := followup.NewPolicy(nil)
	if cfg.FollowUp.Seed != 0 {
		policy = followup.NewSeededPolicy(cfg.FollowUp.Seed)
	}

	return interview.NewService(interview.Deps{
		Store:      sessions,
		Estimator:  scoring.NewEstimator(provider, logger),
		Questioner: interview.NewQuestioner(provider, nil, interview.DefaultQuestionerConfig()),
		Policy:     policy,
		Aggregator: evaluation.NewAggregator(cfg.Evaluation.Weights, cfg.Evaluation.Calibration, nil),
		Logger:     logger,
	}, interview.Config{DifficultyWindow: cfg.Difficulty.Window})
}
