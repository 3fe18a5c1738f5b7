// Package scoring turns one interview answer into three 0-10 quality
// sub-scores, through the configured LLM when there is one and through a
// deterministic text heuristic otherwise.
package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/abhisek/mockview/internal/domain"
	"github.com/abhisek/mockview/internal/llm"
)

// Score sources recorded on each metric.
const (
	SourceLLM       = "llm"
	SourceHeuristic = "heuristic"
)

// Score bounds and the value used for a field the LLM left out.
const (
	MinScore     = 0.0
	MaxScore     = 10.0
	MissingScore = 5.0
)

// Scores is the estimator output. Every field is within [MinScore, MaxScore].
type Scores struct {
	TechnicalDepth float64 `json:"technicalDepth"`
	Clarity        float64 `json:"clarity"`
	Confidence     float64 `json:"confidence"`
	Source         string  `json:"source"`
}

// Mean returns the mean-of-three.
func (s Scores) Mean() float64 {
	return (s.TechnicalDepth + s.Clarity + s.Confidence) / 3
}

// Metric converts the scores into a performance metric for question n.
func (s Scores) Metric(n int) domain.PerformanceMetric {
	return domain.PerformanceMetric{
		QuestionNumber: n,
		TechnicalDepth: s.TechnicalDepth,
		Clarity:        s.Clarity,
		Confidence:     s.Confidence,
		Source:         s.Source,
	}
}

// Config tunes the LLM scoring request.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   256,
		Temperature: 0.2,
	}
}

// Estimator scores answers. It never fails: every provider or parse error
// is absorbed by the heuristic.
type Estimator struct {
	provider llm.Provider
	cfg      Config
	logger   *slog.Logger
}

// NewEstimator creates an estimator. A nil provider means heuristic only.
func NewEstimator(provider llm.Provider, logger *slog.Logger) *Estimator {
	return NewEstimatorWithConfig(provider, DefaultConfig(), logger)
}

// NewEstimatorWithConfig is NewEstimator with explicit request settings.
func NewEstimatorWithConfig(provider llm.Provider, cfg Config, logger *slog.Logger) *Estimator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Estimator{provider: provider, cfg: cfg, logger: logger}
}

// Estimate scores answer as a reply to question for the given role.
func (e *Estimator) Estimate(ctx context.Context, answer, question, role string) Scores {
	if e.provider == nil {
		return Heuristic(answer)
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeScoring)
	resp, err := e.provider.Generate(ctx, llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(answer, question, role)},
		},
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
	})
	if err != nil {
		e.logFallback(err)
		return Heuristic(answer)
	}

	scores, err := parseScores(resp.Text())
	if err != nil {
		e.logger.Warn("scoring reply unusable, using heuristic",
			"model", resp.Model, "error", err)
		return Heuristic(answer)
	}
	return scores
}

func (e *Estimator) logFallback(err error) {
	var auth *llm.ErrAuthentication
	if errors.As(err, &auth) {
		e.logger.Error("scoring provider rejected credentials, using heuristic",
			"kind", llm.Kind(err), "error", err)
		return
	}
	e.logger.Warn("scoring provider failed, using heuristic",
		"kind", llm.Kind(err), "error", err)
}

var errNoObject = errors.New("no JSON object in reply")

// parseScores reads the first JSON object embedded in text.
func parseScores(text string) (Scores, error) {
	obj, ok := firstObject(text)
	if !ok {
		return Scores{}, errNoObject
	}
	return Scores{
		TechnicalDepth: field(obj, "technicalDepth", "technical_depth"),
		Clarity:        field(obj, "clarity"),
		Confidence:     field(obj, "confidence"),
		Source:         SourceLLM,
	}, nil
}

// firstObject decodes the first well-formed JSON object found in text.
func firstObject(text string) (map[string]any, bool) {
	for i := 0; i < len(text); i++ {
		j := strings.IndexByte(text[i:], '{')
		if j < 0 {
			return nil, false
		}
		i += j
		dec := json.NewDecoder(bytes.NewReader([]byte(text[i:])))
		dec.UseNumber()
		var obj map[string]any
		if err := dec.Decode(&obj); err == nil {
			return obj, true
		}
	}
	return nil, false
}

// field returns the first present numeric value under any of keys,
// clamped, or MissingScore.
func field(obj map[string]any, keys ...string) float64 {
	for _, k := range keys {
		v, ok := obj[k]
		if !ok {
			continue
		}
		if f, ok := toFloat(v); ok {
			return clamp(f)
		}
		return MissingScore
	}
	return MissingScore
}

func toFloat(v any) (float64, bool) {
	var f float64
	var err error
	switch t := v.(type) {
	case json.Number:
		f, err = t.Float64()
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(t), 64)
	default:
		return 0, false
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func clamp(v float64) float64 {
	return math.Max(MinScore, math.Min(MaxScore, v))
}
