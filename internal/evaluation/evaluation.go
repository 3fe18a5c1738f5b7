// Package evaluation builds the end-of-interview report: averaged
// sub-scores, consistency and improvement, a weighted overall score, and
// the strengths, improvements and feedback text derived from them.
package evaluation

import (
	"fmt"
	"math"
	"strings"

	"github.com/abhisek/mockview/internal/domain"
	"github.com/abhisek/mockview/internal/knowledge"
)

// Weights combine the five dimensions into the overall score.
type Weights struct {
	TechnicalDepth float64 `yaml:"technical_depth"`
	Clarity        float64 `yaml:"clarity"`
	Confidence     float64 `yaml:"confidence"`
	Consistency    float64 `yaml:"consistency"`
	Improvement    float64 `yaml:"improvement"`
}

// DefaultWeights returns the standard weighting.
func DefaultWeights() Weights {
	return Weights{
		TechnicalDepth: 0.35,
		Clarity:        0.25,
		Confidence:     0.15,
		Consistency:    0.15,
		Improvement:    0.10,
	}
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.TechnicalDepth + w.Clarity + w.Confidence + w.Consistency + w.Improvement
}

// Combine returns the weighted sum of the five dimension values.
func (w Weights) Combine(technicalDepth, clarity, confidence, consistency, improvement float64) float64 {
	return technicalDepth*w.TechnicalDepth +
		clarity*w.Clarity +
		confidence*w.Confidence +
		consistency*w.Consistency +
		improvement*w.Improvement
}

// Validate requires non-negative weights summing to 1.
func (w Weights) Validate() error {
	for _, v := range []float64{w.TechnicalDepth, w.Clarity, w.Confidence, w.Consistency, w.Improvement} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("evaluation weights must be non-negative")
		}
	}
	if math.Abs(w.Sum()-1) > 1e-9 {
		return fmt.Errorf("evaluation weights must sum to 1 (got %.4f)", w.Sum())
	}
	return nil
}

// Calibration scales the spread and trend terms onto 0-10.
type Calibration struct {
	// ConsistencyScale multiplies the standard deviation subtracted from 10.
	ConsistencyScale float64 `yaml:"consistency_scale"`
	// ImprovementScale multiplies the second-half minus first-half delta.
	ImprovementScale float64 `yaml:"improvement_scale"`
}

// DefaultCalibration returns the standard scales.
func DefaultCalibration() Calibration {
	return Calibration{ConsistencyScale: 2.5, ImprovementScale: 1.67}
}

// Validate requires positive scales.
func (c Calibration) Validate() error {
	if c.ConsistencyScale <= 0 || c.ImprovementScale <= 0 {
		return fmt.Errorf("calibration scales must be positive")
	}
	return nil
}

// Neutral is returned when there is too little history to judge.
const Neutral = 5.0

// Consistency is 10 minus the scaled population standard deviation of the
// per-metric means, clamped to [0,10]. Fewer than 2 metrics is Neutral.
func (c Calibration) Consistency(history []domain.PerformanceMetric) float64 {
	if len(history) < 2 {
		return Neutral
	}
	means := metricMeans(history)
	mu := average(means)
	var variance float64
	for _, m := range means {
		variance += (m - mu) * (m - mu)
	}
	variance /= float64(len(means))
	return clamp(10 - math.Sqrt(variance)*c.ConsistencyScale)
}

// Improvement compares the halves of history split at len/2:
// 5 + scale·(second − first), clamped to [0,10]. Fewer than 3 metrics is
// Neutral.
func (c Calibration) Improvement(history []domain.PerformanceMetric) float64 {
	if len(history) < 3 {
		return Neutral
	}
	first, second := halves(history, len(history)/2)
	return clamp(Neutral + (second-first)*c.ImprovementScale)
}

// Consistency uses the default calibration.
func Consistency(history []domain.PerformanceMetric) float64 {
	return DefaultCalibration().Consistency(history)
}

// Improvement uses the default calibration.
func Improvement(history []domain.PerformanceMetric) float64 {
	return DefaultCalibration().Improvement(history)
}

// Averages holds the per-dimension means of a history.
type Averages struct {
	TechnicalDepth float64 `json:"technicalDepth"`
	Clarity        float64 `json:"clarity"`
	Confidence     float64 `json:"confidence"`
}

// Average returns the per-dimension means, all zero for an empty history.
func Average(history []domain.PerformanceMetric) Averages {
	if len(history) == 0 {
		return Averages{}
	}
	var a Averages
	for _, m := range history {
		a.TechnicalDepth += m.TechnicalDepth
		a.Clarity += m.Clarity
		a.Confidence += m.Confidence
	}
	n := float64(len(history))
	a.TechnicalDepth /= n
	a.Clarity /= n
	a.Confidence /= n
	return a
}

// Aggregator builds evaluations with a fixed weighting and calibration.
type Aggregator struct {
	weights  Weights
	calib    Calibration
	analyzer *knowledge.Analyzer
}

// NewAggregator creates an aggregator. A nil analyzer uses the built-in
// role catalog.
func NewAggregator(w Weights, c Calibration, analyzer *knowledge.Analyzer) *Aggregator {
	if analyzer == nil {
		analyzer = knowledge.NewAnalyzer(nil)
	}
	return &Aggregator{weights: w, calib: c, analyzer: analyzer}
}

// Default returns an aggregator with the standard weights and calibration.
func Default() *Aggregator {
	return NewAggregator(DefaultWeights(), DefaultCalibration(), nil)
}

// Calibration returns the aggregator's calibration.
func (a *Aggregator) Calibration() Calibration {
	return a.calib
}

// OverallScore is the weighted sum of the five dimensions, 0 for an empty
// history.
func (a *Aggregator) OverallScore(history []domain.PerformanceMetric) float64 {
	if len(history) == 0 {
		return 0
	}
	avg := Average(history)
	return a.weights.Combine(avg.TechnicalDepth, avg.Clarity, avg.Confidence,
		a.calib.Consistency(history), a.calib.Improvement(history))
}

// OverallScore uses the default weights and calibration.
func OverallScore(history []domain.PerformanceMetric) float64 {
	return Default().OverallScore(history)
}

// Aggregate produces the final evaluation. Values keep full precision.
func (a *Aggregator) Aggregate(messages []domain.Message, history []domain.PerformanceMetric, role string, level domain.Level) domain.Evaluation {
	avg := Average(history)
	overall := a.OverallScore(history)
	return domain.Evaluation{
		TechnicalDepth:    avg.TechnicalDepth,
		Clarity:           avg.Clarity,
		Confidence:        avg.Confidence,
		OverallScore:      overall,
		Feedback:          a.Feedback(history, overall, role, level),
		Strengths:         a.Strengths(history, messages),
		Improvements:      a.Improvements(history, messages),
		KnowledgeAnalysis: a.analyzer.Analyze(messages, history, role),
	}
}

// Analyze runs the knowledge-gap analysis alone.
func (a *Aggregator) Analyze(messages []domain.Message, history []domain.PerformanceMetric, role string) domain.KnowledgeAnalysis {
	return a.analyzer.Analyze(messages, history, role)
}

// Strengths lists what went well, one bullet per triggered ladder.
func (a *Aggregator) Strengths(history []domain.PerformanceMetric, messages []domain.Message) []string {
	if len(history) == 0 {
		return []string{EmptyStrength}
	}
	out := a.collect(history, messages, func(l ladder) []rung { return l.strengths })
	if len(out) == 0 {
		return []string{DefaultStrength}
	}
	return out
}

// Improvements lists suggestions, one bullet per triggered ladder.
func (a *Aggregator) Improvements(history []domain.PerformanceMetric, messages []domain.Message) []string {
	if len(history) == 0 {
		return []string{EmptyImprovement}
	}
	out := a.collect(history, messages, func(l ladder) []rung { return l.improvements })
	if len(out) == 0 {
		return []string{DefaultImprovement}
	}
	return out
}

// Feedback renders the summary paragraph.
func (a *Aggregator) Feedback(history []domain.PerformanceMetric, overall float64, role string, level domain.Level) string {
	if len(history) == 0 {
		return EmptyFeedback
	}
	vals := a.measure(history, nil)

	var b strings.Builder
	fmt.Fprintf(&b, feedbackIntroFormat, level, role, len(history))
	text, _ := climb(banner, overall)
	b.WriteString(text)
	for _, l := range ladders {
		if len(l.commentary) == 0 {
			continue
		}
		if text, ok := climb(l.commentary, vals[l.dim]); ok {
			b.WriteString(text)
		}
	}
	return b.String()
}

func (a *Aggregator) collect(history []domain.PerformanceMetric, messages []domain.Message, pick func(ladder) []rung) []string {
	vals := a.measure(history, messages)
	var out []string
	for _, l := range ladders {
		v, ok := vals[l.dim]
		if !ok {
			continue
		}
		if text, ok := climb(pick(l), v); ok {
			out = append(out, text)
		}
	}
	return out
}

// measure computes every dimension value. Answer-based dimensions are only
// present when the transcript has user messages.
func (a *Aggregator) measure(history []domain.PerformanceMetric, messages []domain.Message) map[dimension]float64 {
	avg := Average(history)
	vals := map[dimension]float64{
		dimTechnicalDepth: avg.TechnicalDepth,
		dimClarity:        avg.Clarity,
		dimConfidence:     avg.Confidence,
		dimConsistency:    a.calib.Consistency(history),
		dimImprovement:    a.calib.Improvement(history),
	}

	var answers, chars, withCode int
	for _, m := range messages {
		if m.Role != domain.RoleUser {
			continue
		}
		answers++
		chars += len([]rune(m.Content))
		if hasCode(m.Content) {
			withCode++
		}
	}
	if answers > 0 {
		vals[dimAnswerLength] = float64(chars) / float64(answers)
		vals[dimCodeExamples] = float64(withCode)
	}
	return vals
}

func hasCode(s string) bool {
	return strings.Contains(s, "```") || strings.Contains(s, "function") || strings.Contains(s, "const ")
}

func metricMeans(history []domain.PerformanceMetric) []float64 {
	out := make([]float64, len(history))
	for i, m := range history {
		out[i] = m.Mean()
	}
	return out
}

// halves returns the mean-of-three averages of history[:at] and history[at:].
func halves(history []domain.PerformanceMetric, at int) (first, second float64) {
	return average(metricMeans(history[:at])), average(metricMeans(history[at:]))
}

func average(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(10, v))
}
