// Package difficulty keeps a session's 1-10 difficulty in step with the
// candidate's recent answers.
package difficulty

import (
	"math"

	"github.com/abhisek/mockview/internal/domain"
)

// Global difficulty bounds.
const (
	Min = 1.0
	Max = 10.0
)

// DefaultWindow is the number of most recent metrics PerformanceScore reads.
const DefaultWindow = 3

// Band is the difficulty range a level is meant to sit in.
type Band struct {
	Min    float64
	Max    float64
	Target float64
}

var bands = map[domain.Level]Band{
	domain.LevelJunior: {Min: 3, Max: 6, Target: 4.5},
	domain.LevelMid:    {Min: 4, Max: 8, Target: 6},
	domain.LevelSenior: {Min: 6, Max: 10, Target: 8},
}

// BandFor returns the band for level. Unknown levels get the mid band.
func BandFor(level domain.Level) Band {
	if b, ok := bands[level]; ok {
		return b
	}
	return bands[domain.LevelMid]
}

// Step sizes applied by Adjust.
const (
	bigStep   = 1.5
	smallStep = 0.5
	nudge     = 0.3
)

// PerformanceScore is the position-weighted mean-of-three over the last
// window metrics, weights 1..n with the newest heaviest. An empty history
// scores a neutral 5. A window below 1 uses DefaultWindow.
func PerformanceScore(history []domain.PerformanceMetric, window int) float64 {
	if len(history) == 0 {
		return 5
	}
	if window < 1 {
		window = DefaultWindow
	}
	if len(history) > window {
		history = history[len(history)-window:]
	}

	var total, weights float64
	for i, m := range history {
		w := float64(i + 1)
		total += m.Mean() * w
		weights += w
	}
	return total / weights
}

// Adjust returns the next difficulty given the current one and a
// performance score. The result is always within [Min, Max].
func Adjust(current, score float64, level domain.Level) float64 {
	b := BandFor(level)
	next := current

	switch {
	case score >= 7.5:
		next = math.Min(b.Max, current+bigStep)
	case score >= 6.5:
		next = math.Min(b.Max, current+smallStep)
	case score <= 3.5:
		next = math.Max(b.Min, current-bigStep)
	case score <= 4.5:
		next = math.Max(b.Min, current-smallStep)
	case current < b.Target:
		next = math.Min(b.Target, current+nudge)
	case current > b.Target:
		next = math.Max(b.Target, current-nudge)
	}

	return math.Max(Min, math.Min(Max, next))
}

// Next is Adjust applied to the PerformanceScore of history.
func Next(current float64, history []domain.PerformanceMetric, window int, level domain.Level) float64 {
	return Adjust(current, PerformanceScore(history, window), level)
}
