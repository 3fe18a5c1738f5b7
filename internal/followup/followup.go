// Package followup decides, after each scored answer, whether the
// interviewer stays on the same topic or moves on.
package followup

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/abhisek/mockview/internal/domain"
)

// BaselineMessages is the transcript length up to which every answer is
// followed up: the first three question/answer pairs.
const BaselineMessages = 6

// Policy is safe for concurrent use.
type Policy struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewPolicy creates a policy drawing from src. A nil src is seeded from
// the clock.
func NewPolicy(src rand.Source) *Policy {
	if src == nil {
		now := uint64(time.Now().UnixNano())
		src = rand.NewPCG(now, now>>1|1)
	}
	return &Policy{rng: rand.New(src)}
}

// NewSeededPolicy creates a reproducible policy.
func NewSeededPolicy(seed uint64) *Policy {
	return NewPolicy(rand.NewPCG(seed, seed))
}

// Probability returns the chance of a follow-up for metric once the
// deterministic rules have been passed. Shallow answers and the baseline
// phase return 1.
func Probability(metric domain.PerformanceMetric, messageCount int) float64 {
	mean := metric.Mean()
	switch {
	case mean < 5:
		return 1
	case messageCount <= BaselineMessages:
		return 1
	case mean < 7:
		return 0.6
	case mean < 8.5:
		return 0.3
	default:
		return 0.1
	}
}

// ShouldFollowUp reports whether the next interviewer turn follows up on the
// answer scored by metric. messageCount is the transcript length
// including that answer.
func (p *Policy) ShouldFollowUp(metric domain.PerformanceMetric, messageCount int) bool {
	prob := Probability(metric, messageCount)
	if prob >= 1 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Float64() < prob
}
