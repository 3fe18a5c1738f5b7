package evaluation

import "github.com/abhisek/mockview/internal/domain"

// Direction is the movement of answer quality over a session.
type Direction string

const (
	Improving Direction = "improving"
	Declining Direction = "declining"
	Stable    Direction = "stable"
)

// Trend compares the halves of history split at len/2. A difference beyond
// ±0.5 is a trend; fewer than 3 metrics is always Stable.
func Trend(history []domain.PerformanceMetric) Direction {
	if len(history) < 3 {
		return Stable
	}
	first, second := halves(history, len(history)/2)
	return direction(second-first, 0.5)
}

func direction(diff, threshold float64) Direction {
	switch {
	case diff > threshold:
		return Improving
	case diff < -threshold:
		return Declining
	default:
		return Stable
	}
}

// Coaching is the short live note shown while a session is running.
type Coaching struct {
	Trend       Direction `json:"trend"`
	Message     string    `json:"message"`
	Suggestions []string  `json:"suggestions"`
}

var coaching = map[Direction]Coaching{
	Improving: {
		Trend:   Improving,
		Message: "Excellent! Your responses are getting stronger!",
		Suggestions: []string{
			"Keep providing detailed explanations",
			"Continue using specific examples",
			"You're building great momentum",
		},
	},
	Declining: {
		Trend:   Declining,
		Message: "Your responses are becoming less detailed. Take a moment to think through your answers.",
		Suggestions: []string{
			"Slow down and elaborate more",
			"Use concrete examples",
			`Explain the "why" behind your answers`,
		},
	},
	Stable: {
		Trend:   Stable,
		Message: "You're maintaining consistent performance. Good work!",
		Suggestions: []string{
			"Challenge yourself with deeper answers",
			"Provide more technical details",
			"Discuss trade-offs and alternatives",
		},
	},
}

var baseline = Coaching{
	Trend:       Stable,
	Message:     "Keep going! We're still assessing your baseline performance.",
	Suggestions: []string{"Take your time with each answer", "Provide specific examples"},
}

// Coach compares the early half of history (the larger one for odd
// lengths) with the rest. A difference beyond ±1 is a trend. Fewer than 2
// metrics returns the baseline note.
func Coach(history []domain.PerformanceMetric) Coaching {
	if len(history) < 2 {
		return clone(baseline)
	}
	early, recent := halves(history, (len(history)+1)/2)
	return clone(coaching[direction(recent-early, 1)])
}

func clone(c Coaching) Coaching {
	c.Suggestions = append([]string(nil), c.Suggestions...)
	return c
}
