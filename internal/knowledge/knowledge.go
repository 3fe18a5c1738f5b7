// Package knowledge maps a transcript onto a role's topics and sorts the
// touched topics into strong and weak areas.
package knowledge

import (
	"strings"

	"github.com/abhisek/mockview/internal/catalog"
	"github.com/abhisek/mockview/internal/domain"
)

// Area thresholds on a topic's average mean-of-three.
const (
	StrongThreshold = 7.0
	WeakThreshold   = 5.0
)

// TopicSource resolves a role to its topics. *catalog.Catalog satisfies it.
type TopicSource interface {
	Topics(role string) []catalog.Topic
}

// Analyzer finds covered, strong and weak topics.
type Analyzer struct {
	topics TopicSource
}

// NewAnalyzer creates an analyzer over src. A nil src uses the built-in
// catalog.
func NewAnalyzer(src TopicSource) *Analyzer {
	if src == nil {
		src = catalog.Default()
	}
	return &Analyzer{topics: src}
}

// Analyze scans messages in order. A topic is covered the first time any
// of its keywords appears in a user or assistant message. A user message
// that mentions a topic contributes the mean of its metric to that topic.
// Unknown roles yield empty results.
func (a *Analyzer) Analyze(messages []domain.Message, history []domain.PerformanceMetric, role string) domain.KnowledgeAnalysis {
	out := domain.KnowledgeAnalysis{
		TopicsCovered: []string{},
		StrongAreas:   []string{},
		WeakAreas:     []string{},
	}

	topics := a.topics.Topics(role)
	if len(topics) == 0 {
		return out
	}

	indexed := hasMetricRefs(messages)
	covered := make(map[string]bool, len(topics))
	scores := make(map[string][]float64, len(topics))
	var scored []string // topics in first-scored order

	for i, msg := range messages {
		if msg.Role != domain.RoleUser && msg.Role != domain.RoleAssistant {
			continue
		}
		content := strings.ToLower(msg.Content)

		for _, topic := range topics {
			if !mentions(content, topic.Keywords) {
				continue
			}
			if !covered[topic.Name] {
				covered[topic.Name] = true
				out.TopicsCovered = append(out.TopicsCovered, topic.Name)
			}
			if msg.Role != domain.RoleUser {
				continue
			}
			m, ok := metricFor(msg, i, indexed, history)
			if !ok {
				continue
			}
			if _, seen := scores[topic.Name]; !seen {
				scored = append(scored, topic.Name)
			}
			scores[topic.Name] = append(scores[topic.Name], m.Mean())
		}
	}

	for _, name := range scored {
		avg := mean(scores[name])
		switch {
		case avg >= StrongThreshold:
			out.StrongAreas = append(out.StrongAreas, name)
		case avg < WeakThreshold:
			out.WeakAreas = append(out.WeakAreas, name)
		}
	}
	return out
}

func mentions(content string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(content, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

func hasMetricRefs(messages []domain.Message) bool {
	for _, m := range messages {
		if m.MetricIndex != nil {
			return true
		}
	}
	return false
}

// metricFor returns the metric scored for the user message at index i.
// In transcripts carrying metric references an unreferenced message was
// not scored. Older transcripts fall back to the assistant/user pairing,
// index i/2.
func metricFor(msg domain.Message, i int, indexed bool, history []domain.PerformanceMetric) (domain.PerformanceMetric, bool) {
	idx := i / 2
	if indexed {
		if msg.MetricIndex == nil {
			return domain.PerformanceMetric{}, false
		}
		idx = *msg.MetricIndex
	}
	if idx < 0 || idx >= len(history) {
		return domain.PerformanceMetric{}, false
	}
	return history[idx], true
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
