package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abhisek/mockview/internal/catalog"
	"github.com/abhisek/mockview/internal/domain"
)

type staticTopics []catalog.Topic

func (s staticTopics) Topics(role string) []catalog.Topic {
	if role != "test" {
		return nil
	}
	return s
}

var testTopics = staticTopics{
	{Name: "Hooks", Keywords: []string{"hook", "useState", "useEffect"}},
	{Name: "Caching", Keywords: []string{"cache", "memoize"}},
	{Name: "Testing", Keywords: []string{"unit test", "jest"}},
}

func msg(role domain.MessageRole, content string) domain.Message {
	return domain.Message{Role: role, Content: content}
}

func ref(m domain.Message, idx int) domain.Message {
	m.MetricIndex = &idx
	return m
}

func metric(mean float64) domain.PerformanceMetric {
	return domain.PerformanceMetric{TechnicalDepth: mean, Clarity: mean, Confidence: mean}
}

func TestAnalyze_NoMatches(t *testing.T) {
	a := NewAnalyzer(testTopics)
	got := a.Analyze([]domain.Message{
		msg(domain.RoleAssistant, "Tell me about yourself."),
		msg(domain.RoleUser, "I like gardening."),
	}, []domain.PerformanceMetric{metric(9)}, "test")

	assert.Empty(t, got.TopicsCovered)
	assert.Empty(t, got.StrongAreas)
	assert.Empty(t, got.WeakAreas)
	assert.NotNil(t, got.TopicsCovered)
}

func TestAnalyze_UnknownRole(t *testing.T) {
	a := NewAnalyzer(testTopics)
	got := a.Analyze([]domain.Message{msg(domain.RoleUser, "hooks and cache")}, []domain.PerformanceMetric{metric(9)}, "cobol")
	assert.Equal(t, domain.KnowledgeAnalysis{TopicsCovered: []string{}, StrongAreas: []string{}, WeakAreas: []string{}}, got)
}

func TestAnalyze_ParityFallback(t *testing.T) {
	a := NewAnalyzer(testTopics)
	messages := []domain.Message{
		msg(domain.RoleAssistant, "How do you avoid recomputing values? Think about a cache."),
		msg(domain.RoleUser, "I memoize with USESTATE and a hook."), // i=1 -> metric 0
		msg(domain.RoleAssistant, "How do you test that?"),
		msg(domain.RoleUser, "With jest, and I cache fixtures."), // i=3 -> metric 1
		msg(domain.RoleSystem, "unit test jest hook"),
	}
	history := []domain.PerformanceMetric{metric(8), metric(4)}

	got := a.Analyze(messages, history, "test")

	// Caching first appears in an assistant message, before Hooks.
	assert.Equal(t, []string{"Caching", "Hooks", "Testing"}, got.TopicsCovered)
	// Hooks: 8. Caching: (8+4)/2 = 6. Testing: 4.
	assert.Equal(t, []string{"Hooks"}, got.StrongAreas)
	assert.Equal(t, []string{"Testing"}, got.WeakAreas)
}

func TestAnalyze_MetricReferences(t *testing.T) {
	a := NewAnalyzer(testTopics)
	// Two consecutive user messages break parity; references keep the
	// pairing right.
	messages := []domain.Message{
		msg(domain.RoleAssistant, "Opening question"),
		ref(msg(domain.RoleUser, "useEffect cleanup"), 0),
		ref(msg(domain.RoleUser, "jest mocks"), 1),
		msg(domain.RoleAssistant, "Next"),
		msg(domain.RoleUser, "a hook I never got scored for"),
	}
	history := []domain.PerformanceMetric{metric(3), metric(9)}

	got := a.Analyze(messages, history, "test")

	assert.Equal(t, []string{"Hooks", "Testing"}, got.TopicsCovered)
	assert.Equal(t, []string{"Testing"}, got.StrongAreas)
	assert.Equal(t, []string{"Hooks"}, got.WeakAreas)
}

func TestAnalyze_MissingMetricIgnored(t *testing.T) {
	a := NewAnalyzer(testTopics)
	messages := []domain.Message{
		msg(domain.RoleAssistant, "q"),
		msg(domain.RoleUser, "a hook"),
	}
	got := a.Analyze(messages, nil, "test")

	assert.Equal(t, []string{"Hooks"}, got.TopicsCovered)
	assert.Empty(t, got.StrongAreas)
	assert.Empty(t, got.WeakAreas)
}

func TestAnalyze_ModerateTopicNeitherStrongNorWeak(t *testing.T) {
	a := NewAnalyzer(testTopics)
	messages := []domain.Message{
		msg(domain.RoleAssistant, "q"),
		msg(domain.RoleUser, "cache"),
	}
	got := a.Analyze(messages, []domain.PerformanceMetric{metric(5)}, "test")

	assert.Equal(t, []string{"Caching"}, got.TopicsCovered)
	assert.Empty(t, got.StrongAreas)
	assert.Empty(t, got.WeakAreas)
}

func TestAnalyze_BuiltInCatalog(t *testing.T) {
	a := NewAnalyzer(nil)
	messages := []domain.Message{
		msg(domain.RoleAssistant, "Explain the Node.js Event Loop and its different phases."),
		msg(domain.RoleUser, "Callbacks run after the stack clears; streams use a buffer."),
	}
	got := a.Analyze(messages, []domain.PerformanceMetric{metric(7.5)}, "Node.js Developer")

	assert.Equal(t, []string{"Event Loop", "Streams"}, got.TopicsCovered)
	assert.Equal(t, []string{"Event Loop", "Streams"}, got.StrongAreas)
	assert.Empty(t, got.WeakAreas)
}
