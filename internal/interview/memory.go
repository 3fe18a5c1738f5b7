package interview

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/abhisek/mockview/internal/domain"
)

// Memory defaults.
const (
	DefaultRecentMessages   = 6
	DefaultMaxTokens        = 3000
	DefaultTokensPerMessage = 100
)

// Memory picks the transcript slice that goes into an interviewer prompt.
type Memory struct {
	recent           int
	maxTokens        int
	tokensPerMessage int
}

// NewMemory creates a memory with the given token budget. A budget below 1
// uses DefaultMaxTokens.
func NewMemory(maxTokens int) *Memory {
	if maxTokens < 1 {
		maxTokens = DefaultMaxTokens
	}
	return &Memory{
		recent:           DefaultRecentMessages,
		maxTokens:        maxTokens,
		tokensPerMessage: DefaultTokensPerMessage,
	}
}

// MaxMessages is the number of messages the budget allows.
func (m *Memory) MaxMessages() int {
	return m.maxTokens / m.tokensPerMessage
}

// Relevant returns the messages to keep in context, in transcript order.
// Short transcripts are returned whole. Otherwise the most recent messages
// are always kept and the remaining slots go to the highest scoring older
// messages.
func (m *Memory) Relevant(messages []domain.Message, topic string) []domain.Message {
	kept, _ := m.Window(messages, topic)
	return kept
}

// Window is Relevant plus the messages it left out, both in transcript
// order.
func (m *Memory) Window(messages []domain.Message, topic string) (kept, dropped []domain.Message) {
	if len(messages) <= m.MaxMessages() {
		return messages, nil
	}

	keep := make([]bool, len(messages))
	cut := max(len(messages)-m.recent, 0)
	for i := cut; i < len(messages); i++ {
		keep[i] = true
	}

	if slots := m.MaxMessages() - m.recent; slots > 0 {
		older := messages[:cut]
		ranked := make([]int, len(older))
		scores := make([]float64, len(older))
		for i, msg := range older {
			ranked[i] = i
			scores[i] = relevance(msg, i, len(older), topic)
		}
		sort.SliceStable(ranked, func(a, b int) bool {
			return scores[ranked[a]] > scores[ranked[b]]
		})
		for _, i := range ranked[:min(slots, len(ranked))] {
			keep[i] = true
		}
	}

	for i, msg := range messages {
		if keep[i] {
			kept = append(kept, msg)
		} else {
			dropped = append(dropped, msg)
		}
	}
	return kept, dropped
}

// relevance ranks an older message: newer, interviewer-authored, longer,
// on-topic and code-bearing messages score higher.
func relevance(msg domain.Message, i, n int, topic string) float64 {
	score := float64(i) / float64(n) * 0.3
	if msg.Role == domain.RoleAssistant {
		score += 0.3
	}
	score += math.Min(float64(utf8.RuneCountInString(msg.Content))/500, 1) * 0.2
	if topic != "" && strings.Contains(strings.ToLower(msg.Content), strings.ToLower(topic)) {
		score += 0.4
	}
	if hasCode(msg.Content) {
		score += 0.2
	}
	return score
}

func hasCode(s string) bool {
	return strings.Contains(s, "```") || strings.Contains(s, "function") || strings.Contains(s, "const ")
}

// Flow describes the shape of a conversation so far.
type Flow struct {
	AvgResponseLength   float64 `json:"avgResponseLength"`
	QuestionCount       int     `json:"questionCount"`
	ShortAnswerCount    int     `json:"shortAnswerCount"`
	DetailedAnswerCount int     `json:"detailedAnswerCount"`
}

// Answer length bounds used by FlowStats.
const (
	ShortAnswerChars    = 100
	DetailedAnswerChars = 300
)

// FlowStats counts interviewer questions and buckets answers by length.
func FlowStats(messages []domain.Message) Flow {
	var f Flow
	var answers, chars int
	for _, msg := range messages {
		switch msg.Role {
		case domain.RoleAssistant:
			f.QuestionCount++
		case domain.RoleUser:
			n := utf8.RuneCountInString(msg.Content)
			answers++
			chars += n
			if n < ShortAnswerChars {
				f.ShortAnswerCount++
			}
			if n > DetailedAnswerChars {
				f.DetailedAnswerCount++
			}
		}
	}
	if answers > 0 {
		f.AvgResponseLength = float64(chars) / float64(answers)
	}
	return f
}

// summaryTopics are the headline subjects picked out of interviewer
// questions.
var summaryTopics = []struct {
	name     string
	keywords []string
}{
	{"Event Loop", []string{"event loop"}},
	{"Async Programming", []string{"promise", "async"}},
	{"React", []string{"react"}},
	{"Databases", []string{"database"}},
	{"API Design", []string{"api"}},
	{"Performance", []string{"performance"}},
	{"Security", []string{"security"}},
}

// Summarize condenses a transcript into one line for long-term notes.
func Summarize(messages []domain.Message) string {
	seen := map[string]bool{}
	var topics []string
	var long, chars int
	for _, msg := range messages {
		if msg.Role == domain.RoleAssistant {
			content := strings.ToLower(msg.Content)
			for _, t := range summaryTopics {
				if seen[t.name] {
					continue
				}
				for _, k := range t.keywords {
					if strings.Contains(content, k) {
						seen[t.name] = true
						topics = append(topics, t.name)
						break
					}
				}
			}
		}
		n := utf8.RuneCountInString(msg.Content)
		chars += n
		if n > 200 {
			long++
		}
	}

	depth := "Low"
	switch {
	case long > 5:
		depth = "High"
	case long > 2:
		depth = "Medium"
	}
	var avg float64
	if len(messages) > 0 {
		avg = math.Round(float64(chars) / float64(len(messages)))
	}
	return fmt.Sprintf("Interview covered %d topics: %s. Average response length: %.0f chars. Technical depth: %s",
		len(topics), strings.Join(topics, ", "), avg, depth)
}
