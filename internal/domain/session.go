// Package domain holds the interview data model shared by the scoring,
// difficulty, evaluation and persistence layers.
package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Level is the seniority an interview is pitched at.
type Level string

const (
	LevelJunior Level = "junior"
	LevelMid    Level = "mid"
	LevelSenior Level = "senior"
)

// Levels lists the supported levels in ascending seniority.
var Levels = []Level{LevelJunior, LevelMid, LevelSenior}

// ParseLevel accepts "junior", "mid", "mid-level", "senior" in any case.
func ParseLevel(s string) (Level, error) {
	norm := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "-level")
	for _, l := range Levels {
		if norm == string(l) {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: level must be junior, mid, or senior (got %q)", ErrInvalidInput, s)
}

// Status is the lifecycle state of a session.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusAbandoned Status = "abandoned"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusAbandoned
}

// MessageRole identifies who produced a transcript message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// Message is one transcript entry. Messages are append-only.
type Message struct {
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`

	// MetricIndex points into Session.PerformanceHistory for scored user
	// messages. Nil for assistant/system messages and unscored answers.
	MetricIndex *int `json:"metricIndex,omitempty"`
}

// PerformanceMetric is the three-dimensional quality score of one answer.
type PerformanceMetric struct {
	QuestionNumber int       `json:"questionNumber"`
	TechnicalDepth float64   `json:"technicalDepth"`
	Clarity        float64   `json:"clarity"`
	Confidence     float64   `json:"confidence"`
	Timestamp      time.Time `json:"timestamp"`

	// Source records which estimator path produced the scores
	// ("llm" or "heuristic").
	Source string `json:"source,omitempty"`
}

// Mean returns the mean-of-three of the sub-scores.
func (m PerformanceMetric) Mean() float64 {
	return (m.TechnicalDepth + m.Clarity + m.Confidence) / 3
}

// Rounded returns a copy with every sub-score rounded for display.
func (m PerformanceMetric) Rounded() PerformanceMetric {
	m.TechnicalDepth = Round1(m.TechnicalDepth)
	m.Clarity = Round1(m.Clarity)
	m.Confidence = Round1(m.Confidence)
	return m
}

// DefaultDifficulty is the difficulty every session starts at.
const DefaultDifficulty = 5.0

// Session is one interview attempt.
type Session struct {
	ID                 string              `json:"id"`
	UserID             string              `json:"userId"`
	Role               string              `json:"role"`
	Level              Level               `json:"level"`
	Messages           []Message           `json:"messages"`
	PerformanceHistory []PerformanceMetric `json:"performanceHistory"`
	CurrentDifficulty  float64             `json:"currentDifficulty"`
	Status             Status              `json:"status"`
	Evaluation         *Evaluation         `json:"evaluation,omitempty"`
	CreatedAt          time.Time           `json:"createdAt"`
	EndedAt            *time.Time          `json:"endedAt,omitempty"`
	Duration           time.Duration       `json:"duration"`
}

// UserMessages returns the user-authored messages in order.
func (s *Session) UserMessages() []Message {
	var out []Message
	for _, m := range s.Messages {
		if m.Role == RoleUser {
			out = append(out, m)
		}
	}
	return out
}

// LastQuestion returns the content of the most recent assistant message.
func (s *Session) LastQuestion() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleAssistant {
			return s.Messages[i].Content
		}
	}
	return ""
}

// PendingAnswer returns the trailing user message when the interviewer has
// not replied to it yet.
func (s *Session) PendingAnswer() (Message, bool) {
	if n := len(s.Messages); n > 0 && s.Messages[n-1].Role == RoleUser {
		return s.Messages[n-1], true
	}
	return Message{}, false
}

// Summary is a lightweight listing row.
type Summary struct {
	ID                string     `json:"id"`
	UserID            string     `json:"userId"`
	Role              string     `json:"role"`
	Level             Level      `json:"level"`
	Status            Status     `json:"status"`
	CurrentDifficulty float64    `json:"currentDifficulty"`
	OverallScore      *float64   `json:"overallScore,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	EndedAt           *time.Time `json:"endedAt,omitempty"`
}

// KnowledgeAnalysis buckets the role topics touched by a transcript.
type KnowledgeAnalysis struct {
	TopicsCovered []string `json:"topicsCovered"`
	StrongAreas   []string `json:"strongAreas"`
	WeakAreas     []string `json:"weakAreas"`
}

// Evaluation is the final report. Created once, immutable thereafter.
type Evaluation struct {
	TechnicalDepth    float64           `json:"technicalDepth"`
	Clarity           float64           `json:"clarity"`
	Confidence        float64           `json:"confidence"`
	OverallScore      float64           `json:"overallScore"`
	Feedback          string            `json:"feedback"`
	Strengths         []string          `json:"strengths"`
	Improvements      []string          `json:"improvements"`
	KnowledgeAnalysis KnowledgeAnalysis `json:"knowledgeAnalysis"`
}

// Rounded returns a copy with the numeric fields rounded for display.
func (e Evaluation) Rounded() Evaluation {
	e.TechnicalDepth = Round1(e.TechnicalDepth)
	e.Clarity = Round1(e.Clarity)
	e.Confidence = Round1(e.Confidence)
	e.OverallScore = Round1(e.OverallScore)
	return e
}

// Round1 rounds to one fractional digit. Only used at output boundaries.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
