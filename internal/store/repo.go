package store

import (
	"context"
	"time"

	"github.com/abhisek/mockview/internal/domain"
)

// SessionRepo manages interview sessions. Every method is atomic on its
// own; callers serialize the calls for one session.
type SessionRepo interface {
	// CreateSession inserts a new session with its initial messages.
	CreateSession(ctx context.Context, s *domain.Session) error

	// GetSession loads a session with its transcript and metric history.
	// Returns an error wrapping domain.ErrNotFound when absent.
	GetSession(ctx context.Context, id string) (*domain.Session, error)

	// AppendMessage appends one transcript message.
	AppendMessage(ctx context.Context, id string, msg domain.Message) error

	// RecordMetric appends a metric and returns its history index.
	RecordMetric(ctx context.Context, id string, m domain.PerformanceMetric) (int, error)

	// SetDifficulty stores the recomputed difficulty.
	SetDifficulty(ctx context.Context, id string, difficulty float64) error

	// CompleteSession stores the evaluation and moves the session to
	// completed. Returns domain.ErrSessionClosed if it is not active.
	CompleteSession(ctx context.Context, id string, ev domain.Evaluation, endedAt time.Time) error

	// AbandonSession moves an active session to abandoned.
	AbandonSession(ctx context.Context, id string, endedAt time.Time) error

	// ListSessions returns summaries, newest first.
	ListSessions(ctx context.Context, opts ListOpts) ([]domain.Summary, error)
}

// ListOpts filters session listings.
type ListOpts struct {
	UserID string        // empty = all users
	Status domain.Status // empty = any status
	Limit  int           // 0 = unlimited
}

// QueryOpts filters LLM event queries.
type QueryOpts struct {
	Limit   int    // max results (0 = unlimited)
	Purpose string // empty = any purpose
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEventRecord is a stored LLM request event.
type LLMRequestEventRecord struct {
	ID        int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsageStats aggregates token usage for one purpose.
type LLMUsageStats struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
	Failures     int
}

// LLMModelUsage aggregates token usage for one model.
type LLMModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo records and queries LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error)

	// GetLLMEvent returns one event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int64) (*LLMRequestEventRecord, error)

	// LLMUsageByPurpose aggregates usage per purpose.
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStats, error)

	// LLMUsageByModel aggregates usage per model.
	LLMUsageByModel(ctx context.Context) ([]LLMModelUsage, error)
}
