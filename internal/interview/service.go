// Package interview runs interview sessions: it scores each answer, moves
// the difficulty, decides on follow-ups, asks the next question and builds
// the final evaluation.
package interview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/mockview/internal/difficulty"
	"github.com/abhisek/mockview/internal/domain"
	"github.com/abhisek/mockview/internal/evaluation"
	"github.com/abhisek/mockview/internal/followup"
	"github.com/abhisek/mockview/internal/llm"
	"github.com/abhisek/mockview/internal/scoring"
	"github.com/abhisek/mockview/internal/store"
)

// Store is the persistence the service needs.
type Store interface {
	CreateSession(ctx context.Context, s *domain.Session) error
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	AppendMessage(ctx context.Context, id string, msg domain.Message) error
	RecordMetric(ctx context.Context, id string, m domain.PerformanceMetric) (int, error)
	SetDifficulty(ctx context.Context, id string, difficulty float64) error
	CompleteSession(ctx context.Context, id string, ev domain.Evaluation, endedAt time.Time) error
	AbandonSession(ctx context.Context, id string, endedAt time.Time) error
	ListSessions(ctx context.Context, opts store.ListOpts) ([]domain.Summary, error)
}

// AnonymousUser owns sessions started without a user id.
const AnonymousUser = "anonymous"

// DefaultListLimit caps session listings when no limit is given.
const DefaultListLimit = 10

// Deps are the collaborators of a Service. Only Store is required.
type Deps struct {
	Store      Store
	Estimator  *scoring.Estimator
	Questioner *Questioner
	Policy     *followup.Policy
	Aggregator *evaluation.Aggregator
	Logger     *slog.Logger

	// Now and NewID default to time.Now and random UUIDs.
	Now   func() time.Time
	NewID func() string
}

// Config tunes a Service.
type Config struct {
	// DifficultyWindow is the metric window for difficulty updates.
	DifficultyWindow int
}

// Service coordinates interview sessions. Calls for one session are
// serialized; different sessions proceed in parallel.
type Service struct {
	store      Store
	estimator  *scoring.Estimator
	questioner *Questioner
	policy     *followup.Policy
	aggregator *evaluation.Aggregator
	logger     *slog.Logger
	now        func() time.Time
	newID      func() string
	window     int

	locks keyedMutex
}

// NewService creates a service, filling unset collaborators with their
// provider-less defaults.
func NewService(deps Deps, cfg Config) (*Service, error) {
	if deps.Store == nil {
		return nil, errors.New("interview: store is required")
	}
	s := &Service{
		store:      deps.Store,
		estimator:  deps.Estimator,
		questioner: deps.Questioner,
		policy:     deps.Policy,
		aggregator: deps.Aggregator,
		logger:     deps.Logger,
		now:        deps.Now,
		newID:      deps.NewID,
		window:     cfg.DifficultyWindow,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.estimator == nil {
		s.estimator = scoring.NewEstimator(nil, s.logger)
	}
	if s.questioner == nil {
		s.questioner = NewQuestioner(nil, nil, DefaultQuestionerConfig())
	}
	if s.policy == nil {
		s.policy = followup.NewPolicy(nil)
	}
	if s.aggregator == nil {
		s.aggregator = evaluation.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.window < 1 {
		s.window = difficulty.DefaultWindow
	}
	return s, nil
}

// StartInput opens a session.
type StartInput struct {
	UserID string
	Role   string
	Level  string
}

// StartResult describes a new session.
type StartResult struct {
	SessionID       string       `json:"sessionId"`
	Role            string       `json:"role"`
	Level           domain.Level `json:"level"`
	UserID          string       `json:"userId"`
	OpeningQuestion string       `json:"openingQuestion"`
	CreatedAt       time.Time    `json:"createdAt"`
}

// Start creates a session and records the opening question.
func (s *Service) Start(ctx context.Context, in StartInput) (*StartResult, error) {
	role := strings.TrimSpace(in.Role)
	if role == "" || strings.TrimSpace(in.Level) == "" {
		return nil, fmt.Errorf("%w: role and level are required", domain.ErrInvalidInput)
	}
	level, err := domain.ParseLevel(in.Level)
	if err != nil {
		return nil, err
	}
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		userID = AnonymousUser
	}

	now := s.now()
	opening := s.questioner.Opening(role, level)
	sess := &domain.Session{
		ID:                s.newID(),
		UserID:            userID,
		Role:              role,
		Level:             level,
		CurrentDifficulty: domain.DefaultDifficulty,
		Status:            domain.StatusActive,
		CreatedAt:         now,
		Messages: []domain.Message{
			{Role: domain.RoleAssistant, Content: opening, Timestamp: now},
		},
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("session started", "session_id", sess.ID, "role", role, "level", level)
	return &StartResult{
		SessionID:       sess.ID,
		Role:            role,
		Level:           level,
		UserID:          userID,
		OpeningQuestion: opening,
		CreatedAt:       now,
	}, nil
}

// AnswerResult is the outcome of one answered question.
type AnswerResult struct {
	SessionID  string                   `json:"sessionId"`
	Response   string                   `json:"response"`
	FollowUp   bool                     `json:"followUp"`
	Difficulty float64                  `json:"difficulty"`
	Metric     domain.PerformanceMetric `json:"metric"`
	Timestamp  time.Time                `json:"timestamp"`
}

// Answer scores message as the reply to the latest question, updates the
// difficulty and produces the next interviewer turn. When the turn cannot
// be generated the answer and its metric stay recorded and the error wraps
// domain.ErrUnavailable. Submitting the same answer again, or calling
// Retry, then generates only the missing turn; a different answer is
// rejected with domain.ErrTurnPending.
func (s *Service) Answer(ctx context.Context, sessionID, message string) (*AnswerResult, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("%w: session id is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("%w: message is required", domain.ErrInvalidInput)
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	sess, err := s.active(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if pending, ok := sess.PendingAnswer(); ok {
		if strings.TrimSpace(pending.Content) != strings.TrimSpace(message) {
			return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrTurnPending)
		}
		s.logger.Info("resuming interviewer turn", "session_id", sessionID)
		return s.resume(ctx, sess, pending)
	}

	scores := s.estimator.Estimate(ctx, message, sess.LastQuestion(), sess.Role)
	metric := scores.Metric(len(sess.PerformanceHistory) + 1)
	metric.Timestamp = s.now()

	idx, err := s.store.RecordMetric(ctx, sessionID, metric)
	if err != nil {
		return nil, fmt.Errorf("record metric: %w", err)
	}
	answer := domain.Message{Role: domain.RoleUser, Content: message, Timestamp: metric.Timestamp, MetricIndex: &idx}
	if err := s.store.AppendMessage(ctx, sessionID, answer); err != nil {
		return nil, fmt.Errorf("append answer: %w", err)
	}
	history := append(sess.PerformanceHistory, metric)
	messages := append(sess.Messages, answer)

	next := difficulty.Next(sess.CurrentDifficulty, history, s.window, sess.Level)
	if err := s.store.SetDifficulty(ctx, sessionID, next); err != nil {
		return nil, fmt.Errorf("set difficulty: %w", err)
	}

	return s.reply(ctx, sess, messages, metric, next)
}

// Retry generates the interviewer turn for an answer whose turn failed.
// The answer is not scored again and the difficulty does not move.
func (s *Service) Retry(ctx context.Context, sessionID string) (*AnswerResult, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("%w: session id is required", domain.ErrInvalidInput)
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	sess, err := s.active(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	pending, ok := sess.PendingAnswer()
	if !ok {
		return nil, fmt.Errorf("%w: no answer is waiting for a reply", domain.ErrInvalidInput)
	}
	return s.resume(ctx, sess, pending)
}

// resume replies to a stored answer using its recorded metric and the
// difficulty already derived from it.
func (s *Service) resume(ctx context.Context, sess *domain.Session, pending domain.Message) (*AnswerResult, error) {
	var metric domain.PerformanceMetric
	switch {
	case pending.MetricIndex != nil && *pending.MetricIndex < len(sess.PerformanceHistory):
		metric = sess.PerformanceHistory[*pending.MetricIndex]
	case len(sess.PerformanceHistory) > 0:
		metric = sess.PerformanceHistory[len(sess.PerformanceHistory)-1]
	default:
		return nil, fmt.Errorf("session %s has an unscored answer", sess.ID)
	}
	return s.reply(ctx, sess, sess.Messages, metric, sess.CurrentDifficulty)
}

func (s *Service) reply(ctx context.Context, sess *domain.Session, messages []domain.Message, metric domain.PerformanceMetric, next float64) (*AnswerResult, error) {
	followUp := s.policy.ShouldFollowUp(metric, len(messages))
	turn, err := s.questioner.Next(ctx, TurnInput{
		Role:       sess.Role,
		Level:      sess.Level,
		Difficulty: next,
		Strategy:   difficulty.SelectStrategy(next, sess.Level),
		FollowUp:   followUp,
		Messages:   messages,
		LastMetric: &metric,
	})
	if err != nil {
		s.logger.Warn("interviewer turn failed",
			"session_id", sess.ID, "kind", llm.Kind(err), "error", err)
		return nil, err
	}

	reply := domain.Message{Role: domain.RoleAssistant, Content: turn.Reply, Timestamp: s.now()}
	if err := s.store.AppendMessage(ctx, sess.ID, reply); err != nil {
		return nil, fmt.Errorf("append reply: %w", err)
	}

	s.logger.Debug("answer processed",
		"session_id", sess.ID,
		"question", metric.QuestionNumber,
		"score_source", metric.Source,
		"mean", metric.Mean(),
		"difficulty", next,
		"follow_up", followUp,
		"turn_source", turn.Source)

	return &AnswerResult{
		SessionID:  sess.ID,
		Response:   turn.Reply,
		FollowUp:   followUp,
		Difficulty: next,
		Metric:     metric,
		Timestamp:  reply.Timestamp,
	}, nil
}

// Performance is the averaged live view of a running session.
type Performance struct {
	TechnicalDepth float64              `json:"technicalDepth"`
	Clarity        float64              `json:"clarity"`
	Confidence     float64              `json:"confidence"`
	OverallScore   float64              `json:"overallScore"`
	Trend          evaluation.Direction `json:"trend"`
}

// Snapshot is a live evaluation that leaves the session running.
type Snapshot struct {
	SessionID         string                    `json:"sessionId"`
	Status            domain.Status             `json:"status"`
	QuestionsAnswered int                       `json:"questionsAnswered"`
	Message           string                    `json:"message,omitempty"`
	CurrentDifficulty float64                   `json:"currentDifficulty"`
	Performance       *Performance              `json:"performance,omitempty"`
	Strengths         []string                  `json:"strengths,omitempty"`
	Improvements      []string                  `json:"improvements,omitempty"`
	KnowledgeAnalysis *domain.KnowledgeAnalysis `json:"knowledgeAnalysis,omitempty"`
	Coaching          *evaluation.Coaching      `json:"coaching,omitempty"`
	Timestamp         time.Time                 `json:"timestamp"`
}

// NoResponsesMessage is the snapshot message before the first answer.
const NoResponsesMessage = "No responses recorded yet"

// Rounded returns a copy with the scores rounded for display.
func (sn Snapshot) Rounded() Snapshot {
	sn.CurrentDifficulty = domain.Round1(sn.CurrentDifficulty)
	if sn.Performance != nil {
		p := *sn.Performance
		p.TechnicalDepth = domain.Round1(p.TechnicalDepth)
		p.Clarity = domain.Round1(p.Clarity)
		p.Confidence = domain.Round1(p.Confidence)
		p.OverallScore = domain.Round1(p.OverallScore)
		sn.Performance = &p
	}
	return sn
}

// Snapshot evaluates the session so far without ending it.
func (s *Service) Snapshot(ctx context.Context, sessionID string) (*Snapshot, error) {
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	out := &Snapshot{
		SessionID:         sess.ID,
		Status:            sess.Status,
		QuestionsAnswered: len(sess.PerformanceHistory),
		CurrentDifficulty: sess.CurrentDifficulty,
		Timestamp:         s.now(),
	}
	history := sess.PerformanceHistory
	if len(history) == 0 {
		out.Message = NoResponsesMessage
		return out, nil
	}

	avg := evaluation.Average(history)
	ka := s.aggregator.Analyze(sess.Messages, history, sess.Role)
	coaching := evaluation.Coach(history)
	out.Performance = &Performance{
		TechnicalDepth: avg.TechnicalDepth,
		Clarity:        avg.Clarity,
		Confidence:     avg.Confidence,
		OverallScore:   s.aggregator.OverallScore(history),
		Trend:          evaluation.Trend(history),
	}
	out.Strengths = s.aggregator.Strengths(history, sess.Messages)
	out.Improvements = s.aggregator.Improvements(history, sess.Messages)
	out.KnowledgeAnalysis = &ka
	out.Coaching = &coaching
	return out, nil
}

// EndResult is the outcome of ending a session.
type EndResult struct {
	SessionID  string            `json:"sessionId"`
	EndedAt    time.Time         `json:"endedAt"`
	Duration   time.Duration     `json:"duration"`
	Evaluation domain.Evaluation `json:"evaluation"`
}

// End completes an active session and stores its evaluation. Ending a
// session twice returns domain.ErrSessionClosed.
func (s *Service) End(ctx context.Context, sessionID string) (*EndResult, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("%w: session id is required", domain.ErrInvalidInput)
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	sess, err := s.active(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	ev := s.aggregator.Aggregate(sess.Messages, sess.PerformanceHistory, sess.Role, sess.Level)
	endedAt := s.now()
	if err := s.store.CompleteSession(ctx, sessionID, ev, endedAt); err != nil {
		return nil, fmt.Errorf("complete session: %w", err)
	}

	s.logger.Info("session completed",
		"session_id", sessionID,
		"answers", len(sess.PerformanceHistory),
		"overall", domain.Round1(ev.OverallScore))

	return &EndResult{
		SessionID:  sessionID,
		EndedAt:    endedAt,
		Duration:   endedAt.Sub(sess.CreatedAt),
		Evaluation: ev,
	}, nil
}

// Abandon closes an active session without evaluating it.
func (s *Service) Abandon(ctx context.Context, sessionID string) error {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	if _, err := s.active(ctx, sessionID); err != nil {
		return err
	}
	if err := s.store.AbandonSession(ctx, sessionID, s.now()); err != nil {
		return fmt.Errorf("abandon session: %w", err)
	}
	s.logger.Info("session abandoned", "session_id", sessionID)
	return nil
}

// Get loads a session.
func (s *Service) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("%w: session id is required", domain.ErrInvalidInput)
	}
	return s.store.GetSession(ctx, sessionID)
}

// List returns a user's sessions, newest first. A limit below 1 uses
// DefaultListLimit.
func (s *Service) List(ctx context.Context, userID string, limit int) ([]domain.Summary, error) {
	if limit < 1 {
		limit = DefaultListLimit
	}
	return s.store.ListSessions(ctx, store.ListOpts{UserID: userID, Limit: limit})
}

func (s *Service) active(ctx context.Context, sessionID string) (*domain.Session, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status.Terminal() {
		return nil, fmt.Errorf("session %s is %s: %w", sessionID, sess.Status, domain.ErrSessionClosed)
	}
	return sess, nil
}
