// Package memory is an in-process implementation of the store
// repositories, used by tests and by `serve --memory`.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/abhisek/mockview/internal/domain"
	"github.com/abhisek/mockview/internal/store"
)

// Store keeps sessions and LLM events in maps guarded by one mutex.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	events   []store.LLMRequestEventRecord
	now      func() time.Time
}

var (
	_ store.SessionRepo = (*Store)(nil)
	_ store.EventRepo   = (*Store)(nil)
)

// New returns an empty Store.
func New() *Store {
	return &Store{
		sessions: make(map[string]*domain.Session),
		now:      time.Now,
	}
}

func (s *Store) CreateSession(_ context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.ID]; ok {
		return fmt.Errorf("session %s already exists", sess.ID)
	}
	s.sessions[sess.ID] = clone(sess)
	return nil
}

func (s *Store) GetSession(_ context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	return clone(sess), nil
}

func (s *Store) AppendMessage(_ context.Context, id string, msg domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.active(id)
	if err != nil {
		return err
	}
	if msg.MetricIndex != nil {
		idx := *msg.MetricIndex
		msg.MetricIndex = &idx
	}
	sess.Messages = append(sess.Messages, msg)
	return nil
}

func (s *Store) RecordMetric(_ context.Context, id string, m domain.PerformanceMetric) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.active(id)
	if err != nil {
		return 0, err
	}
	sess.PerformanceHistory = append(sess.PerformanceHistory, m)
	return len(sess.PerformanceHistory) - 1, nil
}

func (s *Store) SetDifficulty(_ context.Context, id string, difficulty float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.active(id)
	if err != nil {
		return err
	}
	sess.CurrentDifficulty = difficulty
	return nil
}

func (s *Store) CompleteSession(_ context.Context, id string, ev domain.Evaluation, endedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.active(id)
	if err != nil {
		return err
	}
	ev.Strengths = slices.Clone(ev.Strengths)
	ev.Improvements = slices.Clone(ev.Improvements)
	sess.Evaluation = &ev
	sess.Status = domain.StatusCompleted
	sess.EndedAt = &endedAt
	sess.Duration = endedAt.Sub(sess.CreatedAt)
	return nil
}

func (s *Store) AbandonSession(_ context.Context, id string, endedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.active(id)
	if err != nil {
		return err
	}
	sess.Status = domain.StatusAbandoned
	sess.EndedAt = &endedAt
	sess.Duration = endedAt.Sub(sess.CreatedAt)
	return nil
}

func (s *Store) ListSessions(_ context.Context, opts store.ListOpts) ([]domain.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.Summary{}
	for _, sess := range s.sessions {
		if opts.UserID != "" && sess.UserID != opts.UserID {
			continue
		}
		if opts.Status != "" && sess.Status != opts.Status {
			continue
		}
		sum := domain.Summary{
			ID:                sess.ID,
			UserID:            sess.UserID,
			Role:              sess.Role,
			Level:             sess.Level,
			Status:            sess.Status,
			CurrentDifficulty: sess.CurrentDifficulty,
			CreatedAt:         sess.CreatedAt,
			EndedAt:           sess.EndedAt,
		}
		if sess.Evaluation != nil {
			v := sess.Evaluation.OverallScore
			sum.OverallScore = &v
		}
		out = append(out, sum)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return strings.Compare(out[i].ID, out[j].ID) > 0
	})
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (s *Store) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, store.LLMRequestEventRecord{
		ID:                  int64(len(s.events) + 1),
		Timestamp:           s.now().UTC(),
		LLMRequestEventData: data,
	})
	return nil
}

func (s *Store) QueryLLMEvents(_ context.Context, opts store.QueryOpts) ([]store.LLMRequestEventRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []store.LLMRequestEventRecord
	for i := len(s.events) - 1; i >= 0; i-- {
		e := s.events[i]
		if opts.Purpose != "" && e.Purpose != opts.Purpose {
			continue
		}
		out = append(out, e)
		if opts.Limit > 0 && len(out) == opts.Limit {
			break
		}
	}
	return out, nil
}

func (s *Store) GetLLMEvent(_ context.Context, id int64) (*store.LLMRequestEventRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id < 1 || id > int64(len(s.events)) {
		return nil, nil
	}
	e := s.events[id-1]
	return &e, nil
}

func (s *Store) LLMUsageByPurpose(_ context.Context) ([]store.LLMUsageStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byPurpose := map[string]*store.LLMUsageStats{}
	latency := map[string]int64{}
	for _, e := range s.events {
		st, ok := byPurpose[e.Purpose]
		if !ok {
			st = &store.LLMUsageStats{Purpose: e.Purpose}
			byPurpose[e.Purpose] = st
		}
		st.Calls++
		st.InputTokens += e.InputTokens
		st.OutputTokens += e.OutputTokens
		if !e.Success {
			st.Failures++
		}
		latency[e.Purpose] += e.LatencyMs
	}

	var out []store.LLMUsageStats
	for p, st := range byPurpose {
		st.AvgLatencyMs = latency[p] / int64(st.Calls)
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Purpose < out[j].Purpose })
	return out, nil
}

func (s *Store) LLMUsageByModel(_ context.Context) ([]store.LLMModelUsage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byModel := map[string]*store.LLMModelUsage{}
	for _, e := range s.events {
		mu, ok := byModel[e.Model]
		if !ok {
			mu = &store.LLMModelUsage{Model: e.Model}
			byModel[e.Model] = mu
		}
		mu.Calls++
		mu.InputTokens += e.InputTokens
		mu.OutputTokens += e.OutputTokens
	}

	var out []store.LLMModelUsage
	for _, mu := range byModel {
		out = append(out, *mu)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Model < out[j].Model })
	return out, nil
}

// active must be called with the write lock held.
func (s *Store) active(id string) (*domain.Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	if sess.Status.Terminal() {
		return nil, fmt.Errorf("session %s is %s: %w", id, sess.Status, domain.ErrSessionClosed)
	}
	return sess, nil
}

func clone(s *domain.Session) *domain.Session {
	c := *s
	c.Messages = make([]domain.Message, len(s.Messages))
	for i, m := range s.Messages {
		if m.MetricIndex != nil {
			idx := *m.MetricIndex
			m.MetricIndex = &idx
		}
		c.Messages[i] = m
	}
	c.PerformanceHistory = slices.Clone(s.PerformanceHistory)
	if c.PerformanceHistory == nil {
		c.PerformanceHistory = []domain.PerformanceMetric{}
	}
	if s.Evaluation != nil {
		ev := *s.Evaluation
		ev.Strengths = slices.Clone(ev.Strengths)
		ev.Improvements = slices.Clone(ev.Improvements)
		c.Evaluation = &ev
	}
	if s.EndedAt != nil {
		t := *s.EndedAt
		c.EndedAt = &t
	}
	return &c
}
