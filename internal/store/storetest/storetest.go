// Package storetest holds behavioural checks shared by every
// store.SessionRepo and store.EventRepo implementation.
package storetest

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/abhisek/mockview/internal/domain"
	"github.com/abhisek/mockview/internal/store"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newSession(id, user string, created time.Time) *domain.Session {
	return &domain.Session{
		ID:                 id,
		UserID:             user,
		Role:               "Node.js Developer",
		Level:              domain.LevelMid,
		CurrentDifficulty:  domain.DefaultDifficulty,
		Status:             domain.StatusActive,
		CreatedAt:          created,
		PerformanceHistory: []domain.PerformanceMetric{},
		Messages: []domain.Message{
			{Role: domain.RoleAssistant, Content: "Tell me about the event loop.", Timestamp: created},
		},
	}
}

func mustCreate(t *testing.T, repo store.SessionRepo, s *domain.Session) {
	t.Helper()
	if err := repo.CreateSession(context.Background(), s); err != nil {
		t.Fatalf("create session %s: %v", s.ID, err)
	}
}

func mustGet(t *testing.T, repo store.SessionRepo, id string) *domain.Session {
	t.Helper()
	got, err := repo.GetSession(context.Background(), id)
	if err != nil {
		t.Fatalf("get session %s: %v", id, err)
	}
	return got
}

func wantErr(t *testing.T, op string, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Errorf("%s: expected %v, got %v", op, target, err)
	}
}

// RunSessionRepo exercises the SessionRepo contract against repos
// produced by newRepo. Each subtest gets a fresh repo.
func RunSessionRepo(t *testing.T, newRepo func(t *testing.T) store.SessionRepo) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		repo := newRepo(t)
		mustCreate(t, repo, newSession("s1", "u1", epoch))

		got := mustGet(t, repo, "s1")
		if got.UserID != "u1" || got.Level != domain.LevelMid || got.Status != domain.StatusActive {
			t.Errorf("unexpected session header: %+v", got)
		}
		if got.CurrentDifficulty != 5.0 {
			t.Errorf("difficulty = %v, want 5", got.CurrentDifficulty)
		}
		if !got.CreatedAt.Equal(epoch) {
			t.Errorf("created at = %v, want %v", got.CreatedAt, epoch)
		}
		if len(got.Messages) != 1 || got.Messages[0].Role != domain.RoleAssistant {
			t.Fatalf("expected the opening question, got %+v", got.Messages)
		}
		if len(got.PerformanceHistory) != 0 {
			t.Errorf("expected no metrics, got %d", len(got.PerformanceHistory))
		}
		if got.Evaluation != nil || got.EndedAt != nil {
			t.Errorf("new session should have no evaluation or end time")
		}
	})

	t.Run("missing session is not found", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.GetSession(ctx, "nope")
		wantErr(t, "get", err, domain.ErrNotFound)

		err = repo.AppendMessage(ctx, "nope", domain.Message{Role: domain.RoleUser, Content: "hi", Timestamp: epoch})
		wantErr(t, "append", err, domain.ErrNotFound)
	})

	t.Run("turn is appended in order", func(t *testing.T) {
		repo := newRepo(t)
		mustCreate(t, repo, newSession("s1", "u1", epoch))

		for i := range 2 {
			idx, err := repo.RecordMetric(ctx, "s1", domain.PerformanceMetric{
				QuestionNumber: i + 1, TechnicalDepth: 6 + float64(i), Clarity: 7, Confidence: 5.5,
				Timestamp: epoch.Add(time.Duration(i) * time.Minute), Source: "heuristic",
			})
			if err != nil {
				t.Fatalf("record metric %d: %v", i, err)
			}
			if idx != i {
				t.Errorf("metric index = %d, want %d", idx, i)
			}

			if err := repo.AppendMessage(ctx, "s1", domain.Message{
				Role: domain.RoleUser, Content: "answer", Timestamp: epoch, MetricIndex: &idx,
			}); err != nil {
				t.Fatalf("append answer: %v", err)
			}
			if err := repo.AppendMessage(ctx, "s1", domain.Message{
				Role: domain.RoleAssistant, Content: "next question", Timestamp: epoch,
			}); err != nil {
				t.Fatalf("append question: %v", err)
			}
		}
		if err := repo.SetDifficulty(ctx, "s1", 6.5); err != nil {
			t.Fatalf("set difficulty: %v", err)
		}

		got := mustGet(t, repo, "s1")
		if len(got.Messages) != 5 || len(got.PerformanceHistory) != 2 {
			t.Fatalf("messages = %d, metrics = %d, want 5 and 2", len(got.Messages), len(got.PerformanceHistory))
		}
		if got.CurrentDifficulty != 6.5 {
			t.Errorf("difficulty = %v, want 6.5", got.CurrentDifficulty)
		}
		last := got.PerformanceHistory[1]
		if last.TechnicalDepth != 7.0 || last.Source != "heuristic" {
			t.Errorf("unexpected second metric: %+v", last)
		}
		if got.Messages[3].MetricIndex == nil || *got.Messages[3].MetricIndex != 1 {
			t.Errorf("second answer should point at metric 1, got %v", got.Messages[3].MetricIndex)
		}
		if got.Messages[4].MetricIndex != nil {
			t.Errorf("interviewer message should carry no metric")
		}
	})

	t.Run("complete exactly once", func(t *testing.T) {
		repo := newRepo(t)
		mustCreate(t, repo, newSession("s1", "u1", epoch))

		ev := domain.Evaluation{
			TechnicalDepth: 7.25, Clarity: 6, Confidence: 8, OverallScore: 7.1,
			Feedback:     "Good work.",
			Strengths:    []string{"Solid technical foundation with good conceptual understanding"},
			Improvements: []string{"Keep practicing to maintain your skills"},
			KnowledgeAnalysis: domain.KnowledgeAnalysis{
				TopicsCovered: []string{"Event Loop"}, StrongAreas: []string{"Event Loop"}, WeakAreas: []string{},
			},
		}
		ended := epoch.Add(25 * time.Minute)
		if err := repo.CompleteSession(ctx, "s1", ev, ended); err != nil {
			t.Fatalf("complete: %v", err)
		}

		got := mustGet(t, repo, "s1")
		if got.Status != domain.StatusCompleted {
			t.Errorf("status = %s, want completed", got.Status)
		}
		if got.Evaluation == nil {
			t.Fatal("expected a stored evaluation")
		}
		if got.Evaluation.TechnicalDepth != 7.25 {
			t.Errorf("technical depth = %v, want 7.25", got.Evaluation.TechnicalDepth)
		}
		if !slices.Equal(got.Evaluation.KnowledgeAnalysis.StrongAreas, []string{"Event Loop"}) {
			t.Errorf("strong areas = %v", got.Evaluation.KnowledgeAnalysis.StrongAreas)
		}
		if got.EndedAt == nil || !got.EndedAt.Equal(ended) {
			t.Errorf("ended at = %v, want %v", got.EndedAt, ended)
		}
		if got.Duration != 25*time.Minute {
			t.Errorf("duration = %v, want 25m", got.Duration)
		}

		err := repo.CompleteSession(ctx, "s1", ev, ended.Add(time.Minute))
		wantErr(t, "second complete", err, domain.ErrSessionClosed)

		err = repo.AppendMessage(ctx, "s1", domain.Message{Role: domain.RoleUser, Content: "late", Timestamp: ended})
		wantErr(t, "append after complete", err, domain.ErrSessionClosed)
		_, err = repo.RecordMetric(ctx, "s1", domain.PerformanceMetric{QuestionNumber: 1})
		wantErr(t, "metric after complete", err, domain.ErrSessionClosed)
	})

	t.Run("abandon is terminal", func(t *testing.T) {
		repo := newRepo(t)
		mustCreate(t, repo, newSession("s1", "u1", epoch))
		if err := repo.AbandonSession(ctx, "s1", epoch.Add(time.Hour)); err != nil {
			t.Fatalf("abandon: %v", err)
		}

		got := mustGet(t, repo, "s1")
		if got.Status != domain.StatusAbandoned {
			t.Errorf("status = %s, want abandoned", got.Status)
		}
		if got.Evaluation != nil {
			t.Error("abandoned session should have no evaluation")
		}

		err := repo.CompleteSession(ctx, "s1", domain.Evaluation{}, epoch.Add(2*time.Hour))
		wantErr(t, "complete after abandon", err, domain.ErrSessionClosed)
	})

	t.Run("list newest first per user", func(t *testing.T) {
		repo := newRepo(t)
		mustCreate(t, repo, newSession("a", "u1", epoch))
		mustCreate(t, repo, newSession("b", "u2", epoch.Add(time.Minute)))
		mustCreate(t, repo, newSession("c", "u1", epoch.Add(2*time.Minute)))
		mustCreate(t, repo, newSession("d", "u1", epoch.Add(3*time.Minute)))
		if err := repo.CompleteSession(ctx, "c", domain.Evaluation{OverallScore: 6.4}, epoch.Add(time.Hour)); err != nil {
			t.Fatalf("complete: %v", err)
		}

		got, err := repo.ListSessions(ctx, store.ListOpts{UserID: "u1", Limit: 2})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(got) != 2 || got[0].ID != "d" || got[1].ID != "c" {
			t.Fatalf("expected [d c], got %+v", got)
		}
		if got[1].OverallScore == nil || *got[1].OverallScore != 6.4 {
			t.Errorf("completed summary should carry its score, got %v", got[1].OverallScore)
		}
		if got[0].OverallScore != nil {
			t.Errorf("active summary should have no score")
		}

		active, err := repo.ListSessions(ctx, store.ListOpts{Status: domain.StatusActive})
		if err != nil {
			t.Fatalf("list active: %v", err)
		}
		if len(active) != 3 {
			t.Errorf("active sessions = %d, want 3", len(active))
		}

		none, err := repo.ListSessions(ctx, store.ListOpts{UserID: "ghost"})
		if err != nil {
			t.Fatalf("list ghost: %v", err)
		}
		if len(none) != 0 {
			t.Errorf("expected no sessions for an unknown user, got %d", len(none))
		}
	})
}

// RunEventRepo exercises the EventRepo contract.
func RunEventRepo(t *testing.T, newRepo func(t *testing.T) store.EventRepo) {
	ctx := context.Background()

	seed := func(t *testing.T, repo store.EventRepo) {
		t.Helper()
		events := []store.LLMRequestEventData{
			{Provider: "gpt-4o-mini", Model: "gpt-4o-mini", Purpose: "answer-scoring", InputTokens: 100, OutputTokens: 20, LatencyMs: 300, Success: true, RequestBody: "req", ResponseBody: `{"clarity":7}`},
			{Provider: "gpt-4o-mini", Model: "gpt-4o-mini", Purpose: "interviewer-turn", InputTokens: 400, OutputTokens: 80, LatencyMs: 900, Success: true},
			{Provider: "gpt-4o-mini", Model: "gpt-4o-mini", Purpose: "answer-scoring", InputTokens: 50, OutputTokens: 0, LatencyMs: 100, Success: false, ErrorMessage: "rate limited"},
		}
		for _, e := range events {
			if err := repo.AppendLLMRequest(ctx, e); err != nil {
				t.Fatalf("append event: %v", err)
			}
		}
	}

	t.Run("query newest first with filter", func(t *testing.T) {
		repo := newRepo(t)
		seed(t, repo)

		all, err := repo.QueryLLMEvents(ctx, store.QueryOpts{})
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("events = %d, want 3", len(all))
		}
		if all[0].ErrorMessage != "rate limited" || all[0].Success {
			t.Errorf("newest event should be the failure, got %+v", all[0])
		}

		scoring, err := repo.QueryLLMEvents(ctx, store.QueryOpts{Purpose: "answer-scoring", Limit: 1})
		if err != nil {
			t.Fatalf("query scoring: %v", err)
		}
		if len(scoring) != 1 || scoring[0].Purpose != "answer-scoring" {
			t.Errorf("expected one scoring event, got %+v", scoring)
		}
	})

	t.Run("get by id", func(t *testing.T) {
		repo := newRepo(t)
		seed(t, repo)

		all, err := repo.QueryLLMEvents(ctx, store.QueryOpts{})
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		first := all[len(all)-1]

		got, err := repo.GetLLMEvent(ctx, first.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got == nil {
			t.Fatal("expected the first event")
		}
		if got.ResponseBody != `{"clarity":7}` || !got.Success {
			t.Errorf("unexpected event: %+v", got)
		}

		missing, err := repo.GetLLMEvent(ctx, 9999)
		if err != nil {
			t.Fatalf("get missing: %v", err)
		}
		if missing != nil {
			t.Errorf("expected nil for a missing event, got %+v", missing)
		}
	})

	t.Run("usage aggregates", func(t *testing.T) {
		repo := newRepo(t)
		seed(t, repo)

		byPurpose, err := repo.LLMUsageByPurpose(ctx)
		if err != nil {
			t.Fatalf("usage by purpose: %v", err)
		}
		if len(byPurpose) != 2 {
			t.Fatalf("purposes = %d, want 2", len(byPurpose))
		}
		want := store.LLMUsageStats{
			Purpose: "answer-scoring", Calls: 2, InputTokens: 150, OutputTokens: 20, AvgLatencyMs: 200, Failures: 1,
		}
		if byPurpose[0] != want {
			t.Errorf("scoring usage = %+v, want %+v", byPurpose[0], want)
		}

		byModel, err := repo.LLMUsageByModel(ctx)
		if err != nil {
			t.Fatalf("usage by model: %v", err)
		}
		if len(byModel) != 1 || byModel[0].Calls != 3 || byModel[0].InputTokens != 550 {
			t.Errorf("unexpected model usage: %+v", byModel)
		}
	})
}
