package practice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/mockview/internal/domain"
	"github.com/abhisek/mockview/internal/interview"
	"github.com/abhisek/mockview/internal/llm"
	"github.com/abhisek/mockview/internal/scoring"
	"github.com/abhisek/mockview/internal/store/memory"
)

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func ctrlC() tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl}
}

func testScreen(t *testing.T, mock *llm.MockProvider) (*Model, *interview.Service) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	deps := interview.Deps{Store: memory.New(), Logger: logger}
	if mock != nil {
		deps.Estimator = scoring.NewEstimator(mock, logger)
		deps.Questioner = interview.NewQuestioner(mock, nil, interview.DefaultQuestionerConfig())
	}
	svc, err := interview.NewService(deps, interview.Config{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	start, err := svc.Start(context.Background(), interview.StartInput{Role: "nodejs", Level: "mid"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return New(context.Background(), svc, start), svc
}

// submitLine types text, presses enter and feeds the resulting message
// back into the model.
func submitLine(t *testing.T, m *Model, text string) tea.Cmd {
	t.Helper()
	m.input.Model.SetValue(text)
	_, cmd := m.Update(specialKey(tea.KeyEnter))
	if cmd == nil {
		return nil
	}
	if !m.busy {
		t.Fatalf("expected the screen to be busy after submitting %q", text)
	}
	_, next := m.Update(cmd())
	return next
}

func TestPracticeScreen_View_Opening(t *testing.T) {
	m, _ := testScreen(t, nil)
	view := m.render()
	if !strings.Contains(view, "Interviewer:") {
		t.Errorf("expected the opening question in view:\n%s", view)
	}
	if !strings.Contains(view, "/status") {
		t.Error("expected key hints in view")
	}
}

func TestPracticeScreen_AnswerAddsTurn(t *testing.T) {
	m, _ := testScreen(t, nil)

	submitLine(t, m, "The event loop runs callbacks once the call stack is empty.")

	if m.busy {
		t.Error("expected busy to clear after the answer")
	}
	if len(m.transcript) != 3 {
		t.Fatalf("transcript length = %d, want 3", len(m.transcript))
	}
	if m.transcript[1].interviewer || !m.transcript[2].interviewer {
		t.Error("expected candidate answer followed by interviewer turn")
	}
	if m.last == nil || m.last.QuestionNumber != 1 {
		t.Fatalf("last metric = %+v, want question 1", m.last)
	}
	if view := m.render(); !strings.Contains(view, "Difficulty") {
		t.Errorf("expected score bars after an answer:\n%s", view)
	}
}

func TestPracticeScreen_EmptyEnterIgnored(t *testing.T) {
	m, _ := testScreen(t, nil)
	if cmd := submitLine(t, m, "   "); cmd != nil {
		t.Error("expected no command for an empty line")
	}
	if m.busy || len(m.transcript) != 1 {
		t.Error("empty line must not submit an answer")
	}
}

func TestPracticeScreen_RetryAfterUnavailable(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.TextResponse(`{"technicalDepth": 8, "clarity": 8, "confidence": 8}`),
		llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("503")}},
	)
	m, svc := testScreen(t, mock)

	submitLine(t, m, "Promises settle on the microtask queue.")
	if !m.pending || m.notice != UnavailableNotice {
		t.Fatalf("expected pending turn with notice, got pending=%v notice=%q", m.pending, m.notice)
	}

	// A different answer is refused while the turn is pending.
	submitLine(t, m, "Something else entirely.")
	if m.notice != PendingNotice {
		t.Errorf("notice = %q, want %q", m.notice, PendingNotice)
	}
	if got := m.lastAnswer(); got != "Promises settle on the microtask queue." {
		t.Errorf("last answer = %q, rejected answer should be dropped", got)
	}

	mock.AddResponse(llm.TextResponse(`{"reply": "What runs first, a timeout or a resolved promise?", "kind": "follow_up", "topic": "Event Loop"}`))
	submitLine(t, m, "")

	if m.pending || m.notice != "" {
		t.Errorf("expected retry to clear the pending turn, notice=%q", m.notice)
	}
	if last := m.transcript[len(m.transcript)-1]; !last.interviewer || !strings.Contains(last.text, "resolved promise") {
		t.Errorf("unexpected last entry %+v", last)
	}

	sess, err := svc.Get(context.Background(), m.id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(sess.PerformanceHistory) != 1 {
		t.Errorf("metrics = %d, want 1", len(sess.PerformanceHistory))
	}
	// Score, failed turn, retried turn. The refused answer is never scored.
	if mock.CallCount() != 3 {
		t.Errorf("provider calls = %d, want 3", mock.CallCount())
	}
}

func TestPracticeScreen_Status(t *testing.T) {
	m, _ := testScreen(t, nil)
	submitLine(t, m, "I handle errors with try/catch around await.")
	submitLine(t, m, "/status")
	if m.snapshot == nil || m.snapshot.QuestionsAnswered != 1 {
		t.Fatalf("expected a live snapshot, got %+v", m.snapshot)
	}
}

func TestPracticeScreen_EndQuits(t *testing.T) {
	m, svc := testScreen(t, nil)
	submitLine(t, m, "Streams process data in chunks.")

	next := submitLine(t, m, "/end")
	if next == nil {
		t.Fatal("expected a quit command after ending")
	}
	if _, ok := next().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if m.Outcome() != OutcomeCompleted || m.Result() == nil {
		t.Fatalf("outcome = %v, result = %v", m.Outcome(), m.Result())
	}
	if m.Header().Answers != 1 {
		t.Errorf("answers = %d, want 1", m.Header().Answers)
	}

	sess, _ := svc.Get(context.Background(), m.id)
	if sess.Status != domain.StatusCompleted {
		t.Errorf("status = %s, want completed", sess.Status)
	}
}

func TestPracticeScreen_CtrlCEnds(t *testing.T) {
	m, _ := testScreen(t, nil)
	_, cmd := m.Update(ctrlC())
	if cmd == nil {
		t.Fatal("expected end command")
	}
	m.Update(cmd())
	if m.Outcome() != OutcomeCompleted {
		t.Errorf("outcome = %v, want completed", m.Outcome())
	}
}

func TestPracticeScreen_QuitAbandons(t *testing.T) {
	m, svc := testScreen(t, nil)
	submitLine(t, m, "/quit")
	if m.Outcome() != OutcomeAbandoned {
		t.Fatalf("outcome = %v, want abandoned", m.Outcome())
	}
	sess, _ := svc.Get(context.Background(), m.id)
	if sess.Status != domain.StatusAbandoned {
		t.Errorf("status = %s, want abandoned", sess.Status)
	}
}

func TestPracticeScreen_KeysIgnoredWhileBusy(t *testing.T) {
	m, _ := testScreen(t, nil)
	m.busy = true
	if _, cmd := m.Update(specialKey(tea.KeyEnter)); cmd != nil {
		t.Error("expected enter to be ignored while busy")
	}
	if view := m.render(); !strings.Contains(view, "waiting for the interviewer") {
		t.Error("expected disabled input while busy")
	}
}
