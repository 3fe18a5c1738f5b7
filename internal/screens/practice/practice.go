// Package practice is the interactive terminal interview screen.
package practice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/mockview/internal/domain"
	"github.com/abhisek/mockview/internal/interview"
	"github.com/abhisek/mockview/internal/report"
	"github.com/abhisek/mockview/internal/ui/components"
	"github.com/abhisek/mockview/internal/ui/theme"
)

// Interviewer is the service surface the screen drives.
type Interviewer interface {
	Answer(ctx context.Context, sessionID, message string) (*interview.AnswerResult, error)
	Retry(ctx context.Context, sessionID string) (*interview.AnswerResult, error)
	Snapshot(ctx context.Context, sessionID string) (*interview.Snapshot, error)
	End(ctx context.Context, sessionID string) (*interview.EndResult, error)
	Abandon(ctx context.Context, sessionID string) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
}

// Outcome is how the screen finished.
type Outcome int

const (
	OutcomeRunning Outcome = iota
	OutcomeCompleted
	OutcomeAbandoned
	OutcomeFailed
)

// UnavailableNotice is shown when the interviewer turn failed.
const UnavailableNotice = "The interviewer is temporarily unavailable. Press Enter to retry."

// PendingNotice is shown when a new answer is typed before the failed
// turn was retried.
const PendingNotice = "Your previous answer is still waiting for a reply. Press Enter to retry it first."

const (
	answerCharLimit = 4000
	barWidth        = 40
	labelWidth      = 12
)

type entry struct {
	interviewer bool
	text        string
}

// Model is the Bubble Tea model for one practice interview.
type Model struct {
	ctx    context.Context
	svc    Interviewer
	id     string
	header report.Header

	transcript []entry
	input      components.AnswerInput
	busy       bool
	pending    bool
	notice     string
	last       *domain.PerformanceMetric
	difficulty float64
	snapshot   *interview.Snapshot

	outcome Outcome
	result  *interview.EndResult
	err     error

	width  int
	height int
}

var _ tea.Model = (*Model)(nil)

// New creates the screen for a started session.
func New(ctx context.Context, svc Interviewer, start *interview.StartResult) *Model {
	return &Model{
		ctx:        ctx,
		svc:        svc,
		id:         start.SessionID,
		header:     report.Header{Role: start.Role, Level: start.Level},
		transcript: []entry{{interviewer: true, text: start.OpeningQuestion}},
		input:      components.NewAnswerInput("Type your answer...", answerCharLimit),
		difficulty: domain.DefaultDifficulty,
	}
}

// Outcome reports how the interview finished.
func (m *Model) Outcome() Outcome { return m.outcome }

// Result is the completed evaluation, nil unless OutcomeCompleted.
func (m *Model) Result() *interview.EndResult { return m.result }

// Header describes the session for the final report.
func (m *Model) Header() report.Header { return m.header }

// Err is the error that stopped the screen, if any.
func (m *Model) Err() error { return m.err }

func (m *Model) Init() tea.Cmd {
	return m.input.Init()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case answerMsg:
		return m.handleAnswer(msg)

	case snapshotMsg:
		m.busy = false
		if msg.err != nil {
			return m.fail(msg.err)
		}
		m.snapshot = msg.snap
		m.notice = ""
		return m, nil

	case endMsg:
		m.busy = false
		if msg.err != nil {
			return m.fail(msg.err)
		}
		m.result = msg.res
		m.header.Answers = msg.answers
		m.header.Duration = msg.res.Duration
		m.outcome = OutcomeCompleted
		return m, tea.Quit

	case abandonMsg:
		m.busy = false
		if msg.err != nil {
			return m.fail(msg.err)
		}
		m.outcome = OutcomeAbandoned
		return m, tea.Quit

	case tea.KeyPressMsg:
		return m.handleKey(msg)
	}

	if !m.busy {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		if m.busy {
			return m, nil
		}
		return m.submit("/end")
	case "enter":
		if m.busy {
			return m, nil
		}
		text := m.input.Value()
		m.input.Clear()
		return m.submit(text)
	}
	if m.busy {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit dispatches one line of input.
func (m *Model) submit(text string) (tea.Model, tea.Cmd) {
	switch text {
	case "":
		if !m.pending {
			return m, nil
		}
		return m.run(m.retryCmd())
	case "/retry":
		return m.run(m.retryCmd())
	case "/status":
		return m.run(m.snapshotCmd())
	case "/end":
		return m.run(m.endCmd())
	case "/quit":
		return m.run(m.abandonCmd())
	}
	if m.pending && m.lastAnswer() == text {
		return m.run(m.retryCmd())
	}
	m.transcript = append(m.transcript, entry{text: text})
	m.snapshot = nil
	return m.run(m.answerCmd(text))
}

func (m *Model) lastAnswer() string {
	for i := len(m.transcript) - 1; i >= 0; i-- {
		if !m.transcript[i].interviewer {
			return m.transcript[i].text
		}
	}
	return ""
}

func (m *Model) run(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	m.busy = true
	return m, cmd
}

func (m *Model) handleAnswer(msg answerMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	switch {
	case msg.err == nil:
		m.pending = false
		m.notice = ""
		metric := msg.res.Metric
		m.last = &metric
		m.difficulty = msg.res.Difficulty
		m.transcript = append(m.transcript, entry{interviewer: true, text: msg.res.Response})
		return m, nil
	case errors.Is(msg.err, domain.ErrUnavailable):
		m.pending = true
		m.notice = UnavailableNotice
		return m, nil
	case errors.Is(msg.err, domain.ErrTurnPending):
		// The rejected answer never reached the session.
		m.transcript = m.transcript[:len(m.transcript)-1]
		m.notice = PendingNotice
		return m, nil
	case errors.Is(msg.err, domain.ErrInvalidInput):
		m.notice = msg.err.Error()
		return m, nil
	}
	return m.fail(msg.err)
}

func (m *Model) fail(err error) (tea.Model, tea.Cmd) {
	m.err = err
	m.outcome = OutcomeFailed
	return m, tea.Quit
}

func (m *Model) View() tea.View {
	v := tea.NewView("")
	v.SetContent(m.render())
	return v
}

func (m *Model) render() string {
	width := m.width
	if width <= 0 {
		width = report.DefaultWidth
	}

	var b strings.Builder
	b.WriteString(theme.Title.Render(fmt.Sprintf("Mock interview · %s · %s", m.header.Role, m.header.Level)))
	b.WriteString("\n\n")

	lines := m.transcriptLines(width)
	if m.height > 0 {
		// Title, status block, input and footer take about 12 rows.
		if room := m.height - 12; room > 0 && len(lines) > room {
			lines = lines[len(lines)-room:]
		}
	}
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\n")

	if m.snapshot != nil {
		b.WriteString(report.Snapshot(m.header, *m.snapshot, width))
		b.WriteString("\n")
	} else if m.last != nil {
		last := m.last.Rounded()
		b.WriteString(components.NewScoreBar("Depth", labelWidth, last.TechnicalDepth, barWidth).View() + "\n")
		b.WriteString(components.NewScoreBar("Clarity", labelWidth, last.Clarity, barWidth).View() + "\n")
		b.WriteString(components.NewScoreBar("Confidence", labelWidth, last.Confidence, barWidth).View() + "\n")
		b.WriteString(components.NewScoreBar("Difficulty", labelWidth, domain.Round1(m.difficulty), barWidth).View() + "\n\n")
	}

	if m.notice != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Warning).Render(m.notice))
		b.WriteString("\n")
	}
	b.WriteString(m.input.View(m.busy))
	b.WriteString("\n\n")
	b.WriteString(theme.Hint.Render("Enter submit · /status live evaluation · /retry · /end report · /quit abandon · Ctrl+C end"))

	return b.String()
}

func (m *Model) transcriptLines(width int) []string {
	wrap := lipgloss.NewStyle().Width(width - 2)
	var out []string
	for _, e := range m.transcript {
		var rendered string
		if e.interviewer {
			rendered = wrap.Render(theme.Interviewer.Render("Interviewer: ") + theme.Body.Render(e.text))
		} else {
			rendered = wrap.Render(theme.Candidate.Render("You: ") + theme.Body.Render(e.text))
		}
		out = append(out, strings.Split(rendered, "\n")...)
	}
	return out
}
