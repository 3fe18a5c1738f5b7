package practice

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/mockview/internal/interview"
)

// answerMsg carries the outcome of an answer or a retried turn.
type answerMsg struct {
	res *interview.AnswerResult
	err error
}

// snapshotMsg carries a live evaluation.
type snapshotMsg struct {
	snap *interview.Snapshot
	err  error
}

// endMsg is sent once the session has been evaluated.
type endMsg struct {
	res     *interview.EndResult
	answers int
	err     error
}

// abandonMsg is sent once the session has been abandoned.
type abandonMsg struct {
	err error
}

func (m *Model) answerCmd(text string) tea.Cmd {
	ctx, svc, id := m.ctx, m.svc, m.id
	return func() tea.Msg {
		res, err := svc.Answer(ctx, id, text)
		return answerMsg{res: res, err: err}
	}
}

func (m *Model) retryCmd() tea.Cmd {
	ctx, svc, id := m.ctx, m.svc, m.id
	return func() tea.Msg {
		res, err := svc.Retry(ctx, id)
		return answerMsg{res: res, err: err}
	}
}

func (m *Model) snapshotCmd() tea.Cmd {
	ctx, svc, id := m.ctx, m.svc, m.id
	return func() tea.Msg {
		snap, err := svc.Snapshot(ctx, id)
		return snapshotMsg{snap: snap, err: err}
	}
}

func (m *Model) endCmd() tea.Cmd {
	ctx, svc, id := m.ctx, m.svc, m.id
	return func() tea.Msg {
		res, err := svc.End(ctx, id)
		if err != nil {
			return endMsg{err: err}
		}
		sess, err := svc.Get(ctx, id)
		if err != nil {
			return endMsg{err: err}
		}
		return endMsg{res: res, answers: len(sess.PerformanceHistory)}
	}
}

func (m *Model) abandonCmd() tea.Cmd {
	ctx, svc, id := m.ctx, m.svc, m.id
	return func() tea.Msg {
		return abandonMsg{err: svc.Abandon(ctx, id)}
	}
}
