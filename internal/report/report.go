// Package report renders interview results for the terminal.
package report

import (
	"fmt"
	"strings"
	"time"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/mockview/internal/domain"
	"github.com/abhisek/mockview/internal/interview"
	"github.com/abhisek/mockview/internal/scoring"
	"github.com/abhisek/mockview/internal/ui/components"
	"github.com/abhisek/mockview/internal/ui/theme"
)

// DefaultWidth is used when the caller does not know the terminal width.
const DefaultWidth = 72

const labelWidth = 16

// Header identifies the interview a report belongs to.
type Header struct {
	Role     string
	Level    domain.Level
	Answers  int
	Duration time.Duration
}

func (h Header) view() string {
	title := theme.Title.Render(fmt.Sprintf("%s interview · %s", h.Role, h.Level))
	meta := fmt.Sprintf("%d answers", h.Answers)
	if h.Duration > 0 {
		meta += " · " + h.Duration.Round(time.Second).String()
	}
	return title + "\n" + theme.Subtitle.Render(meta)
}

// Evaluation renders a final evaluation.
func Evaluation(h Header, ev domain.Evaluation, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	ev = ev.Rounded()
	inner := width - 6

	var b strings.Builder
	b.WriteString(h.view())
	b.WriteString("\n\n")
	b.WriteString(scoreBars(inner, ev.TechnicalDepth, ev.Clarity, ev.Confidence))
	b.WriteString("\n")
	b.WriteString(components.NewScoreBar("Overall", labelWidth, ev.OverallScore, inner).View())
	b.WriteString("\n")

	b.WriteString(section("Strengths", ev.Strengths, theme.Plus.Render("+")))
	b.WriteString(section("To improve", ev.Improvements, theme.Minus.Render("-")))
	b.WriteString(knowledge(ev.KnowledgeAnalysis))

	if ev.Feedback != "" {
		b.WriteString(theme.Heading.Render("Feedback"))
		b.WriteString("\n")
		b.WriteString(theme.Body.Width(inner).Render(ev.Feedback))
	}

	return theme.Card.Width(width).Render(strings.TrimRight(b.String(), "\n"))
}

// Snapshot renders the live evaluation of a running session.
func Snapshot(h Header, snap interview.Snapshot, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	snap = snap.Rounded()
	inner := width - 6

	var b strings.Builder
	b.WriteString(h.view())
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Render(fmt.Sprintf("difficulty %.1f", snap.CurrentDifficulty)))
	b.WriteString("\n\n")

	if snap.Performance == nil {
		b.WriteString(theme.Hint.Render(snap.Message))
		return theme.Card.Width(width).Render(b.String())
	}

	p := snap.Performance
	b.WriteString(scoreBars(inner, p.TechnicalDepth, p.Clarity, p.Confidence))
	b.WriteString("\n")
	b.WriteString(components.NewScoreBar("Overall", labelWidth, p.OverallScore, inner).View())
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Render("trend: " + string(p.Trend)))
	b.WriteString("\n")

	b.WriteString(section("Strengths", snap.Strengths, theme.Plus.Render("+")))
	b.WriteString(section("To improve", snap.Improvements, theme.Minus.Render("-")))
	if snap.KnowledgeAnalysis != nil {
		b.WriteString(knowledge(*snap.KnowledgeAnalysis))
	}
	if c := snap.Coaching; c != nil {
		b.WriteString(theme.Heading.Render("Coaching"))
		b.WriteString("\n")
		b.WriteString(theme.Body.Width(inner).Render(c.Message))
		b.WriteString("\n")
		for _, s := range c.Suggestions {
			b.WriteString(theme.Hint.Render("• " + s))
			b.WriteString("\n")
		}
	}

	return theme.Card.Width(width).Render(strings.TrimRight(b.String(), "\n"))
}

// Scores renders one estimator result.
func Scores(s scoring.Scores, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	var b strings.Builder
	b.WriteString(scoreBars(width, domain.Round1(s.TechnicalDepth), domain.Round1(s.Clarity), domain.Round1(s.Confidence)))
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Render(fmt.Sprintf("mean %.1f · source %s", domain.Round1(s.Mean()), s.Source)))
	return b.String()
}

// Transcript renders a session's messages with their scores.
func Transcript(sess *domain.Session) string {
	var b strings.Builder
	for _, m := range sess.Messages {
		switch m.Role {
		case domain.RoleAssistant:
			b.WriteString(theme.Interviewer.Render("Interviewer"))
		case domain.RoleUser:
			b.WriteString(theme.Candidate.Render("You"))
		default:
			continue
		}
		b.WriteString(theme.Subtitle.Render("  " + m.Timestamp.Local().Format("15:04:05")))
		if m.MetricIndex != nil && *m.MetricIndex < len(sess.PerformanceHistory) {
			pm := sess.PerformanceHistory[*m.MetricIndex].Rounded()
			b.WriteString(theme.Hint.Render(fmt.Sprintf("  [depth %.1f · clarity %.1f · confidence %.1f]",
				pm.TechnicalDepth, pm.Clarity, pm.Confidence)))
		}
		b.WriteString("\n")
		b.WriteString(theme.Body.Render(m.Content))
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Sessions renders a listing table.
func Sessions(list []domain.Summary) string {
	if len(list) == 0 {
		return theme.Hint.Render("No sessions yet.")
	}
	var b strings.Builder
	b.WriteString(theme.Subtitle.Render(fmt.Sprintf("%-36s  %-10s  %-7s  %-10s  %5s  %7s  %s",
		"ID", "Role", "Level", "Status", "Diff", "Overall", "Started")))
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Render(strings.Repeat("─", 100)))
	for _, s := range list {
		overall := "-"
		if s.OverallScore != nil {
			overall = fmt.Sprintf("%.1f", domain.Round1(*s.OverallScore))
		}
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("%-36s  %-10s  %-7s  %-10s  %5.1f  %7s  %s",
			s.ID, truncate(s.Role, 10), s.Level, s.Status, domain.Round1(s.CurrentDifficulty),
			overall, s.CreatedAt.Local().Format("2006-01-02 15:04")))
	}
	return b.String()
}

func scoreBars(width int, technicalDepth, clarity, confidence float64) string {
	return strings.Join([]string{
		components.NewScoreBar("Technical depth", labelWidth, technicalDepth, width).View(),
		components.NewScoreBar("Clarity", labelWidth, clarity, width).View(),
		components.NewScoreBar("Confidence", labelWidth, confidence, width).View(),
	}, "\n")
}

func section(title string, items []string, bullet string) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(theme.Heading.Render(title))
	b.WriteString("\n")
	for _, it := range items {
		b.WriteString(bullet + " " + theme.Body.Render(it))
		b.WriteString("\n")
	}
	return b.String()
}

func knowledge(ka domain.KnowledgeAnalysis) string {
	if len(ka.TopicsCovered) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(theme.Heading.Render("Topics"))
	b.WriteString("\n")
	b.WriteString(theme.Body.Render("Covered: " + strings.Join(ka.TopicsCovered, ", ")))
	b.WriteString("\n")
	if len(ka.StrongAreas) > 0 {
		b.WriteString(theme.Plus.Render("Strong: ") + theme.Body.Render(strings.Join(ka.StrongAreas, ", ")))
		b.WriteString("\n")
	}
	if len(ka.WeakAreas) > 0 {
		b.WriteString(theme.Minus.Render("Weak: ") + theme.Body.Render(strings.Join(ka.WeakAreas, ", ")))
		b.WriteString("\n")
	}
	return b.String()
}

func truncate(s string, n int) string {
	if lipgloss.Width(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
