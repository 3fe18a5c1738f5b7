package interview

import (
	"fmt"
	"strings"

	"github.com/abhisek/mockview/internal/domain"
)

const interviewerPrompt = `You are an experienced technical interviewer running a mock interview.

Rules:
- Ask exactly one thing per turn. Keep it to one to three sentences.
- When asked for a follow-up, dig into the candidate's last answer: ask for the reasoning, an edge case, a concrete example or a trade-off they skipped.
- When asked for a new question, move to a different topic for the role that has not been covered yet.
- Pitch the question at the requested difficulty (1 is trivial, 10 is expert) and target level.
- Never grade the answer, reveal scores or give the solution.
- Use plain text. Inline code in backticks is fine; no headings or lists.
- Set "kind" to "follow_up" for a follow-up and "question" for a new topic, and name the topic in "topic".`

// buildTurnMessage renders the interview state for the next turn.
func buildTurnMessage(in TurnInput, roleName string, window []domain.Message, dropped []domain.Message) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Role: %s\n", roleName)
	fmt.Fprintf(&b, "Level: %s\n", in.Level)
	fmt.Fprintf(&b, "Difficulty: %.1f / 10\n", in.Difficulty)
	fmt.Fprintf(&b, "Target level: %s (%s questions)\n", in.Strategy.TargetLevel, in.Strategy.Mix)
	if in.FollowUp {
		b.WriteString("Next turn: follow-up on the last answer\n")
	} else {
		b.WriteString("Next turn: new question\n")
	}

	if in.LastMetric != nil {
		m := in.LastMetric.Rounded()
		fmt.Fprintf(&b, "Last answer scores: technical depth %.1f, clarity %.1f, confidence %.1f\n",
			m.TechnicalDepth, m.Clarity, m.Confidence)
	}

	flow := FlowStats(in.Messages)
	fmt.Fprintf(&b, "Questions asked: %d, short answers: %d, detailed answers: %d\n",
		flow.QuestionCount, flow.ShortAnswerCount, flow.DetailedAnswerCount)

	if len(dropped) > 0 {
		b.WriteString("\nEarlier in the interview:\n")
		b.WriteString(Summarize(dropped))
		b.WriteString("\n")
	}

	b.WriteString("\nTranscript:\n")
	for _, msg := range window {
		speaker := "Candidate"
		if msg.Role == domain.RoleAssistant {
			speaker = "Interviewer"
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, msg.Content)
	}

	return b.String()
}
