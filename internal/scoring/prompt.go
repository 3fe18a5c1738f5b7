package scoring

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are a senior engineer grading one answer from a mock technical interview.

Score the candidate's answer on three dimensions, each from 0 to 10:
- technicalDepth: correctness, depth and precision of the technical content.
- clarity: structure and ease of following the explanation.
- confidence: how assured and direct the answer is, without hedging.

Judge the answer against the question that was asked and the role being interviewed for.
An empty or off-topic answer scores low on every dimension.

Reply with a single JSON object and nothing else, for example:
{"technicalDepth": 7, "clarity": 6.5, "confidence": 8}`

// buildUserMessage renders the question, answer and role for grading.
func buildUserMessage(answer, question, role string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Role: %s\n", orNone(role))
	fmt.Fprintf(&b, "\nQuestion:\n%s\n", orNone(question))
	fmt.Fprintf(&b, "\nCandidate answer:\n%s\n", orNone(answer))

	return b.String()
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}
