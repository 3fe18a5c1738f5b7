package interview

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mockview/internal/domain"
)

func transcript(n int) []domain.Message {
	msgs := make([]domain.Message, n)
	for i := range msgs {
		role := domain.RoleAssistant
		if i%2 == 1 {
			role = domain.RoleUser
		}
		msgs[i] = domain.Message{Role: role, Content: fmt.Sprintf("message %d", i)}
	}
	return msgs
}

func TestMemory_ShortTranscriptKeptWhole(t *testing.T) {
	m := NewMemory(0)
	assert.Equal(t, 30, m.MaxMessages())

	msgs := transcript(30)
	kept, dropped := m.Window(msgs, "")
	assert.Equal(t, msgs, kept)
	assert.Empty(t, dropped)
}

func TestMemory_WindowKeepsRecentAndOrder(t *testing.T) {
	m := NewMemory(DefaultMaxTokens)
	msgs := transcript(40)

	kept, dropped := m.Window(msgs, "")
	require.Len(t, kept, 30)
	require.Len(t, dropped, 10)

	assert.Equal(t, msgs[34:], kept[24:], "most recent messages always kept")

	index := func(msg domain.Message) int {
		var i int
		_, err := fmt.Sscanf(msg.Content, "message %d", &i)
		require.NoError(t, err)
		return i
	}
	for _, part := range [][]domain.Message{kept, dropped} {
		for i := 1; i < len(part); i++ {
			assert.Less(t, index(part[i-1]), index(part[i]))
		}
	}
	assert.Equal(t, kept, m.Relevant(msgs, ""))
}

func TestMemory_PrefersOnTopicMessages(t *testing.T) {
	m := NewMemory(800) // 8 messages: 6 recent + 2 older
	msgs := transcript(20)
	msgs[0].Content = "Explain the event loop phases"
	msgs[1].Content = "The event loop polls for I/O, e.g. ```setImmediate(cb)```"

	kept, _ := m.Window(msgs, "event loop")
	require.Len(t, kept, 8)
	assert.Equal(t, msgs[0], kept[0])
	assert.Equal(t, msgs[1], kept[1])
}

func TestFlowStats(t *testing.T) {
	msgs := []domain.Message{
		{Role: domain.RoleAssistant, Content: "Q1"},
		{Role: domain.RoleUser, Content: strings.Repeat("a", 50)},
		{Role: domain.RoleAssistant, Content: "Q2"},
		{Role: domain.RoleUser, Content: strings.Repeat("b", 350)},
		{Role: domain.RoleAssistant, Content: "Q3"},
		{Role: domain.RoleUser, Content: strings.Repeat("c", 200)},
		{Role: domain.RoleSystem, Content: "ignored"},
	}

	f := FlowStats(msgs)
	assert.Equal(t, 3, f.QuestionCount)
	assert.Equal(t, 1, f.ShortAnswerCount)
	assert.Equal(t, 1, f.DetailedAnswerCount)
	assert.InDelta(t, 200, f.AvgResponseLength, 1e-9)

	assert.Equal(t, Flow{}, FlowStats(nil))
}

func TestSummarize(t *testing.T) {
	msgs := []domain.Message{
		{Role: domain.RoleAssistant, Content: "How does the Event Loop work?"},
		{Role: domain.RoleUser, Content: strings.Repeat("x", 250)},
		{Role: domain.RoleAssistant, Content: "How do you secure a REST API? Think about security headers."},
		{Role: domain.RoleUser, Content: "react is also mentioned here by the candidate"},
	}

	got := Summarize(msgs)
	assert.True(t, strings.HasPrefix(got, "Interview covered 3 topics: Event Loop, API Design, Security."), got)
	assert.Contains(t, got, "Technical depth: Low")

	assert.Equal(t,
		"Interview covered 0 topics: . Average response length: 0 chars. Technical depth: Low",
		Summarize(nil))
}

func TestSummarize_Depth(t *testing.T) {
	long := domain.Message{Role: domain.RoleUser, Content: strings.Repeat("y", 201)}
	medium := []domain.Message{long, long, long}
	high := []domain.Message{long, long, long, long, long, long}

	assert.Contains(t, Summarize(medium), "Technical depth: Medium")
	assert.Contains(t, Summarize(high), "Technical depth: High")
}
