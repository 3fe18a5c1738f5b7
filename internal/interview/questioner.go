package interview

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abhisek/mockview/internal/catalog"
	"github.com/abhisek/mockview/internal/difficulty"
	"github.com/abhisek/mockview/internal/domain"
	"github.com/abhisek/mockview/internal/llm"
)

// TurnKind says what an interviewer turn does.
type TurnKind string

const (
	KindQuestion TurnKind = "question"
	KindFollowUp TurnKind = "follow_up"
)

// Turn sources.
const (
	SourceLLM  = "llm"
	SourceBank = "bank"
)

// TurnSchema constrains the interviewer's structured reply.
var TurnSchema = &llm.Schema{
	Name:        llm.PurposeInterviewer,
	Description: "The interviewer's next message in a mock technical interview",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"reply": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "The interviewer's message to the candidate (1-3 sentences)",
			},
			"kind": map[string]any{
				"type": "string",
				"enum": []any{string(KindQuestion), string(KindFollowUp)},
			},
			"topic": map[string]any{
				"type":        "string",
				"description": "Short name of the topic the message is about",
			},
		},
		"required":             []any{"reply", "kind", "topic"},
		"additionalProperties": false,
	},
}

// Turn is one generated interviewer message.
type Turn struct {
	Reply  string
	Kind   TurnKind
	Topic  string
	Source string
}

// TurnInput is everything the questioner needs to produce the next turn.
type TurnInput struct {
	Role       string
	Level      domain.Level
	Difficulty float64
	Strategy   difficulty.Strategy
	FollowUp   bool
	Messages   []domain.Message
	LastMetric *domain.PerformanceMetric
}

// QuestionerConfig holds interviewer generation settings.
type QuestionerConfig struct {
	MaxTokens   int
	Temperature float64
	// ContextTokens is the prompt budget for transcript context.
	ContextTokens int
}

// DefaultQuestionerConfig returns sensible defaults.
func DefaultQuestionerConfig() QuestionerConfig {
	return QuestionerConfig{
		MaxTokens:     300,
		Temperature:   0.7,
		ContextTokens: DefaultMaxTokens,
	}
}

// followUpPrompts are used when no provider is configured.
var followUpPrompts = []string{
	"That's an interesting point. Can you elaborate on how you would handle error cases in that scenario?",
	"Can you walk me through a concrete example of that from a project you've worked on?",
	"What trade-offs would you consider with that approach, and when would you choose something else?",
	"How would you explain why that works the way it does, step by step?",
}

// Questioner produces interviewer turns, through the provider when one is
// configured and from the role's question bank otherwise.
type Questioner struct {
	provider llm.Provider
	catalog  *catalog.Catalog
	memory   *Memory
	cfg      QuestionerConfig
}

// NewQuestioner creates a questioner. A nil provider selects the question
// bank; a nil catalog uses the built-in one.
func NewQuestioner(provider llm.Provider, cat *catalog.Catalog, cfg QuestionerConfig) *Questioner {
	if cat == nil {
		cat = catalog.Default()
	}
	return &Questioner{
		provider: provider,
		catalog:  cat,
		memory:   NewMemory(cfg.ContextTokens),
		cfg:      cfg,
	}
}

// Opening returns the first question of a session.
func (q *Questioner) Opening(role string, level domain.Level) string {
	return q.catalog.Opening(role, level)
}

// Next produces the interviewer's next turn. Provider failures are
// reported as domain.ErrUnavailable.
func (q *Questioner) Next(ctx context.Context, in TurnInput) (Turn, error) {
	if q.provider == nil {
		return q.fromBank(in), nil
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeInterviewer)
	kept, dropped := q.memory.Window(in.Messages, q.currentTopic(in.Role, in.Messages))
	resp, err := q.provider.Generate(ctx, llm.Request{
		System: interviewerPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildTurnMessage(in, q.catalog.DisplayName(in.Role), kept, dropped)},
		},
		Schema:      TurnSchema,
		MaxTokens:   q.cfg.MaxTokens,
		Temperature: q.cfg.Temperature,
	})
	if err != nil {
		return Turn{}, fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
	}
	if err := llm.ValidateJSON(TurnSchema, resp.Content); err != nil {
		return Turn{}, fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
	}

	var out struct {
		Reply string   `json:"reply"`
		Kind  TurnKind `json:"kind"`
		Topic string   `json:"topic"`
	}
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return Turn{}, fmt.Errorf("%w: parse interviewer turn: %w", domain.ErrUnavailable, err)
	}
	return Turn{
		Reply:  strings.TrimSpace(out.Reply),
		Kind:   out.Kind,
		Topic:  out.Topic,
		Source: SourceLLM,
	}, nil
}

// fromBank picks a canned follow-up or the next unasked bank question.
func (q *Questioner) fromBank(in TurnInput) Turn {
	answers := 0
	for _, m := range in.Messages {
		if m.Role == domain.RoleUser {
			answers++
		}
	}
	if in.FollowUp {
		return Turn{
			Reply:  followUpPrompts[(max(answers, 1)-1)%len(followUpPrompts)],
			Kind:   KindFollowUp,
			Source: SourceBank,
		}
	}

	bank := q.catalog.Questions(in.Role, in.Strategy.TargetLevel)
	return Turn{
		Reply:  pickQuestion(bank, in.Strategy.Mix, asked(in.Messages)),
		Kind:   KindQuestion,
		Source: SourceBank,
	}
}

// pickQuestion returns the first unasked question in the mix's segment of
// the bank, then the first unasked anywhere. Banks run easiest first.
// When every question has been asked it cycles.
func pickQuestion(bank []string, mix difficulty.Mix, seen map[string]bool) string {
	third := max(len(bank)/3, 1)
	var segment []string
	switch mix {
	case difficulty.MixEasier:
		segment = bank[:third]
	case difficulty.MixHarder:
		segment = bank[len(bank)-third:]
	default:
		segment = bank
	}

	for _, candidates := range [][]string{segment, bank} {
		for _, qs := range candidates {
			if !seen[qs] {
				return qs
			}
		}
	}
	return bank[len(seen)%len(bank)]
}

func asked(messages []domain.Message) map[string]bool {
	seen := make(map[string]bool)
	for _, m := range messages {
		if m.Role == domain.RoleAssistant {
			seen[m.Content] = true
		}
	}
	return seen
}

// currentTopic returns the first role keyword found in the latest
// interviewer message, used to rank older context.
func (q *Questioner) currentTopic(role string, messages []domain.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != domain.RoleAssistant {
			continue
		}
		content := strings.ToLower(messages[i].Content)
		for _, t := range q.catalog.Topics(role) {
			for _, k := range t.Keywords {
				if strings.Contains(content, strings.ToLower(k)) {
					return k
				}
			}
		}
		return ""
	}
	return ""
}
