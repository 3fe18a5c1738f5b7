package components

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/mockview/internal/ui/theme"
)

// AnswerInput wraps bubbles/textinput for free-text answers.
type AnswerInput struct {
	Model textinput.Model
}

// NewAnswerInput creates a focused answer input.
func NewAnswerInput(placeholder string, charLimit int) AnswerInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "> "
	ti.CharLimit = charLimit
	ti.Focus()
	return AnswerInput{Model: ti}
}

// Init returns the initial command.
func (a AnswerInput) Init() tea.Cmd {
	return a.Model.Focus()
}

// Update handles messages.
func (a AnswerInput) Update(msg tea.Msg) (AnswerInput, tea.Cmd) {
	var cmd tea.Cmd
	a.Model, cmd = a.Model.Update(msg)
	return a, cmd
}

// View renders the input, dimmed while disabled.
func (a AnswerInput) View(disabled bool) string {
	if disabled {
		return lipgloss.NewStyle().Foreground(theme.TextDim).Render("> waiting for the interviewer...")
	}
	return a.Model.View()
}

// Value returns the trimmed input.
func (a AnswerInput) Value() string {
	return strings.TrimSpace(a.Model.Value())
}

// Clear empties the input.
func (a *AnswerInput) Clear() {
	a.Model.SetValue("")
}
