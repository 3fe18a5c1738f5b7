package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/mockview/internal/ui/theme"
)

// ScoreBar displays a 0-10 score as a labelled horizontal bar.
type ScoreBar struct {
	Label      string
	LabelWidth int
	Score      float64
	Width      int
}

// NewScoreBar creates a score bar.
func NewScoreBar(label string, labelWidth int, score float64, width int) ScoreBar {
	return ScoreBar{
		Label:      label,
		LabelWidth: labelWidth,
		Score:      score,
		Width:      width,
	}
}

// View renders the bar.
func (b ScoreBar) View() string {
	var result string
	if b.Label != "" {
		label := b.Label + strings.Repeat(" ", max(b.LabelWidth-lipgloss.Width(b.Label), 0))
		result += theme.Body.Render(label) + "  "
	}

	const scoreWidth = 6 // "  10.0"
	barWidth := max(b.Width-lipgloss.Width(result)-scoreWidth, 4)

	filled := int(float64(barWidth) * b.Score / 10)
	filled = min(max(filled, 0), barWidth)

	result += theme.BarFilled.Render(strings.Repeat(" ", filled)) +
		theme.BarEmpty.Render(strings.Repeat(" ", barWidth-filled))

	result += theme.ScoreColor(b.Score).Render(fmt.Sprintf("  %4.1f", b.Score))
	return result
}
