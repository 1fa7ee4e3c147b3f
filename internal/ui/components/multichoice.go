package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/edurag/internal/ui/theme"
)

var optionLabels = [4]string{"a", "b", "c", "d"}

// MultiChoice renders a four-option question. Before grading Chosen and
// Correct are -1; after grading the correct option is green and a wrong
// choice red.
type MultiChoice struct {
	Question string
	Options  [4]string
	Chosen   int
	Correct  int
}

// NewMultiChoice creates an ungraded question view.
func NewMultiChoice(question string, options [4]string) MultiChoice {
	return MultiChoice{Question: question, Options: options, Chosen: -1, Correct: -1}
}

// Graded returns a copy marked with the chosen and correct indexes.
func (m MultiChoice) Graded(chosen, correct int) MultiChoice {
	m.Chosen = chosen
	m.Correct = correct
	return m
}

func (m MultiChoice) graded() bool {
	return m.Correct >= 0
}

// View renders the question followed by its options.
func (m MultiChoice) View() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(m.Question))
	b.WriteString("\n")

	for i, opt := range m.Options {
		prefix := "  "
		if i == m.Chosen {
			prefix = "▸ "
		}
		line := fmt.Sprintf("%s%s)  %s", prefix, optionLabels[i], opt)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		switch {
		case m.graded() && i == m.Correct:
			style = lipgloss.NewStyle().Foreground(theme.Success).Bold(true)
		case m.graded() && i == m.Chosen:
			style = lipgloss.NewStyle().Foreground(theme.Error).Bold(true)
		case m.graded():
			style = lipgloss.NewStyle().Foreground(theme.TextDim)
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

// IsCorrect reports whether a graded view has the correct option chosen.
func (m MultiChoice) IsCorrect() bool {
	return m.graded() && m.Chosen == m.Correct
}
