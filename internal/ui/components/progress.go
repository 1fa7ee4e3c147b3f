// Package components renders small reusable terminal widgets.
package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/edurag/internal/ui/theme"
)

// Bar displays a labelled horizontal bar with a trailing value.
type Bar struct {
	Label string

	// Fraction is the filled share of the bar, clamped to [0,1].
	Fraction float64

	// Value is printed after the bar; empty prints nothing.
	Value string
	Width int
}

// NewBar creates a bar.
func NewBar(label string, fraction float64, value string, width int) Bar {
	return Bar{Label: label, Fraction: fraction, Value: value, Width: width}
}

// View renders the bar.
func (b Bar) View() string {
	var result string

	if b.Label != "" {
		result += lipgloss.NewStyle().Foreground(theme.Text).Render(b.Label) + "  "
	}

	labelWidth := lipgloss.Width(result)
	valueWidth := 0
	if b.Value != "" {
		valueWidth = len(b.Value) + 2
	}

	barWidth := b.Width - labelWidth - valueWidth
	if barWidth < 4 {
		barWidth = 4
	}

	filled := int(float64(barWidth) * b.Fraction)
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}
	empty := barWidth - filled

	result += theme.BarFilled.Render(strings.Repeat(" ", filled))
	result += theme.BarEmpty.Render(strings.Repeat(" ", empty))

	if b.Value != "" {
		result += lipgloss.NewStyle().
			Foreground(theme.TextDim).
			Render(fmt.Sprintf("  %s", b.Value))
	}

	return result
}
