package report

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/edurag/internal/analytics"
	"github.com/abhisek/edurag/internal/ui/components"
	"github.com/abhisek/edurag/internal/ui/theme"
)

// Render formats r for a terminal of the given width. advice is appended
// when non-empty.
func Render(r Report, width int, advice string) string {
	if width < 40 {
		width = 40
	}
	var b strings.Builder

	b.WriteString(theme.Title.Render("Class mastery report"))
	if len(r.Chapters) > 0 {
		b.WriteString(theme.Hint.Render(fmt.Sprintf("  chapters %s", joinInts(r.Chapters))))
	}
	b.WriteString("\n")

	b.WriteString(renderKPIs(r.KPIs))
	b.WriteString("\n")

	b.WriteString(theme.Heading.Render("Last score distribution"))
	b.WriteString("\n")
	maxCount := 0
	for _, bin := range r.Histogram {
		maxCount = max(maxCount, bin.Count)
	}
	for _, bin := range r.Histogram {
		frac := 0.0
		if maxCount > 0 {
			frac = float64(bin.Count) / float64(maxCount)
		}
		label := fmt.Sprintf("%3.0f-%-3.0f", bin.Low, bin.High)
		b.WriteString(components.NewBar(label, frac, fmt.Sprintf("%d", bin.Count), width).View())
		b.WriteString("\n")
	}

	b.WriteString(theme.Heading.Render(fmt.Sprintf("Concept difficulty (flag below %.0f%%)", r.Threshold)))
	b.WriteString("\n")
	if len(r.Concepts) == 0 {
		b.WriteString(theme.Hint.Render("No concept data yet."))
		b.WriteString("\n")
	}
	flagged := make(map[string]bool, len(r.Flagged))
	for _, f := range r.Flagged {
		flagged[f.Concept] = true
	}
	for _, c := range r.Concepts {
		b.WriteString(renderConcept(c, flagged[c.Concept]))
		b.WriteString("\n")
	}

	b.WriteString(theme.Heading.Render("Students at risk"))
	b.WriteString("\n")
	if len(r.Risks) == 0 {
		b.WriteString(theme.Hint.Render("No students at risk."))
		b.WriteString("\n")
	}
	for _, f := range r.Risks {
		b.WriteString(renderRisk(f))
		b.WriteString("\n")
	}

	if advice != "" {
		b.WriteString(theme.Heading.Render("Advice for the teacher"))
		b.WriteString("\n")
		b.WriteString(theme.Card.Width(width).Render(advice))
		b.WriteString("\n")
	}
	return b.String()
}

func renderKPIs(k KPIs) string {
	cell := func(label, value string) string {
		return theme.Card.Render(theme.KPIValue.Render(value) + "\n" + theme.KPILabel.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		cell("students", fmt.Sprintf("%d", k.Students)),
		cell("mean score", fmt.Sprintf("%.1f%%", k.MeanLastAccuracy)),
		cell("at risk", fmt.Sprintf("%d", k.AtRisk)),
		cell("mean improvement", fmt.Sprintf("%+.1f", k.MeanImprovement)),
	)
}

func renderConcept(c analytics.ConceptStat, flagged bool) string {
	line := fmt.Sprintf("%-28s %6.1f%%  (%d/%d)", c.Concept, c.SuccessRate, c.Correct, c.Attempts)
	if flagged {
		return theme.Flagged.Render(line + "  reteach")
	}
	return theme.Body.Render(line)
}

func renderRisk(f analytics.RiskFinding) string {
	style := theme.Declining
	if f.Tier == analytics.TierCritical {
		style = theme.Critical
	}
	return fmt.Sprintf("%s %-20s last %.1f%%  change %+.1f  %s",
		style.Render(fmt.Sprintf("%-9s", f.Tier)),
		f.Student, f.LastAccuracy, f.ImprovementPct,
		theme.Hint.Render(f.Reason()))
}

func joinInts(xs []int) string {
	s := make([]string, len(xs))
	for i, x := range xs {
		s[i] = fmt.Sprintf("%d", x)
	}
	return strings.Join(s, ", ")
}
