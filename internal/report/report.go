// Package report assembles the class dashboard: headline figures, the score
// distribution, concept difficulty and the students at risk.
package report

import (
	"context"
	"fmt"

	"github.com/abhisek/edurag/internal/analytics"
	"github.com/abhisek/edurag/internal/store"
)

// HistogramBins is the number of equal-width bins over 0-100.
const HistogramBins = 10

// Options narrows a report.
type Options struct {
	// Chapters restricts concept statistics; empty means all chapters.
	Chapters []int

	// Threshold is the success rate below which a concept is flagged.
	// Zero uses analytics.DefaultDifficultyThreshold.
	Threshold float64
}

// KPIs are the headline class figures.
type KPIs struct {
	Students         int     `json:"students"`
	MeanLastAccuracy float64 `json:"mean_last_accuracy"`
	AtRisk           int     `json:"at_risk"`
	MeanImprovement  float64 `json:"mean_improvement"`
}

// Bin counts students whose last accuracy is in [Low, High). The last bin
// also holds 100.
type Bin struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int     `json:"count"`
}

// Report is the assembled dashboard.
type Report struct {
	KPIs      KPIs                       `json:"kpis"`
	Histogram []Bin                      `json:"histogram"`
	Concepts  []analytics.ConceptStat    `json:"concepts"`
	Flagged   []analytics.ConceptStat    `json:"flagged"`
	Risks     []analytics.RiskFinding    `json:"risks"`
	Students  []analytics.StudentSummary `json:"students"`
	Chapters  []int                      `json:"chapters,omitempty"`
	Threshold float64                    `json:"threshold"`
}

// Build assembles a report from student summaries and concept events.
func Build(summaries []analytics.StudentSummary, events []analytics.ConceptEvent, opts Options) Report {
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = analytics.DefaultDifficultyThreshold
	}

	concepts := analytics.AggregateConcepts(analytics.FilterChapters(events, opts.Chapters))
	risks := analytics.RiskReport(summaries)

	r := Report{
		KPIs:      kpis(summaries, len(risks)),
		Histogram: histogram(summaries),
		Concepts:  concepts,
		Flagged:   analytics.FlagDifficult(concepts, threshold),
		Risks:     risks,
		Students:  summaries,
		Chapters:  opts.Chapters,
		Threshold: threshold,
	}
	if r.Concepts == nil {
		r.Concepts = []analytics.ConceptStat{}
	}
	if r.Flagged == nil {
		r.Flagged = []analytics.ConceptStat{}
	}
	if r.Risks == nil {
		r.Risks = []analytics.RiskFinding{}
	}
	if r.Students == nil {
		r.Students = []analytics.StudentSummary{}
	}
	return r
}

// Load reads the analytics store and builds the report.
func Load(ctx context.Context, repo store.AnalyticsRepo, opts Options) (Report, error) {
	summaries, err := repo.Summaries(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("load summaries: %w", err)
	}
	events, err := repo.ConceptEvents(ctx, store.AttemptFilter{Chapters: opts.Chapters})
	if err != nil {
		return Report{}, fmt.Errorf("load concept events: %w", err)
	}
	return Build(summaries, events, opts), nil
}

func kpis(summaries []analytics.StudentSummary, atRisk int) KPIs {
	k := KPIs{Students: len(summaries), AtRisk: atRisk}
	if len(summaries) == 0 {
		return k
	}
	var last, improvement float64
	for _, s := range summaries {
		last += s.LastAccuracy
		improvement += s.ImprovementPct
	}
	k.MeanLastAccuracy = last / float64(len(summaries))
	k.MeanImprovement = improvement / float64(len(summaries))
	return k
}

func histogram(summaries []analytics.StudentSummary) []Bin {
	const width = 100.0 / HistogramBins
	bins := make([]Bin, HistogramBins)
	for i := range bins {
		bins[i].Low = float64(i) * width
		bins[i].High = float64(i+1) * width
	}
	for _, s := range summaries {
		i := int(s.LastAccuracy / width)
		if i < 0 {
			i = 0
		}
		if i >= HistogramBins {
			i = HistogramBins - 1
		}
		bins[i].Count++
	}
	return bins
}
