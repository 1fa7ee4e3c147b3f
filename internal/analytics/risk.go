package analytics

import "sort"

// Tier is a coarse intervention level.
type Tier string

const (
	TierCritical  Tier = "critical"
	TierDeclining Tier = "declining"
)

// Risk thresholds, in accuracy percentage points.
const (
	CriticalBelow  = 50.0
	DecliningBelow = 65.0
)

// RiskFinding flags a student who needs intervention.
type RiskFinding struct {
	Student        string  `json:"student"`
	Tier           Tier    `json:"tier"`
	LastAccuracy   float64 `json:"last_accuracy"`
	ImprovementPct float64 `json:"improvement_pct"`
}

// Reason describes the tier for display.
func (f RiskFinding) Reason() string {
	switch f.Tier {
	case TierCritical:
		return "last score below 50%"
	case TierDeclining:
		return "below 65% and falling"
	}
	return ""
}

// Classify applies the risk rules in order and returns the first match, or
// nil when the student is not at risk.
func Classify(s StudentSummary) *RiskFinding {
	var tier Tier
	switch {
	case s.LastAccuracy < CriticalBelow:
		tier = TierCritical
	case s.LastAccuracy < DecliningBelow && s.ImprovementPct < 0:
		tier = TierDeclining
	default:
		return nil
	}
	return &RiskFinding{
		Student:        s.Student,
		Tier:           tier,
		LastAccuracy:   s.LastAccuracy,
		ImprovementPct: s.ImprovementPct,
	}
}

// RiskReport classifies every summary and returns the findings, critical
// first, then by ascending last accuracy.
func RiskReport(summaries []StudentSummary) []RiskFinding {
	var out []RiskFinding
	for _, s := range summaries {
		if f := Classify(s); f != nil {
			out = append(out, *f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Tier != out[j].Tier {
			return out[i].Tier == TierCritical
		}
		return out[i].LastAccuracy < out[j].LastAccuracy
	})
	return out
}
