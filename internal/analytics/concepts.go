package analytics

import "sort"

// DefaultDifficultyThreshold is the success rate under which a concept is
// flagged for reteaching.
const DefaultDifficultyThreshold = 50.0

// ConceptStat aggregates the answers given on one concept.
type ConceptStat struct {
	Concept  string `json:"concept"`
	Attempts int    `json:"attempts"`
	Correct  int    `json:"correct"`

	// SuccessRate is 100 * mean(correct).
	SuccessRate float64 `json:"success_rate"`
}

// AggregateConcepts groups events by concept. The result is ordered by
// ascending success rate, ties by concept name.
func AggregateConcepts(events []ConceptEvent) []ConceptStat {
	byConcept := make(map[string]*ConceptStat)
	for _, e := range events {
		st, ok := byConcept[e.Concept]
		if !ok {
			st = &ConceptStat{Concept: e.Concept}
			byConcept[e.Concept] = st
		}
		st.Attempts++
		if e.Correct {
			st.Correct++
		}
	}

	out := make([]ConceptStat, 0, len(byConcept))
	for _, st := range byConcept {
		st.SuccessRate = 100 * float64(st.Correct) / float64(st.Attempts)
		out = append(out, *st)
	}
	sortByRate(out)
	return out
}

// FlagDifficult returns the stats whose success rate is below threshold,
// worst first.
func FlagDifficult(stats []ConceptStat, threshold float64) []ConceptStat {
	var out []ConceptStat
	for _, st := range stats {
		if st.SuccessRate < threshold {
			out = append(out, st)
		}
	}
	sortByRate(out)
	return out
}

func sortByRate(stats []ConceptStat) {
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].SuccessRate != stats[j].SuccessRate {
			return stats[i].SuccessRate < stats[j].SuccessRate
		}
		return stats[i].Concept < stats[j].Concept
	})
}

// FilterChapters keeps the events of the given chapters. An empty filter
// keeps everything.
func FilterChapters(events []ConceptEvent, chapters []int) []ConceptEvent {
	if len(chapters) == 0 {
		return events
	}
	want := make(map[int]bool, len(chapters))
	for _, c := range chapters {
		want[c] = true
	}
	var out []ConceptEvent
	for _, e := range events {
		if want[e.Chapter] {
			out = append(out, e)
		}
	}
	return out
}
