// Package adaptive selects remediation targets from a student's weak
// concepts and drafts new multiple-choice items for them.
package adaptive

// FillerLabel pads the target list when fewer weak concepts are known.
const FillerLabel = "general review"

// MaxFocusConcepts caps how many weak concepts a single quiz focuses on.
const MaxFocusConcepts = 3

// SelectTargets returns exactly n target labels: the first MaxFocusConcepts
// weak concepts verbatim, padded with FillerLabel. n <= 0 yields an empty
// list; when n is below the number of focus concepts the list is cut to n.
func SelectTargets(weak []string, n int) []string {
	if n <= 0 {
		return []string{}
	}
	focus := weak
	if len(focus) > MaxFocusConcepts {
		focus = focus[:MaxFocusConcepts]
	}
	if len(focus) > n {
		focus = focus[:n]
	}

	out := make([]string, 0, n)
	out = append(out, focus...)
	for len(out) < n {
		out = append(out, FillerLabel)
	}
	return out
}

// distinct drops repeated labels, keeping first-seen order.
func distinct(labels []string) []string {
	seen := make(map[string]bool, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}
