package quiz

import "strings"

// Detail is the grading outcome of one question.
type Detail struct {
	QuestionID string `json:"question_id"`
	Question   string `json:"question"`
	Concept    string `json:"concept"`

	// Given is the submitted answer as received; empty when unanswered.
	Given string `json:"given"`

	// Expected is the text of the correct option.
	Expected string `json:"expected"`

	Correct bool `json:"correct"`
}

// GradeSummary is the result of grading one attempt.
type GradeSummary struct {
	Total   int `json:"total"`
	Correct int `json:"correct"`

	// Accuracy is 100*Correct/Total, unrounded.
	Accuracy float64 `json:"accuracy"`

	// WeakConcepts lists each missed concept once, in order of first miss.
	WeakConcepts []string `json:"weak_concepts"`

	Details []Detail `json:"details"`

	// Gradeable is false when no question carried an answer key, in which
	// case every other field is zero.
	Gradeable bool `json:"gradeable"`
}

// Passed reports whether the attempt reached passMark percent.
func (g GradeSummary) Passed(passMark float64) bool {
	return g.Gradeable && g.Total > 0 && g.Accuracy >= passMark
}

// Grade scores answers, keyed by question ID, against questions. An answer
// matches when it names the correct option's letter (in any of the forms
// ParseOption accepts) or equals the correct option's text. Missing answers
// are wrong, and so is any answer to a question without a key. A non-empty
// set where no question has a key is ungradeable.
func Grade(questions []Question, answers map[string]string) GradeSummary {
	keyed := len(questions) == 0
	for _, q := range questions {
		if q.HasKey() {
			keyed = true
			break
		}
	}
	if !keyed {
		return GradeSummary{}
	}

	s := GradeSummary{
		Total:     len(questions),
		Gradeable: true,
	}
	seen := make(map[string]bool)

	for _, q := range questions {
		given := strings.TrimSpace(answers[q.ID])
		ok := matches(q, given)

		if ok {
			s.Correct++
		} else if !seen[q.Concept] {
			seen[q.Concept] = true
			s.WeakConcepts = append(s.WeakConcepts, q.Concept)
		}

		s.Details = append(s.Details, Detail{
			QuestionID: q.ID,
			Question:   q.Text,
			Concept:    q.Concept,
			Given:      given,
			Expected:   q.Choice(q.CorrectOption),
			Correct:    ok,
		})
	}

	if s.Total > 0 {
		s.Accuracy = 100 * float64(s.Correct) / float64(s.Total)
	}
	return s
}

func matches(q Question, given string) bool {
	if given == "" {
		return false
	}
	if o, ok := ParseOption(given); ok && o == q.CorrectOption {
		return true
	}
	expected := strings.TrimSpace(q.Choice(q.CorrectOption))
	return expected != "" && given == expected
}
