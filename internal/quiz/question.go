// Package quiz holds the multiple-choice question model, the attempt grader
// and the per-chapter question bank.
package quiz

import (
	"strings"
)

// Option is the letter key of one of the four choices.
type Option string

const (
	OptionA Option = "a"
	OptionB Option = "b"
	OptionC Option = "c"
	OptionD Option = "d"
)

// AllOptions lists the option keys in display order.
var AllOptions = [4]Option{OptionA, OptionB, OptionC, OptionD}

// ParseOption accepts "a", "A", "option_a" and "Option A" style keys and
// returns the canonical letter.
func ParseOption(s string) (Option, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "option")
	s = strings.TrimLeft(s, "_ ")
	switch o := Option(s); o {
	case OptionA, OptionB, OptionC, OptionD:
		return o, true
	}
	return "", false
}

// Index returns the zero-based position of o, or -1 for an invalid key.
func (o Option) Index() int {
	for i, k := range AllOptions {
		if k == o {
			return i
		}
	}
	return -1
}

// Question is a four-option multiple-choice item.
type Question struct {
	ID      string    `json:"id"`
	Text    string    `json:"question"`
	Options [4]string `json:"options"`
	Concept string    `json:"concept"`

	// CorrectOption is empty when the answer key is withheld or unknown.
	CorrectOption Option `json:"correct_option,omitempty"`
}

// Choice returns the text of option o.
func (q Question) Choice(o Option) string {
	if i := o.Index(); i >= 0 {
		return q.Options[i]
	}
	return ""
}

// HasKey reports whether q carries a valid answer key.
func (q Question) HasKey() bool {
	return q.CorrectOption.Index() >= 0
}

// Public returns a copy of q with the answer key removed.
func (q Question) Public() Question {
	q.CorrectOption = ""
	return q
}

// Concepts returns the distinct concepts of questions in first-seen order.
func Concepts(questions []Question) []string {
	seen := make(map[string]bool)
	var out []string
	for _, q := range questions {
		if q.Concept == "" || seen[q.Concept] {
			continue
		}
		seen[q.Concept] = true
		out = append(out, q.Concept)
	}
	return out
}

// PublicAll strips the answer key from every question.
func PublicAll(questions []Question) []Question {
	out := make([]Question, len(questions))
	for i, q := range questions {
		out[i] = q.Public()
	}
	return out
}
