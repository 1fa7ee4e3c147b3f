package adaptive

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abhisek/edurag/internal/llm"
	"github.com/abhisek/edurag/internal/quiz"
)

// DefaultConcept labels bank items generated without a concept.
const DefaultConcept = "general concept"

// QuestionDraft is one generated item as the model returns it.
type QuestionDraft struct {
	Question      string `json:"question"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c"`
	OptionD       string `json:"option_d"`
	CorrectOption string `json:"correct_option"`
	Concept       string `json:"concept"`
}

// ItemSchema describes a single generated item.
var ItemSchema = &llm.Schema{
	Name:        "mcq-item",
	Description: "A four-option multiple-choice question with its answer key and concept",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question":       map[string]any{"type": "string", "minLength": 1},
			"option_a":       map[string]any{"type": "string"},
			"option_b":       map[string]any{"type": "string"},
			"option_c":       map[string]any{"type": "string"},
			"option_d":       map[string]any{"type": "string"},
			"correct_option": map[string]any{"type": "string"},
			"concept":        map[string]any{"type": "string"},
		},
		"required": []any{"question", "option_a", "option_b", "option_c", "option_d", "correct_option"},
	},
}

// DraftError describes why a draft was rejected.
type DraftError struct {
	Check   string
	Message string
}

func (e *DraftError) Error() string {
	return fmt.Sprintf("draft check %q: %s", e.Check, e.Message)
}

// parseDraft validates one raw item against ItemSchema and decodes it.
func parseDraft(raw json.RawMessage) (QuestionDraft, error) {
	var d QuestionDraft
	if err := llm.ValidateJSON(ItemSchema, raw); err != nil {
		return d, &DraftError{Check: "schema", Message: err.Error()}
	}
	if err := json.Unmarshal(raw, &d); err != nil {
		return d, &DraftError{Check: "decode", Message: err.Error()}
	}
	if err := d.validate(); err != nil {
		return d, err
	}
	return d, nil
}

// validate checks the fields the schema cannot express.
func (d QuestionDraft) validate() *DraftError {
	if strings.TrimSpace(d.Question) == "" {
		return &DraftError{Check: "structural", Message: "question is empty"}
	}
	for i, o := range d.options() {
		if strings.TrimSpace(o) == "" {
			return &DraftError{Check: "structural", Message: fmt.Sprintf("option_%s is empty", quiz.AllOptions[i])}
		}
	}
	if _, ok := quiz.ParseOption(d.CorrectOption); !ok {
		return &DraftError{Check: "structural", Message: fmt.Sprintf("correct_option %q is not one of a..d", d.CorrectOption)}
	}
	return nil
}

func (d QuestionDraft) options() [4]string {
	return [4]string{d.OptionA, d.OptionB, d.OptionC, d.OptionD}
}

// ToQuestion converts d into a quiz question with the given ID. The answer key
// is canonicalised to a..d and a missing concept becomes DefaultConcept.
func (d QuestionDraft) ToQuestion(id string) quiz.Question {
	o, _ := quiz.ParseOption(d.CorrectOption)
	opts := d.options()
	for i := range opts {
		opts[i] = strings.TrimSpace(opts[i])
	}
	concept := strings.TrimSpace(d.Concept)
	if concept == "" {
		concept = DefaultConcept
	}
	return quiz.Question{
		ID:            id,
		Text:          strings.TrimSpace(d.Question),
		Options:       opts,
		Concept:       concept,
		CorrectOption: o,
	}
}
