package adaptive

import (
	"context"
	"errors"
	"math/rand/v2"
	"reflect"
	"strings"
	"testing"

	"github.com/abhisek/edurag/internal/corpus"
	"github.com/abhisek/edurag/internal/llm"
	"github.com/abhisek/edurag/internal/quiz"
)

const threeItems = "Here you go:\n```json\n[\n" +
	`{"question": "1/2 + 1/4 = ?", "option_a": "3/4", "option_b": "2/6", "option_c": "1/8", "option_d": "1", "correct_option": "a", "concept": "fractions"},` +
	`{"question": "0.5 = ?", "option_a": "1/5", "option_b": "1/2", "option_c": "5", "option_d": "50", "correct_option": "option_b", "concept": "decimals"},` +
	`{"question": "broken", "option_a": "x", "option_b": "y", "option_c": "z", "option_d": "w", "correct_option": "e", "concept": "fractions"}` +
	"\n]\n```"

func TestSelectTargets(t *testing.T) {
	tests := []struct {
		name string
		weak []string
		n    int
		want []string
	}{
		{"no weak concepts", nil, 3, []string{FillerLabel, FillerLabel, FillerLabel}},
		{"pads after focus", []string{"a", "b"}, 4, []string{"a", "b", FillerLabel, FillerLabel}},
		{"caps focus at three", []string{"a", "b", "c", "d", "e"}, 5, []string{"a", "b", "c", FillerLabel, FillerLabel}},
		{"cut to n", []string{"a", "b", "c"}, 2, []string{"a", "b"}},
		{"zero", []string{"a"}, 0, []string{}},
		{"negative", []string{"a"}, -1, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectTargets(tt.weak, tt.n)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SelectTargets(%v, %d) = %v, want %v", tt.weak, tt.n, got, tt.want)
			}
		})
	}
}

func TestExtractArray(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{`[1,2]`, `[1,2]`, true},
		{"```json\n[{\"a\": 1}]\n```", `[{"a": 1}]`, true},
		{`Sure! [1] and [2] done`, `[1] and [2]`, true},
		{`no array here`, ``, false},
		{`] backwards [`, ``, false},
		{``, ``, false},
	}
	for _, tt := range tests {
		got, ok := ExtractArray(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ExtractArray(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func FuzzExtractArray(f *testing.F) {
	f.Add(threeItems)
	f.Add("```json\n[]\n```")
	f.Add("][")
	f.Add("")
	f.Fuzz(func(t *testing.T, in string) {
		got, ok := ExtractArray(in)
		if !ok {
			if got != "" {
				t.Fatalf("not ok but returned %q", got)
			}
			return
		}
		if !strings.HasPrefix(got, "[") || !strings.HasSuffix(got, "]") {
			t.Fatalf("result %q is not bracketed", got)
		}
		stripped := strings.ReplaceAll(strings.ReplaceAll(in, "```json", ""), "```", "")
		if !strings.Contains(stripped, got) {
			t.Fatalf("result %q is not a span of the input", got)
		}
		// splitItems must never panic on what ExtractArray returns.
		_, _ = splitItems(in)
	})
}

func TestNewID(t *testing.T) {
	id := NewID(AdaptivePrefix)
	if !strings.HasPrefix(id, "AI_") || len(id) != len("AI_")+8 {
		t.Errorf("unexpected id %q", id)
	}
	if !IsGenerated(id) || !IsGenerated(NewID(MixedPrefix)) {
		t.Error("generated ids not recognised")
	}
	if IsGenerated("17") {
		t.Error("bank id recognised as generated")
	}
}

func TestAdaptiveQuiz_Generates(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText(threeItems))
	svc := NewService(NewLLMDrafter(mock, nil), quiz.Bank{})

	got := svc.AdaptiveQuiz(context.Background(), 2, []string{"fractions"}, 3)
	if len(got) != 2 {
		t.Fatalf("expected 2 valid items, got %d", len(got))
	}
	for _, q := range got {
		if !strings.HasPrefix(q.ID, AdaptivePrefix) {
			t.Errorf("id %q lacks adaptive prefix", q.ID)
		}
		if !q.HasKey() {
			t.Errorf("question %q has no answer key", q.ID)
		}
	}
	if got[1].CorrectOption != quiz.OptionB {
		t.Errorf("expected option_b to canonicalise to b, got %q", got[1].CorrectOption)
	}

	req := mock.Requests()[0]
	prompt := req.Messages[0].Content
	if !strings.Contains(prompt, "Focus on: fractions, general review.") {
		t.Errorf("prompt missing targets:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Chapter 2") {
		t.Errorf("prompt missing chapter:\n%s", prompt)
	}
	if req.System == "" {
		t.Error("expected a system prompt")
	}
}

func TestAdaptiveQuiz_BlankConceptIsLabelled(t *testing.T) {
	item := `[{"question": "2 + 2 = ?", "option_a": "3", "option_b": "4", "option_c": "5", "option_d": "22", "correct_option": "B", "concept": "  "}]`
	mock := llm.NewMockProvider(llm.MockText(item))
	svc := NewService(NewLLMDrafter(mock, nil), quiz.Bank{})

	got := svc.AdaptiveQuiz(context.Background(), 1, []string{"addition"}, 1)
	if len(got) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got))
	}
	if got[0].Concept != DefaultConcept {
		t.Errorf("concept = %q, want %q", got[0].Concept, DefaultConcept)
	}

	grade := quiz.Grade(got, map[string]string{got[0].ID: "a"})
	if len(grade.WeakConcepts) != 1 || grade.WeakConcepts[0] != DefaultConcept {
		t.Errorf("weak concepts = %v, want [%s]", grade.WeakConcepts, DefaultConcept)
	}
}

func TestAdaptiveQuiz_CapsAtRequestedCount(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText(threeItems))
	svc := NewService(NewLLMDrafter(mock, nil), quiz.Bank{})

	if got := svc.AdaptiveQuiz(context.Background(), 1, nil, 1); len(got) != 1 {
		t.Errorf("expected 1 item, got %d", len(got))
	}
}

func TestAdaptiveQuiz_DegradesToEmpty(t *testing.T) {
	tests := []struct {
		name string
		resp llm.MockResponse
	}{
		{"malformed output", llm.MockText("I cannot help with that.")},
		{"invalid json array", llm.MockText("[{\"question\": ]")},
		{"provider error", llm.MockResponse{Err: errors.New("boom")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(NewLLMDrafter(llm.NewMockProvider(tt.resp), nil), quiz.Bank{})
			got := svc.AdaptiveQuiz(context.Background(), 1, []string{"x"}, 5)
			if got == nil || len(got) != 0 {
				t.Errorf("expected empty non-nil quiz, got %v", got)
			}
		})
	}
}

func TestAdaptiveQuiz_NoDrafter(t *testing.T) {
	svc := NewService(nil, quiz.Bank{})
	if svc.Available() {
		t.Error("service without drafter reported available")
	}
	if got := svc.AdaptiveQuiz(context.Background(), 1, []string{"x"}, 5); len(got) != 0 {
		t.Errorf("expected empty quiz, got %d items", len(got))
	}
}

func writeBank(t *testing.T, dir string, chapter int, concepts ...string) {
	t.Helper()
	var qs []quiz.Question
	for i, c := range concepts {
		qs = append(qs, quiz.Question{
			ID:            string(rune('1' + i)),
			Text:          "q",
			Options:       [4]string{"a", "b", "c", "d"},
			Concept:       c,
			CorrectOption: quiz.OptionA,
		})
	}
	if err := (quiz.Bank{Dir: dir}).Write(chapter, qs); err != nil {
		t.Fatalf("write bank: %v", err)
	}
}

func TestMixedQuiz(t *testing.T) {
	dir := t.TempDir()
	writeBank(t, dir, 1, "fractions", "decimals")
	writeBank(t, dir, 2, "decimals", "angles")

	mock := llm.NewMockProvider(llm.MockText(threeItems))
	svc := NewService(NewLLMDrafter(mock, nil), quiz.Bank{Dir: dir}, WithRand(rand.New(rand.NewPCG(1, 2))))

	got := svc.MixedQuiz(context.Background(), []int{1, 2, 3}, 5)
	if len(got) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got))
	}
	for _, q := range got {
		if !strings.HasPrefix(q.ID, MixedPrefix) {
			t.Errorf("id %q lacks mixed prefix", q.ID)
		}
	}

	prompt := mock.Prompt(0)
	if !strings.Contains(prompt, "Chapters 1, 2, 3") {
		t.Errorf("prompt missing chapters:\n%s", prompt)
	}
	for _, c := range []string{"fractions", "decimals", "angles"} {
		if !strings.Contains(prompt, c) {
			t.Errorf("prompt missing concept %q", c)
		}
	}
	if strings.Count(prompt, "decimals") != 1 {
		t.Error("duplicate concept sent twice")
	}
}

func TestMixedQuiz_ChoosesAtMostN(t *testing.T) {
	dir := t.TempDir()
	writeBank(t, dir, 1, "c1", "c2", "c3", "c4", "c5", "c6")

	mock := llm.NewMockProvider(llm.MockText("[]"))
	svc := NewService(NewLLMDrafter(mock, nil), quiz.Bank{Dir: dir}, WithRand(rand.New(rand.NewPCG(7, 7))))
	svc.MixedQuiz(context.Background(), []int{1}, 2)

	prompt := mock.Prompt(0)
	line := prompt[strings.Index(prompt, "Target Concepts: ")+len("Target Concepts: "):]
	line = strings.TrimSuffix(line[:strings.Index(line, "\n")], ".")
	if chosen := strings.Split(line, ", "); len(chosen) != 2 {
		t.Errorf("expected 2 chosen concepts, got %v", chosen)
	}
}

func TestMixedQuiz_NoConcepts(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText(threeItems))
	svc := NewService(NewLLMDrafter(mock, nil), quiz.Bank{Dir: t.TempDir()})

	if got := svc.MixedQuiz(context.Background(), []int{1}, 5); len(got) != 0 {
		t.Errorf("expected empty quiz, got %d items", len(got))
	}
	if len(mock.Requests()) != 0 {
		t.Error("generation called without concepts")
	}
}

func TestBankGenerator_Generate(t *testing.T) {
	dir := t.TempDir()
	items := `[
		{"question": "2 + 2", "option_a": "3", "option_b": "4", "option_c": "5", "option_d": "6", "correct_option": "B", "concept": ""},
		{"question": "bad key", "option_a": "1", "option_b": "2", "option_c": "3", "option_d": "4", "correct_option": "x", "concept": "sums"},
		{"question": "3 x 3", "option_a": "6", "option_b": "9", "option_c": "12", "option_d": "3", "correct_option": "b", "concept": "products"}
	]`
	mock := llm.NewMockProvider(llm.MockText(items))
	gen := NewBankGenerator(NewLLMDrafter(mock, nil), quiz.Bank{Dir: dir}, nil)

	pages := []corpus.Page{
		{Number: 1, Text: "cover page"},
		{Number: 2, Text: "addition of whole numbers"},
		{Number: 3, Text: "multiplication tables"},
	}
	got, err := gen.Generate(context.Background(), 4, pages, 2, 3, 3)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(got))
	}

	prompt := mock.Prompt(0)
	if strings.Contains(prompt, "cover page") || !strings.Contains(prompt, "multiplication tables") {
		t.Errorf("prompt has wrong page range:\n%s", prompt)
	}

	loaded, err := (quiz.Bank{Dir: dir}).Load(4)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 stored questions, got %d", len(loaded))
	}
	if loaded[0].ID != "1" || loaded[0].Concept != DefaultConcept || loaded[0].CorrectOption != quiz.OptionB {
		t.Errorf("unexpected first question: %+v", loaded[0])
	}
	if loaded[1].ID != "2" || loaded[1].Concept != "products" {
		t.Errorf("unexpected second question: %+v", loaded[1])
	}
}

func TestBankGenerator_Errors(t *testing.T) {
	pages := []corpus.Page{{Number: 1, Text: "text"}}

	gen := NewBankGenerator(NewLLMDrafter(llm.NewMockProvider(), nil), quiz.Bank{Dir: t.TempDir()}, nil)
	if _, err := gen.Generate(context.Background(), 1, pages, 5, 9, 3); !errors.Is(err, ErrNoPages) {
		t.Errorf("expected ErrNoPages, got %v", err)
	}

	gen = NewBankGenerator(NewLLMDrafter(llm.NewMockProvider(llm.MockText("[]")), nil), quiz.Bank{Dir: t.TempDir()}, nil)
	if _, err := gen.Generate(context.Background(), 1, pages, 1, 1, 3); !errors.Is(err, ErrNoValidItems) {
		t.Errorf("expected ErrNoValidItems, got %v", err)
	}

	gen = NewBankGenerator(nil, quiz.Bank{Dir: t.TempDir()}, nil)
	if _, err := gen.Generate(context.Background(), 1, pages, 1, 1, 3); !errors.Is(err, ErrNoGenerator) {
		t.Errorf("expected ErrNoGenerator, got %v", err)
	}
}
