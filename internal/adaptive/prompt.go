package adaptive

import (
	"fmt"
	"strconv"
	"strings"
)

const itemFields = `Fields: "question", "option_a", "option_b", "option_c", "option_d", "correct_option" (e.g. "option_a"), "concept".`

func adaptivePrompt(language string, chapter, n int, targets []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create %d simple math MCQs (%s) for Chapter %d.\n", n, language, chapter)
	fmt.Fprintf(&b, "Focus on: %s.\n", strings.Join(targets, ", "))
	b.WriteString("OUTPUT FORMAT: JSON Array ONLY.\n")
	b.WriteString(itemFields)
	return b.String()
}

func mixedPrompt(language string, chapters []int, n int, concepts []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a mixed math quiz of %d questions covering Chapters %s.\n", n, joinInts(chapters))
	fmt.Fprintf(&b, "Target Concepts: %s.\n", strings.Join(concepts, ", "))
	b.WriteString("OUTPUT: JSON Array ONLY.\n")
	b.WriteString(itemFields)
	fmt.Fprintf(&b, "\nLanguage: %s.", language)
	return b.String()
}

func bankPrompt(language, text string, chapter, from, to, n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an experienced math teacher.\n\n")
	fmt.Fprintf(&b, "Below is part of the math textbook for chapter %d, pages %d to %d.\n\n", chapter, from, to)
	b.WriteString("---------------- TEXT START ----------------\n")
	b.WriteString(text)
	b.WriteString("\n---------------- TEXT END ----------------\n\n")
	fmt.Fprintf(&b, "Write %d multiple-choice questions in %s covering as many concepts of this text as possible.\n", n, language)
	b.WriteString(`Return a JSON array of objects with the fields "question", "option_a", "option_b", "option_c", "option_d", "correct_option" (one of "a", "b", "c", "d") and "concept" (a short concept name).` + "\n")
	b.WriteString("- Use only the content of the text.\n")
	b.WriteString("- Return valid JSON only, with no commentary.")
	return b.String()
}

func joinInts(xs []int) string {
	s := make([]string, len(xs))
	for i, x := range xs {
		s[i] = strconv.Itoa(x)
	}
	return strings.Join(s, ", ")
}
