// Package explain turns retrieved passages into a short explanation of a
// concept with a page citation.
package explain

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/abhisek/edurag/internal/index"
	"github.com/abhisek/edurag/internal/llm"
)

// NotFoundText is returned when no passage matches the concept.
const NotFoundText = "This concept was not found in the source text."

const (
	// ExcerptRunes bounds the raw excerpt of the fallback explanation.
	ExcerptRunes = 200

	// ContextRunes bounds the passage text sent for generation.
	ContextRunes = 800

	temperature = 0.7
	maxTokens   = 300
)

// Source tells how an explanation was produced.
type Source string

const (
	SourceNotFound  Source = "not-found"
	SourceFallback  Source = "fallback"
	SourceGenerated Source = "generated"
	SourceError     Source = "error"
)

// Explanation is the outcome of Explain.
type Explanation struct {
	Concept string `json:"concept"`
	Text    string `json:"text"`

	// Citation is the sorted, de-duplicated, comma-joined page list; empty
	// when nothing was found.
	Citation string `json:"citation"`
	Pages    []int  `json:"pages"`
	Source   Source `json:"source"`
}

// Composer writes explanations. A nil provider yields the deterministic
// excerpt fallback.
type Composer struct {
	provider llm.Provider
	logger   *zap.Logger
}

// NewComposer returns a Composer generating with p, which may be nil.
func NewComposer(p llm.Provider, logger *zap.Logger) *Composer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Composer{provider: p, logger: logger}
}

// Explain composes an explanation of concept from passages. It never fails:
// generation errors are reported in the returned text.
func (c *Composer) Explain(ctx context.Context, concept string, passages []index.Chunk) Explanation {
	if len(passages) == 0 {
		return Explanation{Concept: concept, Text: NotFoundText, Source: SourceNotFound}
	}

	pages := Pages(passages)
	e := Explanation{
		Concept:  concept,
		Citation: Citation(pages),
		Pages:    pages,
	}
	joined := joinPassages(passages)

	if c.provider == nil {
		e.Text = fmt.Sprintf("See pages: %s\nExcerpt: %s...", e.Citation, truncateRunes(joined, ExcerptRunes))
		e.Source = SourceFallback
		return e
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeExplanation)
	resp, err := c.provider.Generate(ctx, llm.SingleTurn(
		buildPrompt(concept, truncateRunes(joined, ContextRunes)), maxTokens, temperature))
	if err != nil {
		c.logger.Warn("explanation generation failed",
			zap.String("concept", concept), zap.Error(err))
		e.Text = fmt.Sprintf("Explanation unavailable (generation error: %v)", err)
		e.Source = SourceError
		return e
	}

	e.Text = strings.TrimSpace(resp.Text())
	e.Source = SourceGenerated
	return e
}

// Pages returns the sorted distinct pages of passages.
func Pages(passages []index.Chunk) []int {
	seen := make(map[int]bool)
	var pages []int
	for _, p := range passages {
		if !seen[p.Page] {
			seen[p.Page] = true
			pages = append(pages, p.Page)
		}
	}
	sort.Ints(pages)
	return pages
}

// Citation joins pages with ", ".
func Citation(pages []int) string {
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ", ")
}

func joinPassages(passages []index.Chunk) string {
	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}
	return strings.Join(texts, "\n")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
