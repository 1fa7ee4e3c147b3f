package adaptive

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/abhisek/edurag/internal/corpus"
	"github.com/abhisek/edurag/internal/llm"
	"github.com/abhisek/edurag/internal/quiz"
)

// ErrNoPages is returned when the requested page range holds no text.
var ErrNoPages = errors.New("adaptive: no pages in range")

// ErrNoGenerator is returned when no generation provider is configured.
var ErrNoGenerator = errors.New("adaptive: no generation provider configured")

// ErrNoValidItems is returned when generation produced nothing worth saving.
var ErrNoValidItems = errors.New("adaptive: no valid items generated")

const bankTemperature = 0.4

// BankGenerator drafts a chapter question bank from the source pages and
// writes it to disk.
type BankGenerator struct {
	drafter  Drafter
	bank     quiz.Bank
	logger   *zap.Logger
	language string
}

// NewBankGenerator returns a BankGenerator writing into bank.
func NewBankGenerator(d Drafter, bank quiz.Bank, logger *zap.Logger) *BankGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BankGenerator{drafter: d, bank: bank, logger: logger, language: DefaultLanguage}
}

// PageText joins the text of pages numbered from..to inclusive.
func PageText(pages []corpus.Page, from, to int) string {
	var parts []string
	for _, p := range pages {
		if p.Number >= from && p.Number <= to {
			parts = append(parts, p.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// Generate drafts n questions for chapter from pages from..to and writes
// the bank. Items are numbered from 1 in the order they were returned.
func (g *BankGenerator) Generate(ctx context.Context, chapter int, pages []corpus.Page, from, to, n int) ([]quiz.Question, error) {
	if g.drafter == nil {
		return nil, ErrNoGenerator
	}
	text := PageText(pages, from, to)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %d-%d", ErrNoPages, from, to)
	}

	drafts, err := g.drafter.Draft(ctx, DraftRequest{
		Purpose:     llm.PurposeBankGen,
		Prompt:      bankPrompt(g.language, text, chapter, from, to, n),
		Count:       n,
		Temperature: bankTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generate bank for chapter %d: %w", chapter, err)
	}
	if len(drafts) == 0 {
		return nil, ErrNoValidItems
	}

	questions := make([]quiz.Question, len(drafts))
	for i, d := range drafts {
		questions[i] = d.ToQuestion(strconv.Itoa(i + 1))
	}

	if err := g.bank.Write(chapter, questions); err != nil {
		return nil, fmt.Errorf("write bank for chapter %d: %w", chapter, err)
	}
	g.logger.Info("question bank written",
		zap.Int("chapter", chapter),
		zap.Int("questions", len(questions)),
		zap.String("path", g.bank.QuestionsPath(chapter)))
	return questions, nil
}
