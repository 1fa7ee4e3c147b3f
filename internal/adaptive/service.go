package adaptive

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/edurag/internal/llm"
	"github.com/abhisek/edurag/internal/quiz"
)

// ID prefixes of generated items. Bank items never carry them.
const (
	AdaptivePrefix = "AI_"
	MixedPrefix    = "MIX_"
)

// DefaultLanguage is the language generated items are written in.
const DefaultLanguage = "Arabic"

const quizTemperature = 0.7

// NewID returns prefix followed by 8 random hex digits.
func NewID(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// IsGenerated reports whether id belongs to a generated item.
func IsGenerated(id string) bool {
	return strings.HasPrefix(id, AdaptivePrefix) || strings.HasPrefix(id, MixedPrefix)
}

// Service drafts adaptive and mixed quizzes. A nil Drafter makes every
// quiz empty.
type Service struct {
	drafter  Drafter
	bank     quiz.Bank
	rng      *rand.Rand
	logger   *zap.Logger
	language string
}

// Option configures a Service.
type Option func(*Service)

// WithRand sets the source used to choose mixed-quiz concepts.
func WithRand(r *rand.Rand) Option {
	return func(s *Service) { s.rng = r }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithLanguage sets the language requested for generated items.
func WithLanguage(lang string) Option {
	return func(s *Service) {
		if lang != "" {
			s.language = lang
		}
	}
}

// NewService returns a Service drafting with d and reading concepts from
// bank.
func NewService(d Drafter, bank quiz.Bank, opts ...Option) *Service {
	s := &Service{drafter: d, bank: bank, language: DefaultLanguage}
	for _, o := range opts {
		o(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Available reports whether generation is configured.
func (s *Service) Available() bool {
	return s.drafter != nil
}

// AdaptiveQuiz drafts up to n items for chapter focused on the student's
// weak concepts. Every failure yields an empty quiz.
func (s *Service) AdaptiveQuiz(ctx context.Context, chapter int, weak []string, n int) []quiz.Question {
	if s.drafter == nil || n <= 0 {
		return []quiz.Question{}
	}
	targets := SelectTargets(weak, n)

	drafts, err := s.drafter.Draft(ctx, DraftRequest{
		Purpose:     llm.PurposeAdaptiveQuiz,
		Prompt:      adaptivePrompt(s.language, chapter, n, distinct(targets)),
		Count:       n,
		Temperature: quizTemperature,
	})
	if err != nil {
		s.logger.Warn("adaptive quiz generation failed", zap.Int("chapter", chapter), zap.Error(err))
		return []quiz.Question{}
	}
	return toQuestions(drafts, AdaptivePrefix, n)
}

// MixedQuiz drafts up to n items over the distinct concepts found in the
// banks of chapters. Chapters without a bank are skipped; no concepts at all
// yields an empty quiz.
func (s *Service) MixedQuiz(ctx context.Context, chapters []int, n int) []quiz.Question {
	if s.drafter == nil || n <= 0 {
		return []quiz.Question{}
	}

	var all []string
	for _, ch := range chapters {
		concepts, err := s.bank.LoadConcepts(ch)
		if err != nil {
			if !errors.Is(err, quiz.ErrBankNotFound) {
				s.logger.Warn("failed to read bank concepts", zap.Int("chapter", ch), zap.Error(err))
			}
			continue
		}
		all = append(all, concepts...)
	}
	all = distinct(all)
	if len(all) == 0 {
		return []quiz.Question{}
	}

	chosen := s.choose(all, n)
	drafts, err := s.drafter.Draft(ctx, DraftRequest{
		Purpose:     llm.PurposeMixedQuiz,
		Prompt:      mixedPrompt(s.language, chapters, n, chosen),
		Count:       n,
		Temperature: quizTemperature,
	})
	if err != nil {
		s.logger.Warn("mixed quiz generation failed", zap.Ints("chapters", chapters), zap.Error(err))
		return []quiz.Question{}
	}
	return toQuestions(drafts, MixedPrefix, n)
}

// choose picks min(n, len(concepts)) concepts without replacement.
func (s *Service) choose(concepts []string, n int) []string {
	if n > len(concepts) {
		n = len(concepts)
	}
	perm := rand.Perm
	if s.rng != nil {
		perm = s.rng.Perm
	}
	out := make([]string, 0, n)
	for _, i := range perm(len(concepts))[:n] {
		out = append(out, concepts[i])
	}
	return out
}

func toQuestions(drafts []QuestionDraft, prefix string, limit int) []quiz.Question {
	if len(drafts) > limit {
		drafts = drafts[:limit]
	}
	out := make([]quiz.Question, len(drafts))
	for i, d := range drafts {
		out[i] = d.ToQuestion(NewID(prefix))
	}
	return out
}
