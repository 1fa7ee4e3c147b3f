package explain

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/abhisek/edurag/internal/index"
	"github.com/abhisek/edurag/internal/textnorm"
)

// DefaultTopK is the number of passages retrieved per explanation.
const DefaultTopK = 2

// Searcher finds passages for a query. *index.Retriever implements it.
type Searcher interface {
	Search(query string, topK int) []index.Chunk
}

// Cache stores finished explanations. Implementations log and swallow their
// own failures; a miss is indistinguishable from an error.
type Cache interface {
	GetExplanation(ctx context.Context, key string) (*Explanation, bool)
	SetExplanation(ctx context.Context, key string, e Explanation)
}

// Service retrieves passages for a concept and explains them, consulting an
// optional cache first.
type Service struct {
	searcher Searcher
	composer *Composer
	cache    Cache
	topK     int
	logger   *zap.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithCache enables caching of generated and fallback explanations.
func WithCache(c Cache) ServiceOption {
	return func(s *Service) { s.cache = c }
}

// WithTopK overrides DefaultTopK.
func WithTopK(k int) ServiceOption {
	return func(s *Service) {
		if k > 0 {
			s.topK = k
		}
	}
}

// NewService wires a searcher and a composer.
func NewService(searcher Searcher, composer *Composer, logger *zap.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		searcher: searcher,
		composer: composer,
		topK:     DefaultTopK,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CacheKey derives the cache key of concept. Spellings that normalize to
// the same text share a key.
func CacheKey(concept string) string {
	return "explain:" + strings.ToLower(strings.Join(strings.Fields(textnorm.Normalize(concept)), " "))
}

// Explain returns the explanation of concept.
func (s *Service) Explain(ctx context.Context, concept string) Explanation {
	key := CacheKey(concept)
	if s.cache != nil {
		if e, ok := s.cache.GetExplanation(ctx, key); ok {
			s.logger.Debug("explanation cache hit", zap.String("concept", concept))
			return *e
		}
	}

	e := s.composer.Explain(ctx, concept, s.searcher.Search(concept, s.topK))

	if s.cache != nil && (e.Source == SourceGenerated || e.Source == SourceFallback) {
		s.cache.SetExplanation(ctx, key, e)
	}
	return e
}

// ExplainAll explains each concept in order.
func (s *Service) ExplainAll(ctx context.Context, concepts []string) []Explanation {
	out := make([]Explanation, 0, len(concepts))
	for _, c := range concepts {
		out = append(out, s.Explain(ctx, c))
	}
	return out
}
