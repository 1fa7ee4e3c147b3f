package index

import (
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/edurag/internal/textnorm"
)

// DefaultMinScore is the similarity a chunk must exceed to be returned.
const DefaultMinScore = 0.01

// Observer receives one callback per search. The metrics package provides
// the production implementation.
type Observer interface {
	ObserveSearch(elapsed time.Duration, hits int)
}

// Retriever answers similarity queries against a persisted artifact. The
// artifact is loaded on first use and kept for the life of the Retriever.
type Retriever struct {
	dir      string
	minScore float64
	logger   *zap.Logger
	observer Observer

	once     sync.Once
	artifact *Artifact
	manifest *Manifest
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithLogger sets the logger used for load diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(r *Retriever) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMinScore overrides DefaultMinScore.
func WithMinScore(s float64) Option {
	return func(r *Retriever) { r.minScore = s }
}

// WithObserver registers a search observer.
func WithObserver(o Observer) Option {
	return func(r *Retriever) { r.observer = o }
}

// NewRetriever returns a Retriever reading the artifact stored in dir.
func NewRetriever(dir string, opts ...Option) *Retriever {
	r := &Retriever{
		dir:      dir,
		minScore: DefaultMinScore,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewRetrieverFromArtifact returns a Retriever over an in-memory artifact.
func NewRetrieverFromArtifact(a *Artifact, opts ...Option) *Retriever {
	r := NewRetriever("", opts...)
	r.once.Do(func() { r.artifact = a })
	return r
}

func (r *Retriever) load() *Artifact {
	r.once.Do(func() {
		a, m, err := Load(r.dir)
		if err != nil {
			if errors.Is(err, ErrArtifactAbsent) {
				r.logger.Warn("index artifact unavailable, searches will be empty",
					zap.String("dir", r.dir), zap.Error(err))
			} else {
				r.logger.Error("failed to load index artifact",
					zap.String("dir", r.dir), zap.Error(err))
			}
			return
		}
		r.artifact, r.manifest = a, m
		r.logger.Debug("index artifact loaded",
			zap.String("dir", r.dir),
			zap.Int("chunks", len(a.Chunks)),
			zap.Int("vocabulary", a.Vectorizer.Size()))
	})
	return r.artifact
}

// Available reports whether an artifact could be loaded.
func (r *Retriever) Available() bool {
	return r.load() != nil
}

// Search returns at most topK chunks most similar to query, best first.
// It returns nil when the artifact is absent, the query shares no term
// with the corpus or topK is not positive.
func (r *Retriever) Search(query string, topK int) []Chunk {
	matches := r.SearchScored(query, topK)
	if len(matches) == 0 {
		return nil
	}
	out := make([]Chunk, len(matches))
	for i, m := range matches {
		out[i] = m.Chunk
	}
	return out
}

// SearchScored is Search with similarity scores attached.
func (r *Retriever) SearchScored(query string, topK int) []Match {
	start := time.Now()
	matches := r.search(query, topK)
	if r.observer != nil {
		r.observer.ObserveSearch(time.Since(start), len(matches))
	}
	return matches
}

func (r *Retriever) search(query string, topK int) []Match {
	if topK <= 0 {
		return nil
	}
	a := r.load()
	if a == nil {
		return nil
	}

	q := a.Vectorizer.Transform(textnorm.Normalize(textnorm.CleanQuery(query)))
	if q.IsZero() {
		return nil
	}

	var matches []Match
	for i, row := range a.Matrix.Rows {
		score := row.Dot(q)
		if score > r.minScore {
			matches = append(matches, Match{Chunk: a.Chunks[i], Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}

// Stats describes the loaded artifact.
type Stats struct {
	Chunks     int
	Vocabulary int
	Pages      int
	Manifest   *Manifest
}

// Stats returns artifact statistics, or false when no artifact is loaded.
func (r *Retriever) Stats() (Stats, bool) {
	a := r.load()
	if a == nil {
		return Stats{}, false
	}
	pages := make(map[int]struct{})
	for _, c := range a.Chunks {
		pages[c.Page] = struct{}{}
	}
	return Stats{
		Chunks:     len(a.Chunks),
		Vocabulary: a.Vectorizer.Size(),
		Pages:      len(pages),
		Manifest:   r.manifest,
	}, true
}
