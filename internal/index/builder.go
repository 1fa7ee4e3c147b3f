// Package index builds, persists and queries the TF-IDF passage index.
package index

import (
	"errors"
)

// ErrEmptyCorpus is returned by Build when there is nothing to index,
// typically because the source document had no extractable text.
var ErrEmptyCorpus = errors.New("index: corpus has no chunks")

// Artifact is a fitted index: the vector space, the document-term matrix and
// the chunks the matrix rows describe.
type Artifact struct {
	Vectorizer *Vectorizer
	Matrix     Matrix
	Chunks     []Chunk
}

// Build fits a TF-IDF space over the normalized text of chunks, one document
// per chunk.
func Build(chunks []Chunk) (*Artifact, error) {
	if len(chunks) == 0 {
		return nil, ErrEmptyCorpus
	}

	docs := make([]string, len(chunks))
	for i, c := range chunks {
		docs[i] = c.NormalizedText
	}

	vec := Fit(docs)
	rows := make([]SparseVector, len(docs))
	for i, doc := range docs {
		rows[i] = vec.Transform(doc)
	}

	owned := make([]Chunk, len(chunks))
	copy(owned, chunks)

	return &Artifact{
		Vectorizer: vec,
		Matrix:     Matrix{Rows: rows, Cols: vec.Size()},
		Chunks:     owned,
	}, nil
}

// valid reports whether the row/chunk alignment holds.
func (a *Artifact) valid() bool {
	return a != nil && a.Vectorizer != nil && len(a.Matrix.Rows) == len(a.Chunks)
}
