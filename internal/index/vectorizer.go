package index

import (
	"math"
	"sort"

	"github.com/abhisek/edurag/internal/textnorm"
)

// Vectorizer is a fitted TF-IDF vector space.
//
// Terms are the tokens produced by textnorm.Tokens. Weights follow the usual
// smoothed formulation: idf(t) = ln((1+n)/(1+df(t))) + 1, tf is the raw count
// and every row is scaled to unit length.
type Vectorizer struct {
	// Vocabulary maps a term to its column. Columns follow the sorted order
	// of the terms.
	Vocabulary map[string]int

	// IDF holds the inverse document frequency of each column.
	IDF []float64
}

// Fit learns the vocabulary and IDF weights from docs.
func Fit(docs []string) *Vectorizer {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, tok := range textnorm.Tokens(doc) {
			if !seen[tok] {
				seen[tok] = true
				df[tok]++
			}
		}
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	n := float64(len(docs))
	v := &Vectorizer{
		Vocabulary: make(map[string]int, len(terms)),
		IDF:        make([]float64, len(terms)),
	}
	for col, term := range terms {
		v.Vocabulary[term] = col
		v.IDF[col] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	return v
}

// Transform maps text to a unit-length TF-IDF vector. Terms outside the
// vocabulary are ignored, so text sharing no term with the corpus yields a
// zero vector.
func (v *Vectorizer) Transform(text string) SparseVector {
	counts := make(map[int]float64)
	for _, tok := range textnorm.Tokens(text) {
		if col, ok := v.Vocabulary[tok]; ok {
			counts[col]++
		}
	}
	for col, tf := range counts {
		counts[col] = tf * v.IDF[col]
	}
	return newSparse(counts).normalized()
}

// Size returns the number of terms in the vocabulary.
func (v *Vectorizer) Size() int {
	return len(v.IDF)
}
