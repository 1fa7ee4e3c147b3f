package index

import (
	"math"
	"sort"
)

// SparseVector holds the non-zero entries of a row, ordered by column.
type SparseVector struct {
	Indices []int
	Values  []float64
}

// Dot returns the dot product of two column-ordered sparse vectors.
func (v SparseVector) Dot(o SparseVector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v.Indices) && j < len(o.Indices) {
		switch {
		case v.Indices[i] == o.Indices[j]:
			sum += v.Values[i] * o.Values[j]
			i++
			j++
		case v.Indices[i] < o.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// Norm returns the Euclidean length of v.
func (v SparseVector) Norm() float64 {
	var sum float64
	for _, x := range v.Values {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// IsZero reports whether v has no non-zero entries.
func (v SparseVector) IsZero() bool {
	return len(v.Indices) == 0
}

// normalized scales v to unit length. Zero vectors are returned unchanged.
func (v SparseVector) normalized() SparseVector {
	n := v.Norm()
	if n == 0 {
		return v
	}
	out := SparseVector{
		Indices: v.Indices,
		Values:  make([]float64, len(v.Values)),
	}
	for i, x := range v.Values {
		out.Values[i] = x / n
	}
	return out
}

// newSparse builds a column-ordered vector from a column -> value map.
func newSparse(m map[int]float64) SparseVector {
	idx := make([]int, 0, len(m))
	for col := range m {
		idx = append(idx, col)
	}
	sort.Ints(idx)

	vals := make([]float64, len(idx))
	for i, col := range idx {
		vals[i] = m[col]
	}
	return SparseVector{Indices: idx, Values: vals}
}

// Matrix is a row-major sparse document-term matrix. Row i belongs to
// chunk i of the artifact.
type Matrix struct {
	Rows []SparseVector
	Cols int
}
