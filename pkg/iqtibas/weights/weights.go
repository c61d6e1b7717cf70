// Package weights computes per-book document-internal IDF weights.
// Weighting penalizes ultra-frequent function words during alignment
// without needing a corpus-global idf table.
package weights

import "math"

// Weight bounds and the default for lemmas absent from a book.
const (
	Min     = 0.5
	Max     = 3.0
	Default = 1.0
)

// Vector is a dense weight table indexed by lemma id.
type Vector []float64

// Compute builds the weight vector for one book from its flat lemma
// sequence. size is the vector length, normally the joint max lemma id
// across both books plus one, so the two books' vectors are directly
// comparable. For each lemma with df occurrences in a stream of N
// tokens, w = clamp(ln(N/df), Min, Max); lemmas not in the book get
// Default.
func Compute(lemmas []uint32, size int) Vector {
	v := make(Vector, size)
	for i := range v {
		v[i] = Default
	}
	if len(lemmas) == 0 {
		return v
	}

	df := make(map[uint32]int, len(lemmas)/4)
	for _, id := range lemmas {
		df[id]++
	}

	n := float64(len(lemmas))
	for id, count := range df {
		if int(id) >= size {
			continue
		}
		w := math.Log(n / float64(count))
		if w < Min {
			w = Min
		} else if w > Max {
			w = Max
		}
		v[id] = w
	}
	return v
}

// Get returns the weight for a lemma id, Default for unknown ids or
// non-positive entries.
func (v Vector) Get(id uint32) float64 {
	if int(id) < len(v) && v[id] > 0 {
		return v[id]
	}
	return Default
}

// JointSize returns the vector length needed to cover every lemma id
// in both sequences.
func JointSize(lemmasA, lemmasB []uint32) int {
	var max uint32
	for _, id := range lemmasA {
		if id > max {
			max = id
		}
	}
	for _, id := range lemmasB {
		if id > max {
			max = id
		}
	}
	return int(max) + 1
}
