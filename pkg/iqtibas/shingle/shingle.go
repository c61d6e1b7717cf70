// Package shingle implements n-gram fingerprinting of windows and the
// inverted-index candidate filter that prunes the quadratic window-pair
// space before alignment.
package shingle

import "github.com/cognicore/iqtibas/pkg/iqtibas/window"

// Key is an n-gram of lemma ids packed into a comparable string.
// Packing keeps the set/index maps allocation-light in the hot loop.
type Key string

func packKey(ids []uint32) Key {
	buf := make([]byte, 0, len(ids)*4)
	for _, id := range ids {
		buf = append(buf, byte(id), byte(id>>8), byte(id>>16), byte(id>>24))
	}
	return Key(buf)
}

// Set returns the distinct n-gram shingles of a lemma sequence. A
// sequence shorter than n yields an empty set.
func Set(lemmaIDs []uint32, n int) map[Key]struct{} {
	if n <= 0 || len(lemmaIDs) < n {
		return map[Key]struct{}{}
	}
	set := make(map[Key]struct{}, len(lemmaIDs)-n+1)
	for i := 0; i+n <= len(lemmaIDs); i++ {
		set[packKey(lemmaIDs[i:i+n])] = struct{}{}
	}
	return set
}

// Index is an inverted index from shingle to the windows containing it.
type Index struct {
	ngram    int
	postings map[Key][]int
}

// BuildIndex indexes the distinct shingles of each window.
func BuildIndex(windows []window.Window, ngram int) *Index {
	idx := &Index{ngram: ngram, postings: make(map[Key][]int)}
	for i := range windows {
		for key := range Set(windows[i].LemmaIDs, ngram) {
			idx.postings[key] = append(idx.postings[key], i)
		}
	}
	return idx
}

// UniqueShingles returns the number of distinct shingles indexed.
func (idx *Index) UniqueShingles() int { return len(idx.postings) }

// Pair is a candidate window pair (indices into the two window slices).
type Pair struct {
	A int
	B int
}

// FilterConfig controls candidate enumeration.
type FilterConfig struct {
	NgramSize         int
	MinSharedShingles int
	BruteForce        bool
}

// CandidatePairs enumerates window pairs worth aligning. A pair
// qualifies when the two windows share at least MinSharedShingles
// distinct shingles; a shingle repeating within a window still counts
// once. With BruteForce set, the full cartesian product is returned.
// Emission order is unspecified.
func CandidatePairs(windowsA, windowsB []window.Window, cfg FilterConfig) []Pair {
	if cfg.BruteForce {
		pairs := make([]Pair, 0, len(windowsA)*len(windowsB))
		for a := range windowsA {
			for b := range windowsB {
				pairs = append(pairs, Pair{A: a, B: b})
			}
		}
		return pairs
	}

	idx := BuildIndex(windowsB, cfg.NgramSize)

	var pairs []Pair
	for a := range windowsA {
		shared := make(map[int]int)
		for key := range Set(windowsA[a].LemmaIDs, cfg.NgramSize) {
			for _, b := range idx.postings[key] {
				shared[b]++
			}
		}
		for b, count := range shared {
			if count >= cfg.MinSharedShingles {
				pairs = append(pairs, Pair{A: a, B: b})
			}
		}
	}
	return pairs
}

// Jaccard computes the Jaccard similarity of two shingle sets. Two
// empty sets are defined as identical.
func Jaccard(a, b map[Key]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	inter := 0
	for key := range a {
		if _, ok := b[key]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0.0
	}
	return float64(inter) / float64(union)
}
