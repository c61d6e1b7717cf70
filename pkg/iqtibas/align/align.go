// Package align implements Smith-Waterman local alignment over lemma
// and root id sequences. This is the pipeline's hot path: the DP matrix
// is a single contiguous int32 buffer and all scoring stays on
// integers.
package align

import (
	"fmt"

	"github.com/cognicore/iqtibas/pkg/iqtibas/weights"
)

// Mode selects how a diagonal pair is scored.
type Mode int

const (
	// ModeLemma scores lemma equality only.
	ModeLemma Mode = iota
	// ModeRoot scores non-zero root equality, ignoring lemmas.
	ModeRoot
	// ModeCombined scores lemma equality fully and root-only equality
	// partially.
	ModeCombined
)

func (m Mode) String() string {
	switch m {
	case ModeLemma:
		return "lemma"
	case ModeRoot:
		return "root"
	case ModeCombined:
		return "combined"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// MarshalText implements encoding.TextMarshaler so modes serialize as
// their names in JSON and YAML.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMode parses a mode name as used by the CLI and config files.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "lemma":
		return ModeLemma, nil
	case "root":
		return ModeRoot, nil
	case "combined":
		return ModeCombined, nil
	}
	return ModeLemma, fmt.Errorf("unknown match mode %q", s)
}

// Params controls alignment scoring and acceptance.
type Params struct {
	Mode            Mode
	LemmaScore      int32
	RootScore       int32
	MismatchPenalty int32
	GapPenalty      int32
	MinLength       int
	MinSimilarity   float64
}

// Pair is a diagonal step in the alignment: positions (A, B) were
// matched against each other.
type Pair struct {
	A int
	B int
}

// Alignment is the accepted result of a local alignment. End positions
// are exclusive. len(Pairs) == LemmaMatches + Substitutions +
// RootOnlyMatches, and the aligned length is len(Pairs) + Gaps.
type Alignment struct {
	StartA, EndA    int
	StartB, EndB    int
	Pairs           []Pair
	LemmaMatches    int
	Substitutions   int
	RootOnlyMatches int
	Gaps            int
	Score           int32
	MatchWeightSum  float64
}

// AlignedLength returns the total number of alignment operations.
func (a *Alignment) AlignedLength() int { return len(a.Pairs) + a.Gaps }

// Align finds the best local alignment of two sequences, or nil when no
// alignment meets the acceptance gates. It never fails: empty inputs
// and non-aligning pairs both return nil.
func Align(lemmasA, lemmasB, rootsA, rootsB []uint32, p Params) *Alignment {
	n, m := len(lemmasA), len(lemmasB)
	if n == 0 || m == 0 {
		return nil
	}

	// H[i][j] lives at h[i*width+j].
	width := m + 1
	h := make([]int32, (n+1)*width)

	var maxScore int32
	maxI, maxJ := 0, 0

	for i := 1; i <= n; i++ {
		lemmaA := lemmasA[i-1]
		rootA := rootAt(rootsA, i-1)
		row := i * width
		prev := (i - 1) * width

		for j := 1; j <= m; j++ {
			s := matchScore(lemmaA, lemmasB[j-1], rootA, rootAt(rootsB, j-1), p)

			score := h[prev+j-1] + s
			if up := h[prev+j] + p.GapPenalty; up > score {
				score = up
			}
			if left := h[row+j-1] + p.GapPenalty; left > score {
				score = left
			}
			if score < 0 {
				score = 0
			}
			h[row+j] = score

			if score > maxScore {
				maxScore = score
				maxI, maxJ = i, j
			}
		}
	}

	if maxScore < minScoreThreshold(p) {
		return nil
	}

	a := &Alignment{Score: maxScore}
	i, j := maxI, maxJ
	for i > 0 && j > 0 && h[i*width+j] > 0 {
		current := h[i*width+j]
		lemmaA, lemmaB := lemmasA[i-1], lemmasB[j-1]
		rootA, rootB := rootAt(rootsA, i-1), rootAt(rootsB, j-1)
		s := matchScore(lemmaA, lemmaB, rootA, rootB, p)

		switch {
		case current == h[(i-1)*width+j-1]+s:
			a.Pairs = append(a.Pairs, Pair{A: i - 1, B: j - 1})
			classify(a, lemmaA, lemmaB, rootA, rootB)
			i--
			j--
		case current == h[(i-1)*width+j]+p.GapPenalty:
			a.Gaps++
			i--
		default:
			a.Gaps++
			j--
		}
	}

	return finish(a, lemmasA, lemmasB, rootsA, rootsB, p)
}

// AlignWeighted is Align with document-internal IDF weighting: a lemma
// match scores LemmaScore scaled by min(wA, wB), truncated back to an
// integer so the DP stays on int32. Root-only matches are not weighted.
// MatchWeightSum accumulates min(wA, wB) over lemma-equal pairs.
func AlignWeighted(lemmasA, lemmasB, rootsA, rootsB []uint32, wA, wB weights.Vector, p Params) *Alignment {
	n, m := len(lemmasA), len(lemmasB)
	if n == 0 || m == 0 {
		return nil
	}

	width := m + 1
	h := make([]int32, (n+1)*width)

	var maxScore int32
	maxI, maxJ := 0, 0

	for i := 1; i <= n; i++ {
		lemmaA := lemmasA[i-1]
		rootA := rootAt(rootsA, i-1)
		row := i * width
		prev := (i - 1) * width

		for j := 1; j <= m; j++ {
			s := weightedMatchScore(lemmaA, lemmasB[j-1], rootA, rootAt(rootsB, j-1), wA, wB, p)

			score := h[prev+j-1] + s
			if up := h[prev+j] + p.GapPenalty; up > score {
				score = up
			}
			if left := h[row+j-1] + p.GapPenalty; left > score {
				score = left
			}
			if score < 0 {
				score = 0
			}
			h[row+j] = score

			if score > maxScore {
				maxScore = score
				maxI, maxJ = i, j
			}
		}
	}

	if maxScore < minScoreThreshold(p) {
		return nil
	}

	a := &Alignment{Score: maxScore}
	i, j := maxI, maxJ
	for i > 0 && j > 0 && h[i*width+j] > 0 {
		current := h[i*width+j]
		lemmaA, lemmaB := lemmasA[i-1], lemmasB[j-1]
		rootA, rootB := rootAt(rootsA, i-1), rootAt(rootsB, j-1)
		s := weightedMatchScore(lemmaA, lemmaB, rootA, rootB, wA, wB, p)

		switch {
		case current == h[(i-1)*width+j-1]+s:
			a.Pairs = append(a.Pairs, Pair{A: i - 1, B: j - 1})
			if lemmaA == lemmaB {
				a.LemmaMatches++
				a.MatchWeightSum += minWeight(lemmaA, wA, wB)
			} else if rootA == rootB && rootA != 0 {
				a.RootOnlyMatches++
			} else {
				a.Substitutions++
			}
			i--
			j--
		case current == h[(i-1)*width+j]+p.GapPenalty:
			a.Gaps++
			i--
		default:
			a.Gaps++
			j--
		}
	}

	return finish(a, lemmasA, lemmasB, rootsA, rootsB, p)
}

// AlignBanded is a placeholder for banded alignment restricted to a
// diagonal band. It currently falls back to the full DP, so the
// acceptance contract is identical.
func AlignBanded(lemmasA, lemmasB, rootsA, rootsB []uint32, band int, p Params) *Alignment {
	_ = band
	return Align(lemmasA, lemmasB, rootsA, rootsB, p)
}

// finish reverses the traceback, applies the acceptance gates, and
// fills in the span boundaries.
func finish(a *Alignment, lemmasA, lemmasB, rootsA, rootsB []uint32, p Params) *Alignment {
	for l, r := 0, len(a.Pairs)-1; l < r; l, r = l+1, r-1 {
		a.Pairs[l], a.Pairs[r] = a.Pairs[r], a.Pairs[l]
	}

	if len(a.Pairs) == 0 || len(a.Pairs) < p.MinLength {
		return nil
	}

	var similarity float64
	pairCount := float64(len(a.Pairs))
	switch p.Mode {
	case ModeLemma:
		similarity = float64(a.LemmaMatches) / pairCount
	case ModeRoot:
		// Root mode counts every root-equal pair, including ones that
		// also share a lemma.
		similarity = float64(countRootMatches(a.Pairs, rootsA, rootsB)) / pairCount
	case ModeCombined:
		similarity = (float64(a.LemmaMatches) + 0.5*float64(a.RootOnlyMatches)) / pairCount
	}
	if similarity < p.MinSimilarity {
		return nil
	}

	first, last := a.Pairs[0], a.Pairs[len(a.Pairs)-1]
	a.StartA, a.EndA = first.A, last.A+1
	a.StartB, a.EndB = first.B, last.B+1
	return a
}

func classify(a *Alignment, lemmaA, lemmaB, rootA, rootB uint32) {
	if lemmaA == lemmaB {
		a.LemmaMatches++
	} else if rootA == rootB && rootA != 0 {
		a.RootOnlyMatches++
	} else {
		a.Substitutions++
	}
}

func matchScore(lemmaA, lemmaB, rootA, rootB uint32, p Params) int32 {
	switch p.Mode {
	case ModeRoot:
		if rootA == rootB && rootA != 0 {
			return p.LemmaScore
		}
		return p.MismatchPenalty
	case ModeCombined:
		if lemmaA == lemmaB {
			return p.LemmaScore
		}
		if rootA == rootB && rootA != 0 {
			return p.RootScore
		}
		return p.MismatchPenalty
	default:
		if lemmaA == lemmaB {
			return p.LemmaScore
		}
		return p.MismatchPenalty
	}
}

func weightedMatchScore(lemmaA, lemmaB, rootA, rootB uint32, wA, wB weights.Vector, p Params) int32 {
	switch p.Mode {
	case ModeRoot:
		if rootA == rootB && rootA != 0 {
			return p.LemmaScore
		}
		return p.MismatchPenalty
	case ModeCombined:
		if lemmaA == lemmaB {
			return int32(float64(p.LemmaScore) * minWeight(lemmaA, wA, wB))
		}
		if rootA == rootB && rootA != 0 {
			return p.RootScore
		}
		return p.MismatchPenalty
	default:
		if lemmaA == lemmaB {
			return int32(float64(p.LemmaScore) * minWeight(lemmaA, wA, wB))
		}
		return p.MismatchPenalty
	}
}

func minWeight(lemma uint32, wA, wB weights.Vector) float64 {
	a, b := wA.Get(lemma), wB.Get(lemma)
	if a < b {
		return a
	}
	return b
}

func minScoreThreshold(p Params) int32 {
	return (int32(p.MinLength) * p.LemmaScore) / 2
}

func rootAt(roots []uint32, i int) uint32 {
	if i < len(roots) {
		return roots[i]
	}
	return 0
}

func countRootMatches(pairs []Pair, rootsA, rootsB []uint32) int {
	count := 0
	for _, pr := range pairs {
		ra, rb := rootAt(rootsA, pr.A), rootAt(rootsB, pr.B)
		if ra == rb && ra != 0 {
			count++
		}
	}
	return count
}
