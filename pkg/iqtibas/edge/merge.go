package edge

import (
	"math"
	"sort"
)

// MergeOverlapping merges edges whose source and target ranges both
// overlap into maximal spans. The input order does not matter: edges
// are sorted on (source book, target book, source start, target start)
// before the sweep, so the result is deterministic.
func MergeOverlapping(edges []Edge) []Edge {
	if len(edges) <= 1 {
		return edges
	}

	sortByPosition(edges)

	merged := make([]Edge, 0, len(edges))
	for _, e := range edges {
		if len(merged) > 0 {
			last := &merged[len(merged)-1]
			if last.SourceBookID == e.SourceBookID && last.TargetBookID == e.TargetBookID && overlap(last, &e) {
				*last = mergeTwo(last, &e)
				continue
			}
		}
		merged = append(merged, e)
	}
	return merged
}

// MergeAdjacent merges edges whose source and target gaps are each at
// most maxGap tokens. Useful for edges split across window boundaries.
func MergeAdjacent(edges []Edge, maxGap int) []Edge {
	if len(edges) <= 1 {
		return edges
	}

	sortByPosition(edges)

	merged := make([]Edge, 0, len(edges))
	for _, e := range edges {
		if len(merged) > 0 {
			last := &merged[len(merged)-1]
			if last.SourceBookID == e.SourceBookID && last.TargetBookID == e.TargetBookID && adjacent(last, &e, maxGap) {
				*last = mergeTwo(last, &e)
				continue
			}
		}
		merged = append(merged, e)
	}
	return merged
}

// RemoveSubsumed drops edges whose source and target ranges are fully
// contained in a longer retained edge of the same book pair. The result
// is re-sorted by position.
func RemoveSubsumed(edges []Edge) []Edge {
	if len(edges) <= 1 {
		return edges
	}

	sort.SliceStable(edges, func(i, j int) bool {
		return edges[i].AlignedLength > edges[j].AlignedLength
	})

	retained := make([]Edge, 0, len(edges))
	for _, e := range edges {
		subsumed := false
		for i := range retained {
			r := &retained[i]
			if r.SourceBookID == e.SourceBookID && r.TargetBookID == e.TargetBookID &&
				r.SourceGlobalStart <= e.SourceGlobalStart && r.SourceGlobalEnd >= e.SourceGlobalEnd &&
				r.TargetGlobalStart <= e.TargetGlobalStart && r.TargetGlobalEnd >= e.TargetGlobalEnd {
				subsumed = true
				break
			}
		}
		if !subsumed {
			retained = append(retained, e)
		}
	}

	sortByPosition(retained)
	return retained
}

func sortByPosition(edges []Edge) {
	sort.SliceStable(edges, func(i, j int) bool {
		a, b := &edges[i], &edges[j]
		if a.SourceBookID != b.SourceBookID {
			return a.SourceBookID < b.SourceBookID
		}
		if a.TargetBookID != b.TargetBookID {
			return a.TargetBookID < b.TargetBookID
		}
		if a.SourceGlobalStart != b.SourceGlobalStart {
			return a.SourceGlobalStart < b.SourceGlobalStart
		}
		return a.TargetGlobalStart < b.TargetGlobalStart
	})
}

func overlap(a, b *Edge) bool {
	return rangesOverlap(a.SourceGlobalStart, a.SourceGlobalEnd, b.SourceGlobalStart, b.SourceGlobalEnd) &&
		rangesOverlap(a.TargetGlobalStart, a.TargetGlobalEnd, b.TargetGlobalStart, b.TargetGlobalEnd)
}

func rangesOverlap(startA, endA, startB, endB int) bool {
	return startA < endB && startB < endA
}

func adjacent(a, b *Edge, maxGap int) bool {
	return gapBetween(a.SourceGlobalStart, a.SourceGlobalEnd, b.SourceGlobalStart, b.SourceGlobalEnd) <= maxGap &&
		gapBetween(a.TargetGlobalStart, a.TargetGlobalEnd, b.TargetGlobalStart, b.TargetGlobalEnd) <= maxGap
}

func gapBetween(startA, endA, startB, endB int) int {
	switch {
	case startB >= endA:
		return startB - endA
	case startA >= endB:
		return startA - endB
	default:
		return 0
	}
}

// mergeTwo combines two overlapping or adjacent edges. The count
// combination is an approximation: the original alignments are gone, so
// overlap counts are estimated from a's per-length rates. These
// formulas are part of the output contract and must not be altered.
func mergeTwo(a, b *Edge) Edge {
	out := Edge{
		ID:           a.ID,
		SourceBookID: a.SourceBookID,
		TargetBookID: a.TargetBookID,
	}

	out.SourceGlobalStart = min(a.SourceGlobalStart, b.SourceGlobalStart)
	out.SourceGlobalEnd = max(a.SourceGlobalEnd, b.SourceGlobalEnd)
	out.TargetGlobalStart = min(a.TargetGlobalStart, b.TargetGlobalStart)
	out.TargetGlobalEnd = max(a.TargetGlobalEnd, b.TargetGlobalEnd)

	// Endpoint page coordinates come from whichever edge contributed
	// the extremum.
	if a.SourceGlobalStart <= b.SourceGlobalStart {
		out.SourceStartPage, out.SourceStartOffset = a.SourceStartPage, a.SourceStartOffset
	} else {
		out.SourceStartPage, out.SourceStartOffset = b.SourceStartPage, b.SourceStartOffset
	}
	if a.SourceGlobalEnd >= b.SourceGlobalEnd {
		out.SourceEndPage, out.SourceEndOffset = a.SourceEndPage, a.SourceEndOffset
	} else {
		out.SourceEndPage, out.SourceEndOffset = b.SourceEndPage, b.SourceEndOffset
	}
	if a.TargetGlobalStart <= b.TargetGlobalStart {
		out.TargetStartPage, out.TargetStartOffset = a.TargetStartPage, a.TargetStartOffset
	} else {
		out.TargetStartPage, out.TargetStartOffset = b.TargetStartPage, b.TargetStartOffset
	}
	if a.TargetGlobalEnd >= b.TargetGlobalEnd {
		out.TargetEndPage, out.TargetEndOffset = a.TargetEndPage, a.TargetEndOffset
	} else {
		out.TargetEndPage, out.TargetEndOffset = b.TargetEndPage, b.TargetEndOffset
	}

	out.AlignedLength = out.SourceGlobalEnd - out.SourceGlobalStart

	overlapSource := overlapSize(a.SourceGlobalStart, a.SourceGlobalEnd, b.SourceGlobalStart, b.SourceGlobalEnd)

	out.LemmaMatches = saturatingSub(a.LemmaMatches+b.LemmaMatches,
		int(math.Round(float64(overlapSource)*a.LemmaSimilarity)))
	out.Substitutions = saturatingSub(a.Substitutions+b.Substitutions,
		overlapRate(overlapSource, a.Substitutions, a.AlignedLength))
	out.RootOnlyMatches = saturatingSub(a.RootOnlyMatches+b.RootOnlyMatches,
		overlapRate(overlapSource, a.RootOnlyMatches, a.AlignedLength))
	out.Gaps = (a.Gaps + b.Gaps) / 2

	matchSubTotal := out.LemmaMatches + out.Substitutions
	if matchSubTotal > 0 {
		out.CoreSimilarity = float64(out.LemmaMatches) / float64(matchSubTotal)
	}
	if out.AlignedLength > 0 {
		out.SpanCoverage = float64(matchSubTotal) / float64(out.AlignedLength)
		out.LemmaSimilarity = float64(out.LemmaMatches) / float64(out.AlignedLength)
		out.CombinedSimilarity = (float64(out.LemmaMatches) + 0.5*float64(out.RootOnlyMatches)) / float64(out.AlignedLength)
	}

	out.ContentWeight = (a.ContentWeight + b.ContentWeight) / 2
	out.WeightedSimilarity = (a.WeightedSimilarity + b.WeightedSimilarity) / 2
	out.LexicalDiversity = (a.LexicalDiversity + b.LexicalDiversity) / 2

	return out
}

func overlapRate(overlapSize, count, alignedLength int) int {
	if alignedLength <= 0 {
		return 0
	}
	return int(math.Round(float64(overlapSize) * float64(count) / float64(alignedLength)))
}

func overlapSize(startA, endA, startB, endB int) int {
	start := max(startA, startB)
	end := min(endA, endB)
	if start < end {
		return end - start
	}
	return 0
}

func saturatingSub(a, b int) int {
	if b > a {
		return 0
	}
	return a - b
}
