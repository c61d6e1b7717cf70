// Package edge builds reuse edges from accepted alignments and
// post-processes them: overlap/adjacency merging, subsumption removal,
// and metric filtering.
package edge

import (
	"sync/atomic"

	"github.com/cognicore/iqtibas/pkg/iqtibas/align"
	"github.com/cognicore/iqtibas/pkg/iqtibas/stream"
	"github.com/cognicore/iqtibas/pkg/iqtibas/window"
)

// Edge is a detected reuse span between two books: a pair of coordinate
// ranges plus alignment statistics.
type Edge struct {
	ID uint64 `json:"id"`

	SourceBookID      uint32         `json:"source_book_id"`
	SourceStartPage   stream.PageRef `json:"source_start_page"`
	SourceStartOffset uint32         `json:"source_start_offset"`
	SourceEndPage     stream.PageRef `json:"source_end_page"`
	SourceEndOffset   uint32         `json:"source_end_offset"`
	SourceGlobalStart int            `json:"source_global_start"`
	SourceGlobalEnd   int            `json:"source_global_end"`

	TargetBookID      uint32         `json:"target_book_id"`
	TargetStartPage   stream.PageRef `json:"target_start_page"`
	TargetStartOffset uint32         `json:"target_start_offset"`
	TargetEndPage     stream.PageRef `json:"target_end_page"`
	TargetEndOffset   uint32         `json:"target_end_offset"`
	TargetGlobalStart int            `json:"target_global_start"`
	TargetGlobalEnd   int            `json:"target_global_end"`

	AlignedLength   int `json:"aligned_length"`
	LemmaMatches    int `json:"lemma_matches"`
	Substitutions   int `json:"substitutions"`
	RootOnlyMatches int `json:"root_only_matches"`
	Gaps            int `json:"gaps"`

	// The three orthogonal quality metrics.
	CoreSimilarity float64 `json:"core_similarity"`
	SpanCoverage   float64 `json:"span_coverage"`
	ContentWeight  float64 `json:"content_weight"`

	// Legacy scalar metrics retained for compatibility.
	LemmaSimilarity    float64 `json:"lemma_similarity"`
	CombinedSimilarity float64 `json:"combined_similarity"`
	WeightedSimilarity float64 `json:"weighted_similarity"`

	LexicalDiversity float64 `json:"lexical_diversity"`

	// Reconstructed surface text, present only when requested.
	SourceText *stream.PassageText `json:"source_text,omitempty"`
	TargetText *stream.PassageText `json:"target_text,omitempty"`
}

// IDAllocator hands out monotonically increasing edge ids. Each
// Comparer owns one allocator, shared by all of its runs, so ids never
// repeat within a Comparer and separate Comparers never share a counter.
type IDAllocator struct {
	next atomic.Uint64
}

// NewIDAllocator returns an allocator starting at 0.
func NewIDAllocator() *IDAllocator { return &IDAllocator{} }

// Next returns the next id. Safe for concurrent use.
func (a *IDAllocator) Next() uint64 { return a.next.Add(1) - 1 }

// Build converts an accepted alignment between two windows into an edge
// with absolute coordinates and quality metrics.
func Build(id uint64, winA, winB *window.Window, a *align.Alignment) Edge {
	alignedLength := a.AlignedLength()
	alignedLen := float64(alignedLength)

	matchSubTotal := a.LemmaMatches + a.Substitutions
	coreSimilarity := 0.0
	if matchSubTotal > 0 {
		coreSimilarity = float64(a.LemmaMatches) / float64(matchSubTotal)
	}
	spanCoverage := 0.0
	if alignedLength > 0 {
		spanCoverage = float64(matchSubTotal) / alignedLen
	}
	contentWeight := 0.0
	if a.LemmaMatches > 0 {
		contentWeight = a.MatchWeightSum / float64(a.LemmaMatches)
	}

	lemmaSimilarity := 0.0
	combinedSimilarity := 0.0
	weightedSimilarity := 0.0
	if alignedLength > 0 {
		lemmaSimilarity = float64(a.LemmaMatches) / alignedLen
		combinedSimilarity = (float64(a.LemmaMatches) + 0.5*float64(a.RootOnlyMatches)) / alignedLen
		weightedSimilarity = a.MatchWeightSum / alignedLen
	}

	return Edge{
		ID: id,

		SourceBookID:      winA.BookID,
		SourceStartPage:   winA.StartPage,
		SourceStartOffset: winA.StartOffset + uint32(a.StartA),
		SourceEndPage:     winA.EndPage,
		SourceEndOffset:   winA.StartOffset + uint32(a.EndA),
		SourceGlobalStart: winA.GlobalStart + a.StartA,
		SourceGlobalEnd:   winA.GlobalStart + a.EndA,

		TargetBookID:      winB.BookID,
		TargetStartPage:   winB.StartPage,
		TargetStartOffset: winB.StartOffset + uint32(a.StartB),
		TargetEndPage:     winB.EndPage,
		TargetEndOffset:   winB.StartOffset + uint32(a.EndB),
		TargetGlobalStart: winB.GlobalStart + a.StartB,
		TargetGlobalEnd:   winB.GlobalStart + a.EndB,

		AlignedLength:   alignedLength,
		LemmaMatches:    a.LemmaMatches,
		Substitutions:   a.Substitutions,
		RootOnlyMatches: a.RootOnlyMatches,
		Gaps:            a.Gaps,

		CoreSimilarity: coreSimilarity,
		SpanCoverage:   spanCoverage,
		ContentWeight:  contentWeight,

		LemmaSimilarity:    lemmaSimilarity,
		CombinedSimilarity: combinedSimilarity,
		WeightedSimilarity: weightedSimilarity,

		LexicalDiversity: lexicalDiversity(winA, winB, a),
	}
}

// lexicalDiversity is distinct matched lemma ids over lemma matches.
// Low values flag formulaic content such as isnad chains.
func lexicalDiversity(winA, winB *window.Window, a *align.Alignment) float64 {
	if a.LemmaMatches == 0 {
		return 0.0
	}
	seen := make(map[uint32]struct{}, a.LemmaMatches)
	for _, pr := range a.Pairs {
		if pr.A >= len(winA.LemmaIDs) || pr.B >= len(winB.LemmaIDs) {
			continue
		}
		if winA.LemmaIDs[pr.A] == winB.LemmaIDs[pr.B] {
			seen[winA.LemmaIDs[pr.A]] = struct{}{}
		}
	}
	return float64(len(seen)) / float64(a.LemmaMatches)
}
