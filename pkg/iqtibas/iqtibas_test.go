package iqtibas

import (
	"errors"
	"testing"

	"github.com/cognicore/iqtibas/pkg/iqtibas/edge"
	"github.com/cognicore/iqtibas/pkg/iqtibas/internalerr"
	"github.com/cognicore/iqtibas/pkg/iqtibas/stream"
)

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	if p.WindowSize != 275 || p.Stride != 60 || p.NgramSize != 5 {
		t.Errorf("windowing defaults = %d/%d/%d", p.WindowSize, p.Stride, p.NgramSize)
	}
	if p.MinSharedShingles != 3 || p.MinLength != 10 || p.MinSimilarity != 0.4 {
		t.Errorf("gate defaults = %d/%d/%f", p.MinSharedShingles, p.MinLength, p.MinSimilarity)
	}
	if p.LemmaScore != 2 || p.RootScore != 1 || p.MismatchPenalty != -1 || p.GapPenalty != -1 {
		t.Errorf("scoring defaults = %d/%d/%d/%d", p.LemmaScore, p.RootScore, p.MismatchPenalty, p.GapPenalty)
	}
	if !p.UseWeights || p.BruteForce || p.NoFilters {
		t.Errorf("toggle defaults = weights %v brute %v nofilters %v", p.UseWeights, p.BruteForce, p.NoFilters)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []func(*ComparisonParams){
		func(p *ComparisonParams) { p.Stride = 0 },
		func(p *ComparisonParams) { p.NgramSize = 0 },
		func(p *ComparisonParams) { p.WindowSize = 3 },
		func(p *ComparisonParams) { p.MinLength = 0 },
		func(p *ComparisonParams) { p.Workers = -1 },
	}
	for i, mutate := range cases {
		p := DefaultParams()
		mutate(&p)
		if err := p.Validate(); !errors.Is(err, internalerr.ErrInvalidConfig) {
			t.Errorf("case %d: error = %v, want ErrInvalidConfig", i, err)
		}
	}
}

func TestCoverage(t *testing.T) {
	edges := []edge.Edge{
		{SourceBookID: 1, TargetBookID: 2, SourceGlobalStart: 0, SourceGlobalEnd: 100, TargetGlobalStart: 0, TargetGlobalEnd: 100},
		{SourceBookID: 1, TargetBookID: 2, SourceGlobalStart: 50, SourceGlobalEnd: 150, TargetGlobalStart: 300, TargetGlobalEnd: 400},
	}

	// Overlapping source spans count once: [0,150) of 300 tokens.
	if got := coverage(edges, 1, 300); got != 0.5 {
		t.Errorf("source coverage = %f, want 0.5", got)
	}
	// Disjoint target spans: [0,100) + [300,400) of 400.
	if got := coverage(edges, 2, 400); got != 0.5 {
		t.Errorf("target coverage = %f, want 0.5", got)
	}
	if got := coverage(edges, 3, 100); got != 0.0 {
		t.Errorf("unrelated book coverage = %f, want 0", got)
	}
	if got := coverage(edges, 1, 0); got != 0.0 {
		t.Errorf("zero-token coverage = %f, want 0", got)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	a := &stream.BookTokenStream{BookID: 1, TotalTokens: 100}
	b := &stream.BookTokenStream{BookID: 2, TotalTokens: 100}
	s := summarize(nil, a, b)
	if s.EdgeCount != 0 || s.AvgSimilarity != 0 || s.BookACoverage != 0 {
		t.Errorf("empty summary = %+v", s)
	}
}

func TestSummarize(t *testing.T) {
	a := &stream.BookTokenStream{BookID: 1, TotalTokens: 200}
	b := &stream.BookTokenStream{BookID: 2, TotalTokens: 400}
	edges := []edge.Edge{
		{
			SourceBookID: 1, TargetBookID: 2,
			SourceGlobalStart: 0, SourceGlobalEnd: 100,
			TargetGlobalStart: 0, TargetGlobalEnd: 100,
			AlignedLength: 100, LemmaSimilarity: 0.8, WeightedSimilarity: 1.2,
		},
		{
			SourceBookID: 1, TargetBookID: 2,
			SourceGlobalStart: 100, SourceGlobalEnd: 200,
			TargetGlobalStart: 200, TargetGlobalEnd: 300,
			AlignedLength: 100, LemmaSimilarity: 0.6, WeightedSimilarity: 0.8,
		},
	}

	s := summarize(edges, a, b)
	if s.EdgeCount != 2 || s.TotalAlignedTokens != 200 {
		t.Errorf("summary counts = %d/%d", s.EdgeCount, s.TotalAlignedTokens)
	}
	if s.AvgSimilarity < 0.699 || s.AvgSimilarity > 0.701 {
		t.Errorf("avg similarity = %f, want 0.7", s.AvgSimilarity)
	}
	if s.AvgWeightedSimilarity < 0.999 || s.AvgWeightedSimilarity > 1.001 {
		t.Errorf("avg weighted similarity = %f, want 1.0", s.AvgWeightedSimilarity)
	}
	if s.BookACoverage != 1.0 {
		t.Errorf("book A coverage = %f, want 1.0", s.BookACoverage)
	}
	if s.BookBCoverage != 0.5 {
		t.Errorf("book B coverage = %f, want 0.5", s.BookBCoverage)
	}
}
