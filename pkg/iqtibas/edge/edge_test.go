package edge

import (
	"testing"

	"github.com/cognicore/iqtibas/pkg/iqtibas/align"
	"github.com/cognicore/iqtibas/pkg/iqtibas/stream"
	"github.com/cognicore/iqtibas/pkg/iqtibas/window"
)

func TestIDAllocator(t *testing.T) {
	a := NewIDAllocator()
	if got := a.Next(); got != 0 {
		t.Errorf("first id = %d, want 0", got)
	}
	if got := a.Next(); got != 1 {
		t.Errorf("second id = %d, want 1", got)
	}

	b := NewIDAllocator()
	if got := b.Next(); got != 0 {
		t.Errorf("fresh allocator first id = %d, want 0", got)
	}
}

func TestBuildCoordinatesAndMetrics(t *testing.T) {
	lemmas := make([]uint32, 50)
	for i := range lemmas {
		lemmas[i] = uint32(i + 1)
	}
	winA := &window.Window{
		BookID:      1,
		GlobalStart: 100,
		GlobalEnd:   150,
		StartPage:   stream.PageRef{Part: 1, Page: 3},
		StartOffset: 20,
		EndPage:     stream.PageRef{Part: 1, Page: 4},
		EndOffset:   9,
		LemmaIDs:    lemmas,
		RootIDs:     make([]uint32, 50),
	}
	winB := &window.Window{
		BookID:      2,
		GlobalStart: 400,
		GlobalEnd:   450,
		StartPage:   stream.PageRef{Part: 2, Page: 7},
		StartOffset: 5,
		EndPage:     stream.PageRef{Part: 2, Page: 8},
		EndOffset:   14,
		LemmaIDs:    lemmas,
		RootIDs:     make([]uint32, 50),
	}

	a := &align.Alignment{
		StartA: 10, EndA: 30,
		StartB: 12, EndB: 32,
		LemmaMatches:   16,
		Substitutions:  4,
		Gaps:           2,
		MatchWeightSum: 24.0,
	}
	for i := 0; i < 20; i++ {
		a.Pairs = append(a.Pairs, align.Pair{A: 10 + i, B: 12 + i})
	}

	e := Build(7, winA, winB, a)

	if e.ID != 7 {
		t.Errorf("id = %d, want 7", e.ID)
	}
	if e.SourceGlobalStart != 110 || e.SourceGlobalEnd != 130 {
		t.Errorf("source span = [%d,%d), want [110,130)", e.SourceGlobalStart, e.SourceGlobalEnd)
	}
	if e.TargetGlobalStart != 412 || e.TargetGlobalEnd != 432 {
		t.Errorf("target span = [%d,%d), want [412,432)", e.TargetGlobalStart, e.TargetGlobalEnd)
	}
	if e.SourceStartOffset != 30 || e.SourceEndOffset != 50 {
		t.Errorf("source offsets = %d/%d, want 30/50", e.SourceStartOffset, e.SourceEndOffset)
	}

	if e.AlignedLength != 22 {
		t.Errorf("aligned length = %d, want 22 (20 pairs + 2 gaps)", e.AlignedLength)
	}
	if got, want := e.CoreSimilarity, 16.0/20.0; !close(got, want) {
		t.Errorf("core similarity = %f, want %f", got, want)
	}
	if got, want := e.SpanCoverage, 20.0/22.0; !close(got, want) {
		t.Errorf("span coverage = %f, want %f", got, want)
	}
	if got, want := e.ContentWeight, 24.0/16.0; !close(got, want) {
		t.Errorf("content weight = %f, want %f", got, want)
	}
	if got, want := e.LemmaSimilarity, 16.0/22.0; !close(got, want) {
		t.Errorf("lemma similarity = %f, want %f", got, want)
	}
	if got, want := e.WeightedSimilarity, 24.0/22.0; !close(got, want) {
		t.Errorf("weighted similarity = %f, want %f", got, want)
	}
}

func TestBuildZeroDenominators(t *testing.T) {
	winA := &window.Window{BookID: 1, LemmaIDs: []uint32{1}, RootIDs: []uint32{0}}
	winB := &window.Window{BookID: 2, LemmaIDs: []uint32{2}, RootIDs: []uint32{0}}
	a := &align.Alignment{}

	e := Build(0, winA, winB, a)
	if e.CoreSimilarity != 0 || e.SpanCoverage != 0 || e.ContentWeight != 0 || e.LexicalDiversity != 0 {
		t.Errorf("zero-denominator metrics not zero: %+v", e)
	}
}

func TestBuildLexicalDiversity(t *testing.T) {
	// Repeating lemma 5 drives diversity below 1.
	lemmas := []uint32{5, 5, 5, 5, 6, 7, 8, 9, 10, 11}
	winA := &window.Window{BookID: 1, LemmaIDs: lemmas, RootIDs: make([]uint32, 10)}
	winB := &window.Window{BookID: 2, LemmaIDs: lemmas, RootIDs: make([]uint32, 10)}

	a := &align.Alignment{StartA: 0, EndA: 10, StartB: 0, EndB: 10, LemmaMatches: 10}
	for i := 0; i < 10; i++ {
		a.Pairs = append(a.Pairs, align.Pair{A: i, B: i})
	}

	e := Build(0, winA, winB, a)
	if got, want := e.LexicalDiversity, 7.0/10.0; !close(got, want) {
		t.Errorf("lexical diversity = %f, want %f", got, want)
	}
}

func close(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
