// Package iqtibas detects text reuse between two lemmatized books of
// premodern Arabic. The pipeline windows each book's flat lemma stream,
// prunes the window-pair space with a shingle filter, aligns the
// surviving pairs with Smith-Waterman, and merges the accepted
// alignments into maximal reuse edges.
package iqtibas

import (
	"context"
	"crypto/rand"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/cognicore/iqtibas/pkg/iqtibas/align"
	"github.com/cognicore/iqtibas/pkg/iqtibas/edge"
	"github.com/cognicore/iqtibas/pkg/iqtibas/internalerr"
	"github.com/cognicore/iqtibas/pkg/iqtibas/metadata"
	"github.com/cognicore/iqtibas/pkg/iqtibas/shingle"
	"github.com/cognicore/iqtibas/pkg/iqtibas/store"
	"github.com/cognicore/iqtibas/pkg/iqtibas/stream"
	"github.com/cognicore/iqtibas/pkg/iqtibas/weights"
	"github.com/cognicore/iqtibas/pkg/iqtibas/window"
)

// Version identifies the result schema.
const Version = "1.0.0"

// ComparisonParams configures a comparison run. Zero thresholds in the
// pointer fields mean "unset".
type ComparisonParams struct {
	WindowSize        int `yaml:"window_size" json:"window_size"`
	Stride            int `yaml:"stride" json:"stride"`
	NgramSize         int `yaml:"ngram_size" json:"ngram_size"`
	MinSharedShingles int `yaml:"min_shared_shingles" json:"min_shared_shingles"`

	MinLength     int     `yaml:"min_length" json:"min_length"`
	MinSimilarity float64 `yaml:"min_similarity" json:"min_similarity"`

	LemmaScore      int `yaml:"lemma_score" json:"lemma_score"`
	RootScore       int `yaml:"root_score" json:"root_score"`
	MismatchPenalty int `yaml:"mismatch_penalty" json:"mismatch_penalty"`
	GapPenalty      int `yaml:"gap_penalty" json:"gap_penalty"`

	BruteForce bool       `yaml:"brute_force" json:"brute_force"`
	Mode       align.Mode `yaml:"mode" json:"mode"`
	UseWeights bool       `yaml:"use_weights" json:"use_weights"`

	MaxMergeGap int `yaml:"max_merge_gap" json:"max_merge_gap"`

	MinWeightedSimilarity *float64 `yaml:"min_weighted_similarity,omitempty" json:"min_weighted_similarity,omitempty"`
	MinCoreSimilarity     *float64 `yaml:"min_core_similarity,omitempty" json:"min_core_similarity,omitempty"`
	MinSpanCoverage       *float64 `yaml:"min_span_coverage,omitempty" json:"min_span_coverage,omitempty"`
	MinContentWeight      *float64 `yaml:"min_content_weight,omitempty" json:"min_content_weight,omitempty"`
	MinLexicalDiversity   *float64 `yaml:"min_lexical_diversity,omitempty" json:"min_lexical_diversity,omitempty"`
	NoFilters             bool     `yaml:"no_filters" json:"no_filters"`

	// Workers bounds the alignment pool; 0 means GOMAXPROCS.
	Workers int `yaml:"workers" json:"workers"`
}

// DefaultParams returns the scholar-grade defaults.
func DefaultParams() ComparisonParams {
	return ComparisonParams{
		WindowSize:        275,
		Stride:            60,
		NgramSize:         5,
		MinSharedShingles: 3,
		MinLength:         10,
		MinSimilarity:     0.4,
		LemmaScore:        2,
		RootScore:         1,
		MismatchPenalty:   -1,
		GapPenalty:        -1,
		Mode:              align.ModeLemma,
		UseWeights:        true,
	}
}

// Validate rejects configurations the pipeline assumes away.
func (p ComparisonParams) Validate() error {
	switch {
	case p.Stride < 1:
		return fmt.Errorf("%w: stride must be at least 1", internalerr.ErrInvalidConfig)
	case p.NgramSize < 1:
		return fmt.Errorf("%w: ngram_size must be at least 1", internalerr.ErrInvalidConfig)
	case p.WindowSize < p.NgramSize:
		return fmt.Errorf("%w: window_size %d is smaller than ngram_size %d",
			internalerr.ErrInvalidConfig, p.WindowSize, p.NgramSize)
	case p.MinLength < 1:
		return fmt.Errorf("%w: min_length must be at least 1", internalerr.ErrInvalidConfig)
	case p.Workers < 0:
		return fmt.Errorf("%w: workers must not be negative", internalerr.ErrInvalidConfig)
	}
	return nil
}

func (p ComparisonParams) alignParams() align.Params {
	return align.Params{
		Mode:            p.Mode,
		LemmaScore:      int32(p.LemmaScore),
		RootScore:       int32(p.RootScore),
		MismatchPenalty: int32(p.MismatchPenalty),
		GapPenalty:      int32(p.GapPenalty),
		MinLength:       p.MinLength,
		MinSimilarity:   p.MinSimilarity,
	}
}

func (p ComparisonParams) windowConfig() window.Config {
	return window.Config{Size: p.WindowSize, Stride: p.Stride, MinLength: p.MinLength}
}

func (p ComparisonParams) filterConfig() shingle.FilterConfig {
	return shingle.FilterConfig{
		NgramSize:         p.NgramSize,
		MinSharedShingles: p.MinSharedShingles,
		BruteForce:        p.BruteForce,
	}
}

func (p ComparisonParams) metricFilter() edge.FilterParams {
	return edge.FilterParams{
		MinWeightedSimilarity: p.MinWeightedSimilarity,
		MinCoreSimilarity:     p.MinCoreSimilarity,
		MinSpanCoverage:       p.MinSpanCoverage,
		MinContentWeight:      p.MinContentWeight,
		MinLexicalDiversity:   p.MinLexicalDiversity,
		NoFilters:             p.NoFilters,
	}
}

// BookDescriptor identifies one compared book in a result, enriched
// from the metadata sidecar when available.
type BookDescriptor struct {
	ID         uint32 `json:"id"`
	Corpus     string `json:"corpus,omitempty"`
	Title      string `json:"title,omitempty"`
	AuthorID   uint32 `json:"author_id,omitempty"`
	DeathAH    uint32 `json:"death_ah,omitempty"`
	CenturyAH  uint32 `json:"century_ah,omitempty"`
	GenreID    uint32 `json:"genre_id,omitempty"`
	PageCount  int    `json:"page_count"`
	TokenCount int    `json:"token_count"`
}

// Summary aggregates a comparison's edges.
type Summary struct {
	EdgeCount             int     `json:"edge_count"`
	TotalAlignedTokens    int     `json:"total_aligned_tokens"`
	BookACoverage         float64 `json:"book_a_coverage"`
	BookBCoverage         float64 `json:"book_b_coverage"`
	AvgSimilarity         float64 `json:"avg_similarity"`
	AvgWeightedSimilarity float64 `json:"avg_weighted_similarity"`
}

// Result is a full comparison outcome.
type Result struct {
	Version     string           `json:"version"`
	RunID       string           `json:"run_id"`
	GeneratedAt time.Time        `json:"generated_at"`
	Parameters  ComparisonParams `json:"parameters"`
	BookA       BookDescriptor   `json:"book_a"`
	BookB       BookDescriptor   `json:"book_b"`
	Summary     Summary          `json:"summary"`
	Edges       []edge.Edge      `json:"edges"`
}

// Comparer runs comparisons against a corpus store. Each Comparer owns
// its edge-id allocator, so ids are monotonic within the Comparer and
// never collide across concurrent Comparers.
type Comparer struct {
	store store.Store
	meta  metadata.Table
	ids   *edge.IDAllocator

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewComparer creates a Comparer over a store. The metadata table may
// be nil.
func NewComparer(st store.Store, meta metadata.Table) *Comparer {
	return &Comparer{
		store:   st,
		meta:    meta,
		ids:     edge.NewIDAllocator(),
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

func (c *Comparer) newRunID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ulid.MustNew(ulid.Now(), c.entropy).String()
}

// Compare loads two books from the store and compares them.
func (c *Comparer) Compare(ctx context.Context, bookA, bookB uint32, params ComparisonParams) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	var streamA, streamB *stream.BookTokenStream
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		streamA, err = c.store.BookStream(gctx, bookA)
		return err
	})
	g.Go(func() error {
		var err error
		streamB, err = c.store.BookStream(gctx, bookB)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return c.CompareStreams(ctx, streamA, streamB, params)
}

// CompareWithText is Compare plus surface-text reconstruction for each
// edge, with contextTokens tokens of context on both sides.
func (c *Comparer) CompareWithText(ctx context.Context, bookA, bookB uint32, params ComparisonParams, contextTokens int) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	var (
		streamA, streamB *stream.BookTokenStream
		maps             *store.TokenMaps
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		streamA, err = c.store.BookStream(gctx, bookA)
		return err
	})
	g.Go(func() error {
		var err error
		streamB, err = c.store.BookStream(gctx, bookB)
		return err
	})
	g.Go(func() error {
		var err error
		maps, err = c.store.TokenMaps(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result, err := c.CompareStreams(ctx, streamA, streamB, params)
	if err != nil {
		return nil, err
	}

	for i := range result.Edges {
		e := &result.Edges[i]
		src := streamA.PassageText(e.SourceGlobalStart, e.SourceGlobalEnd, contextTokens, maps.Surface)
		tgt := streamB.PassageText(e.TargetGlobalStart, e.TargetGlobalEnd, contextTokens, maps.Surface)
		e.SourceText = &src
		e.TargetText = &tgt
	}
	return result, nil
}

// ComparePairs compares a list of book pairs, reusing loaded state
// where the store caches it. The first error aborts the batch.
func (c *Comparer) ComparePairs(ctx context.Context, pairs [][2]uint32, params ComparisonParams) ([]*Result, error) {
	results := make([]*Result, 0, len(pairs))
	for _, pair := range pairs {
		result, err := c.Compare(ctx, pair[0], pair[1], params)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

// CompareStreams compares two already-loaded streams. An empty stream
// on either side yields an empty result without error.
func (c *Comparer) CompareStreams(ctx context.Context, streamA, streamB *stream.BookTokenStream, params ComparisonParams) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	windowsA := window.Generate(streamA, params.windowConfig())
	windowsB := window.Generate(streamB, params.windowConfig())

	candidates := shingle.CandidatePairs(windowsA, windowsB, params.filterConfig())

	edges, err := c.alignCandidates(ctx, windowsA, windowsB, streamA, streamB, candidates, params)
	if err != nil {
		return nil, err
	}

	merged := edge.MergeOverlapping(edges)
	if params.MaxMergeGap > 0 {
		merged = edge.MergeAdjacent(merged, params.MaxMergeGap)
	}
	retained := edge.RemoveSubsumed(merged)
	filtered := edge.Filter(retained, params.metricFilter())

	result := &Result{
		Version:     Version,
		RunID:       c.newRunID(),
		GeneratedAt: time.Now().UTC(),
		Parameters:  params,
		BookA:       c.describeBook(streamA),
		BookB:       c.describeBook(streamB),
		Summary:     summarize(filtered, streamA, streamB),
		Edges:       filtered,
	}
	return result, nil
}

// alignCandidates runs Smith-Waterman over the candidate pairs on a
// bounded worker pool. Workers keep task-local edge slices that are
// concatenated after the barrier; the id allocator is the only shared
// mutable state. Cancellation is honored between tasks.
func (c *Comparer) alignCandidates(
	ctx context.Context,
	windowsA, windowsB []window.Window,
	streamA, streamB *stream.BookTokenStream,
	candidates []shingle.Pair,
	params ComparisonParams,
) ([]edge.Edge, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	var weightsA, weightsB weights.Vector
	if params.UseWeights {
		lemmasA := streamA.FlatLemmaIDs()
		lemmasB := streamB.FlatLemmaIDs()
		size := weights.JointSize(lemmasA, lemmasB)
		weightsA = weights.Compute(lemmasA, size)
		weightsB = weights.Compute(lemmasB, size)
	}
	alignParams := params.alignParams()

	nWorkers := params.Workers
	if nWorkers <= 0 {
		nWorkers = runtime.GOMAXPROCS(0)
	}
	if nWorkers > len(candidates) {
		nWorkers = len(candidates)
	}

	locals := make([][]edge.Edge, nWorkers)
	errs := make([]error, nWorkers)
	var wg sync.WaitGroup
	chunkSize := (len(candidates) + nWorkers - 1) / nWorkers

	for w := 0; w < nWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > len(candidates) {
			end = len(candidates)
		}
		if start >= end {
			break
		}
		wg.Add(1)
		go func(w int, chunk []shingle.Pair) {
			defer wg.Done()
			var out []edge.Edge
			for _, pair := range chunk {
				if err := ctx.Err(); err != nil {
					errs[w] = err
					return
				}
				winA := &windowsA[pair.A]
				winB := &windowsB[pair.B]

				var a *align.Alignment
				if params.UseWeights {
					a = align.AlignWeighted(winA.LemmaIDs, winB.LemmaIDs, winA.RootIDs, winB.RootIDs, weightsA, weightsB, alignParams)
				} else {
					a = align.Align(winA.LemmaIDs, winB.LemmaIDs, winA.RootIDs, winB.RootIDs, alignParams)
				}
				if a == nil {
					continue
				}
				out = append(out, edge.Build(c.ids.Next(), winA, winB, a))
			}
			locals[w] = out
		}(w, candidates[start:end])
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	var edges []edge.Edge
	for _, local := range locals {
		edges = append(edges, local...)
	}
	return edges, nil
}

func (c *Comparer) describeBook(st *stream.BookTokenStream) BookDescriptor {
	d := BookDescriptor{
		ID:         st.BookID,
		PageCount:  st.PageCount(),
		TokenCount: st.TotalTokens,
	}
	if c.meta != nil {
		if b, ok := c.meta.Lookup(st.BookID); ok {
			d.Corpus = b.Corpus
			d.Title = b.Title
			d.AuthorID = b.AuthorID
			d.DeathAH = b.DeathAH
			d.CenturyAH = b.CenturyAH
			d.GenreID = b.GenreID
		}
	}
	return d
}

func summarize(edges []edge.Edge, streamA, streamB *stream.BookTokenStream) Summary {
	s := Summary{EdgeCount: len(edges)}
	if len(edges) == 0 {
		return s
	}

	similarities := make([]float64, len(edges))
	weighted := make([]float64, len(edges))
	for i, e := range edges {
		s.TotalAlignedTokens += e.AlignedLength
		similarities[i] = e.LemmaSimilarity
		weighted[i] = e.WeightedSimilarity
	}
	s.AvgSimilarity = stat.Mean(similarities, nil)
	s.AvgWeightedSimilarity = stat.Mean(weighted, nil)
	s.BookACoverage = coverage(edges, streamA.BookID, streamA.TotalTokens)
	s.BookBCoverage = coverage(edges, streamB.BookID, streamB.TotalTokens)
	return s
}

// coverage is the fraction of a book's tokens inside any edge span,
// counting overlapping spans once.
func coverage(edges []edge.Edge, bookID uint32, totalTokens int) float64 {
	if totalTokens == 0 {
		return 0.0
	}

	type span struct{ start, end int }
	var spans []span
	for _, e := range edges {
		switch bookID {
		case e.SourceBookID:
			spans = append(spans, span{e.SourceGlobalStart, e.SourceGlobalEnd})
		case e.TargetBookID:
			spans = append(spans, span{e.TargetGlobalStart, e.TargetGlobalEnd})
		}
	}
	if len(spans) == 0 {
		return 0.0
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	covered := 0
	current := spans[0]
	for _, sp := range spans[1:] {
		if sp.start <= current.end {
			if sp.end > current.end {
				current.end = sp.end
			}
		} else {
			covered += current.end - current.start
			current = sp
		}
	}
	covered += current.end - current.start

	return float64(covered) / float64(totalTokens)
}
