package edge

// FilterParams are the post-merge metric gates. A nil threshold is
// unset and passes everything; NoFilters bypasses all of them while
// leaving the aligner's own length/similarity gates untouched.
type FilterParams struct {
	MinWeightedSimilarity *float64
	MinCoreSimilarity     *float64
	MinSpanCoverage       *float64
	MinContentWeight      *float64
	MinLexicalDiversity   *float64
	NoFilters             bool
}

// Filter drops edges that fail any configured metric gate.
func Filter(edges []Edge, p FilterParams) []Edge {
	if p.NoFilters {
		return edges
	}

	kept := make([]Edge, 0, len(edges))
	for _, e := range edges {
		if below(p.MinWeightedSimilarity, e.WeightedSimilarity) ||
			below(p.MinCoreSimilarity, e.CoreSimilarity) ||
			below(p.MinSpanCoverage, e.SpanCoverage) ||
			below(p.MinContentWeight, e.ContentWeight) ||
			below(p.MinLexicalDiversity, e.LexicalDiversity) {
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

func below(threshold *float64, value float64) bool {
	return threshold != nil && value < *threshold
}
