// Package output serializes comparison results as JSON, CSV, and a
// static HTML viewer.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/cognicore/iqtibas/pkg/iqtibas"
	"github.com/cognicore/iqtibas/pkg/iqtibas/edge"
)

// WriteJSON writes a result as indented JSON.
func WriteJSON(w io.Writer, result *iqtibas.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// WriteJSONFile writes a result as JSON to a file.
func WriteJSONFile(path string, result *iqtibas.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteJSON(f, result)
}

// csvHeader names every scalar edge field, in model order.
var csvHeader = []string{
	"id",
	"source_book_id",
	"source_start_part", "source_start_page", "source_start_offset",
	"source_end_part", "source_end_page", "source_end_offset",
	"source_global_start", "source_global_end",
	"target_book_id",
	"target_start_part", "target_start_page", "target_start_offset",
	"target_end_part", "target_end_page", "target_end_offset",
	"target_global_start", "target_global_end",
	"aligned_length", "lemma_matches", "substitutions", "root_only_matches", "gaps",
	"core_similarity", "span_coverage", "content_weight",
	"lemma_similarity", "combined_similarity", "weighted_similarity",
	"lexical_diversity",
}

// WriteCSV writes edges as CSV with a header row.
func WriteCSV(w io.Writer, edges []edge.Edge) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, e := range edges {
		record := []string{
			strconv.FormatUint(e.ID, 10),
			strconv.FormatUint(uint64(e.SourceBookID), 10),
			strconv.FormatUint(uint64(e.SourceStartPage.Part), 10),
			strconv.FormatUint(uint64(e.SourceStartPage.Page), 10),
			strconv.FormatUint(uint64(e.SourceStartOffset), 10),
			strconv.FormatUint(uint64(e.SourceEndPage.Part), 10),
			strconv.FormatUint(uint64(e.SourceEndPage.Page), 10),
			strconv.FormatUint(uint64(e.SourceEndOffset), 10),
			strconv.Itoa(e.SourceGlobalStart),
			strconv.Itoa(e.SourceGlobalEnd),
			strconv.FormatUint(uint64(e.TargetBookID), 10),
			strconv.FormatUint(uint64(e.TargetStartPage.Part), 10),
			strconv.FormatUint(uint64(e.TargetStartPage.Page), 10),
			strconv.FormatUint(uint64(e.TargetStartOffset), 10),
			strconv.FormatUint(uint64(e.TargetEndPage.Part), 10),
			strconv.FormatUint(uint64(e.TargetEndPage.Page), 10),
			strconv.FormatUint(uint64(e.TargetEndOffset), 10),
			strconv.Itoa(e.TargetGlobalStart),
			strconv.Itoa(e.TargetGlobalEnd),
			strconv.Itoa(e.AlignedLength),
			strconv.Itoa(e.LemmaMatches),
			strconv.Itoa(e.Substitutions),
			strconv.Itoa(e.RootOnlyMatches),
			strconv.Itoa(e.Gaps),
			formatFloat(e.CoreSimilarity),
			formatFloat(e.SpanCoverage),
			formatFloat(e.ContentWeight),
			formatFloat(e.LemmaSimilarity),
			formatFloat(e.CombinedSimilarity),
			formatFloat(e.WeightedSimilarity),
			formatFloat(e.LexicalDiversity),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes edges as CSV to a file.
func WriteCSVFile(path string, edges []edge.Edge) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteCSV(f, edges)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// FormatPageLocation renders a page coordinate as part:page.offset.
func FormatPageLocation(part, page, offset uint32) string {
	return fmt.Sprintf("%d:%d.%d", part, page, offset)
}

// FormatEdge renders one edge for console display.
func FormatEdge(e *edge.Edge) string {
	return fmt.Sprintf(
		"Edge %d: len=%d matches=%d subs=%d gaps=%d\n"+
			"  Core: %.1f%%  Coverage: %.1f%%  Weight: %.2f\n"+
			"  Book %d [%s→%s] ↔ Book %d [%s→%s]",
		e.ID, e.AlignedLength, e.LemmaMatches, e.Substitutions, e.Gaps,
		e.CoreSimilarity*100, e.SpanCoverage*100, e.ContentWeight,
		e.SourceBookID,
		FormatPageLocation(e.SourceStartPage.Part, e.SourceStartPage.Page, e.SourceStartOffset),
		FormatPageLocation(e.SourceEndPage.Part, e.SourceEndPage.Page, e.SourceEndOffset),
		e.TargetBookID,
		FormatPageLocation(e.TargetStartPage.Part, e.TargetStartPage.Page, e.TargetStartOffset),
		FormatPageLocation(e.TargetEndPage.Part, e.TargetEndPage.Page, e.TargetEndOffset),
	)
}

// PrintEdges writes up to limit edges to w; limit <= 0 prints all.
func PrintEdges(w io.Writer, edges []edge.Edge, limit int) {
	n := len(edges)
	if limit > 0 && limit < n {
		n = limit
	}
	for i := 0; i < n; i++ {
		fmt.Fprintln(w, FormatEdge(&edges[i]))
	}
	if n < len(edges) {
		fmt.Fprintf(w, "... and %d more edges\n", len(edges)-n)
	}
}

// PrintSummary writes a human-readable run summary to w.
func PrintSummary(w io.Writer, result *iqtibas.Result) {
	fmt.Fprintf(w, "\n=== Comparison Summary ===\n")
	fmt.Fprintf(w, "Version: %s (run %s)\n\n", result.Version, result.RunID)
	fmt.Fprintf(w, "Book A: %d (%d tokens)\n", result.BookA.ID, result.BookA.TokenCount)
	fmt.Fprintf(w, "Book B: %d (%d tokens)\n\n", result.BookB.ID, result.BookB.TokenCount)
	fmt.Fprintf(w, "Parameters:\n")
	fmt.Fprintf(w, "  Window size: %d\n", result.Parameters.WindowSize)
	fmt.Fprintf(w, "  Stride: %d\n", result.Parameters.Stride)
	fmt.Fprintf(w, "  N-gram size: %d\n", result.Parameters.NgramSize)
	fmt.Fprintf(w, "  Min shared shingles: %d\n", result.Parameters.MinSharedShingles)
	fmt.Fprintf(w, "  Min length: %d\n", result.Parameters.MinLength)
	fmt.Fprintf(w, "  Min similarity: %.1f%%\n", result.Parameters.MinSimilarity*100)
	fmt.Fprintf(w, "  Mode: %s\n", result.Parameters.Mode)
	fmt.Fprintf(w, "  Brute force: %v\n\n", result.Parameters.BruteForce)
	fmt.Fprintf(w, "Results:\n")
	fmt.Fprintf(w, "  Edges found: %d\n", result.Summary.EdgeCount)
	fmt.Fprintf(w, "  Total aligned tokens: %d\n", result.Summary.TotalAlignedTokens)
	fmt.Fprintf(w, "  Book A coverage: %.1f%%\n", result.Summary.BookACoverage*100)
	fmt.Fprintf(w, "  Book B coverage: %.1f%%\n", result.Summary.BookBCoverage*100)
	fmt.Fprintf(w, "  Average similarity: %.1f%%\n", result.Summary.AvgSimilarity*100)
}
