package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/cognicore/iqtibas/pkg/iqtibas"
	"github.com/cognicore/iqtibas/pkg/iqtibas/edge"
	"github.com/cognicore/iqtibas/pkg/iqtibas/stream"
)

func sampleResult() *iqtibas.Result {
	return &iqtibas.Result{
		Version:     iqtibas.Version,
		RunID:       "01ARZ3NDEKTSV4RRFFQ69G5FAV",
		GeneratedAt: time.Date(2024, 11, 3, 12, 0, 0, 0, time.UTC),
		Parameters:  iqtibas.DefaultParams(),
		BookA:       iqtibas.BookDescriptor{ID: 230, TokenCount: 1000, PageCount: 4},
		BookB:       iqtibas.BookDescriptor{ID: 553, TokenCount: 800, PageCount: 3},
		Summary:     iqtibas.Summary{EdgeCount: 1, TotalAlignedTokens: 42},
		Edges: []edge.Edge{{
			ID:                3,
			SourceBookID:      230,
			SourceStartPage:   stream.PageRef{Part: 1, Page: 2},
			SourceStartOffset: 10,
			SourceEndPage:     stream.PageRef{Part: 1, Page: 2},
			SourceEndOffset:   52,
			SourceGlobalStart: 110,
			SourceGlobalEnd:   152,
			TargetBookID:      553,
			TargetStartPage:   stream.PageRef{Part: 1, Page: 1},
			TargetStartOffset: 0,
			TargetEndPage:     stream.PageRef{Part: 1, Page: 1},
			TargetEndOffset:   42,
			TargetGlobalEnd:   42,
			AlignedLength:     42,
			LemmaMatches:      40,
			Substitutions:     2,
			CoreSimilarity:    40.0 / 42.0,
			SpanCoverage:      1.0,
			ContentWeight:     1.5,
			LemmaSimilarity:   40.0 / 42.0,
			LexicalDiversity:  0.9,
		}},
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleResult()); err != nil {
		t.Fatalf("write json: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	for _, key := range []string{"version", "run_id", "generated_at", "parameters", "book_a", "book_b", "summary", "edges"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("json missing top-level key %q", key)
		}
	}

	edges := decoded["edges"].([]interface{})
	e := edges[0].(map[string]interface{})
	if e["source_global_start"].(float64) != 110 {
		t.Errorf("source_global_start = %v, want 110", e["source_global_start"])
	}
	if _, ok := e["source_text"]; ok {
		t.Error("source_text present without text reconstruction")
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleResult().Edges); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("rows = %d, want header + 1", len(records))
	}
	if records[0][0] != "id" || records[0][len(records[0])-1] != "lexical_diversity" {
		t.Errorf("header boundaries = %q..%q", records[0][0], records[0][len(records[0])-1])
	}
	if len(records[0]) != len(records[1]) {
		t.Errorf("header has %d fields, row has %d", len(records[0]), len(records[1]))
	}
	if records[1][0] != "3" {
		t.Errorf("id column = %q, want 3", records[1][0])
	}
	if records[1][8] != "110" {
		t.Errorf("source_global_start column = %q, want 110", records[1][8])
	}
}

func TestFormatPageLocation(t *testing.T) {
	if got := FormatPageLocation(2, 14, 7); got != "2:14.7" {
		t.Errorf("location = %q, want 2:14.7", got)
	}
}

func TestPrintEdgesLimit(t *testing.T) {
	edges := append(sampleResult().Edges, sampleResult().Edges...)
	var buf bytes.Buffer
	PrintEdges(&buf, edges, 1)
	if !strings.Contains(buf.String(), "and 1 more edges") {
		t.Errorf("limit notice missing:\n%s", buf.String())
	}
}

func TestWriteViewerHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteViewerHTML(&buf, sampleResult()); err != nil {
		t.Fatalf("write viewer: %v", err)
	}
	html := buf.String()
	if !strings.Contains(html, "<!DOCTYPE html>") {
		t.Error("viewer is not an html document")
	}
	if !strings.Contains(html, `"source_global_start"`) {
		t.Error("viewer does not embed the json payload")
	}
	if !strings.Contains(html, "book 230") {
		t.Error("viewer title missing book id")
	}
}
