// Command iqtibas detects text reuse between books of a lemmatized
// Arabic corpus.
//
// Subcommands:
//
//	compare  compare two books and write JSON/CSV/HTML results
//	info     show information about one book
//	stats    show whole-corpus statistics
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/cognicore/iqtibas/pkg/iqtibas"
	"github.com/cognicore/iqtibas/pkg/iqtibas/align"
	"github.com/cognicore/iqtibas/pkg/iqtibas/config"
	"github.com/cognicore/iqtibas/pkg/iqtibas/metadata"
	"github.com/cognicore/iqtibas/pkg/iqtibas/output"
	"github.com/cognicore/iqtibas/pkg/iqtibas/store/sqlite"
)

func main() {
	log.SetFlags(0)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "compare":
		runCompare(os.Args[2:])
	case "info":
		runInfo(os.Args[2:])
	case "stats":
		runStats(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: iqtibas <compare|info|stats> [flags]")
}

func runCompare(args []string) {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)

	var (
		corpusDB  = fs.String("corpus-db", "", "Path to corpus.db (required)")
		bookA     = fs.Uint("book-a", 0, "First book ID (required)")
		bookB     = fs.Uint("book-b", 0, "Second book ID (required)")
		outPath   = fs.String("output", "", "Output file path (required)")
		format    = fs.String("format", "json", "Output format: json, csv, or viewer")
		alsoCSV   = fs.Bool("csv", false, "Also write a CSV file next to the output")
		withText  = fs.Bool("include-text", true, "Include reconstructed text in output")
		ctxTokens = fs.Int("context-tokens", 30, "Context tokens before/after each match")
		paramFile = fs.String("params", "", "Optional YAML parameter file")
		metaFile  = fs.String("metadata", "", "Optional book-metadata CSV sidecar")
		quiet     = fs.Bool("quiet", false, "Suppress progress output")
		showEdges = fs.Int("show-edges", 0, "Print first N edges to the console")
	)

	defaults := iqtibas.DefaultParams()

	var (
		windowSize        = fs.Int("window-size", defaults.WindowSize, "Window size in tokens")
		stride            = fs.Int("stride", defaults.Stride, "Stride between windows")
		ngramSize         = fs.Int("ngram-size", defaults.NgramSize, "N-gram size for filtering")
		minSharedShingles = fs.Int("min-shared-shingles", defaults.MinSharedShingles, "Minimum shared shingles per candidate pair")
		minLength         = fs.Int("min-length", defaults.MinLength, "Minimum aligned length")
		minSimilarity     = fs.Float64("min-similarity", defaults.MinSimilarity, "Minimum similarity ratio")
		lemmaScore        = fs.Int("lemma-score", defaults.LemmaScore, "Score for a lemma match")
		rootScore         = fs.Int("root-score", defaults.RootScore, "Score for a root-only match")
		mismatchPenalty   = fs.Int("mismatch-penalty", defaults.MismatchPenalty, "Penalty for a mismatch")
		gapPenalty        = fs.Int("gap-penalty", defaults.GapPenalty, "Penalty for a gap")
		bruteForce        = fs.Bool("brute-force", defaults.BruteForce, "Skip filtering, align all window pairs")
		useWeights        = fs.Bool("use-weights", defaults.UseWeights, "Apply document-internal IDF weighting")
		maxMergeGap       = fs.Int("max-merge-gap", defaults.MaxMergeGap, "Merge edges separated by at most this many tokens (0 disables)")
		noFilters         = fs.Bool("no-filters", defaults.NoFilters, "Disable all metric filters")
		workers           = fs.Int("workers", defaults.Workers, "Alignment worker count (0 = GOMAXPROCS)")
		mode              = fs.String("mode", "combined", "Matching mode: lemma, root, or combined")

		minWeightedSim   = fs.Float64("min-weighted-similarity", 0, "Filter by weighted similarity")
		minCoreSim       = fs.Float64("min-core-similarity", 0, "Filter by core similarity")
		minSpanCov       = fs.Float64("min-span-coverage", 0, "Filter by span coverage")
		minContentWeight = fs.Float64("min-content-weight", 0, "Filter by content weight")
		minLexDiversity  = fs.Float64("min-lexical-diversity", 0, "Filter by lexical diversity")
	)

	fs.Parse(args)

	if *corpusDB == "" {
		log.Fatal("-corpus-db required")
	}
	if *bookA == 0 || *bookB == 0 {
		log.Fatal("-book-a and -book-b required")
	}
	if *outPath == "" {
		log.Fatal("-output required")
	}

	params := defaults
	if *paramFile != "" {
		loaded, err := config.LoadParams(*paramFile)
		if err != nil {
			log.Fatalf("load params: %v", err)
		}
		params = loaded
	} else {
		// The CLI defaults to combined mode; the library default stays
		// lemma for embedders.
		params.Mode = align.ModeCombined
	}

	// Flags that were given explicitly win over file-loaded values;
	// the metric gates are pointer-valued and only ever set by an
	// explicit flag.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "window-size":
			params.WindowSize = *windowSize
		case "stride":
			params.Stride = *stride
		case "ngram-size":
			params.NgramSize = *ngramSize
		case "min-shared-shingles":
			params.MinSharedShingles = *minSharedShingles
		case "min-length":
			params.MinLength = *minLength
		case "min-similarity":
			params.MinSimilarity = *minSimilarity
		case "lemma-score":
			params.LemmaScore = *lemmaScore
		case "root-score":
			params.RootScore = *rootScore
		case "mismatch-penalty":
			params.MismatchPenalty = *mismatchPenalty
		case "gap-penalty":
			params.GapPenalty = *gapPenalty
		case "brute-force":
			params.BruteForce = *bruteForce
		case "use-weights":
			params.UseWeights = *useWeights
		case "max-merge-gap":
			params.MaxMergeGap = *maxMergeGap
		case "no-filters":
			params.NoFilters = *noFilters
		case "workers":
			params.Workers = *workers
		case "mode":
			parsed, err := align.ParseMode(*mode)
			if err != nil {
				log.Fatalf("parse mode: %v", err)
			}
			params.Mode = parsed
		case "min-weighted-similarity":
			params.MinWeightedSimilarity = minWeightedSim
		case "min-core-similarity":
			params.MinCoreSimilarity = minCoreSim
		case "min-span-coverage":
			params.MinSpanCoverage = minSpanCov
		case "min-content-weight":
			params.MinContentWeight = minContentWeight
		case "min-lexical-diversity":
			params.MinLexicalDiversity = minLexDiversity
		}
	})

	if err := params.Validate(); err != nil {
		log.Fatalf("invalid parameters: %v", err)
	}

	ctx := context.Background()

	st, err := sqlite.Open(ctx, *corpusDB)
	if err != nil {
		log.Fatalf("open corpus: %v", err)
	}
	defer st.Close()

	var meta metadata.Table
	if *metaFile != "" {
		meta, err = metadata.Load(*metaFile)
		if err != nil {
			log.Fatalf("load metadata: %v", err)
		}
	}

	comparer := iqtibas.NewComparer(st, meta)

	if !*quiet {
		log.Printf("Comparing books %d and %d...", *bookA, *bookB)
	}

	needText := *withText || *format == "viewer"

	var result *iqtibas.Result
	if needText {
		result, err = comparer.CompareWithText(ctx, uint32(*bookA), uint32(*bookB), params, *ctxTokens)
	} else {
		result, err = comparer.Compare(ctx, uint32(*bookA), uint32(*bookB), params)
	}
	if err != nil {
		log.Fatalf("compare: %v", err)
	}

	switch *format {
	case "json":
		err = output.WriteJSONFile(*outPath, result)
	case "csv":
		err = output.WriteCSVFile(*outPath, result.Edges)
	case "viewer":
		htmlPath := withExtension(*outPath, ".html")
		err = output.WriteViewerHTMLFile(htmlPath, result)
		if err == nil && !*quiet {
			log.Printf("Viewer output: %s", htmlPath)
		}
	default:
		log.Fatalf("unknown format %q", *format)
	}
	if err != nil {
		log.Fatalf("write output: %v", err)
	}

	if *alsoCSV && *format != "csv" {
		csvPath := withExtension(*outPath, ".csv")
		if err := output.WriteCSVFile(csvPath, result.Edges); err != nil {
			log.Fatalf("write csv: %v", err)
		}
		if !*quiet {
			log.Printf("CSV output: %s", csvPath)
		}
	}

	if !*quiet {
		output.PrintSummary(os.Stderr, result)
		log.Printf("\nOutput: %s", *outPath)
	}

	if *showEdges > 0 {
		fmt.Println("\n=== Sample Edges ===")
		output.PrintEdges(os.Stdout, result.Edges, *showEdges)
	}
}

func withExtension(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

func runInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	corpusDB := fs.String("corpus-db", "", "Path to corpus.db (required)")
	bookID := fs.Uint("book-id", 0, "Book ID (required)")
	showPages := fs.Bool("show-pages", false, "Show individual pages")
	fs.Parse(args)

	if *corpusDB == "" {
		log.Fatal("-corpus-db required")
	}
	if *bookID == 0 {
		log.Fatal("-book-id required")
	}

	ctx := context.Background()
	st, err := sqlite.Open(ctx, *corpusDB)
	if err != nil {
		log.Fatalf("open corpus: %v", err)
	}
	defer st.Close()

	info, err := st.BookInfo(ctx, uint32(*bookID))
	if err != nil {
		log.Fatalf("book info: %v", err)
	}

	fmt.Printf("=== Book %d ===\n", info.BookID)
	table := tablewriter.NewTable(os.Stdout)
	table.Header([]string{"Pages", "Tokens", "Unique lemmas", "Tokens/page"})
	table.Append([]string{
		strconv.Itoa(info.PageCount),
		strconv.Itoa(info.TotalTokens),
		strconv.Itoa(info.UniqueLemmas),
		fmt.Sprintf("%.1f", float64(info.TotalTokens)/float64(info.PageCount)),
	})
	if err := table.Render(); err != nil {
		log.Fatalf("render table: %v", err)
	}

	if *showPages {
		pages := tablewriter.NewTable(os.Stdout)
		pages.Header([]string{"Part", "Page", "Label", "Tokens"})
		for _, p := range info.Pages {
			label := p.PageNumber
			if label == "" {
				label = p.PartLabel
			}
			if label == "" {
				label = "-"
			}
			pages.Append([]string{
				strconv.FormatUint(uint64(p.Ref.Part), 10),
				strconv.FormatUint(uint64(p.Ref.Page), 10),
				label,
				strconv.Itoa(p.TokenCount),
			})
		}
		if err := pages.Render(); err != nil {
			log.Fatalf("render table: %v", err)
		}
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	corpusDB := fs.String("corpus-db", "", "Path to corpus.db (required)")
	fs.Parse(args)

	if *corpusDB == "" {
		log.Fatal("-corpus-db required")
	}

	ctx := context.Background()
	st, err := sqlite.Open(ctx, *corpusDB)
	if err != nil {
		log.Fatalf("open corpus: %v", err)
	}
	defer st.Close()

	stats, err := st.CorpusStats(ctx)
	if err != nil {
		log.Fatalf("corpus stats: %v", err)
	}

	fmt.Println("=== Corpus Statistics ===")
	table := tablewriter.NewTable(os.Stdout)
	table.Header([]string{"Metric", "Count"})
	rows := [][2]string{
		{"Books", strconv.FormatInt(stats.TotalBooks, 10)},
		{"Pages", strconv.FormatInt(stats.TotalPages, 10)},
		{"Tokens", strconv.FormatInt(stats.TotalTokens, 10)},
		{"Unique lemmas", strconv.FormatInt(stats.UniqueLemmas, 10)},
		{"Unique roots", strconv.FormatInt(stats.UniqueRoots, 10)},
		{"Token definitions", strconv.FormatInt(stats.TokenDefinitions, 10)},
	}
	for _, r := range rows {
		table.Append([]string{r[0], r[1]})
	}
	if err := table.Render(); err != nil {
		log.Fatalf("render table: %v", err)
	}
}
