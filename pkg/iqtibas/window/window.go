// Package window slices a book's flat lemma/root stream into
// overlapping fixed-length windows, preserving the map back to page
// coordinates for both endpoints.
package window

import "github.com/cognicore/iqtibas/pkg/iqtibas/stream"

// Config controls window generation.
type Config struct {
	Size      int // window length in tokens
	Stride    int // advance between consecutive window starts
	MinLength int // minimum length for the trailing partial window
}

// Window is a contiguous slice of a book's flat stream with provenance.
// EndPage/EndOffset are resolved from GlobalEnd-1, so the page-level end
// is inclusive.
type Window struct {
	BookID      uint32
	Index       uint32
	GlobalStart int
	GlobalEnd   int
	StartPage   stream.PageRef
	StartOffset uint32
	EndPage     stream.PageRef
	EndOffset   uint32
	LemmaIDs    []uint32
	RootIDs     []uint32
}

// Len returns the window length in tokens.
func (w *Window) Len() int { return w.GlobalEnd - w.GlobalStart }

// Generate emits the windows of a stream in order, Index starting at 0.
//
// Streams shorter than cfg.Size produce a single window covering the
// whole stream, provided it meets MinLength. Full windows are emitted
// at starts 0, Stride, 2*Stride, ... while start+Size fits; a trailing
// partial window is emitted when the tail has at least MinLength tokens.
func Generate(s *stream.BookTokenStream, cfg Config) []Window {
	flatLemmas := s.FlatLemmaIDs()
	flatRoots := s.FlatRootIDs()
	if len(flatLemmas) == 0 {
		return nil
	}

	idx := stream.NewPageOffsetIndex(s)

	if len(flatLemmas) < cfg.Size {
		if len(flatLemmas) < cfg.MinLength {
			return nil
		}
		return []Window{makeWindow(s.BookID, 0, 0, len(flatLemmas), flatLemmas, flatRoots, idx)}
	}

	var windows []Window
	var index uint32
	start := 0
	for start+cfg.Size <= len(flatLemmas) {
		windows = append(windows, makeWindow(s.BookID, index, start, start+cfg.Size, flatLemmas, flatRoots, idx))
		index++
		start += cfg.Stride
	}

	if start < len(flatLemmas) && len(flatLemmas)-start >= cfg.MinLength {
		windows = append(windows, makeWindow(s.BookID, index, start, len(flatLemmas), flatLemmas, flatRoots, idx))
	}

	return windows
}

func makeWindow(bookID, index uint32, start, end int, lemmas, roots []uint32, idx *stream.PageOffsetIndex) Window {
	startPage, startOffset := idx.Locate(start)
	endPage, endOffset := idx.Locate(end - 1)

	w := Window{
		BookID:      bookID,
		Index:       index,
		GlobalStart: start,
		GlobalEnd:   end,
		StartPage:   startPage,
		StartOffset: startOffset,
		EndPage:     endPage,
		EndOffset:   endOffset,
		LemmaIDs:    make([]uint32, end-start),
		RootIDs:     make([]uint32, end-start),
	}
	copy(w.LemmaIDs, lemmas[start:end])
	copy(w.RootIDs, roots[start:end])
	return w
}

// Count predicts how many windows Generate will emit for a stream of
// the given flat length.
func Count(length int, cfg Config) int {
	if length == 0 {
		return 0
	}
	if length < cfg.Size {
		if length < cfg.MinLength {
			return 0
		}
		return 1
	}
	n := 0
	start := 0
	for start+cfg.Size <= length {
		n++
		start += cfg.Stride
	}
	if start < length && length-start >= cfg.MinLength {
		n++
	}
	return n
}
