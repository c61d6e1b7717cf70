// Package stream holds the in-memory model of a book: its pages, the
// flat lemma/root/token sequences derived from them, and the offset
// index that maps flat positions back to page coordinates.
package stream

import "sort"

// PageRef identifies a page within a book as (part_index, page_id).
type PageRef struct {
	Part uint32 `json:"part"`
	Page uint32 `json:"page"`
}

// Page is a single page's token content: three parallel id sequences of
// equal length. RootIDs[i] == 0 means the token has no analyzed root.
type Page struct {
	Ref      PageRef
	TokenIDs []uint32
	LemmaIDs []uint32
	RootIDs  []uint32
}

// Len returns the number of tokens on the page.
func (p *Page) Len() int { return len(p.LemmaIDs) }

// BookTokenStream is the complete token stream for a book, immutable
// for the lifetime of a pipeline run. Concatenating the per-page lemma
// sequences in order yields the flat stream of length TotalTokens.
type BookTokenStream struct {
	BookID      uint32
	TotalTokens int
	Pages       []Page
}

// PageCount returns the number of pages in the stream.
func (s *BookTokenStream) PageCount() int { return len(s.Pages) }

// FlatTokenIDs returns all token ids in page order.
func (s *BookTokenStream) FlatTokenIDs() []uint32 {
	return s.flatten(func(p *Page) []uint32 { return p.TokenIDs })
}

// FlatLemmaIDs returns all lemma ids in page order.
func (s *BookTokenStream) FlatLemmaIDs() []uint32 {
	return s.flatten(func(p *Page) []uint32 { return p.LemmaIDs })
}

// FlatRootIDs returns all root ids in page order.
func (s *BookTokenStream) FlatRootIDs() []uint32 {
	return s.flatten(func(p *Page) []uint32 { return p.RootIDs })
}

func (s *BookTokenStream) flatten(sel func(*Page) []uint32) []uint32 {
	out := make([]uint32, 0, s.TotalTokens)
	for i := range s.Pages {
		out = append(out, sel(&s.Pages[i])...)
	}
	return out
}

// LemmaSlice returns the lemma ids in [start, end), clamped to the
// stream bounds. Out-of-range requests return an empty slice.
func (s *BookTokenStream) LemmaSlice(start, end int) []uint32 {
	flat := s.FlatLemmaIDs()
	if start < 0 {
		start = 0
	}
	if start >= len(flat) || start >= end {
		return nil
	}
	if end > len(flat) {
		end = len(flat)
	}
	out := make([]uint32, end-start)
	copy(out, flat[start:end])
	return out
}

// PositionOfPage returns the global offset at which the given page
// begins, or -1 if the stream has no such page.
func (s *BookTokenStream) PositionOfPage(ref PageRef) int {
	pos := 0
	for i := range s.Pages {
		if s.Pages[i].Ref == ref {
			return pos
		}
		pos += s.Pages[i].Len()
	}
	return -1
}

// PageLemmas returns the lemma ids of the given page, or nil.
func (s *BookTokenStream) PageLemmas(ref PageRef) []uint32 {
	for i := range s.Pages {
		if s.Pages[i].Ref == ref {
			return s.Pages[i].LemmaIDs
		}
	}
	return nil
}

// PassageText is reconstructed surface text around a matched span.
type PassageText struct {
	Before  string `json:"before"`
	Matched string `json:"matched"`
	After   string `json:"after"`
}

// PassageText reconstructs the surface text of [start, end) together
// with up to context tokens of surrounding text, using the
// token-id-indexed surfaces table. Unknown token ids are skipped.
func (s *BookTokenStream) PassageText(start, end, context int, surfaces []string) PassageText {
	tokenIDs := s.FlatTokenIDs()
	n := len(tokenIDs)

	ctxStart := start - context
	if ctxStart < 0 {
		ctxStart = 0
	}
	ctxEnd := end + context
	if ctxEnd > n {
		ctxEnd = n
	}

	join := func(lo, hi int) string {
		if lo >= hi || lo >= n {
			return ""
		}
		if hi > n {
			hi = n
		}
		var out []byte
		for _, tid := range tokenIDs[lo:hi] {
			if int(tid) >= len(surfaces) || surfaces[tid] == "" {
				continue
			}
			if len(out) > 0 {
				out = append(out, ' ')
			}
			out = append(out, surfaces[tid]...)
		}
		return string(out)
	}

	return PassageText{
		Before:  join(ctxStart, start),
		Matched: join(start, end),
		After:   join(end, ctxEnd),
	}
}

// pageSpan is one page's [start, end) range in the flat stream.
type pageSpan struct {
	ref   PageRef
	start int
	end   int
}

// PageOffsetIndex maps global positions back to page coordinates.
// The spans cover [0, TotalTokens) in order without gaps.
type PageOffsetIndex struct {
	spans []pageSpan
}

// NewPageOffsetIndex builds the index from a stream's pages.
func NewPageOffsetIndex(s *BookTokenStream) *PageOffsetIndex {
	spans := make([]pageSpan, 0, len(s.Pages))
	off := 0
	for i := range s.Pages {
		end := off + s.Pages[i].Len()
		spans = append(spans, pageSpan{ref: s.Pages[i].Ref, start: off, end: end})
		off = end
	}
	return &PageOffsetIndex{spans: spans}
}

// Locate returns the page containing the global position pos and the
// offset of pos within that page. A position at a page boundary belongs
// to the page whose [start, end) contains it. Positions outside the
// stream clamp to the nearest page.
func (idx *PageOffsetIndex) Locate(pos int) (PageRef, uint32) {
	if len(idx.spans) == 0 {
		return PageRef{}, 0
	}
	i := sort.Search(len(idx.spans), func(i int) bool {
		return pos < idx.spans[i].end
	})
	if i == len(idx.spans) {
		i = len(idx.spans) - 1
	}
	sp := idx.spans[i]
	if pos < sp.start {
		return sp.ref, 0
	}
	return sp.ref, uint32(pos - sp.start)
}

// LemmaStats summarizes the lemma distribution of a stream.
type LemmaStats struct {
	TotalTokens      int
	UniqueLemmas     int
	PageCount        int
	AvgTokensPerPage float64
	MostCommonLemma  uint32
	MostCommonCount  int
}

// Stats computes lemma statistics for a stream.
func Stats(s *BookTokenStream) LemmaStats {
	counts := make(map[uint32]int)
	for _, id := range s.FlatLemmaIDs() {
		counts[id]++
	}

	st := LemmaStats{
		TotalTokens:  s.TotalTokens,
		UniqueLemmas: len(counts),
		PageCount:    len(s.Pages),
	}
	if len(s.Pages) > 0 {
		st.AvgTokensPerPage = float64(s.TotalTokens) / float64(len(s.Pages))
	}
	for id, c := range counts {
		if c > st.MostCommonCount || (c == st.MostCommonCount && id < st.MostCommonLemma) {
			st.MostCommonLemma = id
			st.MostCommonCount = c
		}
	}
	return st
}
