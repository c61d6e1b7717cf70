// Package store defines the read-only corpus store the pipeline loads
// books from.
package store

import (
	"context"

	"github.com/cognicore/iqtibas/pkg/iqtibas/stream"
)

// TokenMaps are the three flat id-to-attribute tables, densely indexed
// by token id and sized max-id+1. Unknown ids map to lemma 0, root 0,
// and an empty surface.
type TokenMaps struct {
	Lemma   []uint32
	Root    []uint32
	Surface []string
}

// LemmaOf returns the lemma id for a token id, 0 for unknown ids.
func (m *TokenMaps) LemmaOf(tokenID uint32) uint32 {
	if int(tokenID) < len(m.Lemma) {
		return m.Lemma[tokenID]
	}
	return 0
}

// RootOf returns the root id for a token id, 0 for unknown ids or
// tokens without an analyzed root.
func (m *TokenMaps) RootOf(tokenID uint32) uint32 {
	if int(tokenID) < len(m.Root) {
		return m.Root[tokenID]
	}
	return 0
}

// SurfaceOf returns the surface form for a token id, "" for unknown.
func (m *TokenMaps) SurfaceOf(tokenID uint32) string {
	if int(tokenID) < len(m.Surface) {
		return m.Surface[tokenID]
	}
	return ""
}

// PageInfo describes one page, with the human-readable labels from the
// pages table when present.
type PageInfo struct {
	BookID     uint32
	Ref        stream.PageRef
	PartLabel  string
	PageNumber string
	TokenCount int
}

// BookInfo summarizes one book.
type BookInfo struct {
	BookID       uint32
	PageCount    int
	TotalTokens  int
	UniqueLemmas int
	Pages        []PageInfo
}

// CorpusStats summarizes the whole corpus.
type CorpusStats struct {
	TotalBooks       int64
	TotalPages       int64
	TotalTokens      int64
	UniqueLemmas     int64
	UniqueRoots      int64
	TokenDefinitions int64
}

// Store is a read-only corpus source. Implementations map raw token ids
// to lemma/root sequences while loading, so a returned stream is ready
// for windowing.
type Store interface {
	// TokenMaps loads the token attribute tables. Implementations may
	// cache the result across calls.
	TokenMaps(ctx context.Context) (*TokenMaps, error)

	// BookStream loads the full token stream of a book in ascending
	// (part_index, page_id) order. A book with no pages fails with
	// internalerr.ErrBookNotFound.
	BookStream(ctx context.Context, bookID uint32) (*stream.BookTokenStream, error)

	// BookInfo loads summary information for one book.
	BookInfo(ctx context.Context, bookID uint32) (*BookInfo, error)

	// CorpusStats loads whole-corpus counts.
	CorpusStats(ctx context.Context) (*CorpusStats, error)

	Close() error
}
