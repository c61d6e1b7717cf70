// Package memstore is an in-memory store.Store used by tests and by
// embedders that already hold their corpus in memory.
package memstore

import (
	"context"
	"fmt"

	"github.com/cognicore/iqtibas/pkg/iqtibas/internalerr"
	"github.com/cognicore/iqtibas/pkg/iqtibas/store"
	"github.com/cognicore/iqtibas/pkg/iqtibas/stream"
)

// Store holds streams and token maps directly.
type Store struct {
	maps    *store.TokenMaps
	streams map[uint32]*stream.BookTokenStream
	labels  map[uint32][]store.PageInfo
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		maps:    &store.TokenMaps{},
		streams: make(map[uint32]*stream.BookTokenStream),
		labels:  make(map[uint32][]store.PageInfo),
	}
}

// SetTokenMaps installs the token attribute tables.
func (s *Store) SetTokenMaps(maps *store.TokenMaps) { s.maps = maps }

// AddStream registers a book's token stream.
func (s *Store) AddStream(st *stream.BookTokenStream) { s.streams[st.BookID] = st }

// AddLemmaBook registers a book built from a flat lemma sequence on a
// single page; token ids equal lemma ids and roots are absent. Handy in
// tests that only care about lemma matching.
func (s *Store) AddLemmaBook(bookID uint32, lemmas []uint32) {
	ids := make([]uint32, len(lemmas))
	copy(ids, lemmas)
	s.AddStream(&stream.BookTokenStream{
		BookID:      bookID,
		TotalTokens: len(ids),
		Pages: []stream.Page{{
			Ref:      stream.PageRef{Part: 1, Page: 1},
			TokenIDs: ids,
			LemmaIDs: ids,
			RootIDs:  make([]uint32, len(ids)),
		}},
	})
}

// TokenMaps returns the installed maps.
func (s *Store) TokenMaps(ctx context.Context) (*store.TokenMaps, error) {
	return s.maps, nil
}

// BookStream returns the registered stream for a book.
func (s *Store) BookStream(ctx context.Context, bookID uint32) (*stream.BookTokenStream, error) {
	st, ok := s.streams[bookID]
	if !ok {
		return nil, fmt.Errorf("%w: book %d", internalerr.ErrBookNotFound, bookID)
	}
	return st, nil
}

// BookInfo summarizes a registered book.
func (s *Store) BookInfo(ctx context.Context, bookID uint32) (*store.BookInfo, error) {
	st, ok := s.streams[bookID]
	if !ok {
		return nil, fmt.Errorf("%w: book %d", internalerr.ErrBookNotFound, bookID)
	}

	info := &store.BookInfo{
		BookID:       bookID,
		PageCount:    st.PageCount(),
		TotalTokens:  st.TotalTokens,
		UniqueLemmas: stream.Stats(st).UniqueLemmas,
	}
	if labels, ok := s.labels[bookID]; ok {
		info.Pages = labels
	} else {
		for i := range st.Pages {
			info.Pages = append(info.Pages, store.PageInfo{
				BookID:     bookID,
				Ref:        st.Pages[i].Ref,
				TokenCount: st.Pages[i].Len(),
			})
		}
	}
	return info, nil
}

// CorpusStats summarizes the registered books.
func (s *Store) CorpusStats(ctx context.Context) (*store.CorpusStats, error) {
	stats := &store.CorpusStats{
		TotalBooks:       int64(len(s.streams)),
		TokenDefinitions: int64(len(s.maps.Lemma)),
	}

	lemmas := make(map[uint32]struct{})
	roots := make(map[uint32]struct{})
	for _, st := range s.streams {
		stats.TotalPages += int64(st.PageCount())
		stats.TotalTokens += int64(st.TotalTokens)
		for _, id := range st.FlatLemmaIDs() {
			lemmas[id] = struct{}{}
		}
		for _, id := range st.FlatRootIDs() {
			if id != 0 {
				roots[id] = struct{}{}
			}
		}
	}
	stats.UniqueLemmas = int64(len(lemmas))
	stats.UniqueRoots = int64(len(roots))
	return stats, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
