// Package sqlite reads a corpus database: token_definitions,
// page_tokens with little-endian packed u32 blobs, and the pages label
// table.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/cognicore/iqtibas/pkg/iqtibas/internalerr"
	"github.com/cognicore/iqtibas/pkg/iqtibas/store"
	"github.com/cognicore/iqtibas/pkg/iqtibas/stream"
)

// sqliteStore implements store.Store over a corpus database.
type sqliteStore struct {
	db *sql.DB

	mapsOnce sync.Once
	maps     *store.TokenMaps
	mapsErr  error
}

// Open opens a corpus database. The store only ever reads from it; the
// connection itself is opened with the driver's default mode, not a
// read-only one.
func Open(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStorageFailure, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStorageFailure, err)
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection.
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// TokenMaps loads token->lemma, token->root, and token->surface in a
// single pass over token_definitions. The result is cached.
func (s *sqliteStore) TokenMaps(ctx context.Context) (*store.TokenMaps, error) {
	s.mapsOnce.Do(func() {
		s.maps, s.mapsErr = s.loadTokenMaps(ctx)
	})
	return s.maps, s.mapsErr
}

func (s *sqliteStore) loadTokenMaps(ctx context.Context) (*store.TokenMaps, error) {
	var maxID sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT MAX(id) FROM token_definitions`).Scan(&maxID)
	if err != nil {
		return nil, fmt.Errorf("%w: token_definitions: %v", internalerr.ErrStorageFailure, err)
	}
	if !maxID.Valid {
		return &store.TokenMaps{}, nil
	}

	size := maxID.Int64 + 1
	maps := &store.TokenMaps{
		Lemma:   make([]uint32, size),
		Root:    make([]uint32, size),
		Surface: make([]string, size),
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, surface, lemma_id, root_id FROM token_definitions`)
	if err != nil {
		return nil, fmt.Errorf("%w: token_definitions: %v", internalerr.ErrStorageFailure, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id      int64
			surface string
			lemmaID int64
			rootID  sql.NullInt64
		)
		if err := rows.Scan(&id, &surface, &lemmaID, &rootID); err != nil {
			return nil, fmt.Errorf("%w: token_definitions: %v", internalerr.ErrStorageFailure, err)
		}
		if id < 0 || id >= size {
			continue
		}
		maps.Lemma[id] = uint32(lemmaID)
		if rootID.Valid {
			maps.Root[id] = uint32(rootID.Int64)
		}
		maps.Surface[id] = surface
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: token_definitions: %v", internalerr.ErrStorageFailure, err)
	}

	return maps, nil
}

// BookStream loads a book's pages in ascending (part_index, page_id)
// order, decoding each token blob and mapping ids to lemmas and roots.
func (s *sqliteStore) BookStream(ctx context.Context, bookID uint32) (*stream.BookTokenStream, error) {
	maps, err := s.TokenMaps(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT part_index, page_id, token_ids
FROM page_tokens
WHERE book_id = ?
ORDER BY part_index, page_id;
`, bookID)
	if err != nil {
		return nil, fmt.Errorf("%w: page_tokens: %v", internalerr.ErrStorageFailure, err)
	}
	defer rows.Close()

	var (
		pages []stream.Page
		total int
	)
	for rows.Next() {
		var (
			partIndex int64
			pageID    int64
			blob      []byte
		)
		if err := rows.Scan(&partIndex, &pageID, &blob); err != nil {
			return nil, fmt.Errorf("%w: page_tokens: %v", internalerr.ErrStorageFailure, err)
		}

		tokenIDs, err := decodeTokenBlob(blob)
		if err != nil {
			return nil, fmt.Errorf("book %d part %d page %d: %w", bookID, partIndex, pageID, err)
		}

		lemmaIDs := make([]uint32, len(tokenIDs))
		rootIDs := make([]uint32, len(tokenIDs))
		for i, tid := range tokenIDs {
			lemmaIDs[i] = maps.LemmaOf(tid)
			rootIDs[i] = maps.RootOf(tid)
		}

		total += len(tokenIDs)
		pages = append(pages, stream.Page{
			Ref:      stream.PageRef{Part: uint32(partIndex), Page: uint32(pageID)},
			TokenIDs: tokenIDs,
			LemmaIDs: lemmaIDs,
			RootIDs:  rootIDs,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: page_tokens: %v", internalerr.ErrStorageFailure, err)
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: book %d", internalerr.ErrBookNotFound, bookID)
	}

	return &stream.BookTokenStream{
		BookID:      bookID,
		TotalTokens: total,
		Pages:       pages,
	}, nil
}

// decodeTokenBlob unpacks a little-endian u32 array. A blob whose byte
// length is not a multiple of 4 fails with ErrInvalidTokenBlob.
func decodeTokenBlob(blob []byte) ([]uint32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", internalerr.ErrInvalidTokenBlob, len(blob))
	}
	ids := make([]uint32, len(blob)/4)
	for i := range ids {
		ids[i] = binary.LittleEndian.Uint32(blob[i*4:])
	}
	return ids, nil
}

// BookInfo loads page-level summary information for one book.
func (s *sqliteStore) BookInfo(ctx context.Context, bookID uint32) (*store.BookInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT pt.part_index, pt.page_id, LENGTH(pt.token_ids) / 4,
       COALESCE(p.part_label, ''), COALESCE(p.page_number, '')
FROM page_tokens pt
LEFT JOIN pages p ON pt.book_id = p.book_id
                 AND pt.part_index = p.part_index
                 AND pt.page_id = p.page_id
WHERE pt.book_id = ?
ORDER BY pt.part_index, pt.page_id;
`, bookID)
	if err != nil {
		return nil, fmt.Errorf("%w: page_tokens: %v", internalerr.ErrStorageFailure, err)
	}
	defer rows.Close()

	info := &store.BookInfo{BookID: bookID}
	for rows.Next() {
		var (
			partIndex  int64
			pageID     int64
			tokenCount int64
			partLabel  string
			pageNumber string
		)
		if err := rows.Scan(&partIndex, &pageID, &tokenCount, &partLabel, &pageNumber); err != nil {
			return nil, fmt.Errorf("%w: page_tokens: %v", internalerr.ErrStorageFailure, err)
		}
		info.Pages = append(info.Pages, store.PageInfo{
			BookID:     bookID,
			Ref:        stream.PageRef{Part: uint32(partIndex), Page: uint32(pageID)},
			PartLabel:  partLabel,
			PageNumber: pageNumber,
			TokenCount: int(tokenCount),
		})
		info.TotalTokens += int(tokenCount)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: page_tokens: %v", internalerr.ErrStorageFailure, err)
	}

	info.PageCount = len(info.Pages)
	if info.PageCount == 0 {
		return nil, fmt.Errorf("%w: book %d", internalerr.ErrBookNotFound, bookID)
	}

	st, err := s.BookStream(ctx, bookID)
	if err != nil {
		return nil, err
	}
	info.UniqueLemmas = stream.Stats(st).UniqueLemmas

	return info, nil
}

// CorpusStats loads whole-corpus counts.
func (s *sqliteStore) CorpusStats(ctx context.Context) (*store.CorpusStats, error) {
	stats := &store.CorpusStats{}

	queries := []struct {
		query string
		dst   *int64
	}{
		{`SELECT COUNT(DISTINCT book_id) FROM page_tokens`, &stats.TotalBooks},
		{`SELECT COUNT(*) FROM page_tokens`, &stats.TotalPages},
		{`SELECT COALESCE(SUM(LENGTH(token_ids) / 4), 0) FROM page_tokens`, &stats.TotalTokens},
		{`SELECT COUNT(*) FROM lemmas`, &stats.UniqueLemmas},
		{`SELECT COUNT(*) FROM roots`, &stats.UniqueRoots},
		{`SELECT COUNT(*) FROM token_definitions`, &stats.TokenDefinitions},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dst); err != nil {
			return nil, fmt.Errorf("%w: %v", internalerr.ErrStorageFailure, err)
		}
	}

	return stats, nil
}
