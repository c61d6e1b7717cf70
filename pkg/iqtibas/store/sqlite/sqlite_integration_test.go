package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/cognicore/iqtibas/pkg/iqtibas/internalerr"
)

func newTestCorpus(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.db")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	schema := `
CREATE TABLE token_definitions (
	id INTEGER PRIMARY KEY,
	surface TEXT NOT NULL,
	lemma_id INTEGER NOT NULL,
	root_id INTEGER
);
CREATE TABLE page_tokens (
	book_id INTEGER NOT NULL,
	part_index INTEGER NOT NULL,
	page_id INTEGER NOT NULL,
	token_ids BLOB NOT NULL,
	PRIMARY KEY(book_id, part_index, page_id)
);
CREATE TABLE pages (
	book_id INTEGER NOT NULL,
	part_index INTEGER NOT NULL,
	page_id INTEGER NOT NULL,
	part_label TEXT,
	page_number TEXT,
	PRIMARY KEY(book_id, part_index, page_id)
);
CREATE TABLE lemmas (id INTEGER PRIMARY KEY, form TEXT);
CREATE TABLE roots (id INTEGER PRIMARY KEY, form TEXT);
`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("schema: %v", err)
	}

	// Token i maps to lemma 100+i; even tokens carry root 200+i, odd
	// tokens are unanalyzed.
	for i := 1; i <= 20; i++ {
		var root interface{}
		if i%2 == 0 {
			root = 200 + i
		}
		if _, err := db.Exec(
			`INSERT INTO token_definitions (id, surface, lemma_id, root_id) VALUES (?, ?, ?, ?)`,
			i, "w"+string(rune('a'+i-1)), 100+i, root,
		); err != nil {
			t.Fatalf("insert token %d: %v", i, err)
		}
		if _, err := db.Exec(`INSERT INTO lemmas (id) VALUES (?)`, 100+i); err != nil {
			t.Fatalf("insert lemma: %v", err)
		}
	}
	for i := 2; i <= 20; i += 2 {
		if _, err := db.Exec(`INSERT INTO roots (id) VALUES (?)`, 200+i); err != nil {
			t.Fatalf("insert root: %v", err)
		}
	}

	insertPage := func(book, part, page int, tokens ...uint32) {
		blob := make([]byte, len(tokens)*4)
		for i, id := range tokens {
			binary.LittleEndian.PutUint32(blob[i*4:], id)
		}
		if _, err := db.Exec(
			`INSERT INTO page_tokens (book_id, part_index, page_id, token_ids) VALUES (?, ?, ?, ?)`,
			book, part, page, blob,
		); err != nil {
			t.Fatalf("insert page: %v", err)
		}
	}
	insertPage(1, 1, 1, 1, 2, 3, 4, 5)
	insertPage(1, 1, 2, 6, 7, 8, 9, 10)
	insertPage(1, 2, 1, 11, 12, 13)
	insertPage(2, 1, 1, 5, 6, 7, 8)

	if _, err := db.Exec(
		`INSERT INTO pages (book_id, part_index, page_id, part_label, page_number) VALUES (1, 1, 1, 'part one', '5a')`,
	); err != nil {
		t.Fatalf("insert page label: %v", err)
	}

	return path
}

func TestTokenMaps(t *testing.T) {
	s, err := Open(context.Background(), newTestCorpus(t))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()

	maps, err := s.TokenMaps(context.Background())
	if err != nil {
		t.Fatalf("token maps: %v", err)
	}
	if got := maps.LemmaOf(3); got != 103 {
		t.Errorf("lemma of token 3 = %d, want 103", got)
	}
	if got := maps.RootOf(4); got != 204 {
		t.Errorf("root of token 4 = %d, want 204", got)
	}
	if got := maps.RootOf(3); got != 0 {
		t.Errorf("root of unanalyzed token 3 = %d, want 0", got)
	}
	if got := maps.LemmaOf(9999); got != 0 {
		t.Errorf("lemma of unknown token = %d, want 0", got)
	}
	if got := maps.SurfaceOf(9999); got != "" {
		t.Errorf("surface of unknown token = %q, want empty", got)
	}
}

func TestBookStream(t *testing.T) {
	s, err := Open(context.Background(), newTestCorpus(t))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()

	st, err := s.BookStream(context.Background(), 1)
	if err != nil {
		t.Fatalf("book stream: %v", err)
	}
	if st.TotalTokens != 13 {
		t.Errorf("total tokens = %d, want 13", st.TotalTokens)
	}
	if st.PageCount() != 3 {
		t.Errorf("pages = %d, want 3", st.PageCount())
	}

	// Pages arrive in (part_index, page_id) order.
	wantParts := []uint32{1, 1, 2}
	for i, p := range st.Pages {
		if p.Ref.Part != wantParts[i] {
			t.Errorf("page %d part = %d, want %d", i, p.Ref.Part, wantParts[i])
		}
	}

	flat := st.FlatLemmaIDs()
	if flat[0] != 101 || flat[12] != 113 {
		t.Errorf("flat lemma boundaries = %d..%d, want 101..113", flat[0], flat[12])
	}

	roots := st.FlatRootIDs()
	if roots[0] != 0 || roots[1] != 202 {
		t.Errorf("roots = %d,%d, want 0,202", roots[0], roots[1])
	}
}

func TestBookNotFound(t *testing.T) {
	s, err := Open(context.Background(), newTestCorpus(t))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()

	_, err = s.BookStream(context.Background(), 99)
	if !errors.Is(err, internalerr.ErrBookNotFound) {
		t.Errorf("missing book error = %v, want ErrBookNotFound", err)
	}
	_, err = s.BookInfo(context.Background(), 99)
	if !errors.Is(err, internalerr.ErrBookNotFound) {
		t.Errorf("missing book info error = %v, want ErrBookNotFound", err)
	}
}

func TestInvalidTokenBlob(t *testing.T) {
	path := newTestCorpus(t)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := db.Exec(
		`INSERT INTO page_tokens (book_id, part_index, page_id, token_ids) VALUES (3, 1, 1, ?)`,
		[]byte{1, 2, 3},
	); err != nil {
		t.Fatalf("insert bad blob: %v", err)
	}
	db.Close()

	s, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()

	_, err = s.BookStream(context.Background(), 3)
	if !errors.Is(err, internalerr.ErrInvalidTokenBlob) {
		t.Errorf("bad blob error = %v, want ErrInvalidTokenBlob", err)
	}
}

func TestBookInfo(t *testing.T) {
	s, err := Open(context.Background(), newTestCorpus(t))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()

	info, err := s.BookInfo(context.Background(), 1)
	if err != nil {
		t.Fatalf("book info: %v", err)
	}
	if info.PageCount != 3 || info.TotalTokens != 13 {
		t.Errorf("info = %d pages / %d tokens, want 3 / 13", info.PageCount, info.TotalTokens)
	}
	if info.UniqueLemmas != 13 {
		t.Errorf("unique lemmas = %d, want 13", info.UniqueLemmas)
	}
	if info.Pages[0].PartLabel != "part one" || info.Pages[0].PageNumber != "5a" {
		t.Errorf("page labels = %q/%q, want from pages table", info.Pages[0].PartLabel, info.Pages[0].PageNumber)
	}
	if info.Pages[1].PartLabel != "" {
		t.Errorf("unlabeled page carries label %q", info.Pages[1].PartLabel)
	}
}

func TestCorpusStats(t *testing.T) {
	s, err := Open(context.Background(), newTestCorpus(t))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()

	stats, err := s.CorpusStats(context.Background())
	if err != nil {
		t.Fatalf("corpus stats: %v", err)
	}
	if stats.TotalBooks != 2 {
		t.Errorf("books = %d, want 2", stats.TotalBooks)
	}
	if stats.TotalPages != 4 {
		t.Errorf("pages = %d, want 4", stats.TotalPages)
	}
	if stats.TotalTokens != 17 {
		t.Errorf("tokens = %d, want 17", stats.TotalTokens)
	}
	if stats.TokenDefinitions != 20 {
		t.Errorf("token definitions = %d, want 20", stats.TokenDefinitions)
	}
}
