// Package metadata reads the book-metadata sidecar, a CSV table used
// only to enrich output with titles, authorship, and dating.
package metadata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/cognicore/iqtibas/pkg/iqtibas/internalerr"
)

// Book is one sidecar row. Numeric fields other than ID may be absent
// (zero).
type Book struct {
	ID        uint32
	Corpus    string
	Title     string
	AuthorID  uint32
	DeathAH   uint32
	CenturyAH uint32
	GenreID   uint32
}

// Table is the loaded sidecar, keyed by book id.
type Table map[uint32]Book

// Lookup returns the metadata for a book, ok reporting presence.
func (t Table) Lookup(bookID uint32) (Book, bool) {
	b, ok := t[bookID]
	return b, ok
}

// Load reads a sidecar CSV file. The expected header is
// id,corpus,title,author_id,death_ah,century_ah,genre_id; rows with a
// malformed id fail the load, blank numeric fields parse as zero.
func Load(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrMetadataFailure, err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses sidecar CSV content.
func Read(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 7

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", internalerr.ErrMetadataFailure, err)
	}
	if header[0] != "id" {
		return nil, fmt.Errorf("%w: unexpected header %q", internalerr.ErrMetadataFailure, header[0])
	}

	table := make(Table)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", internalerr.ErrMetadataFailure, err)
		}

		id, err := strconv.ParseUint(record[0], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: book id %q: %v", internalerr.ErrMetadataFailure, record[0], err)
		}

		table[uint32(id)] = Book{
			ID:        uint32(id),
			Corpus:    record[1],
			Title:     record[2],
			AuthorID:  optionalUint32(record[3]),
			DeathAH:   optionalUint32(record[4]),
			CenturyAH: optionalUint32(record[5]),
			GenreID:   optionalUint32(record[6]),
		}
	}
	return table, nil
}

func optionalUint32(s string) uint32 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0
	}
	return uint32(v)
}
