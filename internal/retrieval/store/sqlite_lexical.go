package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // pure-Go sqlite driver, no cgo
)

// SQLiteLexicalStore is an FTS5-backed keyword search adapter: documents
// are indexed into a virtual table and searched with SQLite's built-in
// BM25 ranking function. modernc.org/sqlite is the pure-Go driver already
// in the dependency stack, so no cgo toolchain is required to run it.
type SQLiteLexicalStore struct {
	db *sql.DB
}

// OpenSQLiteLexicalStore opens (creating if necessary) an FTS5 virtual
// table at dsn (e.g. "file:lexical.db" or ":memory:").
func OpenSQLiteLexicalStore(dsn string) (*SQLiteLexicalStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}

	const schema = `CREATE VIRTUAL TABLE IF NOT EXISTS docs USING fts5(doc_id UNINDEXED, text, metadata_json UNINDEXED);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create fts5 table: %w", err)
	}

	return &SQLiteLexicalStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteLexicalStore) Close() error {
	return s.db.Close()
}

// Index inserts or replaces one document in the FTS5 table. metadataJSON
// is an opaque string the caller is responsible for encoding/decoding
// (kept as a plain column rather than a structured type to avoid coupling
// this package to a metadata schema).
func (s *SQLiteLexicalStore) Index(ctx context.Context, docID, text, metadataJSON string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM docs WHERE doc_id = ?`, docID)
	if err != nil {
		return fmt.Errorf("store: delete existing doc: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO docs (doc_id, text, metadata_json) VALUES (?, ?, ?)`, docID, text, metadataJSON)
	if err != nil {
		return fmt.Errorf("store: index doc: %w", err)
	}
	return nil
}

// LexicalSearch runs an FTS5 MATCH query ranked by bm25(), ascending
// (SQLite's bm25 is lower-is-better), and returns the top k as
// ScoredDoc with Score negated so higher is better, matching
// DenseSearch's convention. The filters argument is not applied.
func (s *SQLiteLexicalStore) LexicalSearch(ctx context.Context, queryText string, k int, _ Filters) ([]ScoredDoc, error) {
	query := sanitizeFTSQuery(queryText)
	if query == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT doc_id, bm25(docs) AS rank FROM docs WHERE docs MATCH ? ORDER BY rank ASC LIMIT ?`,
		query, k)
	if err != nil {
		return nil, fmt.Errorf("store: lexical search: %w", err)
	}
	defer rows.Close()

	var out []ScoredDoc
	for rows.Next() {
		var docID string
		var rank float64
		if err := rows.Scan(&docID, &rank); err != nil {
			return nil, fmt.Errorf("store: scan lexical result: %w", err)
		}
		out = append(out, ScoredDoc{DocID: docID, Score: -rank})
	}
	return out, rows.Err()
}

// Fetch returns the stored text/metadata for each requested doc id.
func (s *SQLiteLexicalStore) Fetch(ctx context.Context, docIDs []string) ([]Document, error) {
	if len(docIDs) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(docIDs))
	args := make([]any, len(docIDs))
	for i, id := range docIDs {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`SELECT doc_id, text, metadata_json FROM docs WHERE doc_id IN (%s)`, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: fetch docs: %w", err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var d Document
		var metadataJSON string
		if err := rows.Scan(&d.DocID, &d.Text, &metadataJSON); err != nil {
			return nil, fmt.Errorf("store: scan fetched doc: %w", err)
		}
		d.Metadata = map[string]string{"raw": metadataJSON}
		out = append(out, d)
	}
	return out, rows.Err()
}

// sanitizeFTSQuery strips FTS5 query-syntax characters a raw user query
// might contain so MATCH treats the input as plain keywords rather than
// a (possibly malformed) FTS5 query expression.
func sanitizeFTSQuery(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch r {
		case '"', '*', '^', '(', ')', ':', '-':
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
