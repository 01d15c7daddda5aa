package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/randalmurphal/astchunk/internal/chunk"
)

const sqliteDriver = "sqlite"

const schema = `
CREATE TABLE IF NOT EXISTS chunks (
    id TEXT PRIMARY KEY,
    repo TEXT NOT NULL,
    file_path TEXT NOT NULL,
    language TEXT NOT NULL,
    start_line INTEGER NOT NULL,
    end_line INTEGER NOT NULL,
    byte_start INTEGER NOT NULL,
    byte_stop INTEGER NOT NULL,
    content TEXT NOT NULL,
    chunk_size INTEGER NOT NULL,
    node_count INTEGER NOT NULL,
    ancestors TEXT NOT NULL,
    metadata TEXT NOT NULL,
    is_test INTEGER NOT NULL DEFAULT 0,
    retrieval_weight REAL NOT NULL DEFAULT 1.0,
    indexed_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chunks_file ON chunks(repo, file_path);
CREATE INDEX IF NOT EXISTS idx_chunks_language ON chunks(language);
`

// SQLiteSink keeps the latest chunks of every file in a SQLite table.
type SQLiteSink struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path. Use ":memory:" for a
// throwaway database.
func OpenSQLite(path string) (*SQLiteSink, error) {
	db, err := sql.Open(sqliteDriver, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from single writer; also keeps :memory: on one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteSink{db: db}, nil
}

// Write replaces the stored chunks of every file present in records.
func (s *SQLiteSink) Write(ctx context.Context, records []chunk.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, f := range FilesIn(records) {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM chunks WHERE repo = ? AND file_path = ?`, f.Repo, f.Path); err != nil {
			return fmt.Errorf("clear %s: %w", f.Path, err)
		}
	}

	now := time.Now().UTC()
	for i := range records {
		r := &records[i]

		ancestors, err := json.Marshal(r.Ancestors)
		if err != nil {
			return fmt.Errorf("marshal ancestors: %w", err)
		}
		metadata, err := json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO chunks (id, repo, file_path, language, start_line, end_line,
				byte_start, byte_stop, content, chunk_size, node_count, ancestors,
				metadata, is_test, retrieval_weight, indexed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				content = excluded.content,
				metadata = excluded.metadata,
				indexed_at = excluded.indexed_at`,
			r.ID, r.Repo, r.FilePath, r.Language, r.StartLine, r.EndLine,
			r.ByteStart, r.ByteStop, r.Content, r.Size, r.NodeCount, string(ancestors),
			string(metadata), r.IsTest, r.RetrievalWeight, now)
		if err != nil {
			return fmt.Errorf("insert chunk %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

// FileChunks returns the stored chunks of one file ordered by position.
func (s *SQLiteSink) FileChunks(ctx context.Context, repo, filePath string) ([]chunk.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, language, start_line, end_line, byte_start, byte_stop, content,
			chunk_size, node_count, ancestors, metadata, is_test, retrieval_weight
		FROM chunks WHERE repo = ? AND file_path = ?
		ORDER BY byte_start`, repo, filePath)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []chunk.Record
	for rows.Next() {
		r := chunk.Record{Repo: repo, FilePath: filePath}
		var ancestors, metadata string
		if err := rows.Scan(&r.ID, &r.Language, &r.StartLine, &r.EndLine, &r.ByteStart,
			&r.ByteStop, &r.Content, &r.Size, &r.NodeCount, &ancestors, &metadata,
			&r.IsTest, &r.RetrievalWeight); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(ancestors), &r.Ancestors); err != nil {
			return nil, fmt.Errorf("decode ancestors of %s: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(metadata), &r.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata of %s: %w", r.ID, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Stats summarizes what is stored.
type Stats struct {
	Chunks     int
	Files      int
	ByLanguage map[string]int
}

// Stats counts stored chunks, optionally restricted to repo.
func (s *SQLiteSink) Stats(ctx context.Context, repo string) (*Stats, error) {
	where, args := "", []any{}
	if repo != "" {
		where, args = " WHERE repo = ?", []any{repo}
	}

	st := &Stats{ByLanguage: make(map[string]int)}
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT repo || '/' || file_path) FROM chunks`+where, args...).
		Scan(&st.Chunks, &st.Files)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT language, COUNT(*) FROM chunks`+where+` GROUP BY language`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var language string
		var n int
		if err := rows.Scan(&language, &n); err != nil {
			return nil, err
		}
		st.ByLanguage[language] = n
	}
	return st, rows.Err()
}

// RemoveFiles deletes the chunks of the given files.
func (s *SQLiteSink) RemoveFiles(ctx context.Context, repo string, paths []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, p := range paths {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM chunks WHERE repo = ? AND file_path = ?`, repo, p); err != nil {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return tx.Commit()
}

// DeleteRepo removes every chunk of repo.
func (s *SQLiteSink) DeleteRepo(ctx context.Context, repo string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE repo = ?`, repo)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
