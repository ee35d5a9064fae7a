package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/alimasry/roadmap-planner/roadmap"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS roadmaps (
	id TEXT PRIMARY KEY,
	body TEXT NOT NULL,
	version INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// SQLiteStore persists roadmaps as JSON rows in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies the
// schema. Use ":memory:" for a throwaway database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	// One connection: SQLite has a single writer, and an in-memory
	// database exists per connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=10000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Create(ctx context.Context, id string, doc roadmap.Roadmap) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode roadmap %q: %w", id, err)
	}
	now := time.Now().UnixMicro()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO roadmaps (id, body, version, created_at, updated_at)
		 VALUES (?, ?, 0, ?, ?) ON CONFLICT(id) DO NOTHING`,
		id, string(body), now, now)
	if err != nil {
		return fmt.Errorf("create roadmap %q: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("roadmap %q: %w", id, ErrExists)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, body, version, created_at, updated_at FROM roadmaps WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("roadmap %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, body, version, created_at, updated_at FROM roadmaps ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list roadmaps: %w", err)
	}
	defer rows.Close()

	var result []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rec)
	}
	return result, rows.Err()
}

func (s *SQLiteStore) Update(ctx context.Context, id string, doc roadmap.Roadmap, version int) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode roadmap %q: %w", id, err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE roadmaps SET body = ?, version = ?, updated_at = ? WHERE id = ?`,
		string(body), version, time.Now().UnixMicro(), id)
	if err != nil {
		return fmt.Errorf("update roadmap %q: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("roadmap %q: %w", id, ErrNotFound)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*Record, error) {
	var (
		rec              Record
		body             string
		created, updated int64
	)
	if err := sc.Scan(&rec.ID, &body, &rec.Version, &created, &updated); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(body), &rec.Roadmap); err != nil {
		return nil, fmt.Errorf("decode roadmap %q: %w", rec.ID, err)
	}
	rec.CreatedAt = time.UnixMicro(created)
	rec.UpdatedAt = time.UnixMicro(updated)
	return &rec, nil
}
