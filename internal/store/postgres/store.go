// Package postgres provides a Postgres-backed DocumentStore.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pagehound/pagehound/internal/store"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for document rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Store persists documents in a Postgres table. The id column is a
// BIGSERIAL, so IDs are assigned by the database and never reused; the url
// column carries a UNIQUE constraint enforcing one row per URL.
type Store struct {
	pool  pgxPool
	table string
}

// New creates a Postgres-backed Store using the provided config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "documents"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: pool, table: table}, nil
}

// NewWithPool constructs a Store from an existing pool (primarily for testing).
func NewWithPool(pool pgxPool, table string) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "documents"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Store{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Put upserts a document by URL and returns its ID.
func (s *Store) Put(ctx context.Context, doc store.Document) (int64, error) {
	if doc.URL == "" {
		return 0, fmt.Errorf("document url is required")
	}
	headingsJSON, err := json.Marshal(normalizeHeadings(doc.Headings))
	if err != nil {
		return 0, fmt.Errorf("marshal headings: %w", err)
	}
	query := fmt.Sprintf(`
INSERT INTO %s (url, title, description, body, headings, fetched_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (url) DO UPDATE SET
	title = EXCLUDED.title,
	description = EXCLUDED.description,
	body = EXCLUDED.body,
	headings = EXCLUDED.headings,
	fetched_at = EXCLUDED.fetched_at
RETURNING id`, s.table)

	var id int64
	row := s.pool.QueryRow(ctx, query, doc.URL, doc.Title, doc.Description, doc.Body, headingsJSON, doc.FetchedAt)
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("upsert document: %w", err)
	}
	return id, nil
}

// Get returns the document with the given ID.
func (s *Store) Get(ctx context.Context, id int64) (store.Document, error) {
	query := fmt.Sprintf(`
SELECT id, url, title, description, body, headings, fetched_at
FROM %s WHERE id = $1`, s.table)
	return s.scanOne(s.pool.QueryRow(ctx, query, id))
}

// GetByURL returns the document stored for a URL.
func (s *Store) GetByURL(ctx context.Context, url string) (store.Document, error) {
	query := fmt.Sprintf(`
SELECT id, url, title, description, body, headings, fetched_at
FROM %s WHERE url = $1`, s.table)
	return s.scanOne(s.pool.QueryRow(ctx, query, url))
}

// ListIDs returns all document IDs in ascending order.
func (s *Store) ListIDs(ctx context.Context) ([]int64, error) {
	query := fmt.Sprintf(`SELECT id FROM %s ORDER BY id`, s.table)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list document ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan document id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list document ids: %w", err)
	}
	return ids, nil
}

// Delete removes a document by ID.
func (s *Store) Delete(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.table)
	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Count returns the number of stored documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	query := fmt.Sprintf(`SELECT count(*) FROM %s`, s.table)
	var n int
	if err := s.pool.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

func (s *Store) scanOne(row pgx.Row) (store.Document, error) {
	var (
		doc          store.Document
		headingsJSON []byte
	)
	err := row.Scan(&doc.ID, &doc.URL, &doc.Title, &doc.Description, &doc.Body, &headingsJSON, &doc.FetchedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.Document{}, store.ErrNotFound
	}
	if err != nil {
		return store.Document{}, fmt.Errorf("scan document: %w", err)
	}
	if len(headingsJSON) > 0 {
		if err := json.Unmarshal(headingsJSON, &doc.Headings); err != nil {
			return store.Document{}, fmt.Errorf("unmarshal headings: %w", err)
		}
	}
	return doc, nil
}

func normalizeHeadings(h []string) []string {
	if h == nil {
		return []string{}
	}
	return h
}
