package artifact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore keeps artifacts in a single table keyed by (workspace, path).
type PostgresStore struct {
	db         *sql.DB
	workspace  string
	schemaOnce sync.Once
	schemaErr  error
}

// OpenPostgresStore opens a pgx-backed database handle for dsn.
func OpenPostgresStore(dsn, workspace string) (*PostgresStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return NewPostgresStore(db, workspace), nil
}

func NewPostgresStore(db *sql.DB, workspace string) *PostgresStore {
	workspace = strings.TrimSpace(workspace)
	if workspace == "" {
		workspace = "default"
	}
	return &PostgresStore{db: db, workspace: workspace}
}

func (s *PostgresStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("db is nil")
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS artifact_files (
    id SERIAL PRIMARY KEY,
    workspace TEXT NOT NULL,
    path TEXT NOT NULL,
    content BYTEA NOT NULL DEFAULT ''::bytea,
    size BIGINT NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
    UNIQUE(workspace, path)
);
CREATE INDEX IF NOT EXISTS idx_artifact_files_workspace ON artifact_files(workspace);
`)
	})
	return s.schemaErr
}

func (s *PostgresStore) Put(ctx context.Context, p string, content []byte) error {
	p, err := CleanPath(p)
	if err != nil {
		return err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	if content == nil {
		content = []byte{}
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO artifact_files (workspace, path, content, size, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (workspace, path)
DO UPDATE SET content=EXCLUDED.content, size=EXCLUDED.size, updated_at=EXCLUDED.updated_at
`, s.workspace, p, content, int64(len(content)), time.Now())
	return err
}

func (s *PostgresStore) Get(ctx context.Context, p string) ([]byte, error) {
	p, err := CleanPath(p)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	var content []byte
	err = s.db.QueryRowContext(ctx, `SELECT content FROM artifact_files WHERE workspace=$1 AND path=$2`, s.workspace, p).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return content, err
}

func (s *PostgresStore) Exists(ctx context.Context, p string) (bool, error) {
	p, err := CleanPath(p)
	if err != nil {
		return false, err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return false, err
	}
	var n int
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM artifact_files WHERE workspace=$1 AND path=$2`, s.workspace, p).Scan(&n)
	return n > 0, err
}

func (s *PostgresStore) Remove(ctx context.Context, p string) error {
	p, err := CleanPath(p)
	if err != nil {
		return err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `DELETE FROM artifact_files WHERE workspace=$1 AND path=$2`, s.workspace, p)
	return err
}

func (s *PostgresStore) List(ctx context.Context, prefix string) ([]string, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT path FROM artifact_files WHERE workspace=$1 AND path LIKE $2 ORDER BY path`,
		s.workspace, likePrefix(cleanPrefix(prefix)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	paths := make([]string, 0, 16)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}
