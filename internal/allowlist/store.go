package allowlist

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/raysh454/phishcatcher/internal/logging"
)

//go:embed schema.sql
var schemaFS embed.FS

// Entry is one trusted domain row.
type Entry struct {
	Domain    string `json:"domain"`
	Source    string `json:"source"`
	CreatedAt int64  `json:"created_at"`
}

// Store keeps trusted domains in SQLite so operators can curate them
// outside the binary. The classifier never reads the Store directly: it
// works from an immutable Snapshot taken at startup.
type Store struct {
	db     *sql.DB
	logger logging.Logger
}

// NewStore returns a Store and runs the migrations from schema.sql.
func NewStore(db *sql.DB, logger logging.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if logger == nil {
		logger = logging.Nop()
	}

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return nil, fmt.Errorf("failed to execute schema: %w", err)
	}

	return &Store{
		db:     db,
		logger: logger.With(logging.Field{Key: "component", Value: "allowlist-store"}),
	}, nil
}

// Import upserts domains tagged with source and returns how many were
// written. The whole import runs in one transaction.
func (s *Store) Import(ctx context.Context, domains []string, source string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO trusted_domains (domain, source, created_at)
         VALUES (?, ?, ?)
         ON CONFLICT(domain) DO UPDATE SET source = excluded.source`)
	if err != nil {
		return 0, fmt.Errorf("prepare import: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	n := 0
	for _, d := range domains {
		d = Normalize(d)
		if d == "" {
			return 0, ErrEmptyDomain
		}
		if _, err := stmt.ExecContext(ctx, d, source, now); err != nil {
			return 0, fmt.Errorf("insert %s: %w", d, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}

	s.logger.Info("imported trusted domains", logging.Field{Key: "count", Value: n}, logging.Field{Key: "source", Value: source})
	return n, nil
}

// Remove deletes a domain. Removing an unknown domain is not an error.
func (s *Store) Remove(ctx context.Context, domain string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM trusted_domains WHERE domain = ?`, Normalize(domain)); err != nil {
		return fmt.Errorf("delete %s: %w", domain, err)
	}
	return nil
}

// List returns all rows ordered by domain.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT domain, source, created_at
         FROM trusted_domains
         ORDER BY domain`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Domain, &e.Source, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Snapshot reads every stored domain into an immutable Set.
func (s *Store) Snapshot(ctx context.Context) (*Set, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing trusted domains: %w", err)
	}
	domains := make([]string, 0, len(entries))
	for _, e := range entries {
		domains = append(domains, e.Domain)
	}
	return New(domains...), nil
}
