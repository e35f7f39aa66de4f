package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/me/gohm/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and returns a
// Store. Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates the archive tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

// AppendArtifacts inserts all rows in one transaction so a partially-archived
// diff never leaves gaps in the seq sequence.
func (s *SQLiteStore) AppendArtifacts(ctx context.Context, rows []*model.Artifact) error {
	if len(rows) == 0 {
		return nil
	}
	s.logger.Debug("sql", "op", "insert", "table", "artifacts", "rows", len(rows))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO artifacts (policy, kind, seq, payload, recorded_at)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx,
			row.Policy, row.Kind, row.Seq, row.Payload,
			row.RecordedAt.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("insert artifact %s/%s/%d: %w", row.Policy, row.Kind, row.Seq, err)
		}
	}

	return tx.Commit()
}

// CountArtifacts reports the number of archived rows for one policy table.
func (s *SQLiteStore) CountArtifacts(ctx context.Context, policy, kind string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM artifacts WHERE policy = ? AND kind = ?`,
		policy, kind,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count artifacts %s/%s: %w", policy, kind, err)
	}
	return count, nil
}

// ListArtifacts returns archived rows in seq order with pagination.
func (s *SQLiteStore) ListArtifacts(ctx context.Context, policy, kind string, opts model.ListOptions) ([]*model.Artifact, int, error) {
	opts.Clamp()

	total, err := s.CountArtifacts(ctx, policy, kind)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, policy, kind, seq, payload, recorded_at
		FROM artifacts
		WHERE policy = ? AND kind = ?
		ORDER BY seq
		LIMIT ? OFFSET ?`,
		policy, kind, opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list artifacts %s/%s: %w", policy, kind, err)
	}
	defer rows.Close()

	var out []*model.Artifact
	for rows.Next() {
		var a model.Artifact
		var recordedAt string
		if err := rows.Scan(&a.ID, &a.Policy, &a.Kind, &a.Seq, &a.Payload, &recordedAt); err != nil {
			return nil, 0, fmt.Errorf("scan artifact: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, recordedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("parse recorded_at %q: %w", recordedAt, err)
		}
		a.RecordedAt = t
		out = append(out, &a)
	}
	return out, total, rows.Err()
}
