package store

import (
	"context"
	"database/sql"
)

// schema contains the DDL for the archive tables.
// Each statement uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS artifacts (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		policy      TEXT NOT NULL,
		kind        TEXT NOT NULL,
		seq         INTEGER NOT NULL,
		payload     TEXT NOT NULL,
		recorded_at TEXT NOT NULL
	)`,

	// One row per table position; re-archiving the same position is a bug.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_artifacts_policy_kind_seq
		ON artifacts(policy, kind, seq)`,
	`CREATE INDEX IF NOT EXISTS idx_artifacts_policy_kind
		ON artifacts(policy, kind)`,
}

// migrate executes all schema DDL statements.
func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
