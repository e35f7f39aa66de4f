// Package store persists archived policy artifacts in SQLite. It sits
// outside the executor core: the archiver feeds it from context snapshots,
// and the rows mirror the in-memory tables' append-only ordering.
package store

import (
	"context"

	"github.com/me/gohm/pkg/model"
)

// Store defines the persistence layer for archived artifacts.
type Store interface {
	// AppendArtifacts inserts rows in order. Rows are append-only; there
	// is no update or delete path, matching the in-memory tables.
	AppendArtifacts(ctx context.Context, rows []*model.Artifact) error

	// CountArtifacts reports how many rows exist for a policy's table;
	// the archiver uses it as the high-water mark for diffing.
	CountArtifacts(ctx context.Context, policy, kind string) (int, error)

	// ListArtifacts returns rows for a policy's table in seq order, plus
	// the total row count for pagination.
	ListArtifacts(ctx context.Context, policy, kind string, opts model.ListOptions) ([]*model.Artifact, int, error)

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}
