package store

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/me/gohm/pkg/model"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))
	st, err := NewSQLiteStore(":memory:", logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func sampleArtifacts(policy, kind string, startSeq, n int) []*model.Artifact {
	now := time.Now().UTC().Truncate(time.Millisecond)
	rows := make([]*model.Artifact, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, &model.Artifact{
			Policy:     policy,
			Kind:       kind,
			Seq:        startSeq + i,
			Payload:    fmt.Sprintf(`{"name":"m%d","value":%d}`, startSeq+i, startSeq+i),
			RecordedAt: now,
		})
	}
	return rows
}

// Appended artifacts come back in seq order with their payloads intact.
func TestAppendAndListArtifacts(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	if err := st.AppendArtifacts(ctx, sampleArtifacts("disk-pressure", "measurements", 0, 3)); err != nil {
		t.Fatalf("append: %v", err)
	}

	rows, total, err := st.ListArtifacts(ctx, "disk-pressure", "measurements", model.ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3", len(rows))
	}
	for i, row := range rows {
		if row.Seq != i {
			t.Errorf("rows[%d].Seq = %d, want %d", i, row.Seq, i)
		}
		if row.Policy != "disk-pressure" || row.Kind != "measurements" {
			t.Errorf("rows[%d] = %s/%s, want disk-pressure/measurements", i, row.Policy, row.Kind)
		}
		want := fmt.Sprintf(`{"name":"m%d","value":%d}`, i, i)
		if row.Payload != want {
			t.Errorf("rows[%d].Payload = %q, want %q", i, row.Payload, want)
		}
	}
}

// CountArtifacts is the archiver's high-water mark, scoped per policy and table.
func TestCountArtifacts_ScopedByPolicyAndKind(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	if err := st.AppendArtifacts(ctx, sampleArtifacts("disk-pressure", "measurements", 0, 2)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := st.AppendArtifacts(ctx, sampleArtifacts("disk-pressure", "symptoms", 0, 1)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := st.AppendArtifacts(ctx, sampleArtifacts("mem-pressure", "measurements", 0, 4)); err != nil {
		t.Fatalf("append: %v", err)
	}

	cases := []struct {
		policy, kind string
		want         int
	}{
		{"disk-pressure", "measurements", 2},
		{"disk-pressure", "symptoms", 1},
		{"mem-pressure", "measurements", 4},
		{"mem-pressure", "actions", 0},
		{"unknown", "measurements", 0},
	}
	for _, tc := range cases {
		got, err := st.CountArtifacts(ctx, tc.policy, tc.kind)
		if err != nil {
			t.Fatalf("count %s/%s: %v", tc.policy, tc.kind, err)
		}
		if got != tc.want {
			t.Errorf("count %s/%s = %d, want %d", tc.policy, tc.kind, got, tc.want)
		}
	}
}

// Re-inserting a seq already archived fails the whole batch, so a crashed
// archiver that replays a diff cannot duplicate rows.
func TestAppendArtifacts_DuplicateSeqRejected(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	if err := st.AppendArtifacts(ctx, sampleArtifacts("disk-pressure", "measurements", 0, 2)); err != nil {
		t.Fatalf("append: %v", err)
	}
	err := st.AppendArtifacts(ctx, sampleArtifacts("disk-pressure", "measurements", 1, 2))
	if err == nil {
		t.Fatal("expected unique constraint error, got nil")
	}

	// The failed batch must not have landed partially.
	count, err := st.CountArtifacts(ctx, "disk-pressure", "measurements")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Errorf("count after failed batch = %d, want 2", count)
	}
}

func TestAppendArtifacts_EmptyBatchIsNoop(t *testing.T) {
	st := testStore(t)
	if err := st.AppendArtifacts(context.Background(), nil); err != nil {
		t.Fatalf("append empty: %v", err)
	}
}

// Pagination walks the seq order without skipping or repeating rows.
func TestListArtifacts_Pagination(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	if err := st.AppendArtifacts(ctx, sampleArtifacts("disk-pressure", "actions", 0, 5)); err != nil {
		t.Fatalf("append: %v", err)
	}

	rows, total, err := st.ListArtifacts(ctx, "disk-pressure", "actions", model.ListOptions{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0].Seq != 2 || rows[1].Seq != 3 {
		t.Errorf("seqs = %d,%d, want 2,3", rows[0].Seq, rows[1].Seq)
	}
}

// Timestamps survive the RFC3339 round-trip through the text column.
func TestListArtifacts_RecordedAtRoundTrip(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	want := time.Date(2026, 8, 29, 10, 30, 0, 123000000, time.UTC)
	row := &model.Artifact{
		Policy: "disk-pressure", Kind: "diagnosis", Seq: 0,
		Payload: `{"name":"d0"}`, RecordedAt: want,
	}
	if err := st.AppendArtifacts(ctx, []*model.Artifact{row}); err != nil {
		t.Fatalf("append: %v", err)
	}

	rows, _, err := st.ListArtifacts(ctx, "disk-pressure", "diagnosis", model.ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}
	if !rows[0].RecordedAt.Equal(want) {
		t.Errorf("RecordedAt = %v, want %v", rows[0].RecordedAt, want)
	}
}
