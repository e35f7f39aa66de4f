// Package archive persists policy execution history to durable storage.
//
// The core executor keeps its four tables in memory only. The Archiver is an
// external collaborator: it polls the executor's context snapshots, diffs
// them against the high-water mark already in the store, and appends any new
// rows as JSON artifacts. It never mutates the tables it reads.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/me/gohm/internal/store"
	"github.com/me/gohm/pkg/health"
	"github.com/me/gohm/pkg/model"
)

// Config holds archiver configuration.
type Config struct {
	PollInterval time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{PollInterval: 5 * time.Second}
}

// Archiver implements the polling archive loop.
type Archiver struct {
	store    store.Store
	executor *health.Executor
	config   Config
	logger   *slog.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewArchiver creates a new archive loop over the given executor and store.
func NewArchiver(st store.Store, exec *health.Executor, cfg Config, logger *slog.Logger) *Archiver {
	return &Archiver{
		store:    st,
		executor: exec,
		config:   cfg,
		logger:   logger.With("component", "archiver"),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the archive loop. Blocks until ctx is cancelled or Stop is called.
func (a *Archiver) Start(ctx context.Context) error {
	a.logger.Info("archiver started", "poll_interval", a.config.PollInterval)
	ticker := time.NewTicker(a.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("archiver stopping (context cancelled)")
			close(a.doneCh)
			return ctx.Err()
		case <-a.stopCh:
			a.logger.Info("archiver stopping (stop called)")
			close(a.doneCh)
			return nil
		case <-ticker.C:
			if err := a.Tick(ctx); err != nil {
				a.logger.Error("tick error", "error", err)
			}
		}
	}
}

// Stop shuts down the archiver and waits for the current tick to finish.
func (a *Archiver) Stop() error {
	close(a.stopCh)
	<-a.doneCh
	return nil
}

// Tick archives one round of new table entries across all registered policies.
func (a *Archiver) Tick(ctx context.Context) error {
	for _, p := range a.executor.Policies() {
		execCtx, ok := a.executor.Context(p)
		if !ok {
			continue
		}
		for _, kind := range health.TableKinds() {
			if err := a.archiveTable(ctx, p.Name(), kind, execCtx); err != nil {
				return fmt.Errorf("archive %s/%s: %w", p.Name(), kind, err)
			}
		}
	}
	return nil
}

// archiveTable appends entries past the store's high-water mark for one table.
// Tables are append-only, so a length diff identifies exactly the new rows.
func (a *Archiver) archiveTable(ctx context.Context, policy string, kind health.TableKind, execCtx *health.ExecutionContext) error {
	archived, err := a.store.CountArtifacts(ctx, policy, string(kind))
	if err != nil {
		return err
	}
	if execCtx.TableLen(kind) <= archived {
		return nil
	}

	entries, err := snapshotEntries(execCtx, kind)
	if err != nil {
		return err
	}
	if len(entries) <= archived {
		return nil
	}

	now := time.Now().UTC()
	rows := make([]*model.Artifact, 0, len(entries)-archived)
	for seq := archived; seq < len(entries); seq++ {
		payload, err := json.Marshal(entries[seq])
		if err != nil {
			return fmt.Errorf("marshal entry %d: %w", seq, err)
		}
		rows = append(rows, &model.Artifact{
			Policy:     policy,
			Kind:       string(kind),
			Seq:        seq,
			Payload:    string(payload),
			RecordedAt: now,
		})
	}

	if err := a.store.AppendArtifacts(ctx, rows); err != nil {
		return err
	}
	a.logger.Debug("archived entries", "policy", policy, "kind", kind, "rows", len(rows))
	return nil
}

// snapshotEntries returns the table contents for kind as a uniform slice.
func snapshotEntries(execCtx *health.ExecutionContext, kind health.TableKind) ([]any, error) {
	var out []any
	switch kind {
	case health.KindMeasurement:
		for _, e := range execCtx.Measurements() {
			out = append(out, e)
		}
	case health.KindSymptom:
		for _, e := range execCtx.Symptoms() {
			out = append(out, e)
		}
	case health.KindDiagnosis:
		for _, e := range execCtx.Diagnosis() {
			out = append(out, e)
		}
	case health.KindAction:
		for _, e := range execCtx.Actions() {
			out = append(out, e)
		}
	default:
		return nil, fmt.Errorf("unknown table kind %q", kind)
	}
	return out, nil
}
