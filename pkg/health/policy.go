package health

import (
	"context"
	"sync"
	"time"
)

// Policy is the capability contract for one registered health policy: a
// readiness delay plus the four pipeline stages. Implementations are opaque to
// the executor beyond this interface; stage errors abort the remaining stages
// of that policy for the current cycle only.
//
// All methods are invoked from the single scheduler worker, never
// concurrently. Delay is also called from API accessors, so implementations
// that mutate state in Delay must guard it.
type Policy interface {
	// Name identifies the policy in logs and the API. Names should be
	// unique across a single executor but identity, not name, keys the
	// registry.
	Name() string

	// Delay reports how long until the policy is next due. A zero return
	// means due now.
	Delay() time.Duration

	// Initialize is called exactly once, before the scheduler starts.
	// The context remains valid for the life of the executor.
	Initialize(ctx *ExecutionContext) error

	ExecuteSensors(ctx context.Context) ([]Measurement, error)
	ExecuteDetectors(ctx context.Context, measurements []Measurement) ([]Symptom, error)
	ExecuteDiagnosers(ctx context.Context, symptoms []Symptom) ([]Diagnosis, error)
	ExecuteResolvers(ctx context.Context, diagnosis []Diagnosis) ([]Action, error)
}

// IntervalSchedule provides interval-based Delay bookkeeping for policies that
// run on a fixed cadence: due immediately on first check, then every Interval
// after MarkExecuted. Embed it and call MarkExecuted from the last stage (or
// wrap stages so the executor's final stage call marks it).
type IntervalSchedule struct {
	Interval time.Duration

	mu      sync.Mutex
	nextDue time.Time
}

// Delay returns the remaining time until the schedule is next due, or zero
// when due. The first call is always due.
func (s *IntervalSchedule) Delay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nextDue.IsZero() {
		return 0
	}
	d := time.Until(s.nextDue)
	if d < 0 {
		return 0
	}
	return d
}

// MarkExecuted advances the schedule by one interval from now.
func (s *IntervalSchedule) MarkExecuted() {
	s.mu.Lock()
	s.nextDue = time.Now().Add(s.Interval)
	s.mu.Unlock()
}
