package health

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCycleDelay is the inter-cycle wait used when no policies are
// registered.
const DefaultCycleDelay = 10 * time.Second

// Executor owns the registry of policies and drives the cycle scheduler: on
// each cycle it waits for the minimum reported delay, then runs every due
// policy's pipeline in registration order on a single dedicated worker.
//
// The registry is built once in New and never mutated, so lookups need no
// synchronization; the tables inside each ExecutionContext carry their own
// guards for mid-run snapshot reads.
type Executor struct {
	policies []Policy                     // registration order
	contexts map[Policy]*ExecutionContext // identity-keyed
	logger   *slog.Logger

	startMu sync.Mutex
	started bool

	stopOnce sync.Once
	stopCh   chan struct{}
}

// Handle represents a running scheduler loop. It is returned by Start and can
// be used to await worker exit after Destroy.
type Handle struct {
	doneCh chan struct{}
}

// Done is closed when the scheduler worker has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.doneCh
}

// Wait blocks until the worker exits or ctx is cancelled.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NewExecutor builds the policy registry and initializes every policy. Each
// policy gets a fresh ExecutionContext and its Initialize is invoked exactly
// once, synchronously, before this function returns. Any Initialize failure,
// or a policy registered twice, fails construction — no partial registry is
// left running.
func NewExecutor(logger *slog.Logger, policies ...Policy) (*Executor, error) {
	e := &Executor{
		policies: make([]Policy, 0, len(policies)),
		contexts: make(map[Policy]*ExecutionContext, len(policies)),
		logger:   logger.With("component", "executor"),
		stopCh:   make(chan struct{}),
	}

	for _, p := range policies {
		if _, dup := e.contexts[p]; dup {
			return nil, fmt.Errorf("policy %q registered twice", p.Name())
		}
		ctx := NewExecutionContext()
		if err := p.Initialize(ctx); err != nil {
			return nil, fmt.Errorf("initialize policy %q: %w", p.Name(), err)
		}
		e.policies = append(e.policies, p)
		e.contexts[p] = ctx
	}

	return e, nil
}

// Policies returns the registered policies in registration order. The slice
// is a copy; the registry itself is immutable.
func (e *Executor) Policies() []Policy {
	out := make([]Policy, len(e.policies))
	copy(out, e.policies)
	return out
}

// Context returns the ExecutionContext bound to p, or false if p was never
// registered. Lookup is by identity, not by name.
func (e *Executor) Context(p Policy) (*ExecutionContext, bool) {
	ctx, ok := e.contexts[p]
	return ctx, ok
}

// ContextByName returns the context of the first registered policy with the
// given name. Iteration order follows registration order, so with duplicate
// names the earliest registration wins.
func (e *Executor) ContextByName(name string) (*ExecutionContext, bool) {
	for _, p := range e.policies {
		if p.Name() == name {
			return e.contexts[p], true
		}
	}
	return nil, false
}

// Start begins the cycle scheduler on a dedicated worker goroutine and
// returns a handle for awaiting its exit. Starting twice, or starting after
// Destroy, is an error.
func (e *Executor) Start() (*Handle, error) {
	e.startMu.Lock()
	defer e.startMu.Unlock()
	if e.started {
		return nil, fmt.Errorf("executor already started")
	}
	select {
	case <-e.stopCh:
		return nil, fmt.Errorf("executor already destroyed")
	default:
	}
	e.started = true

	h := &Handle{doneCh: make(chan struct{})}
	go func() {
		defer close(h.doneCh)
		e.run()
	}()
	e.logger.Info("executor started", "policies", len(e.policies))
	return h, nil
}

// Destroy requests immediate, non-graceful termination: a blocked inter-cycle
// wait is interrupted, and an in-progress cycle is aborted at the next
// policy/stage boundary (a stage already executing cannot be preempted).
// Destroy is idempotent and does not wait for the worker to drain; use the
// Handle from Start for that.
func (e *Executor) Destroy() {
	e.stopOnce.Do(func() {
		close(e.stopCh)
		e.logger.Info("executor destroy requested")
	})
}

func (e *Executor) stopped() bool {
	select {
	case <-e.stopCh:
		return true
	default:
		return false
	}
}

// run is the cycle scheduler: Waiting and Running-Cycle alternate until a
// stop request moves the loop to its terminal state.
func (e *Executor) run() {
	for {
		delay := e.nextDelay()

		if delay > 0 {
			e.logger.Debug("waiting before next cycle", "delay", delay.String())
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-e.stopCh:
				timer.Stop()
				e.logger.Warn("wait interrupted by destroy")
				return
			}
		}

		if e.stopped() {
			return
		}
		e.runCycle()
	}
}

// nextDelay arbitrates across policies: the minimum of all reported delays,
// or DefaultCycleDelay when no policies are registered. Natural numeric
// ordering; equal minima need no tie-break since every policy reporting zero
// at the readiness check runs unconditionally.
func (e *Executor) nextDelay() time.Duration {
	if len(e.policies) == 0 {
		return DefaultCycleDelay
	}
	min := e.policies[0].Delay()
	for _, p := range e.policies[1:] {
		if d := p.Delay(); d < min {
			min = d
		}
	}
	return min
}

// runCycle executes the pipeline of every due policy in registration order.
// Readiness is re-checked per policy at this point: only a delay of exactly
// zero makes a policy due this cycle.
func (e *Executor) runCycle() {
	cycleID := "cyc_" + uuid.New().String()[:8]
	for _, p := range e.policies {
		if e.stopped() {
			e.logger.Warn("cycle aborted by destroy", "cycle_id", cycleID)
			return
		}
		if p.Delay() > 0 {
			continue
		}
		if err := e.runPipeline(p, cycleID); err != nil {
			// Isolation boundary: one failing policy never halts the
			// scheduler or disturbs another policy's context.
			e.logger.Error("policy pipeline failed",
				"policy", p.Name(),
				"cycle_id", cycleID,
				"error", err,
			)
		}
	}
}

// runPipeline invokes the four stages strictly sequentially, appending each
// stage's output to the policy's context before feeding it to the next stage.
// A stage error (or recovered panic) abandons the remaining stages for this
// policy this cycle; earlier appends from the same cycle remain.
func (e *Executor) runPipeline(p Policy, cycleID string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stage panicked: %v", r)
		}
	}()

	c := e.contexts[p]
	ctx := context.Background()
	e.logger.Info("executing policy", "policy", p.Name(), "cycle_id", cycleID)

	measurements, err := p.ExecuteSensors(ctx)
	if err != nil {
		return fmt.Errorf("sensors: %w", err)
	}
	c.measurements.Append(measurements...)

	if e.stopped() {
		return nil
	}
	symptoms, err := p.ExecuteDetectors(ctx, measurements)
	if err != nil {
		return fmt.Errorf("detectors: %w", err)
	}
	c.symptoms.Append(symptoms...)

	if e.stopped() {
		return nil
	}
	diagnosis, err := p.ExecuteDiagnosers(ctx, symptoms)
	if err != nil {
		return fmt.Errorf("diagnosers: %w", err)
	}
	c.diagnosis.Append(diagnosis...)

	if e.stopped() {
		return nil
	}
	actions, err := p.ExecuteResolvers(ctx, diagnosis)
	if err != nil {
		return fmt.Errorf("resolvers: %w", err)
	}
	c.actions.Append(actions...)

	e.logger.Info("policy executed",
		"policy", p.Name(),
		"cycle_id", cycleID,
		"measurements", len(measurements),
		"symptoms", len(symptoms),
		"diagnosis", len(diagnosis),
		"actions", len(actions),
	)
	return nil
}
