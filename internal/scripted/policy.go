package scripted

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/me/gohm/internal/config"
	"github.com/me/gohm/pkg/health"
)

// Policy implements health.Policy from a config.PolicySpec: sensors run
// commands whose stdout parses as a float, and the remaining stages evaluate
// JS expressions over the previous stage's output.
type Policy struct {
	spec     config.PolicySpec
	schedule health.IntervalSchedule
	eval     Evaluator
	logger   *slog.Logger

	execCtx *health.ExecutionContext
}

// New builds a scripted policy from its spec. The spec is assumed validated
// (config.Validate).
func New(spec config.PolicySpec, logger *slog.Logger) *Policy {
	return &Policy{
		spec:     spec,
		schedule: health.IntervalSchedule{Interval: time.Duration(spec.Interval)},
		logger:   logger.With("component", "policy", "policy", spec.Name),
	}
}

// Name returns the configured policy name.
func (p *Policy) Name() string { return p.spec.Name }

// Delay reports the remaining time until the policy's interval elapses.
func (p *Policy) Delay() time.Duration { return p.schedule.Delay() }

// Initialize keeps the context for expression access to history tables.
func (p *Policy) Initialize(ctx *health.ExecutionContext) error {
	p.execCtx = ctx
	return nil
}

// ExecuteSensors runs every sensor command and parses its stdout as the
// measurement value. The schedule is marked executed up front so a failing
// stage does not leave the policy due again on the very next cycle.
func (p *Policy) ExecuteSensors(ctx context.Context) ([]health.Measurement, error) {
	p.schedule.MarkExecuted()

	measurements := make([]health.Measurement, 0, len(p.spec.Sensors))
	for _, s := range p.spec.Sensors {
		value, err := p.runSensorCommand(ctx, s)
		if err != nil {
			return nil, fmt.Errorf("sensor %q: %w", s.Name, err)
		}
		measurements = append(measurements, health.Measurement{
			Component: s.Component,
			Instance:  s.Instance,
			Name:      s.Name,
			Instant:   time.Now().UTC(),
			Value:     value,
		})
	}
	return measurements, nil
}

func (p *Policy) runSensorCommand(ctx context.Context, s config.SensorSpec) (float64, error) {
	cmd := exec.CommandContext(ctx, s.Command[0], s.Command[1:]...)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("run %v: %w", s.Command, err)
	}
	text := strings.TrimSpace(string(out))
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("parse output %q: %w", text, err)
	}
	return value, nil
}

// ExecuteDetectors evaluates each detector expression over the measurements;
// a truthy result emits one symptom.
func (p *Policy) ExecuteDetectors(_ context.Context, measurements []health.Measurement) ([]health.Symptom, error) {
	var symptoms []health.Symptom
	for _, d := range p.spec.Detectors {
		matched, err := p.eval.EvalBool(d.Expression, map[string]any{
			"measurements": measurements,
		})
		if err != nil {
			return nil, fmt.Errorf("detector %q: %w", d.Name, err)
		}
		if !matched {
			continue
		}
		symptoms = append(symptoms, health.Symptom{
			Name:        d.Name,
			Instant:     time.Now().UTC(),
			Assignments: d.Assignments,
		})
	}
	return symptoms, nil
}

// ExecuteDiagnosers evaluates each diagnoser expression over the symptoms; a
// truthy result emits one diagnosis naming the symptoms it saw.
func (p *Policy) ExecuteDiagnosers(_ context.Context, symptoms []health.Symptom) ([]health.Diagnosis, error) {
	var diagnosis []health.Diagnosis
	for _, d := range p.spec.Diagnosers {
		matched, err := p.eval.EvalBool(d.Expression, map[string]any{
			"symptoms": symptoms,
		})
		if err != nil {
			return nil, fmt.Errorf("diagnoser %q: %w", d.Name, err)
		}
		if !matched {
			continue
		}
		diagnosis = append(diagnosis, health.Diagnosis{
			Name:     d.Name,
			Instant:  time.Now().UTC(),
			Symptoms: symptomNames(symptoms),
		})
	}
	return diagnosis, nil
}

// ExecuteResolvers evaluates each resolver expression over the diagnosis;
// when truthy, the optional remediation command runs and its combined output
// is recorded in the action.
func (p *Policy) ExecuteResolvers(ctx context.Context, diagnosis []health.Diagnosis) ([]health.Action, error) {
	var actions []health.Action
	for _, r := range p.spec.Resolvers {
		matched, err := p.eval.EvalBool(r.Expression, map[string]any{
			"diagnosis": diagnosis,
		})
		if err != nil {
			return nil, fmt.Errorf("resolver %q: %w", r.Name, err)
		}
		if !matched {
			continue
		}

		outcome := ""
		if len(r.Command) > 0 {
			cmd := exec.CommandContext(ctx, r.Command[0], r.Command[1:]...)
			out, err := cmd.CombinedOutput()
			if err != nil {
				return nil, fmt.Errorf("resolver %q: run %v: %w", r.Name, r.Command, err)
			}
			outcome = strings.TrimSpace(string(out))
			p.logger.Info("remediation executed", "resolver", r.Name, "outcome", outcome)
		}

		actions = append(actions, health.Action{
			Name:      r.Name,
			Instant:   time.Now().UTC(),
			Diagnosis: diagnosisNames(diagnosis),
			Outcome:   outcome,
		})
	}
	return actions, nil
}

func symptomNames(symptoms []health.Symptom) []string {
	if len(symptoms) == 0 {
		return nil
	}
	names := make([]string, len(symptoms))
	for i, s := range symptoms {
		names[i] = s.Name
	}
	return names
}

func diagnosisNames(diagnosis []health.Diagnosis) []string {
	if len(diagnosis) == 0 {
		return nil
	}
	names := make([]string, len(diagnosis))
	for i, d := range diagnosis {
		names[i] = d.Name
	}
	return names
}
