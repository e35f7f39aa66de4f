// Package health implements the core of GoHM: independently configured health
// policies, each running a fixed sense -> detect -> diagnose -> resolve
// pipeline on a single scheduler worker, with every stage's output appended to
// that policy's private history tables.
package health

import "time"

// Measurement is a single metric observation produced by a sensor.
type Measurement struct {
	// Component and Instance identify what was measured (e.g. a process
	// group and one of its instances). Either may be empty for host-level
	// metrics.
	Component string    `json:"component,omitempty"`
	Instance  string    `json:"instance,omitempty"`
	Name      string    `json:"name"`
	Instant   time.Time `json:"instant"`
	Value     float64   `json:"value"`
}

// Symptom is an anomaly identified by a detector.
type Symptom struct {
	Name    string    `json:"name"`
	Instant time.Time `json:"instant"`
	// Assignments names the components/instances the symptom applies to.
	Assignments []string `json:"assignments,omitempty"`
}

// Diagnosis is a possible root cause produced by a diagnoser from one or more
// symptoms.
type Diagnosis struct {
	Name    string    `json:"name"`
	Instant time.Time `json:"instant"`
	// Symptoms names the symptoms this diagnosis was derived from.
	Symptoms []string `json:"symptoms,omitempty"`
}

// Action records a remediation taken (or proposed) by a resolver.
type Action struct {
	Name    string    `json:"name"`
	Instant time.Time `json:"instant"`
	// Diagnosis names the diagnoses that prompted the action.
	Diagnosis []string `json:"diagnosis,omitempty"`
	// Outcome is free-form resolver output (e.g. command stdout).
	Outcome string `json:"outcome,omitempty"`
}

// TableKind names one of the four per-policy history tables.
type TableKind string

const (
	KindMeasurement TableKind = "measurements"
	KindSymptom     TableKind = "symptoms"
	KindDiagnosis   TableKind = "diagnosis"
	KindAction      TableKind = "actions"
)

// TableKinds lists the four kinds in pipeline order.
func TableKinds() []TableKind {
	return []TableKind{KindMeasurement, KindSymptom, KindDiagnosis, KindAction}
}
