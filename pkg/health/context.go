package health

// ExecutionContext accumulates the four pipeline-stage history tables for one
// policy. It is allocated by the executor during registration, handed to the
// policy's Initialize exactly once, and lives as long as the executor. The
// executor is the only writer; policies and external collaborators read via
// the snapshot accessors.
type ExecutionContext struct {
	measurements Table[Measurement]
	symptoms     Table[Symptom]
	diagnosis    Table[Diagnosis]
	actions      Table[Action]
}

// NewExecutionContext returns a context with four empty tables. It is exported
// for tests and for embedding policies outside the executor; within GoHM the
// executor allocates one per registered policy.
func NewExecutionContext() *ExecutionContext {
	return &ExecutionContext{}
}

// Measurements returns a snapshot of the measurements table.
func (c *ExecutionContext) Measurements() []Measurement {
	return c.measurements.Snapshot()
}

// Symptoms returns a snapshot of the symptoms table.
func (c *ExecutionContext) Symptoms() []Symptom {
	return c.symptoms.Snapshot()
}

// Diagnosis returns a snapshot of the diagnosis table.
func (c *ExecutionContext) Diagnosis() []Diagnosis {
	return c.diagnosis.Snapshot()
}

// Actions returns a snapshot of the actions table.
func (c *ExecutionContext) Actions() []Action {
	return c.actions.Snapshot()
}

// TableLen reports the current length of the named table. Unknown kinds
// report zero.
func (c *ExecutionContext) TableLen(kind TableKind) int {
	switch kind {
	case KindMeasurement:
		return c.measurements.Len()
	case KindSymptom:
		return c.symptoms.Len()
	case KindDiagnosis:
		return c.diagnosis.Len()
	case KindAction:
		return c.actions.Len()
	}
	return 0
}
