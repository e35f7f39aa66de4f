package model

import "time"

// PolicyStatus summarizes one registered policy for the list/detail
// endpoints. Tables maps table kind to current length.
type PolicyStatus struct {
	Name   string         `json:"name"`
	Delay  string         `json:"delay"` // time until next due, "0s" when due now
	Tables map[string]int `json:"tables"`
}

// TableSnapshot carries one policy table's contents. Entries are
// kind-specific artifact records (health.Measurement etc.).
type TableSnapshot struct {
	Policy  string `json:"policy"`
	Kind    string `json:"kind"`
	Entries any    `json:"entries"`
}

// Artifact is one archived stage-output row as stored by the SQLite archive.
// Seq is the row's position in the policy's in-memory table at archive time.
type Artifact struct {
	ID         int64     `json:"id"`
	Policy     string    `json:"policy"`
	Kind       string    `json:"kind"`
	Seq        int       `json:"seq"`
	Payload    string    `json:"payload"` // JSON-encoded artifact record
	RecordedAt time.Time `json:"recorded_at"`
}
