package domain

import "time"

// SyncTypeOrganizations identifies the organization sync pipeline in the
// watermark and run-log tables.
const SyncTypeOrganizations = "organizations"

// RunStatus classifies the outcome of a sync run.
type RunStatus string

const (
	// RunSuccess means every processed record synced.
	RunSuccess RunStatus = "success"

	// RunPartial means some records synced and some errored.
	RunPartial RunStatus = "partial"

	// RunError means no record synced.
	RunError RunStatus = "error"
)

// StatusFor derives the run status from processed/synced counts.
func StatusFor(processed, synced int) RunStatus {
	switch {
	case processed == synced:
		return RunSuccess
	case synced > 0:
		return RunPartial
	default:
		return RunError
	}
}

// SyncRun is one append-only row of the sync run log. Rows are never
// updated after insert.
type SyncRun struct {
	// ID is a unique run identifier.
	ID string

	// SyncType names the pipeline (e.g. SyncTypeOrganizations).
	SyncType string

	// Status is the overall outcome.
	Status RunStatus

	// RecordsProcessed counts every record the run attempted.
	RecordsProcessed int

	// RecordsSynced counts records that reached the support desk.
	RecordsSynced int

	// ErrorMessage summarises failures, empty on full success.
	ErrorMessage string

	// StartedAt and CompletedAt bound the run.
	StartedAt   time.Time
	CompletedAt time.Time
}

// Errors returns the number of failed records.
func (r *SyncRun) Errors() int {
	return r.RecordsProcessed - r.RecordsSynced
}

// ErrorRate returns the failed fraction in percent, 0 for empty runs.
func (r *SyncRun) ErrorRate() float64 {
	if r.RecordsProcessed == 0 {
		return 0
	}
	return float64(r.Errors()) / float64(r.RecordsProcessed) * 100
}

// Watermark marks the boundary of the last successful fetch for a sync
// type. Absence means "perform full sync". It only ever moves forward.
type Watermark struct {
	SyncType   string
	LastSynced time.Time
}
