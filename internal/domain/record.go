package domain

import "time"

// Outcome is the kind of event a journal record captures
type Outcome string

const (
	OutcomeMoved    Outcome = "moved"
	OutcomeReverted Outcome = "reverted"
)

// MoveRecord is one immutable journal entry. A rollback never edits a
// record; it appends a reverted record pointing back at the original.
type MoveRecord struct {
	Seq         int64     `json:"-"` // insertion order, assigned by the journal on read
	ID          string    `json:"id"`
	RunID       string    `json:"run_id"`
	Source      string    `json:"source"`
	Destination string    `json:"destination"`
	Category    string    `json:"category"`
	Timestamp   time.Time `json:"timestamp"`
	Outcome     Outcome   `json:"outcome"`
	RevertsID   string    `json:"reverts_id,omitempty"`
	Size        int64     `json:"size"`
	Checksum    string    `json:"checksum,omitempty"` // sha256 of the content at move time
}

// RecordFilter selects journal records. Zero fields match everything.
type RecordFilter struct {
	Since time.Time
	RunID string
}

// Matches reports whether rec passes the filter
func (f RecordFilter) Matches(rec MoveRecord) bool {
	if !f.Since.IsZero() && rec.Timestamp.Before(f.Since) {
		return false
	}
	if f.RunID != "" && rec.RunID != f.RunID {
		return false
	}
	return true
}

// RunSummary aggregates the records of one organize run
type RunSummary struct {
	RunID    string
	Started  time.Time
	Moved    int
	Reverted int
}

// Fingerprint identifies file content so a rollback can detect edits
type Fingerprint struct {
	Size   int64
	SHA256 string
}

// FileError pairs a path with the reason it could not be handled
type FileError struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// NewFileError builds a FileError from err
func NewFileError(path string, err error) FileError {
	return FileError{Path: path, Reason: err.Error(), Err: err}
}

func (e FileError) Error() string {
	return e.Path + ": " + e.Reason
}

func (e FileError) Unwrap() error {
	return e.Err
}

// OrganizeResult is the aggregate outcome of one batch
type OrganizeResult struct {
	RunID   string
	Moved   int
	Skipped int
	Errors  []FileError // in candidate order
	Records []MoveRecord
}

// OK reports whether every candidate was handled without error
func (r *OrganizeResult) OK() bool {
	return len(r.Errors) == 0
}

// RollbackResult is the aggregate outcome of a rollback
type RollbackResult struct {
	Restored int
	Failed   []FileError
	Records  []MoveRecord // reverted records that were appended
}

// OK reports whether every selected record was restored
func (r *RollbackResult) OK() bool {
	return len(r.Failed) == 0
}

// DestinationStat counts the files currently in one destination
type DestinationStat struct {
	Destination string
	Categories  []string
	Files       int
}
