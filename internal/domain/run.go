package domain

import "time"

// SyncKind selects which parts of the account a run reconciles.
type SyncKind string

// SyncKind values.
const (
	SyncAll      SyncKind = "all"
	SyncBooks    SyncKind = "books"
	SyncReadTime SyncKind = "readtime"
)

// Valid returns true if the kind is a recognized value.
func (k SyncKind) Valid() bool {
	switch k {
	case SyncAll, SyncBooks, SyncReadTime:
		return true
	default:
		return false
	}
}

// IncludesBooks reports whether the run reconciles books and their records.
func (k SyncKind) IncludesBooks() bool {
	return k == SyncAll || k == SyncBooks
}

// IncludesReadTime reports whether the run reconciles the daily reading totals.
func (k SyncKind) IncludesReadTime() bool {
	return k == SyncAll || k == SyncReadTime
}

// SyncStats counts what a run did.
type SyncStats struct {
	BooksConsidered    int `json:"books_considered"`
	BooksSkipped       int `json:"books_skipped"`
	BooksCreated       int `json:"books_created"`
	BooksUpdated       int `json:"books_updated"`
	RecordsCreated     int `json:"records_created"`
	RecordsUpdated     int `json:"records_updated"`
	RecordsUnchanged   int `json:"records_unchanged"`
	NodesCreated       int `json:"nodes_created"`
	AnnotationsCreated int `json:"annotations_created"`
}

// Writes is the number of workspace rows the run created or changed.
func (s SyncStats) Writes() int {
	return s.BooksCreated + s.BooksUpdated + s.RecordsCreated + s.RecordsUpdated +
		s.NodesCreated + s.AnnotationsCreated
}

// Run is one journaled sync invocation.
type Run struct {
	ID         string     `json:"id"`
	Kind       SyncKind   `json:"kind"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Stats      SyncStats  `json:"stats"`
	Error      string     `json:"error,omitempty"`
}

// Succeeded reports whether the run finished without error.
func (r *Run) Succeeded() bool {
	return r.FinishedAt != nil && r.Error == ""
}

// Duration returns how long a finished run took.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
