package model

import "time"

// Priority is the urgency label attached to an assignment, derived from
// how many whole days remain until it is due.
type Priority string

const (
	PriorityHigh     Priority = "High"
	PriorityStandard Priority = "Standard"
	PriorityLow      Priority = "Low"
)

// DefaultStatus is the status every freshly extracted assignment starts
// with. The sheet owner edits it by hand afterwards.
const DefaultStatus = "Not Started"

// DueDateLayout is the display format written into the due-date column.
const DueDateLayout = "01/02/2006"

// AssignmentRecord is one upcoming assignment as extracted from a feed,
// normalized into the configured local timezone. Records are immutable
// after creation; the reconciler only references them in a plan.
type AssignmentRecord struct {
	// Title is the assignment name; never empty ("No Name" placeholder).
	Title string
	// Course is the calendar name, else the event category, else "Course".
	Course string
	// Status is always DefaultStatus on creation.
	Status string
	// DueDate is the display form of the due date in the local zone.
	DueDate string
	// DueInstant is the normalized local due timestamp. Used for ordering
	// and day-count arithmetic only; not written to the sheet.
	DueInstant time.Time
	// Priority is computed from DueInstant relative to the cycle's "now".
	Priority Priority
	// DedupeKey is "<uid>#<stamp>", or the bare stamp when the event has
	// no UID. The stamp disambiguates recurring instances.
	DedupeKey string
	// SourceRef identifies the originating feed.
	SourceRef string
}

// Refresh updates the derived columns of an existing row.
// Position is 1-based into the destination snapshot.
type Refresh struct {
	Position int
	Record   AssignmentRecord
}

// Append creates a new row at Position (1-based, immediately after the
// snapshot's last row for the first append).
type Append struct {
	Position int
	Record   AssignmentRecord
}

// Plan is the output of reconciliation: which rows to refresh in place
// and which records to append. Both lists keep encounter order; both may
// be empty.
type Plan struct {
	Refreshes []Refresh
	Appends   []Append
}

// Empty reports whether the plan contains no work.
func (p Plan) Empty() bool {
	return len(p.Refreshes) == 0 && len(p.Appends) == 0
}
