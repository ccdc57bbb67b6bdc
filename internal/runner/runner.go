package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"assigntrack/internal/assign"
	"assigntrack/internal/ics"
	appLog "assigntrack/internal/log"
	"assigntrack/internal/model"
)

// Sink is the destination spreadsheet. Satisfied by sheet.Client; tests
// substitute a fake.
type Sink interface {
	Snapshot(ctx context.Context) ([]string, error)
	ApplyRefreshes(ctx context.Context, refreshes []model.Refresh) error
	ApplyAppends(ctx context.Context, appends []model.Append) error
}

// CycleStatus summarizes the most recent poll cycle for the status API.
type CycleStatus struct {
	CycleID    string    `json:"cycle_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Extracted  int       `json:"extracted"`
	Refreshed  int       `json:"refreshed"`
	Appended   int       `json:"appended"`
	Error      string    `json:"error,omitempty"`
}

// Runner executes poll cycles: extract the window's assignments from
// every feed, reconcile against the sheet, apply the plan. Cycles are
// strictly sequential; nothing here runs concurrently with itself.
type Runner struct {
	extractor *assign.Extractor
	sink      Sink
	sources   []ics.Source
	loc       *time.Location
	dryRun    bool

	mu    sync.RWMutex
	last  CycleStatus
	batch []model.AssignmentRecord
}

// New constructs a Runner. A nil sink together with dryRun makes cycles
// extract-only.
func New(extractor *assign.Extractor, sink Sink, sources []ics.Source, loc *time.Location, dryRun bool) *Runner {
	return &Runner{
		extractor: extractor,
		sink:      sink,
		sources:   sources,
		loc:       loc,
		dryRun:    dryRun,
	}
}

// RunCycle executes one full poll cycle. It never returns an error and
// never panics outward: every failure is logged and the loop lives on to
// the next scheduled cycle.
func (r *Runner) RunCycle(ctx context.Context) {
	status := CycleStatus{
		CycleID:   uuid.NewString(),
		StartedAt: time.Now(),
	}
	appLog.Info("cycle start", "cycle_id", status.CycleID, "feeds", len(r.sources))

	defer func() {
		if rec := recover(); rec != nil {
			status.Error = fmt.Sprintf("panic: %v", rec)
			appLog.Error("cycle panicked", fmt.Errorf("%v", rec), "cycle_id", status.CycleID)
		}
		status.FinishedAt = time.Now()
		r.mu.Lock()
		r.last = status
		r.mu.Unlock()
		appLog.Info("cycle done",
			"cycle_id", status.CycleID,
			"extracted", status.Extracted,
			"refreshed", status.Refreshed,
			"appended", status.Appended,
			"duration", status.FinishedAt.Sub(status.StartedAt).String(),
		)
	}()

	nowLocal := time.Now().In(r.loc)
	batch := r.extractor.Extract(ctx, r.sources, nowLocal)
	status.Extracted = len(batch)

	r.mu.Lock()
	r.batch = batch
	r.mu.Unlock()

	if len(batch) == 0 {
		appLog.Info("no assignments in window", "cycle_id", status.CycleID)
		return
	}

	if r.dryRun || r.sink == nil {
		appLog.Info("dry run, skipping sheet write", "cycle_id", status.CycleID, "extracted", len(batch))
		return
	}

	titles, err := r.sink.Snapshot(ctx)
	if err != nil {
		// Nothing was written yet, so abandoning here corrupts nothing.
		status.Error = err.Error()
		appLog.Error("snapshot read failed, abandoning cycle write", err, "cycle_id", status.CycleID)
		return
	}

	plan := assign.Reconcile(batch, titles)
	if plan.Empty() {
		appLog.Info("sheet already current", "cycle_id", status.CycleID)
		return
	}

	// The two batches are applied and reported independently; a refresh
	// failure does not block appends, and vice versa.
	if err := r.sink.ApplyRefreshes(ctx, plan.Refreshes); err != nil {
		status.Error = err.Error()
		appLog.Error("refresh batch failed", err, "cycle_id", status.CycleID)
	} else {
		status.Refreshed = len(plan.Refreshes)
	}

	if err := r.sink.ApplyAppends(ctx, plan.Appends); err != nil {
		status.Error = err.Error()
		appLog.Error("append batch failed", err, "cycle_id", status.CycleID)
	} else {
		status.Appended = len(plan.Appends)
	}
}

// LastCycle returns the most recent cycle summary.
func (r *Runner) LastCycle() CycleStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}

// Batch returns a copy of the most recently extracted assignment batch.
func (r *Runner) Batch() []model.AssignmentRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.AssignmentRecord, len(r.batch))
	copy(out, r.batch)
	return out
}
