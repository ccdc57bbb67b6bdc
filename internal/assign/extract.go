package assign

import (
	"context"
	"sort"
	"strings"
	"time"

	"assigntrack/internal/ics"
	appLog "assigntrack/internal/log"
	"assigntrack/internal/model"
)

const (
	placeholderTitle  = "No Name"
	placeholderCourse = "Course"
)

// Fetcher retrieves one feed's raw ICS body. Satisfied by ics.Fetcher;
// tests substitute a stub.
type Fetcher interface {
	FetchOne(ctx context.Context, src ics.Source) (ics.FetchResult, error)
}

// Extractor turns a set of feeds into the cycle's assignment batch.
type Extractor struct {
	fetcher    Fetcher
	loc        *time.Location
	windowDays int
}

func NewExtractor(fetcher Fetcher, loc *time.Location, windowDays int) *Extractor {
	return &Extractor{fetcher: fetcher, loc: loc, windowDays: windowDays}
}

// Extract fetches every feed and returns the merged batch of assignments
// due within the rolling window, sorted ascending by due instant.
//
// Feeds are independent: a fetch or parse failure is logged and that
// feed contributes zero records; no error escapes to the caller.
func (e *Extractor) Extract(ctx context.Context, sources []ics.Source, nowLocal time.Time) []model.AssignmentRecord {
	endLocal := nowLocal.AddDate(0, 0, e.windowDays)
	records := make([]model.AssignmentRecord, 0)

	for _, src := range sources {
		res, err := e.fetcher.FetchOne(ctx, src)
		if err != nil {
			appLog.Error("feed fetch failed, skipping", err, "id", src.ID)
			continue
		}
		cal, err := ics.ParseICS(res.Source, res.Body)
		if err != nil {
			appLog.Error("feed parse failed, skipping", err, "id", src.ID)
			continue
		}
		records = append(records, FromCalendar(cal, nowLocal, endLocal, e.loc)...)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].DueInstant.Before(records[j].DueInstant)
	})
	return records
}

// FromCalendar expands one parsed document and builds the records whose
// normalized due instant falls inside [nowLocal, endLocal], both ends
// inclusive. The expansion window is UTC-based and can admit events just
// outside the local window at boundary conditions; the local re-check
// here is the authoritative filter.
func FromCalendar(cal ics.Calendar, nowLocal, endLocal time.Time, loc *time.Location) []model.AssignmentRecord {
	exp := ics.Expand(cal, nowLocal.UTC(), endLocal.UTC())
	if exp.Degraded {
		appLog.Info("feed degraded to raw events", "id", cal.Source.ID)
	}

	out := make([]model.AssignmentRecord, 0, len(exp.Occurrences))
	for _, occ := range exp.Occurrences {
		due := NormalizeDue(occ.Start, loc)
		if due.Before(nowLocal) || due.After(endLocal) {
			continue
		}

		title := strings.TrimSpace(occ.Summary)
		if title == "" {
			title = placeholderTitle
		}

		out = append(out, model.AssignmentRecord{
			Title:      title,
			Course:     courseFor(cal, occ),
			Status:     model.DefaultStatus,
			DueDate:    due.Format(model.DueDateLayout),
			DueInstant: due,
			Priority:   Classify(due, nowLocal),
			DedupeKey:  DedupeKey(occ.UID, occ.Start),
			SourceRef:  cal.Source.Ref(),
		})
	}
	return out
}

// courseFor prefers the calendar-level name over the per-event category.
func courseFor(cal ics.Calendar, occ ics.Occurrence) string {
	if cal.Name != "" {
		return cal.Name
	}
	if occ.Categories != "" {
		return occ.Categories
	}
	return placeholderCourse
}
