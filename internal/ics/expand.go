package ics

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	appLog "assigntrack/internal/log"
)

const maxOccurrencesPerEvent = 1000

// Occurrence is one concrete scheduled instance of an event inside the
// requested window, after recurrence expansion.
type Occurrence struct {
	UID        string
	Summary    string
	Categories string
	Start      StartValue
}

// Expansion is the result of expanding one calendar. When Degraded is
// true, recurrence data in the document was malformed and Occurrences
// holds the unexpanded primary events instead; the caller's window
// filter still applies either way.
type Expansion struct {
	Degraded    bool
	Occurrences []Occurrence
}

// UTCInstant places the start value on the UTC timeline. Bare dates
// resolve to 23:59:00 UTC on that date, so a date-only due item stays
// visible through the end of its calendar day.
func (v StartValue) UTCInstant() time.Time {
	if v.DateOnly {
		return time.Date(v.Time.Year(), v.Time.Month(), v.Time.Day(), 23, 59, 0, 0, time.UTC)
	}
	return v.Time
}

// Expand produces the calendar's concrete occurrences between startUTC
// and endUTC (inclusive). Events without a DTSTART are dropped. A RRULE
// that fails to parse degrades the whole document to its raw events
// rather than failing the feed.
func Expand(cal Calendar, startUTC, endUTC time.Time) Expansion {
	if endUTC.Before(startUTC) {
		return Expansion{}
	}

	occs := make([]Occurrence, 0, len(cal.Events))

	for _, ev := range cal.Events {
		if ev.Start == nil {
			continue
		}

		if ev.RawRRule == "" {
			inst := ev.Start.UTCInstant()
			if !inst.Before(startUTC) && !inst.After(endUTC) {
				occs = append(occs, occurrenceOf(ev, *ev.Start))
			}
			continue
		}

		times, err := expandRule(ev, startUTC, endUTC)
		if err != nil {
			appLog.Error("recurrence expansion failed, degrading to raw events", err,
				"id", cal.Source.ID, "uid", ev.UID, "rrule", ev.RawRRule)
			return degraded(cal)
		}
		for _, t := range times {
			occs = append(occs, occurrenceOf(ev, StartValue{Time: t, DateOnly: ev.Start.DateOnly}))
		}
	}

	return Expansion{Occurrences: occs}
}

// expandRule expands a single recurring event's instances within the
// window. Date-only series get a day of slack on both bounds: their
// instances sit at midnight while the due instant is 23:59, and the
// authoritative local-window filter runs later in the pipeline.
func expandRule(ev ParsedEvent, startUTC, endUTC time.Time) ([]time.Time, error) {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		return nil, err
	}
	r.DTStart(ev.Start.Time)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Time.Location()))
	}

	rangeStart := startUTC.In(ev.Start.Time.Location())
	rangeEnd := endUTC.In(ev.Start.Time.Location())
	if ev.Start.DateOnly {
		rangeStart = rangeStart.Add(-24 * time.Hour)
		rangeEnd = rangeEnd.Add(24 * time.Hour)
	}

	times := set.Between(rangeStart, rangeEnd, true)
	if len(times) > maxOccurrencesPerEvent {
		times = times[:maxOccurrencesPerEvent]
		appLog.Error("recurrence expansion truncated", errors.New("max occurrences reached"),
			"uid", ev.UID, "cap", maxOccurrencesPerEvent)
	}
	return times, nil
}

// degraded returns the document's raw primary events as occurrences.
func degraded(cal Calendar) Expansion {
	out := Expansion{Degraded: true}
	for _, ev := range cal.Events {
		if ev.Start == nil {
			continue
		}
		out.Occurrences = append(out.Occurrences, occurrenceOf(ev, *ev.Start))
	}
	return out
}

func occurrenceOf(ev ParsedEvent, start StartValue) Occurrence {
	return Occurrence{
		UID:        ev.UID,
		Summary:    ev.Summary,
		Categories: ev.Categories,
		Start:      start,
	}
}
