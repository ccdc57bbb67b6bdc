package ics

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "assigntrack/internal/log"
)

// StartValue is a DTSTART as the feed carried it: either a bare calendar
// date or a full timestamp. Naive timestamps (no offset, no TZID) are
// parsed as UTC wall-clock time, which is exactly how the normalizer
// treats them downstream.
type StartValue struct {
	Time     time.Time
	DateOnly bool
}

// ParsedEvent is the normalized representation of a VEVENT as produced
// by the ICS parser. Recurrence expansion operates on this type.
type ParsedEvent struct {
	// UID may be empty; Brightspace-style feeds occasionally omit it.
	UID string

	Summary    string
	Categories string

	// Start is nil when the VEVENT has no DTSTART; such events cannot be
	// scheduled and are dropped later in the pipeline.
	Start *StartValue

	RawRRule string
	ExDates  []time.Time
}

// Calendar is one parsed ICS document.
type Calendar struct {
	Source Source
	// Name is the calendar-level X-WR-CALNAME, if present.
	Name   string
	Events []ParsedEvent
}

// ParseICS parses a single ICS payload into a Calendar.
//
// Malformed VEVENTs are logged and skipped; only an unparseable document
// as a whole is an error.
func ParseICS(src Source, body []byte) (Calendar, error) {
	out := Calendar{Source: src}

	if len(body) == 0 {
		return out, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "id", src.ID, "url", redactURL(src.URL))
		return out, err
	}

	out.Name = calendarName(cal)

	for _, comp := range cal.Events() {
		ev, perr := parseVEvent(comp)
		if perr != nil {
			appLog.Error("ics vevent parse failed", perr, "id", src.ID, "url", redactURL(src.URL))
			continue
		}
		out.Events = append(out.Events, ev)
	}

	appLog.Debug("ics parse completed", "id", src.ID, "calendar", out.Name, "event_count", len(out.Events))
	return out, nil
}

// calendarName extracts X-WR-CALNAME from the calendar-level properties.
func calendarName(cal *ical.Calendar) string {
	for _, p := range cal.CalendarProperties {
		if strings.EqualFold(p.IANAToken, "X-WR-CALNAME") {
			return strings.TrimSpace(p.Value)
		}
	}
	return ""
}

func parseVEvent(ve *ical.VEvent) (ParsedEvent, error) {
	var out ParsedEvent

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		out.UID = strings.TrimSpace(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyCategories); p != nil {
		out.Categories = p.Value
	}

	// DTSTART, keeping the raw value so date-only and naive forms stay
	// distinguishable. The library's GetStartAt collapses both to a
	// time.Time, which loses exactly the detail the normalizer needs.
	if p := ve.GetProperty(ical.ComponentPropertyDtStart); p != nil {
		sv, err := parseStartValue(p)
		if err != nil {
			return out, err
		}
		out.Start = &sv
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RawRRule = p.Value
	}

	// EXDATE can appear multiple times and carry comma-separated values.
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	return out, nil
}

// parseStartValue interprets a DTSTART property.
//
//   - VALUE=DATE or a value without 'T' is a bare date.
//   - A 'Z' suffix is UTC.
//   - A TZID parameter names the zone; unknown zones fall back to UTC.
//   - Anything else is naive and parsed as UTC wall-clock.
func parseStartValue(p *ical.IANAProperty) (StartValue, error) {
	val := strings.TrimSpace(p.Value)
	if val == "" {
		return StartValue{}, errors.New("empty DTSTART value")
	}

	dateOnly := !strings.Contains(val, "T")
	if params := p.ICalParameters; params != nil {
		if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			dateOnly = true
		}
	}

	if dateOnly {
		t, err := time.Parse("20060102", val)
		if err != nil {
			return StartValue{}, err
		}
		return StartValue{Time: t, DateOnly: true}, nil
	}

	if strings.HasSuffix(val, "Z") {
		t, err := time.Parse("20060102T150405Z", val)
		if err != nil {
			return StartValue{}, err
		}
		return StartValue{Time: t}, nil
	}

	loc := time.UTC
	if params := p.ICalParameters; params != nil {
		if tzs, ok := params["TZID"]; ok && len(tzs) > 0 {
			if l, err := time.LoadLocation(tzs[0]); err == nil {
				loc = l
			}
		}
	}

	t, err := time.ParseInLocation("20060102T150405", val, loc)
	if err != nil {
		return StartValue{}, err
	}
	return StartValue{Time: t}, nil
}

// parseICSTime parses a basic ICS date/date-time string, used for EXDATE
// where full parameter context is not kept. Naive forms are read as UTC.
func parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if strings.Contains(v, "T") {
		return time.Parse("20060102T150405", v)
	}
	return time.Parse("20060102", v)
}
