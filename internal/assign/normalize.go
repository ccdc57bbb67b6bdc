package assign

import (
	"time"

	"assigntrack/internal/ics"
)

const (
	dateStampLayout = "2006-01-02"
	timeStampLayout = "20060102T150405Z"
)

// NormalizeDue converts a feed start value into the canonical due
// instant in loc.
//
//   - A bare date resolves to 23:59:00 UTC on that date before the zone
//     conversion, so a date-only due item stays "due" through the end of
//     its calendar day.
//   - Naive timestamps were parsed as UTC upstream; timestamps with an
//     offset convert directly.
func NormalizeDue(v ics.StartValue, loc *time.Location) time.Time {
	return v.UTCInstant().In(loc)
}

// DueStamp is the canonical UTC stamp of a start value, used to
// disambiguate recurring instances inside a dedupe key. Bare dates use
// the ISO date form; timestamps use a second-precision UTC form.
func DueStamp(v ics.StartValue) string {
	if v.DateOnly {
		return v.Time.Format(dateStampLayout)
	}
	return v.Time.UTC().Format(timeStampLayout)
}

// DedupeKey combines an event UID with the occurrence's due stamp. An
// absent UID yields the bare stamp, with no separator.
func DedupeKey(uid string, v ics.StartValue) string {
	stamp := DueStamp(v)
	if uid == "" {
		return stamp
	}
	return uid + "#" + stamp
}
