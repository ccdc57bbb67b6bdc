package ics

import (
	"strings"
	"testing"
	"time"
)

func doc(lines ...string) []byte {
	all := []string{"BEGIN:VCALENDAR", "VERSION:2.0", "PRODID:-//assigntrack//test//EN"}
	all = append(all, lines...)
	all = append(all, "END:VCALENDAR")
	return []byte(strings.Join(all, "\r\n") + "\r\n")
}

func TestParseICSCalendarName(t *testing.T) {
	body := doc(
		"X-WR-CALNAME:Biology 101",
		"BEGIN:VEVENT",
		"UID:e1",
		"SUMMARY:Lab",
		"DTSTART:20240503T160000Z",
		"END:VEVENT",
	)

	cal, err := ParseICS(Source{ID: "t", URL: "https://t.example/f.ics"}, body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cal.Name != "Biology 101" {
		t.Fatalf("calendar name = %q, want %q", cal.Name, "Biology 101")
	}
	if len(cal.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(cal.Events))
	}
}

func TestParseICSStartForms(t *testing.T) {
	body := doc(
		"BEGIN:VEVENT",
		"UID:utc",
		"DTSTART:20240503T160000Z",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:date-only",
		"DTSTART;VALUE=DATE:20240510",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:naive",
		"DTSTART:20240503T090000",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:none",
		"SUMMARY:No start",
		"END:VEVENT",
	)

	cal, err := ParseICS(Source{ID: "t", URL: "https://t.example/f.ics"}, body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	byUID := map[string]ParsedEvent{}
	for _, ev := range cal.Events {
		byUID[ev.UID] = ev
	}

	utc := byUID["utc"]
	if utc.Start == nil || utc.Start.DateOnly {
		t.Fatalf("utc event: unexpected start %+v", utc.Start)
	}
	if want := time.Date(2024, 5, 3, 16, 0, 0, 0, time.UTC); !utc.Start.Time.Equal(want) {
		t.Fatalf("utc start = %v, want %v", utc.Start.Time, want)
	}

	dateOnly := byUID["date-only"]
	if dateOnly.Start == nil || !dateOnly.Start.DateOnly {
		t.Fatalf("date-only event not detected: %+v", dateOnly.Start)
	}

	// Naive timestamps read as UTC wall-clock.
	naive := byUID["naive"]
	if naive.Start == nil || naive.Start.DateOnly {
		t.Fatalf("naive event: unexpected start %+v", naive.Start)
	}
	if want := time.Date(2024, 5, 3, 9, 0, 0, 0, time.UTC); !naive.Start.Time.Equal(want) {
		t.Fatalf("naive start = %v, want %v", naive.Start.Time, want)
	}

	if byUID["none"].Start != nil {
		t.Fatalf("event without DTSTART should have nil start")
	}
}

func TestParseICSBareDateWithoutValueParam(t *testing.T) {
	// Some feeds emit DTSTART:20240510 without VALUE=DATE; the missing
	// 'T' alone marks it date-only.
	body := doc(
		"BEGIN:VEVENT",
		"UID:d",
		"DTSTART:20240510",
		"END:VEVENT",
	)
	cal, err := ParseICS(Source{ID: "t", URL: "https://t.example/f.ics"}, body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(cal.Events) != 1 || cal.Events[0].Start == nil || !cal.Events[0].Start.DateOnly {
		t.Fatalf("bare date not detected as date-only: %+v", cal.Events)
	}
}

func TestParseICSEmptyBody(t *testing.T) {
	if _, err := ParseICS(Source{ID: "t"}, nil); err == nil {
		t.Fatal("expected error for empty body")
	}
}

func TestParseICSMissingUIDIsAllowed(t *testing.T) {
	body := doc(
		"BEGIN:VEVENT",
		"SUMMARY:Anonymous",
		"DTSTART:20240503T160000Z",
		"END:VEVENT",
	)
	cal, err := ParseICS(Source{ID: "t", URL: "https://t.example/f.ics"}, body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(cal.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(cal.Events))
	}
	if cal.Events[0].UID != "" {
		t.Fatalf("UID should be empty, got %q", cal.Events[0].UID)
	}
}

func TestRedactURL(t *testing.T) {
	got := redactURL("https://lms.example.edu/feeds/user-token-123/calendar.ics")
	if strings.Contains(got, "user-token-123") {
		t.Fatalf("token leaked: %q", got)
	}
	if !strings.HasPrefix(got, "https://lms.example.edu") {
		t.Fatalf("host lost: %q", got)
	}
}
