package app

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func exportEntries() []Entry {
	return []Entry{
		{Type: TypeSubmission, Date: "2026-03-10", Label: "Paper submission", YearLabel: "2026", ShortName: "ICE"},
		{Type: TypeConference, Date: "2026-06-01", EndDate: "2026-06-05", Label: "Conference", YearLabel: "2026", ShortName: "ICE"},
	}
}

func TestGenerateICS(t *testing.T) {
	conf := testConference()
	req := httptest.NewRequest("GET", "/api/download?reminder7Days=true&time7Days=09:00&reminder1Day=true&time1Day=18:00", nil)
	w := httptest.NewRecorder()

	GenerateICS(w, req, conf, exportEntries())

	resp := w.Result()
	body := w.Body.String()

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "text/calendar") {
		t.Errorf("Expected Content-Type text/calendar, got %s", contentType)
	}

	requiredFields := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//CFP-Kalender//Conference Deadlines//EN",
		"BEGIN:VEVENT",
		"END:VEVENT",
		"END:VCALENDAR",
	}
	for _, field := range requiredFields {
		if !strings.Contains(body, field) {
			t.Errorf("ICS output missing required field: %s", field)
		}
	}

	// Deadline: all-day event
	if !strings.Contains(body, "DTSTART;VALUE=DATE:20260310") {
		t.Error("Deadline should be an all-day event")
	}
	if !strings.Contains(body, "DTEND;VALUE=DATE:20260311") {
		t.Error("All-day deadline should end on the next day")
	}

	// Conference span: DTEND is exclusive, so June 5 inclusive ends June 6
	if !strings.Contains(body, "DTSTART;VALUE=DATE:20260601") {
		t.Error("Conference span should start on its start date")
	}
	if !strings.Contains(body, "DTEND;VALUE=DATE:20260606") {
		t.Error("Conference span should cover the end date inclusively")
	}

	if !strings.Contains(body, "SUMMARY:ICE 2026: Paper submission") {
		t.Error("Missing deadline summary")
	}

	// Alarms only on the deadline, not on the conference span
	alarmCount := strings.Count(body, "BEGIN:VALARM")
	if alarmCount != 2 {
		t.Errorf("Expected 2 alarms (deadline only), got %d", alarmCount)
	}
	if !strings.Contains(body, "TRIGGER:-P") {
		t.Error("Alarm missing TRIGGER with negative duration")
	}
}

func TestGenerateICS_PredictedMarker(t *testing.T) {
	conf := testConference()
	entries := []Entry{
		{Type: TypeSubmission, Date: "2027-03-10", Label: "Paper submission", YearLabel: "2027", IsPredicted: true},
	}

	w := httptest.NewRecorder()
	GenerateICS(w, httptest.NewRequest("GET", "/api/download", nil), conf, entries)

	if !strings.Contains(w.Body.String(), "SUMMARY:ICE 2027: Paper submission (predicted)") {
		t.Errorf("Predicted entries should be marked in the summary, got:\n%s", w.Body.String())
	}
}

func TestAddAlarm(t *testing.T) {
	tests := []struct {
		name        string
		eventDate   time.Time
		daysBefore  int
		alarmTime   string
		wantTrigger string
	}{
		{
			name:        "7 days before at 09:00",
			eventDate:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
			daysBefore:  7,
			alarmTime:   "09:00",
			wantTrigger: "-P6DT15H0M",
		},
		{
			name:        "1 day before at 18:00",
			eventDate:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
			daysBefore:  1,
			alarmTime:   "18:00",
			wantTrigger: "-P0DT6H0M",
		},
		{
			name:        "same day at 07:00",
			eventDate:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
			daysBefore:  0,
			alarmTime:   "07:00",
			wantTrigger: "P0DT7H0M",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			AddAlarm(&buf, tt.eventDate, tt.daysBefore, tt.alarmTime, "Paper submission")

			output := buf.String()
			if !strings.Contains(output, "BEGIN:VALARM") || !strings.Contains(output, "END:VALARM") {
				t.Error("Missing VALARM block")
			}
			if !strings.Contains(output, "TRIGGER:"+tt.wantTrigger) {
				t.Errorf("Expected TRIGGER:%s, got output:\n%s", tt.wantTrigger, output)
			}
		})
	}
}

func TestAddAlarm_InvalidTime(t *testing.T) {
	var buf bytes.Buffer
	AddAlarm(&buf, time.Now(), 1, "not-a-time", "x")
	if buf.Len() != 0 {
		t.Errorf("Invalid alarm time should produce no output, got %q", buf.String())
	}
}

func TestGenerateCSV(t *testing.T) {
	conf := testConference()
	entries := []Entry{
		{Type: TypeSubmission, Date: "2026-03-10", Label: "Paper submission, research track", YearLabel: "2026"},
		{Type: TypeConference, Date: "2026-06-01", EndDate: "2026-06-05", Label: "Conference", YearLabel: "2026"},
	}

	w := httptest.NewRecorder()
	GenerateCSV(w, conf, entries)

	resp := w.Result()
	body := w.Body.String()

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "text/csv") {
		t.Errorf("Expected Content-Type text/csv, got %s", contentType)
	}
	if !strings.Contains(body, "Date,EndDate,Type,Year,Label,Predicted") {
		t.Error("Missing CSV header")
	}
	// Labels containing commas must be quoted
	if !strings.Contains(body, `"Paper submission, research track"`) {
		t.Errorf("Comma-bearing label should be quoted, got:\n%s", body)
	}
	if !strings.Contains(body, "2026-06-01,2026-06-05,conference,2026,Conference,false") {
		t.Errorf("Missing conference row, got:\n%s", body)
	}
}

func TestGenerateSubscriptionICS(t *testing.T) {
	conf := testConference()
	w := httptest.NewRecorder()

	GenerateSubscriptionICS(w, conf, exportEntries())

	resp := w.Result()
	body := w.Body.String()

	// Subscriptions must be inline content
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		t.Errorf("Subscription should not have Content-Disposition header, got: %s", cd)
	}

	requiredFields := []string{
		"BEGIN:VCALENDAR",
		"METHOD:PUBLISH",
		"X-PUBLISHED-TTL:P1D",
		"X-WR-CALNAME:CFP ICE",
		"END:VCALENDAR",
	}
	for _, field := range requiredFields {
		if !strings.Contains(body, field) {
			t.Errorf("Subscription ICS missing required field: %s", field)
		}
	}

	// No alarms in subscription feeds
	if n := strings.Count(body, "BEGIN:VALARM"); n != 0 {
		t.Errorf("Subscription should not contain alarms, found %d", n)
	}

	// Stable UID for proper calendar updates
	if !strings.Contains(body, "UID:2026-03-10-submission-ICE@cfp-kalender") {
		t.Error("Missing or incorrect UID format")
	}
}

func TestGenerateSubscriptionICS_InvalidDateSkipped(t *testing.T) {
	conf := testConference()
	entries := []Entry{
		{Type: TypeSubmission, Date: "invalid", Label: "Broken", YearLabel: "2026"},
		{Type: TypeSubmission, Date: "2026-03-10", Label: "Valid", YearLabel: "2026"},
	}

	w := httptest.NewRecorder()
	GenerateSubscriptionICS(w, conf, entries)

	body := w.Body.String()
	if n := strings.Count(body, "BEGIN:VEVENT"); n != 1 {
		t.Errorf("Expected 1 valid event, got %d", n)
	}
	if strings.Contains(body, "Broken") {
		t.Error("Invalid event should be skipped")
	}
}
