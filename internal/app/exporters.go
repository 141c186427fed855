package app

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// GenerateICS generates a downloadable iCalendar file for one conference,
// with optional reminder alarms ahead of each deadline.
func GenerateICS(w http.ResponseWriter, r *http.Request, conf *Conference, entries []Entry) {
	reminder7Days := r.URL.Query().Get("reminder7Days") == "true"
	reminder1Day := r.URL.Query().Get("reminder1Day") == "true"
	time7Days := r.URL.Query().Get("time7Days")
	time1Day := r.URL.Query().Get("time1Day")

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=cfp_%s.ics", conf.ShortName))

	fmt.Fprintln(w, "BEGIN:VCALENDAR")
	fmt.Fprintln(w, "VERSION:2.0")
	fmt.Fprintf(w, "PRODID:%s\n", ICSProductID)
	fmt.Fprintf(w, "X-WR-CALNAME:CFP %s\n", conf.ShortName)
	fmt.Fprintf(w, "X-WR-TIMEZONE:%s\n", ICSTimezone)
	fmt.Fprintln(w, "CALSCALE:GREGORIAN")

	for _, entry := range entries {
		start, err := time.Parse(DateLayout, entry.Date)
		if err != nil {
			continue
		}

		writeEntryEvent(w, conf, entry, start)

		// Alarms only make sense ahead of deadlines, not the event itself
		if entry.Type != TypeConference {
			if reminder7Days && time7Days != "" {
				AddAlarm(w, start, 7, time7Days, entry.Label)
			}
			if reminder1Day && time1Day != "" {
				AddAlarm(w, start, 1, time1Day, entry.Label)
			}
		}

		fmt.Fprintln(w, "END:VEVENT")
	}

	fmt.Fprintln(w, "END:VCALENDAR")
}

// writeEntryEvent writes the VEVENT for one entry up to (not including) the
// closing END:VEVENT, so callers can append alarms. Deadlines become all-day
// events; conference spans run from start through end inclusive.
func writeEntryEvent(w io.Writer, conf *Conference, entry Entry, start time.Time) {
	end := start.AddDate(0, 0, 1)
	if entry.Type == TypeConference && entry.EndDate != "" {
		if e, err := time.Parse(DateLayout, entry.EndDate); err == nil {
			// DTEND is exclusive in ICS
			end = e.AddDate(0, 0, 1)
		}
	}

	summary := fmt.Sprintf("%s %s: %s", conf.ShortName, entry.YearLabel, entry.Label)
	if entry.IsPredicted {
		summary += " (predicted)"
	}

	uid := fmt.Sprintf("%s-%s-%s@cfp-kalender", entry.Date, entry.Type, conf.ShortName)

	fmt.Fprintln(w, "BEGIN:VEVENT")
	fmt.Fprintf(w, "UID:%s\n", uid)
	fmt.Fprintf(w, "DTSTAMP:%s\n", time.Now().UTC().Format("20060102T150405Z"))
	fmt.Fprintf(w, "DTSTART;VALUE=DATE:%s\n", start.Format("20060102"))
	fmt.Fprintf(w, "DTEND;VALUE=DATE:%s\n", end.Format("20060102"))
	fmt.Fprintf(w, "SUMMARY:%s\n", summary)
	fmt.Fprintf(w, "DESCRIPTION:%s %s\n", conf.Name, entry.YearLabel)
}

// AddAlarm adds a display alarm triggered at alarmTime (HH:MM) daysBefore
// days ahead of the all-day event.
func AddAlarm(w io.Writer, eventDate time.Time, daysBefore int, alarmTime string, description string) {
	parts := strings.Split(alarmTime, ":")
	if len(parts) != 2 {
		return
	}

	hour, err1 := strconv.Atoi(parts[0])
	minute, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return
	}

	// The event starts at 00:00 on eventDate; the trigger is expressed as a
	// signed duration relative to that.
	alarmDate := eventDate.AddDate(0, 0, -daysBefore)
	alarmDateTime := time.Date(alarmDate.Year(), alarmDate.Month(), alarmDate.Day(), hour, minute, 0, 0, time.UTC)
	eventStart := time.Date(eventDate.Year(), eventDate.Month(), eventDate.Day(), 0, 0, 0, 0, time.UTC)
	duration := alarmDateTime.Sub(eventStart)

	totalMinutes := int(duration.Minutes())
	isNegative := totalMinutes < 0
	if isNegative {
		totalMinutes = -totalMinutes
	}

	days := totalMinutes / (24 * 60)
	remainingMinutes := totalMinutes % (24 * 60)
	hours := remainingMinutes / 60
	minutes := remainingMinutes % 60

	var trigger string
	if isNegative {
		trigger = fmt.Sprintf("-P%dDT%dH%dM", days, hours, minutes)
	} else {
		trigger = fmt.Sprintf("P%dDT%dH%dM", days, hours, minutes)
	}

	fmt.Fprintln(w, "BEGIN:VALARM")
	fmt.Fprintln(w, "ACTION:DISPLAY")
	fmt.Fprintf(w, "DESCRIPTION:Reminder: %s\n", description)
	fmt.Fprintf(w, "TRIGGER:%s\n", trigger)
	fmt.Fprintln(w, "END:VALARM")
}

// GenerateCSV exports one conference's entries as CSV.
func GenerateCSV(w http.ResponseWriter, conf *Conference, entries []Entry) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=cfp_%s.csv", conf.ShortName))

	fmt.Fprintln(w, "Date,EndDate,Type,Year,Label,Predicted")
	for _, e := range entries {
		fmt.Fprintf(w, "%s,%s,%s,%s,%s,%t\n",
			e.Date, e.EndDate, e.Type, e.YearLabel, csvEscape(e.Label), e.IsPredicted)
	}
}

// csvEscape quotes a field containing separators; deadline labels scraped
// from CFP pages regularly contain commas.
func csvEscape(field string) string {
	if strings.ContainsAny(field, ",\"\n") {
		return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
	}
	return field
}

// GenerateJSON exports one conference's entries as JSON.
func GenerateJSON(w http.ResponseWriter, conf *Conference, entries []Entry) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=cfp_%s.json", conf.ShortName))

	data := map[string]interface{}{
		"conference": conf.Name,
		"short_name": conf.ShortName,
		"entries":    entries,
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON export: %v", err)
		http.Error(w, ErrFailedToGenerate, http.StatusInternalServerError)
	}
}

// GenerateSubscriptionICS generates an iCalendar subscription feed. Unlike
// GenerateICS this is inline content with METHOD:PUBLISH, a refresh hint and
// no alarms (calendar apps ignore alarms in subscribed calendars).
func GenerateSubscriptionICS(w http.ResponseWriter, conf *Conference, entries []Entry) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	// No Content-Disposition header - calendar apps need inline content

	fmt.Fprintln(w, "BEGIN:VCALENDAR")
	fmt.Fprintln(w, "VERSION:2.0")
	fmt.Fprintf(w, "PRODID:%s\n", ICSProductID)
	fmt.Fprintln(w, "METHOD:PUBLISH")
	fmt.Fprintf(w, "X-WR-CALNAME:CFP %s\n", conf.ShortName)
	fmt.Fprintf(w, "X-WR-TIMEZONE:%s\n", ICSTimezone)
	fmt.Fprintln(w, "CALSCALE:GREGORIAN")
	fmt.Fprintln(w, "X-PUBLISHED-TTL:P1D")

	for _, entry := range entries {
		start, err := time.Parse(DateLayout, entry.Date)
		if err != nil {
			continue
		}
		writeEntryEvent(w, conf, entry, start)
		fmt.Fprintln(w, "END:VEVENT")
	}

	fmt.Fprintln(w, "END:VCALENDAR")
}
