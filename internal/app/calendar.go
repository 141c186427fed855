package app

import (
	"fmt"
	"log"
	"sort"
	"time"
)

// MonthWindow computes the displayed calendar window for the given point in
// time: 24 consecutive month slots starting at April of the current fiscal
// year (January through March count towards the previous fiscal year), plus
// the zero-based index of the current month within the window.
func MonthWindow(now time.Time) ([]MonthSlot, int) {
	fiscalYear := now.Year()
	if int(now.Month()) < FiscalStartMonth {
		fiscalYear--
	}

	slots := make([]MonthSlot, 0, WindowMonths)
	start := time.Date(fiscalYear, time.Month(FiscalStartMonth), 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < WindowMonths; i++ {
		t := start.AddDate(0, i, 0)
		slots = append(slots, MonthSlot{
			Year:  t.Year(),
			Month: int(t.Month()),
			Label: t.Format("Jan 2006"),
		})
	}

	currentIndex := (now.Year()-fiscalYear)*12 + int(now.Month()) - FiscalStartMonth
	return slots, currentIndex
}

// Bucketize collects the entries of a single conference that belong to the
// given month slot: every deadline whose date falls in the slot's month, plus
// a synthetic "conference" entry when the event's start date does. Entries
// with unparseable dates are skipped with a warning; a slot may legitimately
// hold several entries for the same conference (multi-track deadlines).
func Bucketize(c *Conference, slot MonthSlot) []Entry {
	var entries []Entry

	for _, yearLabel := range sortedYearLabels(c.Information) {
		info := c.Information[yearLabel]

		for _, d := range info.Deadlines {
			t, err := time.Parse(DateLayout, d.Date)
			if err != nil {
				log.Printf("Warning: %s %s: skipping deadline %q with invalid date %q",
					c.ShortName, yearLabel, d.Label, d.Date)
				continue
			}
			if t.Year() != slot.Year || int(t.Month()) != slot.Month {
				continue
			}
			entries = append(entries, Entry{
				Type:        d.Type,
				Date:        d.Date,
				Label:       d.Label,
				ShortName:   c.ShortName,
				YearLabel:   yearLabel,
				IsPredicted: d.IsPredicted,
			})
		}

		if info.ConferenceDates == nil || info.ConferenceDates.Start == "" {
			continue
		}
		start, err := time.Parse(DateLayout, info.ConferenceDates.Start)
		if err != nil {
			log.Printf("Warning: %s %s: skipping conference dates with invalid start %q",
				c.ShortName, yearLabel, info.ConferenceDates.Start)
			continue
		}
		if start.Year() != slot.Year || int(start.Month()) != slot.Month {
			continue
		}
		entries = append(entries, Entry{
			Type:        TypeConference,
			Date:        info.ConferenceDates.Start,
			EndDate:     info.ConferenceDates.End,
			Label:       "Conference",
			ShortName:   c.ShortName,
			YearLabel:   yearLabel,
			IsPredicted: info.IsPredicted,
		})
	}

	return entries
}

// BuildRows produces the full view model: one row per conference with one
// entry bucket per month slot. The conference order is preserved.
func BuildRows(conferences []Conference, slots []MonthSlot) []Row {
	rows := make([]Row, 0, len(conferences))
	for i := range conferences {
		c := &conferences[i]
		buckets := make([][]Entry, len(slots))
		for j, slot := range slots {
			buckets[j] = Bucketize(c, slot)
		}
		rows = append(rows, Row{
			Name:      c.Name,
			ShortName: c.ShortName,
			Rank:      c.Rank,
			URL:       c.URL,
			Themes:    c.EffectiveThemes(),
			Flagship:  c.Flagship,
			Buckets:   buckets,
		})
	}
	return rows
}

// ShortDate renders the compact marker text: "6/1-6/5" for a conference span
// with a known end, otherwise "3/10" for the single date.
func (e Entry) ShortDate() string {
	start, err := time.Parse(DateLayout, e.Date)
	if err != nil {
		return ""
	}
	if e.Type == TypeConference && e.EndDate != "" {
		if end, err := time.Parse(DateLayout, e.EndDate); err == nil {
			return fmt.Sprintf("%d/%d-%d/%d",
				int(start.Month()), start.Day(), int(end.Month()), end.Day())
		}
	}
	return fmt.Sprintf("%d/%d", int(start.Month()), start.Day())
}

// Detail is the expanded popup content for one entry.
type Detail struct {
	Heading   string `json:"heading"`
	Predicted bool   `json:"predicted"`
	Owner     string `json:"owner"`
}

// DetailFor builds the popup content, framing the owner line as
// "Conference: X Y" for conference spans and "For: X Y" for deadlines.
func (e Entry) DetailFor(conferenceName string) Detail {
	frame := "For"
	if e.Type == TypeConference {
		frame = "Conference"
	}
	return Detail{
		Heading:   e.Label,
		Predicted: e.IsPredicted,
		Owner:     fmt.Sprintf("%s: %s %s", frame, conferenceName, e.YearLabel),
	}
}

// sortedYearLabels returns the information keys in ascending order. Map order
// is not significant for bucketing, but stable output keeps the rendered
// markers and the tests deterministic.
func sortedYearLabels(information map[string]YearInfo) []string {
	labels := make([]string, 0, len(information))
	for label := range information {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
