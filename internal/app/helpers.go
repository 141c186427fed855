package app

import (
	"log"
	"net/http"
	"sort"
	"time"
)

// RequireMethod validates that the request uses the specified HTTP method.
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// CollectEntries flattens every deadline and conference span of a conference
// into entries, sorted by date. Used by the exporters, which are not bound to
// the month window.
func CollectEntries(c *Conference) []Entry {
	var entries []Entry

	for _, yearLabel := range sortedYearLabels(c.Information) {
		info := c.Information[yearLabel]

		for _, d := range info.Deadlines {
			if _, err := time.Parse(DateLayout, d.Date); err != nil {
				log.Printf("Warning: %s %s: skipping deadline %q with invalid date %q",
					c.ShortName, yearLabel, d.Label, d.Date)
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

		if info.ConferenceDates != nil && info.ConferenceDates.Start != "" {
			if _, err := time.Parse(DateLayout, info.ConferenceDates.Start); err == nil {
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
		}
	}

	SortEntriesByDate(entries)
	return entries
}

// SortEntriesByDate sorts entries by date in ascending order.
func SortEntriesByDate(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date < entries[j].Date
	})
}
