// Package scraper collects CFP deadline information from WikiCFP event
// pages. It feeds the scrape subcommand; the serving path never touches it.
package scraper

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/klabast/cfp-kalender/internal/app"
	"github.com/klabast/cfp-kalender/internal/client"
)

const defaultBaseURL = "http://www.wikicfp.com"

// maxEventPages bounds how many search hits are followed per conference.
const maxEventPages = 30

// Scraper queries WikiCFP for conference editions.
type Scraper struct {
	client  *http.Client
	baseURL string
}

// New creates a scraper with the shared HTTP client.
func New() *Scraper {
	return &Scraper{client: client.New(), baseURL: defaultBaseURL}
}

// NewWithBase creates a scraper against a custom base URL (tests).
func NewWithBase(httpClient *http.Client, baseURL string) *Scraper {
	return &Scraper{client: httpClient, baseURL: baseURL}
}

// EventDetails is the scraped content of one WikiCFP event page.
type EventDetails struct {
	URL             string
	PageTitle       string
	EventTitle      string
	WhenText        string
	Deadlines       []app.Deadline
	ConferenceDates *app.ConferenceDates
	linkText        string
}

// Search finds the best-matching event page per target year for the given
// conference name. Matching is by whole word against the search-result link
// text, the event title and the "When" field; for very short names the word
// boundary is tightened to avoid hits like "CC" inside "AI-CC".
func (s *Scraper) Search(name string, targetYears []int) (map[int]*EventDetails, error) {
	query := strings.TrimPrefix(name, "ACM ")
	searchURL := fmt.Sprintf("%s/cfp/servlet/tool.search?q=%s&year=a",
		s.baseURL, url.QueryEscape(query))

	resp, err := client.Get(s.client, searchURL)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search %s: unexpected status %d", name, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse search results: %w", err)
	}

	type eventLink struct {
		href string
		text string
	}
	var links []eventLink
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if strings.Contains(href, "eventid") && strings.Contains(href, "showcfp") {
			links = append(links, eventLink{href: href, text: sel.Text()})
		}
	})

	pattern := namePattern(query)
	wanted := make(map[int]bool, len(targetYears))
	for _, y := range targetYears {
		wanted[y] = true
	}

	found := make(map[int]*EventDetails)
	for i, link := range links {
		if i >= maxEventPages {
			break
		}

		details, err := s.FetchDetails(s.baseURL + link.href)
		if err != nil || details == nil {
			continue
		}
		details.linkText = strings.TrimSpace(link.text)

		if !pattern.MatchString(strings.ToLower(details.linkText)) &&
			!pattern.MatchString(strings.ToLower(details.EventTitle)) &&
			!pattern.MatchString(strings.ToLower(details.WhenText)) {
			continue
		}

		year := details.eventYear()
		if !wanted[year] {
			continue
		}

		existing, ok := found[year]
		if !ok || betterMatch(pattern, details, existing) {
			found[year] = details
		}
	}

	return found, nil
}

// FetchDetails scrapes one WikiCFP event page. WikiCFP lays out the important
// dates as table rows with a <th> label and a <td> value.
func (s *Scraper) FetchDetails(pageURL string) (*EventDetails, error) {
	resp, err := client.Get(s.client, pageURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	details := &EventDetails{URL: pageURL}
	details.PageTitle = strings.TrimSpace(doc.Find("title").First().Text())
	details.EventTitle = strings.TrimSpace(doc.Find("h1, h2, h3").First().Text())

	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		label := strings.TrimSpace(row.Find("th").First().Text())
		value := strings.TrimSpace(row.Find("td").First().Text())
		if label == "" || value == "" {
			return
		}

		labelLower := strings.ToLower(label)
		if labelLower == "when" {
			details.WhenText = value
			details.ConferenceDates = ParseDateRange(value)
			return
		}

		if !isDeadlineLabel(labelLower) {
			return
		}
		date, ok := ParseDate(value)
		if !ok {
			return
		}
		details.Deadlines = append(details.Deadlines, app.Deadline{
			Type:  ClassifyDeadline(labelLower),
			Date:  date,
			Label: label,
		})
	})

	return details, nil
}

// eventYear determines which edition a page describes. The page title is the
// most reliable source ("ACL 2025 : The 63rd Annual Meeting..."), then the
// conference start date, then deadline year + 1 as a last resort.
func (d *EventDetails) eventYear() int {
	title := d.PageTitle
	if len(title) > 50 {
		title = title[:50]
	}
	if m := yearRe.FindString(title); m != "" {
		if y, err := strconv.Atoi(m); err == nil {
			return y
		}
	}

	if d.ConferenceDates != nil && d.ConferenceDates.Start != "" {
		if t, err := time.Parse(app.DateLayout, d.ConferenceDates.Start); err == nil {
			return t.Year()
		}
	}

	for _, dl := range d.Deadlines {
		if t, err := time.Parse(app.DateLayout, dl.Date); err == nil {
			return t.Year() + 1
		}
	}
	return 0
}

var yearRe = regexp.MustCompile(`\b20\d{2}\b`)

// namePattern builds the word-boundary matcher for a conference name. Short
// names only match when delimited by spaces, colons or string edges.
func namePattern(name string) *regexp.Regexp {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if len(normalized) <= 3 {
		return regexp.MustCompile(`(?:^|[\s:])` + regexp.QuoteMeta(normalized) + `(?:[\s:]|$)`)
	}
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(normalized) + `\b`)
}

// betterMatch prefers a hit in the search-result link text over a hit in a
// plain event title over a hit in a composite title ("WWW/Internet"), and
// among equals the page with more deadlines.
func betterMatch(pattern *regexp.Regexp, candidate, existing *EventDetails) bool {
	quality := func(d *EventDetails) int {
		switch {
		case pattern.MatchString(strings.ToLower(d.linkText)):
			return 3
		case pattern.MatchString(strings.ToLower(d.EventTitle)) && !strings.Contains(d.EventTitle, "/"):
			return 2
		case pattern.MatchString(strings.ToLower(d.EventTitle)):
			return 1
		}
		return 0
	}

	cq, eq := quality(candidate), quality(existing)
	if cq != eq {
		return cq > eq
	}
	return len(candidate.Deadlines) > len(existing.Deadlines)
}

// deadlineKeywords flag an important-dates row as deadline-like.
var deadlineKeywords = []string{
	"deadline", "due", "submission", "notification", "registration", "camera", "final",
}

func isDeadlineLabel(labelLower string) bool {
	for _, kw := range deadlineKeywords {
		if strings.Contains(labelLower, kw) {
			return true
		}
	}
	return false
}

// ClassifyDeadline maps a row label to a deadline type tag.
func ClassifyDeadline(labelLower string) string {
	switch {
	case strings.Contains(labelLower, "abstract") && strings.Contains(labelLower, "registration"):
		return "abstract_registration"
	case strings.Contains(labelLower, "submission deadline"), strings.Contains(labelLower, "submission due"):
		return app.TypeSubmission
	case strings.Contains(labelLower, "notification"):
		return app.TypeNotification
	case strings.Contains(labelLower, "final version"), strings.Contains(labelLower, "camera ready"):
		return app.TypeCameraReady
	case strings.Contains(labelLower, "workshop"):
		return "workshop"
	case strings.Contains(labelLower, "poster"):
		return "poster"
	case strings.Contains(labelLower, "demo"):
		return "demo"
	}
	return "other"
}

var dateFormats = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"2006-01-02",
	"2 January 2006",
	"2 Jan 2006",
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// ParseDate normalizes a scraped date string to YYYY-MM-DD.
func ParseDate(raw string) (string, bool) {
	cleaned := strings.TrimSpace(whitespaceRe.ReplaceAllString(raw, " "))
	switch strings.ToLower(cleaned) {
	case "", "tbd", "n/a", "none":
		return "", false
	}

	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t.Format(app.DateLayout), true
		}
	}
	return "", false
}

var datePartRe = regexp.MustCompile(`\w+ \d+(?:, \d{4})?`)

// ParseDateRange extracts start and end dates from a "When" field like
// "Jun 1, 2026 - Jun 5, 2026".
func ParseDateRange(raw string) *app.ConferenceDates {
	parts := datePartRe.FindAllString(raw, -1)
	if len(parts) < 2 {
		return nil
	}
	start, okStart := ParseDate(parts[0])
	end, okEnd := ParseDate(parts[len(parts)-1])
	if !okStart || !okEnd {
		return nil
	}
	return &app.ConferenceDates{Start: start, End: end}
}

// DedupeDeadlines removes duplicate deadlines by (type, date), keeping the
// first occurrence.
func DedupeDeadlines(deadlines []app.Deadline) []app.Deadline {
	seen := make(map[string]bool, len(deadlines))
	var unique []app.Deadline
	for _, d := range deadlines {
		key := d.Type + "|" + d.Date
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, d)
	}
	return unique
}

// PredictNextYear shifts an edition's dates one year forward and marks
// everything as predicted. Callers must only feed it actual (non-predicted)
// data; predicting from a prediction compounds the error.
func PredictNextYear(info app.YearInfo) app.YearInfo {
	predicted := app.YearInfo{IsPredicted: true}

	for _, d := range info.Deadlines {
		t, err := time.Parse(app.DateLayout, d.Date)
		if err != nil {
			continue
		}
		predicted.Deadlines = append(predicted.Deadlines, app.Deadline{
			Type:        d.Type,
			Date:        shiftYear(t),
			Label:       d.Label,
			IsPredicted: true,
		})
	}

	if info.ConferenceDates != nil && info.ConferenceDates.Start != "" {
		start, err := time.Parse(app.DateLayout, info.ConferenceDates.Start)
		if err == nil {
			dates := &app.ConferenceDates{Start: shiftYear(start)}
			if info.ConferenceDates.End != "" {
				if end, err := time.Parse(app.DateLayout, info.ConferenceDates.End); err == nil {
					dates.End = shiftYear(end)
				}
			}
			predicted.ConferenceDates = dates
		}
	}

	return predicted
}

func shiftYear(t time.Time) string {
	return t.AddDate(1, 0, 0).Format(app.DateLayout)
}

// HasPredicted reports whether any deadline of the edition is predicted.
func HasPredicted(info app.YearInfo) bool {
	if info.IsPredicted {
		return true
	}
	for _, d := range info.Deadlines {
		if d.IsPredicted {
			return true
		}
	}
	return false
}
