package app

// Deadline is a single dated milestone of a conference year, e.g. the paper
// submission cutoff or the notification date.
type Deadline struct {
	Type        string `json:"type"`
	Date        string `json:"date"`
	Label       string `json:"label"`
	IsPredicted bool   `json:"is_predicted,omitempty"`
}

// ConferenceDates is the span of the event itself.
type ConferenceDates struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// YearInfo holds everything known about one edition of a conference,
// keyed in Conference.Information by its year label ("2026").
type YearInfo struct {
	Deadlines       []Deadline       `json:"deadlines"`
	ConferenceDates *ConferenceDates `json:"conference_dates,omitempty"`
	IsPredicted     bool             `json:"is_predicted,omitempty"`
}

// Conference is one venue in the feed. Themes is the current form; Theme is
// the legacy single-theme field still present in older feeds.
type Conference struct {
	Name        string              `json:"name"`
	ShortName   string              `json:"short_name"`
	Rank        string              `json:"rank"`
	URL         string              `json:"url,omitempty"`
	Themes      []string            `json:"themes,omitempty"`
	Theme       string              `json:"theme,omitempty"`
	Flagship    bool                `json:"flagship,omitempty"`
	Information map[string]YearInfo `json:"information"`
}

// EffectiveThemes returns Themes, or the legacy Theme as a singleton.
func (c *Conference) EffectiveThemes() []string {
	if len(c.Themes) > 0 {
		return c.Themes
	}
	if c.Theme != "" {
		return []string{c.Theme}
	}
	return nil
}

// Dataset is the complete conference feed as produced by the gen/scrape
// pipeline and served at the data endpoint.
type Dataset struct {
	Conferences []Conference `json:"conferences"`
	Themes      []string     `json:"themes"`
	LastUpdated string       `json:"last_updated"`
}

// MonthSlot is one column of the calendar grid: a single (year, month) pair
// within the fixed fiscal window.
type MonthSlot struct {
	Year  int    `json:"year"`
	Month int    `json:"month"`
	Label string `json:"label"`
}

// Entry is one marker placed in a month slot: either a deadline of the
// conference, or a synthetic "conference" entry spanning the event dates.
type Entry struct {
	Type        string `json:"type"`
	Date        string `json:"date"`
	EndDate     string `json:"end_date,omitempty"`
	Label       string `json:"label"`
	ShortName   string `json:"short_name"`
	YearLabel   string `json:"year_label"`
	IsPredicted bool   `json:"is_predicted,omitempty"`
}

// Row is the view model for one rendered conference: its identity column plus
// one bucket of entries per month slot.
type Row struct {
	Name      string    `json:"name"`
	ShortName string    `json:"short_name"`
	Rank      string    `json:"rank"`
	URL       string    `json:"url,omitempty"`
	Themes    []string  `json:"themes"`
	Flagship  bool      `json:"flagship,omitempty"`
	Buckets   [][]Entry `json:"buckets"`
}
