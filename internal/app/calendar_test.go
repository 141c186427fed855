package app

import (
	"testing"
	"time"
)

func TestMonthWindow(t *testing.T) {
	now := time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC)
	slots, currentIndex := MonthWindow(now)

	if len(slots) != 24 {
		t.Fatalf("Expected 24 slots, got %d", len(slots))
	}
	if slots[0].Year != 2025 || slots[0].Month != 4 {
		t.Errorf("Expected window to start at April 2025, got %d-%d", slots[0].Year, slots[0].Month)
	}
	if slots[23].Year != 2027 || slots[23].Month != 3 {
		t.Errorf("Expected window to end at March 2027, got %d-%d", slots[23].Year, slots[23].Month)
	}
	if currentIndex != 7 {
		t.Errorf("Expected current month index 7 (Nov), got %d", currentIndex)
	}

	// Contiguous and gap-free
	for i := 1; i < len(slots); i++ {
		prev, cur := slots[i-1], slots[i]
		expectedMonth := prev.Month + 1
		expectedYear := prev.Year
		if expectedMonth > 12 {
			expectedMonth = 1
			expectedYear++
		}
		if cur.Month != expectedMonth || cur.Year != expectedYear {
			t.Errorf("Gap in window at index %d: %d-%d follows %d-%d", i, cur.Year, cur.Month, prev.Year, prev.Month)
		}
	}
}

func TestMonthWindow_FiscalYearRollover(t *testing.T) {
	tests := []struct {
		name      string
		now       time.Time
		wantStart int
		wantIndex int
	}{
		{"january belongs to previous fiscal year", time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), 2025, 9},
		{"march belongs to previous fiscal year", time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), 2025, 11},
		{"april starts the new fiscal year", time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), 2026, 0},
		{"december stays in current fiscal year", time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), 2025, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots, index := MonthWindow(tt.now)
			if slots[0].Year != tt.wantStart {
				t.Errorf("Expected fiscal start year %d, got %d", tt.wantStart, slots[0].Year)
			}
			if index != tt.wantIndex {
				t.Errorf("Expected current index %d, got %d", tt.wantIndex, index)
			}
		})
	}
}

func testConference() *Conference {
	return &Conference{
		Name:      "International Conference on Examples",
		ShortName: "ICE",
		Rank:      "A",
		Themes:    []string{"Systems"},
		Information: map[string]YearInfo{
			"2026": {
				Deadlines: []Deadline{
					{Type: TypeSubmission, Date: "2026-03-10", Label: "Paper submission"},
					{Type: TypeNotification, Date: "2026-04-20", Label: "Notification"},
				},
				ConferenceDates: &ConferenceDates{Start: "2026-06-01", End: "2026-06-05"},
			},
		},
	}
}

func TestBucketize_DeadlineLandsInSingleSlot(t *testing.T) {
	conf := testConference()
	slots, _ := MonthWindow(time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC))

	hits := 0
	for _, slot := range slots {
		for _, e := range Bucketize(conf, slot) {
			if e.Type != TypeSubmission {
				continue
			}
			hits++
			if slot.Year != 2026 || slot.Month != 3 {
				t.Errorf("Submission deadline bucketed into %d-%d, expected 2026-3", slot.Year, slot.Month)
			}
			if e.ShortName != "ICE" || e.YearLabel != "2026" {
				t.Errorf("Entry should carry short name and year label, got %q %q", e.ShortName, e.YearLabel)
			}
		}
	}
	if hits != 1 {
		t.Errorf("Expected the deadline in exactly one slot, found it %d times", hits)
	}
}

func TestBucketize_ConferenceDates(t *testing.T) {
	conf := testConference()
	entries := Bucketize(conf, MonthSlot{Year: 2026, Month: 6})

	if len(entries) != 1 {
		t.Fatalf("Expected exactly one entry in June 2026, got %d", len(entries))
	}
	e := entries[0]
	if e.Type != TypeConference {
		t.Errorf("Expected synthetic conference entry, got type %q", e.Type)
	}
	if e.Date != "2026-06-01" || e.EndDate != "2026-06-05" {
		t.Errorf("Conference entry should carry both dates, got %q-%q", e.Date, e.EndDate)
	}
	if got := e.ShortDate(); got != "6/1-6/5" {
		t.Errorf("Expected short date 6/1-6/5, got %q", got)
	}
}

func TestBucketize_MultipleEntriesSameMonth(t *testing.T) {
	conf := &Conference{
		ShortName: "ICE",
		Information: map[string]YearInfo{
			"2026": {
				Deadlines: []Deadline{
					{Type: TypeSubmission, Date: "2026-03-05", Label: "Research track"},
					{Type: TypeSubmission, Date: "2026-03-19", Label: "Industry track"},
				},
			},
		},
	}

	entries := Bucketize(conf, MonthSlot{Year: 2026, Month: 3})
	if len(entries) != 2 {
		t.Errorf("Expected both track deadlines as distinct entries, got %d", len(entries))
	}
}

func TestBucketize_InvalidDateSkipped(t *testing.T) {
	conf := &Conference{
		ShortName: "ICE",
		Information: map[string]YearInfo{
			"2026": {
				Deadlines: []Deadline{
					{Type: TypeSubmission, Date: "", Label: "Broken"},
					{Type: TypeSubmission, Date: "not-a-date", Label: "Also broken"},
					{Type: TypeSubmission, Date: "2026-03-10", Label: "Valid"},
				},
				ConferenceDates: &ConferenceDates{Start: "garbage"},
			},
		},
	}

	slots, _ := MonthWindow(time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC))
	total := 0
	for _, slot := range slots {
		total += len(Bucketize(conf, slot))
	}
	if total != 1 {
		t.Errorf("Expected only the valid deadline to survive, got %d entries", total)
	}
}

func TestEntry_ShortDate(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
		want  string
	}{
		{"single date", Entry{Type: TypeSubmission, Date: "2026-03-10"}, "3/10"},
		{"conference span", Entry{Type: TypeConference, Date: "2026-06-01", EndDate: "2026-06-05"}, "6/1-6/5"},
		{"conference without end", Entry{Type: TypeConference, Date: "2026-06-01"}, "6/1"},
		{"no leading zeros", Entry{Type: TypeSubmission, Date: "2026-01-02"}, "1/2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.ShortDate(); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestEntry_DetailFor(t *testing.T) {
	deadline := Entry{Type: TypeSubmission, Label: "Paper submission", YearLabel: "2026", IsPredicted: true}
	d := deadline.DetailFor("International Conference on Examples")
	if d.Heading != "Paper submission" {
		t.Errorf("Expected heading from label, got %q", d.Heading)
	}
	if !d.Predicted {
		t.Error("Expected predicted annotation")
	}
	if d.Owner != "For: International Conference on Examples 2026" {
		t.Errorf("Unexpected owner line: %q", d.Owner)
	}

	conf := Entry{Type: TypeConference, Label: "Conference", YearLabel: "2026"}
	if got := conf.DetailFor("ICE").Owner; got != "Conference: ICE 2026" {
		t.Errorf("Unexpected owner line for conference entry: %q", got)
	}
}

func TestBuildRows(t *testing.T) {
	conf := testConference()
	slots, _ := MonthWindow(time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC))

	rows := BuildRows([]Conference{*conf}, slots)
	if len(rows) != 1 {
		t.Fatalf("Expected one row, got %d", len(rows))
	}
	if len(rows[0].Buckets) != len(slots) {
		t.Fatalf("Expected one bucket per slot, got %d", len(rows[0].Buckets))
	}

	total := 0
	for _, bucket := range rows[0].Buckets {
		total += len(bucket)
	}
	// Two deadlines plus the conference span
	if total != 3 {
		t.Errorf("Expected 3 entries across the row, got %d", total)
	}
}
