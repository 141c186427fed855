package commands

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pterm/pterm"

	"github.com/klabast/cfp-kalender/internal/app"
)

// Gen handles the gen subcommand: it turns the curated conferences CSV into
// the base dataset JSON that the scrape step enriches. Rows sharing the same
// full name are merged (themes unioned, shortest abbreviation wins).
func Gen(args []string) {
	fs := flag.NewFlagSet("gen", flag.ExitOnError)
	input := fs.String("in", "conferences.csv", "Input CSV file")
	output := fs.String("out", "conferences_base.json", "Output JSON file")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cfp-kalender gen [OPTIONS]\n\n")
		fmt.Fprintf(os.Stderr, "Generates the base conference dataset from a CSV file.\n")
		fmt.Fprintf(os.Stderr, "Expected columns: name, short_name, theme, rank, category, flagship\n\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	dataset, rows, err := GenerateBaseDataset(*input)
	if err != nil {
		pterm.Error.Printf("Failed to generate dataset: %v\n", err)
		os.Exit(1)
	}

	data, err := json.MarshalIndent(dataset, "", "  ")
	if err != nil {
		pterm.Error.Printf("Failed to encode dataset: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*output, data, 0644); err != nil {
		pterm.Error.Printf("Failed to write %s: %v\n", *output, err)
		os.Exit(1)
	}

	pterm.Success.Printf("Saved base conference data to %s\n", *output)
	pterm.Info.Printf("%d CSV rows merged into %d conferences, %d themes\n",
		rows, len(dataset.Conferences), len(dataset.Themes))
}

// GenerateBaseDataset parses the CSV and builds the merged dataset. Returns
// the dataset and the number of input rows.
func GenerateBaseDataset(path string) (*app.Dataset, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("read csv: %w", err)
	}
	if len(records) < 1 {
		return nil, 0, fmt.Errorf("empty csv")
	}

	col := make(map[string]int)
	for i, name := range records[0] {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	nameIdx, ok := col["name"]
	if !ok {
		return nil, 0, fmt.Errorf("missing name column")
	}

	field := func(row []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	// Merge rows by normalized full name; the same conference appears once
	// per theme in the curated CSV.
	byName := make(map[string]*app.Conference)
	var order []string
	themeSet := make(map[string]bool)

	for _, row := range records[1:] {
		name := field(row, "name")
		if nameIdx >= len(row) || name == "" {
			continue
		}
		key := strings.ToLower(name)

		theme := app.StripThemePrefix(field(row, "theme"))
		if theme != "" {
			themeSet[theme] = true
		}

		conf, exists := byName[key]
		if !exists {
			conf = &app.Conference{
				Name:        name,
				ShortName:   field(row, "short_name"),
				Rank:        field(row, "rank"),
				Flagship:    strings.EqualFold(field(row, "flagship"), "true"),
				Information: map[string]app.YearInfo{},
			}
			if theme != "" {
				conf.Themes = []string{theme}
			}
			byName[key] = conf
			order = append(order, key)
			continue
		}

		if theme != "" && !containsString(conf.Themes, theme) {
			conf.Themes = append(conf.Themes, theme)
		}
		if short := field(row, "short_name"); short != "" {
			if conf.ShortName == "" || len(short) < len(conf.ShortName) {
				conf.ShortName = short
			}
		}
	}

	dataset := &app.Dataset{
		Conferences: make([]app.Conference, 0, len(order)),
		Themes:      make([]string, 0, len(themeSet)),
	}
	for _, key := range order {
		dataset.Conferences = append(dataset.Conferences, *byName[key])
	}
	for theme := range themeSet {
		dataset.Themes = append(dataset.Themes, theme)
	}
	sort.Strings(dataset.Themes)

	return dataset, len(records) - 1, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
