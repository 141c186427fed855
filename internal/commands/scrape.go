package commands

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/pterm/pterm"

	"github.com/klabast/cfp-kalender/internal/app"
	"github.com/klabast/cfp-kalender/internal/scraper"
)

const scrapeDelay = time.Second // be nice to WikiCFP

// Scrape handles the scrape subcommand: it enriches the base dataset with
// deadline information from WikiCFP for the current and the next two years,
// predicting still-unannounced editions from the previous year's dates.
func Scrape(args []string) {
	fs := flag.NewFlagSet("scrape", flag.ExitOnError)
	input := fs.String("in", "conferences_base.json", "Input base dataset JSON")
	output := fs.String("out", "conferences_with_cfp.json", "Output dataset JSON")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cfp-kalender scrape [OPTIONS]\n\n")
		fmt.Fprintf(os.Stderr, "Updates the conference dataset with CFP dates from WikiCFP.\n\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	data, err := os.ReadFile(*input)
	if err != nil {
		pterm.Error.Printf("Failed to read %s: %v\n", *input, err)
		os.Exit(1)
	}
	dataset, err := app.ParseDataset(data)
	if err != nil {
		pterm.Error.Printf("Failed to parse %s: %v\n", *input, err)
		os.Exit(1)
	}

	currentYear := time.Now().Year()
	targetYears := []int{currentYear, currentYear + 1, currentYear + 2}
	pterm.Info.Printf("Scraping CFP information for %d conferences (years %v)\n",
		len(dataset.Conferences), targetYears)

	s := scraper.New()
	bar := pb.StartNew(len(dataset.Conferences))
	found := 0

	for i := range dataset.Conferences {
		conf := &dataset.Conferences[i]
		if UpdateConference(s, conf, targetYears) {
			found++
		}
		bar.Increment()
		time.Sleep(scrapeDelay)
	}
	bar.Finish()

	dataset.LastUpdated = time.Now().Format("2006-01-02 15:04:05")

	out, err := json.MarshalIndent(dataset, "", "  ")
	if err != nil {
		pterm.Error.Printf("Failed to encode dataset: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*output, out, 0644); err != nil {
		pterm.Error.Printf("Failed to write %s: %v\n", *output, err)
		os.Exit(1)
	}

	pterm.Success.Printf("Saved updated conference data to %s\n", *output)
	pterm.Info.Printf("Found CFP data for %d/%d conferences\n", found, len(dataset.Conferences))
}

// UpdateConference scrapes one conference and merges the result into its
// information map. Reports whether any WikiCFP data was found.
func UpdateConference(s *scraper.Scraper, conf *app.Conference, targetYears []int) bool {
	name := conf.ShortName
	if name == "" {
		name = conf.Name
	}

	yearData, err := s.Search(name, targetYears)
	if err != nil {
		pterm.Warning.Printf("%s: %v\n", name, err)
	}

	if conf.Information == nil {
		conf.Information = map[string]app.YearInfo{}
	}

	// Take the URL from the most recent edition found
	for y := len(targetYears) - 1; y >= 0; y-- {
		if details, ok := yearData[targetYears[y]]; ok && details.URL != "" {
			conf.URL = details.URL
			break
		}
	}

	// Actual data replaces anything previously predicted for the same year
	for year, details := range yearData {
		label := strconv.Itoa(year)
		info := app.YearInfo{
			Deadlines: scraper.DedupeDeadlines(details.Deadlines),
		}
		if details.ConferenceDates != nil {
			info.ConferenceDates = details.ConferenceDates
		}
		conf.Information[label] = info
	}

	// Fill remaining target years by shifting the previous year's actual
	// data; never predict from a prediction.
	for _, year := range targetYears {
		label := strconv.Itoa(year)
		if _, ok := conf.Information[label]; ok {
			continue
		}
		prev, ok := conf.Information[strconv.Itoa(year-1)]
		if !ok || scraper.HasPredicted(prev) {
			continue
		}
		if len(prev.Deadlines) == 0 && prev.ConferenceDates == nil {
			continue
		}
		predicted := scraper.PredictNextYear(prev)
		if len(predicted.Deadlines) > 0 || predicted.ConferenceDates != nil {
			conf.Information[label] = predicted
		}
	}

	return len(yearData) > 0
}
