package app

import (
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/klabast/cfp-kalender/internal/store"
)

// App owns the loaded dataset and the session-wide month window. All derived
// views (filtered lists, buckets) are computed per request from this state;
// nothing mutates the dataset after a load.
type App struct {
	cfg        Config
	httpClient *http.Client
	snapshots  *store.Store // optional
	auth       *Authenticator

	months       []MonthSlot
	currentIndex int

	mu      sync.RWMutex
	dataset *Dataset
	loadErr error

	// Embedded index page (set by main)
	IndexHTML []byte
}

// snapshotsToKeep bounds the snapshot history retained after each refresh.
const snapshotsToKeep = 10

// NewApp creates the application state for the given configuration. The
// month window is fixed at construction and stays immutable for the session.
func NewApp(cfg Config, httpClient *http.Client, snapshots *store.Store, auth *Authenticator) *App {
	months, currentIndex := MonthWindow(time.Now())
	return &App{
		cfg:          cfg,
		httpClient:   httpClient,
		snapshots:    snapshots,
		auth:         auth,
		months:       months,
		currentIndex: currentIndex,
	}
}

// Reload fetches the feed and swaps the dataset in. On success the raw body
// is snapshotted; on total fetch failure the newest stored snapshot is served
// instead, and only when none exists does the load error stick.
func (a *App) Reload() error {
	dataset, body, source, err := FetchDataset(a.httpClient, a.cfg.Data)
	if err != nil {
		if a.snapshots != nil {
			snap, snapErr := a.snapshots.Latest()
			if snapErr == nil {
				if cached, parseErr := ParseDataset(snap.Body); parseErr == nil {
					log.Printf("Warning: feed unavailable (%v), serving snapshot from %s",
						err, snap.FetchedAt.Format(DateLayout))
					a.setDataset(cached, nil)
					return nil
				}
			}
		}
		a.setDataset(nil, err)
		return err
	}

	a.setDataset(dataset, nil)
	log.Printf("Loaded %d conferences, %d themes from %s",
		len(dataset.Conferences), len(dataset.Themes), source)

	if a.snapshots != nil {
		if _, err := a.snapshots.Save(source, dataset.LastUpdated, body); err != nil {
			log.Printf("Warning: failed to snapshot feed: %v", err)
		} else if _, err := a.snapshots.Prune(snapshotsToKeep); err != nil {
			log.Printf("Warning: failed to prune snapshots: %v", err)
		}
	}
	return nil
}

func (a *App) setDataset(d *Dataset, err error) {
	a.mu.Lock()
	a.dataset = d
	a.loadErr = err
	a.mu.Unlock()
}

// currentDataset returns the loaded dataset, or false when the last load
// failed and no snapshot could stand in.
func (a *App) currentDataset() (*Dataset, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dataset, a.dataset != nil
}

// Months exposes the session month window.
func (a *App) Months() []MonthSlot {
	return a.months
}

// ServeIndex serves the calendar interface HTML.
func (a *App) ServeIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(a.IndexHTML); err != nil {
		log.Printf("Error writing index HTML: %v", err)
	}
}

// GetConfig returns the theme vocabulary, the month window and the initial
// scroll position for the frontend.
func (a *App) GetConfig(w http.ResponseWriter, r *http.Request) {
	config := map[string]interface{}{
		"months":            a.months,
		"currentMonthIndex": a.currentIndex,
	}

	dataset, ok := a.currentDataset()
	if !ok {
		config["error"] = ErrDataUnavailable
	} else {
		config["themes"] = dataset.Themes
		config["lastUpdated"] = dataset.LastUpdated
		if t, err := time.Parse("2006-01-02 15:04:05", dataset.LastUpdated); err == nil {
			config["lastUpdatedHuman"] = humanize.Time(t)
		}
	}

	writeJSON(w, config)
}

// HandleConferences returns the filtered rows-by-months view model.
// Query params: themes (comma separated; absent = all themes selected,
// present but empty = none selected), q (case-insensitive search).
func (a *App) HandleConferences(w http.ResponseWriter, r *http.Request) {
	dataset, ok := a.currentDataset()
	if !ok {
		http.Error(w, ErrDataUnavailable, http.StatusServiceUnavailable)
		return
	}

	state := filterFromQuery(r.URL.Query(), dataset.Themes)
	filtered := state.Apply(dataset.Conferences)
	rows := BuildRows(filtered, a.months)

	writeJSON(w, map[string]interface{}{
		"rows":   rows,
		"months": a.months,
	})
}

// filterFromQuery derives the filter state for one request. The distinction
// between an absent themes param and an empty one is load-bearing: the empty
// selection must show nothing.
func filterFromQuery(query url.Values, vocabulary []string) FilterState {
	state := FilterState{Themes: make(map[string]bool)}
	if _, present := query["themes"]; !present {
		state = NewFilterState(vocabulary)
	} else {
		for _, t := range strings.Split(query.Get("themes"), ",") {
			if t = strings.TrimSpace(t); t != "" {
				state.Themes[t] = true
			}
		}
	}
	state.Search = query.Get("q")
	return state
}

// HandleDownload exports one conference's entries in ICS, CSV or JSON format.
// Query params: conference (short name), format.
func (a *App) HandleDownload(w http.ResponseWriter, r *http.Request) {
	dataset, ok := a.currentDataset()
	if !ok {
		http.Error(w, ErrDataUnavailable, http.StatusServiceUnavailable)
		return
	}

	shortName := r.URL.Query().Get("conference")
	format := r.URL.Query().Get("format")

	conf := findConference(dataset.Conferences, shortName)
	if conf == nil {
		http.Error(w, ErrUnknownConf, http.StatusNotFound)
		return
	}
	entries := CollectEntries(conf)

	switch format {
	case "ics":
		GenerateICS(w, r, conf, entries)
	case "csv":
		GenerateCSV(w, conf, entries)
	case "json":
		GenerateJSON(w, conf, entries)
	default:
		http.Error(w, ErrInvalidFormat, http.StatusBadRequest)
	}
}

// HandleSubscribe serves an ICS subscription feed for one conference.
// URL: /api/subscribe/{short_name}
func (a *App) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	dataset, ok := a.currentDataset()
	if !ok {
		http.Error(w, ErrDataUnavailable, http.StatusServiceUnavailable)
		return
	}

	shortName := strings.TrimPrefix(r.URL.Path, "/api/subscribe/")
	conf := findConference(dataset.Conferences, shortName)
	if conf == nil {
		http.Error(w, ErrUnknownConf, http.StatusNotFound)
		return
	}

	GenerateSubscriptionICS(w, conf, CollectEntries(conf))
}

// HandleRefresh re-runs the feed loader. Protected with Basic Auth when an
// auth file is configured. Periodic refresh stays outside this service; this
// endpoint is the manual trigger for the cron job or the operator.
func (a *App) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if err := a.Reload(); err != nil {
		log.Printf("Error refreshing feed: %v", err)
		http.Error(w, ErrDataUnavailable, http.StatusBadGateway)
		return
	}

	dataset, _ := a.currentDataset()
	writeJSON(w, map[string]string{
		"status":       "ok",
		"last_updated": dataset.LastUpdated,
	})
}

// Routes registers all handlers on the given mux.
func (a *App) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/", a.ServeIndex)
	mux.HandleFunc("/api/config", a.GetConfig)
	mux.HandleFunc("/api/conferences", a.HandleConferences)
	mux.HandleFunc("/api/download", a.HandleDownload)
	mux.HandleFunc("/api/subscribe/", a.HandleSubscribe)
	mux.HandleFunc("/api/refresh", a.auth.Require(a.HandleRefresh))
}

func findConference(conferences []Conference, shortName string) *Conference {
	for i := range conferences {
		if conferences[i].ShortName == shortName {
			return &conferences[i]
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
		http.Error(w, ErrInternalServer, http.StatusInternalServerError)
	}
}
