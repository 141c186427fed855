package main

import (
	_ "embed"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/klabast/cfp-kalender/internal/app"
	"github.com/klabast/cfp-kalender/internal/client"
	"github.com/klabast/cfp-kalender/internal/commands"
	"github.com/klabast/cfp-kalender/internal/store"
)

//go:embed static/index.html
var indexHTML []byte

func main() {
	// Check for subcommands
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "hash-password":
			commands.HashPassword(os.Args[2:])
			return
		case "gen":
			commands.Gen(os.Args[2:])
			return
		case "scrape":
			commands.Scrape(os.Args[2:])
			return
		}
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Flags override file/env configuration
	flag.IntVar(&cfg.Server.Port, "port", cfg.Server.Port, "Port to listen on")
	flag.StringVar(&cfg.Data.Primary, "data", cfg.Data.Primary, "Primary feed source (URL or file)")
	flag.StringVar(&cfg.Data.Fallback, "fallback", cfg.Data.Fallback, "Fallback feed source (URL or file)")
	flag.Parse()

	auth, err := app.LoadAuthenticator(cfg.Auth.File)
	if err != nil {
		log.Fatalf("Failed to load auth credentials: %v", err)
	}

	snapshots, err := store.Open(cfg.Store.Path)
	if err != nil {
		log.Fatalf("Failed to open snapshot store: %v", err)
	}
	defer snapshots.Close()

	a := app.NewApp(cfg, client.New(), snapshots, auth)
	a.IndexHTML = indexHTML

	// A failed initial load is not fatal: the data endpoints report it and
	// /api/refresh can recover once the feed is reachable again.
	if err := a.Reload(); err != nil {
		log.Printf("Error loading conference data: %v", err)
	}

	mux := http.NewServeMux()
	a.Routes(mux)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Starting CFP-Kalender on http://%s", addr)
	log.Printf("Feed: %s (fallback: %s)", cfg.Data.Primary, cfg.Data.Fallback)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal(err)
	}
}
