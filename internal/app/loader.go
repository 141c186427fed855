package app

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/klabast/cfp-kalender/internal/client"
)

// FetchDataset loads the conference feed from the primary source, falling
// back to the secondary source when the primary cannot be fetched at all
// (unreachable, non-200, unreadable file). A body that fetches fine but does
// not parse as the expected shape is a load error and is not retried.
// Returns the parsed dataset, the raw body for snapshotting, and the source
// that served it.
func FetchDataset(httpClient *http.Client, cfg DataConfig) (*Dataset, []byte, string, error) {
	source := cfg.Primary
	body, err := fetchSource(httpClient, cfg.Primary)
	if err != nil {
		if cfg.Fallback == "" {
			return nil, nil, "", fmt.Errorf("fetch %s: %w", cfg.Primary, err)
		}
		log.Printf("Warning: primary source %s failed (%v), trying fallback", cfg.Primary, err)
		source = cfg.Fallback
		body, err = fetchSource(httpClient, cfg.Fallback)
		if err != nil {
			return nil, nil, "", fmt.Errorf("fetch %s and fallback %s: %w", cfg.Primary, cfg.Fallback, err)
		}
	}

	dataset, err := ParseDataset(body)
	if err != nil {
		return nil, nil, "", fmt.Errorf("parse %s: %w", source, err)
	}
	return dataset, body, source, nil
}

// ParseDataset decodes and shape-checks a feed body.
func ParseDataset(body []byte) (*Dataset, error) {
	var dataset Dataset
	if err := json.Unmarshal(body, &dataset); err != nil {
		return nil, err
	}
	if dataset.Conferences == nil {
		return nil, fmt.Errorf("missing conferences field")
	}
	return &dataset, nil
}

// fetchSource reads a feed body from an http(s) URL or a local file path.
func fetchSource(httpClient *http.Client, source string) ([]byte, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		resp, err := client.Get(httpClient, source)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := resp.Body.Close(); err != nil {
				log.Printf("Error closing response body: %v", err)
			}
		}()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	}
	return os.ReadFile(source)
}
