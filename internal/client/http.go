// Package client provides the HTTP client shared by the feed loader and the
// WikiCFP scraper.
package client

import (
	"net/http"
	"time"
)

const timeout = 30 * time.Second

// Browser-like user agent; WikiCFP serves reduced pages to unknown agents.
const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// New creates an HTTP client with a request timeout.
func New() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			MaxIdleConnsPerHost: 10,
			ForceAttemptHTTP2:   true,
		},
		Timeout: timeout,
	}
}

// Get issues a GET request with the shared headers.
func Get(c *http.Client, url string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	return c.Do(req)
}
