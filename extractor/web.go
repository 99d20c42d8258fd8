package extractor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// maxWebContent caps extracted page text to bound downstream embedding
	// cost.
	maxWebContent = 1_000_000
	// defaultFetchTimeout bounds the whole fetch.
	defaultFetchTimeout = 10 * time.Second
	// userAgent identifies the fetcher with a browser-like signature; plain
	// Go client signatures are blocked by many sites.
	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// Page holds the extracted text of a fetched web page.
type Page struct {
	URL   string
	Title string
	Text  string
}

// WebFetcher downloads web pages and extracts their visible text.
type WebFetcher struct {
	client *http.Client
}

// NewWebFetcher creates a fetcher with the given timeout; zero applies the
// default.
func NewWebFetcher(timeout time.Duration) *WebFetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &WebFetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch downloads a URL, strips script/style markup, collapses whitespace
// and caps the result at maxWebContent characters. It fails with distinct
// errors for network failures, HTTP error statuses and pages empty after
// cleaning; each error names the URL.
func (w *WebFetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", pageURL, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: read body: %w", pageURL, err)
	}
	text, title, err := htmlText(body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	if text == "" {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, ErrNoTextContent)
	}
	if chars := []rune(text); len(chars) > maxWebContent {
		text = string(chars[:maxWebContent])
	}
	if title == "" {
		title = "Unknown"
	}
	return &Page{URL: pageURL, Title: title, Text: text}, nil
}
