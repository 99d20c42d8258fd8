package extractor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestWebFetcher_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" || strings.HasPrefix(r.Header.Get("User-Agent"), "Go-http-client") {
			t.Errorf("expected browser-like user agent, got %q", r.Header.Get("User-Agent"))
		}
		_, _ = w.Write([]byte(`<html><head><title>Release Notes</title></head><body><p>Version 2 adds search.</p></body></html>`))
	}))
	defer server.Close()

	f := NewWebFetcher(5 * time.Second)
	page, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if page.Title != "Release Notes" {
		t.Fatalf("expected title, got %q", page.Title)
	}
	if !strings.Contains(page.Text, "Version 2 adds search.") {
		t.Fatalf("expected page text, got %q", page.Text)
	}
}

func TestWebFetcher_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	f := NewWebFetcher(0)
	_, err := f.Fetch(context.Background(), server.URL)
	if err == nil {
		t.Fatalf("expected error for 404 response")
	}
	if !strings.Contains(err.Error(), server.URL) {
		t.Fatalf("expected error to name the URL, got %v", err)
	}
}

func TestWebFetcher_ScriptOnlyPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><style>p{}</style></head><body><script>render();</script></body></html>`))
	}))
	defer server.Close()

	f := NewWebFetcher(0)
	_, err := f.Fetch(context.Background(), server.URL)
	if !errors.Is(err, ErrNoTextContent) {
		t.Fatalf("expected ErrNoTextContent, got %v", err)
	}
}

func TestWebFetcher_NetworkError(t *testing.T) {
	f := NewWebFetcher(500 * time.Millisecond)
	_, err := f.Fetch(context.Background(), "http://127.0.0.1:1/never")
	if err == nil {
		t.Fatalf("expected network error")
	}
	if !strings.Contains(err.Error(), "http://127.0.0.1:1/never") {
		t.Fatalf("expected error to name the URL, got %v", err)
	}
}
