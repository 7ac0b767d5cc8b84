package document

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetcher_Run_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "standards-comb/test" {
			t.Errorf("Expected User-Agent header, got %q", r.Header.Get("User-Agent"))
		}
		w.Write([]byte("<html>EN 300 328</html>"))
	}))
	defer server.Close()

	fetcher := NewFetcher(server.Client(), "standards-comb/test", 5*time.Second)

	data, err := fetcher.Run(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if string(data) != "<html>EN 300 328</html>" {
		t.Errorf("Unexpected body %q", data)
	}
}

func TestFetcher_Run_UnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	fetcher := NewFetcher(nil, "", 0)

	_, err := fetcher.Run(context.Background(), server.URL)
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Errorf("Expected ErrUnexpectedStatus, got %v", err)
	}
}

func TestFetcher_Run_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	fetcher := NewFetcher(server.Client(), "", 50*time.Millisecond)

	if _, err := fetcher.Run(context.Background(), server.URL); err == nil {
		t.Error("Expected timeout error")
	}
}

func TestFetcher_Run_InvalidURL(t *testing.T) {
	fetcher := NewFetcher(nil, "", time.Second)

	if _, err := fetcher.Run(context.Background(), "://missing-scheme"); err == nil {
		t.Error("Expected error for invalid URL")
	}
}

func TestFetcher_Run_RateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	fetcher := NewFetcher(server.Client(), "", 5*time.Second).WithRateLimit(1, 1)

	if _, err := fetcher.Run(context.Background(), server.URL); err != nil {
		t.Fatalf("Expected first request to pass, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if _, err := fetcher.Run(ctx, server.URL); err == nil {
		t.Error("Expected second request to exceed the deadline while waiting for the limiter")
	}
}
