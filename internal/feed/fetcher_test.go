package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pders01/brief/internal/config"
	"github.com/pders01/brief/internal/storage"
)

func TestFetcher_Fetch(t *testing.T) {
	tests := []struct {
		name           string
		feed           *storage.Feed
		ignoreCache    bool
		serverResponse func(w http.ResponseWriter, r *http.Request)
		expectUpdated  bool
		expectError    bool
	}{
		{
			name: "successful fetch with new content",
			feed: &storage.Feed{ID: "test1"},
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("User-Agent"); got != "brief-test/1.0" {
					t.Errorf("expected User-Agent brief-test/1.0, got %s", got)
				}
				w.Header().Set("ETag", "\"123\"")
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("<rss></rss>"))
			},
			expectUpdated: true,
		},
		{
			name: "not modified response with ETag",
			feed: &storage.Feed{ID: "test2", ETag: "\"123\""},
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("If-None-Match") != "\"123\"" {
					t.Errorf("expected If-None-Match \"123\", got %s", r.Header.Get("If-None-Match"))
				}
				w.WriteHeader(http.StatusNotModified)
			},
		},
		{
			name: "not modified response with Last-Modified",
			feed: &storage.Feed{ID: "test3", LastModified: "Wed, 01 Jan 2025 00:00:00 GMT"},
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("If-Modified-Since") != "Wed, 01 Jan 2025 00:00:00 GMT" {
					t.Errorf("expected If-Modified-Since header")
				}
				w.WriteHeader(http.StatusNotModified)
			},
		},
		{
			name:        "ignore cache skips conditional headers",
			feed:        &storage.Feed{ID: "test4", ETag: "\"123\""},
			ignoreCache: true,
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("If-None-Match") != "" {
					t.Errorf("expected no If-None-Match header")
				}
				w.WriteHeader(http.StatusOK)
			},
			expectUpdated: true,
		},
		{
			name: "server error",
			feed: &storage.Feed{ID: "test5"},
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(tt.serverResponse))
			defer server.Close()

			tt.feed.URL = server.URL
			fetcher := NewFetcher(config.TestConfig().Source)
			fetcher.SetIgnoreCache(tt.ignoreCache)

			resp, updated, err := fetcher.Fetch(context.Background(), tt.feed)

			if tt.expectError && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if updated != tt.expectUpdated {
				t.Errorf("expected updated=%v, got %v", tt.expectUpdated, updated)
			}
			if resp != nil {
				resp.Body.Close()
			}
		})
	}
}

func TestFetcher_DefaultUserAgent(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
	}))
	defer server.Close()

	fetcher := NewFetcher(config.SourceConfig{})
	resp, _, err := fetcher.Fetch(context.Background(), &storage.Feed{URL: server.URL})
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if got != defaultUserAgent {
		t.Errorf("expected default User-Agent, got %s", got)
	}
}

func TestFetcher_UpdateFeedMetadata(t *testing.T) {
	fetcher := NewFetcher(config.TestConfig().Source)
	feed := &storage.Feed{ID: "test", URL: "http://example.com"}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", "\"new-etag\"")
		w.Header().Set("Last-Modified", "Thu, 02 Jan 2025 00:00:00 GMT")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	fetcher.UpdateFeedMetadata(feed, resp)

	if feed.ETag != "\"new-etag\"" {
		t.Errorf("expected ETag \"new-etag\", got %s", feed.ETag)
	}
	if feed.LastModified != "Thu, 02 Jan 2025 00:00:00 GMT" {
		t.Errorf("expected LastModified Thu, 02 Jan 2025 00:00:00 GMT, got %s", feed.LastModified)
	}
	if time.Since(feed.LastFetched) > time.Second {
		t.Error("LastFetched not updated")
	}
}
