package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pders01/brief/internal/results"
)

func setupTestStore(t *testing.T) (*Store, func()) {
	tmpDir, err := os.MkdirTemp("", "store-test-*")
	if err != nil {
		t.Fatal(err)
	}

	dbPath := filepath.Join(tmpDir, "test.db")
	store, err := NewStore(dbPath)
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatal(err)
	}

	cleanup := func() {
		store.Close()
		os.RemoveAll(tmpDir)
	}

	return store, cleanup
}

func TestStore_SaveAndGetFeed(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	feed := &Feed{
		ID:           "test-feed-1",
		URL:          "http://example.com/feed.xml",
		Title:        "Test Feed",
		ETag:         "\"abc123\"",
		LastModified: "Wed, 01 Jan 2025 00:00:00 GMT",
		LastFetched:  time.Now(),
	}

	if err := store.SaveFeed(feed); err != nil {
		t.Fatalf("failed to save feed: %v", err)
	}

	retrieved, err := store.GetFeed("test-feed-1")
	if err != nil {
		t.Fatalf("failed to get feed: %v", err)
	}

	if retrieved.URL != feed.URL {
		t.Errorf("expected URL %s, got %s", feed.URL, retrieved.URL)
	}
	if retrieved.ETag != feed.ETag {
		t.Errorf("expected ETag %s, got %s", feed.ETag, retrieved.ETag)
	}
}

func TestStore_GetFeed_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.GetFeed("non-existent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_SaveAndGetItems(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	items := []results.Item{
		{ID: "1", Title: "Older", Published: base, ImageURLs: []string{"http://img/1.png"}, ViewCount: 1200},
		{ID: "2", Title: "Newer", Published: base.Add(time.Hour)},
		{URL: "http://example.com/no-id", Title: "Keyed by URL"},
		{Title: "No key at all"},
	}

	if err := store.SaveItems("api", items); err != nil {
		t.Fatalf("failed to save items: %v", err)
	}

	all, err := store.GetItems("", 0)
	if err != nil {
		t.Fatalf("failed to get items: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 items, got %d", len(all))
	}
	if all[0].Title != "Newer" {
		t.Errorf("expected newest first, got %s", all[0].Title)
	}

	got, err := store.GetItem("1")
	if err != nil {
		t.Fatalf("failed to get item: %v", err)
	}
	if got.Origin != "api" {
		t.Errorf("expected origin api, got %s", got.Origin)
	}
	if got.ViewCount != 1200 || got.FirstImage() != "http://img/1.png" {
		t.Errorf("item fields not preserved: %+v", got.Item)
	}
	if got.SeenAt.IsZero() {
		t.Error("expected SeenAt to be set")
	}

	if _, err := store.GetItem("http://example.com/no-id"); err != nil {
		t.Errorf("expected item keyed by URL: %v", err)
	}

	n, err := store.CountItems()
	if err != nil || n != 3 {
		t.Errorf("CountItems() = %d, %v; want 3", n, err)
	}
}

func TestStore_GetItems_OriginAndLimit(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	for i := 0; i < 5; i++ {
		origin := "api"
		if i%2 == 0 {
			origin = "feed-a"
		}
		item := results.Item{ID: fmt.Sprintf("item-%d", i), Published: time.Unix(int64(i), 0)}
		if err := store.SaveItems(origin, []results.Item{item}); err != nil {
			t.Fatal(err)
		}
	}

	feedItems, err := store.GetItems("feed-a", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(feedItems) != 3 {
		t.Errorf("expected 3 feed-a items, got %d", len(feedItems))
	}

	limited, err := store.GetItems("", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected 2 items, got %d", len(limited))
	}
	if limited[0].ID != "item-4" {
		t.Errorf("expected item-4 first, got %s", limited[0].ID)
	}
}

func TestStore_SaveItems_Overwrites(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	if err := store.SaveItems("api", []results.Item{{ID: "1", Title: "First"}}); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveItems("api", []results.Item{{ID: "1", Title: "Second"}}); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetItem("1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Second" {
		t.Errorf("expected overwrite, got %s", got.Title)
	}
}

func TestStore_RecentQueries(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	for _, q := range []string{"golang", "rust", "  GoLang  ", ""} {
		if err := store.AddRecentQuery(q); err != nil {
			t.Fatalf("AddRecentQuery(%q): %v", q, err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	queries, err := store.RecentQueries(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(queries) != 2 {
		t.Fatalf("expected 2 distinct queries, got %d: %+v", len(queries), queries)
	}
	if queries[0].Query != "GoLang" {
		t.Errorf("expected most recent spelling first, got %q", queries[0].Query)
	}
	if queries[0].Count != 2 {
		t.Errorf("expected count 2, got %d", queries[0].Count)
	}
	if queries[1].Query != "rust" {
		t.Errorf("expected rust second, got %q", queries[1].Query)
	}
}

func TestStore_RecentQueries_Capped(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	for i := 0; i < MaxRecentQueries+5; i++ {
		if err := store.AddRecentQuery(fmt.Sprintf("query %d", i)); err != nil {
			t.Fatal(err)
		}
		time.Sleep(time.Millisecond)
	}

	queries, err := store.RecentQueries(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(queries) != MaxRecentQueries {
		t.Fatalf("expected %d queries, got %d", MaxRecentQueries, len(queries))
	}
	if queries[0].Query != fmt.Sprintf("query %d", MaxRecentQueries+4) {
		t.Errorf("unexpected newest query %q", queries[0].Query)
	}
	for _, q := range queries {
		if q.Query == "query 0" {
			t.Error("oldest query should have been dropped")
		}
	}

	limited, err := store.RecentQueries(3)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 3 {
		t.Errorf("expected 3 queries, got %d", len(limited))
	}
}

func TestStore_ClearHistory(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	if err := store.AddRecentQuery("news"); err != nil {
		t.Fatal(err)
	}
	if err := store.ClearHistory(); err != nil {
		t.Fatal(err)
	}
	queries, err := store.RecentQueries(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(queries) != 0 {
		t.Errorf("expected empty history, got %d", len(queries))
	}
}

func TestStore_Login(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	if _, err := store.LoadLogin(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before login, got %v", err)
	}

	if _, err := store.SaveLogin("", "token"); err == nil {
		t.Error("expected error for empty login id")
	}

	saved, err := store.SaveLogin("reader", "secret")
	if err != nil {
		t.Fatalf("SaveLogin: %v", err)
	}
	if saved.SessionID == "" {
		t.Error("expected a session id")
	}

	loaded, err := store.LoadLogin()
	if err != nil {
		t.Fatalf("LoadLogin: %v", err)
	}
	creds := loaded.Credentials()
	if creds.LoginID != "reader" || creds.Token != "secret" || creds.SessionID != saved.SessionID {
		t.Errorf("unexpected credentials %+v", creds)
	}

	again, err := store.SaveLogin("reader", "secret")
	if err != nil {
		t.Fatal(err)
	}
	if again.SessionID == saved.SessionID {
		t.Error("expected a new session id per login")
	}

	if err := store.ClearLogin(); err != nil {
		t.Fatal(err)
	}
	if _, err := store.LoadLogin(); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after logout, got %v", err)
	}
}

func TestLogin_NilCredentials(t *testing.T) {
	var login *Login
	if !login.Credentials().Anonymous() {
		t.Error("nil login should give anonymous credentials")
	}
}
