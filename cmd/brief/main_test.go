package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/brief/internal/config"
	"github.com/pders01/brief/internal/results"
	"github.com/pders01/brief/internal/storage"
	"github.com/pders01/brief/internal/tui"
)

// writeTestConfig creates a config using the mock backend and a database in
// a temp dir, and points HOME there.
func writeTestConfig(t *testing.T, extraSource string) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	content := fmt.Sprintf(`[database]
path = %q
search_index = ""

[source]
backend = "mock"
%s

[log]
level = "off"
`, filepath.Join(dir, "brief.db"), extraSource)

	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)

	assert.Contains(t, out, "brief dev")
	assert.Contains(t, out, "Terminal news search")
	assert.Contains(t, out, "github.com/pders01/brief")
}

func TestGenerateConfigCommand(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "nested", "config.toml")

	out, err := run(t, "generate-config", "--path", configFile)
	require.NoError(t, err)

	assert.Contains(t, out, configFile)
	data, err := os.ReadFile(configFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "page_size")
}

func TestGenerateConfigDefaultPath(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	_, err := run(t, "generate-config")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(tmpDir, ".config", "brief", "config.toml"))
	assert.NoError(t, err)
}

func TestSearchFirstPage(t *testing.T) {
	cfg := writeTestConfig(t, "")

	out, err := run(t, "--config", cfg, "search", "golang")
	require.NoError(t, err)

	assert.Contains(t, out, "Results for 'golang'")
	assert.Contains(t, out, "showing 3 of 7 • 4 more")
	assert.Contains(t, out, "Hot topics")
	assert.Equal(t, 3+2, strings.Count(out, "views"), "three body items and two hot topics")
}

func TestSearchMoreAndAll(t *testing.T) {
	cfg := writeTestConfig(t, "")

	out, err := run(t, "--config", cfg, "search", "golang", "--more", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "showing 6 of 7 • 1 more")

	out, err = run(t, "--config", cfg, "search", "golang", "--more", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "showing 7 of 7")
	assert.NotContains(t, out, "more\n")

	out, err = run(t, "--config", cfg, "search", "golang", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "showing 7 of 7")
}

func TestSearchJSON(t *testing.T) {
	cfg := writeTestConfig(t, "")

	out, err := run(t, "--config", cfg, "search", "golang", "--all", "--json")
	require.NoError(t, err)

	var items []results.Item
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	assert.Len(t, items, 7)

	out, err = run(t, "--config", cfg, "search", "golang", "--hot", "--json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 2)
	for _, it := range items {
		assert.True(t, it.IsHotTopic(1000))
	}
}

func TestSearchArchivesForLocalBackend(t *testing.T) {
	cfg := writeTestConfig(t, "")

	_, err := run(t, "--config", cfg, "search", "golang")
	require.NoError(t, err)

	out, err := run(t, "--config", cfg, "--backend", "local", "search", "golang", "--no-save")
	require.NoError(t, err)
	assert.Contains(t, out, "showing 3 of 7")

	out, err = run(t, "--config", cfg, "--backend", "local", "search", "nothingmatches", "--no-save")
	require.NoError(t, err)
	assert.Contains(t, out, "No results for 'nothingmatches'")
}

func TestSearchRecordsHistory(t *testing.T) {
	cfg := writeTestConfig(t, "")

	for i := 0; i < 2; i++ {
		_, err := run(t, "--config", cfg, "search", "golang")
		require.NoError(t, err)
	}
	_, err := run(t, "--config", cfg, "search", "rust", "--no-save")
	require.NoError(t, err)

	out, err := run(t, "--config", cfg, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "golang")
	assert.Contains(t, out, "2×")
	assert.NotContains(t, out, "rust")

	out, err = run(t, "--config", cfg, "history", "--clear")
	require.NoError(t, err)
	assert.Contains(t, out, tui.MsgHistoryCleared)

	out, err = run(t, "--config", cfg, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No recent searches")
}

func TestSearchRequiresKeyword(t *testing.T) {
	cfg := writeTestConfig(t, "")

	_, err := run(t, "--config", cfg, "search")
	assert.Error(t, err)

	_, err = run(t, "--config", cfg, "search", "   ")
	assert.EqualError(t, err, "empty query")
}

func TestSearchFetchErrorIsReported(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()
	cfg := writeTestConfig(t, fmt.Sprintf("base_url = %q", server.URL))

	out, err := run(t, "--config", cfg, "--backend", "api", "search", "golang")

	require.Error(t, err)
	assert.Contains(t, err.Error(), tui.MsgSourceDown)
	assert.Contains(t, out, tui.MsgSourceDown)
	assert.NotContains(t, out, "No results")
}

func TestSearchSendsStoredCredentials(t *testing.T) {
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()
	cfg := writeTestConfig(t, fmt.Sprintf("base_url = %q", server.URL))

	out, err := run(t, "--config", cfg, "login", "--user", "reader", "--token", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as reader")

	out, err = run(t, "--config", cfg, "--backend", "api", "search", "golang")
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", auth)
	assert.Contains(t, out, "No results for 'golang'")

	out, err = run(t, "--config", cfg, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")

	_, err = run(t, "--config", cfg, "--backend", "api", "search", "golang")
	require.NoError(t, err)
	assert.Empty(t, auth)
}

func TestLoginRequiresToken(t *testing.T) {
	cfg := writeTestConfig(t, "")
	t.Setenv("BRIEF_TOKEN", "")

	_, err := run(t, "--config", cfg, "login", "--user", "reader")
	assert.Error(t, err)
}

func TestUnknownBackendFlag(t *testing.T) {
	cfg := writeTestConfig(t, "")

	_, err := run(t, "--config", cfg, "--backend", "carrier-pigeon", "search", "golang")
	assert.Error(t, err)
}

func TestSearchCategoryFlag(t *testing.T) {
	cfg := writeTestConfig(t, "")

	out, err := run(t, "--config", cfg, "--category", "technology", "search", "chips", "--all", "--json")
	require.NoError(t, err)

	var items []results.Item
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 2)
	for _, it := range items {
		assert.Equal(t, "technology", it.Category)
	}
}

func TestSearchCategoryReachesAPI(t *testing.T) {
	var category string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		category = r.URL.Query().Get("category")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()
	cfg := writeTestConfig(t, fmt.Sprintf("base_url = %q\ncategory = \"economy\"", server.URL))

	_, err := run(t, "--config", cfg, "--backend", "api", "search", "rates")
	require.NoError(t, err)
	assert.Equal(t, "economy", category)

	_, err = run(t, "--config", cfg, "--backend", "api", "--category", "IT", "search", "rates", "--no-save")
	require.NoError(t, err)
	assert.Equal(t, "IT", category, "the flag overrides the config")
}

func TestBuildSourceRecordsViewsOnlyForAPI(t *testing.T) {
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer store.Close()

	cfg := config.TestConfig()
	cfg.Database.SearchIndex = ""

	cfg.Source.Backend = config.BackendAPI
	src, err := buildSource(cfg, store, 0)
	require.NoError(t, err)
	assert.NotNil(t, src.recorder)
	require.NoError(t, src.Close())

	cfg.Source.Backend = config.BackendMock
	src, err = buildSource(cfg, store, 0)
	require.NoError(t, err)
	assert.Nil(t, src.recorder)
	require.NoError(t, src.Close())
}
