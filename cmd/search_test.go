package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubiojr/efinder/pkg/config"
	"github.com/rubiojr/efinder/pkg/db"
	"github.com/rubiojr/efinder/pkg/search"
	"github.com/rubiojr/efinder/pkg/settings"
	"github.com/rubiojr/efinder/pkg/storage"
)

func newCLIController(backendURL string) *search.Controller {
	return search.NewController(search.NewClient(), settings.NewMemoryProvider(backendURL))
}

func TestRunSearchRendersTable(t *testing.T) {
	backend := newFakeBackend(t, http.StatusOK, bookResults(20))

	var out bytes.Buffer
	err := runSearch(context.Background(), &out, newCLIController(backend.URL), searchOptions{
		title: "Harry Potter", store: search.StoreAll, sort: search.SortPriceAsc, page: 2,
	})
	require.NoError(t, err)

	s := out.String()
	assert.Contains(t, s, "TITLE")
	assert.Contains(t, s, "Harry Potter 19")
	assert.NotContains(t, s, "Harry Potter 0 ")
	assert.Contains(t, s, "৳119")
	assert.Contains(t, s, "Page 2 of 2 / 20 results")
}

func TestRunSearchAllPages(t *testing.T) {
	backend := newFakeBackend(t, http.StatusOK, bookResults(20))

	var out bytes.Buffer
	err := runSearch(context.Background(), &out, newCLIController(backend.URL), searchOptions{
		title: "Harry Potter", store: search.StoreAll, sort: search.SortRelevance, page: 1, all: true,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Page 1 of 2 / 20 results")
	assert.Contains(t, out.String(), "Page 2 of 2 / 20 results")
}

func TestRunSearchJSON(t *testing.T) {
	backend := newFakeBackend(t, http.StatusOK, bookResults(3))

	var out bytes.Buffer
	err := runSearch(context.Background(), &out, newCLIController(backend.URL), searchOptions{
		title: "Harry Potter", store: search.StoreRokomari, sort: search.SortPriceDesc, page: 1, json: true,
	})
	require.NoError(t, err)

	var page jsonPage
	require.NoError(t, json.Unmarshal(out.Bytes(), &page))
	assert.Equal(t, "Harry Potter", page.Query)
	assert.Equal(t, search.StoreRokomari, page.Store)
	assert.Equal(t, 3, page.TotalCount)
	require.Len(t, page.Items, 3)
	assert.Equal(t, 102.0, page.Items[0].Price)
}

func TestRunSearchNoResults(t *testing.T) {
	backend := newFakeBackend(t, http.StatusOK, "[]")

	var out bytes.Buffer
	err := runSearch(context.Background(), &out, newCLIController(backend.URL), searchOptions{
		title: "nothing", store: search.StoreAll, sort: search.SortRelevance, page: 1,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "No books found.")
}

func TestRunSearchErrors(t *testing.T) {
	ctx := context.Background()

	err := runSearch(ctx, &bytes.Buffer{}, newCLIController("http://127.0.0.1:1"), searchOptions{store: search.StoreAll, page: 1})
	assert.ErrorContains(t, err, "title or an author is required")

	backend := newFakeBackend(t, http.StatusNotFound, "")
	err = runSearch(ctx, &bytes.Buffer{}, newCLIController(backend.URL), searchOptions{title: "x", store: search.StoreAll, page: 1})
	assert.ErrorContains(t, err, "Search backend returned 404 Not Found.")

	ok := newFakeBackend(t, http.StatusOK, bookResults(3))
	err = runSearch(ctx, &bytes.Buffer{}, newCLIController(ok.URL), searchOptions{title: "x", store: search.StoreAll, page: 5})
	assert.ErrorContains(t, err, "page 5 out of range (1-1)")
}

func TestParseStoreFlagSuggests(t *testing.T) {
	store, err := parseStoreFlag("Wafilife")
	require.NoError(t, err)
	assert.Equal(t, search.StoreWafilife, store)

	_, err = parseStoreFlag("roko")
	assert.ErrorContains(t, err, `did you mean "rokomari"?`)

	_, err = parseStoreFlag("wafillife")
	assert.ErrorContains(t, err, `did you mean "wafilife"?`)

	_, err = parseStoreFlag("zzz")
	assert.ErrorContains(t, err, "valid stores: all, rokomari, wafilife, batighor")
}

func TestParseSortFlagSuggests(t *testing.T) {
	_, err := parseSortFlag("price")
	assert.ErrorContains(t, err, "did you mean")

	mode, err := parseSortFlag("")
	require.NoError(t, err)
	assert.Equal(t, search.SortRelevance, mode)
}

func TestPrintHistory(t *testing.T) {
	var out bytes.Buffer
	printHistory(&out, nil)
	assert.Contains(t, out.String(), "No searches yet.")

	out.Reset()
	printHistory(&out, []storage.HistoryEntry{{
		Query: "Himu", Author: "Humayun Ahmed", Store: "rokomari", ResultCount: 1234, SearchedAt: time.Now(),
	}})
	assert.Contains(t, out.String(), "Himu")
	assert.Contains(t, out.String(), "1,234")
}

func TestPrintMigrations(t *testing.T) {
	applied := time.Now()

	var out bytes.Buffer
	printMigrations(&out, "/tmp/efinder.db", []db.Migration{
		{Version: 1, Name: "settings", AppliedAt: &applied},
		{Version: 2, Name: "search_history"},
	})
	s := out.String()
	assert.Contains(t, s, "/tmp/efinder.db")
	assert.Contains(t, s, "001")
	assert.Contains(t, s, "search_history")
	assert.Contains(t, s, "pending")
	assert.Contains(t, s, "1 pending migrations")

	out.Reset()
	printMigrations(&out, "/tmp/efinder.db", []db.Migration{{Version: 1, Name: "settings", AppliedAt: &applied}})
	assert.Contains(t, out.String(), "Database is up to date")
}

func TestInitConfig(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")

	require.NoError(t, initConfig(path, false))
	_, err := os.Stat(path)
	require.NoError(t, err)

	assert.Error(t, initConfig(path, false), "existing config must not be overwritten")
	assert.NoError(t, initConfig(path, true))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultBackendURL, cfg.BackendURL)
}

func TestWatchConfigReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`backend_url = "https://one.example.com"`), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan struct{}, 4)
	require.NoError(t, watchConfig(ctx, path, func() error {
		reloaded <- struct{}{}
		return nil
	}))

	require.NoError(t, os.WriteFile(path, []byte(`backend_url = "https://two.example.com"`), 0644))

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("config change was not picked up")
	}
}

func TestWatchConfigMissingFile(t *testing.T) {
	err := watchConfig(context.Background(), filepath.Join(t.TempDir(), "missing.toml"), func() error { return nil })
	assert.Error(t, err)
}
