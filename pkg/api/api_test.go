package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rubiojr/efinder/pkg/search"
	"github.com/rubiojr/efinder/pkg/settings"
	"github.com/rubiojr/efinder/pkg/storage"
)

func newBackend(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func resultsJSON(n int) string {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf(`{"title":"Book %d","author":"A","price":%d,"source":"Rokomari"}`, i, 1000-i*10)
	}
	return "[" + strings.Join(items, ",") + "]"
}

func setupTestAPIServer(t *testing.T, backendURL string) (*http.ServeMux, *storage.Store) {
	t.Helper()
	st, err := storage.OpenDir(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("Failed to close store: %v", err)
		}
	})

	provider := settings.NewStoreProvider(st, settings.NewDefaults(backendURL))
	server := NewServer(search.NewClient(), provider, st, search.NewStoreHistory(st))
	mux := http.NewServeMux()
	server.RegisterRoutes(mux)
	return mux, st
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return v
}

func TestAPISearch(t *testing.T) {
	t.Setenv("EFINDER_API_URL", "")
	backend := newBackend(t, http.StatusOK, resultsJSON(20))
	mux, st := setupTestAPIServer(t, backend.URL)

	req := httptest.NewRequest("GET", "/api/search?q=Book&sort=price_asc&page=2", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if contentType := w.Header().Get("Content-Type"); contentType != "application/json" {
		t.Errorf("Expected Content-Type application/json, got %s", contentType)
	}

	resp := decode[SearchResponse](t, w)
	if resp.TotalCount != 20 || resp.TotalPages != 2 || resp.Page != 2 {
		t.Errorf("Unexpected paging: %+v", resp)
	}
	if len(resp.Results) != 5 {
		t.Fatalf("Expected 5 results on page 2, got %d", len(resp.Results))
	}
	// Ascending by price: page 2 holds the five most expensive.
	if resp.Results[0].Title != "Book 4" {
		t.Errorf("Expected Book 4 first on page 2, got %s", resp.Results[0].Title)
	}
	if resp.Store != search.StoreAll || resp.Sort != search.SortPriceAsc {
		t.Errorf("Unexpected echo of parameters: %+v", resp)
	}

	history, err := st.RecentHistory(context.Background(), 10)
	if err != nil {
		t.Fatalf("Failed to read history: %v", err)
	}
	if len(history) != 1 || history[0].Query != "Book" || history[0].ResultCount != 20 {
		t.Errorf("Expected search to be recorded, got %+v", history)
	}
}

func TestAPISearchMissingQuery(t *testing.T) {
	mux, _ := setupTestAPIServer(t, "http://127.0.0.1:1")

	for _, target := range []string{"/api/search", "/api/search?q=%20%20&store=all"} {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest("GET", target, nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", target, w.Code)
		}
	}
}

func TestAPISearchInvalidParameters(t *testing.T) {
	mux, _ := setupTestAPIServer(t, "http://127.0.0.1:1")

	for _, target := range []string{
		"/api/search?q=x&store=amazon",
		"/api/search?q=x&sort=cheapest",
		"/api/search?q=x&page=0",
		"/api/search?q=x&page=abc",
	} {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest("GET", target, nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", target, w.Code)
		}
	}
}

func TestAPISearchBackendFailure(t *testing.T) {
	t.Setenv("EFINDER_API_URL", "")
	backend := newBackend(t, http.StatusServiceUnavailable, "down")
	mux, _ := setupTestAPIServer(t, backend.URL)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/api/search?q=x", nil))

	if w.Code != http.StatusBadGateway {
		t.Fatalf("Expected status 502, got %d", w.Code)
	}
	resp := decode[ErrorResponse](t, w)
	if resp.Message != "Search backend returned 503 Service Unavailable." {
		t.Errorf("Unexpected message: %q", resp.Message)
	}
}

func TestAPISettings(t *testing.T) {
	t.Setenv("EFINDER_API_URL", "")
	mux, _ := setupTestAPIServer(t, "")

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/api/settings", nil))
	if got := decode[SettingsResponse](t, w).BackendURL; got != "http://127.0.0.1:8000" {
		t.Errorf("Expected default backend URL, got %s", got)
	}

	w = httptest.NewRecorder()
	body := strings.NewReader(`{"backend_url":" https://api.example.com/ "}`)
	mux.ServeHTTP(w, httptest.NewRequest("PUT", "/api/settings", body))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := decode[SettingsResponse](t, w).BackendURL; got != "https://api.example.com" {
		t.Errorf("Expected normalized URL, got %s", got)
	}

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/api/settings", nil))
	if got := decode[SettingsResponse](t, w).BackendURL; got != "https://api.example.com" {
		t.Errorf("Expected stored URL, got %s", got)
	}
}

func TestAPISettingsRejectsInvalidURL(t *testing.T) {
	mux, _ := setupTestAPIServer(t, "")

	for _, body := range []string{`{"backend_url":""}`, `{"backend_url":"ftp://x"}`, `not json`} {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest("PUT", "/api/settings", strings.NewReader(body)))
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", body, w.Code)
		}
	}
}

func TestAPIHistory(t *testing.T) {
	mux, st := setupTestAPIServer(t, "")
	ctx := context.Background()

	for _, q := range []string{"one", "two", "three"} {
		if err := st.AddHistory(ctx, storage.HistoryEntry{Query: q, Store: "all"}); err != nil {
			t.Fatalf("Failed to add history: %v", err)
		}
	}

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/api/history?limit=2", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	resp := decode[HistoryResponse](t, w)
	if resp.Count != 2 {
		t.Errorf("Expected 2 entries, got %d", resp.Count)
	}

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/api/history?limit=-1", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestAPIHealth(t *testing.T) {
	mux, _ := setupTestAPIServer(t, "")

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if resp := decode[HealthResponse](t, w); resp.Status != "ok" {
		t.Errorf("Expected status ok, got %s", resp.Status)
	}
}

func TestCorsMiddleware(t *testing.T) {
	h := CorsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/settings", nil)
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Expected wildcard origin, got %q", got)
	}
}
