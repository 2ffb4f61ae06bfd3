package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rubiojr/efinder/pkg/search"
	"github.com/rubiojr/efinder/pkg/settings"
	"github.com/rubiojr/efinder/pkg/storage"
	"github.com/rubiojr/efinder/pkg/version"
)

const maxHistoryLimit = 100

func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	store, err := search.ParseStore(params.Get("store"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid store", err.Error())
		return
	}

	mode, err := search.ParseSortMode(params.Get("sort"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid sort", err.Error())
		return
	}

	page := 1
	if p := params.Get("page"); p != "" {
		page, err = strconv.Atoi(p)
		if err != nil || page < 1 {
			s.writeError(w, http.StatusBadRequest, "Invalid page", "Parameter 'page' must be a positive integer")
			return
		}
	}

	q := search.NewQuery(params.Get("q"), params.Get("author"), store)
	if q.Empty() {
		s.writeError(w, http.StatusBadRequest, "Missing query parameter", "Query parameter 'q' or 'author' is required")
		return
	}

	ctrl := s.newController()
	if err := ctrl.SubmitSearch(r.Context(), q.Title, q.Author, q.Store); err != nil {
		logger.Warnf("search %q failed: %v", q.Title, err)
		s.writeError(w, http.StatusBadGateway, "Search failed", search.Describe(err))
		return
	}

	ctrl.SetSort(mode)
	ctrl.SetPage(page)
	view := ctrl.View()

	s.writeJSON(w, http.StatusOK, SearchResponse{
		Query:      q.Title,
		Author:     q.Author,
		Store:      q.Store,
		Sort:       mode,
		Page:       view.Page,
		TotalPages: view.TotalPages,
		TotalCount: view.TotalCount,
		Results:    view.Items,
	})
}

func (s *Server) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	url, err := s.settings.Get(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to read settings", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, SettingsResponse{BackendURL: url})
}

func (s *Server) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid body", err.Error())
		return
	}

	url, err := settings.Configure(r.Context(), s.settings, req.BackendURL)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid backend URL", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, SettingsResponse{BackendURL: url})
}

func (s *Server) HandleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			s.writeError(w, http.StatusBadRequest, "Invalid limit", "Parameter 'limit' must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	entries := []storage.HistoryEntry{}
	if s.history != nil {
		var err error
		entries, err = s.history.RecentHistory(r.Context(), limit)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, "Failed to read history", err.Error())
			return
		}
	}

	s.writeJSON(w, http.StatusOK, HistoryResponse{Entries: entries, Count: len(entries)})
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   version.Version,
	})
}
