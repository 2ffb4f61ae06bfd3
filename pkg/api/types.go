package api

import (
	"time"

	"github.com/rubiojr/efinder/pkg/search"
	"github.com/rubiojr/efinder/pkg/storage"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type SearchResponse struct {
	Query      string          `json:"query"`
	Author     string          `json:"author"`
	Store      search.Store    `json:"store"`
	Sort       search.SortMode `json:"sort"`
	Page       int             `json:"page"`
	TotalPages int             `json:"total_pages"`
	TotalCount int             `json:"total_count"`
	Results    []search.Result `json:"results"`
}

type SettingsResponse struct {
	BackendURL string `json:"backend_url"`
}

type UpdateSettingsRequest struct {
	BackendURL string `json:"backend_url"`
}

type HistoryResponse struct {
	Entries []storage.HistoryEntry `json:"entries"`
	Count   int                    `json:"count"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}
