package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/cors"

	"github.com/rubiojr/efinder/pkg/log"
	"github.com/rubiojr/efinder/pkg/search"
	"github.com/rubiojr/efinder/pkg/settings"
	"github.com/rubiojr/efinder/pkg/storage"
)

var logger = log.ForService("api")

// HistoryReader lists recent searches. *storage.Store implements it.
type HistoryReader interface {
	RecentHistory(ctx context.Context, limit int) ([]storage.HistoryEntry, error)
}

type Server struct {
	searcher search.Searcher
	settings settings.Provider
	history  HistoryReader
	recorder search.History
}

// NewServer builds the JSON API. history may be nil, in which case the
// history endpoint returns an empty list and searches are not recorded.
func NewServer(searcher search.Searcher, provider settings.Provider, history HistoryReader, recorder search.History) *Server {
	return &Server{
		searcher: searcher,
		settings: provider,
		history:  history,
		recorder: recorder,
	}
}

func (s *Server) newController() *search.Controller {
	var opts []search.Option
	if s.recorder != nil {
		opts = append(opts, search.WithHistory(s.recorder))
	}
	return search.NewController(s.searcher, s.settings, opts...)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Errorf("encoding JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, error, message string) {
	if status >= http.StatusInternalServerError {
		logger.WithField("status", status).Warnf("%s: %s", error, message)
	}
	response := ErrorResponse{
		Error:   error,
		Message: message,
	}
	s.writeJSON(w, status, response)
}

// CorsMiddleware allows cross-origin use of the API from any origin.
func CorsMiddleware(next http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(next)
}
