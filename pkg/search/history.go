package search

import (
	"context"
	"time"

	"github.com/rubiojr/efinder/pkg/storage"
)

// HistoryStore is the persistence behind StoreHistory. *storage.Store implements it.
type HistoryStore interface {
	AddHistory(ctx context.Context, entry storage.HistoryEntry) error
}

// StoreHistory records searches in a HistoryStore.
type StoreHistory struct {
	store HistoryStore
	now   func() time.Time
}

func NewStoreHistory(store HistoryStore) *StoreHistory {
	return &StoreHistory{store: store, now: time.Now}
}

func (h *StoreHistory) Record(ctx context.Context, q Query, resultCount int) error {
	return h.store.AddHistory(ctx, storage.HistoryEntry{
		Query:       q.Title,
		Author:      q.Author,
		Store:       string(q.Store),
		ResultCount: resultCount,
		SearchedAt:  h.now(),
	})
}
