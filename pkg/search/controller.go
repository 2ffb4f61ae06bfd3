package search

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"github.com/rubiojr/efinder/pkg/log"
	"github.com/rubiojr/efinder/pkg/metrics"
	"github.com/rubiojr/efinder/pkg/settings"
)

var logger = log.ForService("search")

// History records successful searches.
type History interface {
	Record(ctx context.Context, q Query, resultCount int) error
}

// State is a copy of the controller state.
type State struct {
	Query    Query
	Sort     SortMode
	Results  []Result
	Page     int
	Loading  bool
	Searched bool
	Err      error
}

// Controller owns the query, the result snapshot and the paging state of one
// user. It is safe for concurrent use; the lock is never held across a
// backend request.
type Controller struct {
	searcher Searcher
	settings settings.Provider
	history  History
	pageSize int

	mu       sync.Mutex
	seq      uint64
	query    Query
	sort     SortMode
	results  []Result
	page     int
	loading  bool
	searched bool
	lastErr  error
}

type Option func(*Controller)

// WithHistory records every successful, non-stale search in h.
func WithHistory(h History) Option {
	return func(c *Controller) {
		c.history = h
	}
}

func NewController(searcher Searcher, provider settings.Provider, opts ...Option) *Controller {
	c := &Controller{
		searcher: searcher,
		settings: provider,
		pageSize: PageSize,
		query:    Query{Store: StoreAll},
		sort:     SortRelevance,
		page:     1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitSearch runs a new search. Blank queries return ErrEmptyQuery without
// touching state. A response that lost the race to a newer search is dropped
// and ErrSuperseded is returned.
func (c *Controller) SubmitSearch(ctx context.Context, title, author string, store Store) error {
	q := NewQuery(title, author, store)
	if q.Empty() {
		return ErrEmptyQuery
	}

	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.query = q
	c.loading = true
	c.searched = true
	c.results = nil
	c.page = 1
	c.lastErr = nil
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if c.seq == seq {
			c.loading = false
		}
		c.mu.Unlock()
	}()

	results, err := c.fetch(ctx, q)

	c.mu.Lock()
	if c.seq != seq {
		c.mu.Unlock()
		metrics.StaleResponsesTotal.Inc()
		logger.Debugf("discarding stale response for %q (seq %d)", q.Title, seq)
		return ErrSuperseded
	}
	if err != nil {
		c.lastErr = err
		c.mu.Unlock()
		return err
	}
	c.results = results
	c.mu.Unlock()

	if c.history != nil {
		if herr := c.history.Record(ctx, q, len(results)); herr != nil {
			logger.Warnf("failed to record search history: %v", herr)
		}
	}
	return nil
}

func (c *Controller) fetch(ctx context.Context, q Query) ([]Result, error) {
	baseURL, err := c.settings.Get(ctx)
	if err != nil {
		return nil, &RequestError{Message: "resolving backend URL", Err: err}
	}
	logger.Debugf("searching %s for %+v", baseURL, q)
	return c.searcher.Search(ctx, baseURL, q)
}

// Refresh re-runs the current query.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	q := c.query
	c.mu.Unlock()
	return c.SubmitSearch(ctx, q.Title, q.Author, q.Store)
}

// SetPage stores n as the current page. Bounds are the caller's concern.
func (c *Controller) SetPage(n int) {
	c.mu.Lock()
	c.page = n
	c.mu.Unlock()
}

// SetSort changes the sort mode. It never sends a request.
func (c *Controller) SetSort(mode SortMode) {
	c.mu.Lock()
	c.sort = mode
	c.mu.Unlock()
}

// Clear resets the query and results. In-flight responses are discarded.
func (c *Controller) Clear() {
	c.mu.Lock()
	c.seq++
	c.query = Query{Store: StoreAll}
	c.results = nil
	c.searched = false
	c.lastErr = nil
	c.loading = false
	c.page = 1
	c.mu.Unlock()
}

// ConfigureBackend validates and persists a new backend base URL. It does
// not re-run the last search.
func (c *Controller) ConfigureBackend(ctx context.Context, raw string) (string, error) {
	return settings.Configure(ctx, c.settings, raw)
}

// BackendURL returns the effective backend base URL.
func (c *Controller) BackendURL(ctx context.Context) (string, error) {
	return c.settings.Get(ctx)
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Query:    c.query,
		Sort:     c.sort,
		Results:  c.results,
		Page:     c.page,
		Loading:  c.loading,
		Searched: c.searched,
		Err:      c.lastErr,
	}
}

// View derives the current page from the snapshot.
func (c *Controller) View() View {
	c.mu.Lock()
	results, mode, page := c.results, c.sort, c.page
	c.mu.Unlock()
	return DeriveView(results, mode, page, c.pageSize)
}

// Matches reports whether q is the query of the current search and that
// search did not fail.
func (c *Controller) Matches(q Query) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.searched && c.lastErr == nil && c.query == q
}

// DeepLink returns the URL parameters describing the current search.
// It is empty until a search has been submitted.
func (c *Controller) DeepLink() url.Values {
	c.mu.Lock()
	q, searched := c.query, c.searched
	c.mu.Unlock()

	v := url.Values{}
	if !searched {
		return v
	}
	if q.Title != "" {
		v.Set("q", q.Title)
	}
	if q.Author != "" {
		v.Set("author", q.Author)
	}
	v.Set("store", string(q.Store))
	return v
}

// ParseDeepLink extracts the query from URL parameters. ok is false when
// the parameters carry no searchable query. Unknown stores fall back to StoreAll.
func ParseDeepLink(v url.Values) (q Query, ok bool) {
	store, err := ParseStore(v.Get("store"))
	if err != nil {
		store = StoreAll
	}
	q = NewQuery(v.Get("q"), v.Get("author"), store)
	return q, !q.Empty()
}

// IsSkip reports whether err is a non-failure outcome of SubmitSearch.
func IsSkip(err error) bool {
	return errors.Is(err, ErrEmptyQuery) || errors.Is(err, ErrSuperseded)
}
