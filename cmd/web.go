package cmd

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/a-h/templ"
	"github.com/klauspost/compress/gzhttp"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/rubiojr/efinder/cmd/web/components"
	"github.com/rubiojr/efinder/cmd/web/components/types"
	"github.com/rubiojr/efinder/pkg/api"
	"github.com/rubiojr/efinder/pkg/config"
	"github.com/rubiojr/efinder/pkg/log"
	"github.com/rubiojr/efinder/pkg/metrics"
	"github.com/rubiojr/efinder/pkg/search"
	"github.com/rubiojr/efinder/pkg/session"
	"github.com/rubiojr/efinder/pkg/version"
)

//go:embed web/static/*
var staticFS embed.FS

var webLogger = log.ForService("web")

// WebCommand creates the web command with both API and UI
func WebCommand() *cli.Command {
	return &cli.Command{
		Name:  "web",
		Usage: "Start web server with both API endpoints and HTML interface",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "port",
				Usage: "Port to listen on (defaults to the config file value)",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to bind to (defaults to the config file value)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return startWebServer(ctx, c)
		},
	}
}

// WebServer holds the server configuration and dependencies
type WebServer struct {
	sessions  *session.Store
	apiServer *api.Server
}

func newWebServer(e *env, searcher search.Searcher) *WebServer {
	history := search.NewStoreHistory(e.store)
	sessions := session.NewStore(e.config.Web.SessionTTL.Duration, func() *search.Controller {
		return search.NewController(searcher, e.provider, search.WithHistory(history))
	})

	return &WebServer{
		sessions:  sessions,
		apiServer: api.NewServer(searcher, e.provider, e.store, history),
	}
}

// Handler returns the full HTTP handler: UI, API, static assets and metrics.
func (s *WebServer) Handler() http.Handler {
	mux := http.NewServeMux()
	handle := func(pattern, route string, h http.Handler) {
		mux.Handle(pattern, metrics.Middleware(route, h))
	}

	// Web UI routes
	handle("GET /{$}", "home", http.HandlerFunc(s.handleHome))
	handle("GET /books", "books", http.HandlerFunc(s.handleBooks))
	handle("POST /books/search", "books_search", http.HandlerFunc(s.handleSubmit))
	handle("POST /books/refresh", "books_refresh", http.HandlerFunc(s.handleRefresh))
	handle("POST /books/clear", "books_clear", http.HandlerFunc(s.handleClear))
	handle("GET /settings", "settings", http.HandlerFunc(s.handleSettings))
	handle("POST /settings", "settings_update", http.HandlerFunc(s.handleUpdateSettings))
	for _, cat := range search.Categories() {
		if !cat.Available {
			handle("GET /"+cat.Slug, "coming_soon", s.comingSoonHandler(cat))
		}
	}

	// API routes
	apiMux := http.NewServeMux()
	s.apiServer.RegisterRoutes(apiMux)
	handle("/api/", "api", apiMux)
	handle("GET /health", "health", apiMux)

	// Static assets and metrics
	handle("GET /static/", "static", staticHandler())
	mux.Handle("GET /metrics", metrics.Handler())

	return gzhttp.GzipHandler(api.CorsMiddleware(mux))
}

// startWebServer starts the web server with both API and UI
func startWebServer(ctx context.Context, c *cli.Command) error {
	e, err := setupEnv(ctx, c)
	if err != nil {
		return err
	}
	defer e.Close()

	host := c.String("host")
	if host == "" {
		host = e.config.Web.Host
	}
	port := c.String("port")
	if port == "" {
		port = e.config.Web.Port
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ws := newWebServer(e, newSearcher(e.config))

	unsubscribe := e.provider.Subscribe(func(url string) {
		webLogger.Infof("search backend is now %s", url)
	})
	defer unsubscribe()

	configPath := c.String("config")
	err = watchConfig(ctx, configPath, func() error {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		e.defaults.SetConfigURL(cfg.BackendURL)
		return e.provider.Reload(ctx)
	})
	if err != nil {
		webLogger.Warnf("not watching config file %s: %v", configPath, err)
	}

	server := &http.Server{
		Addr:              net.JoinHostPort(host, port),
		Handler:           ws.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		webLogger.WithFields(logrus.Fields{
			"host": host,
			"port": port,
		}).Infof("starting web server on http://%s", server.Addr)
		webLogger.Infof("available endpoints:")
		webLogger.Infof("  GET  / - Categories")
		webLogger.Infof("  GET  /books - Book search (q, author, store, sort, page)")
		webLogger.Infof("  GET  /settings - Backend settings")
		webLogger.Infof("  GET  /api/search - JSON search")
		webLogger.Infof("  GET  /api/settings, PUT /api/settings - Backend URL")
		webLogger.Infof("  GET  /api/history - Recent searches")
		webLogger.Infof("  GET  /metrics - Prometheus metrics")
		webLogger.Infof("  GET  /health - Health check")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("web server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	webLogger.Infof("shutting down web server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}

// Web UI Handlers

func newPageData(title string) types.PageData {
	return types.PageData{
		Title:      title,
		Version:    version.Version,
		Categories: search.Categories(),
		Stores:     search.Stores(),
		Sorts:      search.SortModes(),
		Store:      search.StoreAll,
		Sort:       search.SortRelevance,
	}
}

func render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		webLogger.Errorf("rendering %s: %v", r.URL.Path, err)
	}
}

// handleHome lists the finder categories
func (s *WebServer) handleHome(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, components.Index(newPageData("E-Finder Hub")))
}

func (s *WebServer) comingSoonHandler(cat search.Category) http.Handler {
	data := newPageData(cat.Name + " - E-Finder Hub")
	data.Category = cat
	return templ.Handler(components.ComingSoon(data))
}

// handleBooks shows the search page. A deep link the session has not run yet,
// or whose last run failed, triggers a search; sort and page only re-derive
// the view.
func (s *WebServer) handleBooks(w http.ResponseWriter, r *http.Request) {
	ctrl := s.sessions.Load(w, r)
	params := r.URL.Query()
	data := newPageData("Books - E-Finder Hub")

	if q, ok := search.ParseDeepLink(params); ok && !ctrl.Matches(q) {
		if err := ctrl.SubmitSearch(r.Context(), q.Title, q.Author, q.Store); err != nil && !search.IsSkip(err) {
			webLogger.Warnf("deep link search failed: %v", err)
			data.Notice = search.Describe(err)
		}
	}

	mode, err := search.ParseSortMode(params.Get("sort"))
	if err != nil {
		mode = search.SortRelevance
	}
	ctrl.SetSort(mode)

	page := 1
	if p, err := strconv.Atoi(params.Get("page")); err == nil {
		page = p
	}
	ctrl.SetPage(page)

	s.renderBooks(w, r, ctrl, data, http.StatusOK)
}

func (s *WebServer) renderBooks(w http.ResponseWriter, r *http.Request, ctrl *search.Controller, data types.PageData, status int) {
	st := ctrl.State()

	total := search.TotalPages(len(st.Results), search.PageSize)
	if clamped := min(max(st.Page, 1), max(total, 1)); clamped != st.Page {
		ctrl.SetPage(clamped)
	}
	view := ctrl.View()
	link := ctrl.DeepLink()

	data.Query = st.Query.Title
	data.Author = st.Query.Author
	data.Store = st.Query.Store
	data.Sort = st.Sort
	data.Searched = st.Searched
	data.Failed = st.Err != nil
	data.Page = view.Page
	data.TotalPages = view.TotalPages
	data.TotalCount = view.TotalCount
	data.DeepLink = link.Encode()
	for _, item := range view.Items {
		data.Cards = append(data.Cards, components.NewResultCard(item))
	}
	components.Pagination(&data, link)

	render(w, r, status, components.Books(data))
}

// handleSubmit runs a search from the form and redirects to its deep link.
func (s *WebServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctrl := s.sessions.Load(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	store, err := search.ParseStore(r.PostFormValue("store"))
	if err != nil {
		store = search.StoreAll
	}

	err = ctrl.SubmitSearch(r.Context(), r.PostFormValue("q"), r.PostFormValue("author"), store)
	s.afterSubmit(w, r, ctrl, err)
}

func (s *WebServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctrl := s.sessions.Load(w, r)
	s.afterSubmit(w, r, ctrl, ctrl.Refresh(r.Context()))
}

func (s *WebServer) afterSubmit(w http.ResponseWriter, r *http.Request, ctrl *search.Controller, err error) {
	switch {
	case errors.Is(err, search.ErrEmptyQuery):
		http.Redirect(w, r, "/books", http.StatusSeeOther)
	case err == nil, errors.Is(err, search.ErrSuperseded):
		http.Redirect(w, r, components.BooksURL(ctrl.DeepLink(), "", 1), http.StatusSeeOther)
	default:
		webLogger.Warnf("search failed: %v", err)
		data := newPageData("Books - E-Finder Hub")
		data.Notice = search.Describe(err)
		s.renderBooks(w, r, ctrl, data, http.StatusBadGateway)
	}
}

func (s *WebServer) handleClear(w http.ResponseWriter, r *http.Request) {
	s.sessions.Load(w, r).Clear()
	http.Redirect(w, r, "/books", http.StatusSeeOther)
}

func (s *WebServer) handleSettings(w http.ResponseWriter, r *http.Request) {
	data := newPageData("Settings - E-Finder Hub")

	url, err := s.sessions.Load(w, r).BackendURL(r.Context())
	if err != nil {
		webLogger.Errorf("reading backend URL: %v", err)
		data.Notice = "Could not read the current backend URL."
	}
	data.BackendURL = url
	if r.URL.Query().Get("saved") == "1" {
		data.Success = "Backend URL saved."
	}

	render(w, r, http.StatusOK, components.Settings(data))
}

func (s *WebServer) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	raw := r.PostFormValue("backend_url")
	if _, err := s.sessions.Load(w, r).ConfigureBackend(r.Context(), raw); err != nil {
		data := newPageData("Settings - E-Finder Hub")
		data.BackendURL = raw
		data.Notice = err.Error()
		render(w, r, http.StatusBadRequest, components.Settings(data))
		return
	}

	http.Redirect(w, r, "/settings?saved=1", http.StatusSeeOther)
}

// staticHandler serves static assets from embedded files
func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "web/static")
	if err != nil {
		panic(err)
	}
	files := http.StripPrefix("/static/", http.FileServerFS(sub))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		files.ServeHTTP(w, r)
	})
}
