package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/urfave/cli/v3"

	"github.com/rubiojr/efinder/pkg/config"
	"github.com/rubiojr/efinder/pkg/log"
	"github.com/rubiojr/efinder/pkg/search"
	"github.com/rubiojr/efinder/pkg/settings"
	"github.com/rubiojr/efinder/pkg/storage"
)

// env bundles what every command needs: config, storage and the settings provider.
type env struct {
	config   *config.Config
	store    *storage.Store
	defaults *settings.Defaults
	provider *settings.StoreProvider
}

// setupEnv loads the config named by --config and opens the database.
func setupEnv(ctx context.Context, c *cli.Command) (*env, error) {
	if c.Bool("debug") {
		log.SetGlobalDebug(true)
	}
	log.SetJSON(c.Bool("log-json"))

	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	store, err := storage.OpenDir(ctx, cfg.StorageDir)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	defaults := settings.NewDefaults(cfg.BackendURL)
	return &env{
		config:   cfg,
		store:    store,
		defaults: defaults,
		provider: settings.NewStoreProvider(store, defaults),
	}, nil
}

func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		log.ForService("cmd").Warnf("failed to close storage: %v", err)
	}
}

// newSearcher builds the backend client from the configured timeout and rate limit.
func newSearcher(cfg *config.Config) *search.Client {
	return search.NewClient(
		search.WithTimeout(cfg.RequestTimeout.Duration),
		search.WithRateLimit(cfg.MaxRequestsPerSecond),
	)
}

// newController builds a controller that records history in the env's store.
func (e *env) newController() *search.Controller {
	return search.NewController(newSearcher(e.config), e.provider,
		search.WithHistory(search.NewStoreHistory(e.store)))
}

// suggest returns the closest candidate to input, or "" when nothing matches.
func suggest(input string, candidates []string) string {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return ""
	}
	matches := fuzzy.Find(input, candidates)
	if len(matches) > 0 {
		return matches[0].Str
	}
	// Fuzzy matching needs the input to be a subsequence; try the reverse for typos
	// that add letters, preferring the longest candidate.
	best := ""
	for _, cand := range candidates {
		if len(cand) > len(best) && len(fuzzy.Find(cand, []string{input})) > 0 {
			best = cand
		}
	}
	return best
}

func parseStoreFlag(s string) (search.Store, error) {
	store, err := search.ParseStore(s)
	if err == nil {
		return store, nil
	}
	names := make([]string, 0, len(search.Stores()))
	for _, st := range search.Stores() {
		names = append(names, string(st))
	}
	if hint := suggest(s, names); hint != "" {
		return "", fmt.Errorf("%w; did you mean %q?", err, hint)
	}
	return "", fmt.Errorf("%w; valid stores: %s", err, strings.Join(names, ", "))
}

func parseSortFlag(s string) (search.SortMode, error) {
	mode, err := search.ParseSortMode(s)
	if err == nil {
		return mode, nil
	}
	names := make([]string, 0, len(search.SortModes()))
	for _, m := range search.SortModes() {
		names = append(names, string(m))
	}
	if hint := suggest(s, names); hint != "" {
		return "", fmt.Errorf("%w; did you mean %q?", err, hint)
	}
	return "", fmt.Errorf("%w; valid sort modes: %s", err, strings.Join(names, ", "))
}
