package types

import "github.com/rubiojr/efinder/pkg/search"

// PageData represents data passed to templates
type PageData struct {
	Title      string
	Version    string
	Categories []search.Category
	Category   search.Category // For coming-soon pages

	// Search form
	Query  string
	Author string
	Store  search.Store
	Sort   search.SortMode
	Stores []search.Store
	Sorts  []search.SortMode

	// Results
	Cards      []ResultCard
	Searched   bool
	Failed     bool
	Page       int
	TotalPages int
	TotalCount int
	PageLinks  []PageLink
	PrevURL    string
	NextURL    string
	DeepLink   string // Encoded q/author/store parameters of the current search

	// Settings
	BackendURL string

	Notice  string // One-shot error notice
	Success string
}

// ResultCard is a search result ready for display.
type ResultCard struct {
	Title       string
	Author      string
	Price       string
	Source      string
	BadgeColor  string
	ImageURL    string
	Placeholder string
	ProductURL  string
}

// PageLink is one entry of the pagination bar.
type PageLink struct {
	Number  int
	URL     string
	Current bool
}
