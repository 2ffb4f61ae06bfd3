package search

import (
	"fmt"
	"strings"
)

// Result is one product record returned by the backend. Fields the backend
// omits are left at their zero value.
type Result struct {
	Title      string  `json:"title"`
	Author     string  `json:"author"`
	Price      float64 `json:"price"`
	ImageURL   string  `json:"image_url"`
	ProductURL string  `json:"product_url"`
	Source     string  `json:"source"`
}

// Store restricts a search to one retailer. StoreAll searches every retailer.
type Store string

const (
	StoreAll      Store = "all"
	StoreRokomari Store = "rokomari"
	StoreWafilife Store = "wafilife"
	StoreBatighor Store = "batighor"
)

// Stores lists every valid store filter in display order.
func Stores() []Store {
	return []Store{StoreAll, StoreRokomari, StoreWafilife, StoreBatighor}
}

// Label is the human readable store name.
func (s Store) Label() string {
	if s == StoreAll {
		return "All Stores"
	}
	return TitleCase(string(s))
}

// ParseStore parses a store filter case-insensitively. The empty string is StoreAll.
func ParseStore(s string) (Store, error) {
	v := Store(strings.ToLower(strings.TrimSpace(s)))
	if v == "" {
		return StoreAll, nil
	}
	for _, st := range Stores() {
		if v == st {
			return st, nil
		}
	}
	return StoreAll, fmt.Errorf("unknown store %q", s)
}

// SortMode orders a result snapshot.
type SortMode string

const (
	SortRelevance SortMode = "relevance"
	SortPriceAsc  SortMode = "price_asc"
	SortPriceDesc SortMode = "price_desc"
)

func SortModes() []SortMode {
	return []SortMode{SortRelevance, SortPriceAsc, SortPriceDesc}
}

func (m SortMode) Label() string {
	switch m {
	case SortPriceAsc:
		return "Price: Low to High"
	case SortPriceDesc:
		return "Price: High to Low"
	}
	return "Relevance"
}

// ParseSortMode parses a sort mode. The empty string is SortRelevance.
func ParseSortMode(s string) (SortMode, error) {
	v := SortMode(strings.ToLower(strings.TrimSpace(s)))
	if v == "" {
		return SortRelevance, nil
	}
	for _, m := range SortModes() {
		if v == m {
			return m, nil
		}
	}
	return SortRelevance, fmt.Errorf("unknown sort mode %q", s)
}

// Query is the user's search input.
type Query struct {
	Title  string `json:"query"`
	Author string `json:"author"`
	Store  Store  `json:"store"`
}

// NewQuery trims the text fields and defaults an empty store to StoreAll.
func NewQuery(title, author string, store Store) Query {
	if store == "" {
		store = StoreAll
	}
	return Query{Title: title, Author: author, Store: store}
}

// Empty reports whether both the title and the author are blank.
func (q Query) Empty() bool {
	return strings.TrimSpace(q.Title) == "" && strings.TrimSpace(q.Author) == ""
}

// Category is a product category shown on the home page.
type Category struct {
	Slug      string
	Name      string
	Available bool
}

// Categories returns the home page categories. Only books is searchable.
func Categories() []Category {
	return []Category{
		{Slug: "books", Name: "Books", Available: true},
		{Slug: "shoes", Name: "Shoes"},
		{Slug: "dresses", Name: "Dresses"},
		{Slug: "electronics", Name: "Electronics"},
	}
}
