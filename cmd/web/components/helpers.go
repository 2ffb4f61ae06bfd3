package components

import (
	"net/url"
	"strconv"

	"github.com/rubiojr/efinder/cmd/web/components/types"
	"github.com/rubiojr/efinder/pkg/search"
)

// PageWindowSize is the number of page links shown at once.
const PageWindowSize = 5

// NewResultCard converts a result for display. The image falls back to the
// placeholder when missing; the browser swaps it in on load errors too.
func NewResultCard(r search.Result) types.ResultCard {
	badge := search.SourceBadge(r.Source)
	return types.ResultCard{
		Title:       r.Title,
		Author:      r.Author,
		Price:       search.FormatPrice(r.Price),
		Source:      badge.Label,
		BadgeColor:  badge.Color,
		ImageURL:    search.ImageSrc(r.ImageURL),
		Placeholder: search.PlaceholderImage,
		ProductURL:  r.ProductURL,
	}
}

// BooksURL builds a /books link for the given deep link with sort and page.
func BooksURL(link url.Values, sort search.SortMode, page int) string {
	v := url.Values{}
	for k, vals := range link {
		v[k] = vals
	}
	if sort != "" && sort != search.SortRelevance {
		v.Set("sort", string(sort))
	}
	if page > 1 {
		v.Set("page", strconv.Itoa(page))
	}
	if len(v) == 0 {
		return "/books"
	}
	return "/books?" + v.Encode()
}

// Pagination fills the page links and prev/next URLs of data.
func Pagination(data *types.PageData, link url.Values) {
	if data.TotalPages <= 1 {
		return
	}
	for _, n := range search.PageWindow(data.Page, data.TotalPages, PageWindowSize) {
		data.PageLinks = append(data.PageLinks, types.PageLink{
			Number:  n,
			URL:     BooksURL(link, data.Sort, n),
			Current: n == data.Page,
		})
	}
	if data.Page > 1 {
		data.PrevURL = BooksURL(link, data.Sort, min(data.Page-1, data.TotalPages))
	}
	if data.Page < data.TotalPages {
		data.NextURL = BooksURL(link, data.Sort, max(data.Page+1, 1))
	}
}
