package search

import (
	"cmp"
	"slices"
)

// PageSize is the number of results shown per page.
const PageSize = 15

// View is one page of a sorted result snapshot.
type View struct {
	Items      []Result `json:"results"`
	Page       int      `json:"page"`
	TotalPages int      `json:"total_pages"`
	TotalCount int      `json:"total_count"`
}

// SortResults returns a stably sorted copy of results. The input is never modified.
func SortResults(results []Result, mode SortMode) []Result {
	sorted := slices.Clone(results)
	switch mode {
	case SortPriceAsc:
		slices.SortStableFunc(sorted, func(a, b Result) int {
			return cmp.Compare(a.Price, b.Price)
		})
	case SortPriceDesc:
		slices.SortStableFunc(sorted, func(a, b Result) int {
			return cmp.Compare(b.Price, a.Price)
		})
	}
	return sorted
}

// TotalPages returns ceil(n/size).
func TotalPages(n, size int) int {
	if n <= 0 || size <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

// DeriveView sorts results and returns the requested page. Pages outside
// [1, TotalPages] yield an empty item slice.
func DeriveView(results []Result, mode SortMode, page, size int) View {
	if size <= 0 {
		size = PageSize
	}
	v := View{
		Page:       page,
		TotalCount: len(results),
		TotalPages: TotalPages(len(results), size),
		Items:      []Result{},
	}
	if page < 1 || page > v.TotalPages {
		return v
	}

	sorted := SortResults(results, mode)
	start := (page - 1) * size
	end := min(start+size, len(sorted))
	v.Items = sorted[start:end]
	return v
}

// PageWindow returns up to width contiguous page numbers containing current,
// centred on it when possible and shifted at the edges.
func PageWindow(current, total, width int) []int {
	if total <= 0 || width <= 0 {
		return nil
	}
	n := min(width, total)
	current = min(max(current, 1), total)

	start := current - (n-1)/2
	if start < 1 {
		start = 1
	}
	if start+n-1 > total {
		start = total - n + 1
	}

	pages := make([]int, n)
	for i := range pages {
		pages[i] = start + i
	}
	return pages
}
