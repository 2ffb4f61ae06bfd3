package search

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeResults(prices ...float64) []Result {
	results := make([]Result, len(prices))
	for i, p := range prices {
		results[i] = Result{Title: fmt.Sprintf("Book %d", i), Price: p, Source: "Rokomari"}
	}
	return results
}

func titles(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Title
	}
	return out
}

func TestSortResultsPriceAscending(t *testing.T) {
	in := makeResults(300, 100, 200)
	out := SortResults(in, SortPriceAsc)

	assert.Equal(t, []float64{100, 200, 300}, []float64{out[0].Price, out[1].Price, out[2].Price})
	assert.Equal(t, 300.0, in[0].Price, "input must not be reordered")
}

func TestSortResultsPriceDescending(t *testing.T) {
	out := SortResults(makeResults(300, 100, 200), SortPriceDesc)
	assert.Equal(t, []float64{300, 200, 100}, []float64{out[0].Price, out[1].Price, out[2].Price})
}

func TestSortResultsRelevanceKeepsOrder(t *testing.T) {
	in := makeResults(5, 1, 3)
	assert.Equal(t, titles(in), titles(SortResults(in, SortRelevance)))
}

func TestSortResultsStableOnTies(t *testing.T) {
	in := makeResults(100, 50, 100, 50)
	asc := SortResults(in, SortPriceAsc)
	assert.Equal(t, []string{"Book 1", "Book 3", "Book 0", "Book 2"}, titles(asc))

	desc := SortResults(in, SortPriceDesc)
	assert.Equal(t, []string{"Book 0", "Book 2", "Book 1", "Book 3"}, titles(desc))
}

func TestTotalPages(t *testing.T) {
	cases := []struct{ n, size, want int }{
		{0, 15, 0},
		{1, 15, 1},
		{15, 15, 1},
		{16, 15, 2},
		{32, 15, 3},
		{45, 15, 3},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, TotalPages(c.n, c.size), "n=%d size=%d", c.n, c.size)
	}
}

func TestDeriveViewPages(t *testing.T) {
	prices := make([]float64, 32)
	for i := range prices {
		prices[i] = float64(i)
	}
	results := makeResults(prices...)

	first := DeriveView(results, SortRelevance, 1, PageSize)
	assert.Len(t, first.Items, 15)
	assert.Equal(t, 3, first.TotalPages)
	assert.Equal(t, 32, first.TotalCount)
	assert.Equal(t, "Book 0", first.Items[0].Title)

	last := DeriveView(results, SortRelevance, 3, PageSize)
	require.Len(t, last.Items, 2)
	assert.Equal(t, "Book 30", last.Items[0].Title)
	assert.Equal(t, "Book 31", last.Items[1].Title)
}

func TestDeriveViewPagesPartitionSnapshot(t *testing.T) {
	results := makeResults(9, 3, 7, 1, 5, 2, 8, 4, 6, 0, 11)

	var seen []string
	v := DeriveView(results, SortPriceAsc, 1, 4)
	for page := 1; page <= v.TotalPages; page++ {
		seen = append(seen, titles(DeriveView(results, SortPriceAsc, page, 4).Items)...)
	}
	assert.Equal(t, titles(SortResults(results, SortPriceAsc)), seen)
}

func TestDeriveViewOutOfRange(t *testing.T) {
	results := makeResults(1, 2, 3)

	for _, page := range []int{0, -1, 2, 100} {
		v := DeriveView(results, SortRelevance, page, PageSize)
		assert.NotNil(t, v.Items)
		assert.Empty(t, v.Items, "page %d", page)
		assert.Equal(t, 1, v.TotalPages)
		assert.Equal(t, 3, v.TotalCount)
	}
}

func TestDeriveViewEmpty(t *testing.T) {
	v := DeriveView(nil, SortPriceAsc, 1, PageSize)
	assert.Empty(t, v.Items)
	assert.Equal(t, 0, v.TotalPages)
	assert.Equal(t, 0, v.TotalCount)
}

func TestDeriveViewDoesNotMutateSnapshot(t *testing.T) {
	results := makeResults(3, 1, 2)
	before := titles(results)
	DeriveView(results, SortPriceDesc, 1, PageSize)
	assert.Equal(t, before, titles(results))
}

func TestPageWindow(t *testing.T) {
	cases := []struct {
		current, total, width int
		want                  []int
	}{
		{1, 1, 5, []int{1}},
		{1, 3, 5, []int{1, 2, 3}},
		{1, 10, 5, []int{1, 2, 3, 4, 5}},
		{2, 10, 5, []int{1, 2, 3, 4, 5}},
		{3, 10, 5, []int{1, 2, 3, 4, 5}},
		{6, 10, 5, []int{4, 5, 6, 7, 8}},
		{9, 10, 5, []int{6, 7, 8, 9, 10}},
		{10, 10, 5, []int{6, 7, 8, 9, 10}},
		{42, 10, 5, []int{6, 7, 8, 9, 10}},
		{0, 10, 5, []int{1, 2, 3, 4, 5}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, PageWindow(c.current, c.total, c.width),
			"current=%d total=%d", c.current, c.total)
	}

	assert.Nil(t, PageWindow(1, 0, 5))
}

func TestPageWindowAlwaysContainsCurrent(t *testing.T) {
	for total := 1; total <= 12; total++ {
		for current := 1; current <= total; current++ {
			w := PageWindow(current, total, 5)
			assert.Len(t, w, min(5, total))
			assert.Contains(t, w, current)
			assert.GreaterOrEqual(t, w[0], 1)
			assert.LessOrEqual(t, w[len(w)-1], total)
		}
	}
}
