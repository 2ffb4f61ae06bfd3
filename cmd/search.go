package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/urfave/cli/v3"

	"github.com/rubiojr/efinder/pkg/search"
)

// SearchCommand creates the search command
func SearchCommand() *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search books across online stores",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "title",
				Aliases: []string{"q"},
				Usage:   "Book title",
			},
			&cli.StringFlag{
				Name:    "author",
				Aliases: []string{"a"},
				Usage:   "Author name",
			},
			&cli.StringFlag{
				Name:  "store",
				Usage: "Store filter: all, rokomari, wafilife, batighor",
				Value: string(search.StoreAll),
			},
			&cli.StringFlag{
				Name:  "sort",
				Usage: "Sort order: relevance, price_asc, price_desc",
				Value: string(search.SortRelevance),
			},
			&cli.IntFlag{
				Name:  "page",
				Usage: "Page to show",
				Value: 1,
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Show every page",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print results as JSON",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return searchBooks(ctx, c)
		},
	}
}

type searchOptions struct {
	title  string
	author string
	store  search.Store
	sort   search.SortMode
	page   int
	all    bool
	json   bool
}

func searchBooks(ctx context.Context, c *cli.Command) error {
	store, err := parseStoreFlag(c.String("store"))
	if err != nil {
		return err
	}
	mode, err := parseSortFlag(c.String("sort"))
	if err != nil {
		return err
	}

	opts := searchOptions{
		title:  c.String("title"),
		author: c.String("author"),
		store:  store,
		sort:   mode,
		page:   int(c.Int("page")),
		all:    c.Bool("all"),
		json:   c.Bool("json"),
	}

	e, err := setupEnv(ctx, c)
	if err != nil {
		return err
	}
	defer e.Close()

	return runSearch(ctx, c.Root().Writer, e.newController(), opts)
}

// runSearch submits the query and renders the requested page(s) to w.
func runSearch(ctx context.Context, w io.Writer, ctrl *search.Controller, opts searchOptions) error {
	err := ctrl.SubmitSearch(ctx, opts.title, opts.author, opts.store)
	if errors.Is(err, search.ErrEmptyQuery) {
		return errors.New("a title or an author is required")
	}
	if err != nil {
		return cli.Exit(search.Describe(err), 1)
	}

	ctrl.SetSort(opts.sort)
	results := ctrl.State().Results
	total := search.TotalPages(len(results), search.PageSize)

	if !opts.all && total > 0 && (opts.page < 1 || opts.page > total) {
		return fmt.Errorf("page %d out of range (1-%d)", opts.page, total)
	}

	var views []search.View
	if opts.all {
		for p := 1; p <= total; p++ {
			views = append(views, search.DeriveView(results, opts.sort, p, search.PageSize))
		}
	} else {
		ctrl.SetPage(opts.page)
		views = append(views, ctrl.View())
	}

	if opts.json {
		return writeJSONResults(w, ctrl.State().Query, opts.sort, views)
	}

	if len(results) == 0 {
		fmt.Fprintln(w, noDataStyle.Render("No books found."))
		return nil
	}

	fmt.Fprintln(w, titleStyle.Render(searchTitle(ctrl.State().Query)))
	for _, v := range views {
		fmt.Fprintln(w, resultsTable(v.Items))
		fmt.Fprintln(w, metaStyle.Render(pageFooter(v)))
	}
	return nil
}

func searchTitle(q search.Query) string {
	var parts []string
	if q.Title != "" {
		parts = append(parts, fmt.Sprintf("%q", q.Title))
	}
	if q.Author != "" {
		parts = append(parts, "by "+q.Author)
	}
	return "Books " + strings.Join(parts, " ") + " in " + q.Store.Label()
}

func pageFooter(v search.View) string {
	return fmt.Sprintf("Page %d of %d / %s results", v.Page, v.TotalPages, search.FormatCount(v.TotalCount))
}

func resultsTable(items []search.Result) string {
	rows := make([][]string, len(items))
	for i, r := range items {
		rows[i] = []string{r.Title, r.Author, search.FormatPrice(r.Price), r.Source, r.ProductURL}
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(borderColor)).
		Headers("TITLE", "AUTHOR", "PRICE", "SOURCE", "LINK").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			switch col {
			case 2:
				return priceStyle
			case 3:
				return sourceStyle(search.SourceBadge(items[row].Source).Color)
			case 4:
				return urlStyle
			}
			return cellStyle
		}).
		String()
}

type jsonPage struct {
	Query  string          `json:"query"`
	Author string          `json:"author"`
	Store  search.Store    `json:"store"`
	Sort   search.SortMode `json:"sort"`
	search.View
}

func writeJSONResults(w io.Writer, q search.Query, mode search.SortMode, views []search.View) error {
	pages := make([]jsonPage, len(views))
	for i, v := range views {
		pages[i] = jsonPage{Query: q.Title, Author: q.Author, Store: q.Store, Sort: mode, View: v}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if len(pages) == 1 {
		return enc.Encode(pages[0])
	}
	return enc.Encode(pages)
}
