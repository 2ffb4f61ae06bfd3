package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/urfave/cli/v3"

	"github.com/rubiojr/efinder/pkg/search"
	"github.com/rubiojr/efinder/pkg/storage"
)

// HistoryCommand creates the history command
func HistoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent searches",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of entries",
				Value: 20,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			e, err := setupEnv(ctx, c)
			if err != nil {
				return err
			}
			defer e.Close()

			entries, err := e.store.RecentHistory(ctx, int(c.Int("limit")))
			if err != nil {
				return fmt.Errorf("reading history: %w", err)
			}
			printHistory(c.Root().Writer, entries)
			return nil
		},
	}
}

func printHistory(w io.Writer, entries []storage.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, noDataStyle.Render("No searches yet."))
		return
	}

	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{
			e.SearchedAt.Local().Format("2006-01-02 15:04"),
			e.Query,
			e.Author,
			e.Store,
			search.FormatCount(e.ResultCount),
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(borderColor)).
		Headers("WHEN", "TITLE", "AUTHOR", "STORE", "RESULTS").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	fmt.Fprintln(w, t.String())
}
