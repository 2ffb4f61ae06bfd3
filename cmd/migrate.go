package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/urfave/cli/v3"

	"github.com/rubiojr/efinder/pkg/db"
)

// MigrateCommand creates the migrate command. Opening the store applies any
// pending migrations, so the command reports the resulting schema state.
func MigrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply database migrations and show their status",
		Action: func(ctx context.Context, c *cli.Command) error {
			e, err := setupEnv(ctx, c)
			if err != nil {
				return err
			}
			defer e.Close()

			migrations, err := e.store.Migrations(ctx)
			if err != nil {
				return fmt.Errorf("reading migration status: %w", err)
			}
			printMigrations(c.Root().Writer, e.store.Path(), migrations)
			return nil
		},
	}
}

func printMigrations(w io.Writer, path string, migrations []db.Migration) {
	fmt.Fprintln(w, titleStyle.Render("Database: ")+urlStyle.Render(path))

	pending := 0
	rows := make([][]string, len(migrations))
	for i, m := range migrations {
		applied := "pending"
		if m.AppliedAt != nil {
			applied = m.AppliedAt.Local().Format("2006-01-02 15:04:05")
		} else {
			pending++
		}
		rows[i] = []string{fmt.Sprintf("%03d", m.Version), m.Name, applied}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(borderColor)).
		Headers("VERSION", "NAME", "APPLIED").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	fmt.Fprintln(w, t.String())

	if pending == 0 {
		fmt.Fprintln(w, metaStyle.Render("Database is up to date"))
	} else {
		fmt.Fprintln(w, metaStyle.Render(fmt.Sprintf("%d pending migrations", pending)))
	}
}
