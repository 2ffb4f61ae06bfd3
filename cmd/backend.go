package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/rubiojr/efinder/pkg/config"
	"github.com/rubiojr/efinder/pkg/settings"
)

// BackendCommand creates the backend command
func BackendCommand() *cli.Command {
	return &cli.Command{
		Name:  "backend",
		Usage: "Show or change the search backend URL",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the effective backend URL",
				Action: func(ctx context.Context, c *cli.Command) error {
					e, err := setupEnv(ctx, c)
					if err != nil {
						return err
					}
					defer e.Close()

					url, err := e.provider.Get(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintln(c.Root().Writer, url)
					return nil
				},
			},
			{
				Name:      "set",
				Usage:     "Persist a new backend URL",
				ArgsUsage: "<url>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "save-config",
						Usage: "Write the URL to the config file as the default instead of the database",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 1 {
						return errors.New("expected exactly one URL argument")
					}

					e, err := setupEnv(ctx, c)
					if err != nil {
						return err
					}
					defer e.Close()

					if c.Bool("save-config") {
						return saveBackendDefault(c.Root().Writer, e, c.String("config"), c.Args().First())
					}

					url, err := settings.Configure(ctx, e.provider, c.Args().First())
					if err != nil {
						return err
					}
					fmt.Fprintf(c.Root().Writer, "Backend URL set to %s\n", url)
					return nil
				},
			},
			{
				Name:  "reset",
				Usage: "Forget the stored backend URL and fall back to the environment or config file",
				Action: func(ctx context.Context, c *cli.Command) error {
					e, err := setupEnv(ctx, c)
					if err != nil {
						return err
					}
					defer e.Close()

					return resetBackend(ctx, c.Root().Writer, e)
				},
			},
		},
	}
}

// saveBackendDefault writes raw as backend_url in the config file. A URL
// stored with "backend set" still takes precedence over it.
func saveBackendDefault(w io.Writer, e *env, configPath, raw string) error {
	url := config.NormalizeBackendURL(raw)
	if err := config.ValidateBackendURL(url); err != nil {
		return fmt.Errorf("invalid backend URL: %w", err)
	}

	cfg := *e.config
	cfg.BackendURL = url
	if err := cfg.SaveConfig(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	e.defaults.SetConfigURL(url)
	fmt.Fprintf(w, "Default backend URL set to %s in %s\n", url, configPath)
	return nil
}

// resetBackend deletes the stored URL and reports the one now in effect.
func resetBackend(ctx context.Context, w io.Writer, e *env) error {
	if err := e.store.DeleteSetting(ctx, settings.BackendURLKey); err != nil {
		return err
	}
	if err := e.provider.Reload(ctx); err != nil {
		return err
	}

	url, err := e.provider.Get(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Stored backend URL removed; now using %s\n", url)
	return nil
}
