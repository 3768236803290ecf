package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/neexbeast/weatherwidget/internal/config"
	"github.com/neexbeast/weatherwidget/internal/render"
	"github.com/neexbeast/weatherwidget/internal/weather"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "weatherctl",
		Short:         "Current weather conditions from OpenWeatherMap",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(lookupCmd())
	return root
}

func lookupCmd() *cobra.Command {
	var (
		asJSON   bool
		endpoint string
	)

	cmd := &cobra.Command{
		Use:   "lookup [city...]",
		Short: "Print current conditions for one or more cities",
		Long: "Print current conditions for each city. With no arguments the configured\n" +
			"default city is used. Lookups run concurrently; output keeps argument order.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if endpoint != "" {
				cfg.Endpoint = endpoint
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}

			cities := args
			if len(cities) == 0 {
				cities = []string{cfg.DefaultCity}
			}

			client := weather.NewClient(cfg.APIKey,
				weather.WithEndpoint(cfg.Endpoint),
				weather.WithTimeout(cfg.HTTPTimeout()),
			)
			log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

			views, err := lookupAll(cmd.Context(), client, cities, render.Options{Location: loc, IconBase: cfg.IconBase}, log)
			if err != nil {
				return err
			}
			return printViews(cmd.OutOrStdout(), views, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print views as JSON")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Override the current-weather endpoint")

	return cmd
}

type fetcher interface {
	Fetch(ctx context.Context, city string) (*weather.Record, error)
}

// lookupAll fetches every city in parallel. A failed city is logged and left
// out; the command only fails when no city could be looked up.
func lookupAll(ctx context.Context, f fetcher, cities []string, opts render.Options, log *slog.Logger) ([]*render.View, error) {
	views := make([]*render.View, len(cities))

	g, gCtx := errgroup.WithContext(ctx)
	for i, city := range cities {
		i, city := i, city
		g.Go(func() error {
			rec, err := f.Fetch(gCtx, city)
			if err != nil {
				log.Warn("weather fetch failed", "city", city, "err", err)
				return nil
			}
			views[i] = render.Render(rec, opts)
			return nil
		})
	}
	_ = g.Wait()

	out := views[:0]
	for _, v := range views {
		if v != nil {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no weather data for %d %s", len(cities), plural(len(cities), "city", "cities"))
	}
	return out, nil
}

func printViews(w io.Writer, views []*render.View, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	}
	for i, v := range views {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := render.Text(w, v); err != nil {
			return err
		}
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
