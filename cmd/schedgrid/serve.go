package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"schedgrid/internal/config"
	"schedgrid/internal/grid"
	"schedgrid/internal/ics"
	appLog "schedgrid/internal/log"
	"schedgrid/internal/refresh"
	"schedgrid/internal/web"
)

var (
	serveListen   string
	serveCacheDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the schedule over HTTP and refresh appointment feeds",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "HTTP listen address (overrides config if set)")
	serveCmd.Flags().StringVar(&serveCacheDir, "cache-dir", "/var/lib/schedgrid/ics-cache", "Directory for cached feed bodies")
}

func runServe(cmd *cobra.Command, args []string) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	if serveListen != "" {
		conf.Listen = serveListen
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"view", conf.View.CurrentView,
		"first_day_of_week", conf.View.FirstDayOfWeek,
		"interval", conf.View.Interval,
		"resource_levels", len(conf.Resources),
		"group", conf.Group.Resources,
		"ics_count", len(conf.ICS),
		"refresh", conf.RefreshCron,
	)

	loc := conf.Location()
	sched, err := newScheduler(conf, grid.DateOf(time.Now().In(loc)), time.Now)
	if err != nil {
		return err
	}
	srv, err := web.NewServer(conf, sched)
	if err != nil {
		return err
	}

	fetcher := ics.NewFetcher(serveCacheDir, nil)
	refresher, err := refresh.New(conf.RefreshCron, loc, refresh.FeedLoader(fetcher, feedSources(conf), loc), srv)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Serve(gctx) })
	g.Go(func() error { return refresher.Run(gctx) })

	err = g.Wait()
	appLog.Info("schedgrid exiting")
	return err
}

// feedSources converts configured feeds into fetch sources. Feeds without a
// URL are skipped; a missing ID falls back to the name, then the URL.
func feedSources(conf *config.Config) []ics.Source {
	sources := make([]ics.Source, 0, len(conf.ICS))
	for _, c := range conf.ICS {
		if c.URL == "" {
			continue
		}
		id := c.ID
		if id == "" {
			if c.Name != "" {
				id = c.Name
			} else {
				id = c.URL
			}
		}
		sources = append(sources, ics.Source{
			ID:        id,
			URL:       c.URL,
			Resources: c.Resources,
			Block:     c.Block,
		})
	}
	return sources
}
