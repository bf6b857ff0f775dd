package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"schedgrid/internal/config"
	"schedgrid/internal/grid"
	appLog "schedgrid/internal/log"
	"schedgrid/internal/schedule"
)

var version = "0.1.0-dev"

var (
	configPath string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "schedgrid",
	Short: "Calendar grid service",
	Long: `schedgrid computes the date grid of a scheduling calendar (Day, Week,
WorkWeek and Month views), filters it by work days, expands it across grouped
resources and serves it as JSON.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debug {
			appLog.SetLevel(appLog.LevelDebug)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		appLog.Sync()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "schedgrid", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "/etc/schedgrid/config.yaml", "Path to config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(gridCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads the config file and applies its log level unless --debug
// already raised it.
func loadConfig() (*config.Config, error) {
	conf, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", configPath, err)
	}
	if !debug {
		appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	}
	return conf, nil
}

// newScheduler builds the schedule described by conf, anchored at anchor.
func newScheduler(conf *config.Config, anchor grid.Date, now func() time.Time) (*schedule.Scheduler, error) {
	return schedule.New(schedule.Options{
		View:       conf.ViewConfig(anchor),
		Levels:     conf.ResourceLevels(),
		Group:      conf.Grouping(),
		MaxPerCell: conf.View.MaxPerCell,
		Now:        now,
		Handlers: schedule.Handlers{
			ActionBegin: func(a *schedule.ActionEventArgs) {
				appLog.Debug("action begin", "request_type", a.RequestType)
			},
			ActionComplete: func(a *schedule.ActionEventArgs) {
				appLog.Debug("action complete", "request_type", a.RequestType)
			},
			Navigating: func(a *schedule.NavigatingEventArgs) {
				appLog.Info("navigating",
					"action", a.Action,
					"previous_date", a.PreviousDate,
					"current_date", a.CurrentDate,
					"previous_view", a.PreviousView,
					"current_view", a.CurrentView,
				)
			},
			Select: func(a *schedule.SelectEventArgs) {
				appLog.Debug("cells selected", "count", len(a.Cells))
			},
		},
	})
}
