package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/flightdash/internal/config"
)

// NewRootCmd creates the root command for flightdash.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flightdash",
		Short: "Flight price tracker and static dashboard generator",
		Long: `flightdash tracks flight prices for one search on the Booking.com
flight search API (RapidAPI) and publishes a static HTML dashboard.

A run has three stages that can also be called one at a time:
  fetch     query the API and store the raw response
  process   summarize the response and append the price history
  generate  render the dashboard (and copy it to the publish directory)

The API key is read from RAPIDAPI_KEY, or from a .env file in the
current directory. Settings are read from .flightdash.yaml; flags
override the file.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	flags := cmd.PersistentFlags()
	flags.BoolP("verbose", "v", false, "Enable verbose logging")
	flags.Bool("log-json", false, "Write logs as JSON")
	flags.StringP("config", "c", "",
		"Configuration file path (default: .flightdash.yaml in current, XDG config or home directory)")
	flags.String("env-file", ".env", "File with environment variables such as RAPIDAPI_KEY")
	flags.StringP("query", "q", config.DefaultQueryFile, "Search parameter file (JSON)")
	flags.String("data-dir", config.DefaultDataDir, "Directory for raw, processed and history data")
	flags.String("dashboard-dir", config.DefaultDashboardDir, "Directory the dashboard is written to")
	flags.String("timezone", config.DefaultTimezone, "IANA time zone for displayed timestamps")
	flags.String("history", config.HistoryCSV, "Price history backend: csv or sqlite")
	flags.String("db-dir", "", "SQLite database directory (default: XDG data directory)")

	// Add subcommands
	cmd.AddCommand(NewFetchCmd())
	cmd.AddCommand(NewProcessCmd())
	cmd.AddCommand(NewGenerateCmd())
	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewScheduleCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
