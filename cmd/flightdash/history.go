package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/nao1215/flightdash/internal/dashboard"
	"github.com/nao1215/flightdash/internal/database"
	"github.com/nao1215/flightdash/internal/history"
	"github.com/nao1215/flightdash/internal/model"
)

// errNeedsSQLite is returned by history options that only the SQLite backend supports.
var errNeedsSQLite = errors.New("requires the sqlite history backend (--history sqlite)")

var errRunNotFound = errors.New("run not found")

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the recorded price history",
		Long: `History prints the recorded minimum prices, newest first.

With the sqlite backend it can also list past runs (--runs), show one
run in detail (--run) and import an existing price_log.csv (--import), so
a CSV history can be moved to SQLite without losing points.

Examples:
  # Last 20 price points
  flightdash history -n 20

  # Last 10 runs with their outcome
  flightdash history --history sqlite --runs 10

  # Steps, artifacts and error of one run
  flightdash history --history sqlite --run 0b6f3c2e-8d1a-4f5e-9c7b-2a4d6e8f0a1c

  # Move the CSV history into SQLite
  flightdash history --history sqlite --import data/history/price_log.csv`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 0, "Show at most this many entries (0 shows all)")
	cmd.Flags().Int("runs", 0, "List this many recent runs instead of price points (sqlite only)")
	cmd.Flags().String("run", "", "Show the run with this ID (sqlite only)")
	cmd.Flags().String("import", "", "Import a price_log.csv into the database (sqlite only)")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	runs, err := cmd.Flags().GetInt("runs")
	if err != nil {
		return err
	}
	runID, err := cmd.Flags().GetString("run")
	if err != nil {
		return err
	}
	importPath, err := cmd.Flags().GetString("import")
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signalContext(cmd)
	defer stop()

	out := cmd.OutOrStdout()
	loc, err := a.cfg.Location()
	if err != nil {
		return err
	}
	prices := dashboard.NewPriceFormatter(a.cfg.CurrencySymbol, language.English)

	switch {
	case importPath != "":
		if a.db == nil {
			return fmt.Errorf("--import %w", errNeedsSQLite)
		}
		points, err := readCSVFile(importPath)
		if err != nil {
			return err
		}
		n, err := a.db.ImportHistory(ctx, points)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Imported %d of %d price points into %s\n", n, len(points), a.db.Path())
		return nil

	case runID != "":
		if a.db == nil {
			return fmt.Errorf("--run %w", errNeedsSQLite)
		}
		run, err := a.db.GetRun(ctx, runID)
		if err != nil {
			return err
		}
		if run == nil {
			return fmt.Errorf("%w: %s", errRunNotFound, runID)
		}
		return writeRun(out, run, loc, prices)

	case runs > 0:
		if a.db == nil {
			return fmt.Errorf("--runs %w", errNeedsSQLite)
		}
		records, err := a.db.ListRuns(ctx, runs)
		if err != nil {
			return err
		}
		return writeRuns(out, records, loc, prices)
	}

	points, err := a.history.List(ctx)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		fmt.Fprintln(out, "No price history recorded yet")
		return nil
	}
	return writePoints(out, points, limit, loc, prices)
}

func readCSVFile(path string) ([]model.PricePoint, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided import path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("history file not found: %s", path)
		}
		return nil, err
	}
	defer f.Close()
	return history.ReadCSV(f)
}

// writePoints prints points newest first, with the change to the previous point.
func writePoints(w io.Writer, points []model.PricePoint, limit int, loc *time.Location, prices *dashboard.PriceFormatter) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RECORDED\tMIN PRICE\tCHANGE")

	shown := 0
	for i := len(points) - 1; i >= 0; i-- {
		if limit > 0 && shown == limit {
			break
		}
		p := points[i]
		change := "-"
		if i > 0 {
			change = priceChange(p.MinPrice-points[i-1].MinPrice, prices)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n",
			p.RecordedAt.In(loc).Format(dashboard.TimestampLayout),
			prices.FormatInt(p.MinPrice),
			change)
		shown++
	}

	if lowest, ok := model.LowestPrice(points); ok {
		fmt.Fprintf(tw, "\nLowest\t%s\t\n", prices.FormatInt(lowest))
	}
	return tw.Flush()
}

func priceChange(delta int64, prices *dashboard.PriceFormatter) string {
	switch {
	case delta > 0:
		return "+" + prices.FormatInt(delta)
	case delta < 0:
		return "-" + prices.FormatInt(-delta)
	default:
		return "0"
	}
}

func writeRuns(w io.Writer, records []database.RunRecord, loc *time.Location, prices *dashboard.PriceFormatter) error {
	if len(records) == 0 {
		fmt.Fprintln(w, "No runs recorded yet")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tSTATUS\tMIN PRICE\tDURATION\tID\tERROR")
	for _, r := range records {
		duration := "-"
		if !r.FinishedAt.IsZero() {
			duration = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.StartedAt.In(loc).Format(dashboard.TimestampLayout),
			r.Status,
			prices.Format(r.MinPrice),
			duration,
			r.ID,
			r.Error)
	}
	return tw.Flush()
}

// writeRun prints the details of one recorded run.
func writeRun(w io.Writer, run *model.Run, loc *time.Location, prices *dashboard.PriceFormatter) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", run.ID)
	fmt.Fprintf(tw, "Status:\t%s\n", run.Status)
	fmt.Fprintf(tw, "Started:\t%s\n", run.StartedAt.In(loc).Format(dashboard.TimestampLayout))
	if !run.FinishedAt.IsZero() {
		fmt.Fprintf(tw, "Finished:\t%s (%s)\n",
			run.FinishedAt.In(loc).Format(dashboard.TimestampLayout),
			run.FinishedAt.Sub(run.StartedAt).Round(time.Second))
	}

	var minPrice *int64
	if run.Summary != nil {
		minPrice = run.Summary.MinPrice
	}
	fmt.Fprintf(tw, "Min price:\t%s\n", prices.Format(minPrice))

	steps := "-"
	if len(run.PerformedSteps) > 0 {
		steps = strings.Join(run.PerformedSteps, ", ")
	}
	fmt.Fprintf(tw, "Steps:\t%s\n", steps)
	if run.ErrorMessage != "" {
		fmt.Fprintf(tw, "Error:\t%s\n", run.ErrorMessage)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(run.Artifacts) > 0 {
		fmt.Fprintln(w, "Artifacts:")
		for _, a := range run.Artifacts {
			fmt.Fprintf(w, "  %s\n", a)
		}
	}
	return nil
}
