package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/nao1215/flightdash/internal/dashboard"
	"github.com/nao1215/flightdash/internal/model"
	"github.com/nao1215/flightdash/internal/pipeline"
)

// NewProcessCmd creates the process command.
func NewProcessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Summarize the raw response and record the minimum price",
		Long: `Process reads data/raw/response.json, extracts the aggregation and the
cheapest offers per stop category and writes data/processed/summary.json.

When the response has a minimum price it is appended to the price
history (CSV or SQLite, see --history).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStages(cmd, pipeline.StageProcess, func(a *app, run *model.Run) error {
				prices := dashboard.NewPriceFormatter(a.cfg.CurrencySymbol, language.English)
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote summary to %s\n", a.cfg.SummaryFile())
				if run.Summary != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Minimum price: %s\n", prices.Format(run.Summary.MinPrice))
				}
				return nil
			})
		},
	}
}
