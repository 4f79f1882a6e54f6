package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/flightdash/internal/model"
	"github.com/nao1215/flightdash/internal/pipeline"
)

// NewFetchCmd creates the fetch command.
func NewFetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Query the flight search API and store the raw response",
		Long: `Fetch reads the search parameters from the query file, calls the
flight search API once and stores the response in data/raw/response.json
together with the fetch time.

The API key is read from RAPIDAPI_KEY. A missing key, a non-2xx answer or
a body that is not JSON fails the command and leaves the previous
response in place.

Examples:
  # Fetch with config/query_params.json
  flightdash fetch

  # Use another query file
  flightdash fetch -q config/del-goi.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStages(cmd, pipeline.StageFetch, func(a *app, _ *model.Run) error {
				fmt.Fprintf(cmd.OutOrStdout(), "Saved raw response to %s\n", a.cfg.RawFile())
				return nil
			})
		},
	}
}
