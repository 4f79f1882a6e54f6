package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nao1215/flightdash/internal/model"
	"github.com/nao1215/flightdash/internal/pipeline"
)

// NewGenerateCmd creates the generate command.
func NewGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Render the dashboard from the processed summary",
		Long: `Generate renders dashboard/index.html from data/processed/summary.json,
the price history and the query file. A missing summary renders an
empty dashboard rather than failing.

With --publish-dir the dashboard is also copied to a directory ready for
static hosting, such as docs/ for GitHub Pages.

Examples:
  # Render dashboard/index.html
  flightdash generate

  # Also write summary.md and dashboard.json, then publish to docs/
  flightdash generate --markdown --json --publish-dir docs`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStages(cmd, pipeline.StageRender|pipeline.StagePublish, func(_ *app, run *model.Run) error {
				printArtifacts(cmd.OutOrStdout(), run)
				return nil
			})
		},
	}
	addOutputFlags(cmd)
	return cmd
}

// addOutputFlags adds the flags selecting extra dashboard outputs.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("markdown", "m", false, "Also write summary.md")
	cmd.Flags().BoolP("json", "j", false, "Also write dashboard.json")
	cmd.Flags().StringP("publish-dir", "p", "", "Copy the dashboard to this directory after rendering")
}

// printArtifacts lists the files a run wrote.
func printArtifacts(w io.Writer, run *model.Run) {
	for _, path := range run.Artifacts {
		fmt.Fprintf(w, "Wrote %s\n", path)
	}
}
