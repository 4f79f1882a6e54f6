package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/flightdash/internal/config"
	"github.com/nao1215/flightdash/internal/dashboard"
	"github.com/nao1215/flightdash/internal/model"
	"github.com/nao1215/flightdash/internal/pipeline"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch, process and generate in one go",
		Long: `Run performs a complete update: fetch, process, generate, publish (when
a publish directory is configured) and a price alert (when an SNS topic
and threshold are configured). A failing stage stops the run.

With the sqlite history backend every run, failed or not, is recorded
and can be listed with 'flightdash history --runs'.

--step-summary appends a Markdown report of the run to a file, for
example the job summary of a GitHub Actions workflow.

Examples:
  flightdash run
  flightdash run --publish-dir docs --quiet
  flightdash run --quiet --step-summary "$GITHUB_STEP_SUMMARY"`,
		Args: cobra.NoArgs,
		RunE: runRunCmd,
	}
	addOutputFlags(cmd)
	cmd.Flags().Bool("quiet", false, "Do not print the summary after the run")
	cmd.Flags().String("step-summary", "", "Append a Markdown summary of the run to this file")
	return cmd
}

func runRunCmd(cmd *cobra.Command, _ []string) error {
	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return err
	}

	stepSummary, err := cmd.Flags().GetString("step-summary")
	if err != nil {
		return err
	}

	return runStages(cmd, pipeline.StageAll, func(a *app, run *model.Run) error {
		out := cmd.OutOrStdout()
		if err := writeRunReport(out, stepSummary, quiet, a.view(run)); err != nil {
			return err
		}
		printArtifacts(out, run)
		return nil
	})
}

// writeRunReport prints v to out unless quiet, and appends it as Markdown
// to stepSummary when that is set.
func writeRunReport(out io.Writer, stepSummary string, quiet bool, v *dashboard.View) error {
	var writers []dashboard.Writer
	if !quiet {
		writers = append(writers, dashboard.NewTextWriter(out))
	}

	var f *os.File
	if stepSummary != "" {
		var err error
		f, err = os.OpenFile(stepSummary, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec // user-provided path
		if err != nil {
			return fmt.Errorf("failed to open step summary: %w", err)
		}
		writers = append(writers, dashboard.NewMarkdownWriter(f))
	}
	if len(writers) == 0 {
		return nil
	}

	_, err := dashboard.NewMultiWriter(writers...).Write(v)
	if f != nil {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close step summary: %w", cerr)
		}
	}
	return err
}

// view builds the terminal summary of a finished run.
func (a *app) view(run *model.Run) *dashboard.View {
	loc, _ := a.cfg.Location() //nolint:errcheck // validated by buildConfig

	var query string
	if q, err := config.LoadQuery(a.cfg.QueryFile); err == nil {
		query = q.Pretty()
	}
	in := dashboard.Input{
		Query:          query,
		Summary:        run.Summary,
		History:        run.History,
		GeneratedAt:    run.FinishedAt,
		Location:       loc,
		CurrencySymbol: a.cfg.CurrencySymbol,
		TopPerStop:     a.cfg.TopPerStop,
	}
	if run.Raw != nil {
		in.FetchedAt = run.Raw.Meta.FetchedAt
	}
	return dashboard.NewView(in)
}
