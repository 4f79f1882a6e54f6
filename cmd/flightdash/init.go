package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/flightdash/internal/config"
)

//go:embed templates/flightdash.yaml templates/query_params.json
var templates embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file and a sample search query",
		Long: `Init creates .flightdash.yaml and config/query_params.json in the
current directory.

The generated files include:
- Default settings for the API, paths, dashboard and schedule
- Commented examples for publishing and SNS price alerts
- A sample Delhi to Mumbai one-way search

Existing files are left alone unless --force is given.

Examples:
  # Create both files in the current directory
  flightdash init

  # Write the settings somewhere else
  flightdash init -o ~/.config/flightdash/config.yaml

  # Force overwrite existing files
  flightdash init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().String("query-output", config.DefaultQueryFile,
		"Output file path for the sample search query")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing files")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	queryPath, err := cmd.Flags().GetString("query-output")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	files := []struct {
		template string
		path     string
	}{
		{"templates/flightdash.yaml", outputPath},
		{"templates/query_params.json", queryPath},
	}

	// Check every target first so nothing is written on conflict.
	if !force {
		for _, f := range files {
			if _, err := os.Stat(f.path); err == nil {
				return fmt.Errorf("file already exists: %s (use -f to overwrite)", f.path)
			}
		}
	}

	out := cmd.OutOrStdout()
	for _, f := range files {
		if err := writeTemplate(f.template, f.path); err != nil {
			return err
		}
		fmt.Fprintf(out, "Created %s\n", f.path)
	}

	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintf(out, "  - Edit %s with your route and travel date\n", queryPath)
	fmt.Fprintf(out, "  - Put RAPIDAPI_KEY=<your key> into .env or the environment\n")
	fmt.Fprintln(out, "  - Run 'flightdash run'")
	return nil
}

func writeTemplate(name, path string) error {
	content, err := templates.ReadFile(name)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}

	// Create parent directories if needed
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, content, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
