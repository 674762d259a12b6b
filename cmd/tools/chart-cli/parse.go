// cmd/tools/chart-cli/parse.go
package main

import (
	"github.com/spf13/cobra"

	"billing-chart-workers/internal/chart/fallback"
)

var parseCmd = &cobra.Command{
	Use:   "parse <message>",
	Short: "Build a chart spec with the keyword parser",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	spec, chartErr := fallback.New(newCatalog()).Parse(joinArgs(args))
	if chartErr != nil {
		return writeJSON(cmd.OutOrStdout(), map[string]interface{}{"chartError": chartErr})
	}
	return writeJSON(cmd.OutOrStdout(), map[string]interface{}{"chartSpec": spec})
}
