// cmd/tools/chart-cli/classify.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"billing-chart-workers/internal/chart/intent"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <message>",
	Short: "Report whether a message asks for a chart, and which rule decided",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	message := joinArgs(args)
	if message == "" {
		return fmt.Errorf("message is empty")
	}

	c := intent.Classify(message)
	return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
		"message":        message,
		"isChartRequest": c.IsChartRequest,
		"rule":           c.Rule.String(),
	})
}
