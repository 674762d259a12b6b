// cmd/tools/chart-cli/summary.go
package main

import (
	"github.com/spf13/cobra"

	"billing-chart-workers/internal/chart/summary"
)

var summaryFlags struct {
	records string
	recent  int
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the billing summary used to ground conversational answers",
	RunE:  runSummary,
}

func init() {
	summaryCmd.Flags().StringVar(&summaryFlags.records, "records", "", "Path to a JSON or Parquet record file (required)")
	summaryCmd.Flags().IntVar(&summaryFlags.recent, "recent", 5, "Number of most recent records to include")
	_ = summaryCmd.MarkFlagRequired("records")
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	records, err := loadRecords(cmd.Context(), summaryFlags.records)
	if err != nil {
		return err
	}

	result, err := summary.Build(records, newCatalog().PaymentStatuses(), summaryFlags.recent)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), result)
}
