// cmd/tools/chart-cli/convert.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"billing-chart-workers/internal/billing"
)

var convertFlags struct {
	records string
	out     string
}

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a JSON record export into a Parquet file",
	RunE:  runConvert,
}

func init() {
	convertCmd.Flags().StringVar(&convertFlags.records, "records", "", "Path to the source record file (required)")
	convertCmd.Flags().StringVar(&convertFlags.out, "out", "", "Path of the Parquet file to write (required)")
	_ = convertCmd.MarkFlagRequired("records")
	_ = convertCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	log := newLogger()
	defer func() { _ = log.Sync() }()

	records, err := loadRecords(cmd.Context(), convertFlags.records)
	if err != nil {
		return err
	}
	if err := billing.WriteParquet(convertFlags.out, records); err != nil {
		return fmt.Errorf("write %s: %w", convertFlags.out, err)
	}

	log.Info("parquet written", zap.Int("records", len(records)), zap.String("path", convertFlags.out))
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d records to %s\n", len(records), convertFlags.out)
	return nil
}
