// cmd/tools/chart-cli/aggregate.go
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"billing-chart-workers/internal/chart/aggregate"
	"billing-chart-workers/internal/chart/assistant"
	"billing-chart-workers/internal/chart/catalog"
	"billing-chart-workers/internal/chart/fallback"
	"billing-chart-workers/internal/chart/validate"
	"billing-chart-workers/internal/models"
)

var aggregateFlags struct {
	records string
	spec    string
	message string
}

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Validate a chart spec and aggregate records into a chart",
	Long: "Reads records from a JSON or Parquet file and a chart spec from --spec, " +
		"or builds the spec from --message with the keyword parser.",
	RunE: runAggregate,
}

func init() {
	f := aggregateCmd.Flags()
	f.StringVar(&aggregateFlags.records, "records", "", "Path to a JSON or Parquet record file (required)")
	f.StringVar(&aggregateFlags.spec, "spec", "", "Path to a chart spec JSON file")
	f.StringVar(&aggregateFlags.message, "message", "", "Chart request to parse instead of --spec")
	_ = aggregateCmd.MarkFlagRequired("records")
	aggregateCmd.MarkFlagsMutuallyExclusive("spec", "message")
	rootCmd.AddCommand(aggregateCmd)
}

func runAggregate(cmd *cobra.Command, args []string) error {
	log := newLogger()
	defer func() { _ = log.Sync() }()

	c := newCatalog()

	spec, chartErr, err := resolveSpec(c)
	if err != nil {
		return err
	}
	if chartErr != nil {
		return writeJSON(cmd.OutOrStdout(), map[string]interface{}{"chartError": chartErr})
	}

	records, err := loadRecords(cmd.Context(), aggregateFlags.records)
	if err != nil {
		return err
	}
	log.Info("records loaded", zap.Int("count", len(records)), zap.String("path", aggregateFlags.records))

	bundle, chartErr, err := assistant.RenderChart(validate.New(c), aggregate.New(c), spec, records)
	if err != nil {
		return err
	}
	if chartErr != nil {
		return writeJSON(cmd.OutOrStdout(), map[string]interface{}{"chartSpec": spec, "chartError": chartErr})
	}

	return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
		"chartSpec": spec,
		"chart":     bundle,
		"total":     aggregate.Total(&bundle.Series),
		"summary":   aggregate.Describe(&bundle.Series),
	})
}

func resolveSpec(c *catalog.Catalog) (*models.ChartSpec, *models.ChartError, error) {
	if aggregateFlags.message != "" {
		spec, chartErr := fallback.New(c).Parse(aggregateFlags.message)
		return spec, chartErr, nil
	}
	if aggregateFlags.spec == "" {
		return nil, nil, fmt.Errorf("one of --spec or --message is required")
	}

	data, err := os.ReadFile(aggregateFlags.spec)
	if err != nil {
		return nil, nil, fmt.Errorf("read spec: %w", err)
	}
	var spec models.ChartSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, nil, fmt.Errorf("decode spec %s: %w", aggregateFlags.spec, err)
	}
	return &spec, nil, nil
}
