// cmd/tools/chart-cli/root.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"billing-chart-workers/internal/billing"
	"billing-chart-workers/internal/chart/catalog"
	"billing-chart-workers/internal/common/logger"
	"billing-chart-workers/internal/models"
)

type options struct {
	LogLevel        string
	PaymentStatuses []string
	Pretty          bool
}

var opts options

var rootCmd = &cobra.Command{
	Use:   "chart-cli",
	Short: "Offline tools for the billing chart engine",
	Long: "Runs the classifier, fallback parser, aggregation engine and billing summary " +
		"against local record files, without Zeebe or a language model.",
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.LogLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	pf.StringSliceVar(&opts.PaymentStatuses, "payment-statuses", nil, "Payment status vocabulary (defaults to the built-in set)")
	pf.BoolVar(&opts.Pretty, "pretty", true, "Indent JSON output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() *zap.Logger {
	return logger.New(opts.LogLevel, "console")
}

func newCatalog() *catalog.Catalog {
	if len(opts.PaymentStatuses) == 0 {
		return catalog.Default()
	}
	return catalog.New(opts.PaymentStatuses)
}

func loadRecords(ctx context.Context, path string) ([]models.Record, error) {
	if path == "" {
		return nil, fmt.Errorf("--records is required")
	}
	records, err := billing.NewFileStore(path).FetchAllRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records from %s: %w", path, err)
	}
	return records, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	if opts.Pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
