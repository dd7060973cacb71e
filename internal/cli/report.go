package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/FranksOps/prospect/internal/report"
	"github.com/FranksOps/prospect/internal/storage"
)

var (
	reportFormat string
	reportOut    string
	reportSource string
	reportLimit  int
	reportSince  time.Duration
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render a report of stored leads",
	Long: `Read company records from the configured storage backend and render
an aggregate report: counts of leads with contact details, a breakdown by
query, and the records themselves.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportFormat, "format", "text", "report format: text, json or html")
	reportCmd.Flags().StringVar(&reportOut, "out", "", "write the report to this file instead of stdout")
	reportCmd.Flags().StringVar(&reportSource, "source", "", "only include records produced by this query")
	reportCmd.Flags().IntVar(&reportLimit, "limit", 0, "maximum records to include (0 = all)")
	reportCmd.Flags().DurationVar(&reportSince, "since", 0, "only include records newer than this age, e.g. 24h")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackend(backend, logger)

	filter := storage.Filter{
		Source: reportSource,
		Limit:  reportLimit,
	}
	if reportSince > 0 {
		since := time.Now().Add(-reportSince)
		filter.Since = &since
	}

	companies, err := backend.Query(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to query storage: %w", err)
	}

	var w io.Writer = cmd.OutOrStdout()
	if reportOut != "" {
		f, err := os.Create(reportOut)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				logger.Error("failed to close report file", "path", reportOut, "err", err)
			}
		}()
		w = f
	}

	summary := report.GenerateSummary(companies)
	switch reportFormat {
	case "text":
		return report.WriteText(w, summary)
	case "json":
		return report.WriteJSON(w, summary)
	case "html":
		return report.WriteHTML(w, summary)
	default:
		return fmt.Errorf("unknown report format %q (want text, json or html)", reportFormat)
	}
}
