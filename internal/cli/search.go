package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/FranksOps/prospect/internal/pipeline"
	"github.com/FranksOps/prospect/internal/report"
	"github.com/FranksOps/prospect/internal/storage"
	"github.com/FranksOps/prospect/internal/storage/csvbackend"
	"github.com/FranksOps/prospect/internal/storage/jsonbackend"
	"github.com/FranksOps/prospect/internal/storage/xlsxbackend"
)

var (
	searchRequirements string
	searchCountry      string
	searchMax          int
	searchOffset       int
	searchEnrich       bool
	searchOut          string
	searchFormat       string
)

var searchCmd = &cobra.Command{
	Use:   "search [terms...]",
	Short: "Run a lead search from the terminal",
	Long: `Search for companies matching the given terms, scrape each candidate
site for contact details, and print or export the resulting records. Without
terms the first default term is used. Records are also persisted to the
configured storage backend.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchRequirements, "requirements", "", "extra qualifiers, e.g. \"solid oak, export ready\"")
	searchCmd.Flags().StringVar(&searchCountry, "country", pipeline.DefaultCountry, "country to scope the query to")
	searchCmd.Flags().IntVar(&searchMax, "max", pipeline.DefaultMaxResults, "maximum companies to produce")
	searchCmd.Flags().IntVar(&searchOffset, "offset", 0, "organic results to skip, for paging")
	searchCmd.Flags().BoolVar(&searchEnrich, "enrich", false, "generate company profiles and LinkedIn lookups")
	searchCmd.Flags().StringVar(&searchOut, "out", "", "write results to this file instead of stdout")
	searchCmd.Flags().StringVar(&searchFormat, "format", "text", "output format: text, csv, json or xlsx")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := validateSearchFormat(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackend(backend, logger)

	p, err := buildPipeline(cfg, backend, logger)
	if err != nil {
		return err
	}

	batch, err := p.Generate(ctx, pipeline.Request{
		Term:         strings.Join(args, " "),
		Requirements: searchRequirements,
		Country:      searchCountry,
		MaxResults:   searchMax,
		Offset:       searchOffset,
		Enrich:       searchEnrich,
	})
	if err != nil {
		return err
	}

	if err := writeCompanies(cmd.OutOrStdout(), batch.Companies); err != nil {
		return err
	}

	logger.Info("search complete",
		"query", batch.Query,
		"companies", len(batch.Companies),
		"next_offset", batch.NextOffset,
		"duration", batch.Duration,
	)
	return nil
}

func validateSearchFormat() error {
	switch searchFormat {
	case "text", "csv", "json":
		return nil
	case "xlsx":
		if searchOut == "" {
			return fmt.Errorf("xlsx output requires --out")
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text, csv, json or xlsx)", searchFormat)
	}
}

// writeCompanies renders companies in the requested format to --out or, for
// the text formats, stdout.
func writeCompanies(stdout io.Writer, companies []*storage.Company) error {
	w := stdout
	if searchOut != "" {
		f, err := os.Create(searchOut)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				logger.Error("failed to close output file", "path", searchOut, "err", err)
			}
		}()
		w = f
	}

	switch searchFormat {
	case "csv":
		return csvbackend.WriteRecords(w, companies)
	case "json":
		return jsonbackend.WriteRecords(w, companies)
	case "xlsx":
		return xlsxbackend.WriteWorkbook(w, companies)
	default:
		return report.WriteText(w, report.GenerateSummary(companies))
	}
}
