package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/FranksOps/prospect/internal/storage"
)

var lookupJSON bool

var lookupCmd = &cobra.Command{
	Use:   "lookup <company name>",
	Short: "Research a single company by name",
	Long: `Find a company's official website and LinkedIn page, scrape its site
for contact details, and print the assembled record. The record is also
persisted to the configured storage backend.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLookup,
}

func init() {
	lookupCmd.Flags().BoolVar(&lookupJSON, "json", false, "print the record as JSON")
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
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

	company, err := p.Lookup(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}

	if lookupJSON {
		data, err := json.MarshalIndent(company, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal company: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	printCompany(cmd.OutOrStdout(), company)
	return nil
}

// printCompany renders one record as a plain text card.
func printCompany(w io.Writer, c *storage.Company) {
	fmt.Fprintf(w, "%s\n", c.Name)
	fmt.Fprintf(w, "  Website:  %s\n", orDash(c.Website))
	fmt.Fprintf(w, "  LinkedIn: %s\n", orDash(c.LinkedIn))
	fmt.Fprintf(w, "  Email:    %s\n", orDash(c.Email))
	fmt.Fprintf(w, "  Phone:    %s\n", orDash(c.Phone))
	fmt.Fprintf(w, "  Location: %s\n", orDash(c.Location))
	if len(c.AllEmails) > 1 {
		fmt.Fprintf(w, "  All emails: %s\n", strings.Join(c.AllEmails, ", "))
	}
	if len(c.AllPhones) > 1 {
		fmt.Fprintf(w, "  All phones: %s\n", strings.Join(c.AllPhones, ", "))
	}
	if c.Summary != "" {
		fmt.Fprintf(w, "\n%s\n", c.Summary)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
