package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/FranksOps/prospect/internal/metrics"
	"github.com/FranksOps/prospect/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web UI and JSON API",
	Long: `Serve the lead generation UI. Searches run against the configured
Serper API key, results accumulate per session, and the export links stream
spreadsheets of everything collected so far.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
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

	srv, err := web.New(web.Config{
		Addr:    cfg.HTTP.Addr,
		Status:  cfg.Status(),
		Service: p,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	if cfg.Metrics.Addr != "" {
		m := metrics.Start(cfg.Metrics.Addr)
		logger.Info("metrics server listening", "addr", cfg.Metrics.Addr)
		defer func() {
			if err := m.Stop(context.Background()); err != nil {
				logger.Error("failed to stop metrics server", "err", err)
			}
		}()
	}

	status := cfg.Status()
	if !status.Search {
		logger.Warn("SERPER_API_KEY is not set, searches will fail until it is configured")
	}
	if !status.Summaries {
		logger.Info("OPENAI_API_KEY is not set, falling back to extractive summaries")
	}

	return srv.Run(ctx)
}
