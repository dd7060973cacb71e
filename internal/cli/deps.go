package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/FranksOps/prospect/internal/config"
	"github.com/FranksOps/prospect/internal/fingerprint"
	"github.com/FranksOps/prospect/internal/leadfilter"
	"github.com/FranksOps/prospect/internal/pipeline"
	"github.com/FranksOps/prospect/internal/scraper"
	"github.com/FranksOps/prospect/internal/serp"
	"github.com/FranksOps/prospect/internal/storage"
	"github.com/FranksOps/prospect/internal/storage/csvbackend"
	"github.com/FranksOps/prospect/internal/storage/jsonbackend"
	"github.com/FranksOps/prospect/internal/storage/postgres"
	"github.com/FranksOps/prospect/internal/storage/sqlite"
	"github.com/FranksOps/prospect/internal/storage/xlsxbackend"
	"github.com/FranksOps/prospect/internal/summary"
	"github.com/FranksOps/prospect/pkg/proxy"
	"github.com/FranksOps/prospect/pkg/useragent"
)

// buildPipeline assembles the full lead pipeline from cfg. backend may be nil
// when records should not be persisted.
func buildPipeline(cfg *config.Config, backend storage.Backend, logger *slog.Logger) (*pipeline.Pipeline, error) {
	provider, err := serp.NewSerper(serp.SerperConfig{
		APIKey:  cfg.Serper.APIKey,
		BaseURL: cfg.Serper.BaseURL,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create search provider: %w", err)
	}

	fetchCfg := scraper.FetchConfig{
		Timeout:     cfg.Fetch.Timeout,
		Retries:     cfg.Fetch.Retries,
		Fingerprint: fingerprint.Profile(cfg.Fetch.Fingerprint),
		UAPool:      useragent.NewPool(cfg.Fetch.UserAgents),
	}

	if len(cfg.Fetch.Proxies) > 0 || cfg.Fetch.ProxyFile != "" {
		pool := proxy.NewPool(proxy.Config{})
		if err := pool.Add(cfg.Fetch.Proxies...); err != nil {
			return nil, fmt.Errorf("failed to add proxies: %w", err)
		}
		if cfg.Fetch.ProxyFile != "" {
			if err := pool.LoadFile(cfg.Fetch.ProxyFile); err != nil {
				return nil, fmt.Errorf("failed to load proxy file: %w", err)
			}
		}
		logger.Info("proxy rotation enabled", "proxies", pool.Len())
		fetchCfg.ProxyPool = pool
	}

	fetcher, err := scraper.NewFetcher(fetchCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create fetcher: %w", err)
	}

	crawler := scraper.NewCrawler(scraper.SiteConfig{
		RespectRobots:     cfg.Fetch.RespectRobots,
		UseSitemap:        true,
		RequestsPerSecond: cfg.Fetch.RequestsPerSecond,
		Jitter:            0.3,
	}, fetcher, logger)

	summarizer := summary.New(summary.Config{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.Model,
		Logger:  logger,
	})

	filter := leadfilter.New(leadfilter.Config{
		ExtraDomains: cfg.Filter.ExtraDomains,
		ExtraWords:   cfg.Filter.ExtraWords,
	})

	return pipeline.New(pipeline.Config{
		Provider:    provider,
		Crawler:     crawler,
		Filter:      filter,
		Summarizer:  summarizer,
		Fetcher:     fetcher,
		Backend:     backend,
		Concurrency: cfg.Pipeline.Concurrency,
		Logger:      logger,
	})
}

// openBackend opens the record store named by cfg.Storage.
func openBackend(ctx context.Context, cfg *config.Config) (storage.Backend, error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		return sqlite.New(cfg.Storage.DSN)
	case "postgres":
		return postgres.New(ctx, cfg.Storage.DSN)
	case "csv":
		return csvbackend.New(cfg.Storage.DSN)
	case "json":
		return jsonbackend.New(cfg.Storage.DSN)
	case "xlsx":
		return xlsxbackend.New(cfg.Storage.DSN)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// closeBackend closes the store, logging instead of failing since it runs on
// the way out.
func closeBackend(backend storage.Backend, logger *slog.Logger) {
	if err := backend.Close(); err != nil {
		logger.Error("failed to close storage backend", "err", err)
	}
}
