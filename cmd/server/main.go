package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/marketrank/sctr-server/internal/cache"
	"github.com/marketrank/sctr-server/internal/clients/pricehist"
	"github.com/marketrank/sctr-server/internal/clients/rankfeed"
	"github.com/marketrank/sctr-server/internal/config"
	"github.com/marketrank/sctr-server/internal/jobs"
	"github.com/marketrank/sctr-server/internal/modules/classify"
	"github.com/marketrank/sctr-server/internal/modules/enrich"
	"github.com/marketrank/sctr-server/internal/modules/peerstats"
	"github.com/marketrank/sctr-server/internal/modules/trend"
	"github.com/marketrank/sctr-server/internal/scheduler"
	"github.com/marketrank/sctr-server/internal/server"
	"github.com/marketrank/sctr-server/pkg/logger"
)

func main() {
	// Bootstrap logger; reconfigured below once config is loaded
	log := logger.New(logger.Config{
		Level:  "info",
		Pretty: true,
	})

	log.Info().Msg("Starting SCTR server")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log = logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	// Shared outbound HTTP client. The browser user agent keeps the
	// quote page backend from serving the bot variant of the page.
	httpClient := resty.New().
		SetTimeout(cfg.HTTPTimeout).
		SetHeader("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")

	// Cache namespaces, one file each under the cache dir.
	cacheOpts := func(ttl time.Duration) cache.Options {
		return cache.Options{
			Dir:         cfg.CacheDir,
			TTL:         ttl,
			NegativeTTL: cfg.NegativeTTL,
			FlushEvery:  cfg.CacheFlushEvery,
		}
	}

	quotePageCache := cache.New[classify.Classification]("industry_quotepage", cacheOpts(cfg.ClassificationTTL), log)
	profileCache := cache.New[classify.Classification]("industry_profileapi", cacheOpts(cfg.ClassificationTTL), log)
	priceCache := cache.New[[]pricehist.ClosePoint]("price_history", cacheOpts(cfg.PriceTTL), log)
	trendCache := cache.New[trend.Result]("industry_trend", cacheOpts(cfg.PriceTTL), log)

	caches := []cache.Store{quotePageCache, profileCache, priceCache, trendCache}

	// Upstream clients
	feed := rankfeed.NewClient(httpClient, cfg.RankFeedURL, log)
	prices := pricehist.NewClient(httpClient, priceCache, cfg.PriceHistoryURL, cfg.PriceLookbackRange, log)

	// Classification providers
	quotePage := classify.NewQuotePageProvider(httpClient, quotePageCache, cfg.QuotePageURL, cfg.ScrapeDelay, log)
	profileAPI := classify.NewProfileAPIProvider(httpClient, profileCache, cfg.ProfileAPIURL, cfg.ProfileFanOut, cfg.ProfileBatchDelay, log)
	registry := classify.NewRegistry(quotePage, profileAPI)

	// Enrichment engines
	peers := peerstats.NewEngine(log)
	trends := trend.NewEngine(prices, trendCache, cfg.TrendTimeout, cfg.BasketDelay, cfg.BasketMaxSampled, log)
	orchestrator := enrich.NewOrchestrator(feed, registry, peers, trends, log)

	// Initialize scheduler
	sched := scheduler.New(log)
	sched.Start()
	defer sched.Stop()

	// Register background jobs. Run maintenance once up front so a
	// cache dir full of stale entries from a previous run is swept
	// before the first request.
	maintenance := jobs.NewCacheMaintenance(caches, log)
	if err := sched.AddJob("@every 5m", maintenance); err != nil {
		log.Fatal().Err(err).Msg("Failed to register jobs")
	}
	if err := sched.RunNow(maintenance); err != nil {
		log.Warn().Err(err).Msg("Initial cache maintenance failed")
	}

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:     cfg.Port,
		Log:      log,
		Enricher: orchestrator,
		Caches:   caches,
		DevMode:  cfg.DevMode,
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Persist whatever the caches buffered since the last flush.
	for _, c := range caches {
		c.Flush()
	}

	log.Info().Msg("Server stopped")
}
