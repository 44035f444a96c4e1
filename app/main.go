package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grantscout/grantscout/app/api"
	"github.com/grantscout/grantscout/app/cache"
	"github.com/grantscout/grantscout/app/cfg"
	"github.com/grantscout/grantscout/app/database"
	"github.com/grantscout/grantscout/app/search"
	"github.com/grantscout/grantscout/app/sources"
	"github.com/grantscout/grantscout/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting GrantScout server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	// Cache backend: Redis when configured, otherwise the SQLite search_cache
	// table in the main database.
	var store cache.Store
	cacheBackend := "sqlite"
	if appCfg.RedisAddr != "" {
		redisStore, err := cache.NewRedisStore(appCfg.RedisAddr)
		if err != nil {
			slog.Error("Failed to connect to Redis", "addr", appCfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		store = redisStore
		cacheBackend = "redis"
	} else {
		store = cache.NewSQLiteStore(db)
	}
	defer store.Close()
	slog.Info("Cache store initialized", "backend", cacheBackend)

	configCache := sources.NewConfigCache(appCfg.SourcesDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load source configurations", "dir", appCfg.SourcesDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Source configurations loaded", "dir", appCfg.SourcesDir, "count", configCache.GetConfigCount())

	grantRepo := database.NewGrantRepository(db)
	feedSourceRepo := database.NewFeedSourceRepository(db)

	// Register configured RSS sources for fetch-health diagnostics.
	for _, config := range configCache.GetConfigs() {
		if err := feedSourceRepo.UpsertSource(config.Name, config.URL, config.Enabled); err != nil {
			slog.Warn("Failed to register feed source", "source", config.Name, "error", err)
		}
	}

	httpClient := &http.Client{Timeout: time.Duration(appCfg.AdapterTimeout) * time.Second}
	adapterTimeout := time.Duration(appCfg.AdapterTimeout) * time.Second

	grantsGov := sources.NewGrantsGovAdapter(appCfg.GrantsGovURL, httpClient, appCfg.UserAgent, appCfg.PerSourceLimit)
	usaSpending := sources.NewUSASpendingAdapter(appCfg.USASpendingURL, httpClient, appCfg.UserAgent, appCfg.PerSourceLimit)
	nihReporter := sources.NewNIHReporterAdapter(appCfg.NIHURL, httpClient, appCfg.UserAgent, appCfg.PerSourceLimit)
	rss := sources.NewRSSAdapter(configCache, httpClient, appCfg.UserAgent, appCfg.PerSourceLimit,
		time.Duration(appCfg.FeedCacheTTL)*time.Second)
	storeScan := sources.NewStoreScanAdapter(store, appCfg.PerSourceLimit)

	basic := search.NewAggregator([]sources.Adapter{grantsGov, usaSpending, nihReporter},
		adapterTimeout, appCfg.PerSourceLimit)
	enhanced := search.NewAggregator([]sources.Adapter{grantsGov, usaSpending, nihReporter, rss, storeScan},
		adapterTimeout, appCfg.PerSourceLimit)

	searchService := search.NewService(store, basic, enhanced, search.Options{
		MaxResults:  appCfg.MaxResults,
		BasicTTL:    time.Duration(appCfg.SearchCacheTTL) * time.Second,
		EnhancedTTL: time.Duration(appCfg.EnhancedCacheTTL) * time.Second,
	})

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount, "interval", appCfg.SchedulerInterval)
	scheduler := tasks.NewScheduler(store, configCache, rss, feedSourceRepo, grantRepo, httpClient)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(searchService, grantRepo, feedSourceRepo, configCache, rss,
		store, scheduler, cacheBackend)
	server := api.NewServer(handler, appCfg.APIAccessKey, appCfg.Version)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler and stores are stopped via defer.
	slog.Info("Shutdown complete")
}
