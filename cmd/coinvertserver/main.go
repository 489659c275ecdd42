package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"coinvert/internals/adapter/cache"
	"coinvert/internals/adapter/coingecko"
	"coinvert/internals/adapter/fiatrates"
	"coinvert/internals/adapter/rest"
	"coinvert/internals/api"
	"coinvert/internals/catalog"
	"coinvert/internals/config"
	"coinvert/internals/history"
	"coinvert/internals/logging"
	"coinvert/internals/refdata"
	"coinvert/internals/service"

	log "github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := logging.NewDefault(cfg.LogLevel)
	logger.Info("starting coinvert server")

	fiatREST := rest.New(cfg.RequestTimeout, rest.NewRateLimit(cfg.FiatRateInterval, cfg.FiatRateBurst), logger)
	coinREST := rest.New(cfg.RequestTimeout, rest.NewRateLimit(cfg.CoinRateInterval, cfg.CoinRateBurst), logger)
	fiatAPI := fiatrates.New(fiatREST, cfg.FiatAPIURL, logger)
	coinAPI := coingecko.New(coinREST, cfg.CoinAPIURL, logger)

	tables := refdata.Load(logger)
	builder := catalog.NewBuilder(fiatAPI, coinAPI, tables, logger)

	var (
		store *cache.SnapshotStore
		lock  *cache.RefreshLock
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Invalid REDIS_URL: %v", err)
		}
		client := redis.NewClient(opts)
		store = cache.NewSnapshotStore(client, cfg.SnapshotTTL, logger)
		lock = cache.NewRefreshLock(client, cfg.RefreshLockTTL)
	}

	startCtx := context.Background()
	cat, live := builder.Build(startCtx)
	if store != nil {
		if live {
			if err := store.Save(startCtx, cat); err != nil {
				logger.Warn("storing catalog snapshot", "error", err)
			}
		} else if snap, err := store.Load(startCtx); err == nil {
			logger.Warn("providers degraded, starting from stored catalog snapshot")
			cat = snap
		}
	}
	holder := catalog.NewHolder(cat)

	refreshCtx, stopRefresh := context.WithCancel(context.Background())
	defer stopRefresh()
	if store != nil {
		go catalog.StartBackgroundRefreshWithLock(refreshCtx, cfg.CatalogRefresh, builder, holder, store, lock, logger)
	} else {
		go catalog.StartBackgroundRefresh(refreshCtx, cfg.CatalogRefresh, builder, holder, logger)
	}

	charts := history.New(coinAPI, fiatAPI, logger)
	converter := service.NewConverterService(holder, fiatAPI, coinAPI, charts, tables.Popular, logger)
	handler := api.NewHandler(converter, tables)

	app := fiber.New(fiber.Config{
		AppName:      "Coinvert",
		ErrorHandler: api.ErrorHandler,
	})
	api.SetupRouter(app, handler)

	go func() {
		logger.Info("server listening", "port", cfg.ServerPort)
		if err := app.Listen(":" + cfg.ServerPort); err != nil {
			log.Fatalf("Could not start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")
	stopRefresh()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	logger.Info("server exited gracefully")
}
