package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/sitestock-backend/api/routes"
	"github.com/angelmondragon/sitestock-backend/internal/auth"
	"github.com/angelmondragon/sitestock-backend/internal/buildingsites"
	"github.com/angelmondragon/sitestock-backend/internal/clients"
	"github.com/angelmondragon/sitestock-backend/internal/deliveries"
	"github.com/angelmondragon/sitestock-backend/internal/inventory"
	"github.com/angelmondragon/sitestock-backend/internal/ledger"
	"github.com/angelmondragon/sitestock-backend/internal/users"
	"github.com/angelmondragon/sitestock-backend/pkg/auth/session"
	"github.com/angelmondragon/sitestock-backend/pkg/cnpj"
	"github.com/angelmondragon/sitestock-backend/pkg/config"
	"github.com/angelmondragon/sitestock-backend/pkg/db"
	"github.com/angelmondragon/sitestock-backend/pkg/instance"
	"github.com/angelmondragon/sitestock-backend/pkg/logger"
	"github.com/angelmondragon/sitestock-backend/pkg/metrics"
	"github.com/angelmondragon/sitestock-backend/pkg/migrate"
	"github.com/angelmondragon/sitestock-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT, cfg.Session)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		InviteConfig:   cfg.Invite,
		PublicURL:      cfg.App.PublicURL,
	})
	mustBuild(logg, "auth service", err)

	inventoryRepo := inventory.NewRepository(dbClient.DB())
	inventoryService, err := inventory.NewService(inventory.ServiceParams{
		Repo:     inventoryRepo,
		Cache:    redisClient,
		CacheKey: redisClient.InventoryKey,
		CacheTTL: cfg.Cache.InventoryTTL,
		Logger:   logg,
	})
	mustBuild(logg, "inventory service", err)

	deliveryService, err := deliveries.NewService(deliveries.ServiceParams{
		DB:          dbClient,
		Repo:        deliveries.NewRepository(dbClient.DB()),
		Inventory:   inventoryRepo,
		Invalidator: inventoryService,
		Metrics:     metrics.NewDeliveryMetrics(registry),
		Logger:      logg,
	})
	mustBuild(logg, "delivery service", err)

	registryClient := cnpj.NewClient(
		cfg.CNPJ.Timeout,
		cnpj.WithBaseURL(cfg.CNPJ.BaseURL),
		cnpj.WithCache(redisClient, redisClient.CNPJKey, cfg.CNPJ.CacheTTL),
	)
	clientService, err := clients.NewService(clients.NewRepository(dbClient.DB()), registryClient)
	mustBuild(logg, "client service", err)

	siteService, err := buildingsites.NewService(buildingsites.NewRepository(dbClient.DB()), inventoryService)
	mustBuild(logg, "building site service", err)

	ledgerService, err := ledger.NewService(ledger.NewRepository(dbClient.DB()), logg, nil)
	mustBuild(logg, "ledger service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.ID(),
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Params{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Sessions:      sessionManager,
			HTTPMetrics:   metrics.NewHTTPMetrics(registry),
			Gatherer:      registry,
			Auth:          authService,
			Clients:       clientService,
			BuildingSites: siteService,
			Inventory:     inventoryService,
			Deliveries:    deliveryService,
			Ledger:        ledgerService,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serverErr <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stop:
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

func mustBuild(logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to create "+name, err)
	os.Exit(1)
}
