package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/retailhub/portal-gateway/api/controllers"
	"github.com/retailhub/portal-gateway/api/routes"
	"github.com/retailhub/portal-gateway/internal/session"
	"github.com/retailhub/portal-gateway/internal/views/admin"
	"github.com/retailhub/portal-gateway/internal/views/csr"
	"github.com/retailhub/portal-gateway/internal/views/logistics"
	"github.com/retailhub/portal-gateway/internal/views/storefront"
	"github.com/retailhub/portal-gateway/internal/views/tenant"
	"github.com/retailhub/portal-gateway/pkg/backend"
	"github.com/retailhub/portal-gateway/pkg/config"
	"github.com/retailhub/portal-gateway/pkg/logger"
	"github.com/retailhub/portal-gateway/pkg/metrics"
	"github.com/retailhub/portal-gateway/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "portal"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "portal",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	// The backend token vault prefers redis so sessions survive restarts;
	// without redis configured the tokens live in process memory.
	var (
		redisClient *redis.Client
		vault       session.TokenVault
	)
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		vault, err = session.NewRedisVault(redisClient, cfg.Session.TokenKeyPrefix)
		if err != nil {
			logg.Error(context.Background(), "failed to create token vault", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "redis not configured, backend tokens held in memory")
		vault = session.NewMemoryVault()
	}

	authClient, err := backend.NewAuthClient(cfg.Backends.Auth)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth client", err)
		os.Exit(1)
	}
	omsClient, err := backend.NewOMSClient(cfg.Backends.OMS)
	if err != nil {
		logg.Error(context.Background(), "failed to create oms client", err)
		os.Exit(1)
	}
	inventoryClient, err := backend.NewInventoryClient(cfg.Backends.Inventory)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory client", err)
		os.Exit(1)
	}
	paymentClient, err := backend.NewPaymentClient(cfg.Backends.Payment)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment client", err)
		os.Exit(1)
	}

	store, err := session.NewStore(session.StoreParams{
		Logger:  logg,
		Auth:    authClient,
		Vault:   vault,
		Session: cfg.Session,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create session store", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	pollerMetrics := metrics.NewPollerMetrics(registry)

	storefrontSvc, err := storefront.NewService(storefront.ServiceParams{
		Logger:         logg,
		Metrics:        pollerMetrics,
		Inventory:      inventoryClient,
		OMS:            omsClient,
		Payment:        paymentClient,
		Tokens:         store,
		PollInterval:   cfg.Poll.StorefrontInterval,
		UnitPrice:      cfg.Cart.UnitPrice(),
		AddFundsAmount: cfg.Cart.AddFundsDefault(),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create storefront service", err)
		os.Exit(1)
	}

	csrSvc, err := csr.NewService(csr.ServiceParams{
		Logger:       logg,
		Metrics:      pollerMetrics,
		OMS:          omsClient,
		Inventory:    inventoryClient,
		Tokens:       store,
		PollInterval: cfg.Poll.DashboardInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create csr console service", err)
		os.Exit(1)
	}

	logisticsSvc, err := logistics.NewService(logistics.ServiceParams{
		Logger:       logg,
		Metrics:      pollerMetrics,
		OMS:          omsClient,
		Tokens:       store,
		PollInterval: cfg.Poll.DashboardInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create logistics console service", err)
		os.Exit(1)
	}

	tenantSvc, err := tenant.NewService(tenant.ServiceParams{
		Logger: logg,
		Auth:   authClient,
		Tokens: store,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create tenant console service", err)
		os.Exit(1)
	}

	adminSvc, err := admin.NewService(admin.ServiceParams{
		Logger:       logg,
		Metrics:      pollerMetrics,
		Auth:         authClient,
		Payment:      paymentClient,
		Tokens:       store,
		PollInterval: cfg.Poll.DashboardInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create admin console service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting portal gateway")

	var pinger controllers.Pinger
	if redisClient != nil {
		pinger = redisClient
	}

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:     cfg,
			Logger:     logg,
			Redis:      pinger,
			Sessions:   store,
			Registrar:  authClient,
			Storefront: storefrontSvc,
			Csr:        csrSvc,
			Logistics:  logisticsSvc,
			Tenant:     tenantSvc,
			Admin:      adminSvc,
			Metrics:    registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "portal gateway stopped unexpectedly", err)
		os.Exit(1)
	}
}
