package main

import (
	"SabhaPay/internal/adapters/audit"
	"SabhaPay/internal/adapters/eventbus"
	"SabhaPay/internal/adapters/httpapi"
	"SabhaPay/internal/adapters/postgres"
	"SabhaPay/internal/adapters/razorpay"
	"SabhaPay/internal/adapters/security"
	"SabhaPay/internal/core/domain"
	"SabhaPay/internal/core/services/activation"
	"SabhaPay/internal/core/services/wizard"
	"SabhaPay/internal/shared/config"
	"SabhaPay/internal/shared/logger"
	"SabhaPay/internal/shared/metrics"
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// 1. Load configuration.
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize logger.
	isDevMode := cfg.AppEnv == "dev"
	baseLogger := logger.New(isDevMode)
	baseLogger.Info().
		Str("app_env", cfg.AppEnv).
		Str("provider_env", cfg.Provider.Environment).
		Msg("Configuration loaded")

	// 3. Metrics registry.
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	m := metrics.New(registry)

	// 4. Security service for field encryption at rest.
	keyBytes, err := hex.DecodeString(cfg.EncryptionKey)
	if err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to decode ENCRYPTION_KEY. It must be hex-encoded.")
	}
	secSvc, err := security.NewAESService(keyBytes, &baseLogger)
	if err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to initialize security service")
	}

	// 5. Database.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDB(ctx, cfg.DatabaseURL, &baseLogger)
	if err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// 6. Repositories.
	communityRepo := postgres.NewCommunityRepository(db, &baseLogger)
	accountRepo := postgres.NewLinkedAccountRepository(db, &baseLogger)
	fieldRepo := postgres.NewKycFieldRepository(db, secSvc, &baseLogger)

	// 7. Provider client and event bus.
	provider := razorpay.NewClient(cfg.Provider, m, &baseLogger)
	bus := eventbus.NewInMemoryEventBus(&baseLogger)
	bus.Subscribe(domain.TopicKycStatusChanged, audit.NewStatusHandler(&baseLogger))

	// 8. Services.
	activationSvc := activation.New(communityRepo, accountRepo, fieldRepo, provider, bus, m, &baseLogger)
	wizardSvc := wizard.New(fieldRepo, &baseLogger)

	// 9. HTTP surface.
	router := chi.NewRouter()
	router.Use(httpapi.RequestID)
	router.Use(httpapi.Logger(baseLogger))
	router.Use(httpapi.Measure(m))
	router.Method("GET", "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	handler := httpapi.NewHandler(activationSvc, wizardSvc, db, &baseLogger)
	handler.Register(router)

	server := httpapi.NewServer(cfg.HTTPAddr, router, &baseLogger)
	baseLogger.Info().Msg("All services initialized successfully")

	if err := server.Start(ctx); err != nil {
		baseLogger.Fatal().Err(err).Msg("HTTP server failed")
	}
	baseLogger.Info().Msg("Shutdown complete")
}
