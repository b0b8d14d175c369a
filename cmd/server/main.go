package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/oyal/treasury/internal/adapter/http"
	"github.com/oyal/treasury/internal/adapter/http/handler"
	postgresRepo "github.com/oyal/treasury/internal/adapter/repository/postgres"
	redisRepo "github.com/oyal/treasury/internal/adapter/repository/redis"
	"github.com/oyal/treasury/internal/infrastructure/config"
	"github.com/oyal/treasury/internal/infrastructure/logging"
	"github.com/oyal/treasury/internal/infrastructure/metrics"
	"github.com/oyal/treasury/internal/infrastructure/postgres"
	"github.com/oyal/treasury/internal/infrastructure/redis"
	"github.com/oyal/treasury/internal/usecase"
)

func main() {
	// Setup logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	if cfg.LogFormat != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Packages logging through slog share the same level and format.
	logging.New(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat).SetDefault()

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Run migrations
	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	balanceRepo := postgresRepo.NewBalanceRepository(pool)
	entryRepo := postgresRepo.NewEntryRepository(pool)
	txnRepo := postgresRepo.NewTransactionRepository(pool)
	vtRepo := postgresRepo.NewVaultTransferRepository(pool)
	rateRepo := postgresRepo.NewRateRepository(pool)
	directory := postgresRepo.NewDirectoryRepository(pool)
	sequence := postgresRepo.NewSequenceRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier()
	rateCache := redisRepo.NewCache(redisClient)

	// Initialize use cases
	ledgerUC := usecase.NewLedgerUseCase(txManager, balanceRepo, entryRepo, idGen)
	rateUC := usecase.NewRateUseCase(txManager, rateRepo, directory, idGen, rateCache, usecase.RateConfig{
		IntermediaryCurrency: cfg.RateIntermediary,
		IntermediaryEnabled:  cfg.RateIntermediaryEnabled,
		CacheTTL:             cfg.RateCacheTTL,
	}, m)
	txnUC := usecase.NewTransactionUseCase(txManager, ledgerUC, txnRepo, rateUC, directory, sequence, idGen, retrier, m)
	vtUC := usecase.NewVaultTransferUseCase(txManager, ledgerUC, vtRepo, directory, sequence, idGen, retrier, cfg.ApprovalThreshold, m)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		BalanceHandler:       handler.NewBalanceHandler(ledgerUC),
		TransactionHandler:   handler.NewTransactionHandler(txnUC),
		VaultTransferHandler: handler.NewVaultTransferHandler(vtUC),
		RateHandler:          handler.NewRateHandler(rateUC),
		HealthHandler:        handler.NewHealthHandler(pool, redisClient),
		Logger:               log.Logger,
		Metrics:              m,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
