package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	httpAdapter "github.com/justthetip/tipledger/internal/adapter/http"
	"github.com/justthetip/tipledger/internal/adapter/http/handler"
	"github.com/justthetip/tipledger/internal/adapter/http/middleware"
	postgresRepo "github.com/justthetip/tipledger/internal/adapter/repository/postgres"
	redisRepo "github.com/justthetip/tipledger/internal/adapter/repository/redis"
	"github.com/justthetip/tipledger/internal/adapter/settlement"
	"github.com/justthetip/tipledger/internal/domain"
	"github.com/justthetip/tipledger/internal/infrastructure/auth"
	"github.com/justthetip/tipledger/internal/infrastructure/config"
	"github.com/justthetip/tipledger/internal/infrastructure/eventpublisher"
	"github.com/justthetip/tipledger/internal/infrastructure/logger"
	"github.com/justthetip/tipledger/internal/infrastructure/metrics"
	"github.com/justthetip/tipledger/internal/infrastructure/postgres"
	"github.com/justthetip/tipledger/internal/infrastructure/redis"
	"github.com/justthetip/tipledger/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = appLogger

	feePolicy, err := buildFeePolicy(cfg.FeeRate, cfg.FeeCollectorID)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid fee configuration")
	}

	withdrawalAssets, err := parseAssets(cfg.WithdrawalAssets)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid withdrawal asset configuration")
	}

	m := metrics.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL: cfg.DatabaseURL,
		MaxConns:    cfg.DatabaseMaxConns,
		MinConns:    cfg.DatabaseMinConns,
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

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	balanceRepo := postgresRepo.NewBalanceRepository(pool)
	walletRepo := postgresRepo.NewWalletRepository(pool)
	airdropRepo := postgresRepo.NewAirdropRepository(pool)
	historyRepo := postgresRepo.NewHistoryRepository(pool)
	cache := redisRepo.NewCache(redisClient)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	idGen := postgresRepo.NewULIDGenerator()

	// Settlement bridge, one settler shared by every eligible asset
	settlers := settlement.NewRegistry()
	bridge := settlement.NewBridgeSettler(cfg.BridgeEndpoint, m, appLogger)
	for _, asset := range withdrawalAssets {
		settlers.Register(asset, bridge)
	}

	// Initialize use cases
	ledgerUC := usecase.NewLedgerUseCase(txManager, balanceRepo, historyRepo, idGen, feePolicy, m, appLogger)
	airdropUC := usecase.NewAirdropUseCase(txManager, balanceRepo, airdropRepo, historyRepo, idGen, m, appLogger)
	withdrawalUC := usecase.NewWithdrawalUseCase(
		txManager, balanceRepo, walletRepo, historyRepo,
		settlers, idGen, withdrawalAssets, cfg.SettlementTimeout, m, appLogger,
	)
	walletUC := usecase.NewWalletUseCase(walletRepo)
	historyUC := usecase.NewHistoryUseCase(historyRepo)
	reconciliationUC := usecase.NewReconciliationUseCase(balanceRepo, historyRepo)

	// Background workers
	go airdropUC.RunExpirySweeper(ctx, cfg.AirdropSweepInterval)
	go reportPoolStats(ctx, pool, m)

	startSeq, err := historyRepo.MaxSeq(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read history cursor")
	}
	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		Feed:      historyRepo,
		Publisher: eventpublisher.NewLogPublisher(appLogger),
		Logger:    appLogger,
		StartSeq:  startSeq,
	})
	go func() {
		if err := publisher.Start(ctx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("event publisher stopped")
		}
	}()

	// Optional service-token authentication
	var jwtManager *auth.JWTManager
	if cfg.AuthEnabled && cfg.JWTSecret != "" {
		jwtManager = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	}

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst, m)
	go resetRateLimiter(ctx, rateLimiter)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		LedgerHandler:         handler.NewLedgerHandler(ledgerUC, cache, m),
		AirdropHandler:        handler.NewAirdropHandler(airdropUC),
		WithdrawalHandler:     handler.NewWithdrawalHandler(withdrawalUC),
		WalletHandler:         handler.NewWalletHandler(walletUC),
		HistoryHandler:        handler.NewHistoryHandler(historyUC),
		ReconciliationHandler: handler.NewReconciliationHandler(reconciliationUC),
		HealthHandler:         handler.NewHealthHandler(pool, redisClient),
		JWTManager:            jwtManager,
		IdempotencyStore:      idempotencyStore,
		RateLimiter:           rateLimiter,
		Logger:                appLogger,
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
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// buildFeePolicy parses the configured rate and assigns the collector
// identity to every supported asset.
func buildFeePolicy(rate, collectorID string) (usecase.FeePolicy, error) {
	parsed, err := decimal.NewFromString(rate)
	if err != nil {
		return usecase.FeePolicy{}, fmt.Errorf("invalid fee rate %q: %w", rate, err)
	}
	if parsed.IsNegative() || parsed.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return usecase.FeePolicy{}, fmt.Errorf("fee rate %q out of range [0, 1)", rate)
	}

	collectors := make(map[domain.Asset]string)
	if collectorID != "" {
		for _, asset := range domain.SupportedAssets() {
			collectors[asset] = collectorID
		}
	}

	return usecase.FeePolicy{Rate: parsed, Collectors: collectors}, nil
}

// parseAssets converts configured asset codes, rejecting unknown ones.
func parseAssets(codes []string) ([]domain.Asset, error) {
	assets := make([]domain.Asset, 0, len(codes))
	for _, code := range codes {
		asset, err := domain.ParseAsset(code)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}

	return assets, nil
}

// reportPoolStats feeds the connection gauge until ctx is done.
func reportPoolStats(ctx context.Context, pool *pgxpool.Pool, m *metrics.Metrics) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.DBConnections.Set(float64(pool.Stat().TotalConns()))
		}
	}
}

// resetRateLimiter drops idle per-client buckets until ctx is done.
func resetRateLimiter(ctx context.Context, rl *middleware.RateLimiter) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Reset()
		}
	}
}
