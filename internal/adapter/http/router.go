package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/justthetip/tipledger/internal/adapter/http/handler"
	"github.com/justthetip/tipledger/internal/adapter/http/middleware"
	"github.com/justthetip/tipledger/internal/infrastructure/auth"
	"github.com/justthetip/tipledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	LedgerHandler         *handler.LedgerHandler
	AirdropHandler        *handler.AirdropHandler
	WithdrawalHandler     *handler.WithdrawalHandler
	WalletHandler         *handler.WalletHandler
	HistoryHandler        *handler.HistoryHandler
	ReconciliationHandler *handler.ReconciliationHandler
	HealthHandler         *handler.HealthHandler

	JWTManager       *auth.JWTManager
	IdempotencyStore usecase.IdempotencyStore
	RateLimiter      *middleware.RateLimiter
	Logger           zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics)
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health and metrics endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.JWTManager != nil {
			r.Use(middleware.AuthMiddleware(cfg.JWTManager))
		}

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Ledger operations
		r.Post("/deposits", cfg.LedgerHandler.Deposit)
		r.Post("/tips", cfg.LedgerHandler.Tip)
		r.Post("/burns", cfg.LedgerHandler.Burn)

		// Airdrops
		r.Route("/airdrops", func(r chi.Router) {
			r.Post("/", cfg.AirdropHandler.Create)
			r.Get("/latest", cfg.AirdropHandler.Latest)
			r.Get("/{id}", cfg.AirdropHandler.Get)
			r.Post("/{id}/claims", cfg.AirdropHandler.Claim)
		})

		// Withdrawals
		r.Post("/withdrawals", cfg.WithdrawalHandler.Create)

		// Wallets
		r.Post("/wallets", cfg.WalletHandler.Register)

		// Per-user reads
		r.Route("/users/{id}", func(r chi.Router) {
			r.Get("/balances", cfg.LedgerHandler.ListBalances)
			r.Get("/history", cfg.HistoryHandler.ListByUser)
			r.Get("/wallet", cfg.WalletHandler.Get)
		})

		// Reconciliation is operator-only
		r.Group(func(r chi.Router) {
			if cfg.JWTManager != nil {
				r.Use(middleware.RequireRole(auth.RoleOperator))
			}
			r.Get("/reconciliation", cfg.ReconciliationHandler.Report)
		})
	})

	return r
}
