package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/justthetip/tipledger/internal/adapter/http/handler"
	apimiddleware "github.com/justthetip/tipledger/internal/adapter/http/middleware"
	"github.com/justthetip/tipledger/internal/domain"
	"github.com/justthetip/tipledger/internal/infrastructure/auth"
	"github.com/justthetip/tipledger/internal/usecase"
)

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	rl := apimiddleware.NewRateLimiter(1, 1, nil)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = rl
	}))

	req1 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req1.RemoteAddr = "1.2.3.4:1234"
	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, req1)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req2.RemoteAddr = "1.2.3.4:1234"
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", rec2.Code)
	}
}

func TestNewRouter_IdempotencyMiddlewareInvokesStore(t *testing.T) {
	store := &stubIdempotencyStore{}
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
	}))

	body := `{"user_id":"u1","asset":"SOL","amount":"1.5"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/deposits", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if !store.checkCalled {
		t.Fatalf("expected idempotency store to be used")
	}
}

func TestNewRouter_ReconciliationRequiresOperator(t *testing.T) {
	jwtManager := auth.NewJWTManager("router-secret", time.Minute)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.JWTManager = jwtManager
	}))

	serviceToken, err := jwtManager.Generate("tipbot", auth.RoleService)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	operatorToken, err := jwtManager.Generate("ops-console", auth.RoleOperator)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	testCases := []struct {
		name     string
		token    string
		expected int
	}{
		{name: "no token", token: "", expected: http.StatusUnauthorized},
		{name: "service token", token: serviceToken, expected: http.StatusForbidden},
		{name: "operator token", token: operatorToken, expected: http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/reconciliation", nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tc.expected {
				t.Fatalf("expected status %d, got %d", tc.expected, rec.Code)
			}
		})
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig())

	chiRoutes, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"POST /api/v1/deposits",
		"POST /api/v1/tips",
		"POST /api/v1/burns",
		"POST /api/v1/airdrops/",
		"POST /api/v1/airdrops/{id}/claims",
		"GET /api/v1/airdrops/latest",
		"POST /api/v1/withdrawals",
		"POST /api/v1/wallets",
		"GET /api/v1/users/{id}/balances",
		"GET /api/v1/users/{id}/history",
		"GET /api/v1/reconciliation",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	cfg := RouterConfig{
		LedgerHandler:         handler.NewLedgerHandler(&stubLedgerService{}, nil, nil),
		AirdropHandler:        handler.NewAirdropHandler(&stubAirdropService{}),
		WithdrawalHandler:     handler.NewWithdrawalHandler(&stubWithdrawalService{}),
		WalletHandler:         handler.NewWalletHandler(&stubWalletService{}),
		HistoryHandler:        handler.NewHistoryHandler(&stubHistoryService{}),
		ReconciliationHandler: handler.NewReconciliationHandler(&stubReconciliationService{}),
		HealthHandler:         &handler.HealthHandler{},
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

type stubLedgerService struct{}

func (stubLedgerService) Deposit(ctx context.Context, input usecase.DepositInput) (*usecase.DepositResult, error) {
	return &usecase.DepositResult{}, nil
}

func (stubLedgerService) Tip(ctx context.Context, input usecase.TipInput) error {
	return nil
}

func (stubLedgerService) Burn(ctx context.Context, userID string, asset domain.Asset) (*usecase.BurnResult, error) {
	return &usecase.BurnResult{}, nil
}

func (stubLedgerService) ListBalances(ctx context.Context, userID string) ([]*domain.Balance, error) {
	return []*domain.Balance{}, nil
}

type stubAirdropService struct{}

func (stubAirdropService) CreateAirdrop(ctx context.Context, input usecase.CreateAirdropInput) (*domain.Airdrop, error) {
	return &domain.Airdrop{ID: "drop"}, nil
}

func (stubAirdropService) Claim(ctx context.Context, airdropID, userID string) (*usecase.ClaimOutcome, error) {
	return &usecase.ClaimOutcome{Result: domain.ClaimResultEnded}, nil
}

func (stubAirdropService) GetAirdrop(ctx context.Context, id string) (*domain.Airdrop, error) {
	return &domain.Airdrop{ID: id}, nil
}

func (stubAirdropService) LatestActive(ctx context.Context) (*domain.Airdrop, error) {
	return &domain.Airdrop{ID: "latest"}, nil
}

type stubWithdrawalService struct{}

func (stubWithdrawalService) RequestWithdrawal(ctx context.Context, input usecase.RequestWithdrawalInput) (*domain.WithdrawalReceipt, error) {
	return &domain.WithdrawalReceipt{}, nil
}

type stubWalletService struct{}

func (stubWalletService) RegisterWallet(ctx context.Context, input usecase.RegisterWalletInput) (*domain.WalletRegistration, error) {
	return &domain.WalletRegistration{}, nil
}

func (stubWalletService) GetWallet(ctx context.Context, userID string, asset domain.Asset) (*domain.WalletRegistration, error) {
	return &domain.WalletRegistration{}, nil
}

type stubHistoryService struct{}

func (stubHistoryService) ListHistory(ctx context.Context, input usecase.ListHistoryInput) ([]*domain.HistoryEntry, error) {
	return []*domain.HistoryEntry{}, nil
}

type stubReconciliationService struct{}

func (stubReconciliationService) GenerateReport(ctx context.Context) (*usecase.ReconciliationReport, error) {
	return &usecase.ReconciliationReport{}, nil
}

type stubIdempotencyStore struct {
	checkCalled bool
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.checkCalled = true
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return nil
}
