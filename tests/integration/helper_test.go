package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	adaptershttp "github.com/justthetip/tipledger/internal/adapter/http"
	"github.com/justthetip/tipledger/internal/adapter/http/handler"
	postgresrepo "github.com/justthetip/tipledger/internal/adapter/repository/postgres"
	"github.com/justthetip/tipledger/internal/adapter/settlement"
	"github.com/justthetip/tipledger/internal/domain"
	"github.com/justthetip/tipledger/internal/usecase"
	"github.com/justthetip/tipledger/tests/testutil"
)

// testEnv wires the full HTTP stack against a real database. Redis-backed
// caching and idempotency are left out so each request hits the ledger.
type testEnv struct {
	router http.Handler
	db     *testutil.TestDB
}

func newTestEnv(t *testing.T, bridgeURL string) *testEnv {
	t.Helper()

	db := testutil.NewTestDB(t)
	t.Cleanup(db.Cleanup)

	pool := db.Pool
	logger := zerolog.Nop()

	txManager := postgresrepo.NewTxManager(pool)
	balanceRepo := postgresrepo.NewBalanceRepository(pool)
	walletRepo := postgresrepo.NewWalletRepository(pool)
	airdropRepo := postgresrepo.NewAirdropRepository(pool)
	historyRepo := postgresrepo.NewHistoryRepository(pool)
	idGen := postgresrepo.NewULIDGenerator()

	feeRate, err := decimal.NewFromString("0.005")
	if err != nil {
		t.Fatalf("failed to parse fee rate: %v", err)
	}
	feePolicy := usecase.FeePolicy{
		Rate:       feeRate,
		Collectors: map[domain.Asset]string{},
	}
	for _, asset := range domain.SupportedAssets() {
		feePolicy.Collectors[asset] = "fee-collector"
	}

	withdrawalAssets := []domain.Asset{domain.AssetSOL, domain.AssetUSDC}
	settlers := settlement.NewRegistry()
	if bridgeURL != "" {
		bridge := settlement.NewBridgeSettler(bridgeURL, nil, logger)
		for _, asset := range withdrawalAssets {
			settlers.Register(asset, bridge)
		}
	}

	ledgerUC := usecase.NewLedgerUseCase(txManager, balanceRepo, historyRepo, idGen, feePolicy, nil, logger)
	airdropUC := usecase.NewAirdropUseCase(txManager, balanceRepo, airdropRepo, historyRepo, idGen, nil, logger)
	withdrawalUC := usecase.NewWithdrawalUseCase(
		txManager, balanceRepo, walletRepo, historyRepo,
		settlers, idGen, withdrawalAssets, 30*time.Second, nil, logger,
	)

	router := adaptershttp.NewRouter(adaptershttp.RouterConfig{
		LedgerHandler:         handler.NewLedgerHandler(ledgerUC, nil, nil),
		AirdropHandler:        handler.NewAirdropHandler(airdropUC),
		WithdrawalHandler:     handler.NewWithdrawalHandler(withdrawalUC),
		WalletHandler:         handler.NewWalletHandler(usecase.NewWalletUseCase(walletRepo)),
		HistoryHandler:        handler.NewHistoryHandler(usecase.NewHistoryUseCase(historyRepo)),
		ReconciliationHandler: handler.NewReconciliationHandler(usecase.NewReconciliationUseCase(balanceRepo, historyRepo)),
		HealthHandler:         &handler.HealthHandler{},
		Logger:                logger,
	})

	return &testEnv{router: router, db: db}
}

func (e *testEnv) post(t *testing.T, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	return rec
}

func (e *testEnv) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	return rec
}

func decodeJSON(t *testing.T, body io.Reader, out any) {
	t.Helper()

	if err := json.NewDecoder(body).Decode(out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

// balanceOf reads one asset balance through the API, "0" when absent.
func (e *testEnv) balanceOf(t *testing.T, userID string, asset domain.Asset) string {
	t.Helper()

	rec := e.get(t, "/api/v1/users/"+userID+"/balances")
	if rec.Code != http.StatusOK {
		t.Fatalf("failed to list balances: status %d body %s", rec.Code, rec.Body.String())
	}

	var balances []struct {
		Asset  string `json:"asset"`
		Amount string `json:"amount"`
	}
	decodeJSON(t, rec.Body, &balances)

	for _, b := range balances {
		if b.Asset == asset.String() {
			return b.Amount
		}
	}

	return "0"
}
