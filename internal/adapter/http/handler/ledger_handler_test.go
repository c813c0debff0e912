package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"github.com/justthetip/tipledger/internal/adapter/http/dto"
	"github.com/justthetip/tipledger/internal/domain"
	"github.com/justthetip/tipledger/internal/usecase"
	"github.com/justthetip/tipledger/internal/usecase/mocks"
)

type ledgerServiceStub struct {
	depositFn      func(ctx context.Context, input usecase.DepositInput) (*usecase.DepositResult, error)
	tipFn          func(ctx context.Context, input usecase.TipInput) error
	burnFn         func(ctx context.Context, userID string, asset domain.Asset) (*usecase.BurnResult, error)
	listBalancesFn func(ctx context.Context, userID string) ([]*domain.Balance, error)
}

func (s *ledgerServiceStub) Deposit(ctx context.Context, input usecase.DepositInput) (*usecase.DepositResult, error) {
	return s.depositFn(ctx, input)
}

func (s *ledgerServiceStub) Tip(ctx context.Context, input usecase.TipInput) error {
	return s.tipFn(ctx, input)
}

func (s *ledgerServiceStub) Burn(ctx context.Context, userID string, asset domain.Asset) (*usecase.BurnResult, error) {
	return s.burnFn(ctx, userID, asset)
}

func (s *ledgerServiceStub) ListBalances(ctx context.Context, userID string) ([]*domain.Balance, error) {
	return s.listBalancesFn(ctx, userID)
}

func mustParseAmount(t *testing.T, s string) domain.Amount {
	t.Helper()

	amount, err := domain.ParseAmount(s)
	if err != nil {
		t.Fatalf("failed to parse amount %q: %v", s, err)
	}

	return amount
}

func TestLedgerHandler_Deposit_Success(t *testing.T) {
	var captured usecase.DepositInput

	h := NewLedgerHandler(&ledgerServiceStub{
		depositFn: func(ctx context.Context, input usecase.DepositInput) (*usecase.DepositResult, error) {
			captured = input
			return &usecase.DepositResult{
				Net:           mustParseAmount(t, "99.5"),
				Fee:           mustParseAmount(t, "0.5"),
				CorrelationID: "corr-1",
			}, nil
		},
	}, nil, nil)

	body, _ := json.Marshal(dto.DepositRequest{UserID: "alice", Asset: "SOL", Amount: "100"})
	req := httptest.NewRequest(http.MethodPost, "/deposits", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Deposit(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body %s", rec.Code, rec.Body.String())
	}

	if captured.UserID != "alice" || captured.Asset != domain.AssetSOL {
		t.Fatalf("expected input to match request, got %+v", captured)
	}

	var resp dto.DepositResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Net != "99.50000000" || resp.Fee != "0.50000000" {
		t.Fatalf("unexpected split: %+v", resp)
	}
}

func TestLedgerHandler_Deposit_InvalidAmount(t *testing.T) {
	h := NewLedgerHandler(&ledgerServiceStub{
		depositFn: func(ctx context.Context, input usecase.DepositInput) (*usecase.DepositResult, error) {
			t.Fatal("Deposit should not be called on invalid amount")
			return nil, nil
		},
	}, nil, nil)

	body, _ := json.Marshal(dto.DepositRequest{UserID: "alice", Asset: "SOL", Amount: "-5"})
	req := httptest.NewRequest(http.MethodPost, "/deposits", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Deposit(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestLedgerHandler_Deposit_StoreUnavailable(t *testing.T) {
	h := NewLedgerHandler(&ledgerServiceStub{
		depositFn: func(ctx context.Context, input usecase.DepositInput) (*usecase.DepositResult, error) {
			return nil, fmt.Errorf("%w: pool exhausted", domain.ErrStoreUnavailable)
		},
	}, nil, nil)

	body, _ := json.Marshal(dto.DepositRequest{UserID: "alice", Asset: "SOL", Amount: "100"})
	req := httptest.NewRequest(http.MethodPost, "/deposits", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Deposit(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestLedgerHandler_Tip_InsufficientBalance(t *testing.T) {
	h := NewLedgerHandler(&ledgerServiceStub{
		tipFn: func(ctx context.Context, input usecase.TipInput) error {
			return domain.ErrInsufficientBalance
		},
	}, nil, nil)

	body, _ := json.Marshal(dto.TipRequest{FromUserID: "a", ToUserID: "b", Asset: "SOL", Amount: "10"})
	req := httptest.NewRequest(http.MethodPost, "/tips", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Tip(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestLedgerHandler_ListBalances_CacheHit(t *testing.T) {
	ctrl := gomock.NewController(t)

	cached, _ := json.Marshal([]dto.BalanceResponse{
		{UserID: "alice", Asset: "SOL", Amount: "5.00000000"},
	})

	cache := mocks.NewMockCache(ctrl)
	cache.EXPECT().Get(gomock.Any(), "balances:alice").Return(cached, nil)

	h := NewLedgerHandler(&ledgerServiceStub{
		listBalancesFn: func(ctx context.Context, userID string) ([]*domain.Balance, error) {
			t.Fatal("ListBalances should not hit the usecase on a cache hit")
			return nil, nil
		},
	}, cache, nil)

	req := httptest.NewRequest(http.MethodGet, "/users/alice/balances", nil)
	req = setChiURLParam(req, "id", "alice")
	rec := httptest.NewRecorder()

	h.ListBalances(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !bytes.Equal(bytes.TrimSpace(rec.Body.Bytes()), cached) {
		t.Fatalf("expected cached payload to be served verbatim, got %s", rec.Body.String())
	}
}

func TestLedgerHandler_ListBalances_CacheMissFillsCache(t *testing.T) {
	ctrl := gomock.NewController(t)

	cache := mocks.NewMockCache(ctrl)
	cache.EXPECT().Get(gomock.Any(), "balances:bob").Return(nil, errors.New("cache miss"))
	cache.EXPECT().Set(gomock.Any(), "balances:bob", gomock.Any(), balanceCacheTTL).Return(nil)

	h := NewLedgerHandler(&ledgerServiceStub{
		listBalancesFn: func(ctx context.Context, userID string) ([]*domain.Balance, error) {
			return []*domain.Balance{
				{UserID: userID, Asset: domain.AssetSOL, Amount: mustParseAmount(t, "2")},
			}, nil
		},
	}, cache, nil)

	req := httptest.NewRequest(http.MethodGet, "/users/bob/balances", nil)
	req = setChiURLParam(req, "id", "bob")
	rec := httptest.NewRecorder()

	h.ListBalances(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp []dto.BalanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 1 || resp[0].Amount != "2.00000000" {
		t.Fatalf("unexpected balances: %+v", resp)
	}
}

func TestLedgerHandler_Tip_InvalidatesBothParties(t *testing.T) {
	ctrl := gomock.NewController(t)

	cache := mocks.NewMockCache(ctrl)
	cache.EXPECT().Delete(gomock.Any(), "balances:a").Return(nil)
	cache.EXPECT().Delete(gomock.Any(), "balances:b").Return(nil)

	h := NewLedgerHandler(&ledgerServiceStub{
		tipFn: func(ctx context.Context, input usecase.TipInput) error { return nil },
	}, cache, nil)

	body, _ := json.Marshal(dto.TipRequest{FromUserID: "a", ToUserID: "b", Asset: "SOL", Amount: "1"})
	req := httptest.NewRequest(http.MethodPost, "/tips", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Tip(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestLedgerHandler_Burn_Success(t *testing.T) {
	h := NewLedgerHandler(&ledgerServiceStub{
		burnFn: func(ctx context.Context, userID string, asset domain.Asset) (*usecase.BurnResult, error) {
			if userID != "carol" || asset != domain.AssetDOGE {
				t.Fatalf("unexpected burn args: %s %s", userID, asset)
			}
			return &usecase.BurnResult{Amount: mustParseAmount(t, "7")}, nil
		},
	}, nil, nil)

	body, _ := json.Marshal(dto.BurnRequest{UserID: "carol", Asset: "DOGE"})
	req := httptest.NewRequest(http.MethodPost, "/burns", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Burn(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp dto.BurnResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Burned != "7.00000000" {
		t.Fatalf("expected burned 7.00000000, got %s", resp.Burned)
	}
}

func setChiURLParam(r *http.Request, key, value string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, &chi.Context{
		URLParams: chi.RouteParams{
			Keys:   []string{key},
			Values: []string{value},
		},
	}))
}
