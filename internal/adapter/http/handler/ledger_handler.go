package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/justthetip/tipledger/internal/adapter/http/dto"
	"github.com/justthetip/tipledger/internal/domain"
	"github.com/justthetip/tipledger/internal/infrastructure/metrics"
	"github.com/justthetip/tipledger/internal/usecase"
)

// ledgerService is the slice of LedgerUseCase the handler depends on.
type ledgerService interface {
	Deposit(ctx context.Context, input usecase.DepositInput) (*usecase.DepositResult, error)
	Tip(ctx context.Context, input usecase.TipInput) error
	Burn(ctx context.Context, userID string, asset domain.Asset) (*usecase.BurnResult, error)
	ListBalances(ctx context.Context, userID string) ([]*domain.Balance, error)
}

const balanceCacheTTL = 5 * time.Second

// LedgerHandler handles deposit, tip, burn and balance requests.
type LedgerHandler struct {
	ledgerUC ledgerService
	cache    usecase.Cache
	metrics  *metrics.Metrics
}

// NewLedgerHandler creates a new LedgerHandler. cache and m may be nil.
func NewLedgerHandler(ledgerUC ledgerService, cache usecase.Cache, m *metrics.Metrics) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC, cache: cache, metrics: m}
}

// Deposit credits a gross deposit with the fee split.
func (h *LedgerHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req dto.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid deposit", err.Error())
		return
	}

	result, err := h.ledgerUC.Deposit(r.Context(), input)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to credit deposit", err.Error())
		return
	}

	h.invalidateBalances(r.Context(), input.UserID)

	writeJSON(w, http.StatusCreated, dto.DepositFromResult(result))
}

// Tip transfers between two users.
func (h *LedgerHandler) Tip(w http.ResponseWriter, r *http.Request) {
	var req dto.TipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tip", err.Error())
		return
	}

	if err := h.ledgerUC.Tip(r.Context(), input); err != nil {
		writeError(w, mapDomainError(err), "failed to tip", err.Error())
		return
	}

	h.invalidateBalances(r.Context(), input.FromUserID)
	h.invalidateBalances(r.Context(), input.ToUserID)

	writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

// Burn donates the user's entire balance of an asset to the fee collector.
func (h *LedgerHandler) Burn(w http.ResponseWriter, r *http.Request) {
	var req dto.BurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	asset, err := domain.ParseAsset(req.Asset)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid asset", err.Error())
		return
	}

	result, err := h.ledgerUC.Burn(r.Context(), req.UserID, asset)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to burn", err.Error())
		return
	}

	h.invalidateBalances(r.Context(), req.UserID)

	writeJSON(w, http.StatusCreated, dto.BurnResponse{Burned: result.Amount.String()})
}

// ListBalances returns every balance for a user, served from cache when warm.
func (h *LedgerHandler) ListBalances(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing user ID", "")
		return
	}

	if h.cache != nil {
		if cached, err := h.cache.Get(r.Context(), balancesCacheKey(userID)); err == nil {
			if h.metrics != nil {
				h.metrics.CacheHits.Inc()
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(cached)

			return
		}

		if h.metrics != nil {
			h.metrics.CacheMisses.Inc()
		}
	}

	balances, err := h.ledgerUC.ListBalances(r.Context(), userID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list balances", err.Error())
		return
	}

	resp := dto.BalancesFromDomain(balances)

	if h.cache != nil {
		if encoded, err := json.Marshal(resp); err == nil {
			_ = h.cache.Set(r.Context(), balancesCacheKey(userID), encoded, balanceCacheTTL)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *LedgerHandler) invalidateBalances(ctx context.Context, userID string) {
	if h.cache != nil {
		_ = h.cache.Delete(ctx, balancesCacheKey(userID))
	}
}

func balancesCacheKey(userID string) string {
	return "balances:" + userID
}
