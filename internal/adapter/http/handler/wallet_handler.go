package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/justthetip/tipledger/internal/adapter/http/dto"
	"github.com/justthetip/tipledger/internal/domain"
	"github.com/justthetip/tipledger/internal/usecase"
)

type walletService interface {
	RegisterWallet(ctx context.Context, input usecase.RegisterWalletInput) (*domain.WalletRegistration, error)
	GetWallet(ctx context.Context, userID string, asset domain.Asset) (*domain.WalletRegistration, error)
}

// WalletHandler handles wallet registration requests.
type WalletHandler struct {
	walletUC walletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletUC walletService) *WalletHandler {
	return &WalletHandler{walletUC: walletUC}
}

// Register stores or overwrites a destination address.
func (h *WalletHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid wallet registration", err.Error())
		return
	}

	reg, err := h.walletUC.RegisterWallet(r.Context(), input)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to register wallet", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.WalletFromDomain(reg))
}

// Get retrieves the registered address for (user, asset).
func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing user ID", "")
		return
	}

	asset, err := domain.ParseAsset(r.URL.Query().Get("asset"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid asset", err.Error())
		return
	}

	reg, err := h.walletUC.GetWallet(r.Context(), userID, asset)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get wallet", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.WalletFromDomain(reg))
}
