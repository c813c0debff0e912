package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/justthetip/tipledger/internal/adapter/http/dto"
	"github.com/justthetip/tipledger/internal/domain"
	"github.com/justthetip/tipledger/internal/usecase"
)

type withdrawalService interface {
	RequestWithdrawal(ctx context.Context, input usecase.RequestWithdrawalInput) (*domain.WithdrawalReceipt, error)
}

// WithdrawalHandler handles withdrawal requests.
type WithdrawalHandler struct {
	withdrawalUC withdrawalService
}

// NewWithdrawalHandler creates a new WithdrawalHandler.
func NewWithdrawalHandler(withdrawalUC withdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawalUC: withdrawalUC}
}

// Create runs a withdrawal. A settlement failure still returns 201 with a
// settlement_failed receipt: the debit happened and the caller must see it.
func (h *WithdrawalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.WithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid withdrawal", err.Error())
		return
	}

	receipt, err := h.withdrawalUC.RequestWithdrawal(r.Context(), input)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to withdraw", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.WithdrawalFromReceipt(receipt))
}
