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

type airdropService interface {
	CreateAirdrop(ctx context.Context, input usecase.CreateAirdropInput) (*domain.Airdrop, error)
	Claim(ctx context.Context, airdropID, userID string) (*usecase.ClaimOutcome, error)
	GetAirdrop(ctx context.Context, id string) (*domain.Airdrop, error)
	LatestActive(ctx context.Context) (*domain.Airdrop, error)
}

// AirdropHandler handles airdrop-related HTTP requests.
type AirdropHandler struct {
	airdropUC airdropService
}

// NewAirdropHandler creates a new AirdropHandler.
func NewAirdropHandler(airdropUC airdropService) *AirdropHandler {
	return &AirdropHandler{airdropUC: airdropUC}
}

// Create funds a new airdrop.
func (h *AirdropHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAirdropRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid airdrop", err.Error())
		return
	}

	airdrop, err := h.airdropUC.CreateAirdrop(r.Context(), input)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create airdrop", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.AirdropFromDomain(airdrop))
}

// Claim attempts to collect one share. The outcome is always 200: claimed,
// already_claimed and ended are all ordinary results, not errors.
func (h *AirdropHandler) Claim(w http.ResponseWriter, r *http.Request) {
	airdropID := chi.URLParam(r, "id")
	if airdropID == "" {
		writeError(w, http.StatusBadRequest, "missing airdrop ID", "")
		return
	}

	var req dto.ClaimAirdropRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "missing user ID", "")
		return
	}

	outcome, err := h.airdropUC.Claim(r.Context(), airdropID, req.UserID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to claim airdrop", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ClaimFromOutcome(outcome))
}

// Get retrieves an airdrop by ID.
func (h *AirdropHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing airdrop ID", "")
		return
	}

	airdrop, err := h.airdropUC.GetAirdrop(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get airdrop", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AirdropFromDomain(airdrop))
}

// Latest returns the most recent open airdrop.
func (h *AirdropHandler) Latest(w http.ResponseWriter, r *http.Request) {
	airdrop, err := h.airdropUC.LatestActive(r.Context())
	if err != nil {
		writeError(w, mapDomainError(err), "no active airdrop", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AirdropFromDomain(airdrop))
}
