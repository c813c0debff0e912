package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/justthetip/tipledger/internal/adapter/http/dto"
	"github.com/justthetip/tipledger/internal/domain"
	"github.com/justthetip/tipledger/internal/usecase"
)

type historyService interface {
	ListHistory(ctx context.Context, input usecase.ListHistoryInput) ([]*domain.HistoryEntry, error)
}

// HistoryHandler serves audit log queries.
type HistoryHandler struct {
	historyUC historyService
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(historyUC historyService) *HistoryHandler {
	return &HistoryHandler{historyUC: historyUC}
}

// ListByUser lists a user's history, most recent first.
func (h *HistoryHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing user ID", "")
		return
	}

	entries, err := h.historyUC.ListHistory(r.Context(), usecase.ListHistoryInput{
		UserID: userID,
		Limit:  parseIntQuery(r, "limit", usecase.DefaultHistoryPageSize),
		Offset: parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list history", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.HistoryFromDomain(entries))
}
