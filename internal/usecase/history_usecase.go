package usecase

import (
	"context"

	"github.com/justthetip/tipledger/internal/domain"
)

// HistoryUseCase serves audit queries over the append-only history log.
type HistoryUseCase struct {
	historyRepo HistoryRepository
}

// NewHistoryUseCase creates a new HistoryUseCase.
func NewHistoryUseCase(historyRepo HistoryRepository) *HistoryUseCase {
	return &HistoryUseCase{historyRepo: historyRepo}
}

// ListHistoryInput represents input for listing a user's history.
type ListHistoryInput struct {
	UserID string
	Limit  int
	Offset int
}

// ListHistory returns a user's entries, most recent first.
func (uc *HistoryUseCase) ListHistory(ctx context.Context, input ListHistoryInput) ([]*domain.HistoryEntry, error) {
	if input.Limit <= 0 {
		input.Limit = DefaultHistoryPageSize
	}

	if input.Limit > MaxHistoryPageSize {
		input.Limit = MaxHistoryPageSize
	}

	if input.Offset < 0 {
		input.Offset = 0
	}

	return uc.historyRepo.ListByUser(ctx, input.UserID, input.Limit, input.Offset)
}
