package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/justthetip/tipledger/internal/domain"
)

// WalletUseCase manages advisory wallet registrations.
type WalletUseCase struct {
	walletRepo WalletRepository
}

// NewWalletUseCase creates a new WalletUseCase.
func NewWalletUseCase(walletRepo WalletRepository) *WalletUseCase {
	return &WalletUseCase{walletRepo: walletRepo}
}

// RegisterWalletInput describes a wallet registration.
type RegisterWalletInput struct {
	UserID  string
	Asset   domain.Asset
	Address string
}

// RegisterWallet stores or overwrites the destination address for
// (user, asset). The address is reference metadata only; chain-level format
// validation belongs to the settlement collaborator.
func (uc *WalletUseCase) RegisterWallet(ctx context.Context, input RegisterWalletInput) (*domain.WalletRegistration, error) {
	address := strings.TrimSpace(input.Address)
	if address == "" {
		return nil, domain.ErrNoRegisteredWallet
	}

	now := time.Now().UTC()
	reg := &domain.WalletRegistration{
		UserID:    input.UserID,
		Asset:     input.Asset,
		Address:   address,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.walletRepo.Upsert(ctx, reg); err != nil {
		return nil, err
	}

	return reg, nil
}

// GetWallet returns the registered address for (user, asset).
func (uc *WalletUseCase) GetWallet(ctx context.Context, userID string, asset domain.Asset) (*domain.WalletRegistration, error) {
	return uc.walletRepo.Get(ctx, userID, asset)
}
