package dto

import (
	"time"

	"github.com/justthetip/tipledger/internal/domain"
	"github.com/justthetip/tipledger/internal/usecase"
)

// DepositRequest represents a request to credit a gross deposit.
type DepositRequest struct {
	UserID string `json:"user_id"`
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

// ToUseCaseInput converts to use case input.
func (r *DepositRequest) ToUseCaseInput() (usecase.DepositInput, error) {
	asset, err := domain.ParseAsset(r.Asset)
	if err != nil {
		return usecase.DepositInput{}, err
	}

	gross, err := domain.ParsePositiveAmount(r.Amount)
	if err != nil {
		return usecase.DepositInput{}, err
	}

	return usecase.DepositInput{
		UserID: r.UserID,
		Asset:  asset,
		Gross:  gross,
	}, nil
}

// TipRequest represents a tip between two users.
type TipRequest struct {
	FromUserID string `json:"from_user_id"`
	ToUserID   string `json:"to_user_id"`
	Asset      string `json:"asset"`
	Amount     string `json:"amount"`
}

// ToUseCaseInput converts to use case input.
func (r *TipRequest) ToUseCaseInput() (usecase.TipInput, error) {
	asset, err := domain.ParseAsset(r.Asset)
	if err != nil {
		return usecase.TipInput{}, err
	}

	amount, err := domain.ParsePositiveAmount(r.Amount)
	if err != nil {
		return usecase.TipInput{}, err
	}

	return usecase.TipInput{
		FromUserID: r.FromUserID,
		ToUserID:   r.ToUserID,
		Asset:      asset,
		Amount:     amount,
	}, nil
}

// BurnRequest donates a user's entire balance of one asset.
type BurnRequest struct {
	UserID string `json:"user_id"`
	Asset  string `json:"asset"`
}

// CreateAirdropRequest represents a request to fund an airdrop.
type CreateAirdropRequest struct {
	CreatorID        string `json:"creator_id"`
	Asset            string `json:"asset"`
	TotalAmount      string `json:"total_amount"`
	MaxClaimants     int    `json:"max_claimants"`
	ExpiresInSeconds int64  `json:"expires_in_seconds,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAirdropRequest) ToUseCaseInput() (usecase.CreateAirdropInput, error) {
	asset, err := domain.ParseAsset(r.Asset)
	if err != nil {
		return usecase.CreateAirdropInput{}, err
	}

	total, err := domain.ParsePositiveAmount(r.TotalAmount)
	if err != nil {
		return usecase.CreateAirdropInput{}, err
	}

	return usecase.CreateAirdropInput{
		CreatorID:    r.CreatorID,
		Asset:        asset,
		TotalAmount:  total,
		MaxClaimants: r.MaxClaimants,
		ExpiresIn:    time.Duration(r.ExpiresInSeconds) * time.Second,
	}, nil
}

// ClaimAirdropRequest represents a claim attempt.
type ClaimAirdropRequest struct {
	UserID string `json:"user_id"`
}

// WithdrawalRequest represents a withdrawal to the user's registered wallet.
type WithdrawalRequest struct {
	UserID string `json:"user_id"`
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

// ToUseCaseInput converts to use case input.
func (r *WithdrawalRequest) ToUseCaseInput() (usecase.RequestWithdrawalInput, error) {
	asset, err := domain.ParseAsset(r.Asset)
	if err != nil {
		return usecase.RequestWithdrawalInput{}, err
	}

	amount, err := domain.ParsePositiveAmount(r.Amount)
	if err != nil {
		return usecase.RequestWithdrawalInput{}, err
	}

	return usecase.RequestWithdrawalInput{
		UserID: r.UserID,
		Asset:  asset,
		Amount: amount,
	}, nil
}

// RegisterWalletRequest represents a wallet registration.
type RegisterWalletRequest struct {
	UserID  string `json:"user_id"`
	Asset   string `json:"asset"`
	Address string `json:"address"`
}

// ToUseCaseInput converts to use case input.
func (r *RegisterWalletRequest) ToUseCaseInput() (usecase.RegisterWalletInput, error) {
	asset, err := domain.ParseAsset(r.Asset)
	if err != nil {
		return usecase.RegisterWalletInput{}, err
	}

	return usecase.RegisterWalletInput{
		UserID:  r.UserID,
		Asset:   asset,
		Address: r.Address,
	}, nil
}
