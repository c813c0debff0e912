package domain

import "errors"

var (
	// Validation errors
	ErrInvalidAmount    = errors.New("amount must be a positive decimal with at most 8 fractional digits")
	ErrUnsupportedAsset = errors.New("unsupported asset")
	ErrSameAccount      = errors.New("cannot transfer to same account")

	// Balance errors
	ErrInsufficientBalance = errors.New("insufficient balance")

	// Wallet errors
	ErrNoRegisteredWallet = errors.New("no registered wallet for asset")

	// Airdrop errors
	ErrAirdropNotFound = errors.New("airdrop not found")
	ErrAirdropClosed   = errors.New("airdrop is closed")
	ErrAlreadyClaimed  = errors.New("airdrop already claimed by this user")

	// Infrastructure errors
	ErrStoreUnavailable = errors.New("ledger store unavailable")
)
