package domain

import (
	"fmt"
	"strings"
)

// Asset is a supported cryptocurrency symbol. The set is closed per
// deployment; anything else is rejected at the boundary before it can reach
// the ledger.
type Asset string

const (
	AssetSOL  Asset = "SOL"
	AssetUSDC Asset = "USDC"
	AssetLTC  Asset = "LTC"
	AssetBTC  Asset = "BTC"
	AssetBCH  Asset = "BCH"
	AssetDOGE Asset = "DOGE"
)

var supportedAssets = map[Asset]bool{
	AssetSOL:  true,
	AssetUSDC: true,
	AssetLTC:  true,
	AssetBTC:  true,
	AssetBCH:  true,
	AssetDOGE: true,
}

// SupportedAssets returns the closed asset set in a stable order.
func SupportedAssets() []Asset {
	return []Asset{AssetSOL, AssetUSDC, AssetLTC, AssetBTC, AssetBCH, AssetDOGE}
}

// ParseAsset validates a raw symbol and returns the canonical Asset.
func ParseAsset(s string) (Asset, error) {
	a := Asset(strings.ToUpper(strings.TrimSpace(s)))
	if !supportedAssets[a] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedAsset, s)
	}

	return a, nil
}

func (a Asset) String() string {
	return string(a)
}
