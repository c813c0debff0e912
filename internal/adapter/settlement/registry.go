package settlement

import (
	"github.com/justthetip/tipledger/internal/domain"
	"github.com/justthetip/tipledger/internal/usecase"
)

// Registry implements usecase.SettlerRegistry with a static asset map built
// at startup from configuration.
type Registry struct {
	settlers map[domain.Asset]usecase.Settler
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{settlers: make(map[domain.Asset]usecase.Settler)}
}

// Register binds a settler to an asset, replacing any previous binding.
func (r *Registry) Register(asset domain.Asset, s usecase.Settler) {
	r.settlers[asset] = s
}

// For resolves the settler for an asset.
func (r *Registry) For(asset domain.Asset) (usecase.Settler, bool) {
	s, ok := r.settlers[asset]
	return s, ok
}

// Assets returns the assets with a registered settler.
func (r *Registry) Assets() []domain.Asset {
	assets := make([]domain.Asset, 0, len(r.settlers))
	for _, a := range domain.SupportedAssets() {
		if _, ok := r.settlers[a]; ok {
			assets = append(assets, a)
		}
	}

	return assets
}
