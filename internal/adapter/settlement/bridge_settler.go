package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/justthetip/tipledger/internal/domain"
	"github.com/justthetip/tipledger/internal/infrastructure/metrics"
)

// BridgeSettler implements usecase.Settler against a per-asset chain bridge:
// an HTTP sidecar holding the hot wallet keys for one network. The ledger
// process never touches key material itself.
type BridgeSettler struct {
	endpoint string
	client   *http.Client
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewBridgeSettler creates a settler for one bridge endpoint. The caller owns
// timeout policy via the context it passes to Send; the embedded client has
// no timeout of its own.
func NewBridgeSettler(endpoint string, m *metrics.Metrics, logger zerolog.Logger) *BridgeSettler {
	return &BridgeSettler{
		endpoint: endpoint,
		client:   &http.Client{},
		metrics:  m,
		logger:   logger,
	}
}

type sendRequest struct {
	Asset       string `json:"asset"`
	Destination string `json:"destination"`
	Amount      string `json:"amount"`
}

type sendResponse struct {
	Reference string `json:"reference"`
	Error     string `json:"error,omitempty"`
}

// Send submits one transfer to the bridge and returns its chain reference.
func (s *BridgeSettler) Send(ctx context.Context, asset domain.Asset, destination string, amount domain.Amount) (string, error) {
	start := time.Now()

	reference, err := s.send(ctx, asset, destination, amount)

	if s.metrics != nil {
		s.metrics.SettlementDuration.Observe(time.Since(start).Seconds())
	}

	if err != nil {
		return "", err
	}

	s.logger.Info().
		Str("asset", asset.String()).
		Str("amount", amount.String()).
		Str("reference", reference).
		Msg("settlement submitted")

	return reference, nil
}

func (s *BridgeSettler) send(ctx context.Context, asset domain.Asset, destination string, amount domain.Amount) (string, error) {
	body, err := json.Marshal(sendRequest{
		Asset:       asset.String(),
		Destination: destination,
		Amount:      amount.String(),
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"/v1/transfers", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("bridge request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("bridge response: %w", err)
	}

	var decoded sendResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("bridge response decode: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if decoded.Error != "" {
			return "", fmt.Errorf("bridge rejected transfer: %s", decoded.Error)
		}

		return "", fmt.Errorf("bridge returned status %d", resp.StatusCode)
	}

	if decoded.Reference == "" {
		return "", fmt.Errorf("bridge returned no transfer reference")
	}

	return decoded.Reference, nil
}
