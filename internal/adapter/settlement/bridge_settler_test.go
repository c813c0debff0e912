package settlement

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/justthetip/tipledger/internal/domain"
)

func testAmount(t *testing.T, s string) domain.Amount {
	t.Helper()

	a, err := domain.ParseAmount(s)
	if err != nil {
		t.Fatalf("parse amount %q: %v", s, err)
	}

	return a
}

func TestBridgeSettlerSend(t *testing.T) {
	var gotBody sendRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/transfers" {
			t.Errorf("path = %s, want /v1/transfers", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}

		_ = json.NewEncoder(w).Encode(sendResponse{Reference: "sig-abc"})
	}))
	defer srv.Close()

	settler := NewBridgeSettler(srv.URL, nil, zerolog.Nop())

	ref, err := settler.Send(context.Background(), domain.AssetSOL, "dest-addr", testAmount(t, "1.50000000"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ref != "sig-abc" {
		t.Errorf("reference = %s, want sig-abc", ref)
	}
	if gotBody.Asset != "SOL" || gotBody.Destination != "dest-addr" || gotBody.Amount != "1.50000000" {
		t.Errorf("unexpected request body: %+v", gotBody)
	}
}

func TestBridgeSettlerSendErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr string
	}{
		{
			name: "bridge rejects",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
				_ = json.NewEncoder(w).Encode(sendResponse{Error: "insufficient hot wallet funds"})
			},
			wantErr: "insufficient hot wallet funds",
		},
		{
			name: "bridge error without detail",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte("{}"))
			},
			wantErr: "status 500",
		},
		{
			name: "missing reference",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("{}"))
			},
			wantErr: "no transfer reference",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			settler := NewBridgeSettler(srv.URL, nil, zerolog.Nop())

			_, err := settler.Send(context.Background(), domain.AssetSOL, "dest", testAmount(t, "1.00000000"))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestBridgeSettlerHonorsContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The body must be drained before blocking, or the server never
		// notices the client disconnect and Close waits on this handler.
		_, _ = io.Copy(io.Discard, r.Body)
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	settler := NewBridgeSettler(srv.URL, nil, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := settler.Send(ctx, domain.AssetSOL, "dest", testAmount(t, "1.00000000"))
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()
	settler := NewBridgeSettler("http://localhost:0", nil, zerolog.Nop())

	registry.Register(domain.AssetSOL, settler)
	registry.Register(domain.AssetLTC, settler)

	if _, ok := registry.For(domain.AssetSOL); !ok {
		t.Error("SOL settler not found")
	}
	if _, ok := registry.For(domain.AssetBTC); ok {
		t.Error("BTC settler should not exist")
	}

	assets := registry.Assets()
	if len(assets) != 2 {
		t.Fatalf("expected 2 registered assets, got %d", len(assets))
	}
}
