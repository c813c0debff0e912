package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger operations
	DepositsProcessed prometheus.Counter
	TipsProcessed     prometheus.Counter
	BurnsProcessed    prometheus.Counter
	FeeCreditFailures prometheus.Counter

	// Airdrops
	AirdropsCreated prometheus.Counter
	AirdropClaims   *prometheus.CounterVec
	AirdropsSwept   prometheus.Counter

	// Withdrawals
	Withdrawals        *prometheus.CounterVec
	SettlementDuration prometheus.Histogram

	// Database metrics
	DBConnections prometheus.Gauge

	// Redis metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		DepositsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tipledger_deposits_total",
			Help: "Total number of deposits credited",
		}),
		TipsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tipledger_tips_total",
			Help: "Total number of tips transferred",
		}),
		BurnsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tipledger_burns_total",
			Help: "Total number of burn donations",
		}),
		FeeCreditFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tipledger_fee_credit_failures_total",
			Help: "Fee credits that failed after the net credit succeeded",
		}),
		AirdropsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tipledger_airdrops_created_total",
			Help: "Total number of airdrops funded",
		}),
		AirdropClaims: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tipledger_airdrop_claims_total",
				Help: "Airdrop claim attempts by result",
			},
			[]string{"result"},
		),
		AirdropsSwept: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tipledger_airdrops_swept_total",
			Help: "Airdrops closed by the expiry sweeper",
		}),

		Withdrawals: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tipledger_withdrawals_total",
				Help: "Withdrawal attempts by terminal status",
			},
			[]string{"status"},
		),
		SettlementDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tipledger_settlement_duration_seconds",
			Help:    "Duration of external settlement calls",
			Buckets: prometheus.DefBuckets,
		}),

		DBConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "tipledger_db_connections",
			Help: "Current number of database connections",
		}),

		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tipledger_cache_hits_total",
			Help: "Balance cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tipledger_cache_misses_total",
			Help: "Balance cache misses",
		}),

		RateLimitHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tipledger_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"ip"},
		),
	}
}
