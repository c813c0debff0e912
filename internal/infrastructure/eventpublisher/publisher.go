package eventpublisher

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/justthetip/tipledger/internal/domain"
)

// HistoryFeed reads ledger history entries past a sequence cursor.
type HistoryFeed interface {
	ListAfterSeq(ctx context.Context, afterSeq int64, limit int) ([]*domain.HistoryEntry, error)
}

// Publisher delivers a ledger event to an external consumer, typically the
// chat service that announces tips and airdrops.
type Publisher interface {
	Publish(ctx context.Context, entry *domain.HistoryEntry) error
}

// EventPublisher tails the append-only history log and pushes new entries to
// a Publisher. The history seq is the cursor, so a restart resumes from
// wherever it is pointed without a marker table.
type EventPublisher struct {
	feed      HistoryFeed
	publisher Publisher
	logger    zerolog.Logger
	batchSize int
	interval  time.Duration
	lastSeq   int64
}

// Config for EventPublisher.
type Config struct {
	Feed      HistoryFeed
	Publisher Publisher
	Logger    zerolog.Logger
	BatchSize int           // Number of entries to fetch per batch
	Interval  time.Duration // Polling interval
	StartSeq  int64         // Entries with seq <= StartSeq are skipped
}

// NewEventPublisher creates a new EventPublisher.
func NewEventPublisher(cfg Config) *EventPublisher {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Second
	}

	return &EventPublisher{
		feed:      cfg.Feed,
		publisher: cfg.Publisher,
		logger:    cfg.Logger,
		batchSize: cfg.BatchSize,
		interval:  cfg.Interval,
		lastSeq:   cfg.StartSeq,
	}
}

// Start begins the publishing worker.
// It runs continuously until the context is cancelled.
func (ep *EventPublisher) Start(ctx context.Context) error {
	ep.logger.Info().
		Int("batch_size", ep.batchSize).
		Dur("interval", ep.interval).
		Int64("start_seq", ep.lastSeq).
		Msg("event publisher started")

	ticker := time.NewTicker(ep.interval)
	defer ticker.Stop()

	// Process immediately on start
	if err := ep.processEntries(ctx); err != nil {
		ep.logger.Error().Err(err).Msg("error processing entries on start")
	}

	for {
		select {
		case <-ctx.Done():
			ep.logger.Info().Msg("event publisher shutting down")
			return ctx.Err()
		case <-ticker.C:
			if err := ep.processEntries(ctx); err != nil {
				ep.logger.Error().Err(err).Msg("error processing entries")
			}
		}
	}
}

// processEntries fetches and publishes a batch of entries past the cursor.
// The cursor only advances past entries that were delivered, so a failed
// publish is retried on the next tick and ordering is preserved.
func (ep *EventPublisher) processEntries(ctx context.Context) error {
	entries, err := ep.feed.ListAfterSeq(ctx, ep.lastSeq, ep.batchSize)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		return nil
	}

	ep.logger.Debug().Int("count", len(entries)).Msg("processing entries")

	for _, entry := range entries {
		if err := ep.publisher.Publish(ctx, entry); err != nil {
			ep.logger.Error().
				Err(err).
				Int64("seq", entry.Seq).
				Str("kind", string(entry.Kind)).
				Msg("failed to publish entry")
			return err
		}

		ep.lastSeq = entry.Seq
	}

	return nil
}

// LogPublisher is a publisher that logs entries. It stands in when no chat
// webhook is configured.
type LogPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher creates a new LogPublisher.
func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the entry.
func (p *LogPublisher) Publish(ctx context.Context, entry *domain.HistoryEntry) error {
	p.logger.Info().
		Int64("seq", entry.Seq).
		Str("user_id", entry.UserID).
		Str("kind", string(entry.Kind)).
		Str("asset", string(entry.Asset)).
		Str("amount", entry.Amount.String()).
		Str("correlation_id", entry.CorrelationID).
		Msg("ledger event")

	return nil
}
