package eventpublisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/justthetip/tipledger/internal/domain"
)

func TestProcessEntriesPublishesAndAdvancesCursor(t *testing.T) {
	feed := &stubHistoryFeed{
		entries: []*domain.HistoryEntry{
			{Seq: 1, UserID: "u1", Kind: domain.HistoryKindTipIn},
			{Seq: 2, UserID: "u2", Kind: domain.HistoryKindTipOut},
		},
	}
	pub := &stubPublisher{}
	ep := newTestPublisher(feed, pub)

	if err := ep.processEntries(context.Background()); err != nil {
		t.Fatalf("processEntries failed: %v", err)
	}

	if len(pub.published) != 2 {
		t.Fatalf("expected two published entries, got %d", len(pub.published))
	}
	if ep.lastSeq != 2 {
		t.Fatalf("expected cursor at seq 2, got %d", ep.lastSeq)
	}
	if feed.lastAfterSeq != 0 {
		t.Fatalf("expected first fetch after seq 0, got %d", feed.lastAfterSeq)
	}
}

func TestProcessEntriesStopsAtPublishError(t *testing.T) {
	feed := &stubHistoryFeed{
		entries: []*domain.HistoryEntry{
			{Seq: 1, UserID: "u1"},
			{Seq: 2, UserID: "u2"},
			{Seq: 3, UserID: "u3"},
		},
	}
	pub := &stubPublisher{errorsBySeq: map[int64]error{2: errors.New("webhook down")}}
	ep := newTestPublisher(feed, pub)

	if err := ep.processEntries(context.Background()); err == nil {
		t.Fatalf("expected publish error to surface")
	}

	// seq 1 was delivered, seq 2 failed, so the next tick retries from seq 1
	if len(pub.published) != 1 || pub.published[0].Seq != 1 {
		t.Fatalf("expected only seq 1 to be published, got %#v", pub.published)
	}
	if ep.lastSeq != 1 {
		t.Fatalf("expected cursor at seq 1, got %d", ep.lastSeq)
	}
}

func TestProcessEntriesSkipsUpToStartSeq(t *testing.T) {
	feed := &stubHistoryFeed{}
	pub := &stubPublisher{}
	ep := NewEventPublisher(Config{
		Feed:      feed,
		Publisher: pub,
		Logger:    zerolog.Nop(),
		StartSeq:  42,
	})

	if err := ep.processEntries(context.Background()); err != nil {
		t.Fatalf("processEntries failed: %v", err)
	}

	if feed.lastAfterSeq != 42 {
		t.Fatalf("expected fetch after seq 42, got %d", feed.lastAfterSeq)
	}
}

func TestStartStopsOnContextCancellation(t *testing.T) {
	feed := &stubHistoryFeed{}
	pub := &stubPublisher{}
	ep := newTestPublisher(feed, pub)
	ep.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ep.Start(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("publisher did not stop after cancel")
	}
}

func newTestPublisher(feed *stubHistoryFeed, pub *stubPublisher) *EventPublisher {
	return NewEventPublisher(Config{
		Feed:      feed,
		Publisher: pub,
		Logger:    zerolog.Nop(),
		BatchSize: 10,
		Interval:  5 * time.Millisecond,
	})
}

type stubHistoryFeed struct {
	entries      []*domain.HistoryEntry
	lastAfterSeq int64
}

func (s *stubHistoryFeed) ListAfterSeq(ctx context.Context, afterSeq int64, limit int) ([]*domain.HistoryEntry, error) {
	s.lastAfterSeq = afterSeq

	var out []*domain.HistoryEntry
	for _, entry := range s.entries {
		if entry.Seq > afterSeq {
			out = append(out, entry)
		}
		if len(out) == limit {
			break
		}
	}

	return out, nil
}

type stubPublisher struct {
	published   []*domain.HistoryEntry
	errorsBySeq map[int64]error
}

func (s *stubPublisher) Publish(ctx context.Context, entry *domain.HistoryEntry) error {
	if err := s.errorsBySeq[entry.Seq]; err != nil {
		return err
	}
	s.published = append(s.published, entry)
	return nil
}
