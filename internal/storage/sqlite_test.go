package storage

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"devona/internal/model"
)

func newTestDB(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSubscriptions(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	subs := []model.Subscription{
		{CommunityID: 100, ChatID: 100},
		{CommunityID: 200, ChatID: 201},
	}
	for _, sub := range subs {
		if err := s.AddSubscription(ctx, model.FeedDaily, sub); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	// Re-subscribing is a no-op.
	if err := s.AddSubscription(ctx, model.FeedDaily, subs[0]); err != nil {
		t.Fatalf("re-add: %v", err)
	}

	got, err := s.ListSubscriptions(ctx, model.FeedDaily)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff(subs, got); diff != "" {
		t.Errorf("subscriptions mismatch (-want +got):\n%s", diff)
	}

	ok, err := s.IsSubscribed(ctx, model.FeedDaily, subs[0])
	if err != nil || !ok {
		t.Fatalf("IsSubscribed = %v, %v; want true", ok, err)
	}

	// Kinds are independent.
	ok, err = s.IsSubscribed(ctx, model.FeedEvents, subs[0])
	if err != nil || ok {
		t.Fatalf("IsSubscribed other kind = %v, %v; want false", ok, err)
	}

	if err := s.RemoveSubscription(ctx, model.FeedDaily, subs[0]); err != nil {
		t.Fatalf("remove: %v", err)
	}
	ok, err = s.IsSubscribed(ctx, model.FeedDaily, subs[0])
	if err != nil || ok {
		t.Fatalf("IsSubscribed after remove = %v, %v; want false", ok, err)
	}
}

func TestDeliveryRecords(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	_, found, err := s.DeliveryRecord(ctx, model.FeedDaily, 100)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if found {
		t.Fatal("expected no record initially")
	}

	if err := s.SetDeliveryRecord(ctx, model.FeedDaily, 100, 42); err != nil {
		t.Fatalf("set: %v", err)
	}
	id, found, err := s.DeliveryRecord(ctx, model.FeedDaily, 100)
	if err != nil || !found || id != 42 {
		t.Fatalf("DeliveryRecord = %d, %v, %v; want 42, true, nil", id, found, err)
	}

	// Overwrites replace the stored id.
	if err := s.SetDeliveryRecord(ctx, model.FeedDaily, 100, 43); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	id, _, _ = s.DeliveryRecord(ctx, model.FeedDaily, 100)
	if id != 43 {
		t.Fatalf("overwritten record = %d, want 43", id)
	}

	if err := s.ClearDeliveryRecord(ctx, model.FeedDaily, 100); err != nil {
		t.Fatalf("clear: %v", err)
	}
	_, found, err = s.DeliveryRecord(ctx, model.FeedDaily, 100)
	if err != nil || found {
		t.Fatalf("record after clear: found=%v, err=%v; want absent", found, err)
	}

	// Clearing an absent record is not an error.
	if err := s.ClearDeliveryRecord(ctx, model.FeedDaily, 100); err != nil {
		t.Fatalf("clear absent: %v", err)
	}
}

func TestRunState(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	date, err := s.LastRunDate(ctx, model.FeedDaily)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if date != "" {
		t.Fatalf("initial date = %q, want empty", date)
	}

	if err := s.SetLastRunDate(ctx, model.FeedDaily, "2026-01-15"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.SetLastRunDate(ctx, model.FeedDaily, "2026-01-16"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	date, err = s.LastRunDate(ctx, model.FeedDaily)
	if err != nil || date != "2026-01-16" {
		t.Fatalf("LastRunDate = %q, %v; want 2026-01-16", date, err)
	}

	// Other kinds keep their own state.
	date, err = s.LastRunDate(ctx, model.FeedEvents)
	if err != nil || date != "" {
		t.Fatalf("other kind date = %q, %v; want empty", date, err)
	}
}

func TestSeenItems(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	seen, err := s.HasSeen(ctx, model.FeedUpdates, "100:20260115")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if seen {
		t.Fatal("expected unseen initially")
	}

	if err := s.MarkSeen(ctx, model.FeedUpdates, "100:20260115"); err != nil {
		t.Fatalf("mark: %v", err)
	}
	// Marking again is a no-op.
	if err := s.MarkSeen(ctx, model.FeedUpdates, "100:20260115"); err != nil {
		t.Fatalf("re-mark: %v", err)
	}

	seen, err = s.HasSeen(ctx, model.FeedUpdates, "100:20260115")
	if err != nil || !seen {
		t.Fatalf("HasSeen = %v, %v; want true", seen, err)
	}

	// The same item for another destination is still unseen.
	seen, err = s.HasSeen(ctx, model.FeedUpdates, "200:20260115")
	if err != nil || seen {
		t.Fatalf("HasSeen other destination = %v, %v; want false", seen, err)
	}
}
