// Package feed owns the per-feed drivers: the daily-gated calendar
// digests and the seen-gated item streams, plus the scheduler that runs
// each driver on its own loop.
package feed

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"devona/internal/deliver"
	"devona/internal/model"
	"devona/internal/storage"
)

// ErrUnavailable is returned when the content source cannot be reached
// or yields none of the expected structure.
var ErrUnavailable = errors.New("feed: source unavailable")

const dateLayout = "2006-01-02"

// DigestFunc builds the current digest for a calendar feed. A non-zero
// date requests the digest for that specific day instead of today.
type DigestFunc func(ctx context.Context, date time.Time) ([]model.Message, error)

// CalendarFeed runs the once-daily digest pipeline for one feed kind:
// gate on the last run date, extract, build, edit-or-post to every
// subscribed chat, then record the run.
type CalendarFeed struct {
	kind        model.FeedKind
	digest      DigestFunc
	store       storage.Store
	engine      *deliver.Engine
	publishHour int
	log         *slog.Logger

	running atomic.Bool
	nowFn   func() time.Time
}

// NewCalendarFeed creates a calendar driver. publishHour is the UTC
// hour before which a new day's cycle does not start.
func NewCalendarFeed(kind model.FeedKind, digest DigestFunc, store storage.Store, engine *deliver.Engine, publishHour int, log *slog.Logger) *CalendarFeed {
	return &CalendarFeed{
		kind:        kind,
		digest:      digest,
		store:       store,
		engine:      engine,
		publishHour: publishHour,
		log:         log.With("feed", kind),
		nowFn:       time.Now,
	}
}

// Kind returns the feed kind this driver serves.
func (f *CalendarFeed) Kind() model.FeedKind {
	return f.kind
}

// Process runs one cycle if the daily gate passes. A cycle already in
// flight makes this a no-op; any failure is logged and the driver
// returns to idle for the next tick.
func (f *CalendarFeed) Process(ctx context.Context) {
	if !f.running.CompareAndSwap(false, true) {
		return
	}
	defer f.running.Store(false)

	now := f.nowFn().UTC()
	today := now.Format(dateLayout)

	last, err := f.store.LastRunDate(ctx, f.kind)
	if err != nil {
		f.log.Error("read last run date", "error", err)
		return
	}
	if last == today {
		return
	}
	// Before the publish hour the new day's window hasn't opened yet;
	// an older last run still triggers a catch-up cycle.
	if now.Hour() < f.publishHour && last == now.AddDate(0, 0, -1).Format(dateLayout) {
		return
	}

	f.log.Info("running cycle")

	msgs, err := f.digest(ctx, time.Time{})
	if err != nil {
		f.log.Error("build digest", "error", err)
		return
	}
	if len(msgs) == 0 {
		f.log.Warn("digest empty, skipping cycle")
		return
	}

	subs, err := f.store.ListSubscriptions(ctx, f.kind)
	if err != nil {
		f.log.Error("list subscriptions", "error", err)
		return
	}
	if len(subs) == 0 {
		f.log.Info("no subscriptions")
		f.recordRun(ctx, today)
		return
	}

	results := f.engine.Broadcast(ctx, f.kind, msgs, chatIDs(subs))
	for _, r := range results {
		if r.Err != nil && errors.Is(r.Err, storage.ErrUnavailable) {
			f.log.Error("state store unavailable, aborting cycle", "chat_id", r.ChatID, "error", r.Err)
			return
		}
	}
	f.logResults(results)
	f.recordRun(ctx, today)
}

// ForceRun builds the digest for an explicit date (or today when zero)
// and delivers it to all subscribers. The run date is left untouched so
// the scheduled cycle is unaffected.
func (f *CalendarFeed) ForceRun(ctx context.Context, date time.Time) error {
	msgs, err := f.digest(ctx, date)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return ErrUnavailable
	}

	subs, err := f.store.ListSubscriptions(ctx, f.kind)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		return errors.New("no subscriptions")
	}

	f.logResults(f.engine.Broadcast(ctx, f.kind, msgs, chatIDs(subs)))
	return nil
}

// Latest builds the current digest without reading or writing any
// state, for on-demand "show me now" requests.
func (f *CalendarFeed) Latest(ctx context.Context) ([]model.Message, error) {
	msgs, err := f.digest(ctx, time.Time{})
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, ErrUnavailable
	}
	return msgs, nil
}

// Subscribe adds the chat and delivers the current digest to it,
// recording the posted message for future in-place edits.
func (f *CalendarFeed) Subscribe(ctx context.Context, sub model.Subscription) error {
	if err := f.store.AddSubscription(ctx, f.kind, sub); err != nil {
		return err
	}

	msgs, err := f.digest(ctx, time.Time{})
	if err != nil || len(msgs) == 0 {
		f.log.Warn("no digest available for initial delivery", "chat_id", sub.ChatID, "error", err)
		return nil
	}

	res := f.engine.Send(ctx, f.kind, sub.ChatID, msgs)
	if res.Err != nil {
		f.log.Error("initial delivery", "chat_id", sub.ChatID, "error", res.Err)
	}
	return nil
}

// Unsubscribe removes the chat and retracts its recorded message
// best-effort; the delivery record is cleared regardless.
func (f *CalendarFeed) Unsubscribe(ctx context.Context, sub model.Subscription) error {
	if err := f.store.RemoveSubscription(ctx, f.kind, sub); err != nil {
		return err
	}
	return f.engine.Retract(ctx, f.kind, sub.ChatID)
}

// IsSubscribed reports whether the chat is subscribed to this feed.
func (f *CalendarFeed) IsSubscribed(ctx context.Context, sub model.Subscription) (bool, error) {
	return f.store.IsSubscribed(ctx, f.kind, sub)
}

func (f *CalendarFeed) recordRun(ctx context.Context, date string) {
	if err := f.store.SetLastRunDate(ctx, f.kind, date); err != nil {
		f.log.Error("record run date", "error", err)
	}
}

func (f *CalendarFeed) logResults(results []deliver.Result) {
	counts := map[deliver.Outcome]int{}
	for _, r := range results {
		counts[r.Outcome]++
		if r.Err != nil {
			f.log.Error("delivery failed", "chat_id", r.ChatID, "error", r.Err)
		}
	}
	f.log.Info("cycle delivered",
		"edited", counts[deliver.OutcomeEdited],
		"posted", counts[deliver.OutcomePosted],
		"skipped", counts[deliver.OutcomeSkipped],
		"failed", counts[deliver.OutcomeFailed],
	)
}

func chatIDs(subs []model.Subscription) []int64 {
	ids := make([]int64, 0, len(subs))
	for _, s := range subs {
		ids = append(ids, s.ChatID)
	}
	return ids
}
