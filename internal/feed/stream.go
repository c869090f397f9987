package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"devona/internal/deliver"
	"devona/internal/model"
	"devona/internal/storage"
)

// Item is one deliverable unit of an item-stream feed, identified by a
// stable natural key.
type Item struct {
	ID       string
	Messages []model.Message
}

// CollectFunc gathers the current candidate items, oldest first.
type CollectFunc func(ctx context.Context) ([]Item, error)

// StreamFeed delivers new items to a fixed set of channels. The gate is
// item-level: anything not in the per-destination seen set goes out on
// every cycle, regardless of time of day.
type StreamFeed struct {
	kind    model.FeedKind
	collect CollectFunc
	store   storage.Store
	engine  *deliver.Engine
	chats   []int64
	log     *slog.Logger

	running atomic.Bool
}

// NewStreamFeed creates a stream driver broadcasting to chats.
func NewStreamFeed(kind model.FeedKind, collect CollectFunc, store storage.Store, engine *deliver.Engine, chats []int64, log *slog.Logger) *StreamFeed {
	return &StreamFeed{
		kind:    kind,
		collect: collect,
		store:   store,
		engine:  engine,
		chats:   chats,
		log:     log.With("feed", kind),
	}
}

// Kind returns the feed kind this driver serves.
func (f *StreamFeed) Kind() model.FeedKind {
	return f.kind
}

// Process runs one collection cycle, posting unseen items in order to
// each channel. Items are marked seen only after their post attempt, so
// a failed post is retried next cycle.
func (f *StreamFeed) Process(ctx context.Context) {
	if !f.running.CompareAndSwap(false, true) {
		return
	}
	defer f.running.Store(false)

	items, err := f.collect(ctx)
	if err != nil {
		f.log.Error("collect items", "error", err)
		return
	}
	if len(items) == 0 {
		return
	}

	for _, chatID := range f.chats {
		posted := 0
		for _, item := range items {
			if ctx.Err() != nil {
				return
			}

			key := seenItemKey(chatID, item.ID)
			seen, err := f.store.HasSeen(ctx, f.kind, key)
			if err != nil {
				if errors.Is(err, storage.ErrUnavailable) {
					f.log.Error("state store unavailable, aborting cycle", "error", err)
					return
				}
				f.log.Error("check seen", "item", item.ID, "error", err)
				continue
			}
			if seen {
				continue
			}

			if err := f.engine.Publish(ctx, chatID, item.Messages); err != nil {
				f.log.Error("publish item", "chat_id", chatID, "item", item.ID, "error", err)
				continue
			}
			// In dry-run nothing actually went out, so leave the item
			// unseen for delivery once sending is enabled again.
			if !f.engine.DryRun() {
				if err := f.store.MarkSeen(ctx, f.kind, key); err != nil {
					f.log.Error("mark seen", "item", item.ID, "error", err)
				}
			}
			posted++
		}
		if posted > 0 {
			f.log.Info("posted items", "chat_id", chatID, "count", posted)
		}
	}
}

// seenItemKey scopes an item id to one destination, so a channel added
// later still receives items older channels have already seen.
func seenItemKey(chatID int64, itemID string) string {
	return fmt.Sprintf("%d:%s", chatID, itemID)
}
