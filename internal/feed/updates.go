package feed

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"devona/internal/deliver"
	"devona/internal/digest"
	"devona/internal/extract"
	"devona/internal/model"
	"devona/internal/storage"
)

// updateLookbackDays is how far back dated update pages are scanned.
const updateLookbackDays = 7

type updatesSource struct {
	wiki  Wiki
	base  string
	log   *slog.Logger
	nowFn func() time.Time
}

// NewUpdates creates the game-update stream feed. Each cycle probes the
// dated update pages of the last week and publishes any it has not
// delivered yet, oldest first.
func NewUpdates(wiki Wiki, base string, store storage.Store, engine *deliver.Engine, chats []int64, log *slog.Logger) *StreamFeed {
	src := &updatesSource{wiki: wiki, base: base, log: log.With("feed", model.FeedUpdates), nowFn: time.Now}
	return NewStreamFeed(model.FeedUpdates, src.collect, store, engine, chats, log)
}

func (s *updatesSource) collect(ctx context.Context) ([]Item, error) {
	if err := s.wiki.Login(ctx); err != nil {
		s.log.Warn("wiki login failed, fetching without auth", "error", err)
	}

	now := s.nowFn().UTC()

	var items []Item
	for daysAgo := 0; daysAgo < updateLookbackDays; daysAgo++ {
		dateID := now.AddDate(0, 0, -daysAgo).Format("20060102")
		pageURL := s.base + gameUpdatesPath + dateID

		html, err := s.wiki.FetchPage(ctx, pageURL)
		if err != nil {
			// Most days have no update page; that's the normal case.
			continue
		}

		sections, err := extract.UpdateSections(html)
		if err != nil {
			s.log.Warn("parse update page", "date", dateID, "error", err)
			continue
		}

		msgs := digest.BuildUpdate(sections, pageURL, now)
		if len(msgs) == 0 {
			continue
		}

		items = append(items, Item{ID: dateID, Messages: msgs})
	}

	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}
