package feed

import (
	"context"
	"log/slog"
	"time"

	"devona/internal/deliver"
	"devona/internal/digest"
	"devona/internal/extract"
	"devona/internal/model"
	"devona/internal/storage"
)

// upcomingCount is how many events the digest announces.
const upcomingCount = 3

type eventsSource struct {
	wiki Wiki
	base string
	log  *slog.Logger
}

// NewEvents creates the special-events calendar feed.
func NewEvents(wiki Wiki, base string, store storage.Store, engine *deliver.Engine, publishHour int, log *slog.Logger) *CalendarFeed {
	src := &eventsSource{wiki: wiki, base: base, log: log.With("feed", model.FeedEvents)}
	return NewCalendarFeed(model.FeedEvents, src.build, store, engine, publishHour, log)
}

func (s *eventsSource) build(ctx context.Context, date time.Time) ([]model.Message, error) {
	if err := s.wiki.Login(ctx); err != nil {
		s.log.Warn("wiki login failed, fetching without auth", "error", err)
	}

	html, err := s.wiki.FetchPage(ctx, s.base+specialEventsPath)
	if err != nil {
		return nil, ErrUnavailable
	}

	events, err := extract.Events(html)
	if err != nil {
		return nil, ErrUnavailable
	}

	now := time.Now().UTC()
	reference := now
	if !date.IsZero() {
		reference = date
	}

	upcoming := extract.NextEvents(events, reference, upcomingCount)
	return digest.BuildEvents(upcoming, now), nil
}
