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

// Wiki fetches wiki pages over an authenticated session.
type Wiki interface {
	Login(ctx context.Context) error
	FetchPage(ctx context.Context, url string) (string, error)
}

// Wiki page paths read by the calendar feeds.
const (
	weeklyBonusesPath   = "/wiki/Weekly_bonuses"
	zaishenQuestPath    = "/wiki/Zaishen_Challenge_Quest"
	nicholasCyclePath   = "/wiki/Nicholas_the_Traveler/Cycle"
	dailyActivitiesPath = "/wiki/Daily_activities"
	specialEventsPath   = "/wiki/Special_event"
	gameUpdatesPath     = "/wiki/Feedback:Game_updates/"
)

type dailySource struct {
	wiki Wiki
	base string
	log  *slog.Logger
}

// NewDaily creates the daily-activities calendar feed. Each cycle pulls
// four wiki pages; a parse failure on one page drops its fields but
// never aborts the rest.
func NewDaily(wiki Wiki, base string, store storage.Store, engine *deliver.Engine, publishHour int, log *slog.Logger) *CalendarFeed {
	src := &dailySource{wiki: wiki, base: base, log: log.With("feed", model.FeedDaily)}
	return NewCalendarFeed(model.FeedDaily, src.build, store, engine, publishHour, log)
}

func (s *dailySource) build(ctx context.Context, date time.Time) ([]model.Message, error) {
	if err := s.wiki.Login(ctx); err != nil {
		s.log.Warn("wiki login failed, fetching without auth", "error", err)
	}

	var bonuses []model.Bonus
	if html, err := s.wiki.FetchPage(ctx, s.base+weeklyBonusesPath); err != nil {
		s.log.Warn("fetch weekly bonuses", "error", err)
	} else if bonuses, err = extract.WeeklyBonuses(html); err != nil {
		s.log.Warn("parse weekly bonuses", "error", err)
	}

	var quest *model.ZaishenQuest
	if html, err := s.wiki.FetchPage(ctx, s.base+zaishenQuestPath); err != nil {
		s.log.Warn("fetch zaishen quests", "error", err)
	} else if quest, err = extract.ZaishenQuest(html, date); err != nil {
		s.log.Warn("parse zaishen quests", "error", err)
	}

	var nicholas *model.NicholasGift
	if html, err := s.wiki.FetchPage(ctx, s.base+nicholasCyclePath); err != nil {
		s.log.Warn("fetch nicholas cycle", "error", err)
	} else if nicholas, err = extract.NicholasGift(html, date); err != nil {
		s.log.Warn("parse nicholas cycle", "error", err)
	}

	var extras *model.DailyExtras
	if html, err := s.wiki.FetchPage(ctx, s.base+dailyActivitiesPath); err != nil {
		s.log.Warn("fetch daily activities", "error", err)
	} else if extras, err = extract.DailyExtras(html, date); err != nil {
		s.log.Warn("parse daily activities", "error", err)
	}

	if bonuses == nil && quest == nil && nicholas == nil && extras == nil {
		return nil, ErrUnavailable
	}

	return digest.BuildDaily(bonuses, quest, nicholas, extras, time.Now().UTC()), nil
}
