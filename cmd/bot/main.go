package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"devona/internal/bot"
	"devona/internal/config"
	"devona/internal/deliver"
	"devona/internal/feed"
	"devona/internal/storage"
	"devona/internal/wiki"
)

// Inter-send pacing per feed kind. Streams post bursts of new items, so
// they get a wider gap.
const (
	calendarSendInterval = 1 * time.Second
	streamSendInterval   = 2 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	store, err := openStore(cfg, log)
	if err != nil {
		log.Error("open store", "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Error("create bot api", "error", err)
		os.Exit(1)
	}
	messenger := deliver.NewTelegram(api)

	wikiClient := wiki.NewClient(cfg.WikiBaseURL, cfg.WikiUsername, cfg.WikiPassword, log)

	calendarEngine := func() *deliver.Engine {
		return deliver.NewEngine(messenger, store, calendarSendInterval, cfg.DisableMessages, log)
	}
	streamEngine := func() *deliver.Engine {
		return deliver.NewEngine(messenger, store, streamSendInterval, cfg.DisableMessages, log)
	}

	daily := feed.NewDaily(wikiClient, cfg.WikiBaseURL, store, calendarEngine(), cfg.PublishHour, log)
	events := feed.NewEvents(wikiClient, cfg.WikiBaseURL, store, calendarEngine(), cfg.PublishHour, log)

	sched := feed.NewScheduler(log)
	sched.Add(daily, cfg.DailyInterval)
	sched.Add(events, cfg.EventsInterval)

	if len(cfg.UpdateChannels) > 0 {
		updates := feed.NewUpdates(wikiClient, cfg.WikiBaseURL, store, streamEngine(), cfg.UpdateChannels, log)
		sched.Add(updates, cfg.UpdatesInterval)
	} else {
		log.Info("no update channels configured, game update feed disabled")
	}

	if cfg.SocialFeedURL != "" && len(cfg.SocialChannels) > 0 {
		social := feed.NewSocial(http.DefaultClient, cfg.SocialFeedURL, cfg.SocialAccount, store, streamEngine(), cfg.SocialChannels, log)
		sched.Add(social, cfg.SocialInterval)
	} else {
		log.Info("social feed not configured, relay disabled")
	}

	b := bot.New(api, cfg, log)
	b.RegisterFeed("daily", daily)
	b.RegisterFeed("events", events)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("starting bot", "dry_run", cfg.DisableMessages)

	go sched.Run(ctx)

	b.Run(ctx)

	log.Info("bot stopped")
}

func openStore(cfg *config.Config, log *slog.Logger) (storage.Store, error) {
	if cfg.RedisURL != "" {
		log.Info("using redis store")
		return storage.NewRedis(cfg.RedisURL)
	}

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, err
		}
	}
	log.Info("using sqlite store", "path", cfg.DatabasePath)
	return storage.NewSQLite(cfg.DatabasePath)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
