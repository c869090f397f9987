// Package bot is the thin Telegram command layer in front of the feed
// engine: it maps inbound commands to engine calls and replies.
package bot

import (
	"context"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"devona/internal/config"
	"devona/internal/deliver"
	"devona/internal/model"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// DigestFeed is the engine surface the command layer drives.
type DigestFeed interface {
	Latest(ctx context.Context) ([]model.Message, error)
	Subscribe(ctx context.Context, sub model.Subscription) error
	Unsubscribe(ctx context.Context, sub model.Subscription) error
	IsSubscribed(ctx context.Context, sub model.Subscription) (bool, error)
	ForceRun(ctx context.Context, date time.Time) error
}

// Bot handles user commands for the subscription-based feeds.
type Bot struct {
	api   telegramAPI
	cfg   *config.Config
	feeds map[string]DigestFeed
	log   *slog.Logger
}

// New creates a Bot on an existing API client.
func New(api *tgbotapi.BotAPI, cfg *config.Config, log *slog.Logger) *Bot {
	return &Bot{
		api:   api,
		cfg:   cfg,
		feeds: make(map[string]DigestFeed),
		log:   log,
	}
}

// RegisterFeed exposes a calendar feed under a command name.
func (b *Bot) RegisterFeed(name string, f DigestFeed) {
	b.feeds[name] = f
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			b.handleCommand(ctx, update.Message)
		}
	}
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send reply", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) sendDigest(chatID int64, msgs []model.Message) {
	for _, m := range msgs {
		out := tgbotapi.NewMessage(chatID, deliver.RenderHTML(m))
		out.ParseMode = tgbotapi.ModeHTML
		out.DisableWebPagePreview = true
		if _, err := b.api.Send(out); err != nil {
			b.log.Error("send digest", "chat_id", chatID, "error", err)
		}
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID

	b.log.Debug("command", "cmd", cmd, "args", args, "chat_id", chatID)

	switch cmd {
	case "start":
		b.handleStart(chatID)
	case "help":
		b.handleHelp(chatID)
	case "daily":
		b.handleShow(ctx, chatID, "daily")
	case "events":
		b.handleShow(ctx, chatID, "events")
	case "subscribe":
		b.handleSubscribe(ctx, msg, args)
	case "unsubscribe":
		b.handleUnsubscribe(ctx, msg, args)
	case "update":
		b.handleForceRun(msg, args)
	default:
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}
