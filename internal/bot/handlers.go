package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"devona/internal/model"
)

// forceRunTimeout bounds the background fetch-and-deliver triggered by
// admin commands.
const forceRunTimeout = 5 * time.Minute

func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID, `Welcome to Devona!

Guild Wars daily activities, special events, game updates, and news — delivered to your chats.

Quick start:
1. /daily — show today's activities
2. /events — show upcoming special events
3. /subscribe daily — get the daily digest in this chat

Use /help for the full command reference.`)
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `On demand:
/daily — today's Guild Wars daily activities
/events — upcoming special events

Subscriptions (admins only):
/subscribe daily|events — post the digest here, updated in place every day
/unsubscribe daily|events — stop updates and remove the digest

Admin:
/update [YYYY-MM-DD] — force the daily digest, optionally for a past date`)
}

func (b *Bot) handleShow(ctx context.Context, chatID int64, name string) {
	feed, ok := b.feeds[name]
	if !ok {
		b.reply(chatID, "That feed is not available.")
		return
	}

	msgs, err := feed.Latest(ctx)
	if err != nil {
		b.log.Error("latest digest", "feed", name, "error", err)
		b.reply(chatID, "Could not fetch that right now. Try again later.")
		return
	}
	b.sendDigest(chatID, msgs)
}

func (b *Bot) handleSubscribe(ctx context.Context, msg *tgbotapi.Message, args string) {
	feed, name, ok := b.feedArg(msg.Chat.ID, args)
	if !ok {
		return
	}
	if !b.requireAdmin(msg) {
		return
	}

	sub := subscriptionFor(msg)
	subscribed, err := feed.IsSubscribed(ctx, sub)
	if err != nil {
		b.reply(msg.Chat.ID, fmt.Sprintf("Error: %v", err))
		return
	}
	if subscribed {
		b.reply(msg.Chat.ID, fmt.Sprintf("This chat is already subscribed to %s updates.", name))
		return
	}

	b.reply(msg.Chat.ID, fmt.Sprintf("Subscribing this chat to %s updates...", name))

	// The first fetch-and-deliver runs in the background; the command
	// acknowledgment above is immediate.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), forceRunTimeout)
		defer cancel()
		if err := feed.Subscribe(ctx, sub); err != nil {
			b.log.Error("subscribe", "feed", name, "chat_id", sub.ChatID, "error", err)
		}
	}()
}

func (b *Bot) handleUnsubscribe(ctx context.Context, msg *tgbotapi.Message, args string) {
	feed, name, ok := b.feedArg(msg.Chat.ID, args)
	if !ok {
		return
	}
	if !b.requireAdmin(msg) {
		return
	}

	sub := subscriptionFor(msg)
	subscribed, err := feed.IsSubscribed(ctx, sub)
	if err != nil {
		b.reply(msg.Chat.ID, fmt.Sprintf("Error: %v", err))
		return
	}
	if !subscribed {
		b.reply(msg.Chat.ID, fmt.Sprintf("This chat is not subscribed to %s updates.", name))
		return
	}

	if err := feed.Unsubscribe(ctx, sub); err != nil {
		b.reply(msg.Chat.ID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(msg.Chat.ID, fmt.Sprintf("This chat has been unsubscribed from %s updates.", name))
}

func (b *Bot) handleForceRun(msg *tgbotapi.Message, args string) {
	if !b.requireAdmin(msg) {
		return
	}

	feed, ok := b.feeds["daily"]
	if !ok {
		b.reply(msg.Chat.ID, "That feed is not available.")
		return
	}

	var date time.Time
	if args != "" {
		var err error
		date, err = time.Parse("2006-01-02", args)
		if err != nil {
			b.reply(msg.Chat.ID, "Invalid date format. Use YYYY-MM-DD.")
			return
		}
	}

	if args != "" {
		b.reply(msg.Chat.ID, fmt.Sprintf("Updating daily activities for %s...", args))
	} else {
		b.reply(msg.Chat.ID, "Updating daily activities...")
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), forceRunTimeout)
		defer cancel()
		if err := feed.ForceRun(ctx, date); err != nil {
			b.log.Error("force run", "date", args, "error", err)
		}
	}()
}

func (b *Bot) feedArg(chatID int64, args string) (DigestFeed, string, bool) {
	if args == "" {
		b.reply(chatID, "Usage: /subscribe daily|events")
		return nil, "", false
	}
	feed, ok := b.feeds[args]
	if !ok {
		b.reply(chatID, fmt.Sprintf("Unknown feed %q. Available: daily, events.", args))
		return nil, "", false
	}
	return feed, args, true
}

func (b *Bot) requireAdmin(msg *tgbotapi.Message) bool {
	if msg.From == nil || !b.cfg.IsAdmin(msg.From.ID) {
		b.reply(msg.Chat.ID, "You don't have permission to run this command.")
		return false
	}
	return true
}

func subscriptionFor(msg *tgbotapi.Message) model.Subscription {
	return model.Subscription{CommunityID: msg.Chat.ID, ChatID: msg.Chat.ID}
}
