package deliver

import (
	"context"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"devona/internal/model"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Telegram implements Messenger on the Telegram Bot API, rendering
// digest messages as HTML.
type Telegram struct {
	api telegramAPI
}

// NewTelegram wraps an API client as a Messenger.
func NewTelegram(api telegramAPI) *Telegram {
	return &Telegram{api: api}
}

// Post sends the message and returns the assigned message id.
func (t *Telegram) Post(_ context.Context, chatID int64, msg model.Message) (int, error) {
	var out tgbotapi.MessageConfig
	if msg.Content != "" {
		// Relay messages go out as plain text so link previews render.
		out = tgbotapi.NewMessage(chatID, msg.Content)
	} else {
		out = tgbotapi.NewMessage(chatID, RenderHTML(msg))
		out.ParseMode = tgbotapi.ModeHTML
		out.DisableWebPagePreview = true
	}

	sent, err := t.api.Send(out)
	if err != nil {
		return 0, fmt.Errorf("send message: %w", err)
	}
	return sent.MessageID, nil
}

// Edit replaces the content of a previously posted message. A vanished
// target maps to ErrMessageNotFound; an unchanged body is a success.
func (t *Telegram) Edit(_ context.Context, chatID int64, messageID int, msg model.Message) error {
	text := msg.Content
	parseMode := ""
	if text == "" {
		text = RenderHTML(msg)
		parseMode = tgbotapi.ModeHTML
	}

	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = parseMode

	if _, err := t.api.Send(edit); err != nil {
		switch {
		case strings.Contains(err.Error(), "message to edit not found"):
			return fmt.Errorf("%w: %v", ErrMessageNotFound, err)
		case strings.Contains(err.Error(), "message is not modified"):
			return nil
		default:
			return fmt.Errorf("edit message: %w", err)
		}
	}
	return nil
}

// Delete removes a previously posted message.
func (t *Telegram) Delete(_ context.Context, chatID int64, messageID int) error {
	if _, err := t.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

// RenderHTML flattens a digest message into Telegram HTML: linked bold
// title, description, bold field names, italic footer with the build
// timestamp.
func RenderHTML(msg model.Message) string {
	var b strings.Builder

	title := html.EscapeString(msg.Title)
	if msg.URL != "" {
		fmt.Fprintf(&b, `<a href="%s"><b>%s</b></a>`, html.EscapeString(msg.URL), title)
	} else {
		fmt.Fprintf(&b, "<b>%s</b>", title)
	}
	b.WriteString("\n")

	if msg.Description != "" {
		b.WriteString("\n")
		b.WriteString(html.EscapeString(msg.Description))
		b.WriteString("\n")
	}

	for _, f := range msg.Fields {
		fmt.Fprintf(&b, "\n<b>%s</b>\n%s\n", html.EscapeString(f.Name), html.EscapeString(f.Value))
	}

	if msg.Footer != "" {
		fmt.Fprintf(&b, "\n<i>%s</i>", html.EscapeString(msg.Footer))
		if !msg.Timestamp.IsZero() {
			fmt.Fprintf(&b, " • %s", msg.Timestamp.UTC().Format("2 Jan 2006 15:04 MST"))
		}
	}

	return b.String()
}
