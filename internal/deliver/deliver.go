// Package deliver pushes built messages to chat destinations, editing a
// previously delivered message in place when one is on record.
package deliver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"devona/internal/model"
	"devona/internal/storage"
)

// ErrMessageNotFound signals that an edit target no longer exists and a
// fresh post should be made instead.
var ErrMessageNotFound = errors.New("deliver: message not found")

// Messenger is the outbound messaging surface.
type Messenger interface {
	Post(ctx context.Context, chatID int64, msg model.Message) (messageID int, err error)
	Edit(ctx context.Context, chatID int64, messageID int, msg model.Message) error
	Delete(ctx context.Context, chatID int64, messageID int) error
}

// Outcome describes what happened for one destination.
type Outcome string

// Per-destination delivery outcomes.
const (
	OutcomeEdited  Outcome = "edited"
	OutcomePosted  Outcome = "posted"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Result is the delivery outcome for a single destination.
type Result struct {
	ChatID    int64
	Outcome   Outcome
	MessageID int
	Err       error
}

// Engine delivers message sequences for one feed kind. Consecutive
// sends are paced by a fixed inter-send delay; the messaging surface
// enforces throughput ceilings of its own, so the delay is part of the
// delivery contract. With dryRun set the full pipeline runs but all
// network effects are suppressed.
type Engine struct {
	msgr    Messenger
	store   storage.Store
	limiter *rate.Limiter
	dryRun  bool
	log     *slog.Logger
}

// NewEngine creates an Engine pacing sends at one per interval.
func NewEngine(msgr Messenger, store storage.Store, interval time.Duration, dryRun bool, log *slog.Logger) *Engine {
	return &Engine{
		msgr:    msgr,
		store:   store,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		dryRun:  dryRun,
		log:     log,
	}
}

// DryRun reports whether network effects are suppressed.
func (e *Engine) DryRun() bool {
	return e.dryRun
}

// Broadcast delivers msgs to every destination in turn. A failure for
// one destination never blocks its siblings; the aggregate outcomes are
// returned for logging.
func (e *Engine) Broadcast(ctx context.Context, kind model.FeedKind, msgs []model.Message, chatIDs []int64) []Result {
	results := make([]Result, 0, len(chatIDs))
	for _, chatID := range chatIDs {
		if ctx.Err() != nil {
			break
		}
		results = append(results, e.Send(ctx, kind, chatID, msgs))
	}
	return results
}

// Send delivers msgs to one destination. The first message is edited in
// place when a delivery record exists, falling back to a fresh post if
// the edit target vanished; continuation messages are always posted
// fresh. The delivery record tracks the first message only.
func (e *Engine) Send(ctx context.Context, kind model.FeedKind, chatID int64, msgs []model.Message) Result {
	if len(msgs) == 0 {
		return Result{ChatID: chatID, Outcome: OutcomeSkipped}
	}
	if e.dryRun {
		e.log.Debug("dry run, suppressing send", "kind", kind, "chat_id", chatID, "messages", len(msgs))
		return Result{ChatID: chatID, Outcome: OutcomeSkipped}
	}

	res := e.sendFirst(ctx, kind, chatID, msgs[0])
	if res.Outcome == OutcomeFailed {
		return res
	}

	for _, msg := range msgs[1:] {
		if err := e.limiter.Wait(ctx); err != nil {
			break
		}
		if _, err := e.msgr.Post(ctx, chatID, msg); err != nil {
			e.log.Error("post continuation", "kind", kind, "chat_id", chatID, "error", err)
		}
	}
	return res
}

func (e *Engine) sendFirst(ctx context.Context, kind model.FeedKind, chatID int64, msg model.Message) Result {
	if err := e.limiter.Wait(ctx); err != nil {
		return Result{ChatID: chatID, Outcome: OutcomeFailed, Err: err}
	}

	prevID, ok, err := e.store.DeliveryRecord(ctx, kind, chatID)
	if err != nil {
		return Result{ChatID: chatID, Outcome: OutcomeFailed, Err: err}
	}

	if ok {
		err := e.msgr.Edit(ctx, chatID, prevID, msg)
		switch {
		case err == nil:
			return Result{ChatID: chatID, Outcome: OutcomeEdited, MessageID: prevID}
		case errors.Is(err, ErrMessageNotFound):
			e.log.Info("previous message gone, posting new one", "kind", kind, "chat_id", chatID, "message_id", prevID)
		default:
			return Result{ChatID: chatID, Outcome: OutcomeFailed, Err: fmt.Errorf("edit message %d: %w", prevID, err)}
		}
	}

	newID, err := e.msgr.Post(ctx, chatID, msg)
	if err != nil {
		return Result{ChatID: chatID, Outcome: OutcomeFailed, Err: fmt.Errorf("post message: %w", err)}
	}
	if err := e.store.SetDeliveryRecord(ctx, kind, chatID, newID); err != nil {
		return Result{ChatID: chatID, Outcome: OutcomePosted, MessageID: newID, Err: err}
	}
	return Result{ChatID: chatID, Outcome: OutcomePosted, MessageID: newID}
}

// Publish posts msgs to one destination without touching delivery
// records. Used by the item-stream feeds, where every item is new.
func (e *Engine) Publish(ctx context.Context, chatID int64, msgs []model.Message) error {
	for _, msg := range msgs {
		if e.dryRun {
			e.log.Debug("dry run, suppressing post", "chat_id", chatID)
			continue
		}
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}
		if _, err := e.msgr.Post(ctx, chatID, msg); err != nil {
			return fmt.Errorf("post message: %w", err)
		}
	}
	return nil
}

// Retract deletes the destination's recorded message best-effort and
// clears the record regardless of the delete outcome.
func (e *Engine) Retract(ctx context.Context, kind model.FeedKind, chatID int64) error {
	prevID, ok, err := e.store.DeliveryRecord(ctx, kind, chatID)
	if err != nil {
		return err
	}
	if ok && !e.dryRun {
		if err := e.msgr.Delete(ctx, chatID, prevID); err != nil {
			e.log.Warn("delete recorded message", "kind", kind, "chat_id", chatID, "message_id", prevID, "error", err)
		}
	}
	return e.store.ClearDeliveryRecord(ctx, kind, chatID)
}
