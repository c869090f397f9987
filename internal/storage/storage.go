// Package storage defines the durable state interface and its backends.
package storage

import (
	"context"
	"errors"

	"devona/internal/model"
)

// ErrUnavailable is returned after retries against the backing store
// are exhausted. Callers treat it as fatal to the current cycle.
var ErrUnavailable = errors.New("storage unavailable")

// Store persists subscriptions, delivery records, run dates, and seen
// items. Implementations must be safe for concurrent use by independent
// feed drivers; semantics are last-writer-wins per key.
type Store interface {
	AddSubscription(ctx context.Context, kind model.FeedKind, sub model.Subscription) error
	RemoveSubscription(ctx context.Context, kind model.FeedKind, sub model.Subscription) error
	IsSubscribed(ctx context.Context, kind model.FeedKind, sub model.Subscription) (bool, error)
	ListSubscriptions(ctx context.Context, kind model.FeedKind) ([]model.Subscription, error)

	DeliveryRecord(ctx context.Context, kind model.FeedKind, chatID int64) (messageID int, ok bool, err error)
	SetDeliveryRecord(ctx context.Context, kind model.FeedKind, chatID int64, messageID int) error
	ClearDeliveryRecord(ctx context.Context, kind model.FeedKind, chatID int64) error

	LastRunDate(ctx context.Context, kind model.FeedKind) (string, error)
	SetLastRunDate(ctx context.Context, kind model.FeedKind, date string) error

	HasSeen(ctx context.Context, kind model.FeedKind, itemID string) (bool, error)
	MarkSeen(ctx context.Context, kind model.FeedKind, itemID string) error

	Close() error
}
