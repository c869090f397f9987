package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sethvargo/go-retry"

	"devona/internal/model"
)

const (
	redisTimeout    = 10 * time.Second
	redisMaxRetries = 3
	redisBackoff    = 1 * time.Second
)

// Redis implements Store on a Redis keyspace. Every operation retries
// transient failures a bounded number of times with a fixed backoff
// before surfacing ErrUnavailable.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to the Redis instance at url and verifies the
// connection with a ping.
func NewRedis(url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = redisTimeout
	opts.ReadTimeout = redisTimeout
	opts.WriteTimeout = redisTimeout

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Redis{client: client}, nil
}

// Close closes the underlying connection pool.
func (s *Redis) Close() error {
	return s.client.Close()
}

func (s *Redis) withRetry(ctx context.Context, op func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(redisMaxRetries, retry.NewConstant(redisBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := op(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func subsKey(kind model.FeedKind) string {
	return string(kind) + ":subscriptions"
}

func msgKey(kind model.FeedKind, chatID int64) string {
	return fmt.Sprintf("%s:message:%d", kind, chatID)
}

func lastRunKey(kind model.FeedKind) string {
	return string(kind) + ":last_update"
}

func seenKey(kind model.FeedKind) string {
	return string(kind) + ":seen"
}

func subMember(sub model.Subscription) string {
	return fmt.Sprintf("%d:%d", sub.CommunityID, sub.ChatID)
}

func parseSubMember(member string) (model.Subscription, error) {
	communityStr, chatStr, found := strings.Cut(member, ":")
	if !found {
		return model.Subscription{}, fmt.Errorf("malformed subscription %q", member)
	}
	community, err := strconv.ParseInt(communityStr, 10, 64)
	if err != nil {
		return model.Subscription{}, fmt.Errorf("malformed subscription %q: %w", member, err)
	}
	chat, err := strconv.ParseInt(chatStr, 10, 64)
	if err != nil {
		return model.Subscription{}, fmt.Errorf("malformed subscription %q: %w", member, err)
	}
	return model.Subscription{CommunityID: community, ChatID: chat}, nil
}

// AddSubscription adds the chat to the feed's subscription set.
func (s *Redis) AddSubscription(ctx context.Context, kind model.FeedKind, sub model.Subscription) error {
	return s.withRetry(ctx, func(ctx context.Context) error {
		return s.client.SAdd(ctx, subsKey(kind), subMember(sub)).Err()
	})
}

// RemoveSubscription removes the chat from the feed's subscription set.
func (s *Redis) RemoveSubscription(ctx context.Context, kind model.FeedKind, sub model.Subscription) error {
	return s.withRetry(ctx, func(ctx context.Context) error {
		return s.client.SRem(ctx, subsKey(kind), subMember(sub)).Err()
	})
}

// IsSubscribed reports set membership for the chat.
func (s *Redis) IsSubscribed(ctx context.Context, kind model.FeedKind, sub model.Subscription) (bool, error) {
	var member bool
	err := s.withRetry(ctx, func(ctx context.Context) error {
		var opErr error
		member, opErr = s.client.SIsMember(ctx, subsKey(kind), subMember(sub)).Result()
		return opErr
	})
	return member, err
}

// ListSubscriptions returns the feed's subscriptions. Malformed members
// are skipped.
func (s *Redis) ListSubscriptions(ctx context.Context, kind model.FeedKind) ([]model.Subscription, error) {
	var members []string
	err := s.withRetry(ctx, func(ctx context.Context) error {
		var opErr error
		members, opErr = s.client.SMembers(ctx, subsKey(kind)).Result()
		return opErr
	})
	if err != nil {
		return nil, err
	}

	var subs []model.Subscription
	for _, m := range members {
		sub, err := parseSubMember(m)
		if err != nil {
			continue
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// DeliveryRecord returns the last delivered message id for the chat.
func (s *Redis) DeliveryRecord(ctx context.Context, kind model.FeedKind, chatID int64) (int, bool, error) {
	var (
		id int
		ok bool
	)
	err := s.withRetry(ctx, func(ctx context.Context) error {
		val, opErr := s.client.Get(ctx, msgKey(kind, chatID)).Result()
		if errors.Is(opErr, redis.Nil) {
			return nil
		}
		if opErr != nil {
			return opErr
		}
		n, convErr := strconv.Atoi(val)
		if convErr != nil {
			return nil
		}
		id, ok = n, true
		return nil
	})
	return id, ok, err
}

// SetDeliveryRecord overwrites the chat's last delivered message id.
func (s *Redis) SetDeliveryRecord(ctx context.Context, kind model.FeedKind, chatID int64, messageID int) error {
	return s.withRetry(ctx, func(ctx context.Context) error {
		return s.client.Set(ctx, msgKey(kind, chatID), strconv.Itoa(messageID), 0).Err()
	})
}

// ClearDeliveryRecord deletes the chat's delivery record.
func (s *Redis) ClearDeliveryRecord(ctx context.Context, kind model.FeedKind, chatID int64) error {
	return s.withRetry(ctx, func(ctx context.Context) error {
		return s.client.Del(ctx, msgKey(kind, chatID)).Err()
	})
}

// LastRunDate returns the feed's last completed run date, or "" when
// the feed has never run.
func (s *Redis) LastRunDate(ctx context.Context, kind model.FeedKind) (string, error) {
	var date string
	err := s.withRetry(ctx, func(ctx context.Context) error {
		val, opErr := s.client.Get(ctx, lastRunKey(kind)).Result()
		if errors.Is(opErr, redis.Nil) {
			return nil
		}
		if opErr != nil {
			return opErr
		}
		date = val
		return nil
	})
	return date, err
}

// SetLastRunDate records the feed's last completed run date.
func (s *Redis) SetLastRunDate(ctx context.Context, kind model.FeedKind, date string) error {
	return s.withRetry(ctx, func(ctx context.Context) error {
		return s.client.Set(ctx, lastRunKey(kind), date, 0).Err()
	})
}

// HasSeen reports whether the item id is in the feed's seen set.
func (s *Redis) HasSeen(ctx context.Context, kind model.FeedKind, itemID string) (bool, error) {
	var seen bool
	err := s.withRetry(ctx, func(ctx context.Context) error {
		var opErr error
		seen, opErr = s.client.SIsMember(ctx, seenKey(kind), itemID).Result()
		return opErr
	})
	return seen, err
}

// MarkSeen adds the item id to the feed's seen set.
func (s *Redis) MarkSeen(ctx context.Context, kind model.FeedKind, itemID string) error {
	return s.withRetry(ctx, func(ctx context.Context) error {
		return s.client.SAdd(ctx, seenKey(kind), itemID).Err()
	})
}
