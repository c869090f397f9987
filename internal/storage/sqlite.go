package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"devona/internal/model"
	"devona/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Store on an embedded database, for single-box
// deployments that run without a Redis instance.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func now() string {
	return time.Now().UTC().Format(timeLayout)
}

// AddSubscription inserts the subscription; re-subscribing is a no-op.
func (s *SQLite) AddSubscription(ctx context.Context, kind model.FeedKind, sub model.Subscription) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO subscriptions (kind, community_id, chat_id, created_at) VALUES (?, ?, ?, ?)`,
		string(kind), sub.CommunityID, sub.ChatID, now(),
	)
	if err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

// RemoveSubscription deletes the subscription.
func (s *SQLite) RemoveSubscription(ctx context.Context, kind model.FeedKind, sub model.Subscription) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM subscriptions WHERE kind = ? AND community_id = ? AND chat_id = ?`,
		string(kind), sub.CommunityID, sub.ChatID,
	)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}

// IsSubscribed reports whether the subscription exists.
func (s *SQLite) IsSubscribed(ctx context.Context, kind model.FeedKind, sub model.Subscription) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM subscriptions WHERE kind = ? AND community_id = ? AND chat_id = ?`,
		string(kind), sub.CommunityID, sub.ChatID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check subscription: %w", err)
	}
	return count > 0, nil
}

// ListSubscriptions returns the feed's subscriptions ordered by chat id.
func (s *SQLite) ListSubscriptions(ctx context.Context, kind model.FeedKind) ([]model.Subscription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT community_id, chat_id FROM subscriptions WHERE kind = ? ORDER BY chat_id`,
		string(kind),
	)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var subs []model.Subscription
	for rows.Next() {
		var sub model.Subscription
		if err := rows.Scan(&sub.CommunityID, &sub.ChatID); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// DeliveryRecord returns the last delivered message id for the chat.
func (s *SQLite) DeliveryRecord(ctx context.Context, kind model.FeedKind, chatID int64) (int, bool, error) {
	var id int
	err := s.db.QueryRowContext(ctx,
		`SELECT message_id FROM delivery_records WHERE kind = ? AND chat_id = ?`,
		string(kind), chatID,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query delivery record: %w", err)
	}
	return id, true, nil
}

// SetDeliveryRecord overwrites the chat's last delivered message id.
func (s *SQLite) SetDeliveryRecord(ctx context.Context, kind model.FeedKind, chatID int64, messageID int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO delivery_records (kind, chat_id, message_id, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (kind, chat_id) DO UPDATE SET message_id = excluded.message_id, updated_at = excluded.updated_at`,
		string(kind), chatID, messageID, now(),
	)
	if err != nil {
		return fmt.Errorf("upsert delivery record: %w", err)
	}
	return nil
}

// ClearDeliveryRecord deletes the chat's delivery record.
func (s *SQLite) ClearDeliveryRecord(ctx context.Context, kind model.FeedKind, chatID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM delivery_records WHERE kind = ? AND chat_id = ?`,
		string(kind), chatID,
	)
	if err != nil {
		return fmt.Errorf("delete delivery record: %w", err)
	}
	return nil
}

// LastRunDate returns the feed's last completed run date, or "" when
// the feed has never run.
func (s *SQLite) LastRunDate(ctx context.Context, kind model.FeedKind) (string, error) {
	var date string
	err := s.db.QueryRowContext(ctx,
		`SELECT last_update FROM run_state WHERE kind = ?`, string(kind),
	).Scan(&date)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query run state: %w", err)
	}
	return date, nil
}

// SetLastRunDate records the feed's last completed run date.
func (s *SQLite) SetLastRunDate(ctx context.Context, kind model.FeedKind, date string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO run_state (kind, last_update) VALUES (?, ?)
		 ON CONFLICT (kind) DO UPDATE SET last_update = excluded.last_update`,
		string(kind), date,
	)
	if err != nil {
		return fmt.Errorf("upsert run state: %w", err)
	}
	return nil
}

// HasSeen reports whether the item has already been delivered.
func (s *SQLite) HasSeen(ctx context.Context, kind model.FeedKind, itemID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM seen_items WHERE kind = ? AND item_id = ?`,
		string(kind), itemID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check seen: %w", err)
	}
	return count > 0, nil
}

// MarkSeen records the item as delivered.
func (s *SQLite) MarkSeen(ctx context.Context, kind model.FeedKind, itemID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO seen_items (kind, item_id, seen_at) VALUES (?, ?, ?)`,
		string(kind), itemID, now(),
	)
	if err != nil {
		return fmt.Errorf("mark seen: %w", err)
	}
	return nil
}
