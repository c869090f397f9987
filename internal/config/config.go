// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	TelegramBotToken string
	RedisURL         string
	DatabasePath     string
	LogLevel         string
	AdminIDs         []int64
	DisableMessages  bool

	WikiBaseURL  string
	WikiUsername string
	WikiPassword string

	UpdateChannels []int64
	SocialFeedURL  string
	SocialChannels []int64
	SocialAccount  string

	PublishHour     int
	DailyInterval   time.Duration
	EventsInterval  time.Duration
	UpdatesInterval time.Duration
	SocialInterval  time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data/bot.db"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	wikiBase := os.Getenv("WIKI_BASE_URL")
	if wikiBase == "" {
		wikiBase = "https://wiki.guildwars.com"
	}

	account := os.Getenv("SOCIAL_ACCOUNT")
	if account == "" {
		account = "GuildWars"
	}

	adminIDs, err := parseIDList("ADMIN_IDS")
	if err != nil {
		return nil, err
	}
	updateChannels, err := parseIDList("UPDATE_CHANNELS")
	if err != nil {
		return nil, err
	}
	socialChannels, err := parseIDList("SOCIAL_CHANNELS")
	if err != nil {
		return nil, err
	}

	publishHour, err := parseIntDefault("PUBLISH_HOUR", 4)
	if err != nil {
		return nil, err
	}
	if publishHour < 0 || publishHour > 23 {
		return nil, fmt.Errorf("PUBLISH_HOUR must be 0-23, got %d", publishHour)
	}

	daily, err := parseDurationDefault("DAILY_INTERVAL", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	events, err := parseDurationDefault("EVENTS_INTERVAL", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	updates, err := parseDurationDefault("UPDATES_INTERVAL", 30*time.Minute)
	if err != nil {
		return nil, err
	}
	social, err := parseDurationDefault("SOCIAL_INTERVAL", 10*time.Minute)
	if err != nil {
		return nil, err
	}

	return &Config{
		TelegramBotToken: token,
		RedisURL:         os.Getenv("REDIS_URL"),
		DatabasePath:     dbPath,
		LogLevel:         logLevel,
		AdminIDs:         adminIDs,
		DisableMessages:  os.Getenv("DISABLE_MESSAGES") == "true",
		WikiBaseURL:      strings.TrimSuffix(wikiBase, "/"),
		WikiUsername:     os.Getenv("WIKI_USERNAME"),
		WikiPassword:     os.Getenv("WIKI_PASSWORD"),
		UpdateChannels:   updateChannels,
		SocialFeedURL:    os.Getenv("SOCIAL_FEED_URL"),
		SocialChannels:   socialChannels,
		SocialAccount:    account,
		PublishHour:      publishHour,
		DailyInterval:    daily,
		EventsInterval:   events,
		UpdatesInterval:  updates,
		SocialInterval:   social,
	}, nil
}

// IsAdmin checks whether a user ID is in the admin list.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func parseIDList(name string) ([]int64, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return nil, nil
	}
	var ids []int64
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ID %q in %s: %w", s, name, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseIntDefault(name string, def int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, raw, err)
	}
	return n, nil
}

func parseDurationDefault(name string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", name, raw)
	}
	return d, nil
}
