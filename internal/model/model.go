// Package model defines the domain types used across the application.
package model

import "time"

// FeedKind identifies one of the content pipelines. The string value is
// used as the key prefix in the state store.
type FeedKind string

// Supported feed kinds.
const (
	FeedDaily   FeedKind = "daily_activities"
	FeedEvents  FeedKind = "special_events"
	FeedUpdates FeedKind = "game_updates"
	FeedSocial  FeedKind = "social_posts"
)

// Subscription identifies a chat that receives a feed's digests.
// CommunityID is the group the subscription was created from; ChatID is
// the destination messages are delivered to.
type Subscription struct {
	CommunityID int64
	ChatID      int64
}

// Field is a single named section of a digest message.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Message is one bounded delivery unit. Digest messages carry a title
// and fields; relay messages carry plain Content and nothing else.
type Message struct {
	Title       string
	URL         string
	Description string
	Content     string
	Fields      []Field
	Footer      string
	Timestamp   time.Time
}

// Bonus is one weekly bonus entry from the wiki.
type Bonus struct {
	Name        string
	Date        string
	Description string
}

// ZaishenQuest is one day's row of the zaishen quest rotation.
// TotalCoins is zero when the reward cell could not be parsed.
type ZaishenQuest struct {
	Date       string
	Mission    string
	Bounty     string
	Combat     string
	Vanquish   string
	TotalCoins int
}

// NicholasGift is the current week's row of the traveling collector cycle.
type NicholasGift struct {
	Week     string
	Item     string
	Location string
	Region   string
	Campaign string
}

// DailyExtras holds the remaining columns of the daily activities table.
type DailyExtras struct {
	Vanguard      string
	VanguardTitle string
	Sandford      string
}

// Event is one recurring special event row.
type Event struct {
	Name     string
	MonthDay string
	Time     string
	Size     string
	Notes    string
}

// UpcomingEvent is an Event resolved to its next occurrence.
type UpcomingEvent struct {
	Event
	At time.Time
}

// UpdateSection is a top-level heading of a game-update page with its
// intro paragraphs, loose bullet items, and subsections.
type UpdateSection struct {
	Title       string
	Intro       []string
	Items       []string
	Subsections []UpdateSubsection
}

// UpdateSubsection groups items and named features under a section.
type UpdateSubsection struct {
	Title    string
	Items    []string
	Features []UpdateFeature
}

// UpdateFeature is a named block of bullet items within a subsection.
type UpdateFeature struct {
	Title string
	Items []string
}
