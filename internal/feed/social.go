package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"

	"devona/internal/deliver"
	"devona/internal/model"
	"devona/internal/storage"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

const maxFeedSize = 5 * 1024 * 1024

type socialSource struct {
	client  HTTPClient
	feedURL string
	account string
	log     *slog.Logger
}

// NewSocial creates the social-post relay feed. It reads an RSS mirror
// of the account's posts and relays each unseen post as a canonical
// status link, oldest first.
func NewSocial(client HTTPClient, feedURL, account string, store storage.Store, engine *deliver.Engine, chats []int64, log *slog.Logger) *StreamFeed {
	src := &socialSource{client: client, feedURL: feedURL, account: account, log: log.With("feed", model.FeedSocial)}
	return NewStreamFeed(model.FeedSocial, src.collect, store, engine, chats, log)
}

func (s *socialSource) collect(ctx context.Context) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "DevonaBot/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedSize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	parsed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	// Mirrors list newest first; deliver oldest first.
	var items []Item
	for i := len(parsed.Items) - 1; i >= 0; i-- {
		postID := postIDFromLink(parsed.Items[i].Link)
		if postID == "" {
			continue
		}
		link := fmt.Sprintf("https://x.com/%s/status/%s", s.account, postID)
		items = append(items, Item{
			ID:       postID,
			Messages: []model.Message{{Content: link}},
		})
	}
	return items, nil
}

// postIDFromLink extracts the numeric status id from a mirror item
// link, stripping the "#m" fragment mirrors append.
func postIDFromLink(link string) string {
	idx := strings.LastIndex(link, "/")
	if idx < 0 || idx == len(link)-1 {
		return ""
	}
	return strings.TrimSuffix(link[idx+1:], "#m")
}
