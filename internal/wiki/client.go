// Package wiki provides an authenticated MediaWiki page client.
package wiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"
)

// ErrUnavailable is returned when a page cannot be fetched or the server
// answers with a non-200 status.
var ErrUnavailable = errors.New("wiki: page unavailable")

const (
	userAgent   = "DevonaBot/1.0"
	maxPageSize = 5 * 1024 * 1024
)

// Client fetches wiki pages over an authenticated session. Login is
// performed at most once; all methods are safe for concurrent use.
type Client struct {
	hc       *http.Client
	base     string
	username string
	password string
	log      *slog.Logger

	mu       sync.Mutex
	loggedIn bool
}

// NewClient creates a Client for the wiki at base. Credentials may be
// empty, in which case pages are fetched anonymously.
func NewClient(base, username, password string, log *slog.Logger) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		hc: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
		base:     strings.TrimSuffix(base, "/"),
		username: username,
		password: password,
		log:      log,
	}
}

// BaseURL returns the wiki root this client talks to.
func (c *Client) BaseURL() string {
	return c.base
}

// HTTPClient exposes the underlying client for request interception in
// tests.
func (c *Client) HTTPClient() *http.Client {
	return c.hc
}

type tokenResponse struct {
	Query struct {
		Tokens struct {
			LoginToken string `json:"logintoken"`
		} `json:"tokens"`
	} `json:"query"`
}

type loginResponse struct {
	Login struct {
		Result   string `json:"result"`
		Username string `json:"lgusername"`
	} `json:"login"`
}

// Login establishes a wiki session using the MediaWiki login token flow.
// Without configured credentials it is a no-op and pages are fetched
// anonymously. Repeated calls after a successful login return nil.
func (c *Client) Login(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loggedIn {
		return nil
	}
	if c.username == "" || c.password == "" {
		c.log.Debug("wiki credentials not set, fetching without auth")
		return nil
	}

	api := c.base + "/api.php"

	token, err := c.fetchLoginToken(ctx, api)
	if err != nil {
		return fmt.Errorf("fetch login token: %w", err)
	}

	form := url.Values{
		"action":     {"login"},
		"lgname":     {c.username},
		"lgpassword": {c.password},
		"lgtoken":    {token},
		"format":     {"json"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, api, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create login request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("post login: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var result loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode login response: %w", err)
	}
	if result.Login.Result != "Success" {
		return fmt.Errorf("wiki login failed: %s", result.Login.Result)
	}

	c.log.Info("logged into wiki", "user", result.Login.Username)
	c.loggedIn = true
	return nil
}

func (c *Client) fetchLoginToken(ctx context.Context, api string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		api+"?action=query&meta=tokens&type=login&format=json", nil)
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tr.Query.Tokens.LoginToken == "" {
		return "", fmt.Errorf("no login token in response")
	}
	return tr.Query.Tokens.LoginToken, nil
}

// FetchPage downloads a page and returns its HTML. A network failure or
// non-200 status yields ErrUnavailable.
func (c *Client) FetchPage(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	return string(body), nil
}
