// Package fantasy is a thin client for the Yahoo Fantasy Sports API.
// Every call borrows a provider access token from the token lifecycle, so callers
// never see or store provider tokens themselves.
package fantasy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
}

// SetLogger replaces the package logger
func SetLogger(l *logrus.Logger) {
	if l != nil {
		log = l
	}
}

var (
	ErrUpstreamUnauthorized = errors.New("fantasy api rejected the access token")
	ErrUpstreamUnavailable  = errors.New("fantasy api unavailable")
	ErrUpstreamNotFound     = errors.New("fantasy api resource not found")
	ErrUnknownResource      = errors.New("unknown league resource")
)

// Resources that can be requested for a league
const (
	ResourceStandings    = "standings"
	ResourceScoreboard   = "scoreboard"
	ResourceTransactions = "transactions"
	ResourceTeams        = "teams"
	ResourceSettings     = "settings"
)

var knownResources = map[string]bool{
	ResourceStandings:    true,
	ResourceScoreboard:   true,
	ResourceTransactions: true,
	ResourceTeams:        true,
	ResourceSettings:     true,
}

// IsKnownResource reports whether resource can be fetched for a league
func IsKnownResource(resource string) bool {
	return knownResources[resource]
}

// TokenSource hands out a currently valid provider access token for an account
type TokenSource interface {
	GetValidAccessToken(ctx context.Context, accountGUID string) (string, error)
}

type Client struct {
	tokens TokenSource
	base   string
	http   *http.Client
}

func NewClient(tokens TokenSource, apiBase string, timeout time.Duration) *Client {
	return &Client{
		tokens: tokens,
		base:   strings.TrimRight(apiBase, "/"),
		http:   &http.Client{Timeout: timeout},
	}
}

// Get calls endpoint on behalf of the account and returns the raw JSON body
func (c *Client) Get(ctx context.Context, accountGUID, endpoint string, params url.Values) ([]byte, error) {
	token, err := c.tokens.GetValidAccessToken(ctx, accountGUID)
	if err != nil {
		return nil, err
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("format", "json")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrUpstreamUnavailable, err)
	}

	log.WithFields(logrus.Fields{
		"account_id": accountGUID,
		"endpoint":   endpoint,
		"status":     resp.StatusCode,
		"latency":    time.Since(start).String(),
	}).Debug("Fantasy API call")

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrUpstreamUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrUpstreamNotFound
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: status %d", ErrUpstreamUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("fantasy api returned %d", resp.StatusCode)
	}
	return body, nil
}

// UserLeagues lists the basketball leagues of the logged in account
func (c *Client) UserLeagues(ctx context.Context, accountGUID string) ([]byte, error) {
	return c.Get(ctx, accountGUID, "/users;use_login=1/games;game_keys=nba/leagues", nil)
}

// LeagueResource fetches one resource of a league. week is only used by the scoreboard; 0 means current.
func (c *Client) LeagueResource(ctx context.Context, accountGUID, leagueKey, resource string, week int) ([]byte, error) {
	if !IsKnownResource(resource) {
		return nil, ErrUnknownResource
	}
	endpoint := fmt.Sprintf("/league/%s/%s", url.PathEscape(leagueKey), resource)
	if resource == ResourceScoreboard && week > 0 {
		endpoint += fmt.Sprintf(";week=%d", week)
	}
	return c.Get(ctx, accountGUID, endpoint, nil)
}
