package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/payload"
	"golang.org/x/oauth2"
)

const (
	yahooScope       = "fspt-r"
	yahooGUIDField   = "xoauth_yahoo_guid"
	identityGUIDPath = "fantasy_content.users.0.user.0.guid"
	identityNamePath = "fantasy_content.users.0.user.1.profile.display_name"

	defaultTokenLifetime = time.Hour
)

// ProviderToken is a token response normalized to UTC
type ProviderToken struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Expiry       time.Time
	// AccountGUID is empty when the token response carried no identity claim
	AccountGUID string
}

// Identity is the result of the provider's "who am I" lookup
type Identity struct {
	GUID        string
	DisplayName string
}

// Provider is the identity provider as seen by the Manager
type Provider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*ProviderToken, error)
	Refresh(ctx context.Context, refreshToken string) (*ProviderToken, error)
	FetchIdentity(ctx context.Context, accessToken string) (*Identity, error)
}

// YahooConfig holds the client registration and endpoints for Yahoo
type YahooConfig struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	RedirectURL  string
	APIBase      string
	Timeout      time.Duration
}

// YahooProvider talks to Yahoo's OAuth2 and fantasy user endpoints
type YahooProvider struct {
	oauth   *oauth2.Config
	apiBase string
	client  *http.Client
	now     func() time.Time
}

// NewYahooProvider builds a provider with a bounded HTTP client
func NewYahooProvider(cfg YahooConfig) *YahooProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &YahooProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{yahooScope},
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		apiBase: strings.TrimRight(cfg.APIBase, "/"),
		client:  &http.Client{Timeout: timeout},
		now:     time.Now,
	}
}

func (p *YahooProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

func (p *YahooProvider) Exchange(ctx context.Context, code string) (*ProviderToken, error) {
	tok, err := p.oauth.Exchange(p.withClient(ctx), code)
	if err != nil {
		return nil, classifyProviderError("code exchange", err)
	}
	return p.normalize(tok, ""), nil
}

// Refresh trades a refresh token for a new pair. The old refresh token is kept
// when the provider does not rotate it.
func (p *YahooProvider) Refresh(ctx context.Context, refreshToken string) (*ProviderToken, error) {
	src := p.oauth.TokenSource(p.withClient(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, classifyProviderError("token refresh", err)
	}
	return p.normalize(tok, refreshToken), nil
}

// FetchIdentity resolves the account GUID when the token response lacks it
func (p *YahooProvider) FetchIdentity(ctx context.Context, accessToken string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiBase+"/users;use_login=1?format=json", nil)
	if err != nil {
		return nil, fmt.Errorf("build identity request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, classifyProviderError("identity lookup", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read identity response: %w", ErrProviderUnavailable, err)
	}
	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: identity lookup returned %d", ErrProviderUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: identity lookup returned %d: %s", ErrProviderAuth, resp.StatusCode, truncate(body))
	}

	return &Identity{
		GUID:        payload.LookupString(body, identityGUIDPath, ""),
		DisplayName: payload.LookupString(body, identityNamePath, ""),
	}, nil
}

func (p *YahooProvider) withClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.client)
}

func (p *YahooProvider) normalize(tok *oauth2.Token, previousRefresh string) *ProviderToken {
	expiry := tok.Expiry
	if expiry.IsZero() {
		expiry = p.now().Add(defaultTokenLifetime)
	}
	refresh := tok.RefreshToken
	if refresh == "" {
		refresh = previousRefresh
	}
	guid, _ := tok.Extra(yahooGUIDField).(string)

	return &ProviderToken{
		AccessToken:  tok.AccessToken,
		RefreshToken: refresh,
		TokenType:    tok.TokenType,
		Expiry:       expiry.UTC(),
		AccountGUID:  guid,
	}
}

// classifyProviderError maps transport and token endpoint failures onto
// ErrProviderUnavailable (retryable) or ErrProviderAuth (terminal).
func classifyProviderError(operation string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		status := 0
		if retrieveErr.Response != nil {
			status = retrieveErr.Response.StatusCode
		}
		if status >= 500 || status == http.StatusTooManyRequests {
			return fmt.Errorf("%w: %s returned %d", ErrProviderUnavailable, operation, status)
		}
		return fmt.Errorf("%w: %s: %s %s", ErrProviderAuth, operation, retrieveErr.ErrorCode, truncate(retrieveErr.Body))
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %w", ErrProviderUnavailable, operation, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrProviderAuth, operation, err)
}

func truncate(body []byte) string {
	const max = 256
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
