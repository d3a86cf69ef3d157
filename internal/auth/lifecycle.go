package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const stateBytes = 32

// ManagerConfig tunes the token lifecycle
type ManagerConfig struct {
	// RefreshMargin is how close to expiry a token is treated as expired
	RefreshMargin time.Duration
	LoginStateTTL time.Duration
	Retry         RetryPolicy
	// RefreshLease bounds how long one instance may hold an account's refresh
	RefreshLease time.Duration
	// RefreshPoll is how often an instance waiting on another's refresh re-reads the pair
	RefreshPoll time.Duration
}

// Manager owns every conversation with the identity provider and every write of
// token fields. Refreshes for one account are collapsed into a single provider call:
// in process through singleflight, across instances through a lease on the stored pair.
type Manager struct {
	provider Provider
	store    CredentialStore
	states   StateStore
	cfg      ManagerConfig
	now      func() time.Time

	refreshes singleflight.Group
}

func NewManager(provider Provider, store CredentialStore, states StateStore, cfg ManagerConfig) *Manager {
	if cfg.RefreshMargin <= 0 {
		cfg.RefreshMargin = 60 * time.Second
	}
	if cfg.LoginStateTTL <= 0 {
		cfg.LoginStateTTL = 10 * time.Minute
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryPolicy
	}
	if cfg.RefreshLease <= 0 {
		cfg.RefreshLease = time.Minute
	}
	if cfg.RefreshPoll <= 0 {
		cfg.RefreshPoll = 250 * time.Millisecond
	}
	return &Manager{
		provider: provider,
		store:    store,
		states:   states,
		cfg:      cfg,
		now:      time.Now,
	}
}

// WithClock replaces the time source
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// BeginLogin creates the anti-forgery state for the browser session and returns
// the provider authorization URL embedding it. No network call is made.
func (m *Manager) BeginLogin(ctx context.Context, sessionKey string) (string, string, error) {
	state, err := randomToken(stateBytes)
	if err != nil {
		return "", "", err
	}
	if err := m.states.Save(ctx, sessionKey, state, m.cfg.LoginStateTTL); err != nil {
		return "", "", fmt.Errorf("save login state: %w", err)
	}
	return m.provider.AuthCodeURL(state), state, nil
}

// TakeExpectedState returns the state saved by BeginLogin once; later calls get ""
func (m *Manager) TakeExpectedState(ctx context.Context, sessionKey string) (string, error) {
	if sessionKey == "" {
		return "", nil
	}
	return m.states.Take(ctx, sessionKey)
}

// CompleteLogin verifies the returned state, exchanges the grant, resolves the
// account GUID and stores the account with its credential pair.
func (m *Manager) CompleteLogin(ctx context.Context, code, returnedState, expectedState string) (*models.Account, error) {
	if expectedState == "" || subtle.ConstantTimeCompare([]byte(returnedState), []byte(expectedState)) != 1 {
		return nil, ErrStateMismatch
	}

	var tok *ProviderToken
	err := m.cfg.Retry.do(ctx, "code exchange", func(ctx context.Context) error {
		var err error
		tok, err = m.provider.Exchange(ctx, code)
		return err
	})
	if err != nil {
		return nil, err
	}

	account := &models.Account{GUID: tok.AccountGUID, LastLoginAt: m.now().UTC()}
	if account.GUID == "" {
		// the token response only carries the GUID for some scope configurations
		identity, err := m.resolveIdentity(ctx, tok.AccessToken)
		if err != nil {
			return nil, err
		}
		account.GUID = identity.GUID
		account.DisplayName = identity.DisplayName
	}

	if err := m.store.UpsertAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("upsert account: %w", err)
	}
	cred := &models.Credential{
		AccountGUID:  account.GUID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		ExpiresAt:    tok.Expiry,
	}
	if err := m.store.SaveCredential(ctx, cred); err != nil {
		return nil, fmt.Errorf("save credential: %w", err)
	}

	log.WithFields(logrus.Fields{
		"account_id": account.GUID,
		"expires_at": cred.ExpiresAt,
	}).Info("Login completed")
	return account, nil
}

func (m *Manager) resolveIdentity(ctx context.Context, accessToken string) (*Identity, error) {
	var identity *Identity
	err := m.cfg.Retry.do(ctx, "identity lookup", func(ctx context.Context) error {
		var err error
		identity, err = m.provider.FetchIdentity(ctx, accessToken)
		return err
	})
	if errors.Is(err, ErrProviderUnavailable) {
		return nil, err
	}
	if err != nil || identity == nil || identity.GUID == "" {
		log.WithFields(logrus.Fields{
			"error":         fmt.Sprint(err),
			"identity_seen": identity != nil,
		}).Error("Could not resolve account identifier from token response or identity endpoint")
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrIdentityResolution, err)
		}
		return nil, ErrIdentityResolution
	}
	return identity, nil
}

// GetValidAccessToken returns a provider access token for the account that is
// valid for longer than the refresh margin, refreshing it first if needed.
func (m *Manager) GetValidAccessToken(ctx context.Context, accountGUID string) (string, error) {
	return m.RefreshIfExpiring(ctx, accountGUID, m.cfg.RefreshMargin)
}

// RefreshIfExpiring refreshes the account's pair when it expires within the window
func (m *Manager) RefreshIfExpiring(ctx context.Context, accountGUID string, within time.Duration) (string, error) {
	cred, err := m.store.GetCredential(ctx, accountGUID)
	if err != nil {
		return "", err
	}
	if !cred.ExpiresWithin(m.now(), within) {
		return cred.AccessToken, nil
	}

	// callers share one flight; it must not die with whichever request started it
	flightCtx := context.WithoutCancel(ctx)
	v, err, shared := m.refreshes.Do(accountGUID, func() (interface{}, error) {
		return m.refresh(flightCtx, accountGUID, within)
	})
	if err != nil {
		return "", err
	}
	if shared {
		log.WithField("account_id", accountGUID).Debug("Joined in-flight token refresh")
	}
	return v.(string), nil
}

func (m *Manager) refresh(ctx context.Context, accountGUID string, within time.Duration) (string, error) {
	// a flight that finished just before this one may already have rotated the pair
	cred, err := m.store.GetCredential(ctx, accountGUID)
	if err != nil {
		return "", err
	}
	if !cred.ExpiresWithin(m.now(), within) {
		return cred.AccessToken, nil
	}

	cred, token, err := m.claimRefresh(ctx, cred, within)
	if err != nil || cred == nil {
		return token, err
	}

	var tok *ProviderToken
	err = m.cfg.Retry.do(ctx, "token refresh", func(ctx context.Context) error {
		var err error
		tok, err = m.provider.Refresh(ctx, cred.RefreshToken)
		return err
	})
	if errors.Is(err, ErrProviderAuth) {
		// the provider rejects a token another instance already rotated
		if current, getErr := m.store.GetCredential(ctx, accountGUID); getErr == nil && current.RefreshToken != cred.RefreshToken {
			log.WithField("account_id", accountGUID).Info("Refresh token rotated elsewhere, using the new pair")
			return current.AccessToken, nil
		}
		if delErr := m.store.DeleteCredential(ctx, accountGUID, cred.RefreshToken); delErr != nil {
			log.WithError(delErr).WithField("account_id", accountGUID).Error("Failed to drop rejected credential")
		}
		log.WithFields(logrus.Fields{
			"account_id": accountGUID,
			"error":      err.Error(),
		}).Warn("Refresh token rejected, account must log in again")
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	if err != nil {
		if relErr := m.store.ReleaseRefresh(ctx, accountGUID, cred.RefreshToken); relErr != nil {
			log.WithError(relErr).WithField("account_id", accountGUID).Warn("Failed to release refresh lease")
		}
		return "", err
	}

	next := &models.Credential{
		AccountGUID:  accountGUID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		ExpiresAt:    tok.Expiry,
	}
	replaced, err := m.store.ReplaceCredential(ctx, next, cred.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("persist refreshed credential: %w", err)
	}
	if !replaced {
		// another instance rotated the pair first; its token is the one to use
		winner, err := m.store.GetCredential(ctx, accountGUID)
		if err != nil {
			return "", err
		}
		log.WithField("account_id", accountGUID).Info("Credential refreshed concurrently elsewhere")
		return winner.AccessToken, nil
	}

	log.WithFields(logrus.Fields{
		"account_id": accountGUID,
		"expires_at": next.ExpiresAt,
	}).Info("Access token refreshed")
	return next.AccessToken, nil
}

// claimRefresh takes the account's refresh lease and returns the pair to refresh.
// While another instance holds the lease it waits for that refresh instead and
// returns a nil pair with the access token the other instance stored.
func (m *Manager) claimRefresh(ctx context.Context, cred *models.Credential, within time.Duration) (*models.Credential, string, error) {
	polls := int(m.cfg.RefreshLease/m.cfg.RefreshPoll) + 1
	for i := 0; ; i++ {
		now := m.now()
		claimed, err := m.store.ClaimRefresh(ctx, cred.AccountGUID, cred.RefreshToken, now, now.Add(m.cfg.RefreshLease))
		if err != nil {
			return nil, "", fmt.Errorf("claim refresh: %w", err)
		}
		if claimed {
			return cred, "", nil
		}
		if i >= polls {
			return nil, "", fmt.Errorf("%w: refresh still running elsewhere", ErrProviderUnavailable)
		}

		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		case <-time.After(m.cfg.RefreshPoll):
		}

		current, err := m.store.GetCredential(ctx, cred.AccountGUID)
		if err != nil {
			return nil, "", err
		}
		if current.RefreshToken != cred.RefreshToken || current.ExpiresAt.After(cred.ExpiresAt) || !current.ExpiresWithin(m.now(), within) {
			log.WithField("account_id", cred.AccountGUID).Debug("Waited on token refresh held elsewhere")
			return nil, current.AccessToken, nil
		}
		cred = current
	}
}

// HasCredential reports whether the account currently holds a stored pair
func (m *Manager) HasCredential(ctx context.Context, accountGUID string) (bool, error) {
	_, err := m.store.GetCredential(ctx, accountGUID)
	if errors.Is(err, ErrNoCredential) {
		return false, nil
	}
	return err == nil, err
}

