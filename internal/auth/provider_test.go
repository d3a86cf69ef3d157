package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYahooProviderExchange(t *testing.T) {
	f := newFakeYahoo(t)
	f.addCode("code-1")

	tok, err := f.provider().Exchange(context.Background(), "code-1")
	require.NoError(t, err)
	assert.Equal(t, "access-1", tok.AccessToken)
	assert.Equal(t, "refresh-1", tok.RefreshToken)
	assert.Equal(t, "U1", tok.AccountGUID)
	assert.Equal(t, time.UTC, tok.Expiry.Location())
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.Expiry, 5*time.Second)
}

func TestYahooProviderDefaultsExpiry(t *testing.T) {
	f := newFakeYahoo(t)
	f.omitExpiry = true
	f.includeGUID = false
	f.addCode("code-1")

	tok, err := f.provider().Exchange(context.Background(), "code-1")
	require.NoError(t, err)
	assert.Empty(t, tok.AccountGUID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.Expiry, 5*time.Second)
}

func TestYahooProviderErrorClassification(t *testing.T) {
	testCases := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "bad request is terminal", status: http.StatusBadRequest, wantErr: ErrProviderAuth},
		{name: "unauthorized is terminal", status: http.StatusUnauthorized, wantErr: ErrProviderAuth},
		{name: "rate limited is transient", status: http.StatusTooManyRequests, wantErr: ErrProviderUnavailable},
		{name: "server error is transient", status: http.StatusInternalServerError, wantErr: ErrProviderUnavailable},
		{name: "bad gateway is transient", status: http.StatusBadGateway, wantErr: ErrProviderUnavailable},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, map[string]string{"error": "forced"})
			}))
			defer server.Close()

			p := NewYahooProvider(YahooConfig{ClientID: "c", ClientSecret: "s", TokenURL: server.URL, APIBase: server.URL, Timeout: time.Second})
			_, err := p.Exchange(context.Background(), "code")
			assert.ErrorIs(t, err, tt.wantErr)

			_, err = p.Refresh(context.Background(), "refresh")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestYahooProviderTimeoutIsTransient(t *testing.T) {
	f := newFakeYahoo(t)
	f.tokenDelay = 200 * time.Millisecond
	f.addCode("code-1")

	cfg := f.config()
	cfg.Timeout = 20 * time.Millisecond
	_, err := NewYahooProvider(cfg).Exchange(context.Background(), "code-1")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestYahooProviderConnectionRefusedIsTransient(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	p := NewYahooProvider(YahooConfig{ClientID: "c", ClientSecret: "s", TokenURL: addr, APIBase: addr, Timeout: time.Second})
	_, err := p.Refresh(context.Background(), "refresh")
	assert.ErrorIs(t, err, ErrProviderUnavailable)

	_, err = p.FetchIdentity(context.Background(), "access-1")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestYahooProviderFetchIdentity(t *testing.T) {
	f := newFakeYahoo(t)
	f.identityGUID = "ABC"

	identity, err := f.provider().FetchIdentity(context.Background(), "access-9")
	require.NoError(t, err)
	assert.Equal(t, "ABC", identity.GUID)
	assert.Equal(t, "hooper", identity.DisplayName)

	_, err = f.provider().FetchIdentity(context.Background(), "wrong")
	assert.ErrorIs(t, err, ErrProviderAuth)

	f.identityStatus = http.StatusServiceUnavailable
	_, err = f.provider().FetchIdentity(context.Background(), "access-9")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}
