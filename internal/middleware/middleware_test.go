package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func protectedRouter(verifier SessionVerifier) *gin.Engine {
	r := gin.New()
	r.GET("/protected", BearerAuth(verifier), func(c *gin.Context) {
		id, _ := AccountID(c)
		c.JSON(http.StatusOK, gin.H{"account_id": id})
	})
	return r
}

func TestBearerAuth(t *testing.T) {
	now := time.Now()
	issuer := auth.NewSessionIssuer([]byte("secret"), time.Hour).WithClock(func() time.Time { return now })
	valid, _, err := issuer.Issue("U1")
	require.NoError(t, err)
	foreign, _, err := auth.NewSessionIssuer([]byte("other"), time.Hour).Issue("U1")
	require.NoError(t, err)

	testCases := []struct {
		name       string
		header     string
		advance    time.Duration
		wantStatus int
		wantError  string
	}{
		{name: "valid session", header: "Bearer " + valid, wantStatus: http.StatusOK},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized, wantError: "authorization_required"},
		{name: "wrong scheme", header: "Basic abc", wantStatus: http.StatusUnauthorized, wantError: "invalid_request"},
		{name: "empty token", header: "Bearer ", wantStatus: http.StatusUnauthorized, wantError: "invalid_token"},
		{name: "foreign signature", header: "Bearer " + foreign, wantStatus: http.StatusUnauthorized, wantError: "invalid_token"},
		{name: "expired", header: "Bearer " + valid, advance: 2 * time.Hour, wantStatus: http.StatusUnauthorized, wantError: "invalid_token"},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			now = time.Now().Add(tt.advance)
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			protectedRouter(issuer).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			if tt.wantError == "" {
				assert.Equal(t, "U1", body["account_id"])
			} else {
				assert.Equal(t, tt.wantError, body["error"])
			}
		})
	}
}

func TestOptionalBearerAuth(t *testing.T) {
	issuer := auth.NewSessionIssuer([]byte("secret"), time.Hour)
	valid, _, err := issuer.Issue("U1")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/status", OptionalBearerAuth(issuer), func(c *gin.Context) {
		id, ok := AccountID(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": ok, "account_id": id})
	})

	for header, want := range map[string]bool{"Bearer " + valid: true, "Bearer junk": false, "": false} {
		req := httptest.NewRequest(http.MethodGet, "/status", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, want, body["authenticated"])
	}
}

type stubMembership struct {
	leagues map[string]bool
	err     error
}

func (s stubMembership) HasAccess(ctx context.Context, accountGUID, leagueKey string) (bool, error) {
	return s.leagues[accountGUID+"/"+leagueKey], s.err
}

func TestRequireLeagueAccess(t *testing.T) {
	testCases := []struct {
		name       string
		account    string
		membership stubMembership
		wantStatus int
	}{
		{name: "member", account: "U1", membership: stubMembership{leagues: map[string]bool{"U1/454.l.1": true}}, wantStatus: http.StatusOK},
		{name: "not a member", account: "U2", membership: stubMembership{leagues: map[string]bool{"U1/454.l.1": true}}, wantStatus: http.StatusNotFound},
		{name: "no session", account: "", membership: stubMembership{}, wantStatus: http.StatusUnauthorized},
		{name: "lookup failure", account: "U1", membership: stubMembership{err: errors.New("db down")}, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/leagues/:league_key", func(c *gin.Context) {
				if tt.account != "" {
					c.Set(AccountIDKey, tt.account)
				}
			}, RequireLeagueAccess(tt.membership, "league_key"), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leagues/454.l.1", nil))
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(10) // burst of one
	r := gin.New()
	r.POST("/exchange", limiter.Handler(), func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/exchange", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2"), "clients are limited independently")
}

func TestRateLimiterDisabled(t *testing.T) {
	var limiter *RateLimiter = NewRateLimiter(0)
	assert.Nil(t, limiter)

	r := gin.New()
	r.GET("/", limiter.Handler(), func(c *gin.Context) { c.Status(http.StatusOK) })
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	r := gin.New()
	r.Use(RequestLogger(logger))
	r.GET("/auth/callback", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/callback?code=secret-grant&state=s", nil))

	requestID := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(requestID)
	assert.NoError(t, err)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, requestID, entry["request_id"])
	assert.Equal(t, "warning", entry["level"])
	assert.NotContains(t, buf.String(), "secret-grant")

	// a well formed incoming id is propagated
	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/auth/callback", nil)
	req.Header.Set(RequestIDHeader, incoming)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, incoming, w.Header().Get(RequestIDHeader))
}
