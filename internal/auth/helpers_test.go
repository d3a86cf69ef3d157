package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/database"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testClientID     = "test-client"
	testClientSecret = "test-secret"
)

// setupTestDB opens a private in-memory database shared by every goroutine of the test
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// fakeYahoo mimics the provider's token and identity endpoints
type fakeYahoo struct {
	server *httptest.Server

	mu      sync.Mutex
	codes   map[string]bool // code -> redeemed
	revoked map[string]bool // refresh tokens no longer accepted
	issued  int

	guid         string
	includeGUID  bool
	omitExpiry   bool
	noRotate     bool
	refreshDelay time.Duration
	tokenDelay   time.Duration

	identityGUID   string
	identityStatus int

	failures atomic.Int32 // next N token calls answer 503

	exchangeCalls atomic.Int32
	refreshCalls  atomic.Int32
	identityCalls atomic.Int32
}

func newFakeYahoo(t *testing.T) *fakeYahoo {
	t.Helper()
	f := &fakeYahoo{
		codes:        map[string]bool{},
		revoked:      map[string]bool{},
		guid:         "U1",
		includeGUID:  true,
		identityGUID: "U1",
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeYahoo) addCode(code string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[code] = false
}

func (f *fakeYahoo) revoke(refreshToken string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[refreshToken] = true
}

func (f *fakeYahoo) config() YahooConfig {
	return YahooConfig{
		ClientID:     testClientID,
		ClientSecret: testClientSecret,
		AuthURL:      f.server.URL + "/oauth2/request_auth",
		TokenURL:     f.server.URL + "/oauth2/get_token",
		RedirectURL:  "http://localhost:8080/auth/callback",
		APIBase:      f.server.URL + "/fantasy/v2",
		Timeout:      2 * time.Second,
	}
}

func (f *fakeYahoo) provider() *YahooProvider {
	return NewYahooProvider(f.config())
}

func (f *fakeYahoo) handle(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/oauth2/get_token":
		f.token(w, r)
	case strings.HasPrefix(r.URL.Path, "/fantasy/v2/users"):
		f.identity(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeYahoo) token(w http.ResponseWriter, r *http.Request) {
	if f.tokenDelay > 0 {
		time.Sleep(f.tokenDelay)
	}
	user, pass, ok := r.BasicAuth()
	if !ok || user != testClientID || pass != testClientSecret {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_client"})
		return
	}
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}

	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		f.exchangeCalls.Add(1)
		if f.failures.Load() > 0 {
			f.failures.Add(-1)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "temporarily_unavailable"})
			return
		}
		f.mu.Lock()
		redeemed, known := f.codes[r.PostForm.Get("code")]
		if !known || redeemed {
			f.mu.Unlock()
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant", "error_description": "code expired or already used"})
			return
		}
		f.codes[r.PostForm.Get("code")] = true
		f.mu.Unlock()
		f.writeToken(w)

	case "refresh_token":
		f.refreshCalls.Add(1)
		if f.refreshDelay > 0 {
			time.Sleep(f.refreshDelay)
		}
		if f.failures.Load() > 0 {
			f.failures.Add(-1)
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "bad_gateway"})
			return
		}
		rt := r.PostForm.Get("refresh_token")
		f.mu.Lock()
		if f.revoked[rt] {
			f.mu.Unlock()
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant", "error_description": "refresh token revoked"})
			return
		}
		if !f.noRotate {
			// the provider invalidates a refresh token once it has been used
			f.revoked[rt] = true
		}
		f.mu.Unlock()
		f.writeToken(w)

	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
	}
}

func (f *fakeYahoo) writeToken(w http.ResponseWriter) {
	f.mu.Lock()
	f.issued++
	n := f.issued
	f.mu.Unlock()

	body := map[string]interface{}{
		"access_token": fmt.Sprintf("access-%d", n),
		"token_type":   "bearer",
	}
	if !f.noRotate {
		body["refresh_token"] = fmt.Sprintf("refresh-%d", n)
	}
	if !f.omitExpiry {
		body["expires_in"] = 3600
	}
	if f.includeGUID {
		body["xoauth_yahoo_guid"] = f.guid
	}
	writeJSON(w, http.StatusOK, body)
}

func (f *fakeYahoo) identity(w http.ResponseWriter, r *http.Request) {
	f.identityCalls.Add(1)
	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer access-") {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	if f.identityStatus != 0 {
		writeJSON(w, f.identityStatus, map[string]string{"error": "forced"})
		return
	}

	user := []interface{}{map[string]interface{}{"profile": map[string]string{"display_name": "hooper"}}}
	if f.identityGUID != "" {
		user = []interface{}{
			map[string]string{"guid": f.identityGUID},
			map[string]interface{}{"profile": map[string]string{"display_name": "hooper"}},
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"fantasy_content": map[string]interface{}{
			"users": map[string]interface{}{
				"0":     map[string]interface{}{"user": user},
				"count": 1,
			},
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func testRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}
}

// newTestManager wires a Manager against the fake provider and a fresh database
func newTestManager(t *testing.T, f *fakeYahoo) (*Manager, *GormCredentialStore, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	store := NewGormCredentialStore(db)
	m := NewManager(f.provider(), store, NewGormStateStore(db), ManagerConfig{
		RefreshMargin: 60 * time.Second,
		LoginStateTTL: time.Minute,
		Retry:         testRetry(),
	})
	return m, store, db
}
