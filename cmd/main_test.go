package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/config"
	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/database"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	conf := &config.Config{
		YahooClientID:        "client",
		YahooClientSecret:    "secret",
		YahooAuthURL:         config.DefaultYahooAuthURL,
		YahooTokenURL:        config.DefaultYahooTokenURL,
		YahooRedirectURI:     "http://localhost:8080/auth/callback",
		YahooAPIBase:         config.DefaultYahooAPIBase,
		FrontendURL:          "http://localhost:8501",
		SecretKey:            "test-secret",
		SessionTTL:           time.Hour,
		ExchangeCodeTTL:      time.Minute,
		RefreshMargin:        time.Minute,
		LoginStateTTL:        time.Minute,
		ProviderTimeout:      time.Second,
		ProviderMaxAttempts:  1,
		LeagueSyncCooldown:   time.Hour,
		LeagueCacheTTL:       15 * time.Minute,
		ExchangeRateLimitRPM: 1,
		TokenRefreshInterval: time.Minute,
	}
	a, _ := buildApp(conf, db, nil)
	return setupRouter(a)
}

func TestHealthCheck(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestProtectedRoutesRequireBearer(t *testing.T) {
	router := testRouter(t)

	for _, path := range []string{"/auth/me", "/api/v1/leagues", "/api/v1/leagues/454.l.1/standings",
		"/api/v1/leagues/454.l.1/transactions/history", "/api/v1/leagues/454.l.1/transactions/stats"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestExchangeIsRateLimited(t *testing.T) {
	router := testRouter(t)

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/exchange?code=nope", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		router.ServeHTTP(w, req)
		statuses = append(statuses, w.Code)
	}

	assert.Equal(t, http.StatusBadRequest, statuses[0])
	assert.Equal(t, http.StatusTooManyRequests, statuses[2])
}
