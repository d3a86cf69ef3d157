package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/franciscosanchezn/fantasy-hoops-dashboard/docs" // Import generated docs
	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/auth"
	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/config"
	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/controllers"
	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/database"
	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/fantasy"
	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/middleware"
	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/swaggo/files"
	"github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// app holds everything the routes need
type app struct {
	sessions         *auth.SessionIssuer
	authController   *controllers.AuthController
	leagueController *controllers.LeagueController
	txController     *controllers.TransactionController
	leagueService    services.LeagueService
	exchangeLimiter  *middleware.RateLimiter
}

// @title Fantasy Hoops Dashboard API
// @version 1.0
// @description Yahoo login, session exchange and league data for the fantasy basketball dashboard
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token from /auth/exchange.
func main() {
	// Load environment variables
	loadDotenvFile()

	// Initialize logger
	setUpLogger()

	// Load configuration
	configuration := loadConfig()

	// Initialize database connection
	db := setupDatabase(configuration)

	// Optional redis for login state and league cooldowns
	redisClient := setupRedis(configuration)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, refresher := buildApp(configuration, db, redisClient)
	go refresher.Run(ctx)

	router := setupRouter(a)
	srv := &http.Server{
		Addr:              fmt.Sprintf("%v:%d", configuration.Host, configuration.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("Starting server on %s:%d", configuration.Host, configuration.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
	if redisClient != nil {
		redisClient.Close()
	}
}

// checkPanicErr checks if an error occurred and panics if it did
func checkPanicErr(err error) {
	if err != nil {
		panic(err)
	}
}

// loadDotenvFile loads environment variables from a .env file
// If the file is not found, it will log a warning and use system environment variables
func loadDotenvFile() {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, using system environment variables")
	}
}

// setUpLogger initializes the logger with a JSON formatter and sets the log level based on the environment.
// LOG_LEVEL overrides the environment default. Packages that log share this logger.
func setUpLogger() {
	log.SetFormatter(&log.JSONFormatter{})
	environment := config.GetEnvWithDefault("APP_ENV", "development")
	switch environment {
	case "development":
		log.SetLevel(log.DebugLevel)
	case "production":
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if level, err := log.ParseLevel(raw); err == nil {
			log.SetLevel(level)
		} else {
			log.WithField("log_level", raw).Warn("Ignoring invalid LOG_LEVEL")
		}
	}

	shared := log.StandardLogger()
	config.SetLogger(shared)
	database.SetLogger(shared)
	auth.SetLogger(shared)
	fantasy.SetLogger(shared)
	services.SetLogger(shared)
	controllers.SetLogger(shared)
}

// loadConfig loads the application configuration from environment variables
// It returns a Config struct or panics if there is an error
func loadConfig() *config.Config {
	log.Info("Loading configuration from environment variables")
	conf, err := config.LoadConfig()
	checkPanicErr(err)
	log.Infof("Configuration loaded: %s", conf)
	return conf
}

// setupDatabase connects to the configured database and migrates the schema
func setupDatabase(conf *config.Config) *gorm.DB {
	db, err := database.InitDatabase(database.DatabaseConfig{
		Driver:      conf.DBDriver,
		Host:        conf.DBHost,
		Port:        conf.DBPort,
		User:        conf.DBUser,
		Password:    conf.DBPassword,
		Name:        conf.DBName,
		SSLMode:     conf.DBSSLMode,
		Path:        conf.DBPath,
		AutoMigrate: true,
		SlowQuery:   500 * time.Millisecond,
	})
	checkPanicErr(err)
	return db
}

// setupRedis returns nil when REDIS_URL is not configured
func setupRedis(conf *config.Config) *redis.Client {
	if conf.RedisURL == "" {
		log.Info("REDIS_URL not set, keeping login state and cooldowns in the database")
		return nil
	}
	opts, err := redis.ParseURL(conf.RedisURL)
	checkPanicErr(err)
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	checkPanicErr(client.Ping(ctx).Err())
	log.Info("Connected to redis")
	return client
}

func buildApp(conf *config.Config, db *gorm.DB, redisClient *redis.Client) (*app, *auth.Refresher) {
	provider := auth.NewYahooProvider(auth.YahooConfig{
		ClientID:     conf.YahooClientID,
		ClientSecret: conf.YahooClientSecret,
		AuthURL:      conf.YahooAuthURL,
		TokenURL:     conf.YahooTokenURL,
		RedirectURL:  conf.YahooRedirectURI,
		APIBase:      conf.YahooAPIBase,
		Timeout:      conf.ProviderTimeout,
	})
	store := auth.NewGormCredentialStore(db)

	var (
		states     auth.StateStore
		gormStates *auth.GormStateStore
		cooldown   services.SyncCooldown
	)
	if redisClient != nil {
		states = auth.NewRedisStateStore(redisClient)
		cooldown = services.NewRedisCooldown(redisClient, conf.LeagueSyncCooldown)
	} else {
		gormStates = auth.NewGormStateStore(db)
		states = gormStates
		cooldown = services.NewGormCooldown(db, conf.LeagueSyncCooldown)
	}

	manager := auth.NewManager(provider, store, states, auth.ManagerConfig{
		RefreshMargin: conf.RefreshMargin,
		LoginStateTTL: conf.LoginStateTTL,
		Retry: auth.RetryPolicy{
			MaxAttempts: conf.ProviderMaxAttempts,
			BaseDelay:   auth.DefaultRetryPolicy.BaseDelay,
		},
	})
	broker := auth.NewBroker(db, conf.ExchangeCodeTTL)

	signingKey, err := config.DeriveKey(conf.SecretKey, "bearer-session")
	checkPanicErr(err)
	sessions := auth.NewSessionIssuer(signingKey, conf.SessionTTL)

	fantasyClient := fantasy.NewClient(manager, conf.YahooAPIBase, conf.ProviderTimeout)
	leagueService := services.NewLeagueService(db, fantasyClient, services.NewLeagueCache(db, conf.LeagueCacheTTL), cooldown)
	transactionService := services.NewTransactionService(db, fantasyClient, cooldown, conf.LeagueSyncCooldown)

	a := &app{
		sessions: sessions,
		authController: controllers.NewAuthController(manager, broker, sessions, services.NewAccountService(db), controllers.AuthControllerConfig{
			FrontendURL:   conf.FrontendURL,
			CookieSecure:  conf.CookieSecure,
			LoginStateTTL: conf.LoginStateTTL,
		}),
		leagueController: controllers.NewLeagueController(leagueService),
		txController:     controllers.NewTransactionController(transactionService),
		leagueService:    leagueService,
		exchangeLimiter:  middleware.NewRateLimiter(conf.ExchangeRateLimitRPM),
	}
	refresher := auth.NewRefresher(db, manager, store, broker, gormStates, conf.TokenRefreshInterval)
	return a, refresher
}

// setupRouter initializes the Gin router and sets up the routes
// It returns the configured router
func setupRouter(a *app) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log.StandardLogger()))

	setupRoutes(router, a)

	return router
}

// setupRoutes defines the routes for the Gin router
func setupRoutes(router *gin.Engine, a *app) {
	// Health check endpoint
	router.GET("/health", healthCheckHandler)

	authApi := router.Group("/auth")
	{
		authApi.GET("/login", a.authController.Login)
		authApi.GET("/callback", a.authController.Callback)
		authApi.POST("/exchange", a.exchangeLimiter.Handler(), a.authController.Exchange)
		authApi.GET("/logout", a.authController.Logout)
		authApi.GET("/status", middleware.OptionalBearerAuth(a.sessions), a.authController.Status)
		authApi.GET("/me", middleware.BearerAuth(a.sessions), a.authController.Me)
	}

	// Protected routes (requires a bearer session)
	v1 := router.Group("/api/v1")
	v1.Use(middleware.BearerAuth(a.sessions))
	{
		v1.GET("/leagues", a.leagueController.ListLeagues)

		leagueApi := v1.Group("/leagues/:league_key")
		leagueApi.Use(middleware.RequireLeagueAccess(a.leagueService, "league_key"))
		{
			leagueApi.GET("/:resource", a.leagueController.GetLeagueResource)
			leagueApi.POST("/transactions/sync", a.txController.Sync)
			leagueApi.GET("/transactions/sync-status", a.txController.SyncStatus)
			leagueApi.GET("/transactions/history", a.txController.List)
			leagueApi.GET("/transactions/stats", a.txController.Stats)
		}
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// healthCheckHandler handles the health check endpoint
// @Summary Health check
// @Description Check if the service is running
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "fantasy-hoops-dashboard",
	})
}
