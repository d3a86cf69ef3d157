package config

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/hkdf"
	"gopkg.in/yaml.v3"
)

// Create a new instance of the logger
// Configure it to log at the desired level
// and format it as JSON for structured logging
var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	environment := GetEnvWithDefault("APP_ENV", "development")
	switch environment {
	case "development":
		log.SetLevel(logrus.DebugLevel)
	case "production":
		log.SetLevel(logrus.ErrorLevel)
	default:
		// Default to info level for other environments
		log.SetLevel(logrus.InfoLevel)
	}
}

// SetLogger replaces the package logger
func SetLogger(l *logrus.Logger) {
	if l != nil {
		log = l
	}
}

// Yahoo endpoints used when nothing else is configured.
const (
	DefaultYahooAuthURL  = "https://api.login.yahoo.com/oauth2/request_auth"
	DefaultYahooTokenURL = "https://api.login.yahoo.com/oauth2/get_token"
	DefaultYahooAPIBase  = "https://fantasysports.yahooapis.com/fantasy/v2"
)

// Config used for the application configuration, loading the input from environment variables
type Config struct {
	// Server Configuration
	Environment string `json:"environment"`
	Port        int    `json:"port"`
	Host        string `json:"host"`

	// Database configuration
	DBDriver   string `json:"db_driver"`
	DBHost     string `json:"db_host"`
	DBPort     string `json:"db_port"`
	DBName     string `json:"db_name"`
	DBUser     string `json:"db_user"`
	DBPassword string `json:"db_password"`
	DBSSLMode  string `json:"db_sslmode"`
	DBPath     string `json:"db_path"`

	// RedisURL switches the login state store and league cooldown to redis when set
	RedisURL string `json:"redis_url"`

	// Logging configuration
	LogLevel string `json:"log_level"`

	// Identity provider
	YahooClientID     string `json:"yahoo_client_id"`
	YahooClientSecret string `json:"yahoo_client_secret"`
	YahooAuthURL      string `json:"yahoo_auth_url"`
	YahooTokenURL     string `json:"yahoo_token_url"`
	YahooRedirectURI  string `json:"yahoo_redirect_uri"`
	YahooAPIBase      string `json:"yahoo_api_base"`

	FrontendURL string `json:"frontend_url"`

	// Security Configuration
	SecretKey       string        `json:"secret_key"`
	SessionTTL      time.Duration `json:"session_ttl"`
	ExchangeCodeTTL time.Duration `json:"exchange_code_ttl"`
	RefreshMargin   time.Duration `json:"refresh_margin"`
	LoginStateTTL   time.Duration `json:"login_state_ttl"`
	CookieSecure    bool          `json:"cookie_secure"`

	ProviderTimeout     time.Duration `json:"provider_timeout"`
	ProviderMaxAttempts int           `json:"provider_max_attempts"`

	LeagueSyncCooldown   time.Duration `json:"league_sync_cooldown"`
	LeagueCacheTTL       time.Duration `json:"league_cache_ttl"`
	ExchangeRateLimitRPM int           `json:"exchange_rate_limit_rpm"`
	TokenRefreshInterval time.Duration `json:"token_refresh_interval"`
}

// String returns a string representation of Config with sensitive data masked
func (c *Config) String() string {
	return fmt.Sprintf("Config{Environment: %s, Port: %d, Host: %s, DBDriver: %s, DBHost: %s, DBName: %s, DBUser: %s, DBPassword: [REDACTED], RedisURL: %s, LogLevel: %s, YahooClientID: %s, YahooClientSecret: [REDACTED], YahooRedirectURI: %s, FrontendURL: %s, SecretKey: [REDACTED], SessionTTL: %s, ExchangeCodeTTL: %s}",
		c.Environment, c.Port, c.Host, c.DBDriver, c.DBHost, c.DBName, c.DBUser, maskURL(c.RedisURL), c.LogLevel,
		c.YahooClientID, c.YahooRedirectURI, c.FrontendURL, c.SessionTTL, c.ExchangeCodeTTL)
}

// maskURL masks password in a connection URL
func maskURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[REDACTED_INVALID_URL]"
	}

	if parsed.User != nil {
		parsed.User = url.UserPassword(parsed.User.Username(), "[REDACTED]")
	}

	return parsed.String()
}

// LoadConfig read the proper configuration from environment variables and returns a Config struct
// Returns an error if any required environment variable is missing or invalid
func LoadConfig() (*Config, error) {
	log.Info("Loading configuration from environment variables")

	if path := os.Getenv("APP_CONFIG_FILE"); path != "" {
		if err := LoadSettingsFile(path); err != nil {
			return nil, err
		}
	}

	port, err := strconv.Atoi(GetEnvWithDefault("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	var missing []string
	for _, key := range []string{"YAHOO_CLIENT_ID", "YAHOO_CLIENT_SECRET"} {
		if os.Getenv(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	frontend := GetEnvWithDefault("FRONTEND_URL", "http://localhost:8501")
	if _, err := url.ParseRequestURI(frontend); err != nil {
		return nil, fmt.Errorf("invalid FRONTEND_URL %q: %w", frontend, err)
	}

	environment := GetEnvWithDefault("APP_ENV", "development")
	secret := GetEnvWithDefault("APP_SECRET_KEY", "")
	if secret == "" {
		if environment == "production" {
			return nil, errors.New("APP_SECRET_KEY environment variable is required in production")
		}
		secret = "dev-secret-change-me"
	}

	config := &Config{
		Environment: environment,
		Port:        port,
		Host:        GetEnvWithDefault("APP_HOST", "localhost"),

		DBDriver:   GetEnvWithDefault("DB_DRIVER", "sqlite"),
		DBHost:     GetEnvWithDefault("DB_HOST", "localhost"),
		DBPort:     GetEnvWithDefault("DB_PORT", "5432"),
		DBName:     GetEnvWithDefault("DB_NAME", "fantasy"),
		DBUser:     GetEnvWithDefault("DB_USER", "fantasy"),
		DBPassword: GetEnvWithDefault("DB_PASSWORD", ""),
		DBSSLMode:  GetEnvWithDefault("DB_SSLMODE", "disable"),
		DBPath:     GetEnvWithDefault("DB_PATH", "fantasy.sqlite"),
		RedisURL:   GetEnvWithDefault("REDIS_URL", ""),
		LogLevel:   GetEnvWithDefault("LOG_LEVEL", "info"),

		YahooClientID:     os.Getenv("YAHOO_CLIENT_ID"),
		YahooClientSecret: os.Getenv("YAHOO_CLIENT_SECRET"),
		YahooAuthURL:      GetEnvWithDefault("YAHOO_AUTH_URL", DefaultYahooAuthURL),
		YahooTokenURL:     GetEnvWithDefault("YAHOO_TOKEN_URL", DefaultYahooTokenURL),
		YahooRedirectURI:  GetEnvWithDefault("YAHOO_REDIRECT_URI", "http://localhost:8080/auth/callback"),
		YahooAPIBase:      GetEnvWithDefault("YAHOO_API_BASE", DefaultYahooAPIBase),
		FrontendURL:       frontend,

		SecretKey:       secret,
		SessionTTL:      GetEnvAsType("SESSION_TTL", 7*24*time.Hour),
		ExchangeCodeTTL: GetEnvAsType("EXCHANGE_CODE_TTL", 60*time.Second),
		RefreshMargin:   GetEnvAsType("REFRESH_MARGIN", 60*time.Second),
		LoginStateTTL:   GetEnvAsType("LOGIN_STATE_TTL", 10*time.Minute),
		CookieSecure:    GetEnvAsType("COOKIE_SECURE", environment == "production"),

		ProviderTimeout:     GetEnvAsType("PROVIDER_TIMEOUT", 10*time.Second),
		ProviderMaxAttempts: GetEnvAsType("PROVIDER_MAX_ATTEMPTS", 3),

		LeagueSyncCooldown:   GetEnvAsType("LEAGUE_SYNC_COOLDOWN", 60*time.Minute),
		LeagueCacheTTL:       GetEnvAsType("LEAGUE_CACHE_TTL", 15*time.Minute),
		ExchangeRateLimitRPM: GetEnvAsType("EXCHANGE_RATE_LIMIT_RPM", 30),
		TokenRefreshInterval: GetEnvAsType("TOKEN_REFRESH_INTERVAL", 15*time.Minute),
	}
	if config.ProviderMaxAttempts < 1 {
		config.ProviderMaxAttempts = 1
	}
	log.Infof("Configuration loaded: %s", config.String())
	return config, nil
}

// LoadSettingsFile reads a flat YAML mapping of environment variable names to values
// and exports every entry that is not already present in the environment.
func LoadSettingsFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read settings file: %w", err)
	}

	settings := map[string]string{}
	if err := yaml.Unmarshal(raw, &settings); err != nil {
		return fmt.Errorf("parse settings file %s: %w", path, err)
	}

	for key, value := range settings {
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}
	log.WithField("path", path).Debugf("Loaded %d settings from file", len(settings))
	return nil
}

// DeriveKey expands the application secret into a 32 byte key dedicated to one purpose
func DeriveKey(secret, purpose string) ([]byte, error) {
	key := make([]byte, 32)
	reader := hkdf.New(sha256.New, []byte(secret), nil, []byte(purpose))
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", purpose, err)
	}
	return key, nil
}

// Helper to get environment with default values
func GetEnvWithDefault(key, defaultValue string) string {
	log.Tracef("Getting environment variable: %s", key)
	value := os.Getenv(key)
	if value == "" {
		log.Debugf("Environment variable %s not set, using default", key)
		return defaultValue
	}
	return value
}

// GetEnvAsType retrieves an environment variable and converts it to the specified type
// using generic type handling.
func GetEnvAsType[T any](key string, defaultValue T) T {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result T
	switch any(result).(type) {
	case int:
		intValue, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return any(intValue).(T)
	case string:
		return any(value).(T)
	case bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return any(boolValue).(T)
	case time.Duration:
		d, err := time.ParseDuration(value)
		if err != nil {
			// bare numbers are seconds
			secs, convErr := strconv.Atoi(value)
			if convErr != nil {
				return defaultValue
			}
			d = time.Duration(secs) * time.Second
		}
		return any(d).(T)
	default:
		return defaultValue // Fallback for unsupported types
	}
}
