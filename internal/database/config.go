package database

import (
	"fmt"
	"strings"
	"time"
)

// Supported drivers. sqlite uses the cgo driver, sqlite-nocgo the pure Go one.
const (
	DriverPostgres    = "postgres"
	DriverSQLite      = "sqlite"
	DriverSQLiteNoCGO = "sqlite-nocgo"
)

// sqlite waits this long for the write lock held by the refresher or another request
const sqliteBusyTimeout = 5000

// DatabaseConfig describes where accounts, credentials and league data live
type DatabaseConfig struct {
	Driver string

	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string

	// Path is the sqlite file
	Path string

	// AutoMigrate brings the schema up to date once connected
	AutoMigrate bool
	// MaxAttempts bounds connection attempts while the database comes up; 0 means 5
	MaxAttempts int
	// SlowQuery is the threshold above which statements are logged; 0 disables it
	SlowQuery time.Duration
}

// driver returns the normalized driver name, "" when unsupported
func (c *DatabaseConfig) driver() string {
	switch strings.ToLower(c.Driver) {
	case "postgres", "postgresql":
		return DriverPostgres
	case "sqlite", "":
		return DriverSQLite
	case "sqlite-nocgo":
		return DriverSQLiteNoCGO
	default:
		return ""
	}
}

// String masks the password
func (c *DatabaseConfig) String() string {
	if c.driver() == DriverPostgres {
		return fmt.Sprintf("postgres://%s:[REDACTED]@%s:%s/%s?sslmode=%s", c.User, c.Host, c.Port, c.Name, c.SSLMode)
	}
	return fmt.Sprintf("%s:%s", c.driver(), c.Path)
}

// DSN builds the connection string. sqlite connections enable foreign keys so
// transaction players go with their transaction, and wait on a busy database
// instead of failing. Each sqlite driver spells those options differently.
func (c *DatabaseConfig) DSN() string {
	switch c.driver() {
	case DriverPostgres:
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
	case DriverSQLite:
		return withQuery(c.Path, fmt.Sprintf("_busy_timeout=%d&_foreign_keys=on", sqliteBusyTimeout))
	case DriverSQLiteNoCGO:
		return withQuery(c.Path, fmt.Sprintf("_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)", sqliteBusyTimeout))
	default:
		return ""
	}
}

func withQuery(path, query string) string {
	if strings.Contains(path, "?") {
		return path + "&" + query
	}
	return path + "?" + query
}
