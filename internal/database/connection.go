package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	cgosqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
}

// SetLogger replaces the package logger. Slow statements are reported through it too.
func SetLogger(l *logrus.Logger) {
	if l != nil {
		log = l
	}
}

const defaultMaxAttempts = 5

// InitDatabase connects with exponential backoff, since postgres may still be
// starting when the service boots, then migrates when cfg.AutoMigrate is set.
func InitDatabase(cfg DatabaseConfig) (*gorm.DB, error) {
	driver := cfg.driver()
	if driver == "" {
		return nil, fmt.Errorf("unsupported database driver: %s (supported: postgres, sqlite, sqlite-nocgo)", cfg.Driver)
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}
	fields := logrus.Fields{"db": cfg.String()}
	log.WithFields(fields).Info("Connecting to database")

	var err error
	delay := time.Second
	for attempt := 1; attempt <= attempts; attempt++ {
		var db *gorm.DB
		db, err = open(cfg, driver)
		if err == nil {
			if cfg.AutoMigrate {
				if err := Migrate(db); err != nil {
					return nil, err
				}
			}
			log.WithFields(fields).WithField("attempt", attempt).Info("Database ready")
			return db, nil
		}

		log.WithFields(fields).WithFields(logrus.Fields{
			"attempt": attempt,
			"error":   err.Error(),
		}).Warn("Database connection attempt failed")
		if attempt < attempts {
			time.Sleep(delay)
			delay *= 2
		}
	}
	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", attempts, err)
}

func open(cfg DatabaseConfig, driver string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(cfg.DSN())
	case DriverSQLite:
		dialector = cgosqlite.Open(cfg.DSN())
	default:
		dialector = sqlite.Open(cfg.DSN())
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLogger(cfg.SlowQuery)})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	configureConnectionPool(sqlDB, driver)
	return db, nil
}

// gormLogger sends slow statements and errors to the package logger instead of stdout
func gormLogger(slow time.Duration) logger.Interface {
	level := logger.Warn
	if slow <= 0 {
		level = logger.Error
	}
	return logger.New(log, logger.Config{
		SlowThreshold:             slow,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

func configureConnectionPool(sqlDB *sql.DB, driver string) {
	maxOpen := 25
	if driver != DriverPostgres {
		// sqlite serializes writers; one connection avoids "database is locked"
		maxOpen = 1
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	log.WithField("max_open_conns", maxOpen).Debug("Connection pool configured")
}
