package database

import (
	"path/filepath"
	"testing"

	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	testCases := []struct {
		name     string
		cfg      DatabaseConfig
		expected string
	}{
		{
			name:     "postgres",
			cfg:      DatabaseConfig{Driver: "postgresql", Host: "db", Port: "5432", User: "u", Password: "p", Name: "fantasy", SSLMode: "disable"},
			expected: "host=db user=u password=p dbname=fantasy port=5432 sslmode=disable",
		},
		{
			name:     "sqlite is the default",
			cfg:      DatabaseConfig{Path: "data.sqlite"},
			expected: "data.sqlite?_busy_timeout=5000&_foreign_keys=on",
		},
		{
			name:     "pure go sqlite",
			cfg:      DatabaseConfig{Driver: "SQLITE-NOCGO", Path: "data.sqlite"},
			expected: "data.sqlite?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)",
		},
		{
			name:     "sqlite path with options",
			cfg:      DatabaseConfig{Driver: "sqlite", Path: "file:data.sqlite?cache=shared"},
			expected: "file:data.sqlite?cache=shared&_busy_timeout=5000&_foreign_keys=on",
		},
		{
			name:     "unknown driver",
			cfg:      DatabaseConfig{Driver: "oracle"},
			expected: "",
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.cfg.DSN())
		})
	}
}

func TestStringRedactsPassword(t *testing.T) {
	cfg := DatabaseConfig{Driver: "postgres", User: "hoops", Host: "db", Password: "hunter2"}
	assert.NotContains(t, cfg.String(), "hunter2")
	assert.Contains(t, cfg.String(), "hoops")
}

func TestInitDatabaseMigrates(t *testing.T) {
	for _, driver := range []string{DriverSQLite, DriverSQLiteNoCGO} {
		t.Run(driver, func(t *testing.T) {
			cfg := DatabaseConfig{Driver: driver, Path: filepath.Join(t.TempDir(), "test.sqlite"), AutoMigrate: true}

			db, err := InitDatabase(cfg)
			require.NoError(t, err)

			tables := []interface{}{
				&models.Account{}, &models.Credential{}, &models.ExchangeCode{}, &models.LoginState{},
				&models.UserLeague{}, &models.LeagueSync{}, &models.CachedData{}, &models.JobLog{},
				&models.Transaction{}, &models.TransactionPlayer{},
			}
			for _, table := range tables {
				assert.True(t, db.Migrator().HasTable(table))
			}
			assert.True(t, db.Migrator().HasColumn(&models.UserLeague{}, "last_transaction_sync_at"))
			assert.True(t, db.Migrator().HasColumn(&models.Credential{}, "refreshing_until"))
		})
	}
}

func TestInitDatabaseWithoutMigrate(t *testing.T) {
	db, err := InitDatabase(DatabaseConfig{Driver: DriverSQLiteNoCGO, Path: filepath.Join(t.TempDir(), "bare.sqlite")})
	require.NoError(t, err)
	assert.False(t, db.Migrator().HasTable(&models.Account{}))
}

func TestInitDatabaseUnsupportedDriver(t *testing.T) {
	_, err := InitDatabase(DatabaseConfig{Driver: "oracle"})
	assert.ErrorContains(t, err, "unsupported database driver")
}
