package database

import (
	"fmt"

	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/models"
	"gorm.io/gorm"
)

// Migrate creates or updates every table the service owns
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Account{},
		&models.Credential{},
		&models.ExchangeCode{},
		&models.LoginState{},
		&models.UserLeague{},
		&models.LeagueSync{},
		&models.CachedData{},
		&models.Transaction{},
		&models.TransactionPlayer{},
		&models.JobLog{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	log.Info("Database schema migrated")
	return nil
}
