package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/auth"
	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/config"
	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/database"
	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/models"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// Parse command line flags
	guid := flag.String("account", "", "Account GUID to issue a session for (defaults to the most recent login)")
	ttl := flag.Duration("ttl", 24*time.Hour, "Session lifetime")
	flag.Parse()

	_ = godotenv.Load()

	conf, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	db, err := database.InitDatabase(database.DatabaseConfig{
		Driver:   conf.DBDriver,
		Host:     conf.DBHost,
		Port:     conf.DBPort,
		User:     conf.DBUser,
		Password: conf.DBPassword,
		Name:     conf.DBName,
		SSLMode:  conf.DBSSLMode,
		Path:     conf.DBPath,
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	account, err := findAccount(context.Background(), auth.NewGormCredentialStore(db), *guid, db)
	if err != nil {
		log.Fatal("No account to issue a session for: ", err)
	}

	key, err := config.DeriveKey(conf.SecretKey, "bearer-session")
	if err != nil {
		log.Fatal("Failed to derive signing key:", err)
	}
	token, expiresAt, err := auth.NewSessionIssuer(key, *ttl).Issue(account.GUID)
	if err != nil {
		log.Fatal("Failed to issue session:", err)
	}

	fmt.Printf("✓ Session issued for account %s (%s)\n", account.GUID, account.DisplayName)
	fmt.Printf("Expires at: %s\n", expiresAt.Format(time.RFC3339))
	fmt.Println("\nUse it for testing:")
	fmt.Printf("curl -H 'Authorization: Bearer %s' \\\n", token)
	fmt.Printf("  http://%s:%d/auth/me\n", conf.Host, conf.Port)
}

// findAccount loads the requested account, or the one that logged in last
func findAccount(ctx context.Context, store auth.CredentialStore, guid string, db *gorm.DB) (*models.Account, error) {
	if guid != "" {
		return store.GetAccount(ctx, guid)
	}
	var account models.Account
	if err := db.WithContext(ctx).Order("last_login_at desc").First(&account).Error; err != nil {
		return nil, err
	}
	fmt.Printf("Found most recent login: %s\n", account.GUID)
	return &account, nil
}
