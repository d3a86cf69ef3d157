package models

import (
	"time"
)

// Account is one dashboard user, keyed by the provider's global GUID.
// Per-game numeric user ids are not globally unique and are never stored as keys.
type Account struct {
	GUID        string `gorm:"primaryKey;size:64"`
	DisplayName string
	LastLoginAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Account) TableName() string {
	return "accounts"
}
