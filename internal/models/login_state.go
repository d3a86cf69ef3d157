package models

import (
	"time"
)

// LoginState stores the anti-forgery state of an in-progress login, keyed by browser session
type LoginState struct {
	SessionKey string    `gorm:"primaryKey;size:64"`
	State      string    `gorm:"not null"`
	ExpiresAt  time.Time `gorm:"not null;index"`
	CreatedAt  time.Time
}

func (LoginState) TableName() string {
	return "login_states"
}
