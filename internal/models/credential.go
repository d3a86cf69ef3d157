package models

import (
	"time"
)

// Credential holds the provider token pair of an account. There is at most one row per account.
type Credential struct {
	AccountGUID  string `gorm:"primaryKey;size:64"`
	AccessToken  string `gorm:"type:text;not null"`
	RefreshToken string `gorm:"type:text;not null"`
	TokenType    string
	ExpiresAt    time.Time `gorm:"not null;index"`
	// RefreshingUntil is the lease held by the instance currently refreshing this pair
	RefreshingUntil *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Credential) TableName() string {
	return "credentials"
}

// ExpiresWithin reports whether the access token expires at or before now+margin
func (c *Credential) ExpiresWithin(now time.Time, margin time.Duration) bool {
	return !c.ExpiresAt.UTC().After(now.UTC().Add(margin))
}
