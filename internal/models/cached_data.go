package models

import (
	"time"
)

type CachedData struct {
	ID        uint      `gorm:"primaryKey"`
	LeagueKey string    `gorm:"not null;size:64;uniqueIndex:idx_cache_entry"`
	DataType  string    `gorm:"not null;size:32;uniqueIndex:idx_cache_entry"`
	Week      int       `gorm:"not null;default:0;uniqueIndex:idx_cache_entry"`
	Data      string    `gorm:"type:text;not null"`
	FetchedAt time.Time `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

func (CachedData) TableName() string {
	return "cached_data"
}

// IsFresh reports whether the entry can still be served without an upstream call
func (c *CachedData) IsFresh(now time.Time) bool {
	return now.UTC().Before(c.ExpiresAt.UTC())
}
