package models

import (
	"time"
)

// LeagueSync tracks the last forced upstream refresh of a league.
// Shared by every account in the league; Version guards concurrent writers.
type LeagueSync struct {
	LeagueKey    string `gorm:"primaryKey;size:64"`
	LastForcedAt time.Time
	Version      int64 `gorm:"not null;default:0"`
}

func (LeagueSync) TableName() string {
	return "league_syncs"
}
