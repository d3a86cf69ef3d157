package models

import (
	"time"
)

// UserLeague links an account to a fantasy league it belongs to.
// LastTransactionSyncAt is when the league's transactions were last pulled from Yahoo.
type UserLeague struct {
	ID                    uint       `gorm:"primaryKey" json:"-"`
	AccountGUID           string     `gorm:"not null;size:64;uniqueIndex:idx_account_league" json:"-"`
	LeagueKey             string     `gorm:"not null;size:64;uniqueIndex:idx_account_league;index" json:"league_key"`
	LeagueID              string     `json:"league_id"`
	Name                  string     `json:"name"`
	Season                string     `json:"season"`
	NumTeams              int        `json:"num_teams"`
	LastTransactionSyncAt *time.Time `json:"last_transaction_sync_at,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

func (UserLeague) TableName() string {
	return "user_leagues"
}
