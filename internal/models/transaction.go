package models

import (
	"time"
)

// Transaction is one add, drop or trade recorded by Yahoo for a league.
// Rows are only ever inserted; the pair (league_key, transaction_id) is unique.
type Transaction struct {
	ID              uint                `gorm:"primaryKey" json:"-"`
	TransactionID   string              `gorm:"not null;size:20;uniqueIndex:idx_league_transaction" json:"transaction_id"`
	LeagueKey       string              `gorm:"not null;size:64;uniqueIndex:idx_league_transaction;index" json:"league_key"`
	Type            string              `gorm:"not null;size:20" json:"type"`
	Status          string              `gorm:"size:20" json:"status"`
	Timestamp       int64               `gorm:"not null;index" json:"timestamp"`
	TransactionDate time.Time           `gorm:"not null" json:"transaction_date"`
	TraderTeamKey   *string             `gorm:"size:64" json:"trader_team_key,omitempty"`
	TradeeTeamKey   *string             `gorm:"size:64" json:"tradee_team_key,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	Players         []TransactionPlayer `gorm:"foreignKey:TransactionRef;constraint:OnDelete:CASCADE" json:"players"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// TransactionPlayer is a player moved by a transaction
type TransactionPlayer struct {
	ID                  uint   `gorm:"primaryKey" json:"-"`
	TransactionRef      uint   `gorm:"not null;index" json:"-"`
	PlayerID            string `gorm:"not null;size:20;index" json:"player_id"`
	PlayerName          string `gorm:"not null;size:100" json:"player_name"`
	NBATeam             string `gorm:"size:10" json:"nba_team"`
	Position            string `gorm:"size:20" json:"position"`
	ActionType          string `gorm:"not null;size:10" json:"action_type"`
	SourceType          string `gorm:"size:20" json:"source_type"`
	SourceTeamKey       string `gorm:"size:64;index" json:"source_team_key,omitempty"`
	SourceTeamName      string `gorm:"size:100" json:"source_team_name,omitempty"`
	DestinationType     string `gorm:"size:20" json:"destination_type"`
	DestinationTeamKey  string `gorm:"size:64;index" json:"destination_team_key,omitempty"`
	DestinationTeamName string `gorm:"size:100" json:"destination_team_name,omitempty"`
}

func (TransactionPlayer) TableName() string {
	return "transaction_players"
}
