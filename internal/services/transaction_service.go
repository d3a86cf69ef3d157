package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/fantasy"
	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	defaultTransactionLimit = 50
	maxTransactionLimit     = 200
	topPlayersLimit         = 10
)

// TransactionSync is the outcome of one sync request
type TransactionSync struct {
	Success                  bool   `json:"success"`
	NewTransactions          int    `json:"new_transactions"`
	Skipped                  bool   `json:"skipped"`
	CooldownActive           bool   `json:"cooldown_active"`
	CooldownRemainingMinutes int    `json:"cooldown_remaining_minutes,omitempty"`
	LatestTransactionID      string `json:"latest_transaction_id,omitempty"`
}

// TransactionSyncStatus tells the dashboard whether a sync is worth requesting
type TransactionSyncStatus struct {
	LeagueKey                string     `json:"league_key"`
	LastSyncAt               *time.Time `json:"last_sync_at"`
	LastSyncAgoMinutes       *int       `json:"last_sync_ago_minutes"`
	TotalTransactions        int64      `json:"total_transactions"`
	LatestTransactionID      string     `json:"latest_transaction_id,omitempty"`
	CooldownActive           bool       `json:"cooldown_active"`
	CooldownRemainingMinutes *int       `json:"cooldown_remaining_minutes"`
	ShouldAutoSync           bool       `json:"should_auto_sync"`
}

// TransactionFilter narrows a transaction listing. Zero values mean no filter.
type TransactionFilter struct {
	TeamKey string
	Type    string
	Limit   int
	Offset  int
}

// Normalized applies the default page size and caps it
func (f TransactionFilter) Normalized() TransactionFilter {
	if f.Limit <= 0 {
		f.Limit = defaultTransactionLimit
	}
	if f.Limit > maxTransactionLimit {
		f.Limit = maxTransactionLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

type ManagerActivity struct {
	TeamKey  string `json:"team_key"`
	TeamName string `json:"team_name"`
	Adds     int    `json:"adds"`
	Drops    int    `json:"drops"`
	Trades   int    `json:"trades"`
	Total    int    `json:"total"`
}

type PlayerMoves struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	NBATeam    string `json:"nba_team"`
	Position   string `json:"position"`
	Count      int    `json:"count"`
}

type TransactionStats struct {
	TotalTransactions int64             `json:"total_transactions"`
	ManagerActivity   []ManagerActivity `json:"manager_activity"`
	MostAdded         []PlayerMoves     `json:"most_added"`
	MostDropped       []PlayerMoves     `json:"most_dropped"`
}

type TransactionService interface {
	// Sync pulls the league's transactions from upstream and stores the ones not
	// seen before. It spends the league's cooldown; a sync on cooldown is skipped.
	Sync(ctx context.Context, accountGUID, leagueKey string) (*TransactionSync, error)
	SyncStatus(ctx context.Context, leagueKey string) (*TransactionSyncStatus, error)
	List(ctx context.Context, leagueKey string, filter TransactionFilter) ([]models.Transaction, int64, error)
	Stats(ctx context.Context, leagueKey string) (*TransactionStats, error)
	LatestTransactionID(ctx context.Context, leagueKey string) (string, error)
}

type transactionService struct {
	db        *gorm.DB
	fetcher   LeagueFetcher
	cooldown  SyncCooldown
	autoAfter time.Duration
	now       func() time.Time
}

// NewTransactionService builds the store. autoSyncAfter is how old the last sync
// must be before the dashboard is told to sync on its own.
func NewTransactionService(db *gorm.DB, fetcher LeagueFetcher, cooldown SyncCooldown, autoSyncAfter time.Duration) TransactionService {
	return &transactionService{db: db, fetcher: fetcher, cooldown: cooldown, autoAfter: autoSyncAfter, now: time.Now}
}

func (s *transactionService) Sync(ctx context.Context, accountGUID, leagueKey string) (*TransactionSync, error) {
	fields := logrus.Fields{"account_id": accountGUID, "league_key": leagueKey}

	acquired, remaining, err := s.cooldown.TryAcquire(ctx, leagueKey)
	if err != nil {
		return nil, err
	}
	if !acquired {
		log.WithFields(fields).WithField("remaining", remaining.String()).Info("Transaction sync skipped, league on cooldown")
		return &TransactionSync{
			Success:                  true,
			Skipped:                  true,
			CooldownActive:           true,
			CooldownRemainingMinutes: ceilMinutes(remaining),
		}, nil
	}

	raw, err := s.fetcher.LeagueResource(ctx, accountGUID, leagueKey, fantasy.ResourceTransactions, 0)
	if err != nil {
		if errors.Is(err, fantasy.ErrUpstreamUnavailable) {
			if relErr := s.cooldown.Release(ctx, leagueKey); relErr != nil {
				log.WithFields(fields).WithError(relErr).Warn("Failed to release league cooldown")
			}
		}
		return nil, err
	}

	added, err := s.store(ctx, leagueKey, fantasy.ParseTransactions(raw, leagueKey))
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Model(&models.UserLeague{}).
		Where("league_key = ?", leagueKey).
		Update("last_transaction_sync_at", s.now().UTC()).Error
	if err != nil {
		return nil, fmt.Errorf("record transaction sync: %w", err)
	}

	latest, err := s.LatestTransactionID(ctx, leagueKey)
	if err != nil {
		return nil, err
	}
	log.WithFields(fields).WithField("new_transactions", added).Info("Transactions synced")
	return &TransactionSync{Success: true, NewTransactions: added, LatestTransactionID: latest}, nil
}

// store inserts the transactions whose id the league has not stored yet
func (s *transactionService) store(ctx context.Context, leagueKey string, parsed []models.Transaction) (int, error) {
	if len(parsed) == 0 {
		return 0, nil
	}

	added := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&models.Transaction{}).Where("league_key = ?", leagueKey).Pluck("transaction_id", &ids).Error; err != nil {
			return err
		}
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			seen[id] = true
		}

		for i := range parsed {
			txn := parsed[i]
			if seen[txn.TransactionID] {
				continue
			}
			txn.LeagueKey = leagueKey
			if err := tx.Create(&txn).Error; err != nil {
				return err
			}
			seen[txn.TransactionID] = true
			added++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("store transactions: %w", err)
	}
	return added, nil
}

func (s *transactionService) SyncStatus(ctx context.Context, leagueKey string) (*TransactionSyncStatus, error) {
	status := &TransactionSyncStatus{LeagueKey: leagueKey}

	var synced []models.UserLeague
	err := s.db.WithContext(ctx).
		Where("league_key = ? AND last_transaction_sync_at IS NOT NULL", leagueKey).
		Order("last_transaction_sync_at desc").Limit(1).
		Find(&synced).Error
	if err != nil {
		return nil, err
	}
	if len(synced) == 1 {
		last := synced[0].LastTransactionSyncAt.UTC()
		ago := int(s.now().UTC().Sub(last).Minutes())
		status.LastSyncAt = &last
		status.LastSyncAgoMinutes = &ago
	}

	if err := s.db.WithContext(ctx).Model(&models.Transaction{}).Where("league_key = ?", leagueKey).Count(&status.TotalTransactions).Error; err != nil {
		return nil, err
	}
	if status.LatestTransactionID, err = s.LatestTransactionID(ctx, leagueKey); err != nil {
		return nil, err
	}

	remaining, err := s.cooldown.Remaining(ctx, leagueKey)
	if err != nil {
		return nil, err
	}
	if remaining > 0 {
		minutes := ceilMinutes(remaining)
		status.CooldownActive = true
		status.CooldownRemainingMinutes = &minutes
	}

	stale := status.LastSyncAt == nil || s.now().UTC().Sub(*status.LastSyncAt) >= s.autoAfter
	status.ShouldAutoSync = stale && !status.CooldownActive
	return status, nil
}

func (s *transactionService) LatestTransactionID(ctx context.Context, leagueKey string) (string, error) {
	var latest []models.Transaction
	err := s.db.WithContext(ctx).
		Where("league_key = ?", leagueKey).
		Order("timestamp desc, id desc").Limit(1).
		Find(&latest).Error
	if err != nil || len(latest) == 0 {
		return "", err
	}
	return latest[0].TransactionID, nil
}

func (s *transactionService) List(ctx context.Context, leagueKey string, filter TransactionFilter) ([]models.Transaction, int64, error) {
	filter = filter.Normalized()

	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Where("transactions.league_key = ?", leagueKey)
		if filter.Type != "" {
			db = db.Where("transactions.type = ?", filter.Type)
		}
		if filter.TeamKey != "" {
			k := filter.TeamKey
			db = db.Where(`(transactions.trader_team_key = ? OR transactions.tradee_team_key = ? OR EXISTS (
				SELECT 1 FROM transaction_players tp
				WHERE tp.transaction_ref = transactions.id AND (tp.source_team_key = ? OR tp.destination_team_key = ?)))`, k, k, k, k)
		}
		return db
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Transaction{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var txns []models.Transaction
	err := s.db.WithContext(ctx).Scopes(scope).
		Preload("Players").
		Order("transactions.timestamp desc, transactions.id desc").
		Limit(filter.Limit).Offset(filter.Offset).
		Find(&txns).Error
	return txns, total, err
}

func (s *transactionService) Stats(ctx context.Context, leagueKey string) (*TransactionStats, error) {
	stats := &TransactionStats{}
	if err := s.db.WithContext(ctx).Model(&models.Transaction{}).Where("league_key = ?", leagueKey).Count(&stats.TotalTransactions).Error; err != nil {
		return nil, err
	}

	var players []models.TransactionPlayer
	err := s.db.WithContext(ctx).Model(&models.TransactionPlayer{}).
		Joins("JOIN transactions ON transactions.id = transaction_players.transaction_ref").
		Where("transactions.league_key = ?", leagueKey).
		Order("transaction_players.id").
		Find(&players).Error
	if err != nil {
		return nil, err
	}

	stats.ManagerActivity = managerActivity(players)
	stats.MostAdded = topMoves(players, "add")
	stats.MostDropped = topMoves(players, "drop")
	return stats, nil
}

// managerActivity counts adds, drops and trades per team, busiest first
func managerActivity(players []models.TransactionPlayer) []ManagerActivity {
	byTeam := map[string]*ManagerActivity{}
	team := func(key, name string) *ManagerActivity {
		id := key
		if id == "" {
			id = name
		}
		if id == "" {
			return nil
		}
		a, ok := byTeam[id]
		if !ok {
			a = &ManagerActivity{TeamKey: key, TeamName: name}
			byTeam[id] = a
		}
		return a
	}

	for _, p := range players {
		switch p.ActionType {
		case "add":
			if a := team(p.DestinationTeamKey, p.DestinationTeamName); a != nil {
				a.Adds++
			}
		case "drop":
			if a := team(p.SourceTeamKey, p.SourceTeamName); a != nil {
				a.Drops++
			}
		case "trade":
			for _, a := range []*ManagerActivity{team(p.SourceTeamKey, p.SourceTeamName), team(p.DestinationTeamKey, p.DestinationTeamName)} {
				if a != nil {
					a.Trades++
				}
			}
		}
	}

	activity := make([]ManagerActivity, 0, len(byTeam))
	for _, a := range byTeam {
		a.Total = a.Adds + a.Drops + a.Trades
		activity = append(activity, *a)
	}
	sort.Slice(activity, func(i, j int) bool {
		if activity[i].Total != activity[j].Total {
			return activity[i].Total > activity[j].Total
		}
		return activity[i].TeamName < activity[j].TeamName
	})
	return activity
}

func topMoves(players []models.TransactionPlayer, action string) []PlayerMoves {
	byPlayer := map[string]*PlayerMoves{}
	var order []string
	for _, p := range players {
		if p.ActionType != action {
			continue
		}
		m, ok := byPlayer[p.PlayerID]
		if !ok {
			m = &PlayerMoves{PlayerID: p.PlayerID, PlayerName: p.PlayerName, NBATeam: p.NBATeam, Position: p.Position}
			byPlayer[p.PlayerID] = m
			order = append(order, p.PlayerID)
		}
		m.Count++
	}

	moves := make([]PlayerMoves, 0, len(order))
	for _, id := range order {
		moves = append(moves, *byPlayer[id])
	}
	sort.SliceStable(moves, func(i, j int) bool {
		return moves[i].Count > moves[j].Count
	})
	if len(moves) > topPlayersLimit {
		moves = moves[:topPlayersLimit]
	}
	return moves
}

func ceilMinutes(d time.Duration) int {
	return int(math.Ceil(d.Minutes()))
}
