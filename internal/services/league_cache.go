package services

import (
	"context"
	"errors"
	"time"

	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CacheMetadata tells the client how old the data it got is
type CacheMetadata struct {
	Cached            bool      `json:"cached"`
	Stale             bool      `json:"stale"`
	FetchedAt         time.Time `json:"fetched_at"`
	ExpiresAt         time.Time `json:"expires_at"`
	CooldownRemaining int       `json:"cooldown_remaining_seconds,omitempty"`
}

// LeagueCache stores raw league documents in cached_data with a fixed time to live
type LeagueCache struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

func NewLeagueCache(db *gorm.DB, ttl time.Duration) *LeagueCache {
	return &LeagueCache{db: db, ttl: ttl, now: time.Now}
}

// Get returns the entry regardless of freshness, or nil when nothing was ever cached
func (c *LeagueCache) Get(ctx context.Context, leagueKey, dataType string, week int) (*models.CachedData, error) {
	var entry models.CachedData
	err := c.db.WithContext(ctx).
		Where("league_key = ? AND data_type = ? AND week = ?", leagueKey, dataType, week).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetFresh returns the entry only while it has not expired
func (c *LeagueCache) GetFresh(ctx context.Context, leagueKey, dataType string, week int) (*models.CachedData, error) {
	entry, err := c.Get(ctx, leagueKey, dataType, week)
	if err != nil || entry == nil {
		return nil, err
	}
	if !entry.IsFresh(c.now()) {
		return nil, nil
	}
	return entry, nil
}

func (c *LeagueCache) Put(ctx context.Context, leagueKey, dataType string, week int, data []byte) (*models.CachedData, error) {
	now := c.now().UTC()
	entry := &models.CachedData{
		LeagueKey: leagueKey,
		DataType:  dataType,
		Week:      week,
		Data:      string(data),
		FetchedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}
	err := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "league_key"}, {Name: "data_type"}, {Name: "week"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "fetched_at", "expires_at"}),
	}).Create(entry).Error
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Metadata describes entry as seen now
func (c *LeagueCache) Metadata(entry *models.CachedData, cached bool) CacheMetadata {
	return CacheMetadata{
		Cached:    cached,
		Stale:     !entry.IsFresh(c.now()),
		FetchedAt: entry.FetchedAt.UTC(),
		ExpiresAt: entry.ExpiresAt.UTC(),
	}
}
