package services

import (
	"context"
	"errors"
	"time"

	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/models"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SyncCooldown limits forced upstream refreshes to one per league per window.
// The window is shared by every account that belongs to the league.
type SyncCooldown interface {
	// TryAcquire starts a new window and returns true, or returns false with the
	// time left in the current window.
	TryAcquire(ctx context.Context, leagueKey string) (bool, time.Duration, error)
	// Remaining reports the time left in the current window, zero when none is running
	Remaining(ctx context.Context, leagueKey string) (time.Duration, error)
	// Release ends the window the caller just acquired
	Release(ctx context.Context, leagueKey string) error
}

// GormCooldown keeps the window in league_syncs, using the version column as a compare-and-swap
type GormCooldown struct {
	db     *gorm.DB
	window time.Duration
	now    func() time.Time
}

func NewGormCooldown(db *gorm.DB, window time.Duration) *GormCooldown {
	return &GormCooldown{db: db, window: window, now: time.Now}
}

func (c *GormCooldown) TryAcquire(ctx context.Context, leagueKey string) (bool, time.Duration, error) {
	now := c.now().UTC()

	var row models.LeagueSync
	err := c.db.WithContext(ctx).Where("league_key = ?", leagueKey).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		res := c.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.LeagueSync{LeagueKey: leagueKey, LastForcedAt: now, Version: 1})
		if res.Error != nil {
			return false, 0, res.Error
		}
		if res.RowsAffected == 0 {
			return false, c.window, nil
		}
		return true, 0, nil
	}
	if err != nil {
		return false, 0, err
	}

	if elapsed := now.Sub(row.LastForcedAt.UTC()); elapsed < c.window {
		return false, c.window - elapsed, nil
	}

	res := c.db.WithContext(ctx).Model(&models.LeagueSync{}).
		Where("league_key = ? AND version = ?", leagueKey, row.Version).
		Updates(map[string]interface{}{"last_forced_at": now, "version": row.Version + 1})
	if res.Error != nil {
		return false, 0, res.Error
	}
	if res.RowsAffected == 0 {
		return false, c.window, nil
	}
	return true, 0, nil
}

func (c *GormCooldown) Remaining(ctx context.Context, leagueKey string) (time.Duration, error) {
	var row models.LeagueSync
	err := c.db.WithContext(ctx).Where("league_key = ?", leagueKey).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if elapsed := c.now().UTC().Sub(row.LastForcedAt.UTC()); elapsed < c.window {
		return c.window - elapsed, nil
	}
	return 0, nil
}

func (c *GormCooldown) Release(ctx context.Context, leagueKey string) error {
	return c.db.WithContext(ctx).Model(&models.LeagueSync{}).
		Where("league_key = ?", leagueKey).
		Updates(map[string]interface{}{
			"last_forced_at": time.Time{}.UTC(),
			"version":        gorm.Expr("version + 1"),
		}).Error
}

const redisCooldownPrefix = "league_cooldown:"

// RedisCooldown lets the key's TTL be the window
type RedisCooldown struct {
	client *redis.Client
	window time.Duration
}

func NewRedisCooldown(client *redis.Client, window time.Duration) *RedisCooldown {
	return &RedisCooldown{client: client, window: window}
}

func (c *RedisCooldown) TryAcquire(ctx context.Context, leagueKey string) (bool, time.Duration, error) {
	key := redisCooldownPrefix + leagueKey
	ok, err := c.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), c.window).Result()
	if err != nil {
		return false, 0, err
	}
	if ok {
		return true, 0, nil
	}
	remaining, err := c.client.TTL(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}
	if remaining < 0 {
		remaining = 0
	}
	return false, remaining, nil
}

func (c *RedisCooldown) Remaining(ctx context.Context, leagueKey string) (time.Duration, error) {
	remaining, err := c.client.TTL(ctx, redisCooldownPrefix+leagueKey).Result()
	if err != nil {
		return 0, err
	}
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

func (c *RedisCooldown) Release(ctx context.Context, leagueKey string) error {
	return c.client.Del(ctx, redisCooldownPrefix+leagueKey).Err()
}
