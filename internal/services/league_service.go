package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/fantasy"
	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
}

// SetLogger replaces the package logger
func SetLogger(l *logrus.Logger) {
	if l != nil {
		log = l
	}
}

// CooldownError is returned when a forced refresh is refused and nothing is cached to fall back on
type CooldownError struct {
	LeagueKey string
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("league %s was refreshed recently, retry in %s", e.LeagueKey, e.Remaining.Round(time.Second))
}

// LeagueFetcher is the part of the fantasy client the league service needs
type LeagueFetcher interface {
	UserLeagues(ctx context.Context, accountGUID string) ([]byte, error)
	LeagueResource(ctx context.Context, accountGUID, leagueKey, resource string, week int) ([]byte, error)
}

// ResourceResult is a league document plus where it came from
type ResourceResult struct {
	Data  json.RawMessage `json:"data"`
	Cache CacheMetadata   `json:"cache"`
}

type LeagueService interface {
	// SyncUserLeagues pulls the account's leagues from upstream and records membership
	SyncUserLeagues(ctx context.Context, accountGUID string) ([]models.UserLeague, error)
	ListUserLeagues(ctx context.Context, accountGUID string) ([]models.UserLeague, error)
	HasAccess(ctx context.Context, accountGUID, leagueKey string) (bool, error)
	// GetResource serves from cache while fresh. forceRefresh bypasses the cache,
	// subject to the league's shared cooldown.
	GetResource(ctx context.Context, accountGUID, leagueKey, resource string, week int, forceRefresh bool) (*ResourceResult, error)
}

type leagueService struct {
	db       *gorm.DB
	fetcher  LeagueFetcher
	cache    *LeagueCache
	cooldown SyncCooldown
}

func NewLeagueService(db *gorm.DB, fetcher LeagueFetcher, cache *LeagueCache, cooldown SyncCooldown) LeagueService {
	return &leagueService{db: db, fetcher: fetcher, cache: cache, cooldown: cooldown}
}

func (s *leagueService) SyncUserLeagues(ctx context.Context, accountGUID string) ([]models.UserLeague, error) {
	raw, err := s.fetcher.UserLeagues(ctx, accountGUID)
	if err != nil {
		return nil, err
	}

	parsed := fantasy.ParseUserLeagues(raw)
	if len(parsed) > 0 {
		rows := make([]models.UserLeague, 0, len(parsed))
		for _, l := range parsed {
			rows = append(rows, models.UserLeague{
				AccountGUID: accountGUID,
				LeagueKey:   l.LeagueKey,
				LeagueID:    l.LeagueID,
				Name:        l.Name,
				Season:      l.Season,
				NumTeams:    l.NumTeams,
			})
		}
		err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_guid"}, {Name: "league_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"league_id", "name", "season", "num_teams", "updated_at"}),
		}).Create(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("store user leagues: %w", err)
		}
	}

	log.WithFields(logrus.Fields{
		"account_id": accountGUID,
		"leagues":    len(parsed),
	}).Info("User leagues synced")
	return s.ListUserLeagues(ctx, accountGUID)
}

func (s *leagueService) ListUserLeagues(ctx context.Context, accountGUID string) ([]models.UserLeague, error) {
	var leagues []models.UserLeague
	err := s.db.WithContext(ctx).Where("account_guid = ?", accountGUID).Order("season desc, name").Find(&leagues).Error
	return leagues, err
}

func (s *leagueService) HasAccess(ctx context.Context, accountGUID, leagueKey string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.UserLeague{}).
		Where("account_guid = ? AND league_key = ?", accountGUID, leagueKey).
		Count(&count).Error
	return count > 0, err
}

func (s *leagueService) GetResource(ctx context.Context, accountGUID, leagueKey, resource string, week int, forceRefresh bool) (*ResourceResult, error) {
	if !fantasy.IsKnownResource(resource) {
		return nil, fantasy.ErrUnknownResource
	}
	if resource != fantasy.ResourceScoreboard {
		week = 0
	}
	fields := logrus.Fields{"account_id": accountGUID, "league_key": leagueKey, "resource": resource}

	if forceRefresh {
		acquired, remaining, err := s.cooldown.TryAcquire(ctx, leagueKey)
		if err != nil {
			return nil, err
		}
		if !acquired {
			log.WithFields(fields).WithField("remaining", remaining.String()).Info("Forced refresh refused, league on cooldown")
			entry, err := s.cache.Get(ctx, leagueKey, resource, week)
			if err != nil {
				return nil, err
			}
			if entry == nil {
				return nil, &CooldownError{LeagueKey: leagueKey, Remaining: remaining}
			}
			result := s.fromCache(entry)
			result.Cache.CooldownRemaining = int(remaining.Round(time.Second).Seconds())
			return result, nil
		}
	} else {
		entry, err := s.cache.GetFresh(ctx, leagueKey, resource, week)
		if err != nil {
			return nil, err
		}
		if entry != nil {
			return s.fromCache(entry), nil
		}
	}

	raw, err := s.fetcher.LeagueResource(ctx, accountGUID, leagueKey, resource, week)
	if err != nil {
		if errors.Is(err, fantasy.ErrUpstreamUnavailable) {
			if forceRefresh {
				// nothing was fetched, so the league keeps its window
				s.releaseCooldown(ctx, leagueKey, fields)
			}
			// better to show old numbers than nothing
			if entry, cacheErr := s.cache.Get(ctx, leagueKey, resource, week); cacheErr == nil && entry != nil {
				log.WithFields(fields).WithError(err).Warn("Upstream unavailable, serving stale cache")
				return s.fromCache(entry), nil
			}
		}
		return nil, err
	}

	entry, err := s.cache.Put(ctx, leagueKey, resource, week, raw)
	if err != nil {
		return nil, fmt.Errorf("cache league %s: %w", resource, err)
	}
	log.WithFields(fields).Debug("League resource fetched from upstream")
	return &ResourceResult{Data: json.RawMessage(raw), Cache: s.cache.Metadata(entry, false)}, nil
}

func (s *leagueService) releaseCooldown(ctx context.Context, leagueKey string, fields logrus.Fields) {
	if err := s.cooldown.Release(ctx, leagueKey); err != nil {
		log.WithFields(fields).WithError(err).Warn("Failed to release league cooldown")
	}
}

func (s *leagueService) fromCache(entry *models.CachedData) *ResourceResult {
	return &ResourceResult{Data: json.RawMessage(entry.Data), Cache: s.cache.Metadata(entry, true)}
}
