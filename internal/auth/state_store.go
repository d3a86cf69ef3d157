package auth

import (
	"context"
	"errors"
	"time"

	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/models"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StateStore keeps the anti-forgery state of in-progress logins, keyed by browser session.
// Take is single use: it returns "" for unknown, expired or already taken keys.
type StateStore interface {
	Save(ctx context.Context, sessionKey, state string, ttl time.Duration) error
	Take(ctx context.Context, sessionKey string) (string, error)
}

type GormStateStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormStateStore(db *gorm.DB) *GormStateStore {
	return &GormStateStore{db: db, now: time.Now}
}

func (s *GormStateStore) Save(ctx context.Context, sessionKey, state string, ttl time.Duration) error {
	row := &models.LoginState{
		SessionKey: sessionKey,
		State:      state,
		ExpiresAt:  s.now().UTC().Add(ttl),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"state", "expires_at"}),
	}).Create(row).Error
}

func (s *GormStateStore) Take(ctx context.Context, sessionKey string) (string, error) {
	var row models.LoginState
	err := s.db.WithContext(ctx).Where("session_key = ?", sessionKey).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	// the conditional delete decides between concurrent takers
	res := s.db.WithContext(ctx).
		Where("session_key = ? AND state = ?", sessionKey, row.State).
		Delete(&models.LoginState{})
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 || !s.now().UTC().Before(row.ExpiresAt.UTC()) {
		return "", nil
	}
	return row.State, nil
}

// Purge removes expired rows left behind by abandoned logins
func (s *GormStateStore) Purge(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", s.now().UTC()).Delete(&models.LoginState{})
	return res.RowsAffected, res.Error
}

const redisStatePrefix = "login_state:"

// RedisStateStore relies on key expiry, so abandoned logins need no purge
type RedisStateStore struct {
	client *redis.Client
}

func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client}
}

func (s *RedisStateStore) Save(ctx context.Context, sessionKey, state string, ttl time.Duration) error {
	return s.client.Set(ctx, redisStatePrefix+sessionKey, state, ttl).Err()
}

func (s *RedisStateStore) Take(ctx context.Context, sessionKey string) (string, error) {
	state, err := s.client.GetDel(ctx, redisStatePrefix+sessionKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return state, err
}
