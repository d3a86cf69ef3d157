package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const exchangeCodeBytes = 32

// Broker hands the browser callback's result to the dashboard client through
// a short-lived single use code, since the two cannot share cookies.
type Broker struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

func NewBroker(db *gorm.DB, ttl time.Duration) *Broker {
	return &Broker{db: db, ttl: ttl, now: time.Now}
}

// WithClock replaces the time source
func (b *Broker) WithClock(now func() time.Time) *Broker {
	b.now = now
	return b
}

func (b *Broker) TTL() time.Duration {
	return b.ttl
}

// Issue stores a fresh 256-bit code for the account and returns it
func (b *Broker) Issue(ctx context.Context, accountGUID string) (string, error) {
	if _, err := b.PurgeExpired(ctx); err != nil {
		log.WithError(err).Warn("Failed to purge expired exchange codes")
	}

	code, err := randomToken(exchangeCodeBytes)
	if err != nil {
		return "", err
	}
	row := &models.ExchangeCode{
		Code:        code,
		AccountGUID: accountGUID,
		CreatedAt:   b.now().UTC(),
	}
	if err := b.db.WithContext(ctx).Create(row).Error; err != nil {
		return "", fmt.Errorf("store exchange code: %w", err)
	}
	return code, nil
}

// Redeem consumes the code and returns the owning account GUID.
// A code is valid for exactly ttl after creation, inclusive.
func (b *Broker) Redeem(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", b.misuse(ErrCodeNotFound, code)
	}

	var row models.ExchangeCode
	err := b.db.WithContext(ctx).Where("code = ?", code).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", b.misuse(ErrCodeNotFound, code)
	}
	if err != nil {
		return "", err
	}

	now := b.now().UTC()
	if now.Sub(row.CreatedAt.UTC()) > b.ttl {
		return "", b.misuse(ErrCodeExpired, code)
	}
	if row.Consumed {
		return "", b.misuse(ErrCodeAlreadyUsed, code)
	}

	res := b.db.WithContext(ctx).Model(&models.ExchangeCode{}).
		Where("code = ? AND consumed = ?", code, false).
		Updates(map[string]interface{}{"consumed": true, "consumed_at": now})
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		return "", b.misuse(ErrCodeAlreadyUsed, code)
	}
	return row.AccountGUID, nil
}

// PurgeExpired deletes codes past their TTL. Consumed codes stay until then so
// a replay is still reported as already used.
func (b *Broker) PurgeExpired(ctx context.Context) (int64, error) {
	cutoff := b.now().UTC().Add(-b.ttl)
	res := b.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.ExchangeCode{})
	return res.RowsAffected, res.Error
}

func (b *Broker) misuse(kind error, code string) error {
	log.WithFields(logrus.Fields{
		"code_prefix": prefix(code),
		"reason":      kind.Error(),
	}).Warn("Rejected exchange code redemption")
	return kind
}

func prefix(s string) string {
	if len(s) > 6 {
		return s[:6]
	}
	return s
}
