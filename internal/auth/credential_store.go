package auth

import (
	"context"
	"errors"
	"time"

	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CredentialStore persists accounts and their provider token pairs.
// Only the Manager writes token fields.
type CredentialStore interface {
	UpsertAccount(ctx context.Context, account *models.Account) error
	GetAccount(ctx context.Context, guid string) (*models.Account, error)
	GetCredential(ctx context.Context, guid string) (*models.Credential, error)
	SaveCredential(ctx context.Context, cred *models.Credential) error
	// ReplaceCredential swaps the pair only if the stored refresh token still equals
	// previousRefreshToken. It returns false when another writer got there first.
	ReplaceCredential(ctx context.Context, next *models.Credential, previousRefreshToken string) (bool, error)
	// DeleteCredential removes the pair if it still holds refreshToken
	DeleteCredential(ctx context.Context, guid, refreshToken string) error
	// ClaimRefresh takes the refresh lease on the pair holding refreshToken until the
	// given time. It returns false while another instance's lease is still running.
	ClaimRefresh(ctx context.Context, guid, refreshToken string, now, until time.Time) (bool, error)
	ReleaseRefresh(ctx context.Context, guid, refreshToken string) error
	ListExpiringBefore(ctx context.Context, t time.Time) ([]models.Credential, error)
}

type GormCredentialStore struct {
	db *gorm.DB
}

func NewGormCredentialStore(db *gorm.DB) *GormCredentialStore {
	return &GormCredentialStore{db: db}
}

// UpsertAccount inserts the account or refreshes its login time. A blank display
// name never overwrites a known one.
func (s *GormCredentialStore) UpsertAccount(ctx context.Context, account *models.Account) error {
	now := time.Now().UTC()
	if account.LastLoginAt.IsZero() {
		account.LastLoginAt = now
	}
	account.LastLoginAt = account.LastLoginAt.UTC()

	columns := []string{"last_login_at", "updated_at"}
	if account.DisplayName != "" {
		columns = append(columns, "display_name")
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "guid"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(account).Error
}

func (s *GormCredentialStore) GetAccount(ctx context.Context, guid string) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).Where("guid = ?", guid).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (s *GormCredentialStore) GetCredential(ctx context.Context, guid string) (*models.Credential, error) {
	var cred models.Credential
	if err := s.db.WithContext(ctx).Where("account_guid = ?", guid).First(&cred).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoCredential
		}
		return nil, err
	}
	cred.ExpiresAt = cred.ExpiresAt.UTC()
	return &cred, nil
}

// SaveCredential replaces whatever pair the account had
func (s *GormCredentialStore) SaveCredential(ctx context.Context, cred *models.Credential) error {
	cred.ExpiresAt = cred.ExpiresAt.UTC()
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_guid"}},
		DoUpdates: clause.AssignmentColumns([]string{"access_token", "refresh_token", "token_type", "expires_at", "refreshing_until", "updated_at"}),
	}).Create(cred).Error
}

func (s *GormCredentialStore) ReplaceCredential(ctx context.Context, next *models.Credential, previousRefreshToken string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Credential{}).
		Where("account_guid = ? AND refresh_token = ?", next.AccountGUID, previousRefreshToken).
		Updates(map[string]interface{}{
			"access_token":     next.AccessToken,
			"refresh_token":    next.RefreshToken,
			"token_type":       next.TokenType,
			"expires_at":       next.ExpiresAt.UTC(),
			"refreshing_until": nil,
			"updated_at":       time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *GormCredentialStore) DeleteCredential(ctx context.Context, guid, refreshToken string) error {
	return s.db.WithContext(ctx).
		Where("account_guid = ? AND refresh_token = ?", guid, refreshToken).
		Delete(&models.Credential{}).Error
}

func (s *GormCredentialStore) ClaimRefresh(ctx context.Context, guid, refreshToken string, now, until time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Credential{}).
		Where("account_guid = ? AND refresh_token = ?", guid, refreshToken).
		Where("(refreshing_until IS NULL OR refreshing_until < ?)", now.UTC()).
		Update("refreshing_until", until.UTC())
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *GormCredentialStore) ReleaseRefresh(ctx context.Context, guid, refreshToken string) error {
	return s.db.WithContext(ctx).Model(&models.Credential{}).
		Where("account_guid = ? AND refresh_token = ?", guid, refreshToken).
		Update("refreshing_until", nil).Error
}

func (s *GormCredentialStore) ListExpiringBefore(ctx context.Context, t time.Time) ([]models.Credential, error) {
	var creds []models.Credential
	err := s.db.WithContext(ctx).Where("expires_at <= ?", t.UTC()).Order("expires_at").Find(&creds).Error
	return creds, err
}
