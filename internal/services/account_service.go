package services

import (
	"context"
	"errors"

	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/models"
	"gorm.io/gorm"
)

var ErrAccountNotFound = errors.New("account not found")

// Profile is what the dashboard shows about the signed in account
type Profile struct {
	Account     models.Account
	LeagueCount int64
}

type AccountService interface {
	GetAccount(ctx context.Context, guid string) (*models.Account, error)
	GetProfile(ctx context.Context, guid string) (*Profile, error)
}

type accountService struct {
	db *gorm.DB
}

func NewAccountService(db *gorm.DB) AccountService {
	return &accountService{db: db}
}

func (s *accountService) GetAccount(ctx context.Context, guid string) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).Where("guid = ?", guid).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (s *accountService) GetProfile(ctx context.Context, guid string) (*Profile, error) {
	account, err := s.GetAccount(ctx, guid)
	if err != nil {
		return nil, err
	}
	profile := &Profile{Account: *account}
	if err := s.db.WithContext(ctx).Model(&models.UserLeague{}).Where("account_guid = ?", guid).Count(&profile.LeagueCount).Error; err != nil {
		return nil, err
	}
	return profile, nil
}
