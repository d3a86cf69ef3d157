package models

import (
	"time"
)

// ExchangeCode bridges the browser callback to the dashboard client. Single use, short lived.
type ExchangeCode struct {
	Code        string `gorm:"primaryKey;size:64"`
	AccountGUID string `gorm:"not null;index;size:64"`
	Consumed    bool   `gorm:"not null;default:false"`
	ConsumedAt  *time.Time
	CreatedAt   time.Time `gorm:"not null;index"`
}

func (ExchangeCode) TableName() string {
	return "exchange_codes"
}
