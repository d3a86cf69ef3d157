package models

import (
	"time"
)

const (
	JobStatusStarted   = "started"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

type JobLog struct {
	ID               uint   `gorm:"primaryKey"`
	JobName          string `gorm:"not null;index"`
	Status           string `gorm:"not null"`
	RecordsProcessed int
	ErrorMessage     string    `gorm:"type:text"`
	StartedAt        time.Time `gorm:"not null"`
	CompletedAt      *time.Time
}

func (JobLog) TableName() string {
	return "job_logs"
}
