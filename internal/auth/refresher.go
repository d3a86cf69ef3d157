package auth

import (
	"context"
	"errors"
	"time"

	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const refreshJobName = "token_refresh"

// Refresher proactively refreshes credentials that would expire before the next
// tick, and cleans up expired exchange codes and login states.
type Refresher struct {
	db       *gorm.DB
	manager  *Manager
	store    CredentialStore
	broker   *Broker
	states   *GormStateStore
	interval time.Duration
	margin   time.Duration
	now      func() time.Time
}

// NewRefresher builds the job. states may be nil when login state lives in redis.
func NewRefresher(db *gorm.DB, manager *Manager, store CredentialStore, broker *Broker, states *GormStateStore, interval time.Duration) *Refresher {
	return &Refresher{
		db:       db,
		manager:  manager,
		store:    store,
		broker:   broker,
		states:   states,
		interval: interval,
		margin:   manager.cfg.RefreshMargin,
		now:      time.Now,
	}
}

// Run ticks until ctx is cancelled
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	log.WithField("interval", r.interval.String()).Info("Token refresher started")
	for {
		select {
		case <-ctx.Done():
			log.Info("Token refresher stopped")
			return
		case <-ticker.C:
			if _, err := r.RefreshDue(ctx); err != nil {
				log.WithError(err).Error("Token refresh run failed")
			}
		}
	}
}

// RefreshDue refreshes every credential expiring before the next run and
// records the run in job_logs. It returns how many credentials were refreshed.
func (r *Refresher) RefreshDue(ctx context.Context) (int, error) {
	job := &models.JobLog{
		JobName:   refreshJobName,
		Status:    models.JobStatusStarted,
		StartedAt: r.now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return 0, err
	}

	window := r.interval + r.margin
	due, err := r.store.ListExpiringBefore(ctx, r.now().Add(window))
	if err != nil {
		r.finish(ctx, job, 0, err)
		return 0, err
	}

	refreshed, failed := 0, 0
	for _, cred := range due {
		if ctx.Err() != nil {
			break
		}
		_, err := r.manager.RefreshIfExpiring(ctx, cred.AccountGUID, window)
		switch {
		case err == nil:
			refreshed++
		case errors.Is(err, ErrRefreshFailed):
			failed++
		default:
			failed++
			log.WithError(err).WithField("account_id", cred.AccountGUID).Warn("Scheduled refresh failed")
		}
	}

	r.cleanup(ctx)

	var runErr error
	if failed > 0 {
		runErr = errors.New("some credentials could not be refreshed")
	}
	r.finish(ctx, job, refreshed, runErr)

	log.WithFields(logrus.Fields{
		"due":       len(due),
		"refreshed": refreshed,
		"failed":    failed,
	}).Info("Token refresh run completed")
	return refreshed, nil
}

func (r *Refresher) cleanup(ctx context.Context) {
	if r.broker != nil {
		if n, err := r.broker.PurgeExpired(ctx); err != nil {
			log.WithError(err).Warn("Failed to purge exchange codes")
		} else if n > 0 {
			log.WithField("purged", n).Debug("Purged exchange codes")
		}
	}
	if r.states != nil {
		if _, err := r.states.Purge(ctx); err != nil {
			log.WithError(err).Warn("Failed to purge login states")
		}
	}
}

func (r *Refresher) finish(ctx context.Context, job *models.JobLog, processed int, err error) {
	completed := r.now().UTC()
	job.CompletedAt = &completed
	job.RecordsProcessed = processed
	job.Status = models.JobStatusCompleted
	if err != nil {
		job.Status = models.JobStatusFailed
		job.ErrorMessage = err.Error()
	}
	if saveErr := r.db.WithContext(ctx).Save(job).Error; saveErr != nil {
		log.WithError(saveErr).Error("Failed to record job log")
	}
}
