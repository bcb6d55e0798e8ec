package marketdata

import (
	"context"
	"time"
)

// RefreshJob refetches all stored price history on a schedule.
type RefreshJob struct {
	service *Service
	period  string
	timeout time.Duration
}

// NewRefreshJob creates the scheduled price refresh job.
func NewRefreshJob(service *Service, period string) *RefreshJob {
	return &RefreshJob{
		service: service,
		period:  period,
		timeout: 15 * time.Minute,
	}
}

// Name implements scheduler.Job.
func (j *RefreshJob) Name() string {
	return "price_refresh"
}

// Run implements scheduler.Job.
func (j *RefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	return j.service.RefreshAll(ctx, j.period)
}
