// Package janitor periodically removes expired sessions so stores that
// only hide them on read do not grow without bound.
package janitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

type Janitor struct {
	purger  Purger
	timeout time.Duration
	logger  *slog.Logger
	cron    *cron.Cron
}

// New schedules a purge. schedule accepts standard five-field cron
// expressions and descriptors such as "@every 10m".
func New(purger Purger, schedule string, timeout time.Duration, logger *slog.Logger) (*Janitor, error) {
	j := &Janitor{
		purger:  purger,
		timeout: timeout,
		logger:  logger,
		cron:    cron.New(cron.WithLocation(time.UTC)),
	}
	if _, err := j.cron.AddFunc(schedule, j.run); err != nil {
		return nil, fmt.Errorf("purge schedule %q: %w", schedule, err)
	}
	return j, nil
}

func (j *Janitor) Start() {
	j.cron.Start()
}

// Stop halts the schedule and waits for a running purge to finish.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

func (j *Janitor) RunOnce(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()
	return j.purger.PurgeExpired(ctx)
}

func (j *Janitor) run() {
	n, err := j.RunOnce(context.Background())
	if err != nil {
		j.logger.Warn("session purge", "error", err)
		return
	}
	if n > 0 {
		j.logger.Info("session purge", "removed", n)
	}
}
