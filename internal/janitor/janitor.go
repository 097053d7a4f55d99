// Package janitor runs periodic housekeeping on a gocron scheduler.
package janitor

import (
	"context"
	"expvar"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
)

var metricPurgedTotal = expvar.NewInt("janitor_reset_tokens_purged_total")

type ResetTokenPurger interface {
	PurgeExpiredResetTokens(ctx context.Context) (int64, error)
}

type Janitor struct {
	sched   gocron.Scheduler
	purger  ResetTokenPurger
	timeout time.Duration
}

func New(purger ResetTokenPurger, interval time.Duration) (*Janitor, error) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	j := &Janitor{sched: sched, purger: purger, timeout: 30 * time.Second}
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(j.purgeResetTokens),
		gocron.WithName("purge_reset_tokens"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}
	return j, nil
}

func (j *Janitor) Start() {
	j.sched.Start()
}

func (j *Janitor) Stop() error {
	return j.sched.Shutdown()
}

func (j *Janitor) purgeResetTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	n, err := j.purger.PurgeExpiredResetTokens(ctx)
	if err != nil {
		log.Error().Err(err).Msg("purge expired reset tokens failed")
		return
	}
	metricPurgedTotal.Add(n)
	if n > 0 {
		log.Info().Int64("purged", n).Msg("expired reset tokens purged")
	}
}
