package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

type Scheduler struct {
	s   gocron.Scheduler
	log *zap.Logger
}

// NewScheduler registers the stale payment sweep. Runs never overlap; a run
// that is still busy when the next tick comes is rescheduled.
func NewScheduler(payments *PaymentService, interval time.Duration, log *zap.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()
			if _, err := payments.ExpireStalePayments(ctx); err != nil {
				log.Error("expire stale payments", zap.Error(err))
			}
		}),
		gocron.WithName("expire-stale-payments"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, fmt.Errorf("register payment sweep: %w", err)
	}
	return &Scheduler{s: s, log: log}, nil
}

func (s *Scheduler) Start() {
	s.s.Start()
	s.log.Info("scheduler started")
}

func (s *Scheduler) Shutdown() error {
	return s.s.Shutdown()
}
