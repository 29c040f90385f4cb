package blogcmd

import (
	"context"
	"fmt"
	"sync"
	"time"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-command/cron"

	"github.com/goliatone/go-blog/internal/commands"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// Scheduler registers cron commands on a go-command cron scheduler. Jobs
// stop when the Start context is cancelled or Stop is called.
type Scheduler struct {
	logger interfaces.Logger
	cron   *cron.Scheduler

	mu   sync.Mutex
	subs []cron.Subscription
	done chan struct{}
}

// NewScheduler returns an idle scheduler evaluating expressions in UTC.
func NewScheduler(logger interfaces.Logger) *Scheduler {
	logger = commands.EnsureLogger(logger)
	return &Scheduler{
		logger: logger,
		cron: cron.NewScheduler(
			cron.WithLocation(time.UTC),
			cron.WithLogger(logger),
			cron.WithErrorHandler(func(err error) {
				logger.Error("blog.scheduler.job_failed", "error", err)
			}),
		),
	}
}

// Start registers every job and starts the scheduler. Nothing runs when an
// expression is rejected.
func (s *Scheduler) Start(ctx context.Context, jobs []command.CronCommand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return fmt.Errorf("blogcmd: scheduler already started")
	}

	subs := make([]cron.Subscription, 0, len(jobs))
	for _, job := range jobs {
		opts := job.CronOptions()
		sub, err := s.cron.AddHandler(opts, job.CronHandler())
		if err != nil {
			for _, added := range subs {
				added.Unsubscribe()
			}
			return fmt.Errorf("blogcmd: schedule %q: %w", opts.Expression, err)
		}
		subs = append(subs, sub)
	}
	s.subs = subs

	ctx = commands.EnsureContext(ctx)
	if err := s.cron.Start(ctx); err != nil {
		return err
	}
	s.done = make(chan struct{})
	go func(done <-chan struct{}) {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-done:
		}
	}(s.done)
	s.logger.Info("blog.scheduler.started", "jobs", len(subs))
	return nil
}

// Stop halts the scheduler and removes the registered jobs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		return
	}
	_ = s.cron.Stop(context.Background())
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
	s.subs = nil
	close(s.done)
	s.done = nil
}
