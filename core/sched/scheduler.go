// Package sched wraps gocron to manage periodic jobs addressable by key, so
// callers can register and cancel polling loops without holding timer handles
// and tests can drive a virtual clock.
package sched

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"

	"github.com/eaduck/client/core"
)

type Option func(*options)

type options struct {
	clock clockwork.Clock
}

// WithClock injects a clock source; tests pass a fake clock.
func WithClock(clock clockwork.Clock) Option {
	return func(o *options) { o.clock = clock }
}

type Scheduler struct {
	scheduler gocron.Scheduler
	logger    core.Logger

	mu   sync.Mutex
	jobs map[string]gocron.Job
}

func New(logger core.Logger, opts ...Option) (*Scheduler, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	var gopts []gocron.SchedulerOption
	if o.clock != nil {
		gopts = append(gopts, gocron.WithClock(o.clock))
	}
	s, err := gocron.NewScheduler(gopts...)
	if err != nil {
		return nil, errors.Wrap(err, "sched: creating scheduler")
	}
	return &Scheduler{
		scheduler: s,
		logger:    logger,
		jobs:      make(map[string]gocron.Job),
	}, nil
}

// Register schedules task to run every interval under the given key.
// Registering an existing key replaces the previous job.
func (s *Scheduler) Register(key string, interval time.Duration, task func(ctx context.Context)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.jobs[key]; ok {
		if err := s.scheduler.RemoveJob(old.ID()); err != nil {
			s.logger.Warn("sched: removing replaced job failed", key, err)
		}
		delete(s.jobs, key)
	}

	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task, context.Background()),
		gocron.WithName(key),
	)
	if err != nil {
		return errors.Wrapf(err, "sched: registering job %q", key)
	}
	s.jobs[key] = job
	return nil
}

// Cancel removes the job registered under key; safe to call when absent or
// more than once.
func (s *Scheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[key]
	if !ok {
		return
	}
	if err := s.scheduler.RemoveJob(job.ID()); err != nil {
		s.logger.Warn("sched: removing job failed", key, err)
	}
	delete(s.jobs, key)
}

// Registered reports whether a job exists under key.
func (s *Scheduler) Registered(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.jobs[key]
	return ok
}

func (s *Scheduler) Start() {
	s.scheduler.Start()
}

func (s *Scheduler) Shutdown() error {
	return s.scheduler.Shutdown()
}
