package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"kadig/internal/service"
)

// Job represents a scheduled job
type Job interface {
	Run(ctx context.Context) error
	Name() string
}

// Scheduler manages background jobs
type Scheduler struct {
	cron *cron.Cron
	log  *logrus.Entry
	ctx  context.Context
}

// New creates a scheduler whose jobs run with ctx, so cancelling ctx aborts
// in-flight runs.
func New(ctx context.Context, log *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		log:  log.WithField("component", "scheduler"),
		ctx:  ctx,
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started")
}

// Stop waits for running jobs to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// AddJob registers a job with a cron schedule, e.g. "@every 5m" or
// "*/5 * * * *".
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.log.WithField("job", job.Name()).Debug("running job")
		if err := job.Run(s.ctx); err != nil {
			s.log.WithField("job", job.Name()).Errorf("job failed: %v", err)
			return
		}
		s.log.WithField("job", job.Name()).Debug("job completed")
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	s.log.WithFields(logrus.Fields{"schedule": schedule, "job": job.Name()}).Info("job registered")
	return nil
}

// RunNow executes a job immediately, outside its schedule.
func (s *Scheduler) RunNow(job Job) error {
	s.log.WithField("job", job.Name()).Info("running job immediately")
	return job.Run(s.ctx)
}

// Runner is satisfied by service.Refresher.
type Runner interface {
	Run(ctx context.Context, req service.Request) (*service.Summary, error)
}

// RefreshJob sweeps every user's holdings.
type RefreshJob struct {
	runner  Runner
	timeout time.Duration
	log     *logrus.Logger
}

func NewRefreshJob(runner Runner, timeout time.Duration, log *logrus.Logger) *RefreshJob {
	return &RefreshJob{runner: runner, timeout: timeout, log: log}
}

func (j *RefreshJob) Name() string { return "update-prices" }

func (j *RefreshJob) Run(ctx context.Context) error {
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}
	summary, err := j.runner.Run(ctx, service.Request{})
	if err != nil {
		return err
	}
	if len(summary.Errors) > 0 {
		j.log.WithField("run_id", summary.RunID).Warnf("scheduled refresh finished with %d errors: %v", len(summary.Errors), summary.Errors)
	}
	return nil
}
