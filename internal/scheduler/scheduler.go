package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/air-quality-aggregation/internal/airquality"
	"github.com/i474232898/air-quality-aggregation/internal/store"
)

// Job is a named periodic task.
type Job struct {
	Name     string
	Interval time.Duration
	Timeout  time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler runs periodic background jobs.
type Scheduler struct {
	scheduler *gocron.Scheduler
	jobs      []Job
	logger    *slog.Logger
}

// New creates a new Scheduler.
func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		logger:    logger,
	}
}

// Add registers a job. Jobs with a non-positive interval are skipped.
func (s *Scheduler) Add(job Job) {
	if job.Interval <= 0 || job.Run == nil {
		s.logger.Info("scheduler: job disabled", "job", job.Name)
		return
	}
	s.jobs = append(s.jobs, job)
}

// Jobs returns the registered job names.
func (s *Scheduler) Jobs() []string {
	names := make([]string, 0, len(s.jobs))
	for _, j := range s.jobs {
		names = append(names, j.Name)
	}
	return names
}

// Start schedules the registered jobs and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.jobs) == 0 {
		s.logger.Info("scheduler: no jobs configured; nothing to schedule")
		return nil
	}

	for _, job := range s.jobs {
		_, err := s.scheduler.Every(job.Interval).Tag(job.Name).SingletonMode().Do(func() {
			s.run(job)
		})
		if err != nil {
			return err
		}
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) run(job Job) {
	ctx := context.Background()
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	start := time.Now()
	s.logger.Debug("scheduler: running job", "job", job.Name)
	if err := job.Run(ctx); err != nil {
		s.logger.Error("scheduler: job failed", "job", job.Name, "error", err)
		return
	}
	s.logger.Debug("scheduler: completed job", "job", job.Name, "took", time.Since(start))
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// HistoryJob periodically aggregates scope into the history store.
func HistoryJob(service *airquality.Service, scope string, interval, timeout time.Duration, logger *slog.Logger) Job {
	return Job{
		Name:     "history:" + scope,
		Interval: interval,
		Timeout:  timeout,
		Run: func(ctx context.Context) error {
			n, err := service.Record(ctx, scope)
			if err != nil {
				return err
			}
			logger.Info("history: snapshot recorded", "scope", scope, "measurements", n)
			return nil
		},
	}
}

// PurgeCodesJob periodically drops expired verification codes.
func PurgeCodesJob(codes *store.CodeStore, interval time.Duration, logger *slog.Logger) Job {
	return Job{
		Name:     "verification:purge",
		Interval: interval,
		Run: func(ctx context.Context) error {
			if n := codes.Purge(); n > 0 {
				logger.Debug("verification: purged expired codes", "count", n)
			}
			return nil
		},
	}
}
