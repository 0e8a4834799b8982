package cachesync

import (
	"context"
	"time"
)

// Scheduler runs a Job immediately and then on every tick of interval.
// Runs never overlap; ticks missed during a long run collapse into one.
type Scheduler struct {
	job      *Job
	interval time.Duration
	now      func() time.Time
	onResult func(Outcome)
}

// NewScheduler creates a scheduler. onResult, if non-nil, receives every outcome.
func NewScheduler(job *Job, interval time.Duration, onResult func(Outcome)) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{job: job, interval: interval, now: time.Now, onResult: onResult}
}

// Run blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	out := s.job.Run(ctx, s.now())
	if s.onResult != nil {
		s.onResult(out)
	}
}
