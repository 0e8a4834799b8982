// Package cachesync keeps the local identity cache in step with the remote
// identity list: gate by hour, jitter the start, fetch, filter, replace.
package cachesync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/kozaktomas/face-enroll/internal/database"
	"github.com/kozaktomas/face-enroll/internal/remote"
)

var (
	ErrNetwork            = errors.New("network error")
	ErrRemoteUnsuccessful = errors.New("remote reported failure")
	ErrMalformedPayload   = errors.New("malformed payload")
	ErrEmptyResult        = errors.New("no valid identities received")
	ErrStore              = errors.New("local store error")
)

// Status is the result kind of a sync run.
type Status int

const (
	StatusSynced Status = iota
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSynced:
		return "synced"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Outcome describes one run. Count is set for StatusSynced, Err for StatusFailed.
type Outcome struct {
	Status Status
	Count  int
	Err    error
}

// Fetcher returns the unfiltered remote identity list.
type Fetcher interface {
	FetchIdentities(ctx context.Context) ([]remote.Record, error)
}

// Store receives the filtered snapshot.
type Store interface {
	ReplaceAll(ctx context.Context, identities []database.Identity) error
}

// Job performs sync runs. It is safe to call Run from one goroutine at a time;
// Scheduler guarantees that.
type Job struct {
	gate      Gate
	fetcher   Fetcher
	store     Store
	maxJitter time.Duration
	jitter    func(max time.Duration) time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
	logger    *slog.Logger
}

// Option configures a Job.
type Option func(*Job)

// WithJitter replaces the random jitter source.
func WithJitter(fn func(max time.Duration) time.Duration) Option {
	return func(j *Job) { j.jitter = fn }
}

// WithSleeper replaces the context-aware sleep used for jitter.
func WithSleeper(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(j *Job) { j.sleep = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(j *Job) { j.logger = l }
}

// NewJob creates a sync job. A zero maxJitter disables the start delay.
func NewJob(gate Gate, maxJitter time.Duration, fetcher Fetcher, store Store, opts ...Option) *Job {
	j := &Job{
		gate:      gate,
		fetcher:   fetcher,
		store:     store,
		maxJitter: max(maxJitter, 0),
		jitter:    uniformJitter,
		sleep:     Sleep,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Run performs one sync attempt evaluated at now.
func (j *Job) Run(ctx context.Context, now time.Time) Outcome {
	if !j.gate.Permits(now) {
		j.logger.Info("sync skipped, outside permitted hours", "hour", now.Hour())
		return Outcome{Status: StatusSkipped}
	}

	var delay time.Duration
	if j.maxJitter > 0 {
		delay = j.jitter(j.maxJitter)
	}
	if delay > 0 {
		j.logger.Info("waiting before fetch", "delay", delay)
	}
	if err := j.sleep(ctx, delay); err != nil {
		return j.fail(fmt.Errorf("jitter wait: %w", err))
	}

	records, err := j.fetcher.FetchIdentities(ctx)
	if err != nil {
		return j.fail(classifyFetchError(err))
	}

	identities := Filter(records)
	if dropped := len(records) - len(identities); dropped > 0 {
		j.logger.Info("dropped incomplete records", "dropped", dropped)
	}
	if len(identities) == 0 {
		return j.fail(ErrEmptyResult)
	}

	if err := j.store.ReplaceAll(ctx, identities); err != nil {
		return j.fail(fmt.Errorf("%w: %w", ErrStore, err))
	}

	j.logger.Info("cache synced", "count", len(identities))
	return Outcome{Status: StatusSynced, Count: len(identities)}
}

func (j *Job) fail(err error) Outcome {
	j.logger.Warn("cache sync failed", "error", err)
	return Outcome{Status: StatusFailed, Err: err}
}

// Filter keeps readable records with a non-zero ID and a non-blank name.
func Filter(records []remote.Record) []database.Identity {
	result := make([]database.Identity, 0, len(records))
	for _, r := range records {
		if r.Err != nil || r.ID == 0 || strings.TrimSpace(r.FullName) == "" {
			continue
		}
		result = append(result, r.Identity())
	}
	return result
}

func classifyFetchError(err error) error {
	switch {
	case errors.Is(err, remote.ErrUnsuccessful):
		return fmt.Errorf("%w: %w", ErrRemoteUnsuccessful, err)
	case errors.Is(err, remote.ErrMalformed):
		return fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	default:
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
}

// uniformJitter returns a duration uniformly distributed over [0, max].
func uniformJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(max) + 1))
}

// Sleep waits for d or until ctx is done. It reports ctx.Err() if ctx ends first.
func Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
