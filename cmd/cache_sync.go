package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kozaktomas/face-enroll/internal/cachesync"
	"github.com/kozaktomas/face-enroll/internal/config"
	"github.com/kozaktomas/face-enroll/internal/database/sqlite"
	"github.com/kozaktomas/face-enroll/internal/remote"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var cacheSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync the remote identity list into the local cache",
	Long: `Fetch the identity list from SYNC_SOURCE_URL and replace the local SQLite
cache with it in one transaction.

A run only happens during SYNC_PERMITTED_HOURS and starts after a random delay
of up to SYNC_MAX_JITTER. An empty or failed fetch never touches the cache.

Examples:
  # One run, cron friendly
  face-enroll cache sync

  # Run now without the random delay
  face-enroll cache sync --no-jitter

  # Keep running, one attempt every SYNC_INTERVAL
  face-enroll cache sync --loop

  # JSON output for scripting
  face-enroll cache sync --json`,
	RunE: runCacheSync,
}

func init() {
	cacheCmd.AddCommand(cacheSyncCmd)

	cacheSyncCmd.Flags().Bool("no-jitter", false, "Start the fetch immediately")
	cacheSyncCmd.Flags().Bool("json", false, "Output as JSON instead of progress bar")
	cacheSyncCmd.Flags().Bool("loop", false, "Run on every SYNC_INTERVAL tick until interrupted")
}

// SyncCacheResult represents the result of a cache sync run
type SyncCacheResult struct {
	Success       bool   `json:"success"`
	Status        string `json:"status"`
	Count         int    `json:"count"`
	Error         string `json:"error,omitempty"`
	DurationMs    int64  `json:"duration_ms"`
	DurationHuman string `json:"duration_human,omitempty"`
}

func newSyncCacheResult(out cachesync.Outcome, elapsed time.Duration) SyncCacheResult {
	result := SyncCacheResult{
		Success:    out.Status != cachesync.StatusFailed,
		Status:     out.Status.String(),
		Count:      out.Count,
		DurationMs: elapsed.Milliseconds(),
	}
	if out.Err != nil {
		result.Error = out.Err.Error()
	}
	return result
}

func runCacheSync(cmd *cobra.Command, args []string) error {
	noJitter := mustGetBool(cmd, "no-jitter")
	jsonOutput := mustGetBool(cmd, "json")
	loop := mustGetBool(cmd, "loop")

	cfg := config.Load()
	if cfg.Sync.SourceURL == "" {
		return errors.New("SYNC_SOURCE_URL environment variable is required")
	}

	cache, err := sqlite.Open(cfg.Sync.CachePath)
	if err != nil {
		return fmt.Errorf("failed to open local cache: %w", err)
	}
	defer cache.Close()

	maxJitter := cfg.Sync.MaxJitter
	if noJitter {
		maxJitter = 0
	}

	opts := []cachesync.Option{}
	if !jsonOutput {
		opts = append(opts, cachesync.WithSleeper(countdownSleep))
	}
	job := cachesync.NewJob(
		cachesync.NewGate(cfg.Sync.PermittedHours),
		maxJitter,
		remote.NewClient(cfg.Sync.SourceURL, cfg.Sync.FetchTimeout),
		cache,
		opts...,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if loop {
		return runSyncLoop(ctx, job, cfg.Sync.Interval, jsonOutput)
	}

	start := time.Now()
	out := job.Run(ctx, start)
	if err := printSyncResult(newSyncCacheResult(out, time.Since(start)), jsonOutput); err != nil {
		return err
	}
	if out.Status == cachesync.StatusFailed {
		return &reportedError{err: fmt.Errorf("cache sync failed: %w", out.Err)}
	}
	return nil
}

// runSyncLoop keeps syncing until ctx is cancelled. Failed runs are reported
// and retried on the next tick.
func runSyncLoop(ctx context.Context, job *cachesync.Job, interval time.Duration, jsonOutput bool) error {
	if !jsonOutput {
		fmt.Printf("Syncing every %s, press Ctrl+C to stop\n", interval)
	}

	start := time.Now()
	scheduler := cachesync.NewScheduler(job, interval, func(out cachesync.Outcome) {
		if err := printSyncResult(newSyncCacheResult(out, time.Since(start)), jsonOutput); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		start = time.Now()
	})

	err := scheduler.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func printSyncResult(result SyncCacheResult, jsonOutput bool) error {
	if jsonOutput {
		return outputJSON(result)
	}

	switch result.Status {
	case cachesync.StatusSynced.String():
		fmt.Printf("Cache synced: %d identities (%s)\n", result.Count, time.Duration(result.DurationMs)*time.Millisecond)
	case cachesync.StatusSkipped.String():
		fmt.Println("Sync skipped: outside permitted hours")
	default:
		fmt.Printf("Sync failed: %s\n", result.Error)
		fmt.Println("The local cache was left unchanged.")
	}
	return nil
}

// countdownSleep is cachesync.Sleep with a progress bar counting off the delay.
func countdownSleep(ctx context.Context, d time.Duration) error {
	seconds := int64(d / time.Second)
	if seconds < 1 {
		return cachesync.Sleep(ctx, d)
	}

	bar := progressbar.NewOptions64(seconds,
		progressbar.OptionSetDescription("Waiting before fetch"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("s"),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionFullWidth(),
	)
	defer bar.Finish()

	deadline := time.NewTimer(d)
	defer deadline.Stop()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return nil
		case <-ticker.C:
			_ = bar.Add64(1)
		}
	}
}
