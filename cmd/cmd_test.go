package cmd

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kozaktomas/face-enroll/internal/cachesync"
	"github.com/kozaktomas/face-enroll/internal/enroll"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{" DEBUG ", slog.LevelDebug},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseLogLevel(tt.in); got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewSyncCacheResult(t *testing.T) {
	synced := newSyncCacheResult(cachesync.Outcome{Status: cachesync.StatusSynced, Count: 12}, 1500*time.Millisecond)
	if !synced.Success || synced.Status != "synced" || synced.Count != 12 || synced.DurationMs != 1500 {
		t.Errorf("unexpected synced result %+v", synced)
	}

	skipped := newSyncCacheResult(cachesync.Outcome{Status: cachesync.StatusSkipped}, 0)
	if !skipped.Success || skipped.Status != "skipped" {
		t.Errorf("unexpected skipped result %+v", skipped)
	}

	failed := newSyncCacheResult(cachesync.Outcome{Status: cachesync.StatusFailed, Err: cachesync.ErrEmptyResult}, 0)
	if failed.Success || failed.Status != "failed" || failed.Error != cachesync.ErrEmptyResult.Error() {
		t.Errorf("unexpected failed result %+v", failed)
	}
}

func TestReadSubmission(t *testing.T) {
	dir := t.TempDir()
	front := filepath.Join(dir, "front.jpg")
	if err := os.WriteFile(front, []byte("jpeg bytes"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	sub, err := readSubmission(map[string]string{
		enroll.SlotFront: front,
		enroll.SlotLeft:  "",
	})
	if err != nil {
		t.Fatalf("readSubmission: %v", err)
	}
	if want := base64.StdEncoding.EncodeToString([]byte("jpeg bytes")); sub[enroll.SlotFront] != want {
		t.Errorf("front = %q, want %q", sub[enroll.SlotFront], want)
	}
	if sub.Has(enroll.SlotLeft) {
		t.Error("expected left slot to be absent")
	}

	_, err = readSubmission(map[string]string{enroll.SlotRight: filepath.Join(dir, "missing.jpg")})
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestReportError(t *testing.T) {
	rejection := &enroll.Failure{Code: enroll.CodeMissingFront, Message: "the front photo is required"}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"plain error", errors.New("boom"), "boom\n"},
		{"already reported", &reportedError{err: rejection}, ""},
		{"wrapped reported", fmt.Errorf("run: %w", &reportedError{err: rejection}), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			reportError(&buf, tt.err)
			if buf.String() != tt.want {
				t.Errorf("reportError wrote %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestReportedError_KeepsCause(t *testing.T) {
	rejection := &enroll.Failure{Code: enroll.CodeLowConfidence}
	err := error(&reportedError{err: rejection})

	var f *enroll.Failure
	if !errors.As(err, &f) || f.Code != enroll.CodeLowConfidence {
		t.Errorf("expected wrapped failure, got %v", err)
	}
}
