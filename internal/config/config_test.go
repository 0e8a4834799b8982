package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"WEB_HOST", "WEB_PORT", "EMBEDDING_URL", "EMBEDDING_TIMEOUT", "ENROLL_MIN_CONFIDENCE",
		"ENROLL_MAX_IMAGE_SIZE", "SYNC_CACHE_PATH", "SYNC_MAX_JITTER", "SYNC_FETCH_TIMEOUT", "SYNC_INTERVAL",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Server.Port != 5002 {
		t.Errorf("expected default port 5002, got %d", cfg.Server.Port)
	}
	if cfg.Enrollment.MinConfidence != 0.70 {
		t.Errorf("expected min confidence 0.70, got %f", cfg.Enrollment.MinConfidence)
	}
	if cfg.Enrollment.MaxImageSize != 1920 {
		t.Errorf("expected max image size 1920, got %d", cfg.Enrollment.MaxImageSize)
	}
	if cfg.Embedding.URL != "http://localhost:8000" {
		t.Errorf("unexpected embedding URL '%s'", cfg.Embedding.URL)
	}
	if cfg.Embedding.Timeout != time.Minute {
		t.Errorf("expected embedding timeout 1m, got %s", cfg.Embedding.Timeout)
	}
	if cfg.Sync.MaxJitter != 30*time.Minute {
		t.Errorf("expected max jitter 30m, got %s", cfg.Sync.MaxJitter)
	}
	if cfg.Sync.FetchTimeout != 15*time.Second {
		t.Errorf("expected fetch timeout 15s, got %s", cfg.Sync.FetchTimeout)
	}
	if cfg.Sync.CachePath != "students_local.db" {
		t.Errorf("unexpected cache path '%s'", cfg.Sync.CachePath)
	}
	if len(cfg.Sync.PermittedHours) != 0 {
		t.Errorf("expected no permitted hours by default, got %v", cfg.Sync.PermittedHours)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("WEB_PORT", "9090")
	t.Setenv("ENROLL_MIN_CONFIDENCE", "0.85")
	t.Setenv("SYNC_PERMITTED_HOURS", "1, 13")
	t.Setenv("SYNC_MAX_JITTER", "0")
	t.Setenv("SYNC_SOURCE_URL", "https://example.com/api/student/list")
	t.Setenv("MYSQL_DSN", "user:pass@tcp(localhost:3306)/cameraai")

	cfg := Load()

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Enrollment.MinConfidence != 0.85 {
		t.Errorf("expected min confidence 0.85, got %f", cfg.Enrollment.MinConfidence)
	}
	if len(cfg.Sync.PermittedHours) != 2 || cfg.Sync.PermittedHours[0] != 1 || cfg.Sync.PermittedHours[1] != 13 {
		t.Errorf("expected permitted hours [1 13], got %v", cfg.Sync.PermittedHours)
	}
	if cfg.Sync.MaxJitter != 0 {
		t.Errorf("expected jitter disabled, got %s", cfg.Sync.MaxJitter)
	}
	if cfg.Sync.SourceURL != "https://example.com/api/student/list" {
		t.Errorf("unexpected source URL '%s'", cfg.Sync.SourceURL)
	}
	if cfg.Database.Driver() != "mysql" {
		t.Errorf("expected mysql driver, got '%s'", cfg.Database.Driver())
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("WEB_PORT", "-1")
	t.Setenv("ENROLL_MIN_CONFIDENCE", "1.5")
	t.Setenv("SYNC_FETCH_TIMEOUT", "soon")
	t.Setenv("SYNC_PERMITTED_HOURS", "1,25")

	cfg := Load()

	if cfg.Server.Port != 5002 {
		t.Errorf("expected fallback port 5002, got %d", cfg.Server.Port)
	}
	if cfg.Enrollment.MinConfidence != 0.70 {
		t.Errorf("expected fallback confidence 0.70, got %f", cfg.Enrollment.MinConfidence)
	}
	if cfg.Sync.FetchTimeout != 15*time.Second {
		t.Errorf("expected fallback timeout 15s, got %s", cfg.Sync.FetchTimeout)
	}
	if len(cfg.Sync.PermittedHours) != 0 {
		t.Errorf("expected fallback to default hours, got %v", cfg.Sync.PermittedHours)
	}
}

func TestParseHours(t *testing.T) {
	tests := []struct {
		input   string
		want    []int
		wantErr bool
	}{
		{"1,13", []int{1, 13}, false},
		{" 0 , 23 ", []int{0, 23}, false},
		{"5,", []int{5}, false},
		{"24", nil, true},
		{"-1", nil, true},
		{"one", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseHours(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseHours(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseHours(%q) unexpected error: %v", tt.input, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParseHours(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ParseHours(%q)[%d] = %d, want %d", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDriver(t *testing.T) {
	tests := []struct {
		name string
		cfg  DatabaseConfig
		want string
	}{
		{"none", DatabaseConfig{}, ""},
		{"postgres", DatabaseConfig{URL: "postgres://x"}, "postgres"},
		{"mysql", DatabaseConfig{MySQLDSN: "u:p@tcp(h)/db"}, "mysql"},
		{"both prefers postgres", DatabaseConfig{URL: "postgres://x", MySQLDSN: "u:p@tcp(h)/db"}, "postgres"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Driver(); got != tt.want {
				t.Errorf("Driver() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoad_AllowedOrigins(t *testing.T) {
	t.Setenv("WEB_ALLOWED_ORIGINS", " https://school.example.com, ,https://admin.example.com ")

	cfg := Load()

	want := []string{"https://school.example.com", "https://admin.example.com"}
	if len(cfg.Server.AllowedOrigins) != len(want) {
		t.Fatalf("expected %v, got %v", want, cfg.Server.AllowedOrigins)
	}
	for i := range want {
		if cfg.Server.AllowedOrigins[i] != want[i] {
			t.Errorf("origin %d = %q, want %q", i, cfg.Server.AllowedOrigins[i], want[i])
		}
	}
}
