package config

import (
	_ "embed"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Enrollment EnrollmentConfig `yaml:"enrollment"`
	Sync       SyncConfig       `yaml:"sync"`
}

type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"-"` // CORS whitelist in addition to localhost
}

type DatabaseConfig struct {
	URL          string `yaml:"-"` // PostgreSQL connection URL
	MySQLDSN     string `yaml:"-"` // MariaDB/MySQL DSN (e.g., user:pass@tcp(host:3306)/cameraai)
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// Driver returns which identity store backend is configured.
// PostgreSQL wins when both are set.
func (c *DatabaseConfig) Driver() string {
	switch {
	case c.URL != "":
		return "postgres"
	case c.MySQLDSN != "":
		return "mysql"
	default:
		return ""
	}
}

type EmbeddingConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type EnrollmentConfig struct {
	MinConfidence float64 `yaml:"min_confidence"`
	MaxImageSize  int     `yaml:"max_image_size"` // longest edge sent to the embedding server
}

type SyncConfig struct {
	SourceURL      string        `yaml:"-"`
	CachePath      string        `yaml:"cache_path"`
	PermittedHours []int         `yaml:"permitted_hours"` // empty = always permitted
	MaxJitter      time.Duration `yaml:"max_jitter"`
	FetchTimeout   time.Duration `yaml:"fetch_timeout"`
	Interval       time.Duration `yaml:"interval"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads a float in [0,1]. Out of range or invalid values fall back to the default.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 && f <= 1 {
		return f
	}
	return defaultVal
}

// envDuration parses a Go duration ("30m", "15s"). Zero is allowed and is
// how jitter gets disabled.
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d >= 0 {
		return d
	}
	return defaultVal
}

// envList reads a comma-separated list, dropping blank entries.
func envList(key string) []string {
	var out []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envHours parses a comma-separated list of hours ("1,13").
// An explicitly empty value or "*" means every hour is permitted.
func envHours(key string, defaultVal []int) []int {
	s, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return nil
	}
	hours, err := ParseHours(s)
	if err != nil {
		return defaultVal
	}
	return hours
}

// ParseHours parses a comma-separated hour list. Each hour must be in 0..23.
func ParseHours(s string) ([]int, error) {
	var hours []int
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		h, err := strconv.Atoi(part)
		if err != nil {
			return nil, &HourError{Value: part}
		}
		if h < 0 || h > 23 {
			return nil, &HourError{Value: part}
		}
		hours = append(hours, h)
	}
	return hours, nil
}

// HourError reports an unparsable permitted hour.
type HourError struct {
	Value string
}

func (e *HourError) Error() string {
	return "invalid hour " + strconv.Quote(e.Value) + ": must be an integer between 0 and 23"
}

func defaults() Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	return cfg
}

func Load() *Config {
	cfg := defaults()

	return &Config{
		Server: ServerConfig{
			Host: envString("WEB_HOST", cfg.Server.Host),
			Port: envInt("WEB_PORT", cfg.Server.Port),

			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MySQLDSN:     os.Getenv("MYSQL_DSN"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", cfg.Database.MaxIdleConns),
		},
		Embedding: EmbeddingConfig{
			URL:     envString("EMBEDDING_URL", cfg.Embedding.URL),
			Timeout: envDuration("EMBEDDING_TIMEOUT", cfg.Embedding.Timeout),
		},
		Enrollment: EnrollmentConfig{
			MinConfidence: envFloat("ENROLL_MIN_CONFIDENCE", cfg.Enrollment.MinConfidence),
			MaxImageSize:  envInt("ENROLL_MAX_IMAGE_SIZE", cfg.Enrollment.MaxImageSize),
		},
		Sync: SyncConfig{
			SourceURL:      os.Getenv("SYNC_SOURCE_URL"),
			CachePath:      envString("SYNC_CACHE_PATH", cfg.Sync.CachePath),
			PermittedHours: envHours("SYNC_PERMITTED_HOURS", cfg.Sync.PermittedHours),
			MaxJitter:      envDuration("SYNC_MAX_JITTER", cfg.Sync.MaxJitter),
			FetchTimeout:   envDuration("SYNC_FETCH_TIMEOUT", cfg.Sync.FetchTimeout),
			Interval:       envDuration("SYNC_INTERVAL", cfg.Sync.Interval),
		},
	}
}
