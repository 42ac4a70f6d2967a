package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
)

// DefaultFile is read when no explicit path is given and it exists.
const DefaultFile = "config.yml"

// Config holds all application configuration.
type Config struct {
	ManagedDirectory string          `yaml:"managed_directory" envconfig:"MANAGED_DIRECTORY"`
	Server           ServerConfig    `yaml:"server"`
	Upload           UploadConfig    `yaml:"upload"`
	Archive          ArchiveConfig   `yaml:"archive"`
	Listing          ListingConfig   `yaml:"listing"`
	Logging          LogConfig       `yaml:"logging"`
	RateLimit        RateLimitConfig `yaml:"rate_limit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string `yaml:"port" envconfig:"PORT"`
	Host            string `yaml:"host" envconfig:"HOST"`
	ShutdownTimeout int    `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

// UploadConfig mirrors the upload section of config.yml. Durations are seconds.
type UploadConfig struct {
	EnableChunked       bool   `yaml:"enable_chunked_upload" envconfig:"UPLOAD_ENABLE_CHUNKED"`
	ChunkSizeMB         int    `yaml:"chunk_size_mb" envconfig:"UPLOAD_CHUNK_SIZE_MB"`
	MaxConcurrentChunks int    `yaml:"max_concurrent_chunks" envconfig:"UPLOAD_MAX_CONCURRENT_CHUNKS"`
	ChunkTimeout        int    `yaml:"chunk_timeout" envconfig:"UPLOAD_CHUNK_TIMEOUT"`
	MaxFileSizeGB       int    `yaml:"max_file_size_gb" envconfig:"UPLOAD_MAX_FILE_SIZE_GB"`
	SweepInterval       int    `yaml:"sweep_interval" envconfig:"UPLOAD_SWEEP_INTERVAL"`
	TempDir             string `yaml:"temp_dir" envconfig:"UPLOAD_TEMP_DIR"`
}

// ArchiveConfig selects which optional archive readers are offered.
type ArchiveConfig struct {
	Disabled []string `yaml:"disabled" envconfig:"ARCHIVE_DISABLED"`
}

// ListingConfig holds name patterns hidden from listings and archives.
type ListingConfig struct {
	Exclude []string `yaml:"exclude" envconfig:"LISTING_EXCLUDE"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Development bool   `yaml:"development" envconfig:"LOG_DEV"`

	// ActivityFile, when set, receives the activity log as JSON lines.
	ActivityFile string `yaml:"activity_file" envconfig:"LOG_ACTIVITY_FILE"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `yaml:"requests_per_second" envconfig:"RATE_LIMIT_RPS"`
	Burst             int  `yaml:"burst" envconfig:"RATE_LIMIT_BURST"`
	Enabled           bool `yaml:"enabled" envconfig:"RATE_LIMIT_ENABLED"`
}

// Load builds the configuration from defaults, then the YAML file at path,
// then environment variables. An empty path reads DefaultFile if present.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ManagedDirectory = strings.TrimSpace(cfg.ManagedDirectory)
	if cfg.ManagedDirectory == "" {
		cfg.ManagedDirectory = Default().ManagedDirectory
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		ManagedDirectory: "./managed_files",
		Server: ServerConfig{
			Port:            "5000",
			Host:            "0.0.0.0",
			ShutdownTimeout: 10,
		},
		Upload: UploadConfig{
			EnableChunked:       true,
			ChunkSizeMB:         10,
			MaxConcurrentChunks: 3,
			ChunkTimeout:        300,
			MaxFileSizeGB:       8,
			SweepInterval:       300,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Server.Port == "":
		return errors.New("config: server port is required")
	case c.Upload.ChunkSizeMB <= 0:
		return fmt.Errorf("config: upload.chunk_size_mb must be positive, got %d", c.Upload.ChunkSizeMB)
	case c.Upload.MaxFileSizeGB <= 0:
		return fmt.Errorf("config: upload.max_file_size_gb must be positive, got %d", c.Upload.MaxFileSizeGB)
	case c.Upload.MaxConcurrentChunks <= 0:
		return fmt.Errorf("config: upload.max_concurrent_chunks must be positive, got %d", c.Upload.MaxConcurrentChunks)
	case c.Upload.ChunkTimeout <= 0:
		return fmt.Errorf("config: upload.chunk_timeout must be positive, got %d", c.Upload.ChunkTimeout)
	case c.Upload.SweepInterval <= 0:
		return fmt.Errorf("config: upload.sweep_interval must be positive, got %d", c.Upload.SweepInterval)
	case c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0):
		return errors.New("config: rate limit needs positive rps and burst when enabled")
	}

	if c.Upload.TempDir != "" {
		root, rerr := filepath.Abs(c.ManagedDirectory)
		tmp, terr := filepath.Abs(c.Upload.TempDir)
		if rerr == nil && terr == nil {
			if rel, err := filepath.Rel(root, tmp); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
				return fmt.Errorf("config: upload.temp_dir %q must be outside managed_directory", c.Upload.TempDir)
			}
		}
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// ChunkSize returns the chunk size in bytes.
func (u UploadConfig) ChunkSize() int64 { return int64(u.ChunkSizeMB) << 20 }

// MaxFileSize returns the file size limit in bytes.
func (u UploadConfig) MaxFileSize() int64 { return int64(u.MaxFileSizeGB) << 30 }

// IdleTimeout returns how long an upload may sit idle before it is reclaimed.
func (u UploadConfig) IdleTimeout() time.Duration {
	return time.Duration(u.ChunkTimeout) * time.Second
}

// Sweep returns the reclamation interval.
func (u UploadConfig) Sweep() time.Duration {
	return time.Duration(u.SweepInterval) * time.Second
}
