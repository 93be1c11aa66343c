// Package config provides configuration management for the Slateroom Agent.
// Configuration is loaded from an optional TOML file with environment
// variable overrides applied on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	// Default values
	DefaultPort      = 8873
	DefaultLogLevel  = "info"
	DefaultDataDir   = ".slateroom"
	DefaultWidth     = 720
	DefaultHeight    = 405
	DefaultPadding   = 3
	DefaultFPS       = 24.0
	DefaultFFmpegBin = "ffmpeg"
	DefaultHostBin   = "nuke"
	// DefaultHostMajor selects the modern write-profile defaults.
	DefaultHostMajor = 13

	// Environment variable names
	EnvPort         = "SLATEROOM_PORT"
	EnvLogLevel     = "SLATEROOM_LOG_LEVEL"
	EnvDataDir      = "SLATEROOM_DATA_DIR"
	EnvTrackerURL   = "SLATEROOM_TRACKER_URL"
	EnvTrackerToken = "SLATEROOM_TRACKER_TOKEN"
	EnvFFmpegBin    = "SLATEROOM_FFMPEG"
	EnvHostBin      = "SLATEROOM_HOST_BIN"

	// Database filename
	DBFilename = "slateroom.db"

	// Subprocess timeouts in seconds
	DefaultRenderTimeoutSeconds = 3600
	DefaultEncodeTimeoutSeconds = 1800
)

// Agent holds daemon-level settings.
type Agent struct {
	Port     int    `toml:"port"`
	LogLevel string `toml:"log_level"`
	DataDir  string `toml:"data_dir"`
	Headless bool   `toml:"headless"`
	// WatchDir, when set, is polled for settled frame sequences which are
	// submitted as review jobs automatically.
	WatchDir string `toml:"watch_dir"`
}

// Movie holds review movie geometry and slate settings.
type Movie struct {
	Width                int     `toml:"width"`
	Height               int     `toml:"height"`
	VersionNumberPadding int     `toml:"version_number_padding"`
	SlateLogo            string  `toml:"slate_logo"`
	BurninTemplate       string  `toml:"burnin_template"`
	FallbackFPS          float64 `toml:"fallback_fps"`
}

// Review holds the result-handling switches. At least one of UploadToTracker
// or StoreOnDisk must be on for a submitted job to produce anything.
type Review struct {
	UploadToTracker bool `toml:"upload_to_tracker"`
	StoreOnDisk     bool `toml:"store_on_disk"`
}

// Tracker holds the production-tracking service connection settings.
type Tracker struct {
	BaseURL string `toml:"base_url"`
	Token   string `toml:"token"`
	Project string `toml:"project"`
}

// Tools holds external binary paths and their execution timeouts.
type Tools struct {
	FFmpegBin string `toml:"ffmpeg_bin"`
	HostBin   string `toml:"host_bin"`
	// HostMajorVersion picks the movie write defaults matching the installed
	// compositing host release.
	HostMajorVersion     int `toml:"host_major_version"`
	RenderTimeoutSeconds int `toml:"render_timeout_seconds"`
	EncodeTimeoutSeconds int `toml:"encode_timeout_seconds"`
}

// RenderTimeout returns the host render subprocess timeout.
func (t Tools) RenderTimeout() time.Duration {
	return time.Duration(t.RenderTimeoutSeconds) * time.Second
}

// EncodeTimeout returns the per-derivative encoder subprocess timeout.
func (t Tools) EncodeTimeout() time.Duration {
	return time.Duration(t.EncodeTimeoutSeconds) * time.Second
}

// Config encapsulates all configuration values for the agent.
type Config struct {
	Agent   Agent   `toml:"agent"`
	Movie   Movie   `toml:"movie"`
	Review  Review  `toml:"review"`
	Tracker Tracker `toml:"tracker"`
	Tools   Tools   `toml:"tools"`
}

// Default returns a configuration populated with all default values.
func Default() Config {
	return Config{
		Agent: Agent{
			Port:     DefaultPort,
			LogLevel: DefaultLogLevel,
			DataDir:  defaultDataDir(),
		},
		Movie: Movie{
			Width:                DefaultWidth,
			Height:               DefaultHeight,
			VersionNumberPadding: DefaultPadding,
			FallbackFPS:          DefaultFPS,
		},
		Review: Review{
			UploadToTracker: true,
			StoreOnDisk:     true,
		},
		Tools: Tools{
			FFmpegBin:            DefaultFFmpegBin,
			HostBin:              DefaultHostBin,
			HostMajorVersion:     DefaultHostMajor,
			RenderTimeoutSeconds: DefaultRenderTimeoutSeconds,
			EncodeTimeoutSeconds: DefaultEncodeTimeoutSeconds,
		},
	}
}

// Load reads the TOML file at path (if it exists), applies environment
// variable overrides, and validates the result. An empty path means the
// default location <data_dir>/config.toml.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = filepath.Join(cfg.Agent.DataDir, "config.toml")
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		c.Agent.Port = port
	}
	if ll := os.Getenv(EnvLogLevel); ll != "" {
		c.Agent.LogLevel = ll
	}
	if dd := os.Getenv(EnvDataDir); dd != "" {
		c.Agent.DataDir = dd
	}
	if u := os.Getenv(EnvTrackerURL); u != "" {
		c.Tracker.BaseURL = u
	}
	if t := os.Getenv(EnvTrackerToken); t != "" {
		c.Tracker.Token = t
	}
	if f := os.Getenv(EnvFFmpegBin); f != "" {
		c.Tools.FFmpegBin = f
	}
	if h := os.Getenv(EnvHostBin); h != "" {
		c.Tools.HostBin = h
	}
	return nil
}

// Validate checks invariants that would otherwise surface as confusing
// runtime failures deep in a render.
func (c *Config) Validate() error {
	if c.Agent.Port < 1 || c.Agent.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Agent.Port)
	}
	if c.Movie.Width <= 0 || c.Movie.Height <= 0 {
		return fmt.Errorf("movie dimensions must be positive, got %dx%d", c.Movie.Width, c.Movie.Height)
	}
	if c.Movie.VersionNumberPadding < 1 {
		return fmt.Errorf("version_number_padding must be at least 1, got %d", c.Movie.VersionNumberPadding)
	}
	if c.Movie.FallbackFPS <= 0 {
		return fmt.Errorf("fallback_fps must be positive, got %v", c.Movie.FallbackFPS)
	}
	if c.Tools.RenderTimeoutSeconds <= 0 {
		return fmt.Errorf("render_timeout_seconds must be positive")
	}
	if c.Tools.EncodeTimeoutSeconds <= 0 {
		return fmt.Errorf("encode_timeout_seconds must be positive")
	}
	// A slate_logo pointing at a directory (the historical empty-setting
	// fallback) is treated the same as unset.
	if c.Movie.SlateLogo != "" {
		if info, err := os.Stat(c.Movie.SlateLogo); err != nil || info.IsDir() {
			c.Movie.SlateLogo = ""
		}
	}
	return nil
}

// DBPath returns the full path to the SQLite database file
func (c *Config) DBPath() string {
	return filepath.Join(c.Agent.DataDir, DBFilename)
}

// LockPath returns the path of the single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Agent.DataDir, "agent.lock")
}

// ScratchDir returns the directory used for ephemeral render scripts.
func (c *Config) ScratchDir() string {
	return filepath.Join(c.Agent.DataDir, "scratch")
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
