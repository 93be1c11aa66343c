package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv(EnvPort)
	os.Unsetenv(EnvDataDir)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Agent.Port != DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Agent.Port, DefaultPort)
	}
	if cfg.Movie.Width != DefaultWidth || cfg.Movie.Height != DefaultHeight {
		t.Errorf("movie size = %dx%d, want %dx%d", cfg.Movie.Width, cfg.Movie.Height, DefaultWidth, DefaultHeight)
	}
	if cfg.Movie.VersionNumberPadding != DefaultPadding {
		t.Errorf("padding = %d, want %d", cfg.Movie.VersionNumberPadding, DefaultPadding)
	}
}

func TestLoad_TOMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[agent]
port = 9000
log_level = "debug"

[movie]
width = 1920
height = 1080
version_number_padding = 4

[review]
upload_to_tracker = false
store_on_disk = true

[tracker]
base_url = "https://tracker.example.com"
project = "Orbital"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Agent.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Agent.Port)
	}
	if cfg.Movie.Width != 1920 || cfg.Movie.Height != 1080 {
		t.Errorf("movie size = %dx%d, want 1920x1080", cfg.Movie.Width, cfg.Movie.Height)
	}
	if cfg.Review.UploadToTracker {
		t.Error("UploadToTracker = true, want false")
	}
	if cfg.Tracker.Project != "Orbital" {
		t.Errorf("Project = %q, want Orbital", cfg.Tracker.Project)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[agent]\nport = 9000\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	os.Setenv(EnvPort, "9100")
	defer os.Unsetenv(EnvPort)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Agent.Port != 9100 {
		t.Errorf("Port = %d, want env override 9100", cfg.Agent.Port)
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	os.Setenv(EnvPort, "99999")
	defer os.Unsetenv(EnvPort)

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("Load() expected error for out-of-range port")
	}
}

func TestValidate_BadPadding(t *testing.T) {
	cfg := Default()
	cfg.Movie.VersionNumberPadding = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() expected error for zero padding")
	}
}

func TestValidate_SlateLogoDirectoryCleared(t *testing.T) {
	cfg := Default()
	cfg.Movie.SlateLogo = t.TempDir()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.Movie.SlateLogo != "" {
		t.Errorf("SlateLogo = %q, want cleared for directory path", cfg.Movie.SlateLogo)
	}
}

func TestDBPath(t *testing.T) {
	cfg := Default()
	cfg.Agent.DataDir = "/data/slateroom"
	want := filepath.Join("/data/slateroom", DBFilename)
	if got := cfg.DBPath(); got != want {
		t.Errorf("DBPath() = %q, want %q", got, want)
	}
}
